package fakepii

import (
	"sort"
	"strings"

	"piigen/internal/logger"
	"piigen/pkg/textutil"
)

// columnRenames maps the source identity columns onto entity names. Columns
// whose target entity is ignored keep their original name and never match a
// template slot.
var columnRenames = map[string]string{
	"Surname":         "LAST_NAME",
	"GivenName":       "FIRST_NAME",
	"Title":           "TITLE",
	"Gender":          "GENDER",
	"City":            "CITY",
	"ZipCode":         "ZIP",
	"CountryFull":     "COUNTRY",
	"Occupation":      "OCCUPATION",
	"TelephoneNumber": "PHONE_NUMBER",
	"CCNumber":        "CREDIT_CARD",
	"Birthday":        "BIRTHDAY",
	"EmailAddress":    "EMAIL_ADDRESS",
	"StreetAddress":   "FULL_ADDRESS",
	"Domain":          "DOMAIN_NAME",
	"NameSet":         "NAMESET",
}

// PrepOptions control how raw identity records are turned into entity-keyed
// records.
type PrepOptions struct {
	// IgnoreTypes lists entity names that should not be produced.
	IgnoreTypes map[string]bool

	// RealValues maps an entity name to a pool of values extracted from a
	// real corpus. When present, the pool replaces the column of the same
	// name, so generated sentences carry values that were actually observed.
	RealValues map[string][]string
}

// Preparer converts raw identity records into records keyed by entity name,
// deriving the composite and synthetic entities the source data lacks.
type Preparer struct {
	opts PrepOptions
	ext  *Extender
	log  *logger.Logger
}

// NewPreparer creates a Preparer.
func NewPreparer(opts PrepOptions, ext *Extender, log *logger.Logger) *Preparer {
	if opts.IgnoreTypes == nil {
		opts.IgnoreTypes = make(map[string]bool)
	}

	return &Preparer{
		opts: opts,
		ext:  ext,
		log:  log,
	}
}

// Prep prepares identity records for sampling. The input records are not
// modified; every returned record carries the renamed source columns plus the
// derived entities (PERSON, ADDRESS parts, nationalities, financial and
// network identifiers).
func (p *Preparer) Prep(records []Record) ([]Record, error) {
	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	p.log.Info("preparing fake identity records", "count", len(records))

	prepped := p.cloneAndRename(records)

	if p.hasColumn(prepped, "FIRST_NAME") && p.hasColumn(prepped, "LAST_NAME") {
		for _, rec := range prepped {
			rec["PERSON"] = rec["FIRST_NAME"] + " " + rec["LAST_NAME"]
		}
	}

	// The source country column has limited variety, so it is redrawn from
	// the reference table.
	if !p.ignored("COUNTRY") {
		for _, rec := range prepped {
			rec["COUNTRY"] = p.ext.Country()
		}
	}

	if !p.ignored("DATE_TIME") {
		if p.hasColumn(prepped, "BIRTHDAY") {
			for _, rec := range prepped {
				rec["DATE_TIME"] = rec["BIRTHDAY"]
			}
		} else {
			p.log.Warn("cannot derive DATE_TIME, birthday column is missing")
		}
	}

	p.deriveLocations(prepped)
	p.deriveAddressParts(prepped)
	p.deriveTitlesAndRoles(prepped)
	p.deriveNationalities(prepped)
	p.deriveIdentifiers(prepped)
	p.deriveOrganizations(prepped)
	p.applyRealValues(prepped)

	p.log.Info("finished preparing fake identity records", "columns", len(prepped[0]))

	return prepped, nil
}

// cloneAndRename copies every record, swapping brackets out of the values and
// renaming source columns to entity names.
func (p *Preparer) cloneAndRename(records []Record) []Record {
	prepped := make([]Record, len(records))

	for i, rec := range records {
		clone := make(Record, len(rec)+16)

		for key, value := range rec {
			clone[key] = textutil.SwapBrackets(value)
		}

		for key, target := range columnRenames {
			if p.ignored(target) {
				continue
			}

			if value, ok := clone[key]; ok {
				clone[target] = value
				delete(clone, key)
			}
		}

		prepped[i] = clone
	}

	return prepped
}

// deriveLocations fills LOCATION by drawing either the city or the country
// column (one draw for the whole batch), title-casing it and reshuffling it
// across records so a record's location does not match its own city.
func (p *Preparer) deriveLocations(records []Record) {
	if p.ignored("LOCATION") {
		return
	}

	source := "CITY"
	if p.ext.rng.Intn(2) == 1 {
		source = "COUNTRY"
	}

	if !p.hasColumn(records, source) {
		p.log.Warn("cannot derive LOCATION, source column is missing", "column", source)

		return
	}

	pool := make([]string, len(records))
	for i, rec := range records {
		pool[i] = textutil.TitleCase(rec[source])
	}

	p.ext.rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	for i, rec := range records {
		rec["LOCATION"] = pool[i]
	}
}

// deriveAddressParts splits the street address into its number and street and
// builds a full postal address.
func (p *Preparer) deriveAddressParts(records []Record) {
	if p.ignored("ADDRESS") || !p.hasColumn(records, "FULL_ADDRESS") {
		return
	}

	p.log.Debug("deriving address parts")

	for _, rec := range records {
		number, street := splitStreetAddress(rec["FULL_ADDRESS"])

		if !p.ignored("STREET_NO") {
			rec["STREET_NO"] = number
		}

		if !p.ignored("STREET") {
			rec["STREET"] = street
		}
	}

	if p.hasColumn(records, "ZIP") && p.hasColumn(records, "CITY") {
		for _, rec := range records {
			zip := strings.ReplaceAll(rec["ZIP"], " ", "")
			rec["ADDRESS"] = rec["FULL_ADDRESS"] + ", " + rec["CITY"] + " " + zip
		}
	}
}

// deriveTitlesAndRoles fills ROLE, TITLE and the gender-fixed honorifics.
func (p *Preparer) deriveTitlesAndRoles(records []Record) {
	if !p.ignored("ROLE") {
		p.log.Debug("generating roles")

		for _, rec := range records {
			rec["ROLE"] = p.ext.Role()
		}
	}

	if p.ignored("TITLE") {
		return
	}

	p.log.Debug("generating titles")

	if p.hasColumn(records, "GENDER") {
		for _, rec := range records {
			rec["TITLE"] = p.ext.Title(rec["GENDER"])
		}
	} else {
		p.log.Warn("cannot generate TITLE without a GENDER column, generating FEMALE_TITLE and MALE_TITLE only")
	}

	for _, rec := range records {
		rec["FEMALE_TITLE"] = p.ext.Title("female")
		rec["MALE_TITLE"] = p.ext.Title("male")
	}
}

// deriveNationalities fills the nationality entities with independent draws,
// so a record's NATION_MAN does not have to match its NATIONALITY.
func (p *Preparer) deriveNationalities(records []Record) {
	if p.ignored("NATIONALITY") {
		return
	}

	p.log.Debug("generating nationalities")

	for _, rec := range records {
		rec["NATIONALITY"] = p.ext.NationalityAdjective()
		rec["NATION_MAN"] = p.ext.NationMan()
		rec["NATION_WOMAN"] = p.ext.NationWoman()
		rec["NATION_PLURAL"] = p.ext.NationPlural()
	}
}

// deriveIdentifiers fills the financial and network identifier entities.
func (p *Preparer) deriveIdentifiers(records []Record) {
	if !p.ignored("IBAN") {
		p.log.Debug("generating IBANs")

		for _, rec := range records {
			rec["IBAN"] = p.ext.IBAN(rec["COUNTRY"])
		}
	}

	if !p.ignored("IP_ADDRESS") {
		p.log.Debug("generating IP addresses")

		for _, rec := range records {
			rec["IP_ADDRESS"] = p.ext.IPAddress()
		}
	}

	if !p.ignored("US_SSN") {
		p.log.Debug("generating SSN numbers")

		for _, rec := range records {
			rec["US_SSN"] = p.ext.SSN()
		}
	}

	if !p.ignored("US_DRIVER_LICENSE") {
		p.log.Debug("generating US driver license numbers")

		for _, rec := range records {
			rec["US_DRIVER_LICENSE"] = p.ext.LicenseNumber()
		}
	}

	if !p.ignored("URL") {
		if p.hasColumn(records, "DOMAIN_NAME") {
			p.log.Debug("generating URLs")

			for _, rec := range records {
				rec["URL"] = p.ext.URL(rec["DOMAIN_NAME"])
			}
		} else {
			p.log.Warn("cannot generate URL without a domain name column")
		}
	}
}

// deriveOrganizations fills ORG from the reference table and picks either the
// source company column or ORG (one draw for the whole batch) as the
// ORGANIZATION entity.
func (p *Preparer) deriveOrganizations(records []Record) {
	if p.ignored("ORGANIZATION") {
		return
	}

	p.log.Debug("generating company names")

	for _, rec := range records {
		rec["ORG"] = p.ext.Organization()
	}

	if p.hasColumn(records, "Company") {
		source := "Company"
		if p.ext.rng.Intn(2) == 1 {
			source = "ORG"
		}

		for _, rec := range records {
			rec["ORGANIZATION"] = textutil.TitleCase(rec[source])
		}

		return
	}

	for _, rec := range records {
		rec["ORGANIZATION"] = rec["ORG"]
	}
}

// applyRealValues replaces entity columns with values sampled from the
// extracted corpus pools. Entities are visited in sorted order so a fixed
// seed always produces the same records.
func (p *Preparer) applyRealValues(records []Record) {
	entities := make([]string, 0, len(p.opts.RealValues))
	for entity := range p.opts.RealValues {
		entities = append(entities, entity)
	}

	sort.Strings(entities)

	for _, entity := range entities {
		pool := p.opts.RealValues[entity]
		if len(pool) == 0 || p.ignored(entity) {
			continue
		}

		for _, rec := range records {
			rec[entity] = textutil.SwapBrackets(pool[p.ext.rng.Intn(len(pool))])
		}
	}
}

func (p *Preparer) ignored(entity string) bool {
	return p.opts.IgnoreTypes[entity]
}

func (p *Preparer) hasColumn(records []Record, name string) bool {
	return len(records) > 0 && records[0].Has(name)
}

// splitStreetAddress splits a street address at its first digit run, so
// "382 Halsey Avenue" becomes "382" and " Halsey Avenue". An address with no
// digits keeps its full text as the street.
func splitStreetAddress(address string) (number, street string) {
	start := strings.IndexFunc(address, isDigit)
	if start < 0 {
		return "", address
	}

	end := start
	for end < len(address) && isDigit(rune(address[end])) {
		end++
	}

	return address[start:end], address[end:]
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

package fakepii

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/brianvoe/gofakeit/v7"
)

// Honorific pools drawn for the TITLE entities.
var (
	femaleTitles = []string{"Mrs.", "Ms.", "Miss", "Dr.", "Prof."}
	maleTitles   = []string{"Mr.", "Dr.", "Prof.", "Sir"}
)

// Extender generates the synthetic entity values that the source identity
// records do not carry, such as nationalities, IBANs and license numbers.
// All draws go through a single seeded rng so runs are reproducible.
type Extender struct {
	rng    *rand.Rand
	faker  *gofakeit.Faker
	tables *Tables
}

// NewExtender creates an Extender on top of a shared rng, a faker instance
// and the embedded reference tables.
func NewExtender(rng *rand.Rand, faker *gofakeit.Faker, tables *Tables) *Extender {
	return &Extender{
		rng:    rng,
		faker:  faker,
		tables: tables,
	}
}

// Country draws a random country name from the reference table.
func (e *Extender) Country() string {
	return e.nationality().Country
}

// NationalityAdjective draws a random nationality adjective ("French").
func (e *Extender) NationalityAdjective() string {
	return e.nationality().Adjective
}

// NationMan draws a random male demonym ("Frenchman").
func (e *Extender) NationMan() string {
	return e.nationality().Man
}

// NationWoman draws a random female demonym ("Frenchwoman").
func (e *Extender) NationWoman() string {
	return e.nationality().Woman
}

// NationPlural draws a random plural demonym ("Frenchmen").
func (e *Extender) NationPlural() string {
	return e.nationality().Plural
}

func (e *Extender) nationality() Nationality {
	return e.tables.Nationalities[e.rng.Intn(len(e.tables.Nationalities))]
}

// Title draws an honorific matching the given gender. Anything that is not
// recognisably female draws from the male pool.
func (e *Extender) Title(gender string) string {
	if strings.EqualFold(strings.TrimSpace(gender), "female") {
		return femaleTitles[e.rng.Intn(len(femaleTitles))]
	}

	return maleTitles[e.rng.Intn(len(maleTitles))]
}

// Role draws a random job title.
func (e *Extender) Role() string {
	return e.faker.JobTitle()
}

// Organization draws a random organization name from the reference table,
// falling back to a generated company name if the table is empty.
func (e *Extender) Organization() string {
	if len(e.tables.Organizations) == 0 {
		return e.faker.Company()
	}

	return e.tables.Organizations[e.rng.Intn(len(e.tables.Organizations))]
}

// IPAddress draws a random IPv4 address.
func (e *Extender) IPAddress() string {
	return e.faker.IPv4Address()
}

// SSN draws a random US social security number in the AAA-GG-SSSS layout.
func (e *Extender) SSN() string {
	return fmt.Sprintf("%03d-%02d-%04d", e.rng.Intn(899)+1, e.rng.Intn(99)+1, e.rng.Intn(9999)+1)
}

// LicenseNumber draws a random US driver license number using one of the
// state layouts from the reference table.
func (e *Extender) LicenseNumber() string {
	format := e.tables.LicenseFormats[e.rng.Intn(len(e.tables.LicenseFormats))]

	return e.expandPattern(format)
}

// IBAN generates an IBAN with valid check digits for the given country. An
// unknown country falls back to a random layout from the reference table.
func (e *Extender) IBAN(country string) string {
	format, ok := e.tables.IBANForCountry(country)
	if !ok {
		format = e.tables.IBANFormats[e.rng.Intn(len(e.tables.IBANFormats))]
	}

	bban := e.expandPattern(format.BBAN)

	return format.Code + ibanCheckDigits(format.Code, bban) + bban
}

// URL builds a URL on top of a person's domain name.
func (e *Extender) URL(domain string) string {
	return "https://" + strings.TrimSpace(domain) + "/" + strings.ToLower(e.faker.Word())
}

// expandPattern replaces '#' with a random digit and 'A' with a random
// uppercase letter, leaving every other character as it is.
func (e *Extender) expandPattern(pattern string) string {
	var builder strings.Builder

	builder.Grow(len(pattern))

	for _, r := range pattern {
		switch r {
		case '#':
			builder.WriteByte(byte('0' + e.rng.Intn(10)))
		case 'A':
			builder.WriteByte(byte('A' + e.rng.Intn(26)))
		default:
			builder.WriteRune(r)
		}
	}

	return builder.String()
}

// ibanCheckDigits computes the ISO 13616 mod-97 check digits for a country
// code and BBAN.
func ibanCheckDigits(code, bban string) string {
	remainder := 0

	for _, r := range bban + code + "00" {
		switch {
		case r >= '0' && r <= '9':
			remainder = (remainder*10 + int(r-'0')) % 97
		case r >= 'A' && r <= 'Z':
			remainder = (remainder*100 + int(r-'A') + 10) % 97
		}
	}

	return fmt.Sprintf("%02d", 98-remainder)
}

package fakepii

import (
	"bytes"
	"embed"
	"encoding/csv"
	"errors"
	"fmt"

	"piigen/pkg/textutil"
)

//go:embed data/*.csv
var tableFS embed.FS

// ErrMissingTable indicates an embedded reference table could not be read or
// holds no data rows.
var ErrMissingTable = errors.New("embedded reference table is missing or empty")

// Nationality is one row of the country reference table. The adjective form
// ("French") differs from the demonym forms ("Frenchman", "Frenchwoman") for
// several countries, so all variants are carried separately.
type Nationality struct {
	Country   string
	Adjective string
	Man       string
	Woman     string
	Plural    string
}

// IBANFormat describes the BBAN layout of one country. In the pattern, '#'
// stands for a digit and 'A' for an uppercase letter.
type IBANFormat struct {
	Country string
	Code    string
	BBAN    string
}

// Tables bundles the reference data embedded in the binary: countries with
// their demonyms, organization names, US driver license layouts and IBAN
// layouts per country.
type Tables struct {
	Nationalities  []Nationality
	Organizations  []string
	LicenseFormats []string
	IBANFormats    []IBANFormat

	ibanByCountry map[string]IBANFormat
}

// LoadTables parses the embedded reference tables.
func LoadTables() (*Tables, error) {
	tables := &Tables{
		ibanByCountry: make(map[string]IBANFormat),
	}

	rows, err := readTable("data/nationalities.csv")
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		if len(row) < 5 {
			continue
		}

		tables.Nationalities = append(tables.Nationalities, Nationality{
			Country:   row[0],
			Adjective: row[1],
			Man:       row[2],
			Woman:     row[3],
			Plural:    row[4],
		})
	}

	rows, err = readTable("data/organizations.csv")
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		if len(row) > 0 && row[0] != "" {
			tables.Organizations = append(tables.Organizations, row[0])
		}
	}

	rows, err = readTable("data/us_driver_license_formats.csv")
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		if len(row) > 0 && row[0] != "" {
			tables.LicenseFormats = append(tables.LicenseFormats, row[0])
		}
	}

	rows, err = readTable("data/iban_formats.csv")
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		if len(row) < 3 {
			continue
		}

		format := IBANFormat{
			Country: row[0],
			Code:    row[1],
			BBAN:    row[2],
		}
		tables.IBANFormats = append(tables.IBANFormats, format)
		tables.ibanByCountry[textutil.FoldKey(format.Country)] = format
	}

	return tables, nil
}

// IBANForCountry looks up the IBAN layout for a country name, matching
// case-insensitively.
func (t *Tables) IBANForCountry(country string) (IBANFormat, bool) {
	format, ok := t.ibanByCountry[textutil.FoldKey(country)]

	return format, ok
}

func readTable(name string) ([][]string, error) {
	content, err := tableFS.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded table %s: %w", name, err)
	}

	reader := csv.NewReader(bytes.NewReader(content))
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded table %s: %w", name, err)
	}

	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: %s", ErrMissingTable, name)
	}

	return rows[1:], nil
}

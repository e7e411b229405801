package fakepii

import (
	"math/rand"
	"regexp"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
)

func testExtender(t *testing.T, seed int64) *Extender {
	t.Helper()

	tables, err := LoadTables()
	if err != nil {
		t.Fatalf("LoadTables() unexpected error: %v", err)
	}

	return NewExtender(rand.New(rand.NewSource(seed)), gofakeit.New(uint64(seed)), tables)
}

func TestIBANCheckDigits(t *testing.T) {
	tests := []struct {
		name string
		code string
		bban string
		want string
	}{
		{
			name: "british reference account",
			code: "GB",
			bban: "WEST12345698765432",
			want: "82",
		},
		{
			name: "german reference account",
			code: "DE",
			bban: "370400440532013000",
			want: "89",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ibanCheckDigits(tt.code, tt.bban); got != tt.want {
				t.Errorf("ibanCheckDigits(%q, %q) = %q, want %q", tt.code, tt.bban, got, tt.want)
			}
		})
	}
}

// mod97 folds an IBAN with its country code and check digits moved to the end
// into the ISO 13616 remainder. A valid IBAN folds to 1.
func mod97(iban string) int {
	remainder := 0

	for _, r := range iban[4:] + iban[:4] {
		switch {
		case r >= '0' && r <= '9':
			remainder = (remainder*10 + int(r-'0')) % 97
		case r >= 'A' && r <= 'Z':
			remainder = (remainder*100 + int(r-'A') + 10) % 97
		}
	}

	return remainder
}

func TestExtenderIBAN(t *testing.T) {
	ext := testExtender(t, 42)

	tests := []struct {
		name     string
		country  string
		wantCode string
	}{
		{name: "known country", country: "Germany", wantCode: "DE"},
		{name: "case insensitive lookup", country: "germany", wantCode: "DE"},
		{name: "letters in layout", country: "Netherlands", wantCode: "NL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iban := ext.IBAN(tt.country)

			if !strings.HasPrefix(iban, tt.wantCode) {
				t.Errorf("IBAN(%q) = %q, want prefix %q", tt.country, iban, tt.wantCode)
			}

			if got := mod97(iban); got != 1 {
				t.Errorf("IBAN(%q) = %q folds to %d, want 1", tt.country, iban, got)
			}
		})
	}
}

func TestExtenderIBANUnknownCountry(t *testing.T) {
	ext := testExtender(t, 42)

	iban := ext.IBAN("Atlantis")

	if len(iban) < 15 {
		t.Fatalf("IBAN(Atlantis) = %q, too short for any layout", iban)
	}

	if got := mod97(iban); got != 1 {
		t.Errorf("IBAN(Atlantis) = %q folds to %d, want 1", iban, got)
	}
}

func TestExtenderSSN(t *testing.T) {
	ext := testExtender(t, 3)
	pattern := regexp.MustCompile(`^\d{3}-\d{2}-\d{4}$`)

	for i := 0; i < 20; i++ {
		if ssn := ext.SSN(); !pattern.MatchString(ssn) {
			t.Fatalf("SSN() = %q, want AAA-GG-SSSS layout", ssn)
		}
	}
}

func TestExtenderLicenseNumber(t *testing.T) {
	ext := testExtender(t, 3)
	pattern := regexp.MustCompile(`^[A-Z0-9]+$`)

	for i := 0; i < 20; i++ {
		license := ext.LicenseNumber()

		if !pattern.MatchString(license) {
			t.Fatalf("LicenseNumber() = %q, want letters and digits only", license)
		}
	}
}

func TestExtenderTitle(t *testing.T) {
	ext := testExtender(t, 9)

	female := map[string]bool{"Mrs.": true, "Ms.": true, "Miss": true, "Dr.": true, "Prof.": true}
	male := map[string]bool{"Mr.": true, "Dr.": true, "Prof.": true, "Sir": true}

	for i := 0; i < 20; i++ {
		if got := ext.Title("female"); !female[got] {
			t.Fatalf("Title(female) = %q, not in the female pool", got)
		}

		if got := ext.Title("male"); !male[got] {
			t.Fatalf("Title(male) = %q, not in the male pool", got)
		}
	}
}

func TestExtenderURL(t *testing.T) {
	ext := testExtender(t, 9)

	url := ext.URL(" example.com ")

	if !strings.HasPrefix(url, "https://example.com/") {
		t.Errorf("URL() = %q, want https://example.com/ prefix", url)
	}

	if strings.HasSuffix(url, "/") {
		t.Errorf("URL() = %q, want a path segment after the domain", url)
	}
}

func TestExpandPattern(t *testing.T) {
	ext := testExtender(t, 11)

	got := ext.expandPattern("AA-##x")

	if len(got) != 6 {
		t.Fatalf("expandPattern() = %q, want 6 characters", got)
	}

	for i, r := range got[:2] {
		if r < 'A' || r > 'Z' {
			t.Errorf("expandPattern() char %d = %q, want uppercase letter", i, r)
		}
	}

	if got[2] != '-' || got[5] != 'x' {
		t.Errorf("expandPattern() = %q, literal characters not preserved", got)
	}

	for i := 3; i < 5; i++ {
		if got[i] < '0' || got[i] > '9' {
			t.Errorf("expandPattern() char %d = %q, want digit", i, got[i])
		}
	}
}

package fakepii

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testRecords() []Record {
	return []Record{
		{"FIRST_NAME": "Ana", "LAST_NAME": "Costa", "GENDER": "female", "NAMESET": "Brazil"},
		{"FIRST_NAME": "Jan", "LAST_NAME": "Novak", "GENDER": "male", "NAMESET": "Czech"},
		{"FIRST_NAME": "Mia", "LAST_NAME": "Berg", "GENDER": "female", "NAMESET": "Scandinavian"},
	}
}

func TestNewStore(t *testing.T) {
	store, err := NewStore(testRecords())
	if err != nil {
		t.Fatalf("NewStore() unexpected error: %v", err)
	}

	if store.Len() != 3 {
		t.Errorf("Len() = %d, want 3", store.Len())
	}

	wantColumns := []string{"FIRST_NAME", "GENDER", "LAST_NAME", "NAMESET"}
	if diff := cmp.Diff(wantColumns, store.Columns()); diff != "" {
		t.Errorf("Columns() mismatch (-want +got):\n%s", diff)
	}

	if !store.HasEntity("FIRST_NAME") {
		t.Error("HasEntity(FIRST_NAME) = false, want true")
	}

	if store.HasEntity("IBAN") {
		t.Error("HasEntity(IBAN) = true, want false")
	}
}

func TestNewStoreEmpty(t *testing.T) {
	if _, err := NewStore(nil); !errors.Is(err, ErrNoRecords) {
		t.Errorf("NewStore(nil) error = %v, want ErrNoRecords", err)
	}
}

func TestStoreSample(t *testing.T) {
	store, err := NewStore(testRecords())
	if err != nil {
		t.Fatalf("NewStore() unexpected error: %v", err)
	}

	first := store.Sample(rand.New(rand.NewSource(7)))
	second := store.Sample(rand.New(rand.NewSource(7)))

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Sample() with equal seeds mismatch (-first +second):\n%s", diff)
	}
}

func TestStoreSampleValue(t *testing.T) {
	store, err := NewStore(testRecords())
	if err != nil {
		t.Fatalf("NewStore() unexpected error: %v", err)
	}

	rng := rand.New(rand.NewSource(1))

	value, err := store.SampleValue(rng, "FIRST_NAME")
	if err != nil {
		t.Fatalf("SampleValue() unexpected error: %v", err)
	}

	names := map[string]bool{"Ana": true, "Jan": true, "Mia": true}
	if !names[value] {
		t.Errorf("SampleValue(FIRST_NAME) = %q, want one of the stored names", value)
	}

	if _, err := store.SampleValue(rng, "IBAN"); !errors.Is(err, ErrUnknownEntity) {
		t.Errorf("SampleValue(IBAN) error = %v, want ErrUnknownEntity", err)
	}
}

func TestStoreFilter(t *testing.T) {
	store, err := NewStore(testRecords())
	if err != nil {
		t.Fatalf("NewStore() unexpected error: %v", err)
	}

	tests := []struct {
		name     string
		genders  []string
		namesets []string
		wantLen  int
		wantErr  error
	}{
		{
			name:    "no filters returns everything",
			wantLen: 3,
		},
		{
			name:    "filter by gender",
			genders: []string{"female"},
			wantLen: 2,
		},
		{
			name:     "filter by nameset",
			namesets: []string{"Czech"},
			wantLen:  1,
		},
		{
			name:     "combined filters",
			genders:  []string{"female"},
			namesets: []string{"Brazil"},
			wantLen:  1,
		},
		{
			name:    "no matching records",
			genders: []string{"other"},
			wantErr: ErrEmptySubset,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subset, err := store.Filter(tt.genders, tt.namesets)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Filter() error = %v, want %v", err, tt.wantErr)
				}

				return
			}

			if err != nil {
				t.Fatalf("Filter() unexpected error: %v", err)
			}

			if subset.Len() != tt.wantLen {
				t.Errorf("Filter() len = %d, want %d", subset.Len(), tt.wantLen)
			}
		})
	}
}

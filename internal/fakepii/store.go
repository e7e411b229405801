// Package fakepii ingests fake identity records, derives the composite
// entities the templates refer to, and serves random records to the
// generator.
package fakepii

import (
	"errors"
	"math/rand"
	"sort"
)

// Store errors.
var (
	ErrNoRecords     = errors.New("fake PII store contains no records")
	ErrEmptySubset   = errors.New("no records match the gender/nameset filters")
	ErrUnknownEntity = errors.New("entity is not present in the store")
)

// Record is one fake identity: entity name to value.
type Record map[string]string

// Has reports whether the record carries a value for the entity.
func (r Record) Has(entity string) bool {
	_, ok := r[entity]

	return ok
}

// Store holds prepared fake PII records.
type Store struct {
	records []Record
	columns []string
}

// NewStore builds a store over prepared records. The column set is the union
// of entities across records, sorted for stable iteration.
func NewStore(records []Record) (*Store, error) {
	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	colSet := make(map[string]bool)

	for _, rec := range records {
		for entity := range rec {
			colSet[entity] = true
		}
	}

	columns := make([]string, 0, len(colSet))
	for entity := range colSet {
		columns = append(columns, entity)
	}

	sort.Strings(columns)

	return &Store{records: records, columns: columns}, nil
}

// Len returns the number of records.
func (s *Store) Len() int {
	return len(s.records)
}

// Columns returns the entity names present in the store.
func (s *Store) Columns() []string {
	return s.columns
}

// HasEntity reports whether any record carries the entity.
func (s *Store) HasEntity(entity string) bool {
	for _, col := range s.columns {
		if col == entity {
			return true
		}
	}

	return false
}

// Sample returns a random record.
func (s *Store) Sample(rng *rand.Rand) Record {
	return s.records[rng.Intn(len(s.records))]
}

// SampleValue returns the entity value of a random record. Used to fill
// duplicate-indexed slots from identities other than the primary one.
func (s *Store) SampleValue(rng *rand.Rand, entity string) (string, error) {
	if !s.HasEntity(entity) {
		return "", ErrUnknownEntity
	}

	return s.records[rng.Intn(len(s.records))][entity], nil
}

// Filter returns a store restricted to records matching the given genders
// and namesets. Empty filters match everything.
func (s *Store) Filter(genders, namesets []string) (*Store, error) {
	if len(genders) == 0 && len(namesets) == 0 {
		return s, nil
	}

	genderSet := toSet(genders)
	namesetSet := toSet(namesets)

	var filtered []Record

	for _, rec := range s.records {
		if len(genderSet) > 0 && !genderSet[rec["GENDER"]] {
			continue
		}

		if len(namesetSet) > 0 && !namesetSet[rec["NAMESET"]] {
			continue
		}

		filtered = append(filtered, rec)
	}

	if len(filtered) == 0 {
		return nil, ErrEmptySubset
	}

	return &Store{records: filtered, columns: s.columns}, nil
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))

	for _, v := range values {
		set[v] = true
	}

	return set
}

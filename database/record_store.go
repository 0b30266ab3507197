// database/record_store.go
package database

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/mayhem092/SkiingAnalyzer/models"
)

// anonymousKey is the one top-level cache key that is not a year. It records
// which anonymization mode produced the persisted data.
const anonymousKey = "anonymous"

// RecordStore is the in-memory, year-indexed, distance-bucketed collection of
// skier records. It owns every record; readers get copied views. The store is
// persisted as a single JSON document whose top level holds the anonymous
// flag next to one key per year.
type RecordStore struct {
	mu        sync.RWMutex
	anonymous bool
	years     map[int]models.YearResults
}

// NewRecordStore creates an empty store operating in the given anonymization
// mode. The mode is fixed for the store's lifetime; cached data produced in
// the other mode is treated as stale.
func NewRecordStore(anonymous bool) *RecordStore {
	return &RecordStore{
		anonymous: anonymous,
		years:     make(map[int]models.YearResults),
	}
}

// Anonymous reports the store's anonymization mode.
func (s *RecordStore) Anonymous() bool {
	return s.anonymous
}

// MergeYear replaces the stored results of one year. Replacing the whole year
// keeps merges idempotent and commutative, so concurrently completing fetches
// may land in any order.
func (s *RecordStore) MergeYear(year int, results models.YearResults) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.years[year] = results
}

// GetYear returns a copy of one year's results. With distance "" every
// distance of the year is included; otherwise only the named bucket. Unknown
// years and distances yield an empty map.
func (s *RecordStore) GetYear(year int, distance string) models.YearResults {
	s.mu.RLock()
	defer s.mu.RUnlock()

	view := models.YearResults{}
	stored, ok := s.years[year]
	if !ok {
		return view
	}

	if distance != "" {
		if bucket, ok := stored[distance]; ok {
			view[distance] = append([]models.SkierRecord(nil), bucket...)
		}
		return view
	}
	for code, bucket := range stored {
		view[code] = append([]models.SkierRecord(nil), bucket...)
	}
	return view
}

// YearCount returns the number of years currently held.
func (s *RecordStore) YearCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.years)
}

// Clear drops every record while keeping the anonymization mode.
func (s *RecordStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.years = make(map[int]models.YearResults)
}

// SaveFile persists the store to filename as one JSON document.
func (s *RecordStore) SaveFile(filename string) error {
	s.mu.RLock()
	document := map[string]interface{}{anonymousKey: s.anonymous}
	for year, results := range s.years {
		document[strconv.Itoa(year)] = results
	}
	s.mu.RUnlock()

	data, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record store: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file %s: %w", filename, err)
	}
	return nil
}

// LoadFile reads a persisted store from filename. loaded reports whether a
// cache document was found at all; stale reports that it was found but
// produced under the other anonymization mode (or without a mode flag), in
// which case no data is retained and the caller must rebuild. A missing file
// is not an error.
func (s *RecordStore) LoadFile(filename string) (loaded, stale bool, err error) {
	data, err := os.ReadFile(filename)
	if os.IsNotExist(err) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("failed to read cache file %s: %w", filename, err)
	}

	var document map[string]json.RawMessage
	if err := json.Unmarshal(data, &document); err != nil {
		return false, false, fmt.Errorf("failed to parse cache file %s: %w", filename, err)
	}

	raw, ok := document[anonymousKey]
	if !ok {
		return true, true, nil
	}
	var persistedAnonymous bool
	if err := json.Unmarshal(raw, &persistedAnonymous); err != nil || persistedAnonymous != s.anonymous {
		return true, true, nil
	}

	years := make(map[int]models.YearResults)
	for key, raw := range document {
		if key == anonymousKey {
			continue
		}
		year, err := strconv.Atoi(key)
		if err != nil {
			// Not a year entry; ignore rather than fail the whole cache.
			continue
		}
		var results models.YearResults
		if err := json.Unmarshal(raw, &results); err != nil {
			continue
		}
		years[year] = results
	}

	s.mu.Lock()
	s.years = years
	s.mu.Unlock()
	return true, false, nil
}

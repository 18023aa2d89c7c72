// Package strains tracks which simulations already have an extracted strain
// on disk. It owns the .corewa/strains.json index: one entry per simulation,
// recording the chosen run, the strain file path, its eccentricity and
// extraction radius.
package strains

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// Entry records the cached strain of one simulation. A simulation has at
// most one entry; re-downloading with overwrite replaces it wholesale.
type Entry struct {
	RunKey       string
	File         string
	Eccentricity float64
	RExtraction  float64
}

// wireEntry is the JSON form of Entry. Eccentricity and extraction radius
// must round-trip NaN and Inf, which plain JSON numbers cannot carry.
type wireEntry struct {
	RunKey       string    `json:"run"`
	File         string    `json:"file"`
	Eccentricity jsonFloat `json:"eccentricity"`
	RExtraction  jsonFloat `json:"r_extraction"`
}

// jsonFloat marshals non-finite values as the strings "NaN", "Inf", "-Inf".
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return []byte(`"NaN"`), nil
	case math.IsInf(v, 1):
		return []byte(`"Inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Inf"`), nil
	}
	return json.Marshal(v)
}

func (f *jsonFloat) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid float value %q", s)
		}
		*f = jsonFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = jsonFloat(v)
	return nil
}

func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireEntry{
		RunKey:       e.RunKey,
		File:         e.File,
		Eccentricity: jsonFloat(e.Eccentricity),
		RExtraction:  jsonFloat(e.RExtraction),
	})
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var w wireEntry
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*e = Entry{
		RunKey:       w.RunKey,
		File:         w.File,
		Eccentricity: float64(w.Eccentricity),
		RExtraction:  float64(w.RExtraction),
	}
	return nil
}

// LoadError records a problem encountered while loading or rescanning cache
// data. Bad entries are skipped but kept here for debugging.
type LoadError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Store is the in-memory cache mapping plus its on-disk index file. It is
// the sole writer of .corewa/strains.json; callers must Sync (or Close) to
// persist changes. Not safe for concurrent use.
type Store struct {
	dbPath  string
	path    string
	entries map[string]Entry
	dirty   bool

	// LoadErrors tracks entries that could not be loaded or rescanned.
	LoadErrors []LoadError
}

// Open loads the cache index for a database directory, empty if none exists
// yet.
func Open(dbPath string) (*Store, error) {
	corewaDir := filepath.Join(dbPath, ".corewa")
	if err := os.MkdirAll(corewaDir, 0755); err != nil {
		return nil, fmt.Errorf("creating .corewa directory: %w", err)
	}

	s := &Store{
		dbPath:  dbPath,
		path:    filepath.Join(corewaDir, "strains.json"),
		entries: make(map[string]Entry),
	}
	if err := s.load(); err != nil {
		return nil, fmt.Errorf("loading strain index: %w", err)
	}
	return s, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, &s.entries)
}

// Get returns the entry for a simulation key.
func (s *Store) Get(key string) (Entry, bool) {
	e, ok := s.entries[key]
	return e, ok
}

// Has reports whether a simulation already has a cached strain.
func (s *Store) Has(key string) bool {
	_, ok := s.entries[key]
	return ok
}

// Put records the strain entry for a simulation, replacing any previous one.
func (s *Store) Put(key string, e Entry) {
	s.entries[key] = e
	s.dirty = true
}

// Len returns the number of cached simulations.
func (s *Store) Len() int { return len(s.entries) }

// Keys returns the cached simulation keys, sorted.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Sync rewrites the index file if there are unsaved changes. The rewrite is
// atomic: the new index is written to a temporary file and renamed over the
// old one.
func (s *Store) Sync() error {
	if !s.dirty {
		return nil
	}

	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding strain index: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing strain index: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing strain index: %w", err)
	}

	s.dirty = false
	return nil
}

// Close syncs the store.
func (s *Store) Close() error { return s.Sync() }

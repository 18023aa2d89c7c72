package coredb

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var runDirPattern = regexp.MustCompile(`^R[0-9]+$`)

// LocalDatabase implements Database over a directory tree mirroring the CoRe
// layout: one directory per simulation (key with ':' replaced by '_'), run
// subdirectories R01, R02, ... each holding metadata.txt, the raw archive
// payloads, and extracted channel data under data/.
type LocalDatabase struct {
	root   string
	server string
}

// Open opens or creates a local database rooted at path. server is the
// upstream host archives are synchronized from. An unusable root is fatal.
func Open(path, server string) (*LocalDatabase, error) {
	info, err := os.Stat(path)
	switch {
	case err == nil && !info.IsDir():
		return nil, fmt.Errorf("database path %s is not a directory", path)
	case os.IsNotExist(err):
		if err := os.MkdirAll(path, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}

	// Fail now, not on first use, if the directory cannot be listed.
	if _, err := os.ReadDir(path); err != nil {
		return nil, fmt.Errorf("reading database %s: %w", path, err)
	}

	return &LocalDatabase{root: path, server: server}, nil
}

// Root returns the database directory.
func (db *LocalDatabase) Root() string { return db.root }

// EncodeKey maps a simulation key to its directory name (THC:0001 ->
// THC_0001).
func EncodeKey(key string) string { return strings.ReplaceAll(key, ":", "_") }

// DecodeKey maps a directory name back to the simulation key.
func DecodeKey(name string) string { return strings.ReplaceAll(name, "_", ":") }

// Keys returns the simulation keys present on disk, sorted.
func (db *LocalDatabase) Keys() []string {
	entries, err := os.ReadDir(db.root)
	if err != nil {
		return nil
	}
	var keys []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		keys = append(keys, DecodeKey(e.Name()))
	}
	sort.Strings(keys)
	return keys
}

// AllMetadata returns one RunMetadata row per run across all simulations,
// in (simulation key, run key) order.
func (db *LocalDatabase) AllMetadata() ([]RunMetadata, error) {
	var rows []RunMetadata
	for _, key := range db.Keys() {
		sim, err := db.Load(key)
		if err != nil {
			return nil, fmt.Errorf("collecting metadata for %s: %w", key, err)
		}
		for _, run := range sim.Runs {
			rows = append(rows, metadataRow(key, run.Key, run.Metadata))
		}
	}
	return rows, nil
}

// Load reads a simulation's metadata and run layout from disk. Run metadata
// is the run's metadata.txt overlaid on the simulation-level
// metadata_main.txt.
func (db *LocalDatabase) Load(key string) (*Simulation, error) {
	dir := db.ArchivePath(key)
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSimulationNotFound, key)
	}

	simMeta, err := parseMetadataFile(filepath.Join(dir, "metadata_main.txt"))
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading %s: %w", key, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", key, err)
	}

	sim := &Simulation{Key: key, Path: dir}
	for _, e := range entries {
		if !e.IsDir() || !runDirPattern.MatchString(e.Name()) {
			continue
		}
		runPath := filepath.Join(dir, e.Name())
		runMeta, err := parseMetadataFile(filepath.Join(runPath, "metadata.txt"))
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("loading %s/%s: %w", key, e.Name(), err)
		}
		sim.Runs = append(sim.Runs, &Run{
			Key:      e.Name(),
			Path:     runPath,
			Metadata: mergeMetadata(simMeta, runMeta),
		})
	}
	sort.Slice(sim.Runs, func(i, j int) bool { return sim.Runs[i].Key < sim.Runs[j].Key })
	return sim, nil
}

// ArchivePath returns the simulation's directory under the database root.
func (db *LocalDatabase) ArchivePath(key string) string {
	return filepath.Join(db.root, EncodeKey(key))
}

// RemoveArchives deletes the HDF5 payloads of every run of a simulation and
// the .git directory left by the upstream sync. Failures are collected and
// returned; callers treat them as non-fatal.
func (db *LocalDatabase) RemoveArchives(key string) error {
	dir := db.ArchivePath(key)
	var errs []error

	for _, pattern := range []string{
		filepath.Join(dir, "*", "*.h5"),
		filepath.Join(dir, "*", "data", "*.h5"),
	} {
		files, err := filepath.Glob(pattern)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, f := range files {
			if err := os.Remove(f); err != nil {
				errs = append(errs, err)
			}
		}
	}

	gitDir := filepath.Join(dir, ".git")
	if _, err := os.Stat(gitDir); err == nil {
		if err := os.RemoveAll(gitDir); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func mergeMetadata(simMeta, runMeta map[string]string) map[string]string {
	merged := make(map[string]string, len(simMeta)+len(runMeta))
	for k, v := range simMeta {
		merged[k] = v
	}
	for k, v := range runMeta {
		merged[k] = v
	}
	return merged
}

func metadataRow(key, runKey string, md map[string]string) RunMetadata {
	return RunMetadata{
		DatabaseKey:         key,
		RunKey:              runKey,
		EOS:                 md["id_eos"],
		Eccentricity:        md["id_eccentricity"],
		Mass:                md["id_mass"],
		RestMass:            md["id_rest_mass"],
		MassRatio:           md["id_mass_ratio"],
		ADMMass:             md["id_ADM_mass"],
		ADMAngularMomentum:  md["id_ADM_angularmomentum"],
		GWFrequencyHz:       md["id_gw_frequency_Hz"],
		GWFrequencyMomega22: md["id_gw_frequency_Momega22"],
		Kappa2T:             md["id_kappa2T"],
		Lambda:              md["id_Lambda"],
		MassStarA:           md["id_mass_starA"],
		RestMassStarA:       md["id_rest_mass_starA"],
		MassStarB:           md["id_mass_starB"],
		RestMassStarB:       md["id_rest_mass_starB"],
	}
}

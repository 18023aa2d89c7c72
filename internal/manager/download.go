package manager

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/mllorens/corewa/internal/coredb"
	"github.com/mllorens/corewa/internal/strains"
)

// strainChannel is the one waveform channel this tool extracts: the dominant
// l=2, m=2 mode.
const strainChannel = "rh_22"

// strainHeader is the column header written to every strain text file.
const strainHeader = "# u/M:0 Reh/M:1 Imh/M:2 Redh/M:3 Imdh/M:4 Momega:5 A/M:6 phi:7 t:8"

// DownloadOptions control a DownloadStrains batch.
type DownloadOptions struct {
	// KeepH5 keeps the raw HDF5 archives after the strain is extracted.
	KeepH5 bool

	// Overwrite re-downloads simulations that already have a cached strain.
	Overwrite bool

	// Protocol and LFS are forwarded unchanged to the database sync.
	Protocol string
	LFS      bool

	// Verbose surfaces per-key skip/download/failure decisions as log
	// lines. Without it only errors are logged.
	Verbose bool
}

// Status classifies the outcome of one simulation in a download batch.
type Status string

const (
	StatusDownloaded Status = "downloaded"
	StatusSkipped    Status = "skipped"
	StatusFailed     Status = "failed"
)

// Result reports the outcome of one simulation in a download batch.
type Result struct {
	Key    string
	Status Status
	Entry  strains.Entry
	Err    error
}

// DownloadStrains downloads, for each simulation key in order, only the
// optimum strain: the run with the lowest eccentricity, at the highest
// extraction radius of the rh_22 channel. The strain is written as a text
// file next to the run's data and recorded in the cache. Simulations already
// cached are skipped unless Overwrite is set. A failure on one key is
// logged, reported in its Result, and never aborts the rest of the batch.
// The cache index is persisted once, after the whole batch.
func (m *Manager) DownloadStrains(ctx context.Context, keys []string, opts DownloadOptions) ([]Result, error) {
	results := make([]Result, 0, len(keys))

	for _, key := range keys {
		if !opts.Overwrite && m.cache.Has(key) {
			if opts.Verbose {
				m.log.Info("already downloaded, skipping", "sim", key)
			}
			m.trace.Log(map[string]any{"event": "skip", "sim": key})
			results = append(results, Result{Key: key, Status: StatusSkipped})
			continue
		}

		entry, err := m.downloadOne(ctx, key, opts)
		if err != nil {
			m.log.Error("download failed", "sim", key, "error", err)
			m.trace.Log(map[string]any{"event": "fail", "sim": key, "error": err.Error()})
			results = append(results, Result{Key: key, Status: StatusFailed, Err: err})
			continue
		}

		m.cache.Put(key, entry)
		if opts.Verbose {
			m.log.Info("downloaded", "sim", key, "run", entry.RunKey,
				"eccentricity", entry.Eccentricity, "r_extraction", entry.RExtraction)
		}
		m.trace.Log(map[string]any{
			"event": "download", "sim": key, "run": entry.RunKey,
			"file": entry.File,
		})
		results = append(results, Result{Key: key, Status: StatusDownloaded, Entry: entry})
	}

	if err := m.cache.Sync(); err != nil {
		return results, fmt.Errorf("persisting strain cache: %w", err)
	}
	return results, nil
}

// downloadOne synchronizes a single simulation and extracts its optimum
// strain.
func (m *Manager) downloadOne(ctx context.Context, key string, opts DownloadOptions) (strains.Entry, error) {
	syncOpts := coredb.SyncOptions{Protocol: opts.Protocol, LFS: opts.LFS}
	if err := m.db.Sync(ctx, key, syncOpts); err != nil {
		return strains.Entry{}, err
	}

	sim, err := m.db.Load(key)
	if err != nil {
		return strains.Entry{}, err
	}

	runKey, ecc, err := lowestEccentricityRun(sim)
	if err != nil {
		return strains.Entry{}, err
	}
	run, err := sim.Run(runKey)
	if err != nil {
		return strains.Entry{}, err
	}

	extractions, err := run.Channel(strainChannel)
	if err != nil {
		return strains.Entry{}, err
	}
	ext, err := highestRExtraction(extractions)
	if err != nil {
		return strains.Entry{}, fmt.Errorf("run %s/%s: %w", key, runKey, err)
	}

	data, err := ext.Read()
	if err != nil {
		return strains.Entry{}, err
	}

	file := filepath.Join(run.Path, fmt.Sprintf("Rh_l2_m2_r%s.txt", coredb.RadiusFileTag(ext.Radius)))
	if err := writeStrainFile(file, data); err != nil {
		return strains.Entry{}, err
	}

	if !opts.KeepH5 {
		if err := m.db.RemoveArchives(key); err != nil {
			// Cleanup is best-effort; the strain is already cached.
			m.log.Warn("archive cleanup failed", "sim", key, "error", err)
		}
	}

	return strains.Entry{
		RunKey:       runKey,
		File:         file,
		Eccentricity: ecc,
		RExtraction:  ext.Radius,
	}, nil
}

// writeStrainFile writes a strain table as whitespace-delimited text with
// the standard column header.
func writeStrainFile(path string, rows [][]float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writing strain file: %w", err)
	}

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, strainHeader)
	for _, row := range rows {
		for i, v := range row {
			if i > 0 {
				w.WriteByte(' ')
			}
			w.WriteString(strconv.FormatFloat(v, 'e', 9, 64))
		}
		w.WriteByte('\n')
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("writing strain file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing strain file: %w", err)
	}
	return nil
}

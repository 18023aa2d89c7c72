package coredb

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// channelPrefixes maps a channel name to the file-name prefix its extraction
// files carry inside a run's data directory.
var channelPrefixes = map[string]string{
	"rh_22": "Rh_l2_m2",
}

// Simulation is the on-disk representation of one synchronized simulation.
// Runs are kept in a slice, sorted by run key, so every scan over them has a
// deterministic natural order.
type Simulation struct {
	Key  string
	Path string
	Runs []*Run
}

// Run is one realization of a simulation: its metadata.txt fields plus the
// waveform channels extracted at various radii.
type Run struct {
	Key      string
	Path     string
	Metadata map[string]string
}

// Extraction is a single extraction point of a waveform channel. Radius is
// NaN when the file name carries no parseable radius and +Inf for
// extrapolated-to-infinity data.
type Extraction struct {
	Name   string
	Radius float64
	path   string
}

// Run returns the run with the given key, or ErrRunNotFound.
func (s *Simulation) Run(key string) (*Run, error) {
	for _, r := range s.Runs {
		if r.Key == key {
			return r, nil
		}
	}
	return nil, fmt.Errorf("simulation %s: %w: %s", s.Key, ErrRunNotFound, key)
}

// Eccentricity returns the run's id_eccentricity as a float, NaN when the
// field is empty or missing.
func (r *Run) Eccentricity() (float64, error) {
	return ParseFloat(r.Metadata["id_eccentricity"])
}

// Channel lists the extraction points of a named waveform channel, sorted by
// file name. Returns ErrChannelNotFound when no data files exist, which is
// the usual sign the simulation was never synchronized.
func (r *Run) Channel(name string) ([]Extraction, error) {
	prefix, ok := channelPrefixes[name]
	if !ok {
		return nil, fmt.Errorf("unknown channel %q", name)
	}

	pattern := filepath.Join(r.Path, "data", prefix+"_r*.txt")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("listing channel %s: %w", name, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("run %s channel %s: %w", r.Key, name, ErrChannelNotFound)
	}
	sort.Strings(files)

	extractions := make([]Extraction, 0, len(files))
	for _, f := range files {
		base := filepath.Base(f)
		extractions = append(extractions, Extraction{
			Name:   base,
			Radius: radiusFromName(base),
			path:   f,
		})
	}
	return extractions, nil
}

// Read parses the extraction's whitespace-delimited data table.
func (e Extraction) Read() ([][]float64, error) {
	return ReadStrainFile(e.path)
}

// ReadStrainFile parses a whitespace-delimited numeric table. Lines starting
// with '#' are comments.
func ReadStrainFile(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading strain table: %w", err)
	}
	defer f.Close()

	var rows [][]float64
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		row := make([]float64, len(fields))
		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: bad value %q", filepath.Base(path), lineNum, field)
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading strain table: %w", err)
	}
	return rows, nil
}

// radiusFromName extracts the radius from a channel file name such as
// Rh_l2_m2_r00400.txt. "rInf" marks extrapolation to infinite radius. A file
// name with no parseable radius yields NaN.
func radiusFromName(name string) float64 {
	i := strings.LastIndex(name, "_r")
	if i < 0 {
		return math.NaN()
	}
	tail := strings.TrimSuffix(name[i+2:], ".txt")
	if strings.EqualFold(tail, "Inf") {
		return math.Inf(1)
	}
	v, err := strconv.ParseFloat(tail, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// RadiusFileTag renders a radius the way channel file names encode it: five
// zero-padded digits, or "Inf" for infinite radius.
func RadiusFileTag(radius float64) string {
	if math.IsInf(radius, 1) {
		return "Inf"
	}
	return fmt.Sprintf("%05d", int(radius))
}

// parseMetadataFile reads a CoRe "key = value" metadata file into a map.
func parseMetadataFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	md := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		md[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return md, nil
}

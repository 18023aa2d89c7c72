package coredb

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const syncTimeout = 10 * time.Minute

// Sync downloads and unpacks the archive for a single simulation from the
// upstream server. Protocol and LFS are forwarded unchanged; the server owns
// their meaning. A failed sync leaves no partial archive behind only at the
// granularity of individual files, matching the upstream behavior of
// resumable mirrors.
func (db *LocalDatabase) Sync(ctx context.Context, key string, opts SyncOptions) error {
	url, err := db.archiveURL(key, opts)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("sync %s: %w", key, err)
	}

	client := &http.Client{Timeout: syncTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("sync %s: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("sync %s: %w", key, ErrSimulationNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sync %s: server returned status %d", key, resp.StatusCode)
	}

	dir := db.ArchivePath(key)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("sync %s: %w", key, err)
	}
	if err := extractTarGz(resp.Body, dir); err != nil {
		return fmt.Errorf("sync %s: %w", key, err)
	}
	return nil
}

// archiveURL builds the download URL for a simulation archive. LFS selects
// the LFS-backed variant the server exposes under a separate prefix.
func (db *LocalDatabase) archiveURL(key string, opts SyncOptions) (string, error) {
	if db.server == "" {
		return "", fmt.Errorf("sync %s: no server configured", key)
	}
	protocol := opts.Protocol
	if protocol == "" {
		protocol = "https"
	}
	if protocol != "https" && protocol != "http" {
		return "", fmt.Errorf("sync %s: unsupported protocol %q", key, protocol)
	}

	server := db.server
	// Allow the server to be given with an explicit scheme, e.g. the
	// httptest URLs used in tests.
	if strings.Contains(server, "://") {
		protocol, server, _ = strings.Cut(server, "://")
	}

	variant := "archive"
	if opts.LFS {
		variant = "lfs"
	}
	return fmt.Sprintf("%s://%s/%s/%s.tar.gz", protocol, server, variant, EncodeKey(key)), nil
}

// extractTarGz unpacks a gzipped tar stream into dir. Entries escaping dir
// are rejected.
func extractTarGz(r io.Reader, dir string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("reading archive: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading archive: %w", err)
		}

		target, err := securePath(dir, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("extracting %s: %w", hdr.Name, err)
			}
		case tar.TypeReg:
			if err := writeArchiveFile(target, tr); err != nil {
				return fmt.Errorf("extracting %s: %w", hdr.Name, err)
			}
		default:
			// Symlinks and special entries are not part of the archive
			// format; skip anything unexpected.
		}
	}
}

// securePath joins an archive entry name onto dir, rejecting traversal.
func securePath(dir, name string) (string, error) {
	target := filepath.Join(dir, filepath.Clean(name))
	prefix := filepath.Clean(dir) + string(os.PathSeparator)
	if target != filepath.Clean(dir) && !strings.HasPrefix(target, prefix) {
		return "", fmt.Errorf("archive entry %q escapes target directory", name)
	}
	return target, nil
}

func writeArchiveFile(target string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	f, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

package coredb

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// RemoteKeys lists the simulation keys available on the upstream server by
// parsing its HTML archive index. The index is the directory listing the
// server exposes over the same prefix Sync downloads from.
func (db *LocalDatabase) RemoteKeys(ctx context.Context, opts SyncOptions) ([]string, error) {
	url, err := db.archiveURL("", opts)
	if err != nil {
		return nil, err
	}
	// archiveURL renders the listing URL when given an empty key; strip the
	// empty-archive suffix to get the index page.
	url = strings.TrimSuffix(url, "/.tar.gz") + "/"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("listing remote keys: %w", err)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("listing remote keys: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing remote keys: server returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing remote index: %w", err)
	}

	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimPrefix(href, "./")
		if !strings.HasSuffix(href, ".tar.gz") || strings.Contains(href, "/") {
			return
		}
		key := DecodeKey(strings.TrimSuffix(href, ".tar.gz"))
		seen[key] = true
	})

	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

package ics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	appLog "whencal/internal/log"
)

// FetchResult is a downloaded feed ready for Import.
type FetchResult struct {
	URL       string
	Body      []byte
	FromCache bool // the last good copy was used
}

// validators are the HTTP cache validators remembered for a feed.
type validators struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// Fetcher downloads calendar feeds for "whencal import <url>". Each feed
// is kept in cacheDir as <key>.ics next to its validators in <key>.json,
// so that repeated imports are conditional requests and an unreachable
// server falls back to the last good copy.
type Fetcher struct {
	client   *http.Client
	cacheDir string
}

// NewFetcher creates a Fetcher that caches under cacheDir, eg.
// "~/.whencal/ics-cache".
func NewFetcher(cacheDir string) *Fetcher {
	return &Fetcher{
		client:   &http.Client{Timeout: 15 * time.Second},
		cacheDir: cacheDir,
	}
}

// IsURL reports whether src names a remote calendar rather than a file.
func IsURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// Fetch downloads the feed at url. Network failures and error statuses
// are not fatal while a cached copy exists.
func (f *Fetcher) Fetch(ctx context.Context, url string) (FetchResult, error) {
	if url == "" {
		return FetchResult{}, errors.New("import: empty feed URL")
	}
	if err := os.MkdirAll(f.cacheDir, 0o700); err != nil {
		return FetchResult{}, err
	}
	key := feedKey(url)
	v, body := f.cached(key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return FetchResult{}, err
	}
	if v.ETag != "" {
		req.Header.Set("If-None-Match", v.ETag)
	}
	if v.LastModified != "" {
		req.Header.Set("If-Modified-Since", v.LastModified)
	}

	fallback := func(cause error) (FetchResult, error) {
		if len(body) == 0 {
			return FetchResult{}, fmt.Errorf("import %s: %w", redactURL(url), cause)
		}
		appLog.Warn("import: feed unavailable, using last good copy",
			"url", redactURL(url), "fetched_at", v.FetchedAt.Format(time.RFC3339), "err", cause)
		return FetchResult{URL: url, Body: body, FromCache: true}, nil
	}

	appLog.Debug("import: requesting feed", "url", redactURL(url), "conditional", v.ETag != "" || v.LastModified != "")
	resp, err := f.client.Do(req)
	if err != nil {
		return fallback(err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotModified:
		if len(body) == 0 {
			return FetchResult{}, errors.New("import: 304 Not Modified without a cached feed")
		}
		appLog.Info("import: feed unchanged", "url", redactURL(url))
		return FetchResult{URL: url, Body: body, FromCache: true}, nil
	case http.StatusOK:
	default:
		return fallback(errors.New(resp.Status))
	}

	fresh, err := io.ReadAll(resp.Body)
	if err != nil {
		return fallback(err)
	}
	nv := validators{
		URL:          url,
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
		FetchedAt:    time.Now().UTC(),
	}
	if err := f.store(key, nv, fresh); err != nil {
		appLog.Error("import: caching feed failed", err, "url", redactURL(url))
	}
	appLog.Info("import: feed downloaded", "url", redactURL(url), "bytes", len(fresh))
	return FetchResult{URL: url, Body: fresh}, nil
}

// feedKey names the cache files for url without exposing it.
func feedKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:8])
}

// cached returns the stored validators and feed for key. Validators are
// only used when the feed itself is present.
func (f *Fetcher) cached(key string) (validators, []byte) {
	body, err := os.ReadFile(filepath.Join(f.cacheDir, key+".ics"))
	if err != nil || len(body) == 0 {
		return validators{}, nil
	}
	var v validators
	if data, err := os.ReadFile(filepath.Join(f.cacheDir, key+".json")); err == nil {
		if err := json.Unmarshal(data, &v); err != nil {
			v = validators{}
		}
	}
	return v, body
}

// store writes the feed before its validators so the validators never
// describe a feed that is missing.
func (f *Fetcher) store(key string, v validators, body []byte) error {
	if err := os.WriteFile(filepath.Join(f.cacheDir, key+".ics"), body, 0o600); err != nil {
		return err
	}
	data, err := json.MarshalIndent(&v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(f.cacheDir, key+".json"), data, 0o600)
}

// redactURL hides everything after the host, since subscription URLs
// often embed private tokens.
func redactURL(u string) string {
	scheme, rest, ok := strings.Cut(u, "://")
	if !ok {
		return "ics://...(redacted)"
	}
	host, _, _ := strings.Cut(rest, "/")
	return scheme + "://" + host + "/...(redacted)"
}

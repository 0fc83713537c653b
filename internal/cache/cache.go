// Package cache provides a TTL disk cache for catalog listing responses.
package cache

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/podtube-cli/podtube/filesystem"
	"github.com/podtube-cli/podtube/key"
	"github.com/podtube-cli/podtube/log"
	"github.com/podtube-cli/podtube/where"
	"github.com/spf13/viper"
)

// TTL returns the configured lifetime of a cached listing.
func TTL() time.Duration {
	return time.Duration(viper.GetInt(key.CatalogCacheTTL)) * time.Minute
}

// Key derives a deterministic file name from an endpoint, the catalog instance and its parameters.
func Key(endpoint, instance string, params ...string) string {
	h := xxhash.New()
	_, _ = h.WriteString(strings.ToLower(instance))
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(endpoint)
	for _, p := range params {
		_, _ = h.WriteString("\x00")
		_, _ = h.WriteString(strings.ToLower(strings.TrimSpace(p)))
	}
	return endpoint + "-" + strconv.FormatUint(h.Sum64(), 16) + ".json"
}

// Read decodes the entry named key into target when it exists and is younger than TTL.
func Read(key string, target any) bool {
	ttl := TTL()
	if ttl <= 0 {
		return false
	}

	path := filepath.Join(where.Catalog(), key)

	info, err := filesystem.API().Stat(path)
	if err != nil || time.Since(info.ModTime()) > ttl {
		return false
	}

	f, err := filesystem.API().Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(target); err != nil {
		log.WithField("key", key).Warnf("discarding corrupt cache entry: %s", err)
		return false
	}
	return true
}

// Write persists data under key, swapping a temporary file into place.
func Write(key string, data any) error {
	path := filepath.Join(where.Catalog(), key)
	tmpPath := path + ".tmp"

	f, err := filesystem.API().OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	if err := json.NewEncoder(f).Encode(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	return filesystem.API().Rename(tmpPath, path)
}

// CollectGarbage prunes expired entries in the background.
func CollectGarbage() {
	go func() {
		pruned := Prune(TTL())
		if pruned > 0 {
			log.Debugf("pruned %d expired catalog cache entries", pruned)
		}
	}()
}

// Prune removes entries older than ttl and returns how many were removed.
func Prune(ttl time.Duration) int {
	var pruned int
	_ = filesystem.API().Walk(where.Catalog(), func(path string, info fs.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if time.Since(info.ModTime()) > ttl {
			if filesystem.API().Remove(path) == nil {
				pruned++
			}
		}
		return nil
	})
	return pruned
}

// Package version looks up the latest published release.
package version

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/metafates/gache"
	"github.com/podtube-cli/podtube/constant"
	"github.com/podtube-cli/podtube/filesystem"
	"github.com/podtube-cli/podtube/network"
	"github.com/podtube-cli/podtube/where"
)

var cacher = gache.New[string](&gache.Options{
	Path:       filepath.Join(where.Cache(), "version.json"),
	Lifetime:   48 * time.Hour,
	FileSystem: &filesystem.GacheFs{},
})

// releasesURL is a variable so tests can point it at a local server.
var releasesURL = "https://api.github.com/repos/" + constant.Repository + "/releases/latest"

// Latest returns the newest released version, without the leading "v".
// The answer is cached for two days.
func Latest(ctx context.Context) (string, error) {
	if cached, expired, err := cacher.Get(); err == nil && !expired && cached != "" {
		return cached, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, releasesURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := network.Client().Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("latest release: %s", resp.Status)
	}

	var release struct {
		TagName string `json:"tag_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", err
	}
	if release.TagName == "" {
		return "", errors.New("latest release has no tag")
	}

	latest := strings.TrimPrefix(release.TagName, "v")
	_ = cacher.Set(latest)
	return latest, nil
}

// Outdated reports the newer release when the running build is behind it.
func Outdated(ctx context.Context) (string, bool) {
	latest, err := Latest(ctx)
	if err != nil {
		return "", false
	}
	cmp, err := Compare(latest, constant.Version)
	if err != nil || cmp <= 0 {
		return "", false
	}
	return latest, true
}

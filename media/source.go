package media

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/podtube-cli/podtube/constant"
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// pathPrefixes are watch-link paths whose next segment is the identifier.
var pathPrefixes = []string{"/shorts/", "/embed/", "/v/", "/live/"}

// ExtractSourceID returns the 11 character source identifier of a watch link.
// Accepted shapes are ?v=<id> query links (absolute or relative), youtu.be/<id> and the path prefixes above.
func ExtractSourceID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", &Error{Kind: KindInvalidSource, Message: "empty source url"}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", &Error{Kind: KindInvalidSource, Message: "unparseable source url " + raw, Cause: err}
	}

	if v := u.Query().Get("v"); v != "" {
		return validID(v, raw)
	}

	if strings.EqualFold(strings.TrimPrefix(u.Hostname(), "www."), "youtu.be") {
		return validID(strings.Trim(u.Path, "/"), raw)
	}

	for _, prefix := range pathPrefixes {
		if rest, ok := strings.CutPrefix(u.Path, prefix); ok {
			return validID(strings.SplitN(rest, "/", 2)[0], raw)
		}
	}

	return "", &Error{Kind: KindInvalidSource, Message: "not a watch link: " + raw}
}

func validID(id, raw string) (string, error) {
	if !idPattern.MatchString(id) {
		return "", &Error{Kind: KindInvalidSource, Message: "malformed source id in " + raw}
	}
	return id, nil
}

// WatchURL returns the canonical watch link for id.
func WatchURL(id string) string {
	return constant.WatchURL + id
}

// ThumbnailQuality selects a thumbnail rendition.
type ThumbnailQuality string

const (
	ThumbnailDefault  ThumbnailQuality = "default"
	ThumbnailMedium   ThumbnailQuality = "medium"
	ThumbnailHigh     ThumbnailQuality = "high"
	ThumbnailStandard ThumbnailQuality = "standard"
	ThumbnailMaxRes   ThumbnailQuality = "maxres"
)

var thumbnailFiles = map[ThumbnailQuality]string{
	ThumbnailDefault:  "default",
	ThumbnailMedium:   "mqdefault",
	ThumbnailHigh:     "hqdefault",
	ThumbnailStandard: "sddefault",
	ThumbnailMaxRes:   "maxresdefault",
}

// ThumbnailURL returns the CDN thumbnail for id. Unknown qualities fall back to default.
func ThumbnailURL(id string, q ThumbnailQuality) string {
	file, ok := thumbnailFiles[q]
	if !ok {
		file = thumbnailFiles[ThumbnailDefault]
	}
	return constant.ThumbnailHost + "/vi/" + id + "/" + file + ".jpg"
}

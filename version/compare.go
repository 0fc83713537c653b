package version

import (
	"fmt"
	"strings"
)

type semver struct {
	major, minor, patch int
}

func parse(s string) (semver, error) {
	var v semver
	s = strings.TrimPrefix(strings.TrimSpace(s), "v")
	// pre-release and build suffixes do not take part in the comparison
	if i := strings.IndexAny(s, "-+"); i >= 0 {
		s = s[:i]
	}
	if _, err := fmt.Sscanf(s, "%d.%d.%d", &v.major, &v.minor, &v.patch); err != nil {
		return semver{}, fmt.Errorf("parse version %q: %w", s, err)
	}
	return v, nil
}

// Compare returns 1 if a is newer than b, -1 if older and 0 if equal.
func Compare(a, b string) (int, error) {
	av, err := parse(a)
	if err != nil {
		return 0, err
	}
	bv, err := parse(b)
	if err != nil {
		return 0, err
	}

	for _, d := range [...]int{av.major - bv.major, av.minor - bv.minor, av.patch - bv.patch} {
		switch {
		case d > 0:
			return 1, nil
		case d < 0:
			return -1, nil
		}
	}
	return 0, nil
}

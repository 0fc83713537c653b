// Package query remembers past searches and suggests them back while the user types.
package query

import (
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/metafates/gache"
	"github.com/podtube-cli/podtube/filesystem"
	"github.com/podtube-cli/podtube/key"
	"github.com/podtube-cli/podtube/where"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/viper"
	"golang.org/x/exp/slices"
)

type record struct {
	Rank  int    `json:"rank"`
	Query string `json:"query"`
}

var cacher = gache.New[map[string]*record](
	&gache.Options{
		Path:       where.Queries(),
		FileSystem: &filesystem.GacheFs{},
	},
)

var (
	mu      sync.Mutex
	matches = make(map[string][]string)
)

func load() map[string]*record {
	cached, expired, err := cacher.Get()
	if expired || err != nil || cached == nil {
		return make(map[string]*record)
	}
	return cached
}

// Remember adds weight to the rank of q, recording it on first use.
func Remember(q string, weight int) error {
	q = normalize(q)
	if q == "" {
		return nil
	}

	mu.Lock()
	defer mu.Unlock()

	records := load()
	if r, ok := records[q]; ok {
		r.Rank += weight
	} else {
		records[q] = &record{Rank: weight, Query: q}
	}

	clear(matches)
	return cacher.Set(records)
}

// Forget drops q from the remembered searches.
func Forget(q string) error {
	q = normalize(q)

	mu.Lock()
	defer mu.Unlock()

	records := load()
	delete(records, q)

	clear(matches)
	return cacher.Set(records)
}

// Suggest returns the best ranked remembered search matching q.
func Suggest(q string) mo.Option[string] {
	suggestions := SuggestMany(q)
	if len(suggestions) == 0 {
		return mo.None[string]()
	}
	return mo.Some(suggestions[0])
}

// SuggestMany returns the remembered searches fuzzily matching q, highest rank first.
// It returns nothing when suggestions are disabled.
func SuggestMany(q string) []string {
	if !viper.GetBool(key.SearchShowQuerySuggestions) {
		return nil
	}
	q = normalize(q)

	mu.Lock()
	defer mu.Unlock()

	if found, ok := matches[q]; ok {
		return found
	}

	candidates := lo.Filter(lo.Values(load()), func(r *record, _ int) bool {
		return fuzzy.Match(q, r.Query)
	})
	slices.SortFunc(candidates, func(a, b *record) int {
		if a.Rank != b.Rank {
			return b.Rank - a.Rank
		}
		return strings.Compare(a.Query, b.Query)
	})

	found := lo.Map(candidates, func(r *record, _ int) string {
		return r.Query
	})
	matches[q] = found
	return found
}

func normalize(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

package options

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dshills/chunklink/pkg/types"
)

// externalCacheSize bounds the verdict cache of one build
const externalCacheSize = 4096

// ExternalFunc is a host predicate deciding whether an id is external.
// resolved is false when id is the raw specifier as written by importer.
type ExternalFunc func(id, importer string, resolved bool) bool

type externalKey struct {
	id       string
	importer string
	resolved bool
}

// ExternalMatcher decides edge locality from configured ids, glob patterns,
// /regex/ patterns and an optional predicate. Verdicts are memoized.
type ExternalMatcher struct {
	ids     map[string]bool
	globs   []string
	regexps []*regexp.Regexp
	fn      ExternalFunc
	cache   *lru.Cache[externalKey, bool]
}

// NewExternalMatcher compiles the configured patterns
func NewExternalMatcher(patterns []string, fn ExternalFunc) (*ExternalMatcher, error) {
	cache, err := lru.New[externalKey, bool](externalCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create external cache: %w", err)
	}

	m := &ExternalMatcher{
		ids:   make(map[string]bool),
		fn:    fn,
		cache: cache,
	}

	for _, p := range patterns {
		switch {
		case len(p) > 2 && strings.HasPrefix(p, "/") && strings.HasSuffix(p, "/"):
			re, err := regexp.Compile(p[1 : len(p)-1])
			if err != nil {
				return nil, types.ConfigError(types.CodeInvalidOption,
					"invalid regular expression %q in \"external\": %v", p, err)
			}
			m.regexps = append(m.regexps, re)
		case strings.ContainsAny(p, "*?[{"):
			if _, err := doublestar.Match(p, p); err != nil {
				return nil, types.ConfigError(types.CodeInvalidOption,
					"invalid glob pattern %q in \"external\": %v", p, err)
			}
			m.globs = append(m.globs, p)
		default:
			m.ids[p] = true
		}
	}

	return m, nil
}

// IsExternal reports whether id is external for the given importer
func (m *ExternalMatcher) IsExternal(id, importer string, resolved bool) bool {
	if m == nil {
		return false
	}

	key := externalKey{id: id, importer: importer, resolved: resolved}
	if v, ok := m.cache.Get(key); ok {
		return v
	}

	v := m.match(id, importer, resolved)
	m.cache.Add(key, v)
	return v
}

func (m *ExternalMatcher) match(id, importer string, resolved bool) bool {
	if m.ids[id] {
		return true
	}
	for _, g := range m.globs {
		if ok, _ := doublestar.Match(g, id); ok {
			return true
		}
	}
	for _, re := range m.regexps {
		if re.MatchString(id) {
			return true
		}
	}
	if m.fn != nil {
		return m.fn(id, importer, resolved)
	}
	return false
}

// Package styletoken reads and writes heading levels stored as directives inside a block's custom_css.
//
// A heading level is written as "heading-level:h2". Compound statistic blocks carry two levels,
// "header-heading-level:" and "subheader-heading-level:". Every other directive in the style
// string is left untouched by Encode.
package styletoken

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// Level is an HTML heading level, h1 through h6
type Level string

const (
	H1 Level = "h1"
	H2 Level = "h2"
	H3 Level = "h3"
	H4 Level = "h4"
	H5 Level = "h5"
	H6 Level = "h6"
)

// Directive prefixes
const (
	PrefixNone      = ""
	PrefixHeader    = "header-"
	PrefixSubheader = "subheader-"
)

const directive = "heading-level:"

// ParseLevel validates s as a heading level
func ParseLevel(s string) (Level, error) {
	l := Level(strings.ToLower(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", fmt.Errorf("invalid heading level %q", s)
	}
	return l, nil
}

// Valid reports whether l is one of h1..h6
func (l Level) Valid() bool {
	switch l {
	case H1, H2, H3, H4, H5, H6:
		return true
	default:
		return false
	}
}

type patterns struct {
	decode  *regexp.Regexp
	replace *regexp.Regexp
}

var (
	cacheMu sync.Mutex
	cache   = map[string]patterns{}
)

// patternsFor compiles the decode and replace expressions of a prefix.
// The leading group anchors the directive at the start of the string or after a separator,
// so "heading-level:" never matches inside "header-heading-level:".
func patternsFor(prefix string) patterns {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	if p, ok := cache[prefix]; ok {
		return p
	}
	name := regexp.QuoteMeta(prefix + directive)
	p := patterns{
		decode:  regexp.MustCompile(`(?i)(^|[;\s])` + name + `\s*(h[1-6])\s*(?:;|$)`),
		replace: regexp.MustCompile(`(?i)(^|[;\s])` + name + `[^;]*`),
	}
	cache[prefix] = p
	return p
}

// Decode returns the heading level stored under prefix, and false when it is absent or malformed
func Decode(css, prefix string) (Level, bool) {
	m := patternsFor(prefix).decode.FindStringSubmatch(css)
	if m == nil {
		return "", false
	}
	return Level(strings.ToLower(m[2])), true
}

// DecodeOr returns the heading level stored under prefix, or def
func DecodeOr(css, prefix string, def Level) Level {
	if l, ok := Decode(css, prefix); ok {
		return l
	}
	return def
}

// Encode writes level under prefix into css. An existing directive (valid or malformed) is
// replaced in place; otherwise the directive is appended after a ';' separator.
func Encode(css, prefix string, level Level) string {
	token := prefix + directive + string(level)
	p := patternsFor(prefix)

	if loc := p.replace.FindStringSubmatchIndex(css); loc != nil {
		// loc[3] is the end of the separator group, the directive starts right after it
		return css[:loc[3]] + token + css[loc[1]:]
	}

	trimmed := strings.TrimRight(css, " \t")
	switch {
	case trimmed == "":
		return token
	case strings.HasSuffix(trimmed, ";"):
		return trimmed + token
	default:
		return trimmed + ";" + token
	}
}

// Strip removes the directive stored under prefix, keeping other directives
func Strip(css, prefix string) string {
	p := patternsFor(prefix)
	loc := p.replace.FindStringSubmatchIndex(css)
	if loc == nil {
		return css
	}
	rest := strings.TrimPrefix(css[loc[1]:], ";")
	head := css[:loc[3]]
	if head != "" && rest == "" {
		head = strings.TrimRight(head, ";")
	}
	return head + rest
}

package urlmatch

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"
)

var schemePrefix = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]*://`)

// Pattern is the URL half of a rule: a literal URL or a regular expression.
type Pattern struct {
	literal string
	re      *regexp.Regexp
}

// Literal builds a literal pattern. A URL without a path gets "/" as its path.
func Literal(rawURL string) Pattern {
	return Pattern{literal: EnsureDefaultPath(rawURL)}
}

// Regexp builds a regular expression pattern.
func Regexp(re *regexp.Regexp) Pattern {
	return Pattern{re: re}
}

// MustCompile compiles expr and returns it as a pattern. It panics if the
// expression does not compile.
func MustCompile(expr string) Pattern {
	return Regexp(regexp.MustCompile(expr))
}

// IsRegexp reports whether the pattern is a regular expression.
func (p Pattern) IsRegexp() bool { return p.re != nil }

// String returns the literal URL or the expression source.
func (p Pattern) String() string {
	if p.re != nil {
		return p.re.String()
	}
	return p.literal
}

// Equal compares patterns by kind and source text. A literal never equals
// a regular expression, even when the text is the same.
func (p Pattern) Equal(other Pattern) bool {
	if p.IsRegexp() != other.IsRegexp() {
		return false
	}
	return p.String() == other.String()
}

// Matcher is the request predicate of a rule.
type Matcher struct {
	// Method is compared case-sensitively with the request method.
	Method string

	// Pattern is the URL the request must satisfy.
	Pattern Pattern

	// Strict enables querystring comparison for literal patterns.
	Strict bool
}

// Matches reports whether method and u satisfy the matcher.
func (m Matcher) Matches(method string, u *url.URL) bool {
	if method != m.Method {
		return false
	}
	return m.MatchesURL(RequestURL(u))
}

// MatchesURL reports whether an already normalised request URL satisfies
// the matcher's pattern.
func (m Matcher) MatchesURL(requestURL string) bool {
	if m.Pattern.re != nil {
		loc := m.Pattern.re.FindStringIndex(requestURL)
		return loc != nil && loc[0] == 0
	}

	pattern := Normalize(m.Pattern.literal)
	if m.Strict {
		return matchStrict(pattern, requestURL)
	}
	return stripQuery(pattern) == stripQuery(requestURL)
}

func stripQuery(s string) string {
	before, _, _ := strings.Cut(s, "?")
	return before
}

func matchStrict(pattern, requestURL string) bool {
	pu, err := url.Parse(pattern)
	if err != nil {
		return pattern == requestURL
	}
	ru, err := url.Parse(requestURL)
	if err != nil {
		return false
	}

	if pu.Scheme != ru.Scheme || pu.User.String() != ru.User.String() || pu.Host != ru.Host {
		return false
	}
	if pu.EscapedPath() != ru.EscapedPath() {
		return false
	}

	want := queryPairs(pu.RawQuery)
	got := queryPairs(ru.RawQuery)
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if want[i] != got[i] {
			return false
		}
	}
	return true
}

type pair struct {
	key, value string
}

// queryPairs flattens a raw query into sorted key/value pairs. Parameters
// with blank values are dropped.
func queryPairs(rawQuery string) []pair {
	// ParseQuery keeps every pair it could parse even when it reports an error.
	values, _ := url.ParseQuery(rawQuery)

	out := make([]pair, 0, len(values))
	for k, vs := range values {
		for _, v := range vs {
			if v == "" {
				continue
			}
			out = append(out, pair{key: k, value: v})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].key != out[j].key {
			return out[i].key < out[j].key
		}
		return out[i].value < out[j].value
	})
	return out
}

// EnsureDefaultPath sets the path of an absolute URL to "/" when it has none.
func EnsureDefaultPath(rawURL string) string {
	loc := schemePrefix.FindStringIndex(rawURL)
	if loc == nil {
		if rawURL == "" || rawURL[0] == '?' || rawURL[0] == '#' {
			return "/" + rawURL
		}
		return rawURL
	}

	start := loc[1]
	end := strings.IndexAny(rawURL[start:], "/?#")
	if end < 0 {
		return rawURL + "/"
	}
	if rawURL[start+end] == '/' {
		return rawURL
	}
	return rawURL[:start+end] + "/" + rawURL[start+end:]
}

// RequestURL renders u the way literal patterns are compared: punycode host,
// default path and percent-encoded non-ASCII characters.
func RequestURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	c := *u
	c.Host = asciiNetloc(c.Host)
	if c.Opaque == "" && c.Path == "" && c.RawPath == "" && c.Host != "" {
		c.Path = "/"
	}
	return Normalize(c.String())
}

// Normalize converts non-ASCII hosts to punycode and percent-encodes every
// other non-ASCII character. ASCII input is returned unchanged.
func Normalize(rawURL string) string {
	if !hasNonASCII(rawURL) {
		return rawURL
	}

	if loc := schemePrefix.FindStringIndex(rawURL); loc != nil {
		start := loc[1]
		end := strings.IndexAny(rawURL[start:], "/?#")
		if end < 0 {
			end = len(rawURL) - start
		}
		netloc := rawURL[start : start+end]
		if hasNonASCII(netloc) {
			rawURL = rawURL[:start] + asciiNetloc(netloc) + rawURL[start+end:]
		}
	}

	return escapeNonASCII(rawURL)
}

// asciiNetloc punycodes the host labels of a netloc, keeping any user info
// and port untouched. It returns netloc unchanged if conversion fails.
func asciiNetloc(netloc string) string {
	if !hasNonASCII(netloc) {
		return netloc
	}

	userinfo, host := "", netloc
	if i := strings.LastIndex(netloc, "@"); i >= 0 {
		userinfo, host = netloc[:i+1], netloc[i+1:]
	}

	port := ""
	if i := strings.LastIndex(host, ":"); i >= 0 && !strings.Contains(host[i:], "]") {
		host, port = host[:i], host[i:]
	}

	ascii, err := idna.Punycode.ToASCII(host)
	if err != nil {
		return netloc
	}
	return userinfo + ascii + port
}

func escapeNonASCII(s string) string {
	const upperhex = "0123456789ABCDEF"

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < utf8.RuneSelf {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func hasNonASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return true
		}
	}
	return false
}

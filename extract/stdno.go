package extract

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/width"
)

// DefaultPrefixes lists organization codes recognized as standard number
// prefixes. Entries are regular expression fragments.
var DefaultPrefixes = []string{
	"GB", `DB\d{0,3}`, "YY", "JJF", "JGJ", "HG", "SN", "SB", "NY",
	"LY", "SL", "QB", "TB", "NB", "SJ", "WH", "WS", "JR",
}

var (
	reSpaces      = regexp.MustCompile(`[\s\p{Z}]+`)
	reNotStdChar  = regexp.MustCompile(`[^\p{L}\p{N}_\x{4e00}-\x{9fff}.]`)
	reUnderscores = regexp.MustCompile(`_+`)
	dashReplacer  = strings.NewReplacer("—", "-", "－", "-", "–", "-")
)

// StdNoMatcher recognizes standard numbers like "GB/T 30269.901—2016" or
// "DB37/T 4866-2025". Match is anchored on both ends.
type StdNoMatcher struct {
	re *regexp.Regexp
}

// NewStdNoMatcher compiles matcher for the given prefix fragments.
func NewStdNoMatcher(prefixes []string) (*StdNoMatcher, error) {
	if len(prefixes) == 0 {
		return nil, errors.New("no standard number prefixes specified")
	}
	expr := `^(?:` + strings.Join(prefixes, "|") + `)` +
		`(?:\s*/\s*[A-Z])?` +
		`\s*\d+(?:\.\d+)*` +
		`(?:\s*[-—–]\s*\d{2,4})?$`
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("unable to compile standard number pattern: %w", err)
	}
	return &StdNoMatcher{re: re}, nil
}

// Match reports whether normalized line is a standard number.
func (m *StdNoMatcher) Match(line string) bool {
	return m.re.MatchString(line)
}

// NormalizeLine folds full width characters, collapses whitespace runs into
// single space and trims the result.
func NormalizeLine(s string) string {
	s = width.Narrow.String(s)
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}

// CleanStdNo turns standard number into file name friendly form keeping
// dots: "GB/T 30269.901—2016" becomes "GB_T_30269.901_2016".
func CleanStdNo(s string) string {
	s = dashReplacer.Replace(strings.TrimSpace(s))
	s = reNotStdChar.ReplaceAllString(s, "_")
	s = reUnderscores.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

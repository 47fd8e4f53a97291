package media

import (
	"regexp"
	"strings"
)

var (
	reSortPrefix = regexp.MustCompile(`^[\s\p{Z}]*([图表])`)
	reSortAny    = regexp.MustCompile(`[图表]`)
	reIDAfter    = regexp.MustCompile(`^[图表][\s\p{Z}]*([0-9]+(?:[.-][0-9]+)*)`)
	reIDAny      = regexp.MustCompile(`^[0-9]+(?:[.-][0-9]+)*`)
	reLeadSort   = regexp.MustCompile(`^[\s\p{Z}]*[图表][\s\p{Z}]*`)
	reLongLatin  = regexp.MustCompile(`[A-Za-z]{6,}`)
	reSpaceRuns  = regexp.MustCompile(`[\s\p{Z}]+`)
)

// boundary punctuation trimmed from caption text
const captionCutset = " -—:：，,;；.。"

// NormalizeSpaces trims s and collapses whitespace runs into single space.
func NormalizeSpaces(s string) string {
	return reSpaceRuns.ReplaceAllString(strings.TrimSpace(s), " ")
}

// ParseCaption splits caption like "图2-1硕士生培养流程" into kind marker
// ("图" or "表", empty when absent), numeric id ("2-1", "2.1.3") and
// remaining descriptive text.
func ParseCaption(caption string) (sort, id, text string) {
	t := NormalizeSpaces(caption)

	if m := reSortPrefix.FindStringSubmatch(t); m != nil {
		sort = m[1]
	} else {
		sort = reSortAny.FindString(t)
	}

	if sort != "" {
		if m := reIDAfter.FindStringSubmatch(strings.ReplaceAll(t, " ", "")); m != nil {
			id = m[1]
		} else {
			id = reIDAny.FindString(reLeadSort.ReplaceAllString(t, ""))
		}
	}

	text = t
	if sort != "" {
		text = trimLeading(text, sort)
	}
	if id != "" {
		text = trimLeading(text, id)
	}
	text = NormalizeSpaces(strings.Trim(text, captionCutset))
	return sort, id, text
}

// trimLeading removes prefix (with surrounding spaces) from the front of s.
func trimLeading(s, prefix string) string {
	rest := strings.TrimLeft(s, " \t")
	if !strings.HasPrefix(rest, prefix) {
		return s
	}
	return strings.TrimLeft(rest[len(prefix):], " \t")
}

// IsForeign reports whether caption contains run of 6 or more Latin letters,
// such captions are excluded from export.
func IsForeign(caption string) bool {
	return reLongLatin.MatchString(caption)
}

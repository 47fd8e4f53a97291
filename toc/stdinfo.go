package toc

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

var reDotBetweenDigits = regexp.MustCompile(`(\d)\.(\d)`)

// placeholder for dots which must survive title cleanup
const keepDot = '\x00'

func isCJK(r rune) bool {
	return r >= 0x4e00 && r <= 0x9fa5
}

// StdInfoFromDir derives standard number and title from renamed result
// directory (or file) name like "GB_T_1.1_2020标准化工作导则": everything
// before first CJK character is standard number. Without CJK characters
// whole name is standard number and title is RootParent.
func StdInfoFromDir(path string) (stdNo, stdTitle string) {
	name := filepath.Base(path)

	idx := strings.IndexFunc(name, isCJK)
	if idx < 0 {
		return name, RootParent
	}
	stdNo = strings.TrimSpace(strings.Trim(name[:idx], "_"))
	stdTitle = strings.TrimSuffix(strings.TrimSpace(name[idx:]), ".pdf")

	// matches do not overlap, "1.2.3" needs second pass
	for {
		next := reDotBetweenDigits.ReplaceAllString(stdTitle, "${1}"+string(keepDot)+"${2}")
		if next == stdTitle {
			break
		}
		stdTitle = next
	}
	stdTitle = strings.Map(func(r rune) rune {
		switch {
		case r == keepDot:
			return '.'
		case r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r):
			return r
		}
		return '_'
	}, stdTitle)
	return stdNo, stdTitle
}

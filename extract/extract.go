// Package extract locates document title and standard number among
// positioned text blocks of the first page.
package extract

import (
	"sort"
	"strings"
	"unicode/utf8"

	"stdpipe/config"
	"stdpipe/content"
)

// Result holds extracted signals, empty string means not found.
type Result struct {
	Title string
	StdNo string
}

// Complete reports whether both title and standard number were found.
func (r Result) Complete() bool {
	return r.Title != "" && r.StdNo != ""
}

// Extractor selects title and standard number using vertical bands of the
// first page. Parser coordinates grow downwards.
type Extractor struct {
	matcher         *StdNoMatcher
	titleBandTop    float64
	titleBandBottom float64
	stdNoMaxTop     float64
}

// New creates extractor from configuration.
func New(cfg *config.ExtractConfig) (*Extractor, error) {
	m, err := NewStdNoMatcher(cfg.StdNoPrefixes)
	if err != nil {
		return nil, err
	}
	return &Extractor{
		matcher:         m,
		titleBandTop:    cfg.TitleBandTop,
		titleBandBottom: cfg.TitleBandBottom,
		stdNoMaxTop:     cfg.StdNoMaxTop,
	}, nil
}

type candidate struct {
	score    int
	tiebreak int
	text     string
}

// best returns highest scored candidate, earlier candidates win ties.
func best(cands []candidate) (string, bool) {
	if len(cands) == 0 {
		return "", false
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].score != cands[j].score {
			return cands[i].score > cands[j].score
		}
		return cands[i].tiebreak > cands[j].tiebreak
	})
	return cands[0].text, true
}

// CountCJK returns number of CJK unified ideographs in s.
func CountCJK(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x4e00 && r <= 0x9fff {
			n++
		}
	}
	return n
}

// firstPage yields trimmed text of page 0 blocks of accepted types which have
// full bounding box.
func firstPage(list content.List, types ...string) []pageBlock {
	var res []pageBlock
	for _, b := range list {
		if b.PageIdx != 0 || !b.HasBox {
			continue
		}
		ok := false
		for _, t := range types {
			if b.Type == t {
				ok = true
				break
			}
		}
		if !ok {
			continue
		}
		text := strings.TrimSpace(b.Text)
		if text == "" {
			continue
		}
		res = append(res, pageBlock{text: text, box: b.BBox})
	}
	return res
}

type pageBlock struct {
	text string
	box  content.BBox
}

// Title picks the block with most CJK characters inside title band. When band
// is empty any first page block with CJK characters is considered.
func (e *Extractor) Title(list content.List) (string, bool) {
	blocks := firstPage(list, content.TypeText)

	var cands []candidate
	for _, b := range blocks {
		if b.box.Top() > e.titleBandTop && b.box.Bottom() < e.titleBandBottom {
			cands = append(cands, candidate{score: CountCJK(b.text), tiebreak: utf8.RuneCountInString(b.text), text: b.text})
		}
	}
	if title, ok := best(cands); ok {
		return title, true
	}

	cands = cands[:0]
	for _, b := range blocks {
		if n := CountCJK(b.text); n > 0 {
			cands = append(cands, candidate{score: n, tiebreak: utf8.RuneCountInString(b.text), text: b.text})
		}
	}
	return best(cands)
}

// StdNo picks the longest standard number in the upper part of the first
// page, right most block wins ties. Returned value is cleaned.
func (e *Extractor) StdNo(list content.List) (string, bool) {
	var cands []candidate
	for _, b := range firstPage(list, content.TypeText, content.TypeHeader) {
		if b.box.Top() >= e.stdNoMaxTop {
			continue
		}
		line := NormalizeLine(b.text)
		if !e.matcher.Match(line) {
			continue
		}
		cands = append(cands, candidate{score: utf8.RuneCountInString(line), tiebreak: int(b.box.Left()), text: line})
	}
	stdNo, ok := best(cands)
	if !ok {
		return "", false
	}
	stdNo = CleanStdNo(stdNo)
	return stdNo, stdNo != ""
}

// Extract runs both independent selections.
func (e *Extractor) Extract(list content.List) Result {
	var r Result
	r.Title, _ = e.Title(list)
	r.StdNo, _ = e.StdNo(list)
	return r
}

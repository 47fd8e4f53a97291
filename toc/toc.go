// Package toc reconstructs document outline from numbered clause headings
// found in layout model pages.
package toc

import (
	"regexp"
	"strings"
	"unicode"

	"stdpipe/config"
	"stdpipe/content"
)

// RootParent is parent id of top level clauses.
const RootParent = "/"

// DefaultExcludes are boilerplate markers, lines containing any of them are
// never treated as clause headings.
var DefaultExcludes = []string{"GB/T", "ICS", "Term", "Definitions", "目次", "前言", "引言"}

// DefaultMaxDepth limits number of label segments.
const DefaultMaxDepth = 5

var reHeading = regexp.MustCompile(`^(\d+(?:\.\d+)*)[\s\p{Z}]+(.*?)(?:[\s\p{Z}]+\d+)?$`)

// Item is numbered heading candidate.
type Item struct {
	Label string
	Title string
}

// Row is materialized outline entry ready for export.
type Row struct {
	OrderIndex int
	StdNo      string
	StdTitle   string
	ClauseID   string
	ClauseText string
	Level      int
	ParentID   string
}

// Candidates scans layout blocks in order and returns all lines which look
// like "6.3.1 General requirements 12" (trailing page number is dropped).
func Candidates(layout content.Layout, excludes []string, maxDepth int) []Item {
	var res []Item
	for _, page := range layout {
		for _, block := range page {
			if item, ok := parseHeading(block.Content, excludes, maxDepth); ok {
				res = append(res, item)
			}
		}
	}
	return res
}

func parseHeading(text string, excludes []string, maxDepth int) (Item, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Item{}, false
	}
	for _, k := range excludes {
		if strings.Contains(text, k) {
			return Item{}, false
		}
	}

	m := reHeading.FindStringSubmatch(text)
	if m == nil {
		return Item{}, false
	}
	label, title := m[1], strings.TrimSpace(m[2])
	if strings.Count(label, ".")+1 > maxDepth || isDigits(title) {
		return Item{}, false
	}
	return Item{Label: label, Title: title}, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Clean drops everything before the last item labeled "1" (outline printed
// in front matter precedes the body) and removes repeated labels keeping the
// first one.
func Clean(items []Item) []Item {
	start := 0
	for i, item := range items {
		if item.Label == "1" {
			start = i
		}
	}

	seen := make(map[string]struct{}, len(items))
	res := make([]Item, 0, len(items)-start)
	for _, item := range items[start:] {
		if item.Label == "" {
			continue
		}
		if _, ok := seen[item.Label]; ok {
			continue
		}
		seen[item.Label] = struct{}{}
		res = append(res, item)
	}
	return res
}

// Level returns depth of the label, "1" is level 1.
func Level(label string) int {
	return strings.Count(label, ".") + 1
}

// ParentID returns label without its last segment or RootParent.
func ParentID(label string) string {
	i := strings.LastIndexByte(label, '.')
	if i < 0 {
		return RootParent
	}
	return label[:i]
}

// Rows materializes items in order. Parent existence is not verified.
func Rows(items []Item, stdNo, stdTitle string) []Row {
	rows := make([]Row, 0, len(items))
	for i, item := range items {
		rows = append(rows, Row{
			OrderIndex: i + 1,
			StdNo:      stdNo,
			StdTitle:   stdTitle,
			ClauseID:   item.Label,
			ClauseText: item.Title,
			Level:      Level(item.Label),
			ParentID:   ParentID(item.Label),
		})
	}
	return rows
}

// Reconstruct runs full outline reconstruction for a single layout.
func Reconstruct(layout content.Layout, cfg *config.TOCConfig, stdNo, stdTitle string) []Row {
	excludes, maxDepth := DefaultExcludes, DefaultMaxDepth
	if cfg != nil {
		excludes, maxDepth = cfg.ExcludeKeywords, cfg.MaxDepth
	}
	return Rows(Clean(Candidates(layout, excludes, maxDepth)), stdNo, stdTitle)
}

package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// LayoutBlock is a block of layout model page, only its text content is used.
type LayoutBlock struct {
	Content string
}

// LayoutPage is ordered sequence of page blocks.
type LayoutPage []LayoutBlock

// Layout is decoded layout model: sequence of pages.
type Layout []LayoutPage

// UnmarshalJSON decodes layout leniently: pages which are not arrays and
// blocks which are not objects are dropped.
func (l *Layout) UnmarshalJSON(data []byte) error {
	var pages []json.RawMessage
	if err := json.Unmarshal(data, &pages); err != nil {
		return fmt.Errorf("layout is not an array: %w", err)
	}

	res := make(Layout, 0, len(pages))
	for _, page := range pages {
		var blocks []json.RawMessage
		if err := json.Unmarshal(page, &blocks); err != nil {
			continue
		}
		lp := make(LayoutPage, 0, len(blocks))
		for _, block := range blocks {
			block = bytes.TrimSpace(block)
			if len(block) == 0 || block[0] != '{' {
				continue
			}
			var raw struct {
				Content json.RawMessage `json:"content"`
			}
			if err := json.Unmarshal(block, &raw); err != nil {
				continue
			}
			lp = append(lp, LayoutBlock{Content: strings.TrimSpace(scalarText(raw.Content))})
		}
		res = append(res, lp)
	}
	*l = res
	return nil
}

// Package content decodes structured results produced by remote parsing
// service: content lists (positioned text and media blocks) and layout
// models (per page block content).
package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Block types reported by parsing service we care about.
const (
	TypeText   = "text"
	TypeHeader = "header"
	TypeImage  = "image"
	TypeTable  = "table"
)

// BBox is block bounding box (x0, y0, x1, y1) in parser page coordinates,
// larger y is lower on the page.
type BBox [4]float64

func (b BBox) Left() float64   { return b[0] }
func (b BBox) Top() float64    { return b[1] }
func (b BBox) Bottom() float64 { return b[3] }

// Block is single entry of content list.
type Block struct {
	// PageIdx is zero based page index, -1 when absent.
	PageIdx int
	Type    string
	Text    string
	BBox    BBox
	// HasBox is set only when bounding box had exactly 4 coordinates.
	HasBox       bool
	ImgPath      string
	ImageCaption Captions
	TableCaption Captions
}

type rawBlock struct {
	PageIdx      *int            `json:"page_idx"`
	Type         string          `json:"type"`
	Text         json.RawMessage `json:"text"`
	BBox         []float64       `json:"bbox"`
	ImgPath      json.RawMessage `json:"img_path"`
	ImageCaption Captions        `json:"image_caption"`
	TableCaption Captions        `json:"table_caption"`
}

func (b *Block) UnmarshalJSON(data []byte) error {
	var raw rawBlock
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*b = Block{
		PageIdx:      -1,
		Type:         raw.Type,
		Text:         scalarText(raw.Text),
		ImageCaption: raw.ImageCaption,
		TableCaption: raw.TableCaption,
	}
	if raw.PageIdx != nil {
		b.PageIdx = *raw.PageIdx
	}
	if len(raw.BBox) == 4 {
		copy(b.BBox[:], raw.BBox)
		b.HasBox = true
	}
	// path must be a string, anything else is ignored
	if s, ok := jsonString(raw.ImgPath); ok {
		b.ImgPath = s
	}
	return nil
}

// Captions accepts either list of captions or single caption string.
type Captions []string

func (c *Captions) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if s, ok := jsonString(data); ok {
		*c = Captions{s}
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		// not a list - no captions
		*c = nil
		return nil
	}
	res := make(Captions, 0, len(items))
	for _, item := range items {
		res = append(res, scalarText(item))
	}
	*c = res
	return nil
}

// First returns trimmed first caption or empty string.
func (c Captions) First() string {
	if len(c) == 0 {
		return ""
	}
	return strings.TrimSpace(c[0])
}

// List is ordered sequence of blocks for a single document as produced by
// parsing service, page order is preserved.
type List []Block

// UnmarshalJSON decodes list leniently: entries which are not objects or
// cannot be decoded are dropped.
func (l *List) UnmarshalJSON(data []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("content list is not an array: %w", err)
	}

	res := make(List, 0, len(items))
	for _, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			continue
		}
		var b Block
		if err := json.Unmarshal(item, &b); err != nil {
			continue
		}
		res = append(res, b)
	}
	*l = res
	return nil
}

// jsonString returns value of JSON string.
func jsonString(data json.RawMessage) (string, bool) {
	var s string
	if len(data) == 0 || data[0] != '"' {
		return "", false
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return "", false
	}
	return s, true
}

// scalarText renders JSON scalar as text: strings are unquoted, null is
// empty, everything else is kept in its JSON form.
func scalarText(data json.RawMessage) string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return ""
	}
	if s, ok := jsonString(data); ok {
		return s
	}
	return string(data)
}

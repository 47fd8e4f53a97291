// Package debug formats intermediate structures for debug report.
package debug

import (
	"fmt"
	"strconv"
	"strings"
)

const indent = "  "

// TreeWriter accumulates indented text lines.
type TreeWriter struct {
	w *strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{w: &strings.Builder{}}
}

func (tw *TreeWriter) String() string {
	return tw.w.String()
}

func (tw *TreeWriter) prefix(depth int) {
	tw.w.WriteString(strings.Repeat(indent, max(depth, 0)))
}

// Line writes formatted line at depth.
func (tw *TreeWriter) Line(depth int, format string, args ...any) {
	tw.prefix(depth)
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

// Text writes "label: value" with value quoted, so whitespace and control
// characters recognized by parser stay visible. Empty values are skipped.
func (tw *TreeWriter) Text(depth int, label, value string) {
	if value == "" {
		return
	}
	tw.prefix(depth)
	tw.w.WriteString(label)
	tw.w.WriteString(": ")
	tw.w.WriteString(strconv.Quote(value))
	tw.w.WriteByte('\n')
}

// Box writes bounding box coordinates (x0, y0, x1, y1).
func (tw *TreeWriter) Box(depth int, label string, box [4]float64) {
	tw.Line(depth, "%s: [%g %g %g %g] %gx%g", label, box[0], box[1], box[2], box[3], box[2]-box[0], box[3]-box[1])
}

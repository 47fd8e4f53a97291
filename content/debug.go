package content

import (
	"stdpipe/utils/debug"
)

// String returns human readable dump of content list for debug report.
func (l List) String() string {
	tw := debug.NewTreeWriter()
	tw.Line(0, "Content list: %d blocks", len(l))
	for i, b := range l {
		tw.Line(1, "[%d] page=%d type=%s", i, b.PageIdx, b.Type)
		if b.HasBox {
			tw.Box(2, "bbox", b.BBox)
		}
		tw.Text(2, "text", b.Text)
		tw.Text(2, "img", b.ImgPath)
		for _, c := range b.ImageCaption {
			tw.Text(2, "image caption", c)
		}
		for _, c := range b.TableCaption {
			tw.Text(2, "table caption", c)
		}
	}
	return tw.String()
}

// String returns human readable dump of layout model for debug report.
func (l Layout) String() string {
	tw := debug.NewTreeWriter()
	tw.Line(0, "Layout: %d pages", len(l))
	for i, p := range l {
		tw.Line(1, "page %d: %d blocks", i, len(p))
		for _, b := range p {
			tw.Text(2, "content", b.Content)
		}
	}
	return tw.String()
}

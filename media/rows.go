package media

import (
	"path/filepath"
)

// Row is single line of pictures spreadsheet.
type Row struct {
	OrderIndex int
	StdNo      string
	ImageTitle string
	ClauseSort string
	ClauseID   string
	ClauseText string
	// Image is absolute path of (renamed) picture file.
	Image string
}

// Rows builds spreadsheet rows for blocks. Renamed paths are taken from
// mapping when present. Captions with long Latin words are skipped and
// numbering follows surviving rows.
func Rows(blocks []Block, mapping map[string]string, stdNo, root string) []Row {
	var rows []Row
	for _, b := range blocks {
		title := NormalizeSpaces(b.Caption)
		if title != "" && IsForeign(title) {
			continue
		}
		sort, id, text := ParseCaption(title)

		rel := b.Path
		if renamed, ok := mapping[b.Path]; ok {
			rel = renamed
		}
		rows = append(rows, Row{
			OrderIndex: len(rows) + 1,
			StdNo:      stdNo,
			ImageTitle: title,
			ClauseSort: sort,
			ClauseID:   id,
			ClauseText: text,
			Image:      filepath.Join(root, filepath.FromSlash(rel)),
		})
	}
	return rows
}

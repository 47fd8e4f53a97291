// Package media associates image and table blocks of content lists with
// their captions, renames extracted pictures after captions and prepares
// spreadsheet rows.
package media

import (
	"path"
	"strings"

	"stdpipe/common"
	"stdpipe/content"
)

// Block is picture referenced by content list.
type Block struct {
	Kind common.MediaKind
	// Path is relative to result directory and always uses forward slashes.
	Path    string
	Caption string
	PageIdx int
	// Source is content list file block came from, may be empty.
	Source string
}

// Hash returns picture file name stem, service names pictures by content hash.
func (b Block) Hash() string {
	base := path.Base(b.Path)
	return strings.TrimSuffix(base, path.Ext(base))
}

// Harvest collects image and table blocks with non empty path in list order.
func Harvest(list content.List, source string) []Block {
	var res []Block
	for _, b := range list {
		var (
			kind     common.MediaKind
			captions content.Captions
		)
		switch b.Type {
		case content.TypeImage:
			kind, captions = common.MediaKindImage, b.ImageCaption
		case content.TypeTable:
			kind, captions = common.MediaKindTable, b.TableCaption
		default:
			continue
		}
		if strings.TrimSpace(b.ImgPath) == "" {
			continue
		}
		res = append(res, Block{
			Kind:    kind,
			Path:    strings.ReplaceAll(b.ImgPath, `\`, "/"),
			Caption: captions.First(),
			PageIdx: b.PageIdx,
			Source:  source,
		})
	}
	return res
}

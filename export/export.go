// Package export writes outline and picture tables into xlsx workbooks.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"stdpipe/config"
	"stdpipe/media"
	"stdpipe/toc"
	"stdpipe/utils/images"
)

// ErrNoRows is returned when there is nothing to export.
var ErrNoRows = errors.New("no rows to export")

// Sheet names and column headers.
const (
	TOCSheet    = "toc"
	ImagesSheet = "images"
)

var (
	TOCColumns    = []string{"order_index", "std_no", "std_title", "clause_id", "clause_text", "level", "parent_id"}
	ImagesColumns = []string{"order_index", "std_no", "image_title", "clause_sort", "clause_id", "clause_text", "image"}

	imagesColWidths = []float64{12, 40, 40, 10, 14, 50, 30}
)

// WriteTOC writes outline rows into new workbook at path.
func WriteTOC(path string, rows []toc.Row) error {
	if len(rows) == 0 {
		return ErrNoRows
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := prepareSheet(f, TOCSheet, TOCColumns); err != nil {
		return err
	}
	for i, r := range rows {
		values := []any{r.OrderIndex, r.StdNo, r.StdTitle, r.ClauseID, r.ClauseText, r.Level, r.ParentID}
		if err := setRow(f, TOCSheet, i+2, values); err != nil {
			return err
		}
	}
	return save(f, path)
}

// Stats summarizes pictures processing during export.
type Stats struct {
	Embedded int
	Missing  int
	Errors   int
}

// ImageWriter writes picture rows embedding thumbnails.
type ImageWriter struct {
	embed  bool
	width  int
	height int
	log    *zap.Logger
}

func NewImageWriter(cfg *config.ExportConfig, log *zap.Logger) *ImageWriter {
	return &ImageWriter{
		embed:  cfg.EmbedImages,
		width:  cfg.ThumbnailWidth,
		height: cfg.ThumbnailHeight,
		log:    log.Named("export"),
	}
}

// WriteImages writes rows into new workbook at path. Picture cell holds path
// of picture and thumbnail anchored to it, "[MISSING] path" when file does not
// exist and "[IMG_ERROR] path | reason" when it cannot be used.
func (w *ImageWriter) WriteImages(path string, rows []media.Row) (Stats, error) {
	var stats Stats
	if len(rows) == 0 {
		return stats, ErrNoRows
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := prepareSheet(f, ImagesSheet, ImagesColumns); err != nil {
		return stats, err
	}
	for i, width := range imagesColWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(ImagesSheet, col, col, width); err != nil {
			return stats, fmt.Errorf("unable to set column width: %w", err)
		}
	}

	imageCol := len(ImagesColumns)
	for i, r := range rows {
		row := i + 2
		values := []any{r.OrderIndex, r.StdNo, r.ImageTitle, r.ClauseSort, r.ClauseID, r.ClauseText, ""}
		if err := setRow(f, ImagesSheet, row, values); err != nil {
			return stats, err
		}
		if err := f.SetRowHeight(ImagesSheet, row, max(80, float64(w.height)*0.75)); err != nil {
			return stats, fmt.Errorf("unable to set row height: %w", err)
		}

		cell, _ := excelize.CoordinatesToCellName(imageCol, row)
		value := w.picture(f, cell, r.Image, &stats)
		if err := f.SetCellValue(ImagesSheet, cell, value); err != nil {
			return stats, fmt.Errorf("unable to set cell %s: %w", cell, err)
		}
	}

	if err := save(f, path); err != nil {
		return stats, err
	}
	w.log.Debug("Pictures exported", zap.String("file", path), zap.Int("rows", len(rows)),
		zap.Int("embedded", stats.Embedded), zap.Int("missing", stats.Missing), zap.Int("errors", stats.Errors))
	return stats, nil
}

// picture embeds thumbnail and returns text for picture cell.
func (w *ImageWriter) picture(f *excelize.File, cell, path string, stats *Stats) string {
	if path == "" {
		stats.Missing++
		return ""
	}
	if fi, err := os.Stat(path); err != nil || !fi.Mode().IsRegular() {
		stats.Missing++
		return "[MISSING] " + path
	}
	if !w.embed {
		return path
	}

	th, err := images.MakeThumbnail(path, w.width, w.height)
	if err == nil {
		err = f.AddPictureFromBytes(ImagesSheet, cell, &excelize.Picture{
			Extension: th.Ext,
			File:      th.Data,
			Format: &excelize.GraphicOptions{
				AltText:         filepath.Base(path),
				LockAspectRatio: true,
				Positioning:     "oneCell",
			},
		})
	}
	if err != nil {
		stats.Errors++
		return fmt.Sprintf("[IMG_ERROR] %s | %v", path, err)
	}
	stats.Embedded++
	return path
}

func prepareSheet(f *excelize.File, sheet string, columns []string) error {
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("unable to name sheet: %w", err)
	}
	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	return setRow(f, sheet, 1, header)
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("unable to write row %d: %w", row, err)
	}
	return nil
}

func save(f *excelize.File, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("unable to create directory for %s: %w", path, err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("unable to save %s: %w", path, err)
	}
	return nil
}

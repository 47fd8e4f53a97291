package export

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap/zaptest"

	"stdpipe/config"
	"stdpipe/media"
	"stdpipe/toc"
)

func readRows(t *testing.T, path, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("unable to open %s: %v", path, err)
	}
	defer f.Close()
	rows, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("unable to read sheet %s: %v", sheet, err)
	}
	return rows
}

func TestWriteTOC(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "toc_results.xlsx")
	rows := []toc.Row{
		{OrderIndex: 1, StdNo: "GB_T_1.1_2020", StdTitle: "导则", ClauseID: "1", ClauseText: "范围", Level: 1, ParentID: "/"},
		{OrderIndex: 2, StdNo: "GB_T_1.1_2020", StdTitle: "导则", ClauseID: "1.1", ClauseText: "引用", Level: 2, ParentID: "1"},
	}
	if err := WriteTOC(path, rows); err != nil {
		t.Fatalf("WriteTOC() error = %v", err)
	}

	got := readRows(t, path, TOCSheet)
	if len(got) != 3 {
		t.Fatalf("rows = %d, want 3", len(got))
	}
	if strings.Join(got[0], ",") != strings.Join(TOCColumns, ",") {
		t.Errorf("header = %v", got[0])
	}
	if want := "2,GB_T_1.1_2020,导则,1.1,引用,2,1"; strings.Join(got[2], ",") != want {
		t.Errorf("row = %v, want %s", got[2], want)
	}
}

func TestWriteTOC_NoRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toc.xlsx")
	if err := WriteTOC(path, nil); !errors.Is(err, ErrNoRows) {
		t.Errorf("WriteTOC() error = %v, want ErrNoRows", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("workbook created without rows")
	}
}

func testWriter(t *testing.T, embed bool) *ImageWriter {
	return NewImageWriter(&config.ExportConfig{EmbedImages: embed, ThumbnailWidth: 320, ThumbnailHeight: 200}, zaptest.NewLogger(t))
}

func TestWriteImages(t *testing.T) {
	dir := t.TempDir()

	pic := filepath.Join(dir, "images", "图1.png")
	if err := os.MkdirAll(filepath.Dir(pic), 0755); err != nil {
		t.Fatal(err)
	}
	img := image.NewNRGBA(image.Rect(0, 0, 400, 300))
	img.Set(10, 10, color.NRGBA{R: 255, A: 255})
	f, err := os.Create(pic)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	f.Close()

	broken := filepath.Join(dir, "images", "broken.jpg")
	if err := os.WriteFile(broken, []byte("definitely not a picture"), 0644); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(dir, "images", "missing.jpg")

	rows := []media.Row{
		{OrderIndex: 1, StdNo: "GB_T_1_2020", ImageTitle: "图1 流程", ClauseSort: "图", ClauseID: "1", ClauseText: "流程", Image: pic},
		{OrderIndex: 2, StdNo: "GB_T_1_2020", Image: missing},
		{OrderIndex: 3, StdNo: "GB_T_1_2020", Image: broken},
	}
	out := filepath.Join(dir, "image.xlsx")
	stats, err := testWriter(t, true).WriteImages(out, rows)
	if err != nil {
		t.Fatalf("WriteImages() error = %v", err)
	}
	if stats != (Stats{Embedded: 1, Missing: 1, Errors: 1}) {
		t.Errorf("stats = %+v", stats)
	}

	got := readRows(t, out, ImagesSheet)
	if len(got) != 4 {
		t.Fatalf("rows = %d, want 4", len(got))
	}
	if strings.Join(got[0], ",") != strings.Join(ImagesColumns, ",") {
		t.Errorf("header = %v", got[0])
	}
	if got[1][6] != pic || got[1][3] != "图" {
		t.Errorf("row 1 = %v", got[1])
	}
	if got[2][6] != "[MISSING] "+missing {
		t.Errorf("row 2 picture cell = %q", got[2][6])
	}
	if !strings.HasPrefix(got[3][6], "[IMG_ERROR] "+broken+" | ") {
		t.Errorf("row 3 picture cell = %q", got[3][6])
	}

	xf, err := excelize.OpenFile(out)
	if err != nil {
		t.Fatal(err)
	}
	defer xf.Close()
	pics, err := xf.GetPictures(ImagesSheet, "G2")
	if err != nil {
		t.Fatalf("GetPictures() error = %v", err)
	}
	if len(pics) != 1 {
		t.Errorf("embedded pictures in G2 = %d, want 1", len(pics))
	}
}

func TestWriteImages_NoEmbed(t *testing.T) {
	dir := t.TempDir()
	pic := filepath.Join(dir, "a.jpg")
	if err := os.WriteFile(pic, []byte("whatever"), 0644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "image.xlsx")
	stats, err := testWriter(t, false).WriteImages(out, []media.Row{{OrderIndex: 1, Image: pic}})
	if err != nil {
		t.Fatalf("WriteImages() error = %v", err)
	}
	if stats != (Stats{}) {
		t.Errorf("stats = %+v", stats)
	}
	if got := readRows(t, out, ImagesSheet); got[1][6] != pic {
		t.Errorf("picture cell = %q", got[1][6])
	}
}

func TestWriteImages_NoRows(t *testing.T) {
	if _, err := testWriter(t, true).WriteImages(filepath.Join(t.TempDir(), "x.xlsx"), nil); !errors.Is(err, ErrNoRows) {
		t.Errorf("WriteImages() error = %v, want ErrNoRows", err)
	}
}

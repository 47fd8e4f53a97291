package content

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBlock_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Block
	}{
		{
			name: "full text block",
			in:   `{"type":"text","text":"标题","page_idx":0,"bbox":[10,320,500,360]}`,
			want: Block{PageIdx: 0, Type: "text", Text: "标题", BBox: BBox{10, 320, 500, 360}, HasBox: true},
		},
		{
			name: "missing page",
			in:   `{"type":"text","text":"x"}`,
			want: Block{PageIdx: -1, Type: "text", Text: "x"},
		},
		{
			name: "short bbox",
			in:   `{"type":"text","page_idx":1,"bbox":[1,2,3]}`,
			want: Block{PageIdx: 1, Type: "text"},
		},
		{
			name: "numeric text",
			in:   `{"type":"text","text":42,"page_idx":0}`,
			want: Block{PageIdx: 0, Type: "text", Text: "42"},
		},
		{
			name: "null text",
			in:   `{"type":"text","text":null,"page_idx":0}`,
			want: Block{PageIdx: 0, Type: "text"},
		},
		{
			name: "image with string caption",
			in:   `{"type":"image","img_path":"images/a.jpg","image_caption":"图1 流程","page_idx":3}`,
			want: Block{PageIdx: 3, Type: "image", ImgPath: "images/a.jpg", ImageCaption: Captions{"图1 流程"}},
		},
		{
			name: "table with list caption",
			in:   `{"type":"table","img_path":"images/t.jpg","table_caption":["表2 参数", "续"],"page_idx":4}`,
			want: Block{PageIdx: 4, Type: "table", ImgPath: "images/t.jpg", TableCaption: Captions{"表2 参数", "续"}},
		},
		{
			name: "non string image path",
			in:   `{"type":"image","img_path":7,"page_idx":3}`,
			want: Block{PageIdx: 3, Type: "image"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Block
			if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if got.PageIdx != tt.want.PageIdx || got.Type != tt.want.Type || got.Text != tt.want.Text ||
				got.BBox != tt.want.BBox || got.HasBox != tt.want.HasBox || got.ImgPath != tt.want.ImgPath {
				t.Errorf("Unmarshal() = %+v, want %+v", got, tt.want)
			}
			if strings.Join(got.ImageCaption, "|") != strings.Join(tt.want.ImageCaption, "|") {
				t.Errorf("ImageCaption = %q, want %q", got.ImageCaption, tt.want.ImageCaption)
			}
			if strings.Join(got.TableCaption, "|") != strings.Join(tt.want.TableCaption, "|") {
				t.Errorf("TableCaption = %q, want %q", got.TableCaption, tt.want.TableCaption)
			}
		})
	}
}

func TestCaptions_First(t *testing.T) {
	if got := (Captions{"  图1 a  ", "b"}).First(); got != "图1 a" {
		t.Errorf("First() = %q", got)
	}
	if got := Captions(nil).First(); got != "" {
		t.Errorf("First() on empty = %q", got)
	}
}

func TestList_UnmarshalJSON_SkipsGarbage(t *testing.T) {
	in := `[{"type":"text","text":"a","page_idx":0}, 5, "str", null, {"type":"image","img_path":"x.jpg","page_idx":1}]`
	var l List
	if err := json.Unmarshal([]byte(in), &l); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(l) != 2 {
		t.Fatalf("len = %d, want 2", len(l))
	}
	if l[0].Text != "a" || l[1].ImgPath != "x.jpg" {
		t.Errorf("unexpected blocks: %+v", l)
	}

	if err := json.Unmarshal([]byte(`{"a":1}`), &l); err == nil {
		t.Error("expected error for non array content list")
	}
}

func TestLayout_UnmarshalJSON(t *testing.T) {
	in := `[
		[{"content":"目次"}, {"content":"1 范围 1"}, {"content":null}, 3, {"content":12}],
		{"not":"a page"},
		[]
	]`
	var l Layout
	if err := json.Unmarshal([]byte(in), &l); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(l) != 2 {
		t.Fatalf("pages = %d, want 2", len(l))
	}
	got := make([]string, 0, len(l[0]))
	for _, b := range l[0] {
		got = append(got, b.Content)
	}
	if want := "目次|1 范围 1||12"; strings.Join(got, "|") != want {
		t.Errorf("page contents = %q, want %q", strings.Join(got, "|"), want)
	}
	if len(l[1]) != 0 {
		t.Errorf("second page has %d blocks, want 0", len(l[1]))
	}
}

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "doc_content_list.json"), "[]")
	writeFile(t, filepath.Join(root, "b", "sub", "X_CONTENT_LIST.JSON"), "[]")
	writeFile(t, filepath.Join(root, "a", "layout_model.json"), "[]")
	writeFile(t, filepath.Join(root, "a", "model.txt"), "")
	writeFile(t, filepath.Join(root, "a", "middle.json"), "{}")

	lists, err := FindContentLists(root)
	if err != nil {
		t.Fatalf("FindContentLists() error = %v", err)
	}
	if len(lists) != 2 {
		t.Fatalf("FindContentLists() = %v, want 2 files", lists)
	}
	if filepath.Base(lists[0]) != "doc_content_list.json" {
		t.Errorf("unexpected order: %v", lists)
	}

	models, err := FindModels(root)
	if err != nil {
		t.Fatalf("FindModels() error = %v", err)
	}
	if len(models) != 1 || filepath.Base(models[0]) != "layout_model.json" {
		t.Errorf("FindModels() = %v", models)
	}

	if _, err := FindContentLists(filepath.Join(root, "missing")); err == nil {
		t.Error("expected error for missing root")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	listPath := filepath.Join(dir, "content_list.json")
	writeFile(t, listPath, `[{"type":"text","text":"GB/T 1.1-2020","page_idx":0,"bbox":[1,2,3,4]}]`)
	l, err := LoadList(listPath)
	if err != nil {
		t.Fatalf("LoadList() error = %v", err)
	}
	if len(l) != 1 || !l[0].HasBox {
		t.Errorf("LoadList() = %+v", l)
	}
	if !strings.Contains(l.String(), `"GB/T 1.1-2020"`) {
		t.Errorf("String() = %q", l.String())
	}

	bad := filepath.Join(dir, "bad.json")
	writeFile(t, bad, "{")
	if _, err := LoadList(bad); err == nil {
		t.Error("expected decode error")
	}
	if _, err := LoadLayout(filepath.Join(dir, "nope.json")); err == nil {
		t.Error("expected read error")
	}
}

package naming

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"stdpipe/config"
)

var (
	ErrIncomplete   = errors.New("standard number or title is empty")
	ErrTargetExists = errors.New("target file already exists")
	ErrNoPDF        = errors.New("no pdf file found")
)

// Namer builds standardized document file names.
type Namer struct {
	Template      string
	Transliterate bool
}

// NewNamer creates namer from configuration.
func NewNamer(cfg *config.NamingConfig) *Namer {
	return &Namer{Template: cfg.OutputNameTemplate, Transliterate: cfg.Transliterate}
}

// Outcome describes result of a single rename.
type Outcome struct {
	From    string
	To      string
	Changed bool
}

func (o Outcome) String() string {
	if !o.Changed {
		return fmt.Sprintf("name already matches: %s", filepath.Base(o.From))
	}
	return fmt.Sprintf("renamed: %s -> %s", filepath.Base(o.From), filepath.Base(o.To))
}

// Name returns standardized file name "<std_no>_<title>.pdf" or expanded
// output name template. Source is the original file name and is only
// available to the template.
func (n *Namer) Name(stdNo, title, source string) (string, error) {
	if len(stdNo) == 0 || len(title) == 0 {
		return "", ErrIncomplete
	}

	base := Sanitize(Sanitize(stdNo) + "_" + Sanitize(title))
	if len(n.Template) > 0 {
		expanded, err := expandTemplate(string(config.OutputNameTemplateFieldName), n.Template, Values{
			StdNo:  stdNo,
			Title:  title,
			Source: strings.TrimSuffix(filepath.Base(source), filepath.Ext(source)),
		})
		if err != nil {
			return "", err
		}
		base = Sanitize(expanded)
	}
	if n.Transliterate {
		base = Transliterate(base)
	}
	if len(base) == 0 {
		return "", fmt.Errorf("empty file name for (%s, %s)", stdNo, title)
	}
	return base + ".pdf", nil
}

// RenameFile renames pdf in place. When target with the same name already
// exists and it is not the source file itself nothing is renamed and
// ErrTargetExists is returned.
func (n *Namer) RenameFile(pdfPath, stdNo, title string, dryRun bool) (Outcome, error) {
	name, err := n.Name(stdNo, title, pdfPath)
	if err != nil {
		return Outcome{From: pdfPath}, err
	}

	out := Outcome{From: pdfPath, To: filepath.Join(filepath.Dir(pdfPath), name)}
	if samePath(out.From, out.To) {
		out.To = out.From
		return out, nil
	}
	if _, err := os.Stat(out.To); err == nil {
		return out, fmt.Errorf("%w: %s", ErrTargetExists, out.To)
	} else if !os.IsNotExist(err) {
		return out, err
	}

	out.Changed = true
	if dryRun {
		return out, nil
	}
	if err := os.Rename(out.From, out.To); err != nil {
		return out, fmt.Errorf("unable to rename %s -> %s: %w", out.From, out.To, err)
	}
	return out, nil
}

// RenameInDir renames pdf located in directory. When directory has several
// pdf files the one with the longest name is selected.
func (n *Namer) RenameInDir(dir, stdNo, title string, dryRun bool) (Outcome, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Outcome{}, fmt.Errorf("unable to read directory: %w", err)
	}

	var selected string
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		// first one wins on equal length
		if len([]rune(e.Name())) > len([]rune(selected)) {
			selected = e.Name()
		}
	}
	if len(selected) == 0 {
		return Outcome{}, fmt.Errorf("%w: %s", ErrNoPDF, dir)
	}
	return n.RenameFile(filepath.Join(dir, selected), stdNo, title, dryRun)
}

func samePath(a, b string) bool {
	aa, err := filepath.Abs(a)
	if err != nil {
		return a == b
	}
	bb, err := filepath.Abs(b)
	if err != nil {
		return a == b
	}
	return aa == bb
}

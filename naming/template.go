package naming

import (
	"bytes"
	"fmt"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"
)

// Values is a struct that holds variables we make available for output name
// template expansion.
type Values struct {
	StdNo  string
	Title  string
	Source string
}

func expandTemplate(name, field string, values Values) (string, error) {
	tmpl, err := template.New(name).Funcs(sprig.FuncMap()).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", fmt.Errorf("unable to expand template field %s: %w", name, err)
	}
	return buf.String(), nil
}

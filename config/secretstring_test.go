package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	yaml "gopkg.in/yaml.v3"
)

func TestSecretString_Marshal(t *testing.T) {
	tests := []struct {
		name     string
		input    SecretString
		wantJSON string
		wantYAML any
	}{
		{name: "empty", input: "", wantJSON: "null", wantYAML: nil},
		{name: "token", input: "eyJ0eXBlIjoiSldUIn0.payload.signature", wantJSON: `"` + SecretStringValue + `"`, wantYAML: SecretStringValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.input.MarshalJSON()
			if err != nil {
				t.Fatalf("MarshalJSON() error = %v", err)
			}
			if string(got) != tt.wantJSON {
				t.Errorf("MarshalJSON() = %s, want %s", got, tt.wantJSON)
			}

			y, err := tt.input.MarshalYAML()
			if err != nil {
				t.Fatalf("MarshalYAML() error = %v", err)
			}
			if y != tt.wantYAML {
				t.Errorf("MarshalYAML() = %v, want %v", y, tt.wantYAML)
			}
		})
	}
}

func TestSecretString_NoLeakage(t *testing.T) {
	svc := ServiceConfig{BaseURL: "https://example.com", Token: "very-secret"}

	j, err := json.Marshal(svc)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	y, err := yaml.Marshal(svc)
	if err != nil {
		t.Fatalf("yaml.Marshal() error = %v", err)
	}
	for _, out := range []string{string(j), string(y)} {
		if strings.Contains(out, "very-secret") {
			t.Errorf("token leaked: %s", out)
		}
	}
}

func TestSecretString_StringAndValue(t *testing.T) {
	s := SecretString("very-secret")
	if got := fmt.Sprintf("%v %s", s, s); strings.Contains(got, "very-secret") {
		t.Errorf("formatted secret leaked: %s", got)
	}
	if s.Value() != "very-secret" {
		t.Errorf("Value() = %q", s.Value())
	}
	if SecretString("").String() != "" {
		t.Error("empty secret should format as empty string")
	}
}

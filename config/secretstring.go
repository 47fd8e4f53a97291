package config

// SecretStringValue replaces secret values in every textual representation.
const SecretStringValue = "<secret>"

// SecretString holds credentials (service token). Its value never shows up in
// logs, configuration dumps or debug reports, use Value to get it.
type SecretString string

// Value returns actual secret.
func (s SecretString) Value() string {
	return string(s)
}

// String makes secret safe for fmt and zap.Stringer.
func (s SecretString) String() string {
	if len(s) == 0 {
		return ""
	}
	return SecretStringValue
}

func (s SecretString) MarshalJSON() ([]byte, error) {
	if len(s) == 0 {
		return []byte("null"), nil
	}
	return []byte("\"" + SecretStringValue + "\""), nil
}

func (s SecretString) MarshalYAML() (any, error) {
	if len(s) == 0 {
		return nil, nil
	}
	return SecretStringValue, nil
}

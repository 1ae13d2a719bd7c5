package pages

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var projectionField = regexp.MustCompile(`^[A-Za-z0-9_-]+(\.[A-Za-z0-9_-]+)*$`)

// ParseFields splits a comma separated projection list, dropping blanks.
func ParseFields(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	fields := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			fields = append(fields, trimmed)
		}
	}
	return fields
}

// project keeps only the listed keys of doc. Dotted fields select nested keys;
// fields that do not exist in doc are skipped.
func project(doc map[string]any, fields []string) (map[string]any, error) {
	if len(fields) == 0 {
		return doc, nil
	}

	for _, field := range fields {
		if !projectionField.MatchString(field) {
			return nil, invalidf("invalid projection field %q", field)
		}
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, eris.Wrap(err, "encoding page for projection")
	}

	projected := []byte("{}")
	for _, field := range fields {
		result := gjson.GetBytes(raw, field)
		if !result.Exists() {
			continue
		}
		projected, err = sjson.SetRawBytes(projected, field, []byte(result.Raw))
		if err != nil {
			return nil, eris.Wrapf(err, "projecting field %s", field)
		}
	}

	var out map[string]any
	if err := json.Unmarshal(projected, &out); err != nil {
		return nil, eris.Wrap(err, "decoding projected page")
	}
	return out, nil
}

package mongostore

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	domainpages "github.com/Malamih/Rara-studio-api/internal/domain/pages"
)

// fieldPath builds the dotted update path below sections. MongoDB cannot
// address keys containing dots or starting with '$', so those are rejected.
func fieldPath(path []string) (string, error) {
	if len(path) == 0 {
		return "", eris.New("update path is required")
	}

	for _, segment := range path {
		switch {
		case segment == "":
			return "", eris.Wrap(domainpages.ErrValidation, "path segments must not be empty")
		case strings.Contains(segment, "."):
			return "", eris.Wrapf(domainpages.ErrValidation, "path segment %q must not contain '.'", segment)
		case strings.HasPrefix(segment, "$"):
			return "", eris.Wrapf(domainpages.ErrValidation, "path segment %q must not start with '$'", segment)
		}
	}

	return "sections." + strings.Join(path, "."), nil
}

// toBSON converts a JSON-encodable sections tree into an ordered document.
// Key order produced by the value's JSON encoding is preserved.
func toBSON(sections any) (bson.D, error) {
	if sections == nil {
		return bson.D{}, nil
	}

	raw, err := json.Marshal(sections)
	if err != nil {
		return nil, eris.Wrap(err, "encoding page sections")
	}

	var doc bson.D
	if err := bson.UnmarshalExtJSON(raw, false, &doc); err != nil {
		return nil, eris.Wrap(err, "converting page sections to bson")
	}
	if doc == nil {
		doc = bson.D{}
	}
	return doc, nil
}

// toBSONValue converts an arbitrary JSON value into its BSON form.
func toBSONValue(value any) (any, error) {
	raw, err := json.Marshal(map[string]any{"v": value})
	if err != nil {
		return nil, eris.Wrapf(domainpages.ErrValidation, "value is not JSON encodable: %v", err)
	}

	var doc bson.D
	if err := bson.UnmarshalExtJSON(raw, false, &doc); err != nil {
		return nil, eris.Wrap(err, "converting value to bson")
	}
	if len(doc) != 1 {
		return nil, eris.New("unexpected bson conversion result")
	}
	return doc[0].Value, nil
}

// embeddedAt returns the embedded document at sections.<path> of a page
// document, if there is one.
func embeddedAt(raw bson.Raw, path []string) (bson.D, bool, error) {
	keys := append([]string{"sections"}, path...)
	value, err := raw.LookupErr(keys...)
	if err != nil || value.Type != bson.TypeEmbeddedDocument {
		return nil, false, nil
	}

	var doc bson.D
	if err := bson.Unmarshal(value.Value, &doc); err != nil {
		return nil, false, eris.Wrap(err, "decoding stored document")
	}
	return doc, true, nil
}

// alignKeys reorders next so that keys also present in current come first, in
// current's order, followed by new keys in their original order. Nested
// documents and documents inside arrays of equal length are aligned too.
func alignKeys(next, current bson.D) bson.D {
	index := make(map[string]int, len(next))
	for i, elem := range next {
		index[elem.Key] = i
	}

	out := make(bson.D, 0, len(next))
	placed := make(map[string]bool, len(next))
	for _, stored := range current {
		i, ok := index[stored.Key]
		if !ok || placed[stored.Key] {
			continue
		}
		elem := next[i]
		elem.Value = alignValue(elem.Value, stored.Value)
		out = append(out, elem)
		placed[stored.Key] = true
	}
	for _, elem := range next {
		if !placed[elem.Key] {
			out = append(out, elem)
		}
	}
	return out
}

func alignValue(next, current any) any {
	switch n := next.(type) {
	case bson.D:
		if c, ok := current.(bson.D); ok {
			return alignKeys(n, c)
		}
	case bson.A:
		c, ok := current.(bson.A)
		if !ok || len(c) != len(n) {
			return n
		}
		out := make(bson.A, len(n))
		for i := range n {
			out[i] = alignValue(n[i], c[i])
		}
		return out
	}
	return next
}

// decodeSections renders stored sections as plain JSON values.
func decodeSections(raw bson.Raw) (map[string]any, error) {
	sections := map[string]any{}
	if len(raw) == 0 {
		return sections, nil
	}

	encoded, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return nil, eris.Wrap(err, "rendering sections as json")
	}
	if err := json.Unmarshal(encoded, &sections); err != nil {
		return nil, eris.Wrap(err, "decoding sections json")
	}
	return sections, nil
}

// classify marks connectivity failures as storage unavailability.
func classify(err error, format string, args ...any) error {
	if mongo.IsNetworkError(err) ||
		mongo.IsTimeout(err) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, mongo.ErrClientDisconnected) {
		return domainpages.Unavailable(err, format, args...)
	}
	return eris.Wrapf(err, format, args...)
}

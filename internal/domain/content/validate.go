package content

import (
	"fmt"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// CheckValue verifies that value has the shape expected for fieldType and
// respects the declared cardinality bound.
func CheckValue(fieldType FieldType, bound *MaxValue, value any) error {
	switch fieldType {
	case FieldInput, FieldRichText, FieldImage:
		if _, ok := value.(string); !ok {
			return validation.NewError("content.value.string", fmt.Sprintf("%s fields take a string value", fieldType))
		}
	case FieldNumber:
		switch v := value.(type) {
		case float64, int, int64:
		case string:
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				if _, err := strconv.ParseFloat(trimmed, 64); err != nil {
					return validation.NewError("content.value.number", "number fields take a numeric value")
				}
			}
		default:
			return validation.NewError("content.value.number", "number fields take a numeric value")
		}
	case FieldImages:
		list, ok := asList(value)
		if !ok {
			return validation.NewError("content.value.list", "images fields take a list of image references")
		}
		for i, entry := range list {
			if _, ok := entry.(string); !ok {
				return validation.NewError("content.value.image", fmt.Sprintf("image %d must be a string reference", i))
			}
		}
		if !bound.Allows(len(list)) {
			return validation.NewError("content.value.max", fmt.Sprintf("at most %d images are allowed", bound.Limit))
		}
	case FieldItems:
		list, ok := asList(value)
		if !ok {
			return validation.NewError("content.value.list", "items fields take a list of items")
		}
		for i, entry := range list {
			if _, ok := entry.(map[string]any); !ok {
				return validation.NewError("content.value.item", fmt.Sprintf("item %d must be an object", i))
			}
		}
		if !bound.Allows(len(list)) {
			return validation.NewError("content.value.max", fmt.Sprintf("at most %d items are allowed", bound.Limit))
		}
	default:
		return validation.NewError("content.type.unknown", fmt.Sprintf("unknown field type %q", fieldType))
	}
	return nil
}

// validateField checks a field spec: a known type, a well-shaped default value and
// a cardinality bound only where lists are expected.
func (n *Node) validateField() error {
	if !n.Type.Valid() {
		return validation.NewError("content.type.unknown", fmt.Sprintf("unknown field type %q", n.Type))
	}
	if n.MaxValue != nil {
		if !n.Type.IsList() {
			return validation.NewError("content.max.scalar", fmt.Sprintf("maxValue is only allowed on images and items fields, not %s", n.Type))
		}
		if !n.MaxValue.Unlimited && n.MaxValue.Limit <= 0 {
			return validation.NewError("content.max.positive", "maxValue must be a positive integer or \"unlimited\"")
		}
	}
	if n.Value == nil {
		return validation.NewError("content.value.required", "field spec requires a default value")
	}
	return CheckValue(n.Type, n.MaxValue, n.Value)
}

// ValidateTree walks a section and collects every malformed field spec keyed by dotted path.
func ValidateTree(root *Node) error {
	errs := validation.Errors{}
	collectErrors(root, "", errs)
	return errs.Filter()
}

func collectErrors(n *Node, path string, errs validation.Errors) {
	if n == nil {
		errs[orRoot(path)] = validation.NewError("content.node.nil", "node is missing")
		return
	}

	switch n.Kind {
	case KindSection:
		for _, key := range n.keys {
			if strings.TrimSpace(key) == "" {
				errs[orRoot(path)] = validation.NewError("content.key.empty", "section keys must not be blank")
				continue
			}
			collectErrors(n.children[key], joinPath(path, key), errs)
		}
	case KindField:
		if err := n.validateField(); err != nil {
			errs[orRoot(path)] = err
		}
	case KindAttribute:
	default:
		errs[orRoot(path)] = validation.NewError("content.kind.unknown", fmt.Sprintf("unknown node kind %d", n.Kind))
	}
}

func asList(value any) ([]any, bool) {
	switch v := value.(type) {
	case []any:
		return v, true
	case []string:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = item
		}
		return out, true
	default:
		return nil, false
	}
}

func joinPath(base, key string) string {
	if base == "" {
		return key
	}
	return base + "." + key
}

func orRoot(path string) string {
	if path == "" {
		return "."
	}
	return path
}

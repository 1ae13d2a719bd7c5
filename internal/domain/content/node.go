package content

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/rotisserie/eris"
)

// Kind discriminates the variants of a content tree node.
type Kind int

const (
	// KindSection is an ordered mapping of named child nodes.
	KindSection Kind = iota + 1
	// KindField is an editable field spec carrying a type and a value.
	KindField
	// KindAttribute is plain data attached to a section, such as expectedFields.
	KindAttribute
)

func (k Kind) String() string {
	switch k {
	case KindSection:
		return "section"
	case KindField:
		return "field"
	case KindAttribute:
		return "attribute"
	default:
		return "unknown"
	}
}

// FieldType is the editor type of a field spec.
type FieldType string

const (
	FieldInput    FieldType = "input"
	FieldRichText FieldType = "richtext"
	FieldImage    FieldType = "image"
	FieldImages   FieldType = "images"
	FieldItems    FieldType = "items"
	FieldNumber   FieldType = "number"
)

// FieldTypes lists every supported editor type.
var FieldTypes = []FieldType{FieldInput, FieldRichText, FieldImage, FieldImages, FieldItems, FieldNumber}

// Valid reports whether t is one of the supported editor types.
func (t FieldType) Valid() bool {
	for _, candidate := range FieldTypes {
		if t == candidate {
			return true
		}
	}
	return false
}

// IsList reports whether values of this type are sequences.
func (t FieldType) IsList() bool {
	return t == FieldImages || t == FieldItems
}

const unlimitedToken = "unlimited"

// MaxValue bounds the number of entries of a list field. The zero value means no bound was declared.
type MaxValue struct {
	Limit     int
	Unlimited bool
}

// Unbounded returns the "unlimited" sentinel.
func Unbounded() *MaxValue {
	return &MaxValue{Unlimited: true}
}

// Limit returns a numeric bound.
func Limit(n int) *MaxValue {
	return &MaxValue{Limit: n}
}

// Allows reports whether a list with n entries respects the bound.
func (m *MaxValue) Allows(n int) bool {
	if m == nil || m.Unlimited || m.Limit <= 0 {
		return true
	}
	return n <= m.Limit
}

// Plain returns the JSON-like representation: an int or the "unlimited" token.
func (m *MaxValue) Plain() any {
	if m == nil {
		return nil
	}
	if m.Unlimited {
		return unlimitedToken
	}
	return float64(m.Limit)
}

func (m MaxValue) MarshalJSON() ([]byte, error) {
	if m.Unlimited {
		return json.Marshal(unlimitedToken)
	}
	return json.Marshal(m.Limit)
}

func (m *MaxValue) UnmarshalJSON(data []byte) error {
	var token string
	if err := json.Unmarshal(data, &token); err == nil {
		return m.parse(token)
	}

	var limit int
	if err := json.Unmarshal(data, &limit); err != nil {
		return eris.Wrap(err, "maxValue must be an integer or \"unlimited\"")
	}
	m.Limit = limit
	m.Unlimited = false
	return nil
}

// ParseMaxValue reads a bound from its textual form.
func ParseMaxValue(raw string) (*MaxValue, error) {
	var m MaxValue
	if err := m.parse(raw); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *MaxValue) parse(raw string) error {
	if raw == unlimitedToken {
		m.Unlimited = true
		m.Limit = 0
		return nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return eris.Errorf("invalid maxValue %q", raw)
	}
	m.Limit = limit
	m.Unlimited = false
	return nil
}

// Node is one element of a content tree. Exactly one variant is populated according to Kind.
type Node struct {
	Kind Kind

	// KindField
	Type           FieldType
	Value          any
	MaxValue       *MaxValue
	ExpectedFields []string

	// KindAttribute
	Data any

	// KindSection
	keys     []string
	children map[string]*Node
}

// NewSection returns an empty section.
func NewSection() *Node {
	return &Node{Kind: KindSection, children: map[string]*Node{}}
}

// NewField returns a field spec with the given default value.
func NewField(fieldType FieldType, value any) *Node {
	return &Node{Kind: KindField, Type: fieldType, Value: value}
}

// NewAttribute wraps plain section-level data.
func NewAttribute(data any) *Node {
	return &Node{Kind: KindAttribute, Data: data}
}

// WithMax sets the cardinality bound and returns the node.
func (n *Node) WithMax(bound *MaxValue) *Node {
	n.MaxValue = bound
	return n
}

// WithExpectedFields sets the expected item keys and returns the node.
func (n *Node) WithExpectedFields(fields ...string) *Node {
	n.ExpectedFields = fields
	return n
}

// Set appends or replaces a child. Insertion order is preserved for new keys.
func (n *Node) Set(key string, child *Node) *Node {
	if n.children == nil {
		n.children = map[string]*Node{}
	}
	if _, exists := n.children[key]; !exists {
		n.keys = append(n.keys, key)
	}
	n.children[key] = child
	return n
}

// Child returns the named child of a section.
func (n *Node) Child(key string) (*Node, bool) {
	if n == nil || n.children == nil {
		return nil, false
	}
	child, ok := n.children[key]
	return child, ok
}

// Keys returns the section's child names in declaration order.
func (n *Node) Keys() []string {
	if n == nil {
		return nil
	}
	out := make([]string, len(n.keys))
	copy(out, n.keys)
	return out
}

// Len returns the number of children of a section.
func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	return len(n.keys)
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}

	switch n.Kind {
	case KindSection:
		out := NewSection()
		for _, key := range n.keys {
			out.Set(key, n.children[key].Clone())
		}
		return out
	case KindField:
		out := NewField(n.Type, clonePlain(n.Value))
		if n.MaxValue != nil {
			bound := *n.MaxValue
			out.MaxValue = &bound
		}
		if n.ExpectedFields != nil {
			out.ExpectedFields = append([]string(nil), n.ExpectedFields...)
		}
		return out
	default:
		return NewAttribute(clonePlain(n.Data))
	}
}

// Plain converts the tree into the loosely-typed JSON shape used by storage:
// maps, slices, strings, float64, bool and nil.
func (n *Node) Plain() any {
	if n == nil {
		return nil
	}

	switch n.Kind {
	case KindSection:
		out := make(map[string]any, len(n.keys))
		for _, key := range n.keys {
			out[key] = n.children[key].Plain()
		}
		return out
	case KindField:
		out := map[string]any{
			"type":  string(n.Type),
			"value": clonePlain(n.Value),
		}
		if n.MaxValue != nil {
			out["maxValue"] = n.MaxValue.Plain()
		}
		if len(n.ExpectedFields) > 0 {
			fields := make([]any, 0, len(n.ExpectedFields))
			for _, field := range n.ExpectedFields {
				fields = append(fields, field)
			}
			out["expectedFields"] = fields
		}
		return out
	default:
		return clonePlain(n.Data)
	}
}

// PlainMap returns Plain() for a section node.
func (n *Node) PlainMap() map[string]any {
	if m, ok := n.Plain().(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// MarshalJSON writes sections with their keys in declaration order.
func (n *Node) MarshalJSON() ([]byte, error) {
	if n == nil {
		return []byte("null"), nil
	}

	switch n.Kind {
	case KindSection:
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, key := range n.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			encodedKey, err := json.Marshal(key)
			if err != nil {
				return nil, eris.Wrapf(err, "encoding key %q", key)
			}
			buf.Write(encodedKey)
			buf.WriteByte(':')
			encodedChild, err := n.children[key].MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(encodedChild)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	case KindField:
		field := struct {
			Type           FieldType `json:"type"`
			Value          any       `json:"value"`
			MaxValue       *MaxValue `json:"maxValue,omitempty"`
			ExpectedFields []string  `json:"expectedFields,omitempty"`
		}{n.Type, n.Value, n.MaxValue, n.ExpectedFields}
		return json.Marshal(field)
	default:
		return json.Marshal(n.Data)
	}
}

// NormalizePlain rewrites an arbitrary decoded value into the plain JSON shape
// by round-tripping it through encoding/json.
func NormalizePlain(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, eris.Wrap(err, "encoding value")
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, eris.Wrap(err, "decoding value")
	}
	return out, nil
}

func clonePlain(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = clonePlain(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = clonePlain(item)
		}
		return out
	case []string:
		return append([]string(nil), v...)
	default:
		return v
	}
}

// Package registry loads the canonical page content definitions from YAML.
package registry

import (
	_ "embed"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/Malamih/Rara-studio-api/internal/domain/content"
)

//go:embed pages.yaml
var defaultDocument []byte

// Default returns the registry bundled with the binary.
func Default() (*content.Registry, error) {
	registry, err := Parse(defaultDocument)
	if err != nil {
		return nil, eris.Wrap(err, "loading bundled content registry")
	}
	return registry, nil
}

// Load reads the registry from path, or returns the bundled one when path is empty.
func Load(path string) (*content.Registry, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	return LoadFile(path)
}

// LoadFile reads and parses a registry document from disk.
func LoadFile(path string) (*content.Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "reading content registry %s", path)
	}

	registry, err := Parse(data)
	if err != nil {
		return nil, eris.Wrapf(err, "loading content registry %s", path)
	}
	return registry, nil
}

type document struct {
	Pages []pageEntry `yaml:"pages"`
}

type pageEntry struct {
	Name     string    `yaml:"name"`
	Sections yaml.Node `yaml:"sections"`
}

// Parse decodes a registry document. Key order in the document is kept.
func Parse(data []byte) (*content.Registry, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "decoding registry yaml")
	}

	definitions := make([]content.PageDefinition, 0, len(doc.Pages))
	for i, page := range doc.Pages {
		if page.Sections.Kind == 0 {
			return nil, eris.Errorf("page %d (%s) has no sections", i, page.Name)
		}

		sections, err := decodeNode(&page.Sections, page.Name)
		if err != nil {
			return nil, err
		}
		if sections.Kind != content.KindSection {
			return nil, eris.Errorf("sections of page %s must be a mapping", page.Name)
		}

		definitions = append(definitions, content.PageDefinition{Name: page.Name, Sections: sections})
	}

	return content.NewRegistry(definitions...)
}

func decodeNode(node *yaml.Node, path string) (*content.Node, error) {
	if node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}

	if fieldType, ok := customTag(node); ok {
		return decodeField(node, fieldType, path)
	}

	if node.Kind == yaml.MappingNode {
		section := content.NewSection()
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			child, err := decodeNode(node.Content[i+1], path+"."+key)
			if err != nil {
				return nil, err
			}
			section.Set(key, child)
		}
		return section, nil
	}

	data, err := plainValue(node, path)
	if err != nil {
		return nil, err
	}
	return content.NewAttribute(data), nil
}

func decodeField(node *yaml.Node, fieldType content.FieldType, path string) (*content.Node, error) {
	if !fieldType.Valid() {
		return nil, eris.Errorf("%s: unknown field type !%s at line %d", path, fieldType, node.Line)
	}

	if node.Kind != yaml.MappingNode {
		value, err := plainValue(node, path)
		if err != nil {
			return nil, err
		}
		return content.NewField(fieldType, value), nil
	}

	field := content.NewField(fieldType, nil)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, valueNode := node.Content[i].Value, node.Content[i+1]
		switch key {
		case "value":
			value, err := plainValue(valueNode, path+".value")
			if err != nil {
				return nil, err
			}
			field.Value = value
		case "maxValue":
			bound, err := content.ParseMaxValue(strings.TrimSpace(valueNode.Value))
			if err != nil {
				return nil, eris.Wrapf(err, "%s: line %d", path, valueNode.Line)
			}
			field.MaxValue = bound
		case "expectedFields":
			var fields []string
			if err := valueNode.Decode(&fields); err != nil {
				return nil, eris.Wrapf(err, "%s: expectedFields must be a list of strings", path)
			}
			field.ExpectedFields = fields
		default:
			return nil, eris.Errorf("%s: unknown field attribute %q at line %d", path, key, valueNode.Line)
		}
	}

	if field.Value == nil && fieldType.IsList() {
		field.Value = []any{}
	}
	return field, nil
}

// customTag reports a local tag such as !input. Resolved core tags like !!str are ignored.
func customTag(node *yaml.Node) (content.FieldType, bool) {
	tag := node.Tag
	if !strings.HasPrefix(tag, "!") || strings.HasPrefix(tag, "!!") {
		return "", false
	}
	return content.FieldType(strings.TrimPrefix(tag, "!")), true
}

// plainValue decodes node ignoring its tag and normalizes the result to JSON shapes.
func plainValue(node *yaml.Node, path string) (any, error) {
	untagged := *node
	untagged.Tag = ""

	var value any
	if err := untagged.Decode(&value); err != nil {
		return nil, eris.Wrapf(err, "%s: decoding value at line %d", path, node.Line)
	}

	normalized, err := content.NormalizePlain(value)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: normalizing value", path)
	}
	return normalized, nil
}

package content

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/rotisserie/eris"
)

// PageDefinition is the canonical description of one page.
type PageDefinition struct {
	Name     string
	Sections *Node
}

// Validate checks the definition's name and every field spec of its tree.
func (d PageDefinition) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Name, validation.Required, validation.By(noSurroundingSpace)),
		validation.Field(&d.Sections, validation.NotNil, validation.By(isSectionTree)),
	)
}

// Registry is the ordered, read-only set of page definitions.
type Registry struct {
	pages []PageDefinition
	index map[string]int
}

// NewRegistry validates the definitions and indexes them by name.
func NewRegistry(definitions ...PageDefinition) (*Registry, error) {
	registry := &Registry{
		pages: make([]PageDefinition, 0, len(definitions)),
		index: make(map[string]int, len(definitions)),
	}

	for _, definition := range definitions {
		if err := definition.Validate(); err != nil {
			label := definition.Name
			if strings.TrimSpace(label) == "" {
				label = "<unnamed>"
			}
			return nil, eris.Wrapf(err, "invalid page definition %s", label)
		}
		if _, exists := registry.index[definition.Name]; exists {
			return nil, eris.Errorf("duplicate page definition %s", definition.Name)
		}
		registry.index[definition.Name] = len(registry.pages)
		registry.pages = append(registry.pages, definition)
	}

	if len(registry.pages) == 0 {
		return nil, eris.New("registry must define at least one page")
	}

	return registry, nil
}

// Pages returns the definitions in registry order.
func (r *Registry) Pages() []PageDefinition {
	out := make([]PageDefinition, len(r.pages))
	copy(out, r.pages)
	return out
}

// Names returns the page names in registry order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.pages))
	for _, page := range r.pages {
		names = append(names, page.Name)
	}
	return names
}

// Lookup finds a definition by page name.
func (r *Registry) Lookup(name string) (PageDefinition, bool) {
	idx, ok := r.index[name]
	if !ok {
		return PageDefinition{}, false
	}
	return r.pages[idx], true
}

// First returns the first page of the registry.
func (r *Registry) First() PageDefinition {
	return r.pages[0]
}

func noSurroundingSpace(value any) error {
	name, _ := value.(string)
	if strings.TrimSpace(name) != name {
		return validation.NewError("content.name.space", "must not have leading or trailing spaces")
	}
	return nil
}

func isSectionTree(value any) error {
	root, _ := value.(*Node)
	if root == nil {
		return nil
	}
	if root.Kind != KindSection {
		return validation.NewError("content.sections.kind", "sections must be a section node")
	}
	return ValidateTree(root)
}

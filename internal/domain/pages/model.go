package pages

import (
	"context"
	"time"
)

// Page is a persisted page document. Sections is an open nested JSON structure.
type Page struct {
	Name      string
	Sections  map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Document returns the page in its public JSON shape.
func (p *Page) Document() map[string]any {
	return map[string]any{
		"name":      p.Name,
		"sections":  p.Sections,
		"createdAt": p.CreatedAt,
		"updatedAt": p.UpdatedAt,
	}
}

// Repository defines persistence operations supported by the pages domain.
//
// Sections arguments are any JSON-marshalable value; repositories store their
// JSON encoding. FindByName returns nil without error when no page matches.
type Repository interface {
	Ping(ctx context.Context) error
	FindByName(ctx context.Context, name string) (*Page, error)
	Create(ctx context.Context, name string, sections any) error
	ReplaceSections(ctx context.Context, name string, sections any) error
	// SetPath writes value at the given key path below sections and reports
	// how many documents were modified. Writing an identical value reports zero.
	SetPath(ctx context.Context, name string, path []string, value any) (int64, error)
}

package pages

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/google/go-cmp/cmp"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"github.com/Malamih/Rara-studio-api/internal/domain/content"
)

type stubRepository struct {
	mu    sync.Mutex
	pages map[string]map[string]any

	pingErr     error
	findErr     map[string]error
	createErr   map[string]error
	replaceErr  map[string]error
	setPathErr  error
	creates     []string
	replaces    []string
	setPathArgs []setPathCall
}

type setPathCall struct {
	name  string
	path  []string
	value any
}

func newStubRepository() *stubRepository {
	return &stubRepository{
		pages:      map[string]map[string]any{},
		findErr:    map[string]error{},
		createErr:  map[string]error{},
		replaceErr: map[string]error{},
	}
}

func (r *stubRepository) Ping(context.Context) error {
	return r.pingErr
}

func (r *stubRepository) FindByName(_ context.Context, name string) (*Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.findErr[name]; err != nil {
		return nil, err
	}
	sections, ok := r.pages[name]
	if !ok {
		return nil, nil
	}
	copied, _ := toPlain(sections).(map[string]any)
	return &Page{Name: name, Sections: copied}, nil
}

func (r *stubRepository) Create(_ context.Context, name string, sections any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.createErr[name]; err != nil {
		return err
	}
	if _, exists := r.pages[name]; exists {
		return eris.Errorf("page with name %s already exists", name)
	}
	r.pages[name], _ = toPlain(sections).(map[string]any)
	r.creates = append(r.creates, name)
	return nil
}

func (r *stubRepository) ReplaceSections(_ context.Context, name string, sections any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.replaceErr[name]; err != nil {
		return err
	}
	if _, exists := r.pages[name]; !exists {
		return eris.Wrapf(ErrNotFound, "page %q not found", name)
	}
	r.pages[name], _ = toPlain(sections).(map[string]any)
	r.replaces = append(r.replaces, name)
	return nil
}

func (r *stubRepository) SetPath(_ context.Context, name string, path []string, value any) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.setPathArgs = append(r.setPathArgs, setPathCall{name: name, path: path, value: value})
	if r.setPathErr != nil {
		return 0, r.setPathErr
	}

	sections, ok := r.pages[name]
	if !ok {
		return 0, eris.Wrapf(ErrNotFound, "page %q not found", name)
	}

	node := sections
	for _, key := range path[:len(path)-1] {
		child, ok := node[key].(map[string]any)
		if !ok {
			child = map[string]any{}
			node[key] = child
		}
		node = child
	}

	last := path[len(path)-1]
	plain := toPlain(value)
	if current, exists := node[last]; exists && cmp.Equal(current, plain) {
		return 0, nil
	}
	node[last] = plain
	return 1, nil
}

func (r *stubRepository) sections(name string) map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pages[name]
}

func (r *stubRepository) seed(name string, sections map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pages[name], _ = toPlain(sections).(map[string]any)
}

// toPlain mimics a storage round trip.
func toPlain(value any) any {
	raw, err := json.Marshal(value)
	if err != nil {
		panic(err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(err)
	}
	return out
}

func silentLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testRegistry() *content.Registry {
	home := content.NewSection().
		Set("hero", content.NewSection().
			Set("headline", content.NewField(content.FieldInput, "")).
			Set("body", content.NewField(content.FieldRichText, "")).
			Set("image", content.NewField(content.FieldImage, ""))).
		Set("gallery", content.NewSection().
			Set("images", content.NewField(content.FieldImages, []any{}).WithMax(content.Limit(2))).
			Set("maxImages", content.NewAttribute(2.0)))

	about := content.NewSection().
		Set("overview", content.NewSection().
			Set("count", content.NewField(content.FieldNumber, "")))

	registry, err := content.NewRegistry(
		content.PageDefinition{Name: "home", Sections: home},
		content.PageDefinition{Name: "about", Sections: about},
	)
	if err != nil {
		panic(err)
	}
	return registry
}

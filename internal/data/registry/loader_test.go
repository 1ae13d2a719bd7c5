package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Malamih/Rara-studio-api/internal/domain/content"
)

func TestDefaultRegistryListsPagesInOrder(t *testing.T) {
	t.Parallel()

	registry, err := Default()
	if err != nil {
		t.Fatalf("Default returned error: %v", err)
	}

	want := []string{"home", "about", "services", "portfolio", "contact"}
	if diff := cmp.Diff(want, registry.Names()); diff != "" {
		t.Fatalf("page names mismatch (-want +got):\n%s", diff)
	}
	if registry.First().Name != "home" {
		t.Fatalf("expected first page home, got %q", registry.First().Name)
	}
}

func TestDefaultRegistryHomeHero(t *testing.T) {
	t.Parallel()

	registry, err := Default()
	if err != nil {
		t.Fatalf("Default returned error: %v", err)
	}

	home, ok := registry.Lookup("home")
	if !ok {
		t.Fatalf("expected home page to be defined")
	}

	hero, ok := home.Sections.Child("hero")
	if !ok {
		t.Fatalf("expected hero section")
	}
	want := []string{"tagline", "subTitle", "headline", "subheadline", "callToActionButton", "image"}
	if diff := cmp.Diff(want, hero.Keys()); diff != "" {
		t.Fatalf("hero keys mismatch (-want +got):\n%s", diff)
	}

	cta, _ := hero.Child("callToActionButton")
	if cta.Kind != content.KindField || cta.Type != content.FieldRichText {
		t.Fatalf("expected richtext field, got kind %s type %q", cta.Kind, cta.Type)
	}
	if cta.Value != "" {
		t.Fatalf("expected empty default, got %v", cta.Value)
	}
}

func TestDefaultRegistryListFieldsAndAttributes(t *testing.T) {
	t.Parallel()

	registry, err := Default()
	if err != nil {
		t.Fatalf("Default returned error: %v", err)
	}

	services, _ := registry.Lookup("services")
	section, _ := services.Sections.Child("services")

	items, ok := section.Child("items")
	if !ok {
		t.Fatalf("expected items field")
	}
	if items.Type != content.FieldItems {
		t.Fatalf("expected items type, got %q", items.Type)
	}
	if items.MaxValue == nil || !items.MaxValue.Unlimited {
		t.Fatalf("expected unlimited maxValue, got %+v", items.MaxValue)
	}
	if diff := cmp.Diff([]any{}, items.Value); diff != "" {
		t.Fatalf("items default mismatch (-want +got):\n%s", diff)
	}

	expected, _ := section.Child("expectedFields")
	if expected.Kind != content.KindAttribute {
		t.Fatalf("expected expectedFields attribute, got %s", expected.Kind)
	}
	if diff := cmp.Diff([]any{"title", "icon", "caption"}, expected.Data); diff != "" {
		t.Fatalf("expectedFields mismatch (-want +got):\n%s", diff)
	}

	maxItems, _ := section.Child("maxItems")
	if maxItems.Data != "unlimited" {
		t.Fatalf("expected maxItems attribute unlimited, got %v", maxItems.Data)
	}

	about, _ := registry.Lookup("about")
	overview, _ := about.Sections.Child("overview")
	images, _ := overview.Child("images")
	if images.MaxValue == nil || images.MaxValue.Limit != 4 {
		t.Fatalf("expected images limit 4, got %+v", images.MaxValue)
	}
	maxImages, _ := overview.Child("maxImages")
	if maxImages.Data != 6.0 {
		t.Fatalf("expected maxImages 6, got %v", maxImages.Data)
	}
}

func TestParseFieldMappingForm(t *testing.T) {
	t.Parallel()

	doc := []byte(`
pages:
  - name: landing
    sections:
      gallery:
        photos: !images
          value: [a.png]
          maxValue: 3
        cards: !items
          maxValue: unlimited
          expectedFields: [title]
`)

	registry, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	landing, _ := registry.Lookup("landing")
	gallery, _ := landing.Sections.Child("gallery")

	photos, _ := gallery.Child("photos")
	if diff := cmp.Diff([]any{"a.png"}, photos.Value); diff != "" {
		t.Fatalf("photos value mismatch (-want +got):\n%s", diff)
	}

	cards, _ := gallery.Child("cards")
	if diff := cmp.Diff([]string{"title"}, cards.ExpectedFields); diff != "" {
		t.Fatalf("expectedFields mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{}, cards.Value); diff != "" {
		t.Fatalf("expected empty list default (-want +got):\n%s", diff)
	}
}

func TestParseRejectsInvalidDocuments(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"unknown tag": `
pages:
  - name: p
    sections:
      s:
        f: !video ""
`,
		"over limit default": `
pages:
  - name: p
    sections:
      s:
        f: !images
          value: [a, b]
          maxValue: 1
`,
		"duplicate page": `
pages:
  - name: p
    sections: {s: {f: !input ""}}
  - name: p
    sections: {s: {f: !input ""}}
`,
		"no pages":      `pages: []`,
		"bad max value": "pages:\n  - name: p\n    sections:\n      s:\n        f: !items\n          maxValue: lots\n",
		"wrong type":    "pages:\n  - name: p\n    sections:\n      s:\n        f: !input 12\n",
	}

	for name, doc := range cases {
		if _, err := Parse([]byte(doc)); err == nil {
			t.Fatalf("%s: expected Parse to fail", name)
		}
	}
}

func TestLoadFallsBackToDefault(t *testing.T) {
	t.Parallel()

	registry, err := Load("  ")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(registry.Pages()) != 5 {
		t.Fatalf("expected bundled registry with 5 pages, got %d", len(registry.Pages()))
	}
}

func TestLoadFileReadsFromDisk(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "pages.yaml")
	doc := "pages:\n  - name: solo\n    sections:\n      hero:\n        title: !input Welcome\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("writing registry file failed: %v", err)
	}

	registry, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}

	solo, _ := registry.Lookup("solo")
	hero, _ := solo.Sections.Child("hero")
	title, _ := hero.Child("title")
	if title.Value != "Welcome" {
		t.Fatalf("expected default Welcome, got %v", title.Value)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

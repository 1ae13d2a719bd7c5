package content

import "testing"

func TestNewRegistryIndexesPages(t *testing.T) {
	t.Parallel()

	registry, err := NewRegistry(
		PageDefinition{Name: "home", Sections: heroCanonical()},
		PageDefinition{Name: "about", Sections: heroCanonical()},
	)
	if err != nil {
		t.Fatalf("NewRegistry returned error: %v", err)
	}

	if registry.First().Name != "home" {
		t.Fatalf("expected first page home, got %q", registry.First().Name)
	}
	if _, ok := registry.Lookup("about"); !ok {
		t.Fatalf("expected about to be found")
	}
	if _, ok := registry.Lookup("contact"); ok {
		t.Fatalf("expected contact to be missing")
	}
	if len(registry.Names()) != 2 {
		t.Fatalf("expected 2 names, got %v", registry.Names())
	}
}

func TestNewRegistryRejectsInvalidDefinitions(t *testing.T) {
	t.Parallel()

	invalidTree := NewSection().Set("title", NewField(FieldInput, 5.0))

	cases := map[string][]PageDefinition{
		"empty":           nil,
		"blank name":      {{Name: "", Sections: heroCanonical()}},
		"padded name":     {{Name: " home", Sections: heroCanonical()}},
		"nil sections":    {{Name: "home"}},
		"field root":      {{Name: "home", Sections: NewField(FieldInput, "")}},
		"invalid default": {{Name: "home", Sections: invalidTree}},
		"duplicate": {
			{Name: "home", Sections: heroCanonical()},
			{Name: "home", Sections: heroCanonical()},
		},
	}

	for name, defs := range cases {
		if _, err := NewRegistry(defs...); err == nil {
			t.Fatalf("%s: expected NewRegistry to fail", name)
		}
	}
}

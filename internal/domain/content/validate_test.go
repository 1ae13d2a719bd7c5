package content

import (
	"errors"
	"strings"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

func TestCheckValueAcceptsWellShapedValues(t *testing.T) {
	t.Parallel()

	cases := []struct {
		fieldType FieldType
		bound     *MaxValue
		value     any
	}{
		{FieldInput, nil, "text"},
		{FieldRichText, nil, "<p>hi</p>"},
		{FieldImage, nil, "https://cdn.example.com/a.png"},
		{FieldNumber, nil, 12.5},
		{FieldNumber, nil, ""},
		{FieldNumber, nil, " 42 "},
		{FieldImages, Limit(2), []any{"a.png", "b.png"}},
		{FieldImages, Unbounded(), []string{"a", "b", "c"}},
		{FieldItems, Limit(1), []any{map[string]any{"title": "x"}}},
		{FieldItems, nil, []any{}},
	}

	for _, tc := range cases {
		if err := CheckValue(tc.fieldType, tc.bound, tc.value); err != nil {
			t.Fatalf("CheckValue(%s, %v): unexpected error %v", tc.fieldType, tc.value, err)
		}
	}
}

func TestCheckValueRejectsMalformedValues(t *testing.T) {
	t.Parallel()

	cases := []struct {
		fieldType FieldType
		bound     *MaxValue
		value     any
		code      string
	}{
		{FieldInput, nil, 3.0, "content.value.string"},
		{FieldNumber, nil, "many", "content.value.number"},
		{FieldNumber, nil, true, "content.value.number"},
		{FieldImages, nil, "a.png", "content.value.list"},
		{FieldImages, nil, []any{1.0}, "content.value.image"},
		{FieldImages, Limit(1), []any{"a", "b"}, "content.value.max"},
		{FieldItems, nil, []any{"x"}, "content.value.item"},
		{FieldItems, Limit(2), []any{map[string]any{}, map[string]any{}, map[string]any{}}, "content.value.max"},
		{FieldType("video"), nil, "", "content.type.unknown"},
	}

	for _, tc := range cases {
		err := CheckValue(tc.fieldType, tc.bound, tc.value)
		var verr validation.Error
		if !errors.As(err, &verr) {
			t.Fatalf("CheckValue(%s, %v): expected validation error, got %v", tc.fieldType, tc.value, err)
		}
		if verr.Code() != tc.code {
			t.Fatalf("CheckValue(%s, %v): expected code %s, got %s", tc.fieldType, tc.value, tc.code, verr.Code())
		}
	}
}

func TestValidateTreeReportsPaths(t *testing.T) {
	t.Parallel()

	root := NewSection().
		Set("hero", NewSection().
			Set("title", NewField(FieldInput, "")).
			Set("count", NewField(FieldNumber, "x")).
			Set("cover", NewField(FieldImage, "").WithMax(Limit(2)))).
		Set("notes", NewAttribute("free form"))

	err := ValidateTree(root)
	if err == nil {
		t.Fatalf("expected validation errors")
	}

	errs, ok := err.(validation.Errors)
	if !ok {
		t.Fatalf("expected validation.Errors, got %T", err)
	}
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %d: %v", len(errs), errs)
	}
	if _, ok := errs["hero.count"]; !ok {
		t.Fatalf("expected error at hero.count, got %v", errs)
	}
	if !strings.Contains(errs["hero.cover"].Error(), "maxValue") {
		t.Fatalf("expected maxValue error at hero.cover, got %v", errs["hero.cover"])
	}
}

func TestValidateTreeAcceptsValidTree(t *testing.T) {
	t.Parallel()

	if err := ValidateTree(heroCanonical()); err != nil {
		t.Fatalf("expected valid tree, got %v", err)
	}
}

func TestValidateTreeRequiresFieldDefault(t *testing.T) {
	t.Parallel()

	root := NewSection().Set("title", NewField(FieldInput, nil))
	if err := ValidateTree(root); err == nil {
		t.Fatalf("expected missing default to be rejected")
	}
}

package pages

import (
	"context"
	"strings"

	"github.com/getsentry/sentry-go"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"github.com/Malamih/Rara-studio-api/internal/domain/content"
)

// Service defines the page operations exposed to the transport layer.
type Service interface {
	GetPage(ctx context.Context, name string, fields []string) (map[string]any, error)
	UpdateContent(ctx context.Context, req UpdateRequest) (*UpdateResult, error)
}

// UpdateRequest addresses a section, or a single content field inside it, of a stored page.
type UpdateRequest struct {
	PageName    string
	SectionName string
	ContentName string
	Value       any
}

// Validate ensures the page and section are named.
func (r UpdateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.PageName, validation.Required),
		validation.Field(&r.SectionName, validation.Required),
	)
}

// UpdateResult reports the storage path that was written and the value written there.
type UpdateResult struct {
	Path  string
	Value any
}

type service struct {
	repo      Repository
	registry  *content.Registry
	logger    *logrus.Logger
	sentryHub *sentry.Hub
}

var _ Service = (*service)(nil)

// NewService wires the page service with its dependencies.
func NewService(repo Repository, registry *content.Registry, logger *logrus.Logger, hub *sentry.Hub) (Service, error) {
	if repo == nil {
		return nil, eris.New("pages repository is required")
	}
	if registry == nil {
		return nil, eris.New("content registry is required")
	}

	return &service{repo: repo, registry: registry, logger: logger, sentryHub: hub}, nil
}

func (s *service) GetPage(ctx context.Context, name string, fields []string) (map[string]any, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		trimmed = s.registry.First().Name
	}

	page, err := s.repo.FindByName(ctx, trimmed)
	if err != nil {
		s.recordError(logrus.Fields{"page": trimmed}, err, "retrieving page from repository")
		return nil, eris.Wrapf(err, "retrieving page: %s", trimmed)
	}
	if page == nil {
		return nil, notFoundf("page %q not found", trimmed)
	}

	return project(page.Document(), fields)
}

// UpdateContent validates the requested path against the live page and writes
// either the field's value or a shallow union of the section.
//
// The section-level write is deliberately shallow: nested objects supplied in
// Value replace the stored ones instead of being merged like the startup sync.
func (s *service) UpdateContent(ctx context.Context, req UpdateRequest) (*UpdateResult, error) {
	req.PageName = strings.TrimSpace(req.PageName)
	req.SectionName = strings.TrimSpace(req.SectionName)
	req.ContentName = strings.TrimSpace(req.ContentName)

	if err := req.Validate(); err != nil {
		return nil, eris.Wrapf(ErrValidation, "invalid update request: %v", err)
	}

	page, err := s.repo.FindByName(ctx, req.PageName)
	if err != nil {
		s.recordError(logrus.Fields{"page": req.PageName}, err, "retrieving page for update")
		return nil, eris.Wrapf(err, "retrieving page: %s", req.PageName)
	}
	if page == nil {
		return nil, notFoundf("page %q not found", req.PageName)
	}

	section, ok := page.Sections[req.SectionName]
	if !ok {
		return nil, notFoundf("section %q not found in page %q", req.SectionName, req.PageName)
	}

	var (
		path    []string
		write   any
		written any
	)

	if req.ContentName != "" {
		path, write, err = s.resolveFieldWrite(req, section)
		written = write
	} else {
		path, write, written = resolveSectionWrite(req, section)
	}
	if err != nil {
		return nil, err
	}

	modified, err := s.repo.SetPath(ctx, req.PageName, path, write)
	if err != nil {
		fields := logrus.Fields{"page": req.PageName, "path": dottedPath(path)}
		s.recordError(fields, err, "writing page content")
		return nil, eris.Wrapf(err, "updating %s", dottedPath(path))
	}
	if modified == 0 {
		return nil, invalidf("no changes applied to %s", dottedPath(path))
	}

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{
			"component": "pages.update",
			"page":      req.PageName,
			"path":      dottedPath(path),
		}).Info("page content updated")
	}

	return &UpdateResult{Path: dottedPath(path), Value: written}, nil
}

func (s *service) resolveFieldWrite(req UpdateRequest, section any) ([]string, any, error) {
	sectionMap, _ := section.(map[string]any)
	field, ok := sectionMap[req.ContentName]
	if !ok {
		return nil, nil, notFoundf("content %q not found in section %q of page %q", req.ContentName, req.SectionName, req.PageName)
	}

	path := []string{req.SectionName, req.ContentName, "value"}

	spec, ok := field.(map[string]any)
	if !ok {
		return nil, nil, invalidf("content %s is not an editable field", dottedPath(path[:2]))
	}

	value := req.Value
	fieldType, bound := liveFieldType(spec)
	if fieldType != "" {
		if err := content.CheckValue(fieldType, bound, value); err != nil {
			return nil, nil, invalidf("invalid value for %s: %v", dottedPath(path), err)
		}
		if fieldType == content.FieldRichText {
			value = SanitizeRichText(value.(string))
		}
	}

	return path, value, nil
}

// resolveSectionWrite builds the shallow union of the stored section and the
// incoming keys. Incoming rich text field values are sanitized first; the
// sanitized incoming value is returned alongside the union.
func resolveSectionWrite(req UpdateRequest, section any) ([]string, any, any) {
	current, _ := section.(map[string]any)

	merged := make(map[string]any, len(current))
	for key, value := range current {
		merged[key] = value
	}

	incoming, ok := req.Value.(map[string]any)
	if !ok {
		return []string{req.SectionName}, merged, req.Value
	}

	cleaned := make(map[string]any, len(incoming))
	for key, value := range incoming {
		cleaned[key] = sanitizeSectionEntry(current[key], value)
		merged[key] = cleaned[key]
	}
	return []string{req.SectionName}, merged, cleaned
}

// sanitizeSectionEntry sanitizes the value of an incoming field spec when the
// stored entry under the same key is a rich text field.
func sanitizeSectionEntry(stored, incoming any) any {
	storedSpec, ok := stored.(map[string]any)
	if !ok {
		return incoming
	}
	if fieldType, _ := liveFieldType(storedSpec); fieldType != content.FieldRichText {
		return incoming
	}

	spec, ok := incoming.(map[string]any)
	if !ok {
		return incoming
	}
	text, ok := spec["value"].(string)
	if !ok {
		return incoming
	}

	out := make(map[string]any, len(spec))
	for key, value := range spec {
		out[key] = value
	}
	out["value"] = SanitizeRichText(text)
	return out
}

// liveFieldType reads the editor metadata of a stored field spec. Unknown types
// yield an empty FieldType so that the value is written unchecked.
func liveFieldType(spec map[string]any) (content.FieldType, *content.MaxValue) {
	rawType, _ := spec["type"].(string)
	fieldType := content.FieldType(rawType)
	if !fieldType.Valid() {
		return "", nil
	}

	var bound *content.MaxValue
	switch v := spec["maxValue"].(type) {
	case float64:
		bound = content.Limit(int(v))
	case string:
		if parsed, err := content.ParseMaxValue(v); err == nil {
			bound = parsed
		}
	}
	return fieldType, bound
}

func dottedPath(path []string) string {
	return "sections." + strings.Join(path, ".")
}

func (s *service) recordError(fields logrus.Fields, err error, message string) {
	if err == nil {
		return
	}

	if s.logger != nil {
		entry := s.logger.WithField("error", err.Error())
		if len(fields) > 0 {
			entry = entry.WithFields(fields)
		}
		entry.Error(message)
	}

	if s.sentryHub != nil {
		s.sentryHub.CaptureException(err)
	}
}

package pages

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"gorm.io/gorm"

	"github.com/Malamih/Rara-studio-api/internal/data/database"
	domainpages "github.com/Malamih/Rara-studio-api/internal/domain/pages"
)

// Repository persists page documents using a Gorm database connection.
type Repository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewRepository constructs a Gorm-backed repository implementation.
func NewRepository(db *gorm.DB, logger *logrus.Logger) (*Repository, error) {
	if db == nil {
		return nil, eris.New("gorm DB is required")
	}

	return &Repository{db: db, logger: logger}, nil
}

var _ domainpages.Repository = (*Repository)(nil)

// Ping verifies the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	if err := database.Ping(ctx, r.db); err != nil {
		r.logError(nil, err, "pinging database")
		return domainpages.Unavailable(err, "pinging sqlite page store")
	}
	return nil
}

// FindByName returns the page with the given name or nil when not found.
func (r *Repository) FindByName(ctx context.Context, name string) (*domainpages.Page, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, eris.New("page name is required")
	}

	var record PageRecord
	err := r.db.WithContext(ctx).First(&record, "name = ?", trimmed).Error
	if err != nil {
		if eris.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logError(logrus.Fields{"page": trimmed}, err, "fetching page by name")
		return nil, classify(err, "fetching page by name: %s", trimmed)
	}

	return toDomainPage(&record)
}

// Create stores a new page. It returns an error when the name already exists.
func (r *Repository) Create(ctx context.Context, name string, sections any) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return eris.New("page name is required")
	}

	encoded, err := encodeSections(sections)
	if err != nil {
		return err
	}

	record := &PageRecord{Name: trimmed, Sections: encoded}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(strings.ToLower(err.Error()), "unique") {
			dupErr := eris.Errorf("page with name %s already exists", trimmed)
			r.logError(logrus.Fields{"page": trimmed}, dupErr, "creating page with duplicate name")
			return dupErr
		}
		r.logError(logrus.Fields{"page": trimmed}, err, "creating page")
		return classify(err, "creating page: %s", trimmed)
	}

	return nil
}

// ReplaceSections overwrites the sections of an existing page.
func (r *Repository) ReplaceSections(ctx context.Context, name string, sections any) error {
	encoded, err := encodeSections(sections)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).
		Model(&PageRecord{}).
		Where("name = ?", name).
		Update("sections", encoded)
	if result.Error != nil {
		r.logError(logrus.Fields{"page": name}, result.Error, "replacing page sections")
		return classify(result.Error, "replacing sections of page: %s", name)
	}
	if result.RowsAffected == 0 {
		return eris.Wrapf(domainpages.ErrNotFound, "page %q not found", name)
	}

	return nil
}

// SetPath writes value at the key path below sections. The row is only
// written, and reported as modified, when the stored value differs.
func (r *Repository) SetPath(ctx context.Context, name string, path []string, value any) (int64, error) {
	if len(path) == 0 {
		return 0, eris.New("update path is required")
	}

	encodedValue, err := json.Marshal(value)
	if err != nil {
		return 0, eris.Wrapf(domainpages.ErrValidation, "value is not JSON encodable: %v", err)
	}

	jsonPath := escapePath(path)
	var modified int64

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record PageRecord
		if err := tx.First(&record, "name = ?", name).Error; err != nil {
			if eris.Is(err, gorm.ErrRecordNotFound) {
				return eris.Wrapf(domainpages.ErrNotFound, "page %q not found", name)
			}
			return classify(err, "loading page for update: %s", name)
		}

		current := gjson.Get(record.Sections, jsonPath)
		if current.Exists() && sameJSON([]byte(current.Raw), encodedValue) {
			return nil
		}

		updated, err := sjson.SetRaw(record.Sections, jsonPath, string(encodedValue))
		if err != nil {
			return eris.Wrapf(err, "applying update at %s", strings.Join(path, "."))
		}

		result := tx.Model(&record).Update("sections", updated)
		if result.Error != nil {
			return classify(result.Error, "writing page: %s", name)
		}
		modified = result.RowsAffected
		return nil
	})
	if err != nil {
		r.logError(logrus.Fields{"page": name, "path": strings.Join(path, ".")}, err, "updating page path")
		return 0, err
	}

	return modified, nil
}

func (r *Repository) logError(fields logrus.Fields, err error, message string) {
	if r.logger == nil || err == nil {
		return
	}

	entry := r.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}

func toDomainPage(record *PageRecord) (*domainpages.Page, error) {
	sections := map[string]any{}
	if strings.TrimSpace(record.Sections) != "" {
		if err := json.Unmarshal([]byte(record.Sections), &sections); err != nil {
			return nil, eris.Wrapf(err, "decoding sections of page %s", record.Name)
		}
	}

	return &domainpages.Page{
		Name:      record.Name,
		Sections:  sections,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}, nil
}

func encodeSections(sections any) (string, error) {
	if sections == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(sections)
	if err != nil {
		return "", eris.Wrap(err, "encoding page sections")
	}
	return string(raw), nil
}

func sameJSON(a, b []byte) bool {
	var left, right any
	if err := json.Unmarshal(a, &left); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &right); err != nil {
		return false
	}
	return cmp.Equal(left, right)
}

// escapePath joins key segments into a gjson/sjson path, escaping every ASCII
// punctuation character so that keys are always taken literally.
func escapePath(path []string) string {
	var b strings.Builder
	for i, segment := range path {
		if i > 0 {
			b.WriteByte('.')
		}
		for _, r := range segment {
			if r < 128 && !isPlainPathRune(r) {
				b.WriteByte('\\')
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isPlainPathRune(r rune) bool {
	return r == '_' || r == '-' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}

// classify marks connection-level failures as storage unavailability.
func classify(err error, format string, args ...any) error {
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) ||
		strings.Contains(err.Error(), "database is closed") {
		return domainpages.Unavailable(err, format, args...)
	}
	return eris.Wrapf(err, format, args...)
}

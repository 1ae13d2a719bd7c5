package migrations

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	datapages "github.com/Malamih/Rara-studio-api/internal/data/pages"
)

// MigratePages applies the pages schema using Gorm's AutoMigrate and logs progress.
func MigratePages(ctx context.Context, db *gorm.DB, logger *logrus.Logger) error {
	if db == nil {
		return eris.New("gorm DB is required")
	}

	logFields := logrus.Fields{"component": "pages.migrate"}
	if logger != nil {
		logger.WithFields(logFields).Info("applying pages schema")
	}

	if err := db.WithContext(ctx).AutoMigrate(&datapages.PageRecord{}); err != nil {
		if logger != nil {
			logger.WithFields(logFields).WithField("error", err.Error()).Error("pages schema migration failed")
		}
		return eris.Wrap(err, "auto migrating pages schema")
	}

	if logger != nil {
		logger.WithFields(logFields).Info("pages schema migration complete")
	}

	return nil
}

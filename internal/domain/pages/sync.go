package pages

import (
	"context"

	"github.com/getsentry/sentry-go"
	"github.com/google/go-cmp/cmp"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"github.com/Malamih/Rara-studio-api/internal/domain/content"
)

// SyncReport summarises one synchronization pass.
type SyncReport struct {
	Created   []string
	Updated   []string
	Unchanged []string
	Failed    map[string]error
}

// OK reports whether every page was synchronized.
func (r SyncReport) OK() bool {
	return len(r.Failed) == 0
}

// Synchronizer reconciles the stored pages with the content registry.
type Synchronizer struct {
	repo      Repository
	registry  *content.Registry
	logger    *logrus.Logger
	sentryHub *sentry.Hub
}

// NewSynchronizer wires a synchronizer with its dependencies.
func NewSynchronizer(repo Repository, registry *content.Registry, logger *logrus.Logger, hub *sentry.Hub) (*Synchronizer, error) {
	if repo == nil {
		return nil, eris.New("pages repository is required")
	}
	if registry == nil {
		return nil, eris.New("content registry is required")
	}

	return &Synchronizer{repo: repo, registry: registry, logger: logger, sentryHub: hub}, nil
}

// Run walks the registry in order, inserting missing pages and persisting
// merged sections for pages that drifted. A failure on one page is reported
// and the walk continues, unless the store itself is unreachable.
func (s *Synchronizer) Run(ctx context.Context) (SyncReport, error) {
	report := SyncReport{Failed: map[string]error{}}

	if err := s.repo.Ping(ctx); err != nil {
		s.recordError(logrus.Fields{}, err, "pinging page store before sync")
		if !IsUnavailable(err) {
			err = Unavailable(err, "pinging page store")
		}
		return report, err
	}

	for _, definition := range s.registry.Pages() {
		outcome, err := s.syncPage(ctx, definition)
		if err != nil {
			fields := logrus.Fields{"page": definition.Name}
			if IsUnavailable(err) {
				s.recordError(fields, err, "page store became unavailable during sync")
				return report, eris.Wrapf(err, "synchronizing page %s", definition.Name)
			}
			s.recordError(fields, err, "synchronizing page")
			report.Failed[definition.Name] = err
			continue
		}

		switch outcome {
		case outcomeCreated:
			report.Created = append(report.Created, definition.Name)
		case outcomeUpdated:
			report.Updated = append(report.Updated, definition.Name)
		default:
			report.Unchanged = append(report.Unchanged, definition.Name)
		}
	}

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{
			"component": "pages.sync",
			"created":   len(report.Created),
			"updated":   len(report.Updated),
			"unchanged": len(report.Unchanged),
			"failed":    len(report.Failed),
		}).Info("page synchronization complete")
	}

	return report, nil
}

type syncOutcome int

const (
	outcomeUnchanged syncOutcome = iota
	outcomeCreated
	outcomeUpdated
)

func (s *Synchronizer) syncPage(ctx context.Context, definition content.PageDefinition) (syncOutcome, error) {
	stored, err := s.repo.FindByName(ctx, definition.Name)
	if err != nil {
		return outcomeUnchanged, eris.Wrapf(err, "looking up page %s", definition.Name)
	}

	if stored == nil {
		if err := s.repo.Create(ctx, definition.Name, definition.Sections); err != nil {
			return outcomeUnchanged, eris.Wrapf(err, "creating page %s", definition.Name)
		}
		s.logDebug(definition.Name, "page created from registry")
		return outcomeCreated, nil
	}

	merged := content.Merge(definition.Sections, plainSections(stored.Sections))
	if cmp.Equal(merged.Plain(), plainSections(stored.Sections)) {
		return outcomeUnchanged, nil
	}

	if err := s.repo.ReplaceSections(ctx, definition.Name, merged); err != nil {
		return outcomeUnchanged, eris.Wrapf(err, "updating page %s", definition.Name)
	}
	s.logDebug(definition.Name, "page sections reconciled with registry")
	return outcomeUpdated, nil
}

// plainSections keeps a nil map distinct from an empty one so that a page
// stored without sections is healed rather than compared as empty.
func plainSections(sections map[string]any) any {
	if sections == nil {
		return nil
	}
	return sections
}

func (s *Synchronizer) logDebug(page, message string) {
	if s.logger == nil {
		return
	}
	s.logger.WithFields(logrus.Fields{"component": "pages.sync", "page": page}).Debug(message)
}

func (s *Synchronizer) recordError(fields logrus.Fields, err error, message string) {
	if err == nil {
		return
	}

	if s.logger != nil {
		entry := s.logger.WithField("component", "pages.sync").WithField("error", err.Error())
		if len(fields) > 0 {
			entry = entry.WithFields(fields)
		}
		entry.Error(message)
	}

	if s.sentryHub != nil {
		s.sentryHub.CaptureException(err)
	}
}

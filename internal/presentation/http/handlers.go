package http

import (
	"context"
	stdhttp "net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"

	"github.com/Malamih/Rara-studio-api/internal/domain/pages"
	platformlog "github.com/Malamih/Rara-studio-api/internal/platform/log"
)

const (
	errorFallbackMessage = "We couldn't process your request right now."
	unavailableMessage   = "Page storage is unavailable. Please try again shortly."
)

type getPageInput struct {
	Name   string `query:"name" doc:"Page name; defaults to the first registered page"`
	Fields string `query:"fields" doc:"Comma separated list of keys to return, dotted paths allowed"`
}

type getPageOutput struct {
	Body map[string]any
}

type updatePageInput struct {
	Body struct {
		PageName    string `json:"pageName,omitempty" doc:"Name of the page to update"`
		SectionName string `json:"sectionName,omitempty" doc:"Section inside the page"`
		ContentName string `json:"contentName,omitempty" doc:"Field inside the section; omit to update the whole section"`
		Value       any    `json:"value,omitempty" doc:"New field value, or keys to merge into the section"`
	}
}

type updatePageOutput struct {
	Body struct {
		Success bool   `json:"success"`
		Path    string `json:"path"`
		Value   any    `json:"value"`
	}
}

type healthResponse struct {
	Status int
	Body   struct {
		Status  string `json:"status"`
		Storage string `json:"storage"`
	}
}

func (s *Server) registerGetPageRoute() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-page",
		Method:      stdhttp.MethodGet,
		Path:        "/pages",
		Summary:     "Fetch page content",
		Errors: []int{
			stdhttp.StatusBadRequest,
			stdhttp.StatusNotFound,
			stdhttp.StatusServiceUnavailable,
		},
	}, s.getPageHandler)
}

func (s *Server) registerUpdatePageRoute() {
	huma.Register(s.api, huma.Operation{
		OperationID: "update-page",
		Method:      stdhttp.MethodPut,
		Path:        "/pages",
		Summary:     "Update a section or field of a page",
		Errors: []int{
			stdhttp.StatusBadRequest,
			stdhttp.StatusUnauthorized,
			stdhttp.StatusNotFound,
			stdhttp.StatusServiceUnavailable,
		},
	}, s.updatePageHandler)
}

func (s *Server) registerHealthRoute() {
	huma.Get(s.api, "/healthz", s.healthHandler, func(op *huma.Operation) {
		op.Summary = "Health check"
	})
}

func (s *Server) getPageHandler(ctx context.Context, input *getPageInput) (*getPageOutput, error) {
	doc, err := s.pages.GetPage(ctx, input.Name, pages.ParseFields(input.Fields))
	if err != nil {
		return nil, s.statusError(ctx, err, "loading page", logrus.Fields{"page": input.Name})
	}

	return &getPageOutput{Body: doc}, nil
}

func (s *Server) updatePageHandler(ctx context.Context, input *updatePageInput) (*updatePageOutput, error) {
	result, err := s.pages.UpdateContent(ctx, pages.UpdateRequest{
		PageName:    input.Body.PageName,
		SectionName: input.Body.SectionName,
		ContentName: input.Body.ContentName,
		Value:       input.Body.Value,
	})
	if err != nil {
		fields := logrus.Fields{
			"page":    input.Body.PageName,
			"section": input.Body.SectionName,
			"content": input.Body.ContentName,
		}
		return nil, s.statusError(ctx, err, "updating page", fields)
	}

	resp := &updatePageOutput{}
	resp.Body.Success = true
	resp.Body.Path = result.Path
	resp.Body.Value = result.Value
	return resp, nil
}

func (s *Server) healthHandler(ctx context.Context, _ *struct{}) (*healthResponse, error) {
	resp := &healthResponse{Status: stdhttp.StatusOK}
	resp.Body.Status = "ok"
	resp.Body.Storage = "ok"

	switch {
	case s.health == nil:
		resp.Status = stdhttp.StatusServiceUnavailable
		resp.Body.Status = "degraded"
		resp.Body.Storage = "unconfigured"
	default:
		if err := s.health.Ping(ctx); err != nil {
			s.recordError(ctx, err, "pinging page storage", nil)
			resp.Status = stdhttp.StatusServiceUnavailable
			resp.Body.Status = "degraded"
			resp.Body.Storage = "error"
		}
	}

	return resp, nil
}

// statusError maps domain errors onto HTTP problems. Only unexpected failures are reported.
func (s *Server) statusError(ctx context.Context, err error, message string, fields logrus.Fields) error {
	switch {
	case pages.IsNotFound(err):
		return huma.Error404NotFound(pages.Message(err))
	case pages.IsValidation(err):
		return huma.Error400BadRequest(pages.Message(err))
	case pages.IsUnavailable(err):
		s.recordError(ctx, err, message, fields)
		return huma.Error503ServiceUnavailable(unavailableMessage)
	default:
		s.recordError(ctx, err, message, fields)
		return huma.Error500InternalServerError(errorFallbackMessage)
	}
}

func (s *Server) recordError(ctx context.Context, err error, message string, fields logrus.Fields) {
	if err == nil {
		return
	}

	if s.logger != nil {
		entry := platformlog.Component(s.logger, "http").WithField("error", err.Error())
		if fields != nil {
			entry = entry.WithFields(fields)
		}
		if requestID := RequestIDFromContext(ctx); requestID != "" {
			entry = entry.WithField("request_id", requestID)
		}
		entry.Error(message)
	}

	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureException(err)
		return
	}
	if s.sentry != nil {
		s.sentry.CaptureException(err)
	}
}

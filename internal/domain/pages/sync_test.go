package pages

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rotisserie/eris"
)

func TestSynchronizerCreatesMissingPages(t *testing.T) {
	t.Parallel()

	repo := newStubRepository()
	registry := testRegistry()

	sync, err := NewSynchronizer(repo, registry, silentLogger(), nil)
	if err != nil {
		t.Fatalf("NewSynchronizer returned error: %v", err)
	}

	report, err := sync.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if diff := cmp.Diff([]string{"home", "about"}, report.Created); diff != "" {
		t.Fatalf("created mismatch (-want +got):\n%s", diff)
	}
	if !report.OK() {
		t.Fatalf("expected clean report, got failures %v", report.Failed)
	}

	home, _ := registry.Lookup("home")
	if diff := cmp.Diff(home.Sections.Plain(), any(repo.sections("home"))); diff != "" {
		t.Fatalf("stored home mismatch (-want +got):\n%s", diff)
	}
}

func TestSynchronizerIsIdempotent(t *testing.T) {
	t.Parallel()

	repo := newStubRepository()
	sync, err := NewSynchronizer(repo, testRegistry(), silentLogger(), nil)
	if err != nil {
		t.Fatalf("NewSynchronizer returned error: %v", err)
	}

	if _, err := sync.Run(context.Background()); err != nil {
		t.Fatalf("first Run returned error: %v", err)
	}

	report, err := sync.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run returned error: %v", err)
	}

	if len(report.Created) != 0 || len(report.Updated) != 0 {
		t.Fatalf("expected no writes on second run, got %+v", report)
	}
	if diff := cmp.Diff([]string{"home", "about"}, report.Unchanged); diff != "" {
		t.Fatalf("unchanged mismatch (-want +got):\n%s", diff)
	}
	if len(repo.replaces) != 0 {
		t.Fatalf("expected no replace calls, got %v", repo.replaces)
	}
}

func TestSynchronizerHealsDriftAndKeepsValues(t *testing.T) {
	t.Parallel()

	repo := newStubRepository()
	repo.seed("home", map[string]any{
		"hero": map[string]any{
			"headline": map[string]any{"type": "richtext", "value": "Welcome"},
			"obsolete": map[string]any{"type": "input", "value": "x"},
		},
		"retired": map[string]any{},
	})

	sync, err := NewSynchronizer(repo, testRegistry(), silentLogger(), nil)
	if err != nil {
		t.Fatalf("NewSynchronizer returned error: %v", err)
	}

	report, err := sync.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if diff := cmp.Diff([]string{"home"}, report.Updated); diff != "" {
		t.Fatalf("updated mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"about"}, report.Created); diff != "" {
		t.Fatalf("created mismatch (-want +got):\n%s", diff)
	}

	stored := repo.sections("home")
	if _, ok := stored["retired"]; ok {
		t.Fatalf("expected retired section to be removed")
	}

	hero := stored["hero"].(map[string]any)
	if _, ok := hero["obsolete"]; ok {
		t.Fatalf("expected obsolete field to be removed")
	}
	headline := hero["headline"].(map[string]any)
	if headline["type"] != "input" {
		t.Fatalf("expected type reset to input, got %v", headline["type"])
	}
	if headline["value"] != "Welcome" {
		t.Fatalf("expected value Welcome to survive, got %v", headline["value"])
	}
	if _, ok := hero["image"]; !ok {
		t.Fatalf("expected missing image field to be added")
	}
}

func TestSynchronizerReportsPerPageFailures(t *testing.T) {
	t.Parallel()

	repo := newStubRepository()
	repo.createErr["home"] = eris.New("disk full")

	sync, err := NewSynchronizer(repo, testRegistry(), silentLogger(), nil)
	if err != nil {
		t.Fatalf("NewSynchronizer returned error: %v", err)
	}

	report, err := sync.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if report.OK() {
		t.Fatalf("expected failure to be reported")
	}
	if _, ok := report.Failed["home"]; !ok {
		t.Fatalf("expected home failure, got %v", report.Failed)
	}
	if diff := cmp.Diff([]string{"about"}, report.Created); diff != "" {
		t.Fatalf("expected walk to continue past failure (-want +got):\n%s", diff)
	}
}

func TestSynchronizerAbortsWhenStoreUnavailable(t *testing.T) {
	t.Parallel()

	repo := newStubRepository()
	repo.pingErr = eris.New("connection refused")

	sync, err := NewSynchronizer(repo, testRegistry(), silentLogger(), nil)
	if err != nil {
		t.Fatalf("NewSynchronizer returned error: %v", err)
	}

	_, err = sync.Run(context.Background())
	if !IsUnavailable(err) {
		t.Fatalf("expected storage unavailable error, got %v", err)
	}
	if len(repo.creates) != 0 {
		t.Fatalf("expected no writes, got %v", repo.creates)
	}
}

func TestSynchronizerAbortsWhenStoreDropsMidWalk(t *testing.T) {
	t.Parallel()

	repo := newStubRepository()
	repo.findErr["about"] = Unavailable(eris.New("socket closed"), "fetching page")

	sync, err := NewSynchronizer(repo, testRegistry(), silentLogger(), nil)
	if err != nil {
		t.Fatalf("NewSynchronizer returned error: %v", err)
	}

	report, err := sync.Run(context.Background())
	if !IsUnavailable(err) {
		t.Fatalf("expected storage unavailable error, got %v", err)
	}
	if diff := cmp.Diff([]string{"home"}, report.Created); diff != "" {
		t.Fatalf("expected pages before the outage to be reported (-want +got):\n%s", diff)
	}
}

func TestSynchronizerHealsPageWithoutSections(t *testing.T) {
	t.Parallel()

	repo := newStubRepository()
	repo.pages["about"] = nil

	sync, err := NewSynchronizer(repo, testRegistry(), silentLogger(), nil)
	if err != nil {
		t.Fatalf("NewSynchronizer returned error: %v", err)
	}

	report, err := sync.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if diff := cmp.Diff([]string{"about"}, report.Updated); diff != "" {
		t.Fatalf("updated mismatch (-want +got):\n%s", diff)
	}
	if _, ok := repo.sections("about")["overview"]; !ok {
		t.Fatalf("expected overview to be written")
	}
}

func TestNewSynchronizerRequiresDependencies(t *testing.T) {
	t.Parallel()

	if _, err := NewSynchronizer(nil, testRegistry(), nil, nil); err == nil {
		t.Fatalf("expected error without repository")
	}
	if _, err := NewSynchronizer(newStubRepository(), nil, nil, nil); err == nil {
		t.Fatalf("expected error without registry")
	}
}

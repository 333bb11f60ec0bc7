package explain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/pradeepp3/CODATS/pkg/scanner"
)

// fakeBackend answers with a fixed confidence and fails on selected ids.
type fakeBackend struct {
	available bool
	failIDs   map[string]bool
	calls     int
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) IsAvailable(context.Context) bool { return f.available }

func (f *fakeBackend) ExplainFinding(_ context.Context, finding scanner.Finding, _ string) (Analysis, error) {
	f.calls++
	if f.failIDs[finding.ID] {
		return Analysis{}, errors.New("model error")
	}
	return Analysis{
		VulnerabilityID: finding.ID,
		Type:            finding.Type,
		Line:            finding.Line,
		Explanation:     "from backend",
		Confidence:      0.99,
	}, nil
}

func makeFindings(n int) []scanner.Finding {
	out := make([]scanner.Finding, n)
	for i := range out {
		out[i] = scanner.Finding{ID: fmt.Sprintf("v%d", i), Type: "SQL Injection", Line: i + 1}
	}
	return out
}

func TestService_NoBackend(t *testing.T) {
	svc := NewService(nil, nil, 0, nil)

	got, err := svc.Explain(context.Background(), makeFindings(3), "")
	if err != nil {
		t.Fatalf("Explain() error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d analyses, want 3", len(got))
	}
	for _, a := range got {
		if a.Confidence != StaticConfidence {
			t.Errorf("expected static analysis, got %+v", a)
		}
	}
	if svc.Backend() != "static" {
		t.Errorf("Backend() = %q", svc.Backend())
	}
}

func TestService_Empty(t *testing.T) {
	got, err := NewService(nil, nil, 0, nil).Explain(context.Background(), nil, "")
	if err != nil {
		t.Fatalf("Explain() error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", got)
	}
}

func TestService_BackendUnavailable(t *testing.T) {
	backend := &fakeBackend{available: false}
	svc := NewService(backend, nil, 0, nil)

	got, _ := svc.Explain(context.Background(), makeFindings(2), "")
	if backend.calls != 0 {
		t.Errorf("backend called %d times while unavailable", backend.calls)
	}
	for _, a := range got {
		if a.Confidence != StaticConfidence {
			t.Errorf("expected static analysis, got %+v", a)
		}
	}
}

func TestService_CapsBackendFindings(t *testing.T) {
	backend := &fakeBackend{available: true}
	svc := NewService(backend, nil, 3, nil)

	got, _ := svc.Explain(context.Background(), makeFindings(5), "")
	if len(got) != 5 {
		t.Fatalf("got %d analyses, want 5", len(got))
	}
	if backend.calls != 3 {
		t.Errorf("backend called %d times, want 3", backend.calls)
	}
	for i, a := range got {
		fromBackend := a.Explanation == "from backend"
		if fromBackend != (i < 3) {
			t.Errorf("analysis %d from backend = %v", i, fromBackend)
		}
		if a.VulnerabilityID != fmt.Sprintf("v%d", i) {
			t.Errorf("analysis %d out of order: %s", i, a.VulnerabilityID)
		}
	}
}

func TestService_FallsBackPerFinding(t *testing.T) {
	backend := &fakeBackend{available: true, failIDs: map[string]bool{"v1": true}}
	svc := NewService(backend, nil, 0, nil)

	got, err := svc.Explain(context.Background(), makeFindings(3), "")
	if err != nil {
		t.Fatalf("Explain() error: %v", err)
	}
	if got[0].Explanation != "from backend" || got[2].Explanation != "from backend" {
		t.Errorf("healthy findings should come from the backend: %+v", got)
	}
	if got[1].Confidence != StaticConfidence {
		t.Errorf("failed finding should fall back: %+v", got[1])
	}
	if svc.Backend() != "fake" {
		t.Errorf("Backend() = %q", svc.Backend())
	}
}

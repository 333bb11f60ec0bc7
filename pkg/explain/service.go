package explain

import (
	"context"

	"go.uber.org/zap"

	"github.com/pradeepp3/CODATS/pkg/scanner"
)

// DefaultMaxFindings bounds how many findings are sent to a backend per scan.
const DefaultMaxFindings = 10

// Service explains findings with a backend when one is configured and
// reachable, and with the static table otherwise.
type Service struct {
	backend     Backend
	static      *Static
	maxFindings int
	logger      *zap.SugaredLogger
}

// NewService creates a Service. backend may be nil. A maxFindings of zero or
// less uses DefaultMaxFindings.
func NewService(backend Backend, static *Static, maxFindings int, logger *zap.SugaredLogger) *Service {
	if static == nil {
		static = MustStatic()
	}
	if maxFindings <= 0 {
		maxFindings = DefaultMaxFindings
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{
		backend:     backend,
		static:      static,
		maxFindings: maxFindings,
		logger:      logger,
	}
}

// Backend returns the name of the configured backend, or "static".
func (s *Service) Backend() string {
	if s.backend == nil {
		return "static"
	}
	return s.backend.Name()
}

// Explain returns one analysis per finding, in order. Only the first
// maxFindings findings go to the backend; the rest, and any finding the
// backend fails on, are explained from the static table.
func (s *Service) Explain(ctx context.Context, findings []scanner.Finding, code string) ([]Analysis, error) {
	out := make([]Analysis, 0, len(findings))
	if len(findings) == 0 {
		return out, nil
	}

	useBackend := s.backend != nil && s.backend.IsAvailable(ctx)
	if s.backend != nil && !useBackend {
		s.logger.Warnw("Explanation backend unavailable, using built-in explanations",
			"backend", s.backend.Name(),
		)
	}

	for i, f := range findings {
		if !useBackend || i >= s.maxFindings || ctx.Err() != nil {
			out = append(out, s.static.ExplainFinding(f))
			continue
		}

		a, err := s.backend.ExplainFinding(ctx, f, code)
		if err != nil {
			s.logger.Warnw("Explanation failed, using built-in explanation",
				"backend", s.backend.Name(),
				"finding", f.ID,
				"error", err,
			)
			out = append(out, s.static.ExplainFinding(f))
			continue
		}
		out = append(out, a)
	}

	return out, nil
}

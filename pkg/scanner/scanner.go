// Package scanner implements the CODATS rule-based vulnerability scanner.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pradeepp3/CODATS/pkg/language"
	"github.com/pradeepp3/CODATS/pkg/rules"
)

const (
	// MaxSnippetLength is the longest snippet, in characters, kept from a
	// whole-text match before it is truncated.
	MaxSnippetLength = 100

	// budgetCheckInterval is how many lines the line scan processes between
	// checks of the scan deadline.
	budgetCheckInterval = 256
)

var errBudgetExceeded = errors.New("scan budget exceeded")

// Logger is the diagnostics port used by the engine. *zap.SugaredLogger
// satisfies it.
type Logger interface {
	Debugw(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
}

// Options configures an Engine. The zero value scans with the built-in
// catalog, no time budget and no logging.
type Options struct {
	// Timeout bounds the wall-clock time of a single scan. Zero means no
	// budget beyond the caller's context.
	Timeout time.Duration

	// Logger receives matcher failures and timeouts.
	Logger Logger

	// Categories replaces the built-in catalog.
	Categories []rules.Category

	// Selector maps a language id to the applicable category keys.
	Selector func(languageID string) []string

	// Now and NewID are used for ScannedAt and finding ids.
	Now   func() time.Time
	NewID func() string
}

// Engine scans source text against a rule catalog. It holds no mutable state
// and is safe for concurrent use.
type Engine struct {
	categories []rules.Category
	selector   func(string) []string
	timeout    time.Duration
	logger     Logger
	now        func() time.Time
	newID      func() string
}

// New creates an engine from opts.
func New(opts Options) *Engine {
	e := &Engine{
		categories: opts.Categories,
		selector:   opts.Selector,
		timeout:    opts.Timeout,
		logger:     opts.Logger,
		now:        opts.Now,
		newID:      opts.NewID,
	}
	if e.categories == nil {
		e.categories = rules.All()
	}
	if e.selector == nil {
		e.selector = language.ApplicableCategoryKeys
	}
	if e.logger == nil {
		e.logger = zap.NewNop().Sugar()
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	return e
}

// NewDefault creates an engine over the built-in catalog.
func NewDefault() *Engine {
	return New(Options{})
}

// Scan analyzes code for vulnerabilities. An empty language selects the
// default rule set.
//
// Matcher failures and an exhausted time budget do not produce an error:
// they are reported in Result.Diagnostics, and a timeout sets Result.Partial.
// An error is returned only if the engine itself fails.
func (e *Engine) Scan(ctx context.Context, code, languageID string) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("scanner: internal error: %v", r)
		}
	}()

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	lang := strings.TrimSpace(languageID)
	if lang == "" {
		lang = language.Default
	}

	s := &scan{
		engine: e,
		ctx:    ctx,
		code:   code,
		lines:  strings.Split(code, "\n"),
		seen:   make(map[findingKey]bool),
	}
	s.run(e.applicable(lang))

	findings := s.findings
	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].Line < findings[j].Line
	})
	for i := range findings {
		findings[i].ID = e.newID()
	}
	if findings == nil {
		findings = []Finding{}
	}

	e.logger.Debugw("Scan complete",
		"language", lang,
		"lines", len(s.lines),
		"findings", len(findings),
		"partial", s.partial,
	)

	return &Result{
		Vulnerabilities:      findings,
		RiskScore:            RiskScore(findings),
		TotalVulnerabilities: len(findings),
		Summary:              Summarize(findings),
		ScannedAt:            e.now().UTC(),
		Language:             lang,
		Partial:              s.partial,
		Diagnostics:          s.diagnostics,
	}, nil
}

// applicable returns the categories enabled for a language, in catalog order.
func (e *Engine) applicable(languageID string) []rules.Category {
	enabled := make(map[string]bool)
	for _, key := range e.selector(languageID) {
		enabled[key] = true
	}

	var out []rules.Category
	for _, c := range e.categories {
		if enabled[c.Key] {
			out = append(out, c)
		}
	}
	return out
}

// findingKey is the deduplication key: one finding per line per category.
type findingKey struct {
	line int
	name string
}

// scan holds the state of a single Scan call.
type scan struct {
	engine      *Engine
	ctx         context.Context
	code        string
	lines       []string
	seen        map[findingKey]bool
	findings    []Finding
	diagnostics []Diagnostic
	partial     bool
}

func (s *scan) run(categories []rules.Category) {
	for _, cat := range categories {
		// Line matches for every matcher are recorded before any whole-text
		// match, so a whole-text match can only fill a key no line match took.
		failed := make([]bool, len(cat.Matchers))

		for i, m := range cat.Matchers {
			err := s.scanLines(cat, m)
			if errors.Is(err, errBudgetExceeded) {
				s.timedOut(cat)
				return
			}
			if err != nil {
				failed[i] = true
				s.matcherFailed(cat, m, err)
			}
		}

		for i, m := range cat.Matchers {
			if failed[i] {
				continue
			}
			err := s.scanText(cat, m)
			if errors.Is(err, errBudgetExceeded) {
				s.timedOut(cat)
				return
			}
			if err != nil {
				s.matcherFailed(cat, m, err)
			}
		}
	}
}

func (s *scan) expired() bool {
	return s.ctx.Err() != nil
}

// scanLines tests the matcher against each line in isolation.
func (s *scan) scanLines(cat rules.Category, m rules.Matcher) error {
	if s.expired() {
		return errBudgetExceeded
	}

	for idx, line := range s.lines {
		if idx > 0 && idx%budgetCheckInterval == 0 && s.expired() {
			return errBudgetExceeded
		}

		spans, err := find(m, line)
		if err != nil {
			return err
		}
		if len(spans) == 0 {
			continue
		}

		s.record(cat, m, idx+1, utf8.RuneCountInString(line[:spans[0].Start])+1, strings.TrimSpace(line))
	}
	return nil
}

// scanText tests the matcher against the whole input to catch constructs
// that span lines.
func (s *scan) scanText(cat rules.Category, m rules.Matcher) error {
	if s.expired() {
		return errBudgetExceeded
	}

	spans, err := find(m, s.code)
	if err != nil {
		return err
	}

	line, pos := 1, 0
	for _, span := range spans {
		line += strings.Count(s.code[pos:span.Start], "\n")
		pos = span.Start
		s.record(cat, m, line, 1, truncateSnippet(s.code[span.Start:span.End]))
	}
	return nil
}

// record adds a finding unless one already exists for the line and category.
func (s *scan) record(cat rules.Category, m rules.Matcher, line, column int, snippet string) {
	key := findingKey{line: line, name: cat.Name}
	if s.seen[key] {
		return
	}
	s.seen[key] = true

	s.findings = append(s.findings, Finding{
		Type:          cat.Name,
		Severity:      cat.Severity,
		SeverityScore: cat.SeverityScore,
		Line:          line,
		Column:        column,
		Snippet:       snippet,
		Description:   m.Description(),
		Fix:           cat.Fix,
		RuleKey:       cat.Key,
	})
}

func (s *scan) matcherFailed(cat rules.Category, m rules.Matcher, err error) {
	s.engine.logger.Warnw("Skipping matcher",
		"rule", cat.Key,
		"matcher", m.Description(),
		"error", err,
	)
	s.diagnostics = append(s.diagnostics, Diagnostic{
		Kind:    DiagnosticMatcherFailure,
		RuleKey: cat.Key,
		Matcher: m.Description(),
		Message: err.Error(),
	})
}

func (s *scan) timedOut(cat rules.Category) {
	s.partial = true
	s.engine.logger.Warnw("Scan budget exceeded, returning partial result",
		"rule", cat.Key,
		"findings", len(s.findings),
		"error", s.ctx.Err(),
	)
	s.diagnostics = append(s.diagnostics, Diagnostic{
		Kind:    DiagnosticPatternTimeout,
		RuleKey: cat.Key,
		Message: fmt.Sprintf("scan stopped at rule %s: %v", cat.Key, s.ctx.Err()),
	})
}

// find runs a matcher, turning a panic into an error so one misbehaving
// matcher cannot abort the scan.
func find(m rules.Matcher, text string) (spans []rules.Span, err error) {
	defer func() {
		if r := recover(); r != nil {
			spans = nil
			err = fmt.Errorf("matcher panicked: %v", r)
		}
	}()
	return m.FindAll(text)
}

// truncateSnippet trims a whole-text match and limits it to MaxSnippetLength
// characters, appending "..." when it was cut.
func truncateSnippet(match string) string {
	trimmed := strings.TrimSpace(match)
	if utf8.RuneCountInString(trimmed) <= MaxSnippetLength {
		return trimmed
	}
	runes := []rune(trimmed)
	return string(runes[:MaxSnippetLength]) + "..."
}

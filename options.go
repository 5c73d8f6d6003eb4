package htmlkit

import (
	"io"
	"log/slog"

	"github.com/dpotapov/htmlkit/tagset"
)

// config holds the configuration envelope (spec §6): tag/attribute case
// preservation, error/position tracking, the open-elements depth bound, the
// active TagSet, the scripting flag, and optional operational logging.
type config struct {
	preserveTagCase       bool
	preserveAttributeCase bool
	trackErrorsMax        int
	trackPosition         bool
	maxDepth              int
	scriptingEnabled      bool
	tags                  *tagset.TagSet
	logger                *slog.Logger
}

func defaultConfig() *config {
	return &config{
		trackErrorsMax: 1000,
		maxDepth:       512,
		tags:           tagset.New(),
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Option configures a Parser at construction, following the pack's
// functional-options idiom (arturoeanton-go-xml's Option func(*config)).
type Option func(*config)

// WithPreserveTagCase keeps tag name case on output instead of lowercasing
// during parse.
func WithPreserveTagCase(v bool) Option { return func(c *config) { c.preserveTagCase = v } }

// WithPreserveAttributeCase is WithPreserveTagCase for attribute names.
func WithPreserveAttributeCase(v bool) Option {
	return func(c *config) { c.preserveAttributeCase = v }
}

// WithTrackErrors bounds how many ParseErrors a single parse retains; 0
// disables error collection entirely.
func WithTrackErrors(max int) Option {
	return func(c *config) {
		if max >= 0 {
			c.trackErrorsMax = max
		}
	}
}

// WithTrackPosition enables Range stamping on parsed nodes.
func WithTrackPosition(v bool) Option { return func(c *config) { c.trackPosition = v } }

// WithMaxDepth bounds the open-elements stack (HTML tree construction only).
// Values <= 0 are ignored, leaving the default (512) in place.
func WithMaxDepth(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxDepth = n
		}
	}
}

// WithTagSet replaces the Parser's TagSet (e.g. one pre-seeded with custom
// tags via TagSet.OnNewTag). A nil value is ignored.
func WithTagSet(ts *tagset.TagSet) Option {
	return func(c *config) {
		if ts != nil {
			c.tags = ts
		}
	}
}

// WithScripting toggles the scripting flag (affects noscript handling in
// the HTML tree builder).
func WithScripting(v bool) Option { return func(c *config) { c.scriptingEnabled = v } }

// WithLogger installs a logger for optional operational tracing: HTML
// insertion-mode transitions and tokenizer content-model switches
// (htmlparse/token), and per-token dispatch depth (xmlparse), all at
// slog.LevelDebug. Parse errors are never logged through it; they're
// collected in ParseErrorList instead. A nil value is ignored, leaving the
// discarding default logger in place.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

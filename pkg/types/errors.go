package types

import (
	"errors"
	"fmt"
	"strings"
)

// Parse errors. All are fatal for the document or run they occur in.
var (
	ErrMissingIngredientsSection = errors.New("missing ingredients section")
	ErrMissingParticipants       = errors.New("missing participants declaration")
	ErrInvalidParticipantCount   = errors.New("invalid participant count")
	ErrPlanSyntax                = errors.New("plan syntax error")
	ErrEmptyIngredientLine       = errors.New("empty ingredient line")
)

// Lookup errors. Fatal for the whole run.
var (
	ErrDishNotFound  = errors.New("dish not found")
	ErrAmbiguousDish = errors.New("ambiguous dish name")
)

// ParseError carries the location of a structural failure. Kind is one of
// the parse sentinels above and is returned by Unwrap, so callers can test
// with errors.Is.
type ParseError struct {
	Kind   error
	Path   string
	Line   int // 1-based, 0 when unknown.
	Column int // 1-based, 0 when unknown.
	Msg    string
}

func (e *ParseError) Error() string {
	var b strings.Builder
	if e.Path != "" {
		b.WriteString(e.Path)
	}
	if e.Line > 0 {
		if b.Len() == 0 {
			b.WriteString("line ")
		} else {
			b.WriteString(":")
		}
		fmt.Fprintf(&b, "%d", e.Line)
		if e.Column > 0 {
			fmt.Fprintf(&b, ":%d", e.Column)
		}
	}
	if b.Len() > 0 {
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.Error())
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Kind }

// LookupError reports a dish name that did not resolve to exactly one
// recipe document. Candidates holds either the conflicting paths
// (ErrAmbiguousDish) or close name suggestions (ErrDishNotFound).
type LookupError struct {
	Kind       error
	Name       string
	Candidates []string
}

func (e *LookupError) Error() string {
	msg := fmt.Sprintf("%s: %q", e.Kind, e.Name)
	if len(e.Candidates) == 0 {
		return msg
	}
	if errors.Is(e.Kind, ErrAmbiguousDish) {
		return msg + " matches " + strings.Join(e.Candidates, ", ")
	}
	return msg + " (did you mean " + strings.Join(e.Candidates, ", ") + "?)"
}

func (e *LookupError) Unwrap() error { return e.Kind }

// WarningKind classifies recoverable problems.
type WarningKind string

// WarnUnparsableAmount: the first token of a multi-token ingredient line was
// not a number; the amount defaulted to 0.
const WarnUnparsableAmount WarningKind = "unparsable_amount"

// Warning is a non-fatal problem surfaced for review. Warnings are
// collected and reported, never returned as errors.
type Warning struct {
	Kind  WarningKind
	Path  string
	Line  int
	Token string
	Text  string
}

func (w Warning) String() string {
	loc := w.Path
	if w.Line > 0 {
		loc = fmt.Sprintf("%s:%d", w.Path, w.Line)
	}
	switch w.Kind {
	case WarnUnparsableAmount:
		return fmt.Sprintf("%s: could not parse amount %q in %q, defaulting to 0", loc, w.Token, w.Text)
	default:
		return fmt.Sprintf("%s: %s: %s", loc, w.Kind, w.Text)
	}
}

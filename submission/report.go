package submission

import (
	"errors"
	"fmt"
	"strings"

	"lemmy-automod/database"
	"lemmy-automod/models"
	"lemmy-automod/schema"

	"github.com/google/uuid"
)

// Outcome summarizes a whole submission.
type Outcome int

const (
	AllFailed Outcome = iota
	AllSucceeded
	Partial
)

func (o Outcome) String() string {
	switch o {
	case AllSucceeded:
		return "all_succeeded"
	case Partial:
		return "partial"
	default:
		return "all_failed"
	}
}

// Result is the fate of one submitted item.
type Result struct {
	Index     int
	Kind      models.RuleKind
	Community string
	Err       error
}

// OK reports whether the item was stored.
func (r Result) OK() bool {
	return r.Err == nil
}

// Reason maps the item's error onto the reason shown to the submitter.
func (r Result) Reason() string {
	if r.Err == nil {
		return ""
	}

	var schemaErr *schema.Error
	var authErr *AuthorizationError
	var storeErr *database.StorageError
	switch {
	case errors.As(r.Err, &schemaErr):
		return ReasonUnrecognized
	case errors.As(r.Err, &authErr):
		return authErr.Reason
	case errors.Is(r.Err, models.ErrNotFound):
		return ReasonUnknownUser
	case errors.Is(r.Err, database.ErrDuplicateRule):
		return ReasonDuplicate
	case errors.As(r.Err, &storeErr):
		return ReasonStorage
	}
	return ReasonPlatform
}

// Report is the aggregated result of one submission.
type Report struct {
	ID      uuid.UUID
	Results []Result
}

// Succeeded returns the number of stored items.
func (r Report) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.OK() {
			n++
		}
	}
	return n
}

// Outcome classifies the report. An empty submission stored nothing and
// counts as failed.
func (r Report) Outcome() Outcome {
	ok := r.Succeeded()
	switch {
	case len(r.Results) > 0 && ok == len(r.Results):
		return AllSucceeded
	case ok == 0:
		return AllFailed
	}
	return Partial
}

// String renders the report as the reply sent back to the submitter.
func (r Report) String() string {
	var b strings.Builder
	switch r.Outcome() {
	case AllSucceeded:
		fmt.Fprintf(&b, "Configuration updated successfully! %d rule(s) added.", len(r.Results))
		return b.String()
	case AllFailed:
		if len(r.Results) == 0 {
			return "Configuration not updated: the submission contained no rules."
		}
		b.WriteString("Configuration not updated: none of the submitted rules could be added.")
	case Partial:
		fmt.Fprintf(&b, "Configuration partially updated: %d of %d rule(s) added.", r.Succeeded(), len(r.Results))
	}

	b.WriteString("\n")
	for _, res := range r.Results {
		if res.OK() {
			continue
		}
		fmt.Fprintf(&b, "\n- item %d", res.Index+1)
		if res.Community != "" {
			fmt.Fprintf(&b, " (%s)", res.Community)
		}
		fmt.Fprintf(&b, ": %s", res.Reason())
	}
	return b.String()
}

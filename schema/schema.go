// Package schema validates rule submissions against the known rule shapes and
// turns them into typed submissions.
package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"lemmy-automod/models"

	"github.com/google/jsonschema-go/jsonschema"
)

// ReasonUnrecognized is the rejection reason for an item that fits no shape.
const ReasonUnrecognized = "unrecognized schema"

//go:embed schemas/*.json
var schemaFS embed.FS

// ErrNotJSON is returned by Parse when the document is not JSON at all.
var ErrNotJSON = errors.New("document is not valid JSON")

// Error marks one item of a document that could not be turned into a rule.
type Error struct {
	Index  int
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("item %d: %s", e.Index+1, ReasonUnrecognized)
	}
	return fmt.Sprintf("item %d: %s: %s", e.Index+1, ReasonUnrecognized, e.Detail)
}

// Item is the outcome for one element of a document: exactly one of Rule or
// Err is set.
type Item struct {
	Index int
	Rule  *models.Submission
	Err   *Error
}

// shape is one compiled rule schema. Shapes are tried in slice order.
type shape struct {
	kind     models.RuleKind
	resolved *jsonschema.Resolved
}

var (
	loadOnce sync.Once
	shapes   []shape
	loadErr  error
)

// precedence is the order in which shapes are tried.
var precedence = []models.RuleKind{
	models.RuleKindPost,
	models.RuleKindComment,
	models.RuleKindMention,
	models.RuleKindException,
}

func loadShapes() ([]shape, error) {
	loadOnce.Do(func() {
		for _, kind := range precedence {
			raw, err := schemaFS.ReadFile("schemas/" + string(kind) + ".json")
			if err != nil {
				loadErr = fmt.Errorf("reading %s schema: %w", kind, err)
				return
			}
			var s jsonschema.Schema
			if err := json.Unmarshal(raw, &s); err != nil {
				loadErr = fmt.Errorf("decoding %s schema: %w", kind, err)
				return
			}
			resolved, err := s.Resolve(nil)
			if err != nil {
				loadErr = fmt.Errorf("resolving %s schema: %w", kind, err)
				return
			}
			shapes = append(shapes, shape{kind: kind, resolved: resolved})
		}
	})
	return shapes, loadErr
}

// Parse validates a document holding a single rule object or an array of
// them. Every element is validated on its own; elements that fit no shape
// come back as Items with Err set instead of failing the batch. The returned
// error is non-nil only if the document is not JSON or the embedded schemas
// are broken.
func Parse(document []byte) ([]Item, error) {
	known, err := loadShapes()
	if err != nil {
		return nil, err
	}

	var root any
	if err := json.Unmarshal(bytes.TrimSpace(document), &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotJSON, err)
	}

	elements, ok := root.([]any)
	if !ok {
		elements = []any{root}
	}

	items := make([]Item, 0, len(elements))
	for i, element := range elements {
		items = append(items, parseElement(known, i, element))
	}
	return items, nil
}

func parseElement(known []shape, index int, element any) Item {
	for _, s := range known {
		if err := s.resolved.Validate(element); err != nil {
			continue
		}
		sub, err := decode(s.kind, element)
		if err != nil {
			return Item{Index: index, Err: &Error{Index: index, Detail: err.Error()}}
		}
		return Item{Index: index, Rule: sub}
	}
	return Item{Index: index, Err: &Error{Index: index}}
}

type ruleDoc struct {
	Rule            string  `json:"rule"`
	Community       string  `json:"community"`
	Field           string  `json:"field"`
	Match           string  `json:"match"`
	Type            string  `json:"type"`
	WhitelistExempt *bool   `json:"whitelist_exempt"`
	Whitelist       *bool   `json:"whitelist"`
	ModExempt       *bool   `json:"mod_exempt"`
	Message         *string `json:"message"`
	RemovalReason   *string `json:"removal_reason"`
	Command         *string `json:"command"`
	Action          string  `json:"action"`
	UserName        string  `json:"user_name"`
}

// exemptions applies the defaults: not whitelist-exempt, mod-exempt.
func (d ruleDoc) exemptions() models.Exemptions {
	e := models.Exemptions{WhitelistExempt: false, ModExempt: true}
	switch {
	case d.WhitelistExempt != nil:
		e.WhitelistExempt = *d.WhitelistExempt
	case d.Whitelist != nil:
		e.WhitelistExempt = *d.Whitelist
	}
	if d.ModExempt != nil {
		e.ModExempt = *d.ModExempt
	}
	return e
}

func decode(kind models.RuleKind, element any) (*models.Submission, error) {
	raw, err := json.Marshal(element)
	if err != nil {
		return nil, err
	}
	var d ruleDoc
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}

	switch kind {
	case models.RuleKindPost:
		if err := checkPattern(models.MatchKind(d.Type), d.Match); err != nil {
			return nil, err
		}
		return &models.Submission{Kind: kind, Post: &models.PostSubmission{
			Community:     d.Community,
			Fields:        SplitFields(d.Field),
			Match:         d.Match,
			Kind:          models.MatchKind(d.Type),
			Message:       d.Message,
			RemovalReason: d.RemovalReason,
			Exemptions:    d.exemptions(),
		}}, nil
	case models.RuleKindComment:
		if err := checkPattern(models.MatchKind(d.Type), d.Match); err != nil {
			return nil, err
		}
		return &models.Submission{Kind: kind, Comment: &models.CommentSubmission{
			Community:     d.Community,
			Match:         d.Match,
			Kind:          models.MatchKind(d.Type),
			Message:       d.Message,
			RemovalReason: d.RemovalReason,
			Exemptions:    d.exemptions(),
		}}, nil
	case models.RuleKindMention:
		var command string
		if d.Command != nil {
			command = *d.Command
		}
		return &models.Submission{Kind: kind, Mention: &models.MentionSubmission{
			Community: d.Community,
			Command:   command,
			Action:    models.MentionAction(d.Action),
			Message:   d.Message,
		}}, nil
	case models.RuleKindException:
		return &models.Submission{Kind: kind, Exception: &models.ExceptionSubmission{
			Community: d.Community,
			UserName:  strings.TrimPrefix(d.UserName, "@"),
		}}, nil
	}
	return nil, fmt.Errorf("unknown rule kind %q", kind)
}

func checkPattern(kind models.MatchKind, pattern string) error {
	if kind != models.MatchRegex {
		return nil
	}
	if _, err := regexp.Compile(pattern); err != nil {
		return fmt.Errorf("invalid regular expression: %w", err)
	}
	return nil
}

// SplitFields splits a "+"-joined field set ("title+link") into its fields.
func SplitFields(set string) []models.PostField {
	parts := strings.Split(set, "+")
	fields := make([]models.PostField, 0, len(parts))
	for _, p := range parts {
		fields = append(fields, models.PostField(p))
	}
	return fields
}

package rules

import (
	"cmp"
	"errors"
	"fmt"
	pathpkg "path"
	"slices"
	"strings"
)

// Registry errors.
var (
	// ErrUnknownRuleID is returned when registry lookup fails.
	ErrUnknownRuleID = errors.New("unknown rule id")
	// ErrDuplicateRuleID is returned when registry receives duplicate IDs.
	ErrDuplicateRuleID = errors.New("duplicate rule id")
	// ErrInvalidRuleGlob is returned when a glob pattern is malformed.
	ErrInvalidRuleGlob = errors.New("invalid rule glob")
)

// Registry stores rules in run order: ascending Order, then ID.
type Registry struct {
	ordered []Rule
	index   map[string]Rule
}

// NewRegistry creates a registry from rules.
func NewRegistry(rules ...Rule) (*Registry, error) {
	ordered := make([]Rule, 0, len(rules))
	index := make(map[string]Rule, len(rules))

	for _, rule := range rules {
		id := rule.Descriptor().ID
		if _, exists := index[id]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRuleID, id)
		}

		index[id] = rule
		ordered = append(ordered, rule)
	}

	slices.SortStableFunc(ordered, func(a, b Rule) int {
		return cmp.Or(
			cmp.Compare(a.Descriptor().Order, b.Descriptor().Order),
			cmp.Compare(a.Descriptor().ID, b.Descriptor().ID),
		)
	})

	return &Registry{
		ordered: ordered,
		index:   index,
	}, nil
}

// All returns all rules in run order.
func (r *Registry) All() []Rule {
	return slices.Clone(r.ordered)
}

// Descriptors returns the metadata of all rules in run order.
func (r *Registry) Descriptors() []Descriptor {
	descriptors := make([]Descriptor, 0, len(r.ordered))
	for _, rule := range r.ordered {
		descriptors = append(descriptors, rule.Descriptor())
	}

	return descriptors
}

// Rule returns the rule with the given ID.
func (r *Registry) Rule(id string) (Rule, bool) {
	rule, ok := r.index[id]

	return rule, ok
}

// Select returns the rules matched by enabled (all when empty) minus those
// matched by disabled, in run order.
func (r *Registry) Select(enabled, disabled []string) ([]Rule, error) {
	ids, err := r.SelectedIDs(enabled)
	if err != nil {
		return nil, err
	}

	var excluded []string

	if len(disabled) > 0 {
		excluded, err = r.ExpandPatterns(disabled)
		if err != nil {
			return nil, err
		}
	}

	selected := make([]Rule, 0, len(ids))

	for _, rule := range r.ordered {
		id := rule.Descriptor().ID
		if slices.Contains(ids, id) && !slices.Contains(excluded, id) {
			selected = append(selected, rule)
		}
	}

	return selected, nil
}

// ExpandPatterns expands IDs and glob patterns against registered rule IDs.
func (r *Registry) ExpandPatterns(patterns []string) ([]string, error) {
	selected := make([]string, 0, len(r.ordered))
	selectedSet := make(map[string]struct{}, len(r.ordered))

	for _, rawPattern := range patterns {
		ids, err := r.resolvePattern(strings.TrimSpace(rawPattern))
		if err != nil {
			return nil, err
		}

		appendUniqueIDs(&selected, selectedSet, ids)
	}

	return selected, nil
}

// SelectedIDs returns the rule IDs for the given patterns, or all IDs if none specified.
func (r *Registry) SelectedIDs(patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		return r.allIDs(), nil
	}

	return r.ExpandPatterns(patterns)
}

func (r *Registry) resolvePattern(pattern string) ([]string, error) {
	if pattern == "" {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRuleID, pattern)
	}

	if !hasGlobMeta(pattern) {
		if _, exists := r.index[pattern]; !exists {
			return nil, fmt.Errorf("%w: %s", ErrUnknownRuleID, pattern)
		}

		return []string{pattern}, nil
	}

	if pattern == "*" {
		return r.allIDs(), nil
	}

	matched := make([]string, 0, len(r.ordered))

	for _, rule := range r.ordered {
		id := rule.Descriptor().ID

		isMatch, err := pathpkg.Match(pattern, id)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrInvalidRuleGlob, pattern, err)
		}

		if isMatch {
			matched = append(matched, id)
		}
	}

	if len(matched) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRuleID, pattern)
	}

	return matched, nil
}

func (r *Registry) allIDs() []string {
	ids := make([]string, 0, len(r.ordered))
	for _, rule := range r.ordered {
		ids = append(ids, rule.Descriptor().ID)
	}

	return ids
}

func hasGlobMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[")
}

func appendUniqueIDs(target *[]string, targetSet map[string]struct{}, ids []string) {
	for _, id := range ids {
		if _, exists := targetSet[id]; exists {
			continue
		}

		*target = append(*target, id)
		targetSet[id] = struct{}{}
	}
}

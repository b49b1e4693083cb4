// Package tags turns free-text tag input into a validated set of canonical
// tag references.
package tags

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"quorum/api/internal/question"
)

// Finder looks canonical tag names up in the tag store.
type Finder interface {
	FindTagsByNames(ctx context.Context, names []string) ([]question.Tag, error)
}

// Resolution is the outcome of resolving raw tag text: the normalized
// candidate names in first-seen order, the subset that resolved to stored
// tags, and the names that resolved to nothing.
type Resolution struct {
	Candidates []string
	Tags       []question.Tag
	Unknown    []string
}

type Resolver struct {
	finder Finder
}

func NewResolver(finder Finder) *Resolver {
	return &Resolver{finder: finder}
}

// Resolve splits raw on commas and whitespace, normalizes each candidate,
// deduplicates preserving first occurrence order, and looks the survivors
// up in the store. Unresolved names are reported, not dropped; whether they
// are an error is the validator's call.
func (r *Resolver) Resolve(ctx context.Context, raw string) (Resolution, error) {
	candidates := SplitTagNames(raw)
	if len(candidates) == 0 {
		return Resolution{}, nil
	}

	found, err := r.finder.FindTagsByNames(ctx, candidates)
	if err != nil {
		return Resolution{}, fmt.Errorf("find tags: %w", err)
	}
	byName := make(map[string]question.Tag, len(found))
	for _, tag := range found {
		byName[tag.Name] = tag
	}

	resolution := Resolution{Candidates: candidates}
	for _, name := range candidates {
		tag, ok := byName[name]
		if !ok {
			resolution.Unknown = append(resolution.Unknown, name)
			continue
		}
		resolution.Tags = append(resolution.Tags, tag)
	}
	return resolution, nil
}

// SplitTagNames normalizes raw tag text into canonical candidate names:
// comma or whitespace separated, trimmed, case-folded, empties dropped,
// duplicates removed keeping first-seen order.
func SplitTagNames(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})

	seen := make(map[string]struct{}, len(parts))
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

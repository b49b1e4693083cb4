// Package question holds the content model of a question: the question
// itself, its versioned information, and the rules for applying an edit.
package question

import (
	"strings"
	"time"
)

type Tag struct {
	ID   string
	Name string
}

// Information is one version of a question's content. It is created on
// submit and on every accepted edit, and never mutated afterwards.
type Information struct {
	ID          string
	Title       string
	Description string
	EditorID    string
	Tags        []Tag
	Comment     string
	CreatedAt   time.Time
}

type Question struct {
	ID            string
	AuthorID      string
	Slug          string
	ViewCount     int64
	InformationID string
	Information   Information
	CreatedAt     time.Time
}

const (
	StatusEdited    = "edited"
	StatusNoChanges = "no_changes"
)

// UpdateStatus describes the outcome of replacing a question's information.
type UpdateStatus struct {
	Changed bool
	Code    string
	Message string
}

// New builds a freshly asked question around its first information version.
// The identity is left unset until the store assigns it.
func New(info Information, authorID string) Question {
	return Question{
		AuthorID:      authorID,
		Slug:          Slugify(info.Title),
		InformationID: info.ID,
		Information:   info,
	}
}

// ApplyEdit replaces the question's current information with next. The
// version pointer always advances, even when nothing material changed, so
// the audit trail grows by one entry per accepted edit. Materiality covers
// title, description and the tag set; the edit comment never counts.
func ApplyEdit(current Question, next Information) (Question, UpdateStatus) {
	updated := current
	updated.Information = next
	updated.InformationID = next.ID
	if current.Information.Title != next.Title {
		updated.Slug = Slugify(next.Title)
	}

	if !materiallyDiffers(current.Information, next) {
		return updated, UpdateStatus{Code: StatusNoChanges, Message: "no changes were made"}
	}
	return updated, UpdateStatus{Changed: true, Code: StatusEdited, Message: "question edited"}
}

func materiallyDiffers(current, next Information) bool {
	if current.Title != next.Title || current.Description != next.Description {
		return true
	}
	return !sameTagSet(current.Tags, next.Tags)
}

func sameTagSet(a, b []Tag) bool {
	names := make(map[string]struct{}, len(a))
	for _, tag := range a {
		names[tag.Name] = struct{}{}
	}
	if len(names) != tagNameCount(b) {
		return false
	}
	for _, tag := range b {
		if _, ok := names[tag.Name]; !ok {
			return false
		}
	}
	return true
}

func tagNameCount(tags []Tag) int {
	names := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		names[tag.Name] = struct{}{}
	}
	return len(names)
}

// Slugify derives the URL slug for a title: lowercase alphanumeric runs
// joined by single hyphens, bounded length, with a fixed fallback for
// titles that carry no usable characters.
func Slugify(title string) string {
	const maxSlugLen = 80
	slug := make([]rune, 0, len(title))
	lastDash := false
	for _, ch := range strings.ToLower(strings.TrimSpace(title)) {
		if (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9') {
			slug = append(slug, ch)
			lastDash = false
			continue
		}
		if !lastDash {
			slug = append(slug, '-')
			lastDash = true
		}
	}
	text := strings.Trim(string(slug), "-")
	if len(text) > maxSlugLen {
		text = strings.TrimRight(text[:maxSlugLen], "-")
	}
	if text == "" {
		return "question"
	}
	return text
}

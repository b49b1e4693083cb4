package question

import "testing"

func sampleInfo(id, title, description, comment string, tags ...Tag) Information {
	return Information{
		ID:          id,
		Title:       title,
		Description: description,
		EditorID:    "usr_1",
		Tags:        tags,
		Comment:     comment,
	}
}

func TestNewQuestion(t *testing.T) {
	info := sampleInfo("qi_1", "How do I read a file in Go?", "details", "new question", Tag{ID: "t1", Name: "go"})
	q := New(info, "usr_1")

	if q.ID != "" {
		t.Errorf("expected pending id, got %q", q.ID)
	}
	if q.ViewCount != 0 {
		t.Errorf("expected zero view count, got %d", q.ViewCount)
	}
	if q.Slug != "how-do-i-read-a-file-in-go" {
		t.Errorf("unexpected slug %q", q.Slug)
	}
	if q.InformationID != "qi_1" {
		t.Errorf("information pointer not set, got %q", q.InformationID)
	}
}

func TestApplyEditChangesContent(t *testing.T) {
	q := New(sampleInfo("qi_1", "Old title", "old body", "new question", Tag{ID: "t1", Name: "go"}), "usr_1")
	next := sampleInfo("qi_2", "New title", "old body", "clarified", Tag{ID: "t1", Name: "go"})

	updated, status := ApplyEdit(q, next)
	if !status.Changed || status.Code != StatusEdited {
		t.Fatalf("expected edited status, got %+v", status)
	}
	if updated.Slug != "new-title" {
		t.Errorf("slug not recomputed, got %q", updated.Slug)
	}
	if updated.InformationID != "qi_2" {
		t.Errorf("pointer did not advance, got %q", updated.InformationID)
	}
}

func TestApplyEditNoChangesStillAdvancesPointer(t *testing.T) {
	q := New(sampleInfo("qi_1", "Same title", "same body", "new question", Tag{ID: "t1", Name: "go"}), "usr_1")
	next := sampleInfo("qi_2", "Same title", "same body", "fix typo", Tag{ID: "t1", Name: "go"})

	updated, status := ApplyEdit(q, next)
	if status.Changed || status.Code != StatusNoChanges {
		t.Fatalf("expected no_changes status, got %+v", status)
	}
	if updated.InformationID != "qi_2" {
		t.Errorf("pointer must advance even without material changes, got %q", updated.InformationID)
	}
	if updated.Information.Comment != "fix typo" {
		t.Errorf("comment not carried, got %q", updated.Information.Comment)
	}
	if updated.Slug != q.Slug {
		t.Errorf("slug changed without a title change: %q -> %q", q.Slug, updated.Slug)
	}
}

func TestApplyEditTagSetIsMaterial(t *testing.T) {
	q := New(sampleInfo("qi_1", "Title", "body", "new question", Tag{ID: "t1", Name: "go"}), "usr_1")

	reordered := sampleInfo("qi_2", "Title", "body", "", Tag{ID: "t1", Name: "go"})
	if _, status := ApplyEdit(q, reordered); status.Changed {
		t.Errorf("identical tag set reported as changed")
	}

	swapped := sampleInfo("qi_3", "Title", "body", "", Tag{ID: "t2", Name: "java"})
	if _, status := ApplyEdit(q, swapped); !status.Changed {
		t.Errorf("different tag set not reported as changed")
	}

	added := sampleInfo("qi_4", "Title", "body", "", Tag{ID: "t1", Name: "go"}, Tag{ID: "t2", Name: "java"})
	if _, status := ApplyEdit(q, added); !status.Changed {
		t.Errorf("added tag not reported as changed")
	}
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Hello World", "hello-world"},
		{"  What is a goroutine?  ", "what-is-a-goroutine"},
		{"C++ vs Go: which one?", "c-vs-go-which-one"},
		{"!!!", "question"},
		{"", "question"},
		{"multi   space -- and_underscores", "multi-space-and-underscores"},
	}
	for _, tc := range cases {
		if got := Slugify(tc.title); got != tc.want {
			t.Errorf("Slugify(%q) = %q, want %q", tc.title, got, tc.want)
		}
	}
}

func TestSlugifyBoundsLength(t *testing.T) {
	long := ""
	for i := 0; i < 30; i++ {
		long += "verylongword "
	}
	slug := Slugify(long)
	if len(slug) > 80 {
		t.Errorf("slug exceeds bound: %d chars", len(slug))
	}
	if slug[len(slug)-1] == '-' {
		t.Errorf("slug ends with hyphen: %q", slug)
	}
}

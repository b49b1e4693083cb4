package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"quorum/api/internal/config"
	"quorum/api/internal/counter"
	"quorum/api/internal/events"
	"quorum/api/internal/question"
	"quorum/api/internal/rbac"
	"quorum/api/internal/store"
	"quorum/api/internal/tags"
	"quorum/api/internal/util"
	"quorum/api/internal/votes"
)

const maxTitleLen = 150

// Actor is the acting principal for one request, resolved at the boundary
// and passed in explicitly. An empty ID means anonymous.
type Actor struct {
	ID   string
	Name string
	Role rbac.Role
}

type CreateQuestionInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	TagNames    string `json:"tagNames"`
}

type EditQuestionInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	TagNames    string `json:"tagNames"`
	Comment     string `json:"comment"`
}

type ResultKind string

const (
	ResultRedirect ResultKind = "redirect"
	ResultRender   ResultKind = "render"
	ResultInvalid  ResultKind = "invalid"
)

// Result is the tagged outcome of a service operation. The boundary decides
// how each variant is realized (HTTP redirect, rendered payload, error body).
type Result struct {
	Kind        ResultKind
	Location    string
	Message     string
	View        map[string]any
	FieldErrors map[string][]string
}

type entityStore interface {
	GetQuestionByID(ctx context.Context, id string) (question.Question, error)
	CreateQuestion(ctx context.Context, q question.Question) error
	SaveRevision(ctx context.Context, questionID string, info question.Information, slug string) error
	FindTagsByNames(ctx context.Context, names []string) ([]question.Tag, error)
	ListAnswersByQuestion(ctx context.Context, questionID string) ([]store.Answer, error)
	ListCommentsForQuestion(ctx context.Context, questionID string) ([]store.Comment, error)
	GetUserByID(ctx context.Context, id string) (store.User, error)
	Ping(ctx context.Context) error
}

// ViewCounter records one view, returning the new total. The caller passes
// the stored count so a counter starting cold can seed from it. Failures
// are best-effort at the call site: a render never depends on them.
type ViewCounter interface {
	Increment(ctx context.Context, questionID string, base int64) (int64, error)
}

type Service struct {
	cfg       config.Config
	store     entityStore
	counter   ViewCounter
	votes     *votes.Aggregator
	resolver  *tags.Resolver
	validator tags.Validator
	events    events.Sink
}

func New(cfg config.Config, dataStore *store.PostgresStore, viewCounter ViewCounter, sink events.Sink) *Service {
	if viewCounter == nil {
		viewCounter = counter.NewPostgres(dataStore)
	}
	if sink == nil {
		sink = events.LogSink{}
	}
	return &Service{
		cfg:       cfg,
		store:     dataStore,
		counter:   viewCounter,
		votes:     votes.NewAggregator(dataStore),
		resolver:  tags.NewResolver(dataStore),
		validator: tags.Validator{MaxTags: cfg.MaxTags},
		events:    sink,
	}
}

// CreateQuestion resolves and validates the submitted content, persists the
// question with its first information version, and emits the creation event.
// Validation failures are collected and reported together; nothing is
// written unless every check passes.
func (s *Service) CreateQuestion(ctx context.Context, actor Actor, input CreateQuestionInput) (Result, error) {
	if actor.ID == "" {
		return Result{}, domainError(http.StatusUnauthorized, "UNAUTHORIZED", "sign in to ask a question", nil)
	}

	resolution, err := s.resolver.Resolve(ctx, input.TagNames)
	if err != nil {
		return Result{}, err
	}
	fieldErrors := contentErrors(input.Title, input.Description)
	appendTagErrors(fieldErrors, s.validator.Validate(resolution))
	if len(fieldErrors) > 0 {
		return Result{Kind: ResultInvalid, FieldErrors: fieldErrors}, nil
	}

	info := question.Information{
		ID:          util.NewID("qi"),
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		EditorID:    actor.ID,
		Tags:        resolution.Tags,
		Comment:     "new question",
	}
	q := question.New(info, actor.ID)
	q.ID = util.NewID("q")

	if err := s.store.CreateQuestion(ctx, q); err != nil {
		return Result{}, fmt.Errorf("persist question: %w", err)
	}

	if err := s.events.QuestionCreated(ctx, events.QuestionCreated{
		QuestionID: q.ID,
		AuthorID:   q.AuthorID,
		Title:      info.Title,
		CreatedAt:  time.Now().UTC(),
	}); err != nil {
		log.Printf("question created event: %v", err)
	}

	return Result{
		Kind:     ResultRedirect,
		Location: questionPath(q.ID, q.Slug),
		Message:  "question created",
	}, nil
}

// EditQuestion loads the question fresh, authorizes the actor against it,
// then applies the revision. Authorization runs before anything is written;
// the information pointer advances even for non-material edits.
func (s *Service) EditQuestion(ctx context.Context, actor Actor, id string, input EditQuestionInput) (Result, error) {
	q, err := s.store.GetQuestionByID(ctx, id)
	if err != nil {
		return Result{}, err
	}
	if err := s.authorizeEdit(q, actor); err != nil {
		return Result{}, err
	}

	resolution, err := s.resolver.Resolve(ctx, input.TagNames)
	if err != nil {
		return Result{}, err
	}
	fieldErrors := contentErrors(input.Title, input.Description)
	appendTagErrors(fieldErrors, s.validator.Validate(resolution))
	if len(fieldErrors) > 0 {
		return Result{Kind: ResultInvalid, FieldErrors: fieldErrors}, nil
	}

	info := question.Information{
		ID:          util.NewID("qi"),
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		EditorID:    actor.ID,
		Tags:        resolution.Tags,
		Comment:     strings.TrimSpace(input.Comment),
	}
	updated, status := question.ApplyEdit(q, info)

	if err := s.store.SaveRevision(ctx, q.ID, info, updated.Slug); err != nil {
		return Result{}, fmt.Errorf("persist revision: %w", err)
	}

	return Result{
		Kind:     ResultRedirect,
		Location: questionPath(updated.ID, updated.Slug),
		Message:  status.Message,
	}, nil
}

// ShowQuestion renders the question page, or signals a canonical redirect
// when the requested slug is stale. The redirect short-circuits: no view is
// recorded and no vote state is computed.
func (s *Service) ShowQuestion(ctx context.Context, viewer Actor, id, requestedSlug string) (Result, error) {
	q, err := s.store.GetQuestionByID(ctx, id)
	if err != nil {
		return Result{}, err
	}

	if requestedSlug != q.Slug {
		return Result{
			Kind:     ResultRedirect,
			Location: questionPath(q.ID, q.Slug),
		}, nil
	}

	viewCount := q.ViewCount
	if total, err := s.counter.Increment(ctx, q.ID, q.ViewCount); err != nil {
		log.Printf("view counter for %s: %v", q.ID, err)
	} else {
		viewCount = total
	}

	voteState, err := s.votes.Aggregate(ctx, q.ID, viewer.ID)
	if err != nil {
		return Result{}, err
	}

	answers, err := s.store.ListAnswersByQuestion(ctx, q.ID)
	if err != nil {
		return Result{}, err
	}
	comments, err := s.store.ListCommentsForQuestion(ctx, q.ID)
	if err != nil {
		return Result{}, err
	}

	// author may have been deleted; the question outlives them
	authorName := ""
	if q.AuthorID != "" {
		if user, err := s.store.GetUserByID(ctx, q.AuthorID); err == nil {
			authorName = user.DisplayName
		}
	}

	return Result{
		Kind: ResultRender,
		View: buildQuestionView(q, authorName, viewCount, voteState, answers, comments),
	}, nil
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) authorizeEdit(q question.Question, actor Actor) error {
	if actor.ID == "" {
		return domainError(http.StatusUnauthorized, "UNAUTHORIZED", "sign in to edit a question", nil)
	}
	if actor.ID == q.AuthorID || rbac.Can(actor.Role, rbac.ActionEditAny) {
		return nil
	}
	return domainError(http.StatusForbidden, "FORBIDDEN", "you cannot edit this question", nil)
}

func contentErrors(title, description string) map[string][]string {
	fieldErrors := map[string][]string{}
	trimmedTitle := strings.TrimSpace(title)
	if trimmedTitle == "" {
		fieldErrors["title"] = append(fieldErrors["title"], "title is required")
	} else if len(trimmedTitle) > maxTitleLen {
		fieldErrors["title"] = append(fieldErrors["title"], fmt.Sprintf("title must not exceed %d characters", maxTitleLen))
	}
	if strings.TrimSpace(description) == "" {
		fieldErrors["description"] = append(fieldErrors["description"], "description is required")
	}
	return fieldErrors
}

func appendTagErrors(fieldErrors map[string][]string, tagErrors []tags.FieldError) {
	for _, fieldErr := range tagErrors {
		fieldErrors[fieldErr.Field] = append(fieldErrors[fieldErr.Field], fieldErr.Message)
	}
}

func questionPath(id, slug string) string {
	return "/api/questions/" + id + "/" + slug
}

func buildQuestionView(q question.Question, authorName string, viewCount int64, voteState votes.ViewerVoteState, answers []store.Answer, comments []store.Comment) map[string]any {
	tagItems := make([]map[string]any, 0, len(q.Information.Tags))
	for _, tag := range q.Information.Tags {
		tagItems = append(tagItems, map[string]any{
			"id":   tag.ID,
			"name": tag.Name,
		})
	}

	answerItems := make([]map[string]any, 0, len(answers))
	for _, answer := range answers {
		answerItems = append(answerItems, map[string]any{
			"id":          answer.ID,
			"authorId":    answer.AuthorID,
			"body":        answer.Body,
			"createdAt":   answer.CreatedAt.Format(time.RFC3339),
			"currentVote": string(voteState.Answers[answer.ID]),
		})
	}

	commentItems := make([]map[string]any, 0, len(comments))
	for _, comment := range comments {
		commentItems = append(commentItems, map[string]any{
			"id":          comment.ID,
			"questionId":  comment.QuestionID,
			"answerId":    comment.AnswerID,
			"authorId":    comment.AuthorID,
			"body":        comment.Body,
			"createdAt":   comment.CreatedAt.Format(time.RFC3339),
			"currentVote": string(voteState.Comments[comment.ID]),
		})
	}

	return map[string]any{
		"question": map[string]any{
			"id":          q.ID,
			"slug":        q.Slug,
			"authorId":    q.AuthorID,
			"authorName":  authorName,
			"title":       q.Information.Title,
			"description": q.Information.Description,
			"editComment": q.Information.Comment,
			"editedBy":    q.Information.EditorID,
		},
		"tags":        tagItems,
		"viewCount":   viewCount,
		"currentVote": string(voteState.Question),
		"answers":     answerItems,
		"comments":    commentItems,
	}
}

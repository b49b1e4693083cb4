// Package votes collects a single viewer's prior vote state across a
// question and everything nested under it. Strictly read-only.
package votes

import (
	"context"
	"fmt"
)

type Direction string

const (
	DirectionNone Direction = ""
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

type Kind string

const (
	KindQuestion Kind = "question"
	KindAnswer   Kind = "answer"
	KindComment  Kind = "comment"
)

// Store reads previously recorded votes.
type Store interface {
	PriorVote(ctx context.Context, targetID, voterID string, kind Kind) (Direction, error)
	PriorVotesForAnswers(ctx context.Context, questionID, voterID string) (map[string]Direction, error)
	PriorVotesForComments(ctx context.Context, questionID, voterID string) (map[string]Direction, error)
}

// ViewerVoteState is everything the page needs to render "you already
// voted" markers: the viewer's vote on the question plus per-answer and
// per-comment maps (absent key means no vote).
type ViewerVoteState struct {
	Question Direction
	Answers  map[string]Direction
	Comments map[string]Direction
}

type Aggregator struct {
	store Store
}

func NewAggregator(store Store) *Aggregator {
	return &Aggregator{store: store}
}

// Aggregate returns viewerID's prior votes for the question, its answers
// and all attached comments. An anonymous viewer (empty id) gets the
// uniform no-vote state without touching the store.
func (a *Aggregator) Aggregate(ctx context.Context, questionID, viewerID string) (ViewerVoteState, error) {
	state := ViewerVoteState{
		Answers:  map[string]Direction{},
		Comments: map[string]Direction{},
	}
	if viewerID == "" {
		return state, nil
	}

	current, err := a.store.PriorVote(ctx, questionID, viewerID, KindQuestion)
	if err != nil {
		return ViewerVoteState{}, fmt.Errorf("question vote: %w", err)
	}
	state.Question = current

	answers, err := a.store.PriorVotesForAnswers(ctx, questionID, viewerID)
	if err != nil {
		return ViewerVoteState{}, fmt.Errorf("answer votes: %w", err)
	}
	if answers != nil {
		state.Answers = answers
	}

	comments, err := a.store.PriorVotesForComments(ctx, questionID, viewerID)
	if err != nil {
		return ViewerVoteState{}, fmt.Errorf("comment votes: %w", err)
	}
	if comments != nil {
		state.Comments = comments
	}
	return state, nil
}

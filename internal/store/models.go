package store

import "time"

type User struct {
	ID          string
	DisplayName string
	Role        string
	CreatedAt   time.Time
}

type Answer struct {
	ID         string
	QuestionID string
	AuthorID   string
	Body       string
	CreatedAt  time.Time
}

type Comment struct {
	ID         string
	QuestionID string
	AnswerID   string
	AuthorID   string
	Body       string
	CreatedAt  time.Time
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"quorum/api/internal/question"
	"quorum/api/internal/votes"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetQuestionByID loads a question with its current information version and
// tag set. Callers get sql.ErrNoRows untouched for unknown ids.
func (s *PostgresStore) GetQuestionByID(ctx context.Context, id string) (question.Question, error) {
	const query = `
		SELECT q.id, q.author_id, q.slug, q.view_count, q.created_at,
			qi.id, qi.title, qi.description, qi.editor_id, qi.comment, qi.created_at
		FROM questions q
		JOIN question_informations qi ON qi.id = q.current_information_id
		WHERE q.id = $1
	`
	var q question.Question
	var authorID sql.NullString
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&q.ID, &authorID, &q.Slug, &q.ViewCount, &q.CreatedAt,
		&q.Information.ID, &q.Information.Title, &q.Information.Description,
		&q.Information.EditorID, &q.Information.Comment, &q.Information.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return question.Question{}, err
	}
	if err != nil {
		return question.Question{}, fmt.Errorf("load question: %w", err)
	}
	q.AuthorID = authorID.String
	q.InformationID = q.Information.ID

	tags, err := s.informationTags(ctx, q.Information.ID)
	if err != nil {
		return question.Question{}, err
	}
	q.Information.Tags = tags
	return q, nil
}

func (s *PostgresStore) informationTags(ctx context.Context, informationID string) ([]question.Tag, error) {
	const query = `
		SELECT t.id, t.name
		FROM tags t
		JOIN question_information_tags qit ON qit.tag_id = t.id
		WHERE qit.information_id = $1
		ORDER BY qit.position
	`
	rows, err := s.db.QueryContext(ctx, query, informationID)
	if err != nil {
		return nil, fmt.Errorf("load information tags: %w", err)
	}
	defer rows.Close()

	var tags []question.Tag
	for rows.Next() {
		var tag question.Tag
		if err := rows.Scan(&tag.ID, &tag.Name); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}
	return tags, nil
}

// FindTagsByNames returns the stored tags matching the given canonical
// names. Names without a stored tag simply have no row in the result.
func (s *PostgresStore) FindTagsByNames(ctx context.Context, names []string) ([]question.Tag, error) {
	if len(names) == 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM tags WHERE name = ANY($1) ORDER BY name`, names)
	if err != nil {
		return nil, fmt.Errorf("find tags: %w", err)
	}
	defer rows.Close()

	var tags []question.Tag
	for rows.Next() {
		var tag question.Tag
		if err := rows.Scan(&tag.ID, &tag.Name); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}
	return tags, nil
}

// CreateQuestion persists a new question with its first information version
// and tag links in one transaction, so an abandoned request writes nothing.
func (s *PostgresStore) CreateQuestion(ctx context.Context, q question.Question) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create question: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO questions (id, author_id, slug, view_count)
		VALUES ($1, $2, $3, 0)
	`, q.ID, nullIfEmpty(q.AuthorID), q.Slug); err != nil {
		return fmt.Errorf("insert question: %w", err)
	}

	if err := insertInformation(ctx, tx, q.ID, q.Information); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE questions SET current_information_id = $1 WHERE id = $2
	`, q.Information.ID, q.ID); err != nil {
		return fmt.Errorf("set current information: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create question: %w", err)
	}
	return nil
}

// SaveRevision appends a new information version and advances the question's
// current-version pointer, atomically. Prior versions stay untouched.
func (s *PostgresStore) SaveRevision(ctx context.Context, questionID string, info question.Information, slug string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save revision: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertInformation(ctx, tx, questionID, info); err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE questions SET current_information_id = $1, slug = $2 WHERE id = $3
	`, info.ID, slug, questionID)
	if err != nil {
		return fmt.Errorf("advance information pointer: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save revision: %w", err)
	}
	return nil
}

func insertInformation(ctx context.Context, tx *sql.Tx, questionID string, info question.Information) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO question_informations (id, question_id, title, description, editor_id, comment)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, info.ID, questionID, info.Title, info.Description, nullIfEmpty(info.EditorID), info.Comment); err != nil {
		return fmt.Errorf("insert information: %w", err)
	}

	for position, tag := range info.Tags {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO question_information_tags (information_id, tag_id, position)
			VALUES ($1, $2, $3)
		`, info.ID, tag.ID, position); err != nil {
			return fmt.Errorf("link tag %s: %w", tag.Name, err)
		}
	}
	return nil
}

// IncrementViewCount applies the increment inside the database so concurrent
// views never lose updates. Returns the new total.
func (s *PostgresStore) IncrementViewCount(ctx context.Context, questionID string) (int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx, `
		UPDATE questions SET view_count = view_count + 1 WHERE id = $1 RETURNING view_count
	`, questionID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("increment view count: %w", err)
	}
	return total, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, display_name, role, created_at FROM users WHERE id = $1
	`, id).Scan(&user.ID, &user.DisplayName, &user.Role, &user.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) ListAnswersByQuestion(ctx context.Context, questionID string) ([]Answer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, question_id, author_id, body, created_at
		FROM answers WHERE question_id = $1 ORDER BY created_at
	`, questionID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	defer rows.Close()

	var answers []Answer
	for rows.Next() {
		var answer Answer
		var authorID sql.NullString
		if err := rows.Scan(&answer.ID, &answer.QuestionID, &authorID, &answer.Body, &answer.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		answer.AuthorID = authorID.String
		answers = append(answers, answer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate answers: %w", err)
	}
	return answers, nil
}

// ListCommentsForQuestion returns comments anchored on the question itself
// or on any of its answers.
func (s *PostgresStore) ListCommentsForQuestion(ctx context.Context, questionID string) ([]Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, COALESCE(question_id, ''), COALESCE(answer_id, ''), author_id, body, created_at
		FROM comments
		WHERE question_id = $1
			OR answer_id IN (SELECT id FROM answers WHERE question_id = $1)
		ORDER BY created_at
	`, questionID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var comment Comment
		var authorID sql.NullString
		if err := rows.Scan(&comment.ID, &comment.QuestionID, &comment.AnswerID, &authorID, &comment.Body, &comment.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comment.AuthorID = authorID.String
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return comments, nil
}

// PriorVote returns the viewer's recorded direction for one target, or the
// empty direction when no vote exists.
func (s *PostgresStore) PriorVote(ctx context.Context, targetID, voterID string, kind votes.Kind) (votes.Direction, error) {
	var direction string
	err := s.db.QueryRowContext(ctx, `
		SELECT direction FROM votes WHERE target_id = $1 AND voter_id = $2 AND target_kind = $3
	`, targetID, voterID, string(kind)).Scan(&direction)
	if errors.Is(err, sql.ErrNoRows) {
		return votes.DirectionNone, nil
	}
	if err != nil {
		return votes.DirectionNone, fmt.Errorf("prior vote: %w", err)
	}
	return votes.Direction(direction), nil
}

func (s *PostgresStore) PriorVotesForAnswers(ctx context.Context, questionID, voterID string) (map[string]votes.Direction, error) {
	const query = `
		SELECT v.target_id, v.direction
		FROM votes v
		JOIN answers a ON a.id = v.target_id
		WHERE v.target_kind = 'answer' AND v.voter_id = $2 AND a.question_id = $1
	`
	return s.voteMap(ctx, query, questionID, voterID)
}

func (s *PostgresStore) PriorVotesForComments(ctx context.Context, questionID, voterID string) (map[string]votes.Direction, error) {
	const query = `
		SELECT v.target_id, v.direction
		FROM votes v
		JOIN comments c ON c.id = v.target_id
		WHERE v.target_kind = 'comment' AND v.voter_id = $2
			AND (c.question_id = $1 OR c.answer_id IN (SELECT id FROM answers WHERE question_id = $1))
	`
	return s.voteMap(ctx, query, questionID, voterID)
}

func (s *PostgresStore) voteMap(ctx context.Context, query, questionID, voterID string) (map[string]votes.Direction, error) {
	rows, err := s.db.QueryContext(ctx, query, questionID, voterID)
	if err != nil {
		return nil, fmt.Errorf("prior votes: %w", err)
	}
	defer rows.Close()

	result := map[string]votes.Direction{}
	for rows.Next() {
		var targetID, direction string
		if err := rows.Scan(&targetID, &direction); err != nil {
			return nil, fmt.Errorf("scan vote: %w", err)
		}
		result[targetID] = votes.Direction(direction)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate votes: %w", err)
	}
	return result, nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

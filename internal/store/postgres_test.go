package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"quorum/api/internal/question"
	"quorum/api/internal/votes"
)

// pgx encodes string slices as postgres arrays, so `= ANY($1)` takes a
// []string argument. sqlmock's default converter rejects slices; pass them
// through so those queries stay testable.
type sliceArgConverter struct{}

func (sliceArgConverter) ConvertValue(v any) (driver.Value, error) {
	if names, ok := v.([]string); ok {
		return names, nil
	}
	return driver.DefaultParameterConverter.ConvertValue(v)
}

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.ValueConverterOption(sliceArgConverter{}))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(db), mock
}

func TestGetQuestionByID(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT q\.id, q\.author_id, q\.slug, q\.view_count, q\.created_at`).
		WithArgs("q_1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "author_id", "slug", "view_count", "created_at",
			"qi_id", "title", "description", "editor_id", "comment", "qi_created_at",
		}).AddRow("q_1", "usr_1", "how-to-go", int64(7), now,
			"qi_2", "How to Go", "details", "usr_1", "fixed wording", now))

	mock.ExpectQuery(`SELECT t\.id, t\.name`).
		WithArgs("qi_2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow("t_1", "go").
			AddRow("t_2", "web"))

	q, err := store.GetQuestionByID(context.Background(), "q_1")
	require.NoError(t, err)
	require.Equal(t, "q_1", q.ID)
	require.Equal(t, "usr_1", q.AuthorID)
	require.Equal(t, "qi_2", q.InformationID)
	require.Equal(t, int64(7), q.ViewCount)
	require.Len(t, q.Information.Tags, 2)
	require.Equal(t, "go", q.Information.Tags[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetQuestionByIDNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT q\.id, q\.author_id`).
		WithArgs("q_missing").
		WillReturnError(sql.ErrNoRows)

	_, err := store.GetQuestionByID(context.Background(), "q_missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindTagsByNames(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id, name FROM tags WHERE name = ANY\(\$1\)`).
		WithArgs([]string{"go", "java", "rust"}).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow("t_1", "go").
			AddRow("t_2", "java"))

	tags, err := store.FindTagsByNames(context.Background(), []string{"go", "java", "rust"})
	require.NoError(t, err)
	require.Len(t, tags, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindTagsByNamesEmptyInput(t *testing.T) {
	store, mock := newMockStore(t)

	tags, err := store.FindTagsByNames(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, tags)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateQuestionTransaction(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO questions`).
		WithArgs("q_1", "usr_1", "how-to-go").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO question_informations`).
		WithArgs("qi_1", "q_1", "How to Go", "details", "usr_1", "new question").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO question_information_tags`).
		WithArgs("qi_1", "t_1", 0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE questions SET current_information_id`).
		WithArgs("qi_1", "q_1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	q := question.Question{
		ID:       "q_1",
		AuthorID: "usr_1",
		Slug:     "how-to-go",
		Information: question.Information{
			ID:          "qi_1",
			Title:       "How to Go",
			Description: "details",
			EditorID:    "usr_1",
			Comment:     "new question",
			Tags:        []question.Tag{{ID: "t_1", Name: "go"}},
		},
	}
	require.NoError(t, store.CreateQuestion(context.Background(), q))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateQuestionRollsBackOnFailure(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO questions`).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := store.CreateQuestion(context.Background(), question.Question{
		ID:          "q_1",
		Information: question.Information{ID: "qi_1"},
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveRevisionAppendsAndAdvancesPointer(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO question_informations`).
		WithArgs("qi_2", "q_1", "New title", "body", "usr_2", "clarified").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE questions SET current_information_id`).
		WithArgs("qi_2", "new-title", "q_1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	info := question.Information{
		ID:          "qi_2",
		Title:       "New title",
		Description: "body",
		EditorID:    "usr_2",
		Comment:     "clarified",
	}
	require.NoError(t, store.SaveRevision(context.Background(), "q_1", info, "new-title"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveRevisionUnknownQuestion(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO question_informations`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE questions SET current_information_id`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := store.SaveRevision(context.Background(), "q_ghost", question.Information{ID: "qi_2"}, "slug")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrementViewCount(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`UPDATE questions SET view_count = view_count \+ 1`).
		WithArgs("q_1").
		WillReturnRows(sqlmock.NewRows([]string{"view_count"}).AddRow(int64(42)))

	total, err := store.IncrementViewCount(context.Background(), "q_1")
	require.NoError(t, err)
	require.Equal(t, int64(42), total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPriorVote(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT direction FROM votes`).
		WithArgs("q_1", "usr_1", "question").
		WillReturnRows(sqlmock.NewRows([]string{"direction"}).AddRow("up"))

	direction, err := store.PriorVote(context.Background(), "q_1", "usr_1", votes.KindQuestion)
	require.NoError(t, err)
	require.Equal(t, votes.DirectionUp, direction)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPriorVoteNone(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT direction FROM votes`).
		WithArgs("q_1", "usr_1", "question").
		WillReturnError(sql.ErrNoRows)

	direction, err := store.PriorVote(context.Background(), "q_1", "usr_1", votes.KindQuestion)
	require.NoError(t, err)
	require.Equal(t, votes.DirectionNone, direction)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPriorVotesForAnswers(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`FROM votes v\s+JOIN answers a ON a\.id = v\.target_id`).
		WithArgs("q_1", "usr_1").
		WillReturnRows(sqlmock.NewRows([]string{"target_id", "direction"}).
			AddRow("ans_1", "up").
			AddRow("ans_2", "down"))

	result, err := store.PriorVotesForAnswers(context.Background(), "q_1", "usr_1")
	require.NoError(t, err)
	require.Equal(t, votes.DirectionUp, result["ans_1"])
	require.Equal(t, votes.DirectionDown, result["ans_2"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPriorVotesForComments(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`FROM votes v\s+JOIN comments c ON c\.id = v\.target_id`).
		WithArgs("q_1", "usr_1").
		WillReturnRows(sqlmock.NewRows([]string{"target_id", "direction"}).
			AddRow("cmt_1", "up"))

	result, err := store.PriorVotesForComments(context.Background(), "q_1", "usr_1")
	require.NoError(t, err)
	require.Equal(t, votes.DirectionUp, result["cmt_1"])
	require.NoError(t, mock.ExpectationsWereMet())
}

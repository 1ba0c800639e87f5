package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/keneanapp/kenean/core"
	"github.com/keneanapp/kenean/core/catalog"
	"github.com/keneanapp/kenean/core/qa"
	"github.com/keneanapp/kenean/core/user"
)

const pqUniqueViolation = "23505"

type dbQuestion struct {
	ID          string         `db:"id"`
	Content     string         `db:"content"`
	Status      string         `db:"status"`
	UserID      string         `db:"user_id"`
	LessonID    sql.NullString `db:"lesson_id"`
	ClaimedByID sql.NullString `db:"claimed_by_id"`
	ClaimedAt   *time.Time     `db:"claimed_at"`
	CreatedAt   time.Time      `db:"created_at"`

	AskerName        string         `db:"asker_name"`
	ClaimerName      sql.NullString `db:"claimer_name"`
	LessonTitle      sql.NullString `db:"lesson_title"`
	LessonTitleAm    sql.NullString `db:"lesson_title_amharic"`
	LessonTitleGeez  sql.NullString `db:"lesson_title_geez"`
	AnswerID         sql.NullString `db:"answer_id"`
	AnswerAuthorID   sql.NullString `db:"answer_author_id"`
	AnswerAuthorName sql.NullString `db:"answer_author_name"`
	AnswerContent    sql.NullString `db:"answer_content"`
	AnswerAttach     []byte         `db:"answer_attachments"`
	AnswerCreatedAt  *time.Time     `db:"answer_created_at"`
	AnswerUpdatedAt  *time.Time     `db:"answer_updated_at"`
	DiscussionCount  int            `db:"discussion_count"`
}

func (q dbQuestion) toCore() qa.Question {
	question := qa.Question{
		ID:              q.ID,
		Content:         q.Content,
		Status:          qa.Status(q.Status),
		UserID:          q.UserID,
		LessonID:        q.LessonID.String,
		ClaimedByID:     q.ClaimedByID.String,
		CreatedAt:       q.CreatedAt.UTC(),
		Asker:           &user.Summary{ID: q.UserID, Name: q.AskerName},
		DiscussionCount: q.DiscussionCount,
	}
	if q.ClaimedAt != nil {
		at := q.ClaimedAt.UTC()
		question.ClaimedAt = &at
	}
	if q.ClaimedByID.Valid {
		question.ClaimedBy = &user.Summary{ID: q.ClaimedByID.String, Name: q.ClaimerName.String}
	}
	if q.LessonID.Valid {
		question.Lesson = &catalog.LessonSummary{
			ID:           q.LessonID.String,
			Title:        q.LessonTitle.String,
			TitleAmharic: q.LessonTitleAm.String,
			TitleGeez:    q.LessonTitleGeez.String,
		}
	}
	if q.AnswerID.Valid {
		ans := qa.Answer{
			ID:          q.AnswerID.String,
			QuestionID:  q.ID,
			AuthorID:    q.AnswerAuthorID.String,
			Content:     q.AnswerContent.String,
			Attachments: decodeAttachments(q.AnswerAttach),
			Author:      &user.Summary{ID: q.AnswerAuthorID.String, Name: q.AnswerAuthorName.String},
		}
		if q.AnswerCreatedAt != nil {
			ans.CreatedAt = q.AnswerCreatedAt.UTC()
		}
		if q.AnswerUpdatedAt != nil {
			ans.UpdatedAt = q.AnswerUpdatedAt.UTC()
		}
		question.Answer = &ans
	}
	return question
}

type dbAnswer struct {
	ID          string    `db:"id"`
	QuestionID  string    `db:"question_id"`
	AuthorID    string    `db:"author_id"`
	Content     string    `db:"content"`
	Attachments []byte    `db:"attachments"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
	AuthorName  string    `db:"author_name"`
}

func (a dbAnswer) toCore() qa.Answer {
	return qa.Answer{
		ID:          a.ID,
		QuestionID:  a.QuestionID,
		AuthorID:    a.AuthorID,
		Content:     a.Content,
		Attachments: decodeAttachments(a.Attachments),
		CreatedAt:   a.CreatedAt.UTC(),
		UpdatedAt:   a.UpdatedAt.UTC(),
		Author:      &user.Summary{ID: a.AuthorID, Name: a.AuthorName},
	}
}

type dbDiscussion struct {
	ID         string    `db:"id"`
	QuestionID string    `db:"question_id"`
	AuthorID   string    `db:"author_id"`
	Content    string    `db:"content"`
	CreatedAt  time.Time `db:"created_at"`
	AuthorName string    `db:"author_name"`
}

func (d dbDiscussion) toCore() qa.Discussion {
	return qa.Discussion{
		ID:         d.ID,
		QuestionID: d.QuestionID,
		AuthorID:   d.AuthorID,
		Content:    d.Content,
		CreatedAt:  d.CreatedAt.UTC(),
		Author:     &user.Summary{ID: d.AuthorID, Name: d.AuthorName},
	}
}

func decodeAttachments(raw []byte) []string {
	attachments := []string{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &attachments)
	}
	return attachments
}

func encodeAttachments(attachments []string) []byte {
	if attachments == nil {
		attachments = []string{}
	}
	raw, _ := json.Marshal(attachments)
	return raw
}

var questionColumns = []string{
	"q.id", "q.content", "q.status", "q.user_id", "q.lesson_id",
	"q.claimed_by_id", "q.claimed_at", "q.created_at",
	"u.name AS asker_name",
	"cb.name AS claimer_name",
	"l.title AS lesson_title", "l.title_amharic AS lesson_title_amharic", "l.title_geez AS lesson_title_geez",
	"a.id AS answer_id", "a.author_id AS answer_author_id", "au.name AS answer_author_name",
	"a.content AS answer_content", "a.attachments AS answer_attachments",
	"a.created_at AS answer_created_at", "a.updated_at AS answer_updated_at",
	"(SELECT COUNT(*) FROM admin_discussion d WHERE d.question_id = q.id) AS discussion_count",
}

type qaRepository struct {
	db *sqlx.DB
}

var _ qa.Repository = (*qaRepository)(nil) // interface compliance check

func NewQARepository(db *sqlx.DB) *qaRepository {
	return &qaRepository{db: db}
}

func (repo qaRepository) trapNoRowsErr(err, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// inTx runs fn inside a transaction on the repository's pool.
func (repo qaRepository) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

// Questions

func (repo qaRepository) questionSelect() sq.SelectBuilder {
	return psql.Select(questionColumns...).
		From("question q").
		Join(`"user" u ON u.id = q.user_id`).
		LeftJoin(`"user" cb ON cb.id = q.claimed_by_id`).
		LeftJoin("lesson l ON l.id = q.lesson_id").
		LeftJoin("answer a ON a.question_id = q.id").
		LeftJoin(`"user" au ON au.id = a.author_id`)
}

func (repo qaRepository) CreateQuestion(ctx context.Context, q qa.Question, exec ...core.DBExecutor) (qa.Question, error) {
	q.ID = uuid.New().String()
	var lessonID interface{}
	if q.LessonID != "" {
		lessonID = q.LessonID
	}
	query, args, err := psql.Insert("question").
		Columns("id", "content", "status", "user_id", "lesson_id", "created_at").
		Values(q.ID, q.Content, q.Status, q.UserID, lessonID, q.CreatedAt).
		ToSql()
	if err != nil {
		return qa.Question{}, errors.Wrap(err, "building query")
	}
	if _, err := getExec(repo.db, exec).ExecContext(ctx, query, args...); err != nil {
		return qa.Question{}, errors.Wrap(err, "inserting question")
	}
	return repo.GetQuestion(ctx, q.ID, exec...)
}

func (repo qaRepository) GetQuestion(ctx context.Context, id string, exec ...core.DBExecutor) (qa.Question, error) {
	query, args, err := repo.questionSelect().Where(sq.Eq{"q.id": id}).ToSql()
	if err != nil {
		return qa.Question{}, errors.Wrap(err, "building query")
	}

	var q dbQuestion
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &q, query, args...); err != nil {
		return qa.Question{}, repo.trapNoRowsErr(err, qa.ErrQuestionNotFound, "getting question")
	}
	return q.toCore(), nil
}

func applyQuestionFilter(b sq.SelectBuilder, filter *qa.QuestionFilter) sq.SelectBuilder {
	if filter == nil {
		return b
	}
	if filter.Status != "" {
		b = b.Where(sq.Eq{"q.status": filter.Status})
	}
	if filter.LessonID != "" {
		b = b.Where(sq.Eq{"q.lesson_id": filter.LessonID})
	}
	if filter.UserID != "" {
		b = b.Where(sq.Eq{"q.user_id": filter.UserID})
	}
	return b
}

func (repo qaRepository) QueryQuestions(ctx context.Context, filter *qa.QuestionFilter, exec ...core.DBExecutor) ([]qa.Question, int, error) {
	total, err := repo.CountQuestions(ctx, filter, exec...)
	if err != nil {
		return nil, 0, err
	}

	b := applyQuestionFilter(repo.questionSelect(), filter).OrderBy("q.created_at DESC")
	if filter != nil {
		if filter.Limit > 0 {
			b = b.Limit(uint64(filter.Limit))
		}
		if filter.Offset > 0 {
			b = b.Offset(uint64(filter.Offset))
		}
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, 0, errors.Wrap(err, "building query")
	}

	var rows []dbQuestion
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, query, args...); err != nil {
		return nil, 0, errors.Wrap(err, "querying questions")
	}
	questions := make([]qa.Question, 0, len(rows))
	for _, q := range rows {
		questions = append(questions, q.toCore())
	}
	return questions, total, nil
}

func (repo qaRepository) CountQuestions(ctx context.Context, filter *qa.QuestionFilter, exec ...core.DBExecutor) (int, error) {
	query, args, err := applyQuestionFilter(psql.Select("COUNT(*)").From("question q"), filter).ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building query")
	}
	var count int
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &count, query, args...); err != nil {
		return 0, errors.Wrap(err, "counting questions")
	}
	return count, nil
}

func (repo qaRepository) questionExists(ctx context.Context, id string, e sqlx.ExtContext) (bool, error) {
	query, args, err := psql.Select("COUNT(*)").From("question").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return false, errors.Wrap(err, "building query")
	}
	var count int
	if err := sqlx.GetContext(ctx, e, &count, query, args...); err != nil {
		return false, errors.Wrap(err, "checking question")
	}
	return count > 0, nil
}

// ClaimQuestion relies on a conditional UPDATE so two concurrent claims cannot
// both succeed: only the one that still sees status=PENDING wins.
func (repo qaRepository) ClaimQuestion(ctx context.Context, id string, claim qa.Claim, exec ...core.DBExecutor) (qa.Question, error) {
	e := getExec(repo.db, exec)
	query, args, err := psql.Update("question").
		SetMap(map[string]interface{}{
			"status":        qa.StatusClaimed,
			"claimed_by_id": claim.ByID,
			"claimed_at":    claim.At,
		}).
		Where(sq.Eq{"id": id, "status": qa.StatusPending}).
		ToSql()
	if err != nil {
		return qa.Question{}, errors.Wrap(err, "building query")
	}
	res, err := e.ExecContext(ctx, query, args...)
	if err != nil {
		return qa.Question{}, errors.Wrap(err, "claiming question")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		exists, err := repo.questionExists(ctx, id, e)
		if err != nil {
			return qa.Question{}, err
		}
		if !exists {
			return qa.Question{}, qa.ErrQuestionNotFound
		}
		return qa.Question{}, qa.ErrQuestionNotPending
	}
	return repo.GetQuestion(ctx, id, exec...)
}

func (repo qaRepository) UnclaimQuestion(ctx context.Context, id string, exec ...core.DBExecutor) (qa.Question, error) {
	e := getExec(repo.db, exec)
	query, args, err := psql.Update("question").
		SetMap(map[string]interface{}{
			"status":        qa.StatusPending,
			"claimed_by_id": nil,
			"claimed_at":    nil,
		}).
		Where(sq.Eq{"id": id, "status": []qa.Status{qa.StatusClaimed, qa.StatusDiscussing}}).
		ToSql()
	if err != nil {
		return qa.Question{}, errors.Wrap(err, "building query")
	}
	res, err := e.ExecContext(ctx, query, args...)
	if err != nil {
		return qa.Question{}, errors.Wrap(err, "unclaiming question")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		exists, err := repo.questionExists(ctx, id, e)
		if err != nil {
			return qa.Question{}, err
		}
		if !exists {
			return qa.Question{}, qa.ErrQuestionNotFound
		}
		return qa.Question{}, qa.ErrQuestionNotClaimed
	}
	return repo.GetQuestion(ctx, id, exec...)
}

func (repo qaRepository) markDiscussingQuery(id string, claim *qa.Claim) (string, []interface{}, error) {
	set := map[string]interface{}{"status": qa.StatusDiscussing}
	if claim != nil {
		set["claimed_by_id"] = claim.ByID
		set["claimed_at"] = claim.At
	}
	return psql.Update("question").SetMap(set).Where(sq.Eq{"id": id}).ToSql()
}

func (repo qaRepository) MarkDiscussing(ctx context.Context, id string, claim *qa.Claim, exec ...core.DBExecutor) (qa.Question, error) {
	query, args, err := repo.markDiscussingQuery(id, claim)
	if err != nil {
		return qa.Question{}, errors.Wrap(err, "building query")
	}
	res, err := getExec(repo.db, exec).ExecContext(ctx, query, args...)
	if err != nil {
		return qa.Question{}, errors.Wrap(err, "updating question")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return qa.Question{}, qa.ErrQuestionNotFound
	}
	return repo.GetQuestion(ctx, id, exec...)
}

func (repo qaRepository) DeleteQuestion(ctx context.Context, id string, exec ...core.DBExecutor) error {
	query, args, err := psql.Delete("question").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	res, err := getExec(repo.db, exec).ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "deleting question")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return qa.ErrQuestionNotFound
	}
	return nil
}

// Answers

func (repo qaRepository) answerSelect() sq.SelectBuilder {
	return psql.Select(
		"a.id", "a.question_id", "a.author_id", "a.content", "a.attachments",
		"a.created_at", "a.updated_at", "u.name AS author_name",
	).
		From("answer a").
		Join(`"user" u ON u.id = a.author_id`)
}

func (repo qaRepository) GetAnswer(ctx context.Context, id string, exec ...core.DBExecutor) (qa.Answer, error) {
	query, args, err := repo.answerSelect().Where(sq.Eq{"a.id": id}).ToSql()
	if err != nil {
		return qa.Answer{}, errors.Wrap(err, "building query")
	}

	var a dbAnswer
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &a, query, args...); err != nil {
		return qa.Answer{}, repo.trapNoRowsErr(err, qa.ErrAnswerNotFound, "getting answer")
	}
	return a.toCore(), nil
}

func (repo qaRepository) GetAnswerByQuestion(ctx context.Context, questionID string, exec ...core.DBExecutor) (qa.Answer, error) {
	query, args, err := repo.answerSelect().Where(sq.Eq{"a.question_id": questionID}).ToSql()
	if err != nil {
		return qa.Answer{}, errors.Wrap(err, "building query")
	}

	var a dbAnswer
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &a, query, args...); err != nil {
		return qa.Answer{}, repo.trapNoRowsErr(err, qa.ErrAnswerNotFound, "getting answer")
	}
	return a.toCore(), nil
}

func (repo qaRepository) CreateAnswer(ctx context.Context, ans qa.Answer, claim *qa.Claim, exec ...core.DBExecutor) (qa.Answer, error) {
	ans.ID = uuid.New().String()
	err := repo.inTx(ctx, func(tx *sqlx.Tx) error {
		query, args, err := psql.Insert("answer").
			Columns("id", "question_id", "author_id", "content", "attachments", "created_at", "updated_at").
			Values(ans.ID, ans.QuestionID, ans.AuthorID, ans.Content, encodeAttachments(ans.Attachments), ans.CreatedAt, ans.UpdatedAt).
			ToSql()
		if err != nil {
			return errors.Wrap(err, "building query")
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code == pqUniqueViolation {
				return qa.ErrAlreadyHasAnswer
			}
			return errors.Wrap(err, "inserting answer")
		}

		set := map[string]interface{}{"status": qa.StatusAnswered}
		if claim != nil {
			set["claimed_by_id"] = claim.ByID
			set["claimed_at"] = claim.At
		}
		query, args, err = psql.Update("question").SetMap(set).Where(sq.Eq{"id": ans.QuestionID}).ToSql()
		if err != nil {
			return errors.Wrap(err, "building query")
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return errors.Wrap(err, "updating question")
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return qa.ErrQuestionNotFound
		}
		return nil
	})
	if err != nil {
		return qa.Answer{}, err
	}
	return ans, nil
}

func (repo qaRepository) UpdateAnswer(ctx context.Context, ans qa.Answer, exec ...core.DBExecutor) (qa.Answer, error) {
	query, args, err := psql.Update("answer").
		SetMap(map[string]interface{}{
			"content":     ans.Content,
			"attachments": encodeAttachments(ans.Attachments),
			"updated_at":  ans.UpdatedAt,
		}).
		Where(sq.Eq{"id": ans.ID}).
		ToSql()
	if err != nil {
		return qa.Answer{}, errors.Wrap(err, "building query")
	}
	res, err := getExec(repo.db, exec).ExecContext(ctx, query, args...)
	if err != nil {
		return qa.Answer{}, errors.Wrap(err, "updating answer")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return qa.Answer{}, qa.ErrAnswerNotFound
	}
	return ans, nil
}

func (repo qaRepository) DeleteAnswer(ctx context.Context, id, questionID string, exec ...core.DBExecutor) error {
	return repo.inTx(ctx, func(tx *sqlx.Tx) error {
		query, args, err := psql.Delete("answer").Where(sq.Eq{"id": id}).ToSql()
		if err != nil {
			return errors.Wrap(err, "building query")
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return errors.Wrap(err, "deleting answer")
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return qa.ErrAnswerNotFound
		}

		query, args, err = psql.Update("question").
			Set("status", qa.StatusClaimed).
			Where(sq.Eq{"id": questionID}).
			ToSql()
		if err != nil {
			return errors.Wrap(err, "building query")
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return errors.Wrap(err, "updating question")
		}
		return nil
	})
}

// Discussions

func (repo qaRepository) discussionSelect() sq.SelectBuilder {
	return psql.Select(
		"d.id", "d.question_id", "d.author_id", "d.content", "d.created_at",
		"u.name AS author_name",
	).
		From("admin_discussion d").
		Join(`"user" u ON u.id = d.author_id`)
}

func (repo qaRepository) CreateDiscussion(ctx context.Context, d qa.Discussion, markDiscussing bool, claim *qa.Claim, exec ...core.DBExecutor) (qa.Discussion, error) {
	d.ID = uuid.New().String()
	err := repo.inTx(ctx, func(tx *sqlx.Tx) error {
		query, args, err := psql.Insert("admin_discussion").
			Columns("id", "question_id", "author_id", "content", "created_at").
			Values(d.ID, d.QuestionID, d.AuthorID, d.Content, d.CreatedAt).
			ToSql()
		if err != nil {
			return errors.Wrap(err, "building query")
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return errors.Wrap(err, "inserting discussion")
		}

		if !markDiscussing {
			return nil
		}
		query, args, err = repo.markDiscussingQuery(d.QuestionID, claim)
		if err != nil {
			return errors.Wrap(err, "building query")
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return errors.Wrap(err, "updating question")
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return qa.ErrQuestionNotFound
		}
		return nil
	})
	if err != nil {
		return qa.Discussion{}, err
	}
	return d, nil
}

func (repo qaRepository) GetDiscussion(ctx context.Context, id string, exec ...core.DBExecutor) (qa.Discussion, error) {
	query, args, err := repo.discussionSelect().Where(sq.Eq{"d.id": id}).ToSql()
	if err != nil {
		return qa.Discussion{}, errors.Wrap(err, "building query")
	}

	var d dbDiscussion
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &d, query, args...); err != nil {
		return qa.Discussion{}, repo.trapNoRowsErr(err, qa.ErrDiscussionNotFound, "getting discussion")
	}
	return d.toCore(), nil
}

func (repo qaRepository) QueryDiscussions(ctx context.Context, questionID string, exec ...core.DBExecutor) ([]qa.Discussion, error) {
	query, args, err := repo.discussionSelect().
		Where(sq.Eq{"d.question_id": questionID}).
		OrderBy("d.created_at ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}

	var rows []dbDiscussion
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying discussions")
	}
	discussions := make([]qa.Discussion, 0, len(rows))
	for _, d := range rows {
		discussions = append(discussions, d.toCore())
	}
	return discussions, nil
}

func (repo qaRepository) CountDiscussions(ctx context.Context, questionID string, exec ...core.DBExecutor) (int, error) {
	query, args, err := psql.Select("COUNT(*)").
		From("admin_discussion").
		Where(sq.Eq{"question_id": questionID}).
		ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building query")
	}
	var count int
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &count, query, args...); err != nil {
		return 0, errors.Wrap(err, "counting discussions")
	}
	return count, nil
}

func (repo qaRepository) UpdateDiscussion(ctx context.Context, d qa.Discussion, exec ...core.DBExecutor) (qa.Discussion, error) {
	query, args, err := psql.Update("admin_discussion").
		Set("content", d.Content).
		Where(sq.Eq{"id": d.ID}).
		ToSql()
	if err != nil {
		return qa.Discussion{}, errors.Wrap(err, "building query")
	}
	res, err := getExec(repo.db, exec).ExecContext(ctx, query, args...)
	if err != nil {
		return qa.Discussion{}, errors.Wrap(err, "updating discussion")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return qa.Discussion{}, qa.ErrDiscussionNotFound
	}
	return d, nil
}

func (repo qaRepository) DeleteDiscussion(ctx context.Context, id string, exec ...core.DBExecutor) error {
	query, args, err := psql.Delete("admin_discussion").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	res, err := getExec(repo.db, exec).ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "deleting discussion")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return qa.ErrDiscussionNotFound
	}
	return nil
}

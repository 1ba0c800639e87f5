package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/keneanapp/kenean/core"
	"github.com/keneanapp/kenean/core/qa"
)

type qaRepository struct {
	db *DB
}

var _ qa.Repository = (*qaRepository)(nil) // interface compliance check

func NewQARepository(db *DB) *qaRepository {
	return &qaRepository{db: db}
}

// expand fills a question's relations; callers must hold the lock.
func (repo *qaRepository) expand(q qa.Question) qa.Question {
	if usr, ok := repo.db.users[q.UserID]; ok {
		summary := usr.Summary()
		q.Asker = &summary
	}
	if q.ClaimedByID != "" {
		if usr, ok := repo.db.users[q.ClaimedByID]; ok {
			summary := usr.Summary()
			q.ClaimedBy = &summary
		}
	} else {
		q.ClaimedBy = nil
	}
	if q.LessonID != "" {
		if lsn, ok := repo.db.lessons[q.LessonID]; ok {
			summary := lsn.Summary()
			q.Lesson = &summary
		}
	}
	q.Answer = nil
	for _, ans := range repo.db.answers {
		if ans.QuestionID == q.ID {
			a := repo.expandAnswer(*ans)
			q.Answer = &a
			break
		}
	}
	q.DiscussionCount = 0
	for _, d := range repo.db.discussions {
		if d.QuestionID == q.ID {
			q.DiscussionCount++
		}
	}
	return q
}

// callers must hold the lock
func (repo *qaRepository) expandAnswer(ans qa.Answer) qa.Answer {
	if usr, ok := repo.db.users[ans.AuthorID]; ok {
		summary := usr.Summary()
		ans.Author = &summary
	}
	return ans
}

// callers must hold the lock
func (repo *qaRepository) expandDiscussion(d qa.Discussion) qa.Discussion {
	if usr, ok := repo.db.users[d.AuthorID]; ok {
		summary := usr.Summary()
		d.Author = &summary
	}
	return d
}

// Questions

func (repo *qaRepository) CreateQuestion(ctx context.Context, q qa.Question, exec ...core.DBExecutor) (qa.Question, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	q.ID = uuid.New().String()
	stored := q
	repo.db.questions[q.ID] = &stored
	return repo.expand(q), nil
}

func (repo *qaRepository) GetQuestion(ctx context.Context, id string, exec ...core.DBExecutor) (qa.Question, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	q, ok := repo.db.questions[id]
	if !ok {
		return qa.Question{}, qa.ErrQuestionNotFound
	}
	return repo.expand(*q), nil
}

func matchesQuestionFilter(q qa.Question, filter *qa.QuestionFilter) bool {
	if filter == nil {
		return true
	}
	if filter.Status != "" && q.Status != filter.Status {
		return false
	}
	if filter.LessonID != "" && q.LessonID != filter.LessonID {
		return false
	}
	if filter.UserID != "" && q.UserID != filter.UserID {
		return false
	}
	return true
}

func (repo *qaRepository) QueryQuestions(ctx context.Context, filter *qa.QuestionFilter, exec ...core.DBExecutor) ([]qa.Question, int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	questions := make([]qa.Question, 0)
	for _, q := range repo.db.questions {
		if matchesQuestionFilter(*q, filter) {
			questions = append(questions, repo.expand(*q))
		}
	}
	sort.Slice(questions, func(i, j int) bool {
		return questions[i].CreatedAt.After(questions[j].CreatedAt)
	})

	total := len(questions)
	if filter != nil {
		if filter.Offset > 0 {
			if filter.Offset >= len(questions) {
				return []qa.Question{}, total, nil
			}
			questions = questions[filter.Offset:]
		}
		if filter.Limit > 0 && filter.Limit < len(questions) {
			questions = questions[:filter.Limit]
		}
	}
	return questions, total, nil
}

func (repo *qaRepository) CountQuestions(ctx context.Context, filter *qa.QuestionFilter, exec ...core.DBExecutor) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	count := 0
	for _, q := range repo.db.questions {
		if matchesQuestionFilter(*q, filter) {
			count++
		}
	}
	return count, nil
}

func (repo *qaRepository) ClaimQuestion(ctx context.Context, id string, claim qa.Claim, exec ...core.DBExecutor) (qa.Question, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	q, ok := repo.db.questions[id]
	if !ok {
		return qa.Question{}, qa.ErrQuestionNotFound
	}
	// status gate: only a PENDING question can be claimed
	if q.Status != qa.StatusPending {
		return qa.Question{}, qa.ErrQuestionNotPending
	}
	q.Status = qa.StatusClaimed
	q.ClaimedByID = claim.ByID
	at := claim.At
	q.ClaimedAt = &at
	return repo.expand(*q), nil
}

func (repo *qaRepository) UnclaimQuestion(ctx context.Context, id string, exec ...core.DBExecutor) (qa.Question, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	q, ok := repo.db.questions[id]
	if !ok {
		return qa.Question{}, qa.ErrQuestionNotFound
	}
	if q.Status != qa.StatusClaimed && q.Status != qa.StatusDiscussing {
		return qa.Question{}, qa.ErrQuestionNotClaimed
	}
	q.Status = qa.StatusPending
	q.ClaimedByID = ""
	q.ClaimedAt = nil
	return repo.expand(*q), nil
}

// applyClaim mutates q; callers must hold the write lock.
func applyClaim(q *qa.Question, claim *qa.Claim) {
	if claim == nil {
		return
	}
	q.ClaimedByID = claim.ByID
	at := claim.At
	q.ClaimedAt = &at
}

func (repo *qaRepository) MarkDiscussing(ctx context.Context, id string, claim *qa.Claim, exec ...core.DBExecutor) (qa.Question, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	q, ok := repo.db.questions[id]
	if !ok {
		return qa.Question{}, qa.ErrQuestionNotFound
	}
	q.Status = qa.StatusDiscussing
	applyClaim(q, claim)
	return repo.expand(*q), nil
}

func (repo *qaRepository) DeleteQuestion(ctx context.Context, id string, exec ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.questions[id]; !ok {
		return qa.ErrQuestionNotFound
	}
	delete(repo.db.questions, id)
	// cascade
	for aid, ans := range repo.db.answers {
		if ans.QuestionID == id {
			delete(repo.db.answers, aid)
		}
	}
	for did, d := range repo.db.discussions {
		if d.QuestionID == id {
			delete(repo.db.discussions, did)
		}
	}
	return nil
}

// Answers

func (repo *qaRepository) GetAnswer(ctx context.Context, id string, exec ...core.DBExecutor) (qa.Answer, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if ans, ok := repo.db.answers[id]; ok {
		return repo.expandAnswer(*ans), nil
	}
	return qa.Answer{}, qa.ErrAnswerNotFound
}

func (repo *qaRepository) GetAnswerByQuestion(ctx context.Context, questionID string, exec ...core.DBExecutor) (qa.Answer, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, ans := range repo.db.answers {
		if ans.QuestionID == questionID {
			return repo.expandAnswer(*ans), nil
		}
	}
	return qa.Answer{}, qa.ErrAnswerNotFound
}

func (repo *qaRepository) CreateAnswer(ctx context.Context, ans qa.Answer, claim *qa.Claim, exec ...core.DBExecutor) (qa.Answer, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	q, ok := repo.db.questions[ans.QuestionID]
	if !ok {
		return qa.Answer{}, qa.ErrQuestionNotFound
	}
	// one answer per question
	for _, existing := range repo.db.answers {
		if existing.QuestionID == ans.QuestionID {
			return qa.Answer{}, qa.ErrAlreadyHasAnswer
		}
	}

	ans.ID = uuid.New().String()
	stored := ans
	repo.db.answers[ans.ID] = &stored

	q.Status = qa.StatusAnswered
	applyClaim(q, claim)
	return repo.expandAnswer(ans), nil
}

func (repo *qaRepository) UpdateAnswer(ctx context.Context, ans qa.Answer, exec ...core.DBExecutor) (qa.Answer, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.answers[ans.ID]; !ok {
		return qa.Answer{}, qa.ErrAnswerNotFound
	}
	stored := ans
	repo.db.answers[ans.ID] = &stored
	return repo.expandAnswer(ans), nil
}

func (repo *qaRepository) DeleteAnswer(ctx context.Context, id, questionID string, exec ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.answers[id]; !ok {
		return qa.ErrAnswerNotFound
	}
	delete(repo.db.answers, id)
	if q, ok := repo.db.questions[questionID]; ok {
		q.Status = qa.StatusClaimed
	}
	return nil
}

// Discussions

func (repo *qaRepository) CreateDiscussion(ctx context.Context, d qa.Discussion, markDiscussing bool, claim *qa.Claim, exec ...core.DBExecutor) (qa.Discussion, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	q, ok := repo.db.questions[d.QuestionID]
	if !ok {
		return qa.Discussion{}, qa.ErrQuestionNotFound
	}

	d.ID = uuid.New().String()
	stored := d
	repo.db.discussions[d.ID] = &stored

	if markDiscussing {
		q.Status = qa.StatusDiscussing
		applyClaim(q, claim)
	}
	return repo.expandDiscussion(d), nil
}

func (repo *qaRepository) GetDiscussion(ctx context.Context, id string, exec ...core.DBExecutor) (qa.Discussion, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if d, ok := repo.db.discussions[id]; ok {
		return repo.expandDiscussion(*d), nil
	}
	return qa.Discussion{}, qa.ErrDiscussionNotFound
}

func (repo *qaRepository) QueryDiscussions(ctx context.Context, questionID string, exec ...core.DBExecutor) ([]qa.Discussion, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	discussions := make([]qa.Discussion, 0)
	for _, d := range repo.db.discussions {
		if d.QuestionID == questionID {
			discussions = append(discussions, repo.expandDiscussion(*d))
		}
	}
	sort.Slice(discussions, func(i, j int) bool {
		return discussions[i].CreatedAt.Before(discussions[j].CreatedAt)
	})
	return discussions, nil
}

func (repo *qaRepository) CountDiscussions(ctx context.Context, questionID string, exec ...core.DBExecutor) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	count := 0
	for _, d := range repo.db.discussions {
		if d.QuestionID == questionID {
			count++
		}
	}
	return count, nil
}

func (repo *qaRepository) UpdateDiscussion(ctx context.Context, d qa.Discussion, exec ...core.DBExecutor) (qa.Discussion, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.discussions[d.ID]; !ok {
		return qa.Discussion{}, qa.ErrDiscussionNotFound
	}
	stored := d
	repo.db.discussions[d.ID] = &stored
	return repo.expandDiscussion(d), nil
}

func (repo *qaRepository) DeleteDiscussion(ctx context.Context, id string, exec ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.discussions[id]; !ok {
		return qa.ErrDiscussionNotFound
	}
	delete(repo.db.discussions, id)
	return nil
}

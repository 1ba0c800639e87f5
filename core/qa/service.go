package qa

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/keneanapp/kenean/core"
	"github.com/keneanapp/kenean/core/catalog"
	"github.com/keneanapp/kenean/core/user"
)

var (
	// errors
	ErrQuestionNotFound   = errors.New("question not found")
	ErrAnswerNotFound     = errors.New("answer not found")
	ErrDiscussionNotFound = errors.New("discussion not found")

	ErrAlreadyClaimedByYou    = errors.New("you have already claimed this question")
	ErrAlreadyClaimed         = errors.New("this question has already been claimed")
	ErrCannotUnclaimAnswered  = errors.New("cannot unclaim an answered question")
	ErrNotClaimed             = errors.New("question is not claimed")
	ErrAlreadyAnswered        = errors.New("question is already answered")
	ErrAlreadyHasAnswer       = errors.New("this question already has an answer")
	ErrCannotDiscussAnswered  = errors.New("cannot discuss an already answered question")
	ErrNotAnswerAuthor        = errors.New("you can only edit your own answers")
	ErrNotCommentAuthor       = errors.New("you can only edit your own comments")
	ErrCannotDeleteComment    = errors.New("you can only delete your own comments")
	ErrAttachmentNotFound     = errors.New("attachment not found")
	ErrPermissionDenied       = errors.New("permission denied")

	// ErrQuestionNotPending is returned by Repository.ClaimQuestion when the
	// conditional update matched no PENDING row; the service re-reads the
	// question to tell "claimed by you" from "claimed by someone else".
	ErrQuestionNotPending = errors.New("question is no longer pending")
	// ErrQuestionNotClaimed is the repository-level gate failure for unclaim.
	ErrQuestionNotClaimed = errors.New("question is not in a claimed state")
)

const (
	defaultPublicPageSize = 10
	defaultAdminPageSize  = 20
)

type (
	// LessonGetter is the slice of the catalog service the engine needs.
	LessonGetter interface {
		GetLesson(ctx context.Context, id string) (catalog.Lesson, error)
	}

	// UserGetter resolves askers for answer notifications.
	UserGetter interface {
		GetByID(ctx context.Context, id string) (user.User, error)
	}

	Repository interface {
		CreateQuestion(ctx context.Context, q Question, exec ...core.DBExecutor) (Question, error)
		// GetQuestion returns the question with its relations expanded
		// (asker, lesson, claimer, answer, discussion count).
		GetQuestion(ctx context.Context, id string, exec ...core.DBExecutor) (Question, error)
		// QueryQuestions applies AND on available filter fields, orders by
		// CreatedAt descending and returns the page plus the unpaginated total.
		QueryQuestions(ctx context.Context, filter *QuestionFilter, exec ...core.DBExecutor) ([]Question, int, error)
		CountQuestions(ctx context.Context, filter *QuestionFilter, exec ...core.DBExecutor) (int, error)
		// ClaimQuestion conditionally claims a question that is still PENDING.
		// ErrQuestionNotPending when the status gate failed, ErrQuestionNotFound
		// when no such question exists.
		ClaimQuestion(ctx context.Context, id string, claim Claim, exec ...core.DBExecutor) (Question, error)
		// UnclaimQuestion resets a CLAIMED or DISCUSSING question to PENDING and
		// clears the claim; ErrQuestionNotClaimed when the status gate failed.
		UnclaimQuestion(ctx context.Context, id string, exec ...core.DBExecutor) (Question, error)
		// MarkDiscussing flips the status to DISCUSSING, applying claim when non-nil.
		MarkDiscussing(ctx context.Context, id string, claim *Claim, exec ...core.DBExecutor) (Question, error)
		// DeleteQuestion removes the question and its answer and discussions.
		DeleteQuestion(ctx context.Context, id string, exec ...core.DBExecutor) error

		GetAnswer(ctx context.Context, id string, exec ...core.DBExecutor) (Answer, error)
		GetAnswerByQuestion(ctx context.Context, questionID string, exec ...core.DBExecutor) (Answer, error)
		// CreateAnswer inserts the answer and marks its question ANSWERED
		// (applying claim when non-nil) as a single atomic operation.
		// ErrAlreadyHasAnswer when the question already has one.
		CreateAnswer(ctx context.Context, ans Answer, claim *Claim, exec ...core.DBExecutor) (Answer, error)
		UpdateAnswer(ctx context.Context, ans Answer, exec ...core.DBExecutor) (Answer, error)
		// DeleteAnswer removes the answer and returns its question to CLAIMED
		// as a single atomic operation.
		DeleteAnswer(ctx context.Context, id, questionID string, exec ...core.DBExecutor) error

		// CreateDiscussion inserts the comment; when markDiscussing is true the
		// question flips to DISCUSSING (applying claim when non-nil) atomically.
		CreateDiscussion(ctx context.Context, d Discussion, markDiscussing bool, claim *Claim, exec ...core.DBExecutor) (Discussion, error)
		GetDiscussion(ctx context.Context, id string, exec ...core.DBExecutor) (Discussion, error)
		// QueryDiscussions returns a question's comments ordered by CreatedAt ascending.
		QueryDiscussions(ctx context.Context, questionID string, exec ...core.DBExecutor) ([]Discussion, error)
		CountDiscussions(ctx context.Context, questionID string, exec ...core.DBExecutor) (int, error)
		UpdateDiscussion(ctx context.Context, d Discussion, exec ...core.DBExecutor) (Discussion, error)
		DeleteDiscussion(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	Service interface {
		Submit(ctx context.Context, actor user.User, sq SubmitQuestion) (Question, error)
		Get(ctx context.Context, actor user.User, id string) (Question, error)
		QueryAnswered(ctx context.Context, filter *QuestionFilter) (QuestionPage, error)
		QueryAll(ctx context.Context, actor user.User, filter *QuestionFilter) (QuestionPage, error)
		QueryMine(ctx context.Context, actor user.User, filter *QuestionFilter) (QuestionPage, error)
		PendingCount(ctx context.Context, actor user.User) (int, error)
		// CountByStatus counts questions in the given status; empty counts all.
		CountByStatus(ctx context.Context, actor user.User, status Status) (int, error)
		Claim(ctx context.Context, actor user.User, id string) (Question, error)
		Unclaim(ctx context.Context, actor user.User, id string) (Question, error)
		StartDiscussing(ctx context.Context, actor user.User, id string) (Question, error)
		Delete(ctx context.Context, actor user.User, id string) error

		Answer(ctx context.Context, actor user.User, questionID string, sa SubmitAnswer) (Answer, error)
		GetAnswerByQuestion(ctx context.Context, questionID string) (Answer, error)
		UpdateAnswer(ctx context.Context, actor user.User, id string, ap AnswerPatch) (Answer, error)
		DeleteAnswer(ctx context.Context, actor user.User, id string) error
		AddAttachment(ctx context.Context, actor user.User, answerID, url string) (Answer, error)
		RemoveAttachment(ctx context.Context, actor user.User, answerID, url string) (Answer, error)

		Discuss(ctx context.Context, actor user.User, questionID string, ad AddDiscussion) (Discussion, error)
		QueryDiscussions(ctx context.Context, actor user.User, questionID string) ([]Discussion, error)
		CountDiscussions(ctx context.Context, actor user.User, questionID string) (int, error)
		UpdateDiscussion(ctx context.Context, actor user.User, id string, ad AddDiscussion) (Discussion, error)
		DeleteDiscussion(ctx context.Context, actor user.User, id string) error
	}

	service struct {
		repo        Repository
		lessons     LessonGetter
		users       UserGetter
		mailSvc     core.EmailService
		invalidator core.ViewInvalidator
		conf        *core.Config
	}
)

var _ Service = (*service)(nil)

func NewService(
	repo Repository,
	lessons LessonGetter,
	users UserGetter,
	mailSvc core.EmailService,
	invalidator core.ViewInvalidator,
	conf *core.Config,
) *service {
	return &service{
		repo:        repo,
		lessons:     lessons,
		users:       users,
		mailSvc:     mailSvc,
		invalidator: invalidator,
		conf:        conf,
	}
}

// claimIfUnclaimed returns the claim to apply when an answer or comment lands
// on a question nobody owns yet; nil when the question is already claimed.
func claimIfUnclaimed(q Question, actor user.User, now time.Time) *Claim {
	if q.Status == StatusPending {
		return &Claim{ByID: actor.ID, At: now}
	}
	return nil
}

// Questions

func (svc *service) Submit(ctx context.Context, actor user.User, sq SubmitQuestion) (Question, error) {
	if sq.LessonID != "" {
		if _, err := svc.lessons.GetLesson(ctx, sq.LessonID); err != nil {
			return Question{}, err
		}
	}
	q := Question{
		Content:   sq.Content,
		Status:    StatusPending,
		UserID:    actor.ID,
		LessonID:  sq.LessonID,
		CreatedAt: time.Now().UTC(),
	}
	q, err := svc.repo.CreateQuestion(ctx, q)
	if err != nil {
		return Question{}, err
	}
	svc.invalidator.InvalidateViews("questions", "admin:questions")
	return q, nil
}

// Get applies the visibility rule: non-staff callers only ever see ANSWERED
// questions (their own are reachable through QueryMine), so an unanswered
// question is indistinguishable from a missing one.
func (svc *service) Get(ctx context.Context, actor user.User, id string) (Question, error) {
	q, err := svc.repo.GetQuestion(ctx, id)
	if err != nil {
		return Question{}, err
	}
	if q.Status != StatusAnswered && !actor.IsStaff() {
		return Question{}, ErrQuestionNotFound
	}
	return q, nil
}

func (svc *service) QueryAnswered(ctx context.Context, filter *QuestionFilter) (QuestionPage, error) {
	if filter == nil {
		filter = &QuestionFilter{}
	}
	filter.Status = StatusAnswered
	if filter.Limit <= 0 {
		filter.Limit = defaultPublicPageSize
	}
	return svc.page(ctx, filter)
}

func (svc *service) QueryAll(ctx context.Context, actor user.User, filter *QuestionFilter) (QuestionPage, error) {
	if !actor.IsStaff() {
		return QuestionPage{}, ErrPermissionDenied
	}
	if filter == nil {
		filter = &QuestionFilter{}
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultAdminPageSize
	}
	return svc.page(ctx, filter)
}

func (svc *service) QueryMine(ctx context.Context, actor user.User, filter *QuestionFilter) (QuestionPage, error) {
	if filter == nil {
		filter = &QuestionFilter{}
	}
	filter.UserID = actor.ID
	if filter.Limit <= 0 {
		filter.Limit = defaultPublicPageSize
	}
	return svc.page(ctx, filter)
}

func (svc *service) page(ctx context.Context, filter *QuestionFilter) (QuestionPage, error) {
	qs, total, err := svc.repo.QueryQuestions(ctx, filter)
	if err != nil {
		return QuestionPage{}, err
	}
	return QuestionPage{
		Questions: qs,
		Total:     total,
		HasMore:   filter.Offset+filter.Limit < total,
	}, nil
}

func (svc *service) PendingCount(ctx context.Context, actor user.User) (int, error) {
	return svc.CountByStatus(ctx, actor, StatusPending)
}

func (svc *service) CountByStatus(ctx context.Context, actor user.User, status Status) (int, error) {
	if !actor.IsStaff() {
		return 0, ErrPermissionDenied
	}
	return svc.repo.CountQuestions(ctx, &QuestionFilter{Status: status})
}

func (svc *service) Claim(ctx context.Context, actor user.User, id string) (Question, error) {
	if !actor.IsStaff() {
		return Question{}, ErrPermissionDenied
	}
	claim := Claim{ByID: actor.ID, At: time.Now().UTC()}
	q, err := svc.repo.ClaimQuestion(ctx, id, claim)
	if err != nil {
		if errors.Cause(err) != ErrQuestionNotPending {
			return Question{}, err
		}
		// lost the race (or claimed earlier); re-read to report precisely
		q, err = svc.repo.GetQuestion(ctx, id)
		if err != nil {
			return Question{}, err
		}
		if q.ClaimedByID == actor.ID {
			return Question{}, ErrAlreadyClaimedByYou
		}
		return Question{}, ErrAlreadyClaimed
	}
	svc.invalidator.InvalidateViews("admin:questions")
	return q, nil
}

func (svc *service) Unclaim(ctx context.Context, actor user.User, id string) (Question, error) {
	if !actor.IsStaff() {
		return Question{}, ErrPermissionDenied
	}
	q, err := svc.repo.UnclaimQuestion(ctx, id)
	if err != nil {
		if errors.Cause(err) != ErrQuestionNotClaimed {
			return Question{}, err
		}
		q, err = svc.repo.GetQuestion(ctx, id)
		if err != nil {
			return Question{}, err
		}
		if q.Status == StatusAnswered {
			return Question{}, ErrCannotUnclaimAnswered
		}
		return Question{}, ErrNotClaimed
	}
	svc.invalidator.InvalidateViews("admin:questions")
	return q, nil
}

func (svc *service) StartDiscussing(ctx context.Context, actor user.User, id string) (Question, error) {
	if !actor.IsStaff() {
		return Question{}, ErrPermissionDenied
	}
	q, err := svc.repo.GetQuestion(ctx, id)
	if err != nil {
		return Question{}, err
	}
	if q.Status == StatusAnswered {
		return Question{}, ErrAlreadyAnswered
	}
	claim := claimIfUnclaimed(q, actor, time.Now().UTC())
	q, err = svc.repo.MarkDiscussing(ctx, id, claim)
	if err != nil {
		return Question{}, err
	}
	svc.invalidator.InvalidateViews("admin:questions")
	return q, nil
}

func (svc *service) Delete(ctx context.Context, actor user.User, id string) error {
	if !actor.IsStaff() {
		return ErrPermissionDenied
	}
	if err := svc.repo.DeleteQuestion(ctx, id); err != nil {
		return err
	}
	svc.invalidator.InvalidateViews("questions", "admin:questions")
	return nil
}

// Answers

func (svc *service) Answer(ctx context.Context, actor user.User, questionID string, sa SubmitAnswer) (Answer, error) {
	ans, q, err := svc.answer(ctx, actor, questionID, sa)
	if err != nil {
		return Answer{}, err
	}
	go svc.sendAnswerMail(q)
	return ans, nil
}

// answer creates the answer and flips the question to ANSWERED; mail delivery
// is left to the caller so tests can run it synchronously.
func (svc *service) answer(ctx context.Context, actor user.User, questionID string, sa SubmitAnswer) (Answer, Question, error) {
	if !actor.IsStaff() {
		return Answer{}, Question{}, ErrPermissionDenied
	}
	q, err := svc.repo.GetQuestion(ctx, questionID)
	if err != nil {
		return Answer{}, Question{}, err
	}
	if q.Answer != nil || q.Status == StatusAnswered {
		return Answer{}, Question{}, ErrAlreadyHasAnswer
	}

	now := time.Now().UTC()
	ans := Answer{
		QuestionID:  questionID,
		AuthorID:    actor.ID,
		Content:     sa.Content,
		Attachments: sa.Attachments,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if ans.Attachments == nil {
		ans.Attachments = []string{}
	}
	ans, err = svc.repo.CreateAnswer(ctx, ans, claimIfUnclaimed(q, actor, now))
	if err != nil {
		return Answer{}, Question{}, err
	}

	svc.invalidator.InvalidateViews("questions", "questions/"+questionID, "admin:questions")
	return ans, q, nil
}

func (svc *service) sendAnswerMail(q Question) {
	usr, err := svc.users.GetByID(context.Background(), q.UserID)
	if err != nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Your Question Has Been Answered",
		TemplateName: "question-answered",
		TemplateData: struct {
			User     user.User
			Question Question
		}{usr, q},
	})
}

func (svc *service) GetAnswerByQuestion(ctx context.Context, questionID string) (Answer, error) {
	return svc.repo.GetAnswerByQuestion(ctx, questionID)
}

func (svc *service) UpdateAnswer(ctx context.Context, actor user.User, id string, ap AnswerPatch) (Answer, error) {
	if !actor.IsStaff() {
		return Answer{}, ErrPermissionDenied
	}
	ans, err := svc.repo.GetAnswer(ctx, id)
	if err != nil {
		return Answer{}, err
	}
	if ans.AuthorID != actor.ID {
		return Answer{}, ErrNotAnswerAuthor
	}

	if ap.Content != nil {
		ans.Content = *ap.Content
	}
	if ap.Attachments != nil {
		ans.Attachments = *ap.Attachments
		if ans.Attachments == nil {
			ans.Attachments = []string{}
		}
	}
	ans.UpdatedAt = time.Now().UTC()

	ans, err = svc.repo.UpdateAnswer(ctx, ans)
	if err != nil {
		return Answer{}, err
	}
	svc.invalidator.InvalidateViews("questions/" + ans.QuestionID)
	return ans, nil
}

// DeleteAnswer is open to any staff member, unlike edits which stay with the
// author. The question returns to CLAIMED.
func (svc *service) DeleteAnswer(ctx context.Context, actor user.User, id string) error {
	if !actor.IsStaff() {
		return ErrPermissionDenied
	}
	ans, err := svc.repo.GetAnswer(ctx, id)
	if err != nil {
		return err
	}
	if err := svc.repo.DeleteAnswer(ctx, id, ans.QuestionID); err != nil {
		return err
	}
	svc.invalidator.InvalidateViews("questions", "questions/"+ans.QuestionID, "admin:questions")
	return nil
}

func (svc *service) AddAttachment(ctx context.Context, actor user.User, answerID, url string) (Answer, error) {
	if !actor.IsStaff() {
		return Answer{}, ErrPermissionDenied
	}
	ans, err := svc.repo.GetAnswer(ctx, answerID)
	if err != nil {
		return Answer{}, err
	}
	if ans.AuthorID != actor.ID {
		return Answer{}, ErrNotAnswerAuthor
	}
	for _, att := range ans.Attachments {
		if att == url {
			return ans, nil // already attached
		}
	}
	ans.Attachments = append(ans.Attachments, url)
	ans.UpdatedAt = time.Now().UTC()
	ans, err = svc.repo.UpdateAnswer(ctx, ans)
	if err != nil {
		return Answer{}, err
	}
	svc.invalidator.InvalidateViews("questions/" + ans.QuestionID)
	return ans, nil
}

func (svc *service) RemoveAttachment(ctx context.Context, actor user.User, answerID, url string) (Answer, error) {
	if !actor.IsStaff() {
		return Answer{}, ErrPermissionDenied
	}
	ans, err := svc.repo.GetAnswer(ctx, answerID)
	if err != nil {
		return Answer{}, err
	}
	if ans.AuthorID != actor.ID {
		return Answer{}, ErrNotAnswerAuthor
	}
	kept := make([]string, 0, len(ans.Attachments))
	found := false
	for _, att := range ans.Attachments {
		if att == url {
			found = true
			continue
		}
		kept = append(kept, att)
	}
	if !found {
		return Answer{}, ErrAttachmentNotFound
	}
	ans.Attachments = kept
	ans.UpdatedAt = time.Now().UTC()
	ans, err = svc.repo.UpdateAnswer(ctx, ans)
	if err != nil {
		return Answer{}, err
	}
	svc.invalidator.InvalidateViews("questions/" + ans.QuestionID)
	return ans, nil
}

// Discussions

func (svc *service) Discuss(ctx context.Context, actor user.User, questionID string, ad AddDiscussion) (Discussion, error) {
	if !actor.IsStaff() {
		return Discussion{}, ErrPermissionDenied
	}
	q, err := svc.repo.GetQuestion(ctx, questionID)
	if err != nil {
		return Discussion{}, err
	}
	if q.Status == StatusAnswered {
		return Discussion{}, ErrCannotDiscussAnswered
	}

	now := time.Now().UTC()
	d := Discussion{
		QuestionID: questionID,
		AuthorID:   actor.ID,
		Content:    ad.Content,
		CreatedAt:  now,
	}
	markDiscussing := q.Status != StatusDiscussing
	d, err = svc.repo.CreateDiscussion(ctx, d, markDiscussing, claimIfUnclaimed(q, actor, now))
	if err != nil {
		return Discussion{}, err
	}
	svc.invalidator.InvalidateViews("admin:questions")
	return d, nil
}

func (svc *service) QueryDiscussions(ctx context.Context, actor user.User, questionID string) ([]Discussion, error) {
	if !actor.IsStaff() {
		return nil, ErrPermissionDenied
	}
	if _, err := svc.repo.GetQuestion(ctx, questionID); err != nil {
		return nil, err
	}
	return svc.repo.QueryDiscussions(ctx, questionID)
}

func (svc *service) CountDiscussions(ctx context.Context, actor user.User, questionID string) (int, error) {
	if !actor.IsStaff() {
		return 0, ErrPermissionDenied
	}
	return svc.repo.CountDiscussions(ctx, questionID)
}

func (svc *service) UpdateDiscussion(ctx context.Context, actor user.User, id string, ad AddDiscussion) (Discussion, error) {
	if !actor.IsStaff() {
		return Discussion{}, ErrPermissionDenied
	}
	d, err := svc.repo.GetDiscussion(ctx, id)
	if err != nil {
		return Discussion{}, err
	}
	if d.AuthorID != actor.ID {
		return Discussion{}, ErrNotCommentAuthor
	}
	d.Content = ad.Content
	return svc.repo.UpdateDiscussion(ctx, d)
}

func (svc *service) DeleteDiscussion(ctx context.Context, actor user.User, id string) error {
	if !actor.IsStaff() {
		return ErrPermissionDenied
	}
	d, err := svc.repo.GetDiscussion(ctx, id)
	if err != nil {
		return err
	}
	if d.AuthorID != actor.ID {
		return ErrCannotDeleteComment
	}
	return svc.repo.DeleteDiscussion(ctx, id)
}

package qa

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/keneanapp/kenean/core"
	"github.com/keneanapp/kenean/core/catalog"
	"github.com/keneanapp/kenean/core/user"
)

// Status is the question lifecycle state.
//
//	PENDING -> CLAIMED <-> DISCUSSING -> ANSWERED
//
// CLAIMED/DISCUSSING fall back to PENDING on unclaim; deleting an answer
// returns ANSWERED to CLAIMED (work on the question had already started).
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusClaimed    Status = "CLAIMED"
	StatusDiscussing Status = "DISCUSSING"
	StatusAnswered   Status = "ANSWERED"
)

var AllStatuses = []Status{StatusPending, StatusClaimed, StatusDiscussing, StatusAnswered}

func (s Status) Valid() bool {
	for _, st := range AllStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// Claim records a staff member taking ownership of a question.
// ClaimedByID/ClaimedAt on Question are always both set or both empty.
type Claim struct {
	ByID string
	At   time.Time
}

type Question struct {
	ID          string     `json:"id"`
	Content     string     `json:"content"`
	Status      Status     `json:"status"`
	UserID      string     `json:"user_id"`
	LessonID    string     `json:"lesson_id,omitempty"`
	ClaimedByID string     `json:"claimed_by_id,omitempty"`
	ClaimedAt   *time.Time `json:"claimed_at,omitempty"` // UTC
	CreatedAt   time.Time  `json:"created_at"`           // UTC

	// expanded relations (populated by read queries)
	Asker           *user.Summary          `json:"asker,omitempty"`
	Lesson          *catalog.LessonSummary `json:"lesson,omitempty"`
	ClaimedBy       *user.Summary          `json:"claimed_by,omitempty"`
	Answer          *Answer                `json:"answer,omitempty"`
	DiscussionCount int                    `json:"discussion_count"`
}

type Answer struct {
	ID          string    `json:"id"`
	QuestionID  string    `json:"question_id"`
	AuthorID    string    `json:"author_id"`
	Content     string    `json:"content"`
	Attachments []string  `json:"attachments"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC

	Author *user.Summary `json:"author,omitempty"`
}

type Discussion struct {
	ID         string    `json:"id"`
	QuestionID string    `json:"question_id"`
	AuthorID   string    `json:"author_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"` // UTC

	Author *user.Summary `json:"author,omitempty"`
}

// Inputs

type SubmitQuestion struct {
	Content  string `json:"content" validate:"required,min=10,max=2000"`
	LessonID string `json:"lesson_id"`
}

func (sq *SubmitQuestion) Validate(validate *validator.Validate) error {
	sq.Content = core.CleanString(sq.Content)
	return validate.Struct(sq)
}

type SubmitAnswer struct {
	Content     string   `json:"content" validate:"required,min=10,max=10000"`
	Attachments []string `json:"attachments" validate:"omitempty,dive,url"`
}

func (sa *SubmitAnswer) Validate(validate *validator.Validate) error {
	sa.Content = core.CleanString(sa.Content)
	return validate.Struct(sa)
}

// AnswerPatch is a patch: nil fields are left unchanged, so clearing the
// attachment list ([]) stays distinguishable from leaving it alone (nil).
type AnswerPatch struct {
	Content     *string   `json:"content" validate:"omitempty,min=10,max=10000"`
	Attachments *[]string `json:"attachments" validate:"omitempty,dive,url"`
}

func (ap *AnswerPatch) Validate(validate *validator.Validate) error {
	if ap.Content != nil {
		*ap.Content = core.CleanString(*ap.Content)
	}
	return validate.Struct(ap)
}

type AddDiscussion struct {
	Content string `json:"content" validate:"required,min=1,max=5000"`
}

func (ad *AddDiscussion) Validate(validate *validator.Validate) error {
	ad.Content = core.CleanString(ad.Content)
	return validate.Struct(ad)
}

type AddAttachment struct {
	URL string `json:"url" validate:"required,url"`
}

func (aa *AddAttachment) Validate(validate *validator.Validate) error {
	aa.URL = core.CleanString(aa.URL)
	return validate.Struct(aa)
}

// QuestionFilter drives the list queries; zero values mean "no constraint".
type QuestionFilter struct {
	Status   Status
	LessonID string
	UserID   string
	Limit    int
	Offset   int
}

// QuestionPage is a paginated question listing.
// HasMore is true when offset+limit < total.
type QuestionPage struct {
	Questions []Question `json:"questions"`
	Total     int        `json:"total"`
	HasMore   bool       `json:"has_more"`
}

package catalog

import (
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/keneanapp/kenean/core"
)

// LessonType is a closed set.
type LessonType string

const (
	LessonVideo LessonType = "VIDEO"
	LessonBook  LessonType = "BOOK"
)

func (t LessonType) Valid() bool {
	return t == LessonVideo || t == LessonBook
}

type Category struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	NameAmharic        string    `json:"name_amharic,omitempty"`
	NameGeez           string    `json:"name_geez,omitempty"`
	Description        string    `json:"description,omitempty"`
	DescriptionAmharic string    `json:"description_amharic,omitempty"`
	DescriptionGeez    string    `json:"description_geez,omitempty"`
	Slug               string    `json:"slug"`
	Order              int       `json:"order"`
	VolumeCount        int       `json:"volume_count"`
	CreatedAt          time.Time `json:"created_at"` // UTC
	UpdatedAt          time.Time `json:"updated_at"` // UTC
}

type Volume struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	TitleAmharic       string    `json:"title_amharic,omitempty"`
	TitleGeez          string    `json:"title_geez,omitempty"`
	Description        string    `json:"description,omitempty"`
	DescriptionAmharic string    `json:"description_amharic,omitempty"`
	DescriptionGeez    string    `json:"description_geez,omitempty"`
	VolumeNumber       int       `json:"volume_number"`
	CategoryID         string    `json:"category_id"`
	LessonCount        int       `json:"lesson_count"`
	CreatedAt          time.Time `json:"created_at"` // UTC
	UpdatedAt          time.Time `json:"updated_at"` // UTC
}

type Lesson struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	TitleAmharic       string     `json:"title_amharic,omitempty"`
	TitleGeez          string     `json:"title_geez,omitempty"`
	Description        string     `json:"description,omitempty"`
	DescriptionAmharic string     `json:"description_amharic,omitempty"`
	DescriptionGeez    string     `json:"description_geez,omitempty"`
	Type               LessonType `json:"type"`
	YouTubeURL         string     `json:"youtube_url,omitempty"`
	PDFURL             string     `json:"pdf_url,omitempty"`
	ThumbnailURL       string     `json:"thumbnail_url,omitempty"`
	LessonNumber       int        `json:"lesson_number"`
	Duration           int        `json:"duration,omitempty"` // seconds
	VolumeID           string     `json:"volume_id"`
	Published          bool       `json:"published"`
	CreatedAt          time.Time  `json:"created_at"` // UTC
	UpdatedAt          time.Time  `json:"updated_at"` // UTC
}

// Summary is the projection of a Lesson embedded in question payloads.
type LessonSummary struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	TitleAmharic string `json:"title_amharic,omitempty"`
	TitleGeez    string `json:"title_geez,omitempty"`
}

func (l Lesson) Summary() LessonSummary {
	return LessonSummary{ID: l.ID, Title: l.Title, TitleAmharic: l.TitleAmharic, TitleGeez: l.TitleGeez}
}

// Inputs

type NewCategory struct {
	Name               string `json:"name" validate:"required,max=100"`
	NameAmharic        string `json:"name_amharic"`
	NameGeez           string `json:"name_geez"`
	Description        string `json:"description"`
	DescriptionAmharic string `json:"description_amharic"`
	DescriptionGeez    string `json:"description_geez"`
	Slug               string `json:"slug" validate:"required,max=100,slug"`
	Order              int    `json:"order"`
}

func (nc *NewCategory) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Slug = core.CleanString(nc.Slug, true /* lower */)
	return validate.Struct(nc)
}

// UpdateCategory is a patch: nil fields are left unchanged.
type UpdateCategory struct {
	Name               *string `json:"name" validate:"omitempty,max=100"`
	NameAmharic        *string `json:"name_amharic"`
	NameGeez           *string `json:"name_geez"`
	Description        *string `json:"description"`
	DescriptionAmharic *string `json:"description_amharic"`
	DescriptionGeez    *string `json:"description_geez"`
	Slug               *string `json:"slug" validate:"omitempty,max=100,slug"`
	Order              *int    `json:"order"`
}

func (uc *UpdateCategory) Validate(validate *validator.Validate) error {
	if uc.Name != nil {
		*uc.Name = core.CleanString(*uc.Name)
	}
	if uc.Slug != nil {
		*uc.Slug = core.CleanString(*uc.Slug, true /* lower */)
	}
	return validate.Struct(uc)
}

type NewVolume struct {
	Title              string `json:"title" validate:"required,max=200"`
	TitleAmharic       string `json:"title_amharic"`
	TitleGeez          string `json:"title_geez"`
	Description        string `json:"description"`
	DescriptionAmharic string `json:"description_amharic"`
	DescriptionGeez    string `json:"description_geez"`
	VolumeNumber       int    `json:"volume_number" validate:"required,gt=0"`
	CategoryID         string `json:"category_id" validate:"required"`
}

func (nv *NewVolume) Validate(validate *validator.Validate) error {
	nv.Title = core.CleanString(nv.Title)
	return validate.Struct(nv)
}

type UpdateVolume struct {
	Title              *string `json:"title" validate:"omitempty,max=200"`
	TitleAmharic       *string `json:"title_amharic"`
	TitleGeez          *string `json:"title_geez"`
	Description        *string `json:"description"`
	DescriptionAmharic *string `json:"description_amharic"`
	DescriptionGeez    *string `json:"description_geez"`
	VolumeNumber       *int    `json:"volume_number" validate:"omitempty,gt=0"`
}

func (uv *UpdateVolume) Validate(validate *validator.Validate) error {
	if uv.Title != nil {
		*uv.Title = core.CleanString(*uv.Title)
	}
	return validate.Struct(uv)
}

type NewLesson struct {
	Title              string     `json:"title" validate:"required,max=200"`
	TitleAmharic       string     `json:"title_amharic"`
	TitleGeez          string     `json:"title_geez"`
	Description        string     `json:"description"`
	DescriptionAmharic string     `json:"description_amharic"`
	DescriptionGeez    string     `json:"description_geez"`
	Type               LessonType `json:"type" validate:"required,lessontype"`
	YouTubeURL         string     `json:"youtube_url" validate:"omitempty,url"`
	PDFURL             string     `json:"pdf_url" validate:"omitempty,url"`
	ThumbnailURL       string     `json:"thumbnail_url" validate:"omitempty,url"`
	LessonNumber       int        `json:"lesson_number" validate:"required,gt=0"`
	Duration           int        `json:"duration" validate:"omitempty,gt=0"`
	VolumeID           string     `json:"volume_id" validate:"required"`
	Published          bool       `json:"published"`
}

func (nl *NewLesson) Validate(validate *validator.Validate) error {
	nl.Title = core.CleanString(nl.Title)
	if nl.Type == "" {
		nl.Type = LessonVideo
	}
	return validate.Struct(nl)
}

type UpdateLesson struct {
	Title              *string     `json:"title" validate:"omitempty,max=200"`
	TitleAmharic       *string     `json:"title_amharic"`
	TitleGeez          *string     `json:"title_geez"`
	Description        *string     `json:"description"`
	DescriptionAmharic *string     `json:"description_amharic"`
	DescriptionGeez    *string     `json:"description_geez"`
	Type               *LessonType `json:"type" validate:"omitempty,lessontype"`
	YouTubeURL         *string     `json:"youtube_url" validate:"omitempty,url"`
	PDFURL             *string     `json:"pdf_url" validate:"omitempty,url"`
	ThumbnailURL       *string     `json:"thumbnail_url" validate:"omitempty,url"`
	LessonNumber       *int        `json:"lesson_number" validate:"omitempty,gt=0"`
	Duration           *int        `json:"duration" validate:"omitempty,gt=0"`
	Published          *bool       `json:"published"`
}

func (ul *UpdateLesson) Validate(validate *validator.Validate) error {
	if ul.Title != nil {
		*ul.Title = core.CleanString(*ul.Title)
	}
	return validate.Struct(ul)
}

type LessonFilter struct {
	VolumeID      string `query:"volume_id"`
	PublishedOnly bool   `query:"-"`
	Limit         int    `query:"limit"`
	Offset        int    `query:"offset"`
}

// YouTube helpers

var youTubeIDRegex = regexp.MustCompile(`^.*(youtu\.be/|v/|u/\w/|embed/|watch\?v=|&v=)([^#&?]*).*`)

// ExtractYouTubeID extracts the 11-character video ID from a YouTube URL;
// empty string when the URL does not look like a YouTube link.
func ExtractYouTubeID(url string) string {
	match := youTubeIDRegex.FindStringSubmatch(url)
	if match != nil && len(match[2]) == 11 {
		return match[2]
	}
	return ""
}

// YouTubeThumbnail returns the max-resolution thumbnail URL for a video ID.
func YouTubeThumbnail(videoID string) string {
	return "https://img.youtube.com/vi/" + videoID + "/maxresdefault.jpg"
}

package catalog

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/keneanapp/kenean/core"
)

var (
	// errors
	ErrCategoryNotFound = errors.New("category not found")
	ErrVolumeNotFound   = errors.New("volume not found")
	ErrLessonNotFound   = errors.New("lesson not found")
	ErrSlugExists       = errors.New("a category with this slug already exists")

	errVideoURLRequired = "YouTube URL is required for video lessons"
)

type (
	Repository interface {
		CheckSlugUniqueness(ctx context.Context, slug string, excludedCategories []Category, exec ...core.DBExecutor) error
		CreateCategory(ctx context.Context, cat Category, exec ...core.DBExecutor) (Category, error)
		GetCategory(ctx context.Context, idOrSlug string, exec ...core.DBExecutor) (Category, error)
		// QueryCategories returns all categories ordered by Category.Order ascending.
		QueryCategories(ctx context.Context, exec ...core.DBExecutor) ([]Category, error)
		UpdateCategory(ctx context.Context, cat Category, exec ...core.DBExecutor) (Category, error)
		DeleteCategory(ctx context.Context, id string, exec ...core.DBExecutor) error

		CreateVolume(ctx context.Context, vol Volume, exec ...core.DBExecutor) (Volume, error)
		GetVolume(ctx context.Context, id string, exec ...core.DBExecutor) (Volume, error)
		// QueryVolumes returns a category's volumes ordered by VolumeNumber ascending.
		QueryVolumes(ctx context.Context, categoryID string, exec ...core.DBExecutor) ([]Volume, error)
		UpdateVolume(ctx context.Context, vol Volume, exec ...core.DBExecutor) (Volume, error)
		DeleteVolume(ctx context.Context, id string, exec ...core.DBExecutor) error

		CreateLesson(ctx context.Context, lsn Lesson, exec ...core.DBExecutor) (Lesson, error)
		GetLesson(ctx context.Context, id string, exec ...core.DBExecutor) (Lesson, error)
		// QueryLessons orders by LessonNumber ascending when filtering by volume,
		// by creation time descending otherwise.
		QueryLessons(ctx context.Context, filter *LessonFilter, exec ...core.DBExecutor) ([]Lesson, error)
		UpdateLesson(ctx context.Context, lsn Lesson, exec ...core.DBExecutor) (Lesson, error)
		DeleteLesson(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	Service interface {
		CreateCategory(ctx context.Context, nc NewCategory) (Category, error)
		GetCategory(ctx context.Context, idOrSlug string) (Category, error)
		QueryCategories(ctx context.Context) ([]Category, error)
		UpdateCategory(ctx context.Context, id string, uc UpdateCategory) (Category, error)
		DeleteCategory(ctx context.Context, id string) error

		CreateVolume(ctx context.Context, nv NewVolume) (Volume, error)
		GetVolume(ctx context.Context, id string) (Volume, error)
		QueryVolumes(ctx context.Context, categoryID string) ([]Volume, error)
		UpdateVolume(ctx context.Context, id string, uv UpdateVolume) (Volume, error)
		DeleteVolume(ctx context.Context, id string) error

		CreateLesson(ctx context.Context, nl NewLesson) (Lesson, error)
		GetLesson(ctx context.Context, id string) (Lesson, error)
		QueryLessons(ctx context.Context, filter *LessonFilter) ([]Lesson, error)
		UpdateLesson(ctx context.Context, id string, ul UpdateLesson) (Lesson, error)
		SetLessonPublished(ctx context.Context, id string, published bool) (Lesson, error)
		DeleteLesson(ctx context.Context, id string) error
	}

	service struct {
		repo        Repository
		invalidator core.ViewInvalidator
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, invalidator core.ViewInvalidator) *service {
	return &service{repo: repo, invalidator: invalidator}
}

// Categories

func (svc *service) CreateCategory(ctx context.Context, nc NewCategory) (Category, error) {
	if err := svc.checkSlugUniqueness(ctx, nc.Slug); err != nil {
		return Category{}, err
	}

	now := time.Now().UTC()
	cat := Category{
		Name:               nc.Name,
		NameAmharic:        nc.NameAmharic,
		NameGeez:           nc.NameGeez,
		Description:        nc.Description,
		DescriptionAmharic: nc.DescriptionAmharic,
		DescriptionGeez:    nc.DescriptionGeez,
		Slug:               nc.Slug,
		Order:              nc.Order,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	cat, err := svc.repo.CreateCategory(ctx, cat)
	if err != nil {
		return Category{}, err
	}
	svc.invalidator.InvalidateViews("home", "admin:categories")
	return cat, nil
}

func (svc *service) checkSlugUniqueness(ctx context.Context, slug string, excl ...Category) error {
	if err := svc.repo.CheckSlugUniqueness(ctx, slug, excl); err != nil {
		if errors.Cause(err) == ErrSlugExists {
			return core.NewValidationError(err, core.FieldError{Field: "slug", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) GetCategory(ctx context.Context, idOrSlug string) (Category, error) {
	return svc.repo.GetCategory(ctx, idOrSlug)
}

func (svc *service) QueryCategories(ctx context.Context) ([]Category, error) {
	return svc.repo.QueryCategories(ctx)
}

func (svc *service) UpdateCategory(ctx context.Context, id string, uc UpdateCategory) (Category, error) {
	cat, err := svc.repo.GetCategory(ctx, id)
	if err != nil {
		return Category{}, err
	}

	if uc.Slug != nil && *uc.Slug != cat.Slug {
		if err := svc.checkSlugUniqueness(ctx, *uc.Slug, cat); err != nil {
			return Category{}, err
		}
		cat.Slug = *uc.Slug
	}
	if uc.Name != nil {
		cat.Name = *uc.Name
	}
	if uc.NameAmharic != nil {
		cat.NameAmharic = *uc.NameAmharic
	}
	if uc.NameGeez != nil {
		cat.NameGeez = *uc.NameGeez
	}
	if uc.Description != nil {
		cat.Description = *uc.Description
	}
	if uc.DescriptionAmharic != nil {
		cat.DescriptionAmharic = *uc.DescriptionAmharic
	}
	if uc.DescriptionGeez != nil {
		cat.DescriptionGeez = *uc.DescriptionGeez
	}
	if uc.Order != nil {
		cat.Order = *uc.Order
	}
	cat.UpdatedAt = time.Now().UTC()

	cat, err = svc.repo.UpdateCategory(ctx, cat)
	if err != nil {
		return Category{}, err
	}
	svc.invalidator.InvalidateViews("home", "admin:categories", "categories/"+cat.ID)
	return cat, nil
}

func (svc *service) DeleteCategory(ctx context.Context, id string) error {
	if err := svc.repo.DeleteCategory(ctx, id); err != nil {
		return err
	}
	svc.invalidator.InvalidateViews("home", "admin:categories")
	return nil
}

// Volumes

func (svc *service) CreateVolume(ctx context.Context, nv NewVolume) (Volume, error) {
	if _, err := svc.repo.GetCategory(ctx, nv.CategoryID); err != nil {
		return Volume{}, err
	}

	now := time.Now().UTC()
	vol := Volume{
		Title:              nv.Title,
		TitleAmharic:       nv.TitleAmharic,
		TitleGeez:          nv.TitleGeez,
		Description:        nv.Description,
		DescriptionAmharic: nv.DescriptionAmharic,
		DescriptionGeez:    nv.DescriptionGeez,
		VolumeNumber:       nv.VolumeNumber,
		CategoryID:         nv.CategoryID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	vol, err := svc.repo.CreateVolume(ctx, vol)
	if err != nil {
		return Volume{}, err
	}
	svc.invalidator.InvalidateViews("categories/" + vol.CategoryID)
	return vol, nil
}

func (svc *service) GetVolume(ctx context.Context, id string) (Volume, error) {
	return svc.repo.GetVolume(ctx, id)
}

func (svc *service) QueryVolumes(ctx context.Context, categoryID string) ([]Volume, error) {
	return svc.repo.QueryVolumes(ctx, categoryID)
}

func (svc *service) UpdateVolume(ctx context.Context, id string, uv UpdateVolume) (Volume, error) {
	vol, err := svc.repo.GetVolume(ctx, id)
	if err != nil {
		return Volume{}, err
	}

	if uv.Title != nil {
		vol.Title = *uv.Title
	}
	if uv.TitleAmharic != nil {
		vol.TitleAmharic = *uv.TitleAmharic
	}
	if uv.TitleGeez != nil {
		vol.TitleGeez = *uv.TitleGeez
	}
	if uv.Description != nil {
		vol.Description = *uv.Description
	}
	if uv.DescriptionAmharic != nil {
		vol.DescriptionAmharic = *uv.DescriptionAmharic
	}
	if uv.DescriptionGeez != nil {
		vol.DescriptionGeez = *uv.DescriptionGeez
	}
	if uv.VolumeNumber != nil {
		vol.VolumeNumber = *uv.VolumeNumber
	}
	vol.UpdatedAt = time.Now().UTC()

	vol, err = svc.repo.UpdateVolume(ctx, vol)
	if err != nil {
		return Volume{}, err
	}
	svc.invalidator.InvalidateViews("categories/"+vol.CategoryID, "volumes/"+vol.ID)
	return vol, nil
}

func (svc *service) DeleteVolume(ctx context.Context, id string) error {
	vol, err := svc.repo.GetVolume(ctx, id)
	if err != nil {
		return err
	}
	if err := svc.repo.DeleteVolume(ctx, id); err != nil {
		return err
	}
	svc.invalidator.InvalidateViews("categories/" + vol.CategoryID)
	return nil
}

// Lessons

func (svc *service) CreateLesson(ctx context.Context, nl NewLesson) (Lesson, error) {
	if nl.Type == LessonVideo && nl.YouTubeURL == "" {
		return Lesson{}, core.NewValidationError(nil, core.FieldError{Field: "youtube_url", Error: errVideoURLRequired})
	}
	if _, err := svc.repo.GetVolume(ctx, nl.VolumeID); err != nil {
		return Lesson{}, err
	}

	now := time.Now().UTC()
	lsn := Lesson{
		Title:              nl.Title,
		TitleAmharic:       nl.TitleAmharic,
		TitleGeez:          nl.TitleGeez,
		Description:        nl.Description,
		DescriptionAmharic: nl.DescriptionAmharic,
		DescriptionGeez:    nl.DescriptionGeez,
		Type:               nl.Type,
		YouTubeURL:         nl.YouTubeURL,
		PDFURL:             nl.PDFURL,
		ThumbnailURL:       nl.ThumbnailURL,
		LessonNumber:       nl.LessonNumber,
		Duration:           nl.Duration,
		VolumeID:           nl.VolumeID,
		Published:          nl.Published,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	fillThumbnail(&lsn)

	lsn, err := svc.repo.CreateLesson(ctx, lsn)
	if err != nil {
		return Lesson{}, err
	}
	svc.invalidator.InvalidateViews("volumes/"+lsn.VolumeID, "lessons")
	return lsn, nil
}

// fillThumbnail derives a YouTube thumbnail when none was provided.
func fillThumbnail(lsn *Lesson) {
	if lsn.ThumbnailURL != "" || lsn.YouTubeURL == "" {
		return
	}
	if id := ExtractYouTubeID(lsn.YouTubeURL); id != "" {
		lsn.ThumbnailURL = YouTubeThumbnail(id)
	}
}

func (svc *service) GetLesson(ctx context.Context, id string) (Lesson, error) {
	return svc.repo.GetLesson(ctx, id)
}

func (svc *service) QueryLessons(ctx context.Context, filter *LessonFilter) ([]Lesson, error) {
	return svc.repo.QueryLessons(ctx, filter)
}

func (svc *service) UpdateLesson(ctx context.Context, id string, ul UpdateLesson) (Lesson, error) {
	lsn, err := svc.repo.GetLesson(ctx, id)
	if err != nil {
		return Lesson{}, err
	}

	if ul.Title != nil {
		lsn.Title = *ul.Title
	}
	if ul.TitleAmharic != nil {
		lsn.TitleAmharic = *ul.TitleAmharic
	}
	if ul.TitleGeez != nil {
		lsn.TitleGeez = *ul.TitleGeez
	}
	if ul.Description != nil {
		lsn.Description = *ul.Description
	}
	if ul.DescriptionAmharic != nil {
		lsn.DescriptionAmharic = *ul.DescriptionAmharic
	}
	if ul.DescriptionGeez != nil {
		lsn.DescriptionGeez = *ul.DescriptionGeez
	}
	if ul.Type != nil {
		lsn.Type = *ul.Type
	}
	if ul.YouTubeURL != nil {
		lsn.YouTubeURL = *ul.YouTubeURL
		lsn.ThumbnailURL = "" // re-derive below unless explicitly set
	}
	if ul.PDFURL != nil {
		lsn.PDFURL = *ul.PDFURL
	}
	if ul.ThumbnailURL != nil {
		lsn.ThumbnailURL = *ul.ThumbnailURL
	}
	if ul.LessonNumber != nil {
		lsn.LessonNumber = *ul.LessonNumber
	}
	if ul.Duration != nil {
		lsn.Duration = *ul.Duration
	}
	if ul.Published != nil {
		lsn.Published = *ul.Published
	}
	if lsn.Type == LessonVideo && lsn.YouTubeURL == "" {
		return Lesson{}, core.NewValidationError(nil, core.FieldError{Field: "youtube_url", Error: errVideoURLRequired})
	}
	fillThumbnail(&lsn)
	lsn.UpdatedAt = time.Now().UTC()

	lsn, err = svc.repo.UpdateLesson(ctx, lsn)
	if err != nil {
		return Lesson{}, err
	}
	svc.invalidator.InvalidateViews("volumes/"+lsn.VolumeID, "lessons", "lessons/"+lsn.ID)
	return lsn, nil
}

func (svc *service) SetLessonPublished(ctx context.Context, id string, published bool) (Lesson, error) {
	return svc.UpdateLesson(ctx, id, UpdateLesson{Published: &published})
}

func (svc *service) DeleteLesson(ctx context.Context, id string) error {
	lsn, err := svc.repo.GetLesson(ctx, id)
	if err != nil {
		return err
	}
	if err := svc.repo.DeleteLesson(ctx, id); err != nil {
		return err
	}
	svc.invalidator.InvalidateViews("volumes/"+lsn.VolumeID, "lessons")
	return nil
}

package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/keneanapp/kenean/core"
	"github.com/keneanapp/kenean/core/catalog"
)

type dbCategory struct {
	ID                 string    `db:"id"`
	Name               string    `db:"name"`
	NameAmharic        string    `db:"name_amharic"`
	NameGeez           string    `db:"name_geez"`
	Description        string    `db:"description"`
	DescriptionAmharic string    `db:"description_amharic"`
	DescriptionGeez    string    `db:"description_geez"`
	Slug               string    `db:"slug"`
	Order              int       `db:"order"`
	VolumeCount        int       `db:"volume_count"`
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`
}

func (c dbCategory) toCore() catalog.Category {
	return catalog.Category{
		ID:                 c.ID,
		Name:               c.Name,
		NameAmharic:        c.NameAmharic,
		NameGeez:           c.NameGeez,
		Description:        c.Description,
		DescriptionAmharic: c.DescriptionAmharic,
		DescriptionGeez:    c.DescriptionGeez,
		Slug:               c.Slug,
		Order:              c.Order,
		VolumeCount:        c.VolumeCount,
		CreatedAt:          c.CreatedAt.UTC(),
		UpdatedAt:          c.UpdatedAt.UTC(),
	}
}

type dbVolume struct {
	ID                 string    `db:"id"`
	Title              string    `db:"title"`
	TitleAmharic       string    `db:"title_amharic"`
	TitleGeez          string    `db:"title_geez"`
	Description        string    `db:"description"`
	DescriptionAmharic string    `db:"description_amharic"`
	DescriptionGeez    string    `db:"description_geez"`
	VolumeNumber       int       `db:"volume_number"`
	CategoryID         string    `db:"category_id"`
	LessonCount        int       `db:"lesson_count"`
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`
}

func (v dbVolume) toCore() catalog.Volume {
	return catalog.Volume{
		ID:                 v.ID,
		Title:              v.Title,
		TitleAmharic:       v.TitleAmharic,
		TitleGeez:          v.TitleGeez,
		Description:        v.Description,
		DescriptionAmharic: v.DescriptionAmharic,
		DescriptionGeez:    v.DescriptionGeez,
		VolumeNumber:       v.VolumeNumber,
		CategoryID:         v.CategoryID,
		LessonCount:        v.LessonCount,
		CreatedAt:          v.CreatedAt.UTC(),
		UpdatedAt:          v.UpdatedAt.UTC(),
	}
}

type dbLesson struct {
	ID                 string    `db:"id"`
	Title              string    `db:"title"`
	TitleAmharic       string    `db:"title_amharic"`
	TitleGeez          string    `db:"title_geez"`
	Description        string    `db:"description"`
	DescriptionAmharic string    `db:"description_amharic"`
	DescriptionGeez    string    `db:"description_geez"`
	Type               string    `db:"type"`
	YouTubeURL         string    `db:"youtube_url"`
	PDFURL             string    `db:"pdf_url"`
	ThumbnailURL       string    `db:"thumbnail_url"`
	LessonNumber       int       `db:"lesson_number"`
	Duration           int       `db:"duration"`
	VolumeID           string    `db:"volume_id"`
	Published          bool      `db:"published"`
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`
}

func (l dbLesson) toCore() catalog.Lesson {
	return catalog.Lesson{
		ID:                 l.ID,
		Title:              l.Title,
		TitleAmharic:       l.TitleAmharic,
		TitleGeez:          l.TitleGeez,
		Description:        l.Description,
		DescriptionAmharic: l.DescriptionAmharic,
		DescriptionGeez:    l.DescriptionGeez,
		Type:               catalog.LessonType(l.Type),
		YouTubeURL:         l.YouTubeURL,
		PDFURL:             l.PDFURL,
		ThumbnailURL:       l.ThumbnailURL,
		LessonNumber:       l.LessonNumber,
		Duration:           l.Duration,
		VolumeID:           l.VolumeID,
		Published:          l.Published,
		CreatedAt:          l.CreatedAt.UTC(),
		UpdatedAt:          l.UpdatedAt.UTC(),
	}
}

var (
	categoryColumns = []string{
		"id", "name", "name_amharic", "name_geez",
		"description", "description_amharic", "description_geez",
		"slug", `"order"`, "created_at", "updated_at",
	}
	volumeColumns = []string{
		"id", "title", "title_amharic", "title_geez",
		"description", "description_amharic", "description_geez",
		"volume_number", "category_id", "created_at", "updated_at",
	}
	lessonColumns = []string{
		"id", "title", "title_amharic", "title_geez",
		"description", "description_amharic", "description_geez",
		"type", "youtube_url", "pdf_url", "thumbnail_url",
		"lesson_number", "duration", "volume_id", "published", "created_at", "updated_at",
	}
)

const (
	volumeCountCol = "(SELECT COUNT(*) FROM volume v WHERE v.category_id = category.id) AS volume_count"
	lessonCountCol = "(SELECT COUNT(*) FROM lesson l WHERE l.volume_id = volume.id) AS lesson_count"
)

type catalogRepository struct {
	db *sqlx.DB
}

var _ catalog.Repository = (*catalogRepository)(nil) // interface compliance check

func NewCatalogRepository(db *sqlx.DB) *catalogRepository {
	return &catalogRepository{db: db}
}

func (repo catalogRepository) trapNoRowsErr(err, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// Categories

func (repo catalogRepository) CheckSlugUniqueness(ctx context.Context, slug string, excludedCategories []catalog.Category, exec ...core.DBExecutor) error {
	b := psql.Select("COUNT(*)").From("category").Where(sq.Eq{"slug": slug})
	if len(excludedCategories) > 0 {
		ids := make([]string, 0, len(excludedCategories))
		for _, c := range excludedCategories {
			ids = append(ids, c.ID)
		}
		b = b.Where(sq.NotEq{"id": ids})
	}
	q, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}

	var count int
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &count, q, args...); err != nil {
		return errors.Wrap(err, "checking slug uniqueness")
	}
	if count > 0 {
		return catalog.ErrSlugExists
	}
	return nil
}

func (repo catalogRepository) CreateCategory(ctx context.Context, cat catalog.Category, exec ...core.DBExecutor) (catalog.Category, error) {
	cat.ID = uuid.New().String()
	q, args, err := psql.Insert("category").
		Columns(categoryColumns...).
		Values(
			cat.ID, cat.Name, cat.NameAmharic, cat.NameGeez,
			cat.Description, cat.DescriptionAmharic, cat.DescriptionGeez,
			cat.Slug, cat.Order, cat.CreatedAt, cat.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return catalog.Category{}, errors.Wrap(err, "building query")
	}
	if _, err := getExec(repo.db, exec).ExecContext(ctx, q, args...); err != nil {
		return catalog.Category{}, errors.Wrap(err, "inserting category")
	}
	return cat, nil
}

func (repo catalogRepository) categorySelect() sq.SelectBuilder {
	cols := append([]string{}, categoryColumns...)
	return psql.Select(append(cols, volumeCountCol)...).From("category")
}

func (repo catalogRepository) GetCategory(ctx context.Context, idOrSlug string, exec ...core.DBExecutor) (catalog.Category, error) {
	q, args, err := repo.categorySelect().
		Where(sq.Or{sq.Eq{"id": idOrSlug}, sq.Eq{"slug": idOrSlug}}).
		ToSql()
	if err != nil {
		return catalog.Category{}, errors.Wrap(err, "building query")
	}

	var c dbCategory
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &c, q, args...); err != nil {
		return catalog.Category{}, repo.trapNoRowsErr(err, catalog.ErrCategoryNotFound, "getting category")
	}
	return c.toCore(), nil
}

func (repo catalogRepository) QueryCategories(ctx context.Context, exec ...core.DBExecutor) ([]catalog.Category, error) {
	q, args, err := repo.categorySelect().OrderBy(`"order" ASC`, "created_at ASC").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}

	var rows []dbCategory
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying categories")
	}
	cats := make([]catalog.Category, 0, len(rows))
	for _, c := range rows {
		cats = append(cats, c.toCore())
	}
	return cats, nil
}

func (repo catalogRepository) UpdateCategory(ctx context.Context, cat catalog.Category, exec ...core.DBExecutor) (catalog.Category, error) {
	q, args, err := psql.Update("category").
		SetMap(map[string]interface{}{
			"name":                cat.Name,
			"name_amharic":        cat.NameAmharic,
			"name_geez":           cat.NameGeez,
			"description":         cat.Description,
			"description_amharic": cat.DescriptionAmharic,
			"description_geez":    cat.DescriptionGeez,
			"slug":                cat.Slug,
			`"order"`:             cat.Order,
			"updated_at":          cat.UpdatedAt,
		}).
		Where(sq.Eq{"id": cat.ID}).
		ToSql()
	if err != nil {
		return catalog.Category{}, errors.Wrap(err, "building query")
	}
	res, err := getExec(repo.db, exec).ExecContext(ctx, q, args...)
	if err != nil {
		return catalog.Category{}, errors.Wrap(err, "updating category")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return catalog.Category{}, catalog.ErrCategoryNotFound
	}
	return cat, nil
}

func (repo catalogRepository) DeleteCategory(ctx context.Context, id string, exec ...core.DBExecutor) error {
	q, args, err := psql.Delete("category").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	res, err := getExec(repo.db, exec).ExecContext(ctx, q, args...)
	if err != nil {
		return errors.Wrap(err, "deleting category")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return catalog.ErrCategoryNotFound
	}
	return nil
}

// Volumes

func (repo catalogRepository) CreateVolume(ctx context.Context, vol catalog.Volume, exec ...core.DBExecutor) (catalog.Volume, error) {
	vol.ID = uuid.New().String()
	q, args, err := psql.Insert("volume").
		Columns(volumeColumns...).
		Values(
			vol.ID, vol.Title, vol.TitleAmharic, vol.TitleGeez,
			vol.Description, vol.DescriptionAmharic, vol.DescriptionGeez,
			vol.VolumeNumber, vol.CategoryID, vol.CreatedAt, vol.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return catalog.Volume{}, errors.Wrap(err, "building query")
	}
	if _, err := getExec(repo.db, exec).ExecContext(ctx, q, args...); err != nil {
		return catalog.Volume{}, errors.Wrap(err, "inserting volume")
	}
	return vol, nil
}

func (repo catalogRepository) volumeSelect() sq.SelectBuilder {
	cols := append([]string{}, volumeColumns...)
	return psql.Select(append(cols, lessonCountCol)...).From("volume")
}

func (repo catalogRepository) GetVolume(ctx context.Context, id string, exec ...core.DBExecutor) (catalog.Volume, error) {
	q, args, err := repo.volumeSelect().Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return catalog.Volume{}, errors.Wrap(err, "building query")
	}

	var v dbVolume
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &v, q, args...); err != nil {
		return catalog.Volume{}, repo.trapNoRowsErr(err, catalog.ErrVolumeNotFound, "getting volume")
	}
	return v.toCore(), nil
}

func (repo catalogRepository) QueryVolumes(ctx context.Context, categoryID string, exec ...core.DBExecutor) ([]catalog.Volume, error) {
	b := repo.volumeSelect().OrderBy("volume_number ASC")
	if categoryID != "" {
		b = b.Where(sq.Eq{"category_id": categoryID})
	}
	q, args, err := b.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}

	var rows []dbVolume
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying volumes")
	}
	vols := make([]catalog.Volume, 0, len(rows))
	for _, v := range rows {
		vols = append(vols, v.toCore())
	}
	return vols, nil
}

func (repo catalogRepository) UpdateVolume(ctx context.Context, vol catalog.Volume, exec ...core.DBExecutor) (catalog.Volume, error) {
	q, args, err := psql.Update("volume").
		SetMap(map[string]interface{}{
			"title":               vol.Title,
			"title_amharic":       vol.TitleAmharic,
			"title_geez":          vol.TitleGeez,
			"description":         vol.Description,
			"description_amharic": vol.DescriptionAmharic,
			"description_geez":    vol.DescriptionGeez,
			"volume_number":       vol.VolumeNumber,
			"updated_at":          vol.UpdatedAt,
		}).
		Where(sq.Eq{"id": vol.ID}).
		ToSql()
	if err != nil {
		return catalog.Volume{}, errors.Wrap(err, "building query")
	}
	res, err := getExec(repo.db, exec).ExecContext(ctx, q, args...)
	if err != nil {
		return catalog.Volume{}, errors.Wrap(err, "updating volume")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return catalog.Volume{}, catalog.ErrVolumeNotFound
	}
	return vol, nil
}

func (repo catalogRepository) DeleteVolume(ctx context.Context, id string, exec ...core.DBExecutor) error {
	q, args, err := psql.Delete("volume").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	res, err := getExec(repo.db, exec).ExecContext(ctx, q, args...)
	if err != nil {
		return errors.Wrap(err, "deleting volume")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return catalog.ErrVolumeNotFound
	}
	return nil
}

// Lessons

func (repo catalogRepository) CreateLesson(ctx context.Context, lsn catalog.Lesson, exec ...core.DBExecutor) (catalog.Lesson, error) {
	lsn.ID = uuid.New().String()
	q, args, err := psql.Insert("lesson").
		Columns(lessonColumns...).
		Values(
			lsn.ID, lsn.Title, lsn.TitleAmharic, lsn.TitleGeez,
			lsn.Description, lsn.DescriptionAmharic, lsn.DescriptionGeez,
			lsn.Type, lsn.YouTubeURL, lsn.PDFURL, lsn.ThumbnailURL,
			lsn.LessonNumber, lsn.Duration, lsn.VolumeID, lsn.Published, lsn.CreatedAt, lsn.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return catalog.Lesson{}, errors.Wrap(err, "building query")
	}
	if _, err := getExec(repo.db, exec).ExecContext(ctx, q, args...); err != nil {
		return catalog.Lesson{}, errors.Wrap(err, "inserting lesson")
	}
	return lsn, nil
}

func (repo catalogRepository) GetLesson(ctx context.Context, id string, exec ...core.DBExecutor) (catalog.Lesson, error) {
	q, args, err := psql.Select(lessonColumns...).From("lesson").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return catalog.Lesson{}, errors.Wrap(err, "building query")
	}

	var l dbLesson
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &l, q, args...); err != nil {
		return catalog.Lesson{}, repo.trapNoRowsErr(err, catalog.ErrLessonNotFound, "getting lesson")
	}
	return l.toCore(), nil
}

func (repo catalogRepository) QueryLessons(ctx context.Context, filter *catalog.LessonFilter, exec ...core.DBExecutor) ([]catalog.Lesson, error) {
	b := psql.Select(lessonColumns...).From("lesson")
	ordering := "created_at DESC"
	if filter != nil {
		if filter.VolumeID != "" {
			b = b.Where(sq.Eq{"volume_id": filter.VolumeID})
			ordering = "lesson_number ASC"
		}
		if filter.PublishedOnly {
			b = b.Where(sq.Eq{"published": true})
		}
		if filter.Limit > 0 {
			b = b.Limit(uint64(filter.Limit))
		}
		if filter.Offset > 0 {
			b = b.Offset(uint64(filter.Offset))
		}
	}
	q, args, err := b.OrderBy(ordering).ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}

	var rows []dbLesson
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying lessons")
	}
	lsns := make([]catalog.Lesson, 0, len(rows))
	for _, l := range rows {
		lsns = append(lsns, l.toCore())
	}
	return lsns, nil
}

func (repo catalogRepository) UpdateLesson(ctx context.Context, lsn catalog.Lesson, exec ...core.DBExecutor) (catalog.Lesson, error) {
	q, args, err := psql.Update("lesson").
		SetMap(map[string]interface{}{
			"title":               lsn.Title,
			"title_amharic":       lsn.TitleAmharic,
			"title_geez":          lsn.TitleGeez,
			"description":         lsn.Description,
			"description_amharic": lsn.DescriptionAmharic,
			"description_geez":    lsn.DescriptionGeez,
			"type":                lsn.Type,
			"youtube_url":         lsn.YouTubeURL,
			"pdf_url":             lsn.PDFURL,
			"thumbnail_url":       lsn.ThumbnailURL,
			"lesson_number":       lsn.LessonNumber,
			"duration":            lsn.Duration,
			"published":           lsn.Published,
			"updated_at":          lsn.UpdatedAt,
		}).
		Where(sq.Eq{"id": lsn.ID}).
		ToSql()
	if err != nil {
		return catalog.Lesson{}, errors.Wrap(err, "building query")
	}
	res, err := getExec(repo.db, exec).ExecContext(ctx, q, args...)
	if err != nil {
		return catalog.Lesson{}, errors.Wrap(err, "updating lesson")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return catalog.Lesson{}, catalog.ErrLessonNotFound
	}
	return lsn, nil
}

func (repo catalogRepository) DeleteLesson(ctx context.Context, id string, exec ...core.DBExecutor) error {
	q, args, err := psql.Delete("lesson").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	res, err := getExec(repo.db, exec).ExecContext(ctx, q, args...)
	if err != nil {
		return errors.Wrap(err, "deleting lesson")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return catalog.ErrLessonNotFound
	}
	return nil
}

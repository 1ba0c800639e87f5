package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/keneanapp/kenean/core"
	"github.com/keneanapp/kenean/core/catalog"
)

type catalogRepository struct {
	db *DB
}

var _ catalog.Repository = (*catalogRepository)(nil) // interface compliance check

func NewCatalogRepository(db *DB) *catalogRepository {
	return &catalogRepository{db: db}
}

// callers must hold the lock
func (repo *catalogRepository) volumeCount(categoryID string) int {
	count := 0
	for _, vol := range repo.db.volumes {
		if vol.CategoryID == categoryID {
			count++
		}
	}
	return count
}

// callers must hold the lock
func (repo *catalogRepository) lessonCount(volumeID string) int {
	count := 0
	for _, lsn := range repo.db.lessons {
		if lsn.VolumeID == volumeID {
			count++
		}
	}
	return count
}

// Categories

func (repo *catalogRepository) CheckSlugUniqueness(ctx context.Context, slug string, excludedCategories []catalog.Category, exec ...core.DBExecutor) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	excluded := make(map[string]bool, len(excludedCategories))
	for _, c := range excludedCategories {
		excluded[c.ID] = true
	}
	for _, cat := range repo.db.categories {
		if cat.Slug == slug && !excluded[cat.ID] {
			return catalog.ErrSlugExists
		}
	}
	return nil
}

func (repo *catalogRepository) CreateCategory(ctx context.Context, cat catalog.Category, exec ...core.DBExecutor) (catalog.Category, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	cat.ID = uuid.New().String()
	repo.db.categories[cat.ID] = &cat
	return cat, nil
}

func (repo *catalogRepository) GetCategory(ctx context.Context, idOrSlug string, exec ...core.DBExecutor) (catalog.Category, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if cat, ok := repo.db.categories[idOrSlug]; ok {
		c := *cat
		c.VolumeCount = repo.volumeCount(c.ID)
		return c, nil
	}
	for _, cat := range repo.db.categories {
		if cat.Slug == idOrSlug {
			c := *cat
			c.VolumeCount = repo.volumeCount(c.ID)
			return c, nil
		}
	}
	return catalog.Category{}, catalog.ErrCategoryNotFound
}

func (repo *catalogRepository) QueryCategories(ctx context.Context, exec ...core.DBExecutor) ([]catalog.Category, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	cats := make([]catalog.Category, 0, len(repo.db.categories))
	for _, cat := range repo.db.categories {
		c := *cat
		c.VolumeCount = repo.volumeCount(c.ID)
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool {
		if cats[i].Order != cats[j].Order {
			return cats[i].Order < cats[j].Order
		}
		return cats[i].CreatedAt.Before(cats[j].CreatedAt)
	})
	return cats, nil
}

func (repo *catalogRepository) UpdateCategory(ctx context.Context, cat catalog.Category, exec ...core.DBExecutor) (catalog.Category, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.categories[cat.ID]; !ok {
		return catalog.Category{}, catalog.ErrCategoryNotFound
	}
	repo.db.categories[cat.ID] = &cat
	return cat, nil
}

func (repo *catalogRepository) DeleteCategory(ctx context.Context, id string, exec ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.categories[id]; !ok {
		return catalog.ErrCategoryNotFound
	}
	delete(repo.db.categories, id)
	// cascade
	for vid, vol := range repo.db.volumes {
		if vol.CategoryID != id {
			continue
		}
		for lid, lsn := range repo.db.lessons {
			if lsn.VolumeID == vid {
				delete(repo.db.lessons, lid)
			}
		}
		delete(repo.db.volumes, vid)
	}
	return nil
}

// Volumes

func (repo *catalogRepository) CreateVolume(ctx context.Context, vol catalog.Volume, exec ...core.DBExecutor) (catalog.Volume, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	vol.ID = uuid.New().String()
	repo.db.volumes[vol.ID] = &vol
	return vol, nil
}

func (repo *catalogRepository) GetVolume(ctx context.Context, id string, exec ...core.DBExecutor) (catalog.Volume, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if vol, ok := repo.db.volumes[id]; ok {
		v := *vol
		v.LessonCount = repo.lessonCount(v.ID)
		return v, nil
	}
	return catalog.Volume{}, catalog.ErrVolumeNotFound
}

func (repo *catalogRepository) QueryVolumes(ctx context.Context, categoryID string, exec ...core.DBExecutor) ([]catalog.Volume, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	vols := make([]catalog.Volume, 0)
	for _, vol := range repo.db.volumes {
		if categoryID != "" && vol.CategoryID != categoryID {
			continue
		}
		v := *vol
		v.LessonCount = repo.lessonCount(v.ID)
		vols = append(vols, v)
	}
	sort.Slice(vols, func(i, j int) bool { return vols[i].VolumeNumber < vols[j].VolumeNumber })
	return vols, nil
}

func (repo *catalogRepository) UpdateVolume(ctx context.Context, vol catalog.Volume, exec ...core.DBExecutor) (catalog.Volume, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.volumes[vol.ID]; !ok {
		return catalog.Volume{}, catalog.ErrVolumeNotFound
	}
	repo.db.volumes[vol.ID] = &vol
	return vol, nil
}

func (repo *catalogRepository) DeleteVolume(ctx context.Context, id string, exec ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.volumes[id]; !ok {
		return catalog.ErrVolumeNotFound
	}
	delete(repo.db.volumes, id)
	for lid, lsn := range repo.db.lessons {
		if lsn.VolumeID == id {
			delete(repo.db.lessons, lid)
		}
	}
	return nil
}

// Lessons

func (repo *catalogRepository) CreateLesson(ctx context.Context, lsn catalog.Lesson, exec ...core.DBExecutor) (catalog.Lesson, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	lsn.ID = uuid.New().String()
	repo.db.lessons[lsn.ID] = &lsn
	return lsn, nil
}

func (repo *catalogRepository) GetLesson(ctx context.Context, id string, exec ...core.DBExecutor) (catalog.Lesson, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if lsn, ok := repo.db.lessons[id]; ok {
		return *lsn, nil
	}
	return catalog.Lesson{}, catalog.ErrLessonNotFound
}

func (repo *catalogRepository) QueryLessons(ctx context.Context, filter *catalog.LessonFilter, exec ...core.DBExecutor) ([]catalog.Lesson, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	byVolume := filter != nil && filter.VolumeID != ""
	lsns := make([]catalog.Lesson, 0)
	for _, lsn := range repo.db.lessons {
		if filter != nil {
			if byVolume && lsn.VolumeID != filter.VolumeID {
				continue
			}
			if filter.PublishedOnly && !lsn.Published {
				continue
			}
		}
		lsns = append(lsns, *lsn)
	}

	if byVolume {
		sort.Slice(lsns, func(i, j int) bool { return lsns[i].LessonNumber < lsns[j].LessonNumber })
	} else {
		sort.Slice(lsns, func(i, j int) bool { return lsns[i].CreatedAt.After(lsns[j].CreatedAt) })
	}

	if filter != nil {
		if filter.Offset > 0 {
			if filter.Offset >= len(lsns) {
				return []catalog.Lesson{}, nil
			}
			lsns = lsns[filter.Offset:]
		}
		if filter.Limit > 0 && filter.Limit < len(lsns) {
			lsns = lsns[:filter.Limit]
		}
	}
	return lsns, nil
}

func (repo *catalogRepository) UpdateLesson(ctx context.Context, lsn catalog.Lesson, exec ...core.DBExecutor) (catalog.Lesson, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.lessons[lsn.ID]; !ok {
		return catalog.Lesson{}, catalog.ErrLessonNotFound
	}
	repo.db.lessons[lsn.ID] = &lsn
	return lsn, nil
}

func (repo *catalogRepository) DeleteLesson(ctx context.Context, id string, exec ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.lessons[id]; !ok {
		return catalog.ErrLessonNotFound
	}
	delete(repo.db.lessons, id)
	return nil
}

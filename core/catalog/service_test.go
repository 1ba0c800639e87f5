package catalog_test

import (
	"context"
	"testing"

	"github.com/keneanapp/kenean/core"
	"github.com/keneanapp/kenean/core/catalog"
	inmemdb "github.com/keneanapp/kenean/storage/database/inmem"
)

func newTestService(t *testing.T) catalog.Service {
	t.Helper()
	db := inmemdb.NewDB()
	return catalog.NewService(inmemdb.NewCatalogRepository(db), core.NewNopInvalidator())
}

func createCategory(t *testing.T, svc catalog.Service, name, slug string, order int) catalog.Category {
	t.Helper()
	cat, err := svc.CreateCategory(context.Background(), catalog.NewCategory{Name: name, Slug: slug, Order: order})
	if err != nil {
		t.Fatalf("CreateCategory(): %v", err)
	}
	return cat
}

func createVolume(t *testing.T, svc catalog.Service, categoryID string, number int) catalog.Volume {
	t.Helper()
	vol, err := svc.CreateVolume(context.Background(), catalog.NewVolume{
		Title:        "Volume",
		VolumeNumber: number,
		CategoryID:   categoryID,
	})
	if err != nil {
		t.Fatalf("CreateVolume(): %v", err)
	}
	return vol
}

func strPtr(s string) *string { return &s }

func TestService_Categories(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cat := createCategory(t, svc, "Videos", "videos", 2)
	createCategory(t, svc, "Books", "books", 1)

	// slug is unique
	_, err := svc.CreateCategory(ctx, catalog.NewCategory{Name: "More Videos", Slug: "videos"})
	if err == nil {
		t.Fatal("expected slug uniqueness error")
	}
	vErr, ok := err.(*core.ValidationError)
	if !ok {
		t.Fatalf("error type = %T; want *core.ValidationError", err)
	}
	if len(vErr.Fields) != 1 || vErr.Fields[0].Field != "slug" {
		t.Errorf("Fields = %v; want a slug field error", vErr.Fields)
	}

	// lookup by ID or slug
	if _, err := svc.GetCategory(ctx, cat.ID); err != nil {
		t.Errorf("GetCategory(id): %v", err)
	}
	if _, err := svc.GetCategory(ctx, "videos"); err != nil {
		t.Errorf("GetCategory(slug): %v", err)
	}
	_, err = svc.GetCategory(ctx, "nope")
	if err == nil || err.Error() != catalog.ErrCategoryNotFound.Error() {
		t.Errorf("GetCategory(nope) = %v; want %v", err, catalog.ErrCategoryNotFound)
	}

	// listing is ordered by Order ascending
	cats, err := svc.QueryCategories(ctx)
	if err != nil {
		t.Fatalf("QueryCategories(): %v", err)
	}
	if len(cats) != 2 || cats[0].Slug != "books" {
		t.Errorf("categories out of order: %v", cats)
	}

	// patch semantics: set fields win, nil fields are left alone
	got, err := svc.UpdateCategory(ctx, cat.ID, catalog.UpdateCategory{NameAmharic: strPtr("ቪዲዮዎች")})
	if err != nil {
		t.Fatalf("UpdateCategory(): %v", err)
	}
	if got.NameAmharic != "ቪዲዮዎች" {
		t.Errorf("NameAmharic = %q", got.NameAmharic)
	}
	if got.Name != "Videos" || got.Slug != "videos" {
		t.Errorf("untouched fields changed: %+v", got)
	}

	// changing the slug re-checks uniqueness, excluding self
	if _, err := svc.UpdateCategory(ctx, cat.ID, catalog.UpdateCategory{Slug: strPtr("videos")}); err != nil {
		t.Errorf("UpdateCategory(same slug): %v", err)
	}
	if _, err := svc.UpdateCategory(ctx, cat.ID, catalog.UpdateCategory{Slug: strPtr("books")}); err == nil {
		t.Error("expected slug uniqueness error")
	}
}

func TestService_Volumes(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cat := createCategory(t, svc, "Videos", "videos", 1)

	// volumes require an existing category
	_, err := svc.CreateVolume(ctx, catalog.NewVolume{Title: "Orphan", VolumeNumber: 1, CategoryID: "nope"})
	if err == nil || err.Error() != catalog.ErrCategoryNotFound.Error() {
		t.Errorf("CreateVolume(bad category) = %v; want %v", err, catalog.ErrCategoryNotFound)
	}

	createVolume(t, svc, cat.ID, 2)
	createVolume(t, svc, cat.ID, 1)

	// ordered by volume number
	vols, err := svc.QueryVolumes(ctx, cat.ID)
	if err != nil {
		t.Fatalf("QueryVolumes(): %v", err)
	}
	if len(vols) != 2 || vols[0].VolumeNumber != 1 {
		t.Errorf("volumes out of order: %v", vols)
	}

	// the category advertises its volume count
	cat, err = svc.GetCategory(ctx, cat.ID)
	if err != nil {
		t.Fatalf("GetCategory(): %v", err)
	}
	if cat.VolumeCount != 2 {
		t.Errorf("VolumeCount = %d; want 2", cat.VolumeCount)
	}
}

func TestService_Lessons(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cat := createCategory(t, svc, "Videos", "videos", 1)
	vol := createVolume(t, svc, cat.ID, 1)

	// a video lesson needs a YouTube URL
	_, err := svc.CreateLesson(ctx, catalog.NewLesson{
		Title:        "Intro to the Kidase",
		Type:         catalog.LessonVideo,
		LessonNumber: 1,
		VolumeID:     vol.ID,
	})
	if err == nil {
		t.Fatal("expected a youtube_url validation error")
	}

	lsn, err := svc.CreateLesson(ctx, catalog.NewLesson{
		Title:        "Intro to the Kidase",
		Type:         catalog.LessonVideo,
		YouTubeURL:   "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		LessonNumber: 2,
		VolumeID:     vol.ID,
		Published:    true,
	})
	if err != nil {
		t.Fatalf("CreateLesson(): %v", err)
	}

	// thumbnail derived from the video ID when none was provided
	want := "https://img.youtube.com/vi/dQw4w9WgXcQ/maxresdefault.jpg"
	if lsn.ThumbnailURL != want {
		t.Errorf("ThumbnailURL = %q; want %q", lsn.ThumbnailURL, want)
	}

	// a book lesson does not need one
	draft, err := svc.CreateLesson(ctx, catalog.NewLesson{
		Title:        "The Fetha Nagast",
		Type:         catalog.LessonBook,
		PDFURL:       "https://files.test/fetha.pdf",
		LessonNumber: 1,
		VolumeID:     vol.ID,
	})
	if err != nil {
		t.Fatalf("CreateLesson(book): %v", err)
	}

	// volume filter orders by lesson number; PublishedOnly hides drafts
	lessons, err := svc.QueryLessons(ctx, &catalog.LessonFilter{VolumeID: vol.ID})
	if err != nil {
		t.Fatalf("QueryLessons(): %v", err)
	}
	if len(lessons) != 2 || lessons[0].LessonNumber != 1 {
		t.Errorf("lessons out of order: %v", lessons)
	}
	published, err := svc.QueryLessons(ctx, &catalog.LessonFilter{VolumeID: vol.ID, PublishedOnly: true})
	if err != nil {
		t.Fatalf("QueryLessons(published): %v", err)
	}
	if len(published) != 1 || published[0].ID != lsn.ID {
		t.Errorf("published = %v; want only the published lesson", published)
	}

	// publish flips the flag through the patch path
	draft, err = svc.SetLessonPublished(ctx, draft.ID, true)
	if err != nil {
		t.Fatalf("SetLessonPublished(): %v", err)
	}
	if !draft.Published {
		t.Error("Published = false; want true")
	}

	// a new YouTube URL re-derives the thumbnail
	lsn, err = svc.UpdateLesson(ctx, lsn.ID, catalog.UpdateLesson{YouTubeURL: strPtr("https://youtu.be/abcdefghijk")})
	if err != nil {
		t.Fatalf("UpdateLesson(): %v", err)
	}
	if lsn.ThumbnailURL != "https://img.youtube.com/vi/abcdefghijk/maxresdefault.jpg" {
		t.Errorf("ThumbnailURL = %q", lsn.ThumbnailURL)
	}

	// the volume advertises its lesson count
	vol, err = svc.GetVolume(ctx, vol.ID)
	if err != nil {
		t.Fatalf("GetVolume(): %v", err)
	}
	if vol.LessonCount != 2 {
		t.Errorf("LessonCount = %d; want 2", vol.LessonCount)
	}

	if err := svc.DeleteLesson(ctx, draft.ID); err != nil {
		t.Fatalf("DeleteLesson(): %v", err)
	}
	_, err = svc.GetLesson(ctx, draft.ID)
	if err == nil || err.Error() != catalog.ErrLessonNotFound.Error() {
		t.Errorf("GetLesson(deleted) = %v; want %v", err, catalog.ErrLessonNotFound)
	}
}

func TestExtractYouTubeID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ"},
		{"https://example.com/video.mp4", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := catalog.ExtractYouTubeID(tt.url); got != tt.want {
			t.Errorf("ExtractYouTubeID(%q) = %q; want %q", tt.url, got, tt.want)
		}
	}
}

package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/keneanapp/kenean/core/catalog"
	"github.com/keneanapp/kenean/core/user"
)

func Test_catalogApi_categories(t *testing.T) {
	env := setup(t)

	usr := createUser(t, env.usrSvc, "Hero", "hero@test.test", user.RoleUser)
	teacher := createUser(t, env.usrSvc, "Teacher", "teacher@test.test", user.RoleTeacher)
	admin := createUser(t, env.usrSvc, "Admin", "admin@test.test", user.RoleAdmin)
	adminToken := getToken(t, admin)

	newCat := marchallObj(t, catalog.NewCategory{Name: "Videos", Slug: "videos", Order: 1})

	tests := []httpTest{
		{name: "empty listing", method: http.MethodGet, path: "/v1/categories", wantCode: http.StatusOK, wantData: []byte("[]")},
		{
			name: "create requires auth", method: http.MethodPost, path: "/v1/categories", body: newCat,
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "create requires admin (user)", method: http.MethodPost, path: "/v1/categories", body: newCat,
			token: getToken(t, usr), wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied),
		},
		{
			name: "create requires admin (teacher)", method: http.MethodPost, path: "/v1/categories", body: newCat,
			token: getToken(t, teacher), wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied),
		},
		{
			name: "create", method: http.MethodPost, path: "/v1/categories", body: newCat,
			token: adminToken, wantCode: http.StatusCreated,
		},
		{
			name: "bad slug", method: http.MethodPost, path: "/v1/categories",
			body:  marchallObj(t, catalog.NewCategory{Name: "Bad", Slug: "Not A Slug!"}),
			token: adminToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"slug": "only lowercase alphanumeric characters and hyphens are allowed"}),
		},
		{
			name: "duplicate slug", method: http.MethodPost, path: "/v1/categories", body: newCat,
			token: adminToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"slug": "a category with this slug already exists"}),
		},
		{
			name: "lookup by slug", method: http.MethodGet, path: "/v1/categories/videos", wantCode: http.StatusOK,
		},
		{
			name: "unknown category", method: http.MethodGet, path: "/v1/categories/nope",
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "category not found"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_catalogApi_draftVisibility(t *testing.T) {
	env := setup(t)
	ctx := ctxBg()

	usr := createUser(t, env.usrSvc, "Hero", "hero@test.test", user.RoleUser)
	teacher := createUser(t, env.usrSvc, "Teacher", "teacher@test.test", user.RoleTeacher)

	cat, err := env.catalogSvc.CreateCategory(ctx, catalog.NewCategory{Name: "Videos", Slug: "videos", Order: 1})
	if err != nil {
		t.Fatalf("CreateCategory(): %v", err)
	}
	vol, err := env.catalogSvc.CreateVolume(ctx, catalog.NewVolume{Title: "Volume One", VolumeNumber: 1, CategoryID: cat.ID})
	if err != nil {
		t.Fatalf("CreateVolume(): %v", err)
	}
	published, err := env.catalogSvc.CreateLesson(ctx, catalog.NewLesson{
		Title:        "Intro to the Kidase",
		Type:         catalog.LessonVideo,
		YouTubeURL:   "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		LessonNumber: 1,
		VolumeID:     vol.ID,
		Published:    true,
	})
	if err != nil {
		t.Fatalf("CreateLesson(): %v", err)
	}
	draft, err := env.catalogSvc.CreateLesson(ctx, catalog.NewLesson{
		Title:        "The Fetha Nagast",
		Type:         catalog.LessonBook,
		PDFURL:       "https://files.test/fetha.pdf",
		LessonNumber: 2,
		VolumeID:     vol.ID,
	})
	if err != nil {
		t.Fatalf("CreateLesson(): %v", err)
	}

	listLen := func(t *testing.T, token string, path string) int {
		t.Helper()
		req, rec := newAuthRequest(http.MethodGet, path, token)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var lessons []catalog.Lesson
		if err := json.Unmarshal(rec.Body.Bytes(), &lessons); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		return len(lessons)
	}

	t.Run("anonymous sees published only", func(t *testing.T) {
		if n := listLen(t, "", "/v1/lessons"); n != 1 {
			t.Errorf("lessons = %d; want 1", n)
		}
	})
	t.Run("regular users see published only", func(t *testing.T) {
		if n := listLen(t, getToken(t, usr), "/v1/lessons"); n != 1 {
			t.Errorf("lessons = %d; want 1", n)
		}
	})
	t.Run("staff sees drafts", func(t *testing.T) {
		if n := listLen(t, getToken(t, teacher), "/v1/lessons"); n != 2 {
			t.Errorf("lessons = %d; want 2", n)
		}
	})
	t.Run("volume listing hides drafts from the public", func(t *testing.T) {
		if n := listLen(t, "", "/v1/volumes/"+vol.ID+"/lessons"); n != 1 {
			t.Errorf("lessons = %d; want 1", n)
		}
		if n := listLen(t, getToken(t, teacher), "/v1/volumes/"+vol.ID+"/lessons"); n != 2 {
			t.Errorf("lessons = %d; want 2", n)
		}
	})

	t.Run("draft detail is hidden from the public", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/lessons/"+draft.ID)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "lesson not found"}),
		}, rec)
	})
	t.Run("draft detail is visible to staff", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/lessons/"+draft.ID, getToken(t, teacher))
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, draft)}, rec)
	})
	t.Run("published detail is public", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/lessons/"+published.ID)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, published)}, rec)
	})
}

func Test_catalogApi_publish(t *testing.T) {
	env := setup(t)
	ctx := ctxBg()

	teacher := createUser(t, env.usrSvc, "Teacher", "teacher@test.test", user.RoleTeacher)
	admin := createUser(t, env.usrSvc, "Admin", "admin@test.test", user.RoleAdmin)

	cat, err := env.catalogSvc.CreateCategory(ctx, catalog.NewCategory{Name: "Books", Slug: "books", Order: 1})
	if err != nil {
		t.Fatalf("CreateCategory(): %v", err)
	}
	vol, err := env.catalogSvc.CreateVolume(ctx, catalog.NewVolume{Title: "Volume One", VolumeNumber: 1, CategoryID: cat.ID})
	if err != nil {
		t.Fatalf("CreateVolume(): %v", err)
	}
	draft, err := env.catalogSvc.CreateLesson(ctx, catalog.NewLesson{
		Title:        "The Fetha Nagast",
		Type:         catalog.LessonBook,
		PDFURL:       "https://files.test/fetha.pdf",
		LessonNumber: 1,
		VolumeID:     vol.ID,
	})
	if err != nil {
		t.Fatalf("CreateLesson(): %v", err)
	}

	t.Run("publish requires admin", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/lessons/"+draft.ID+"/publish", getToken(t, teacher))
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied)}, rec)
	})

	t.Run("publish", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/lessons/"+draft.ID+"/publish", getToken(t, admin))
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var lsn catalog.Lesson
		if err := json.Unmarshal(rec.Body.Bytes(), &lsn); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if !lsn.Published {
			t.Error("Published = false; want true")
		}
	})

	t.Run("unpublish", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/lessons/"+draft.ID+"/unpublish", getToken(t, admin))
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var lsn catalog.Lesson
		if err := json.Unmarshal(rec.Body.Bytes(), &lsn); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if lsn.Published {
			t.Error("Published = true; want false")
		}
	})
}

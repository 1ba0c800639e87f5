package tests

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/keneanapp/kenean/core/user"
)

func newUploadRequest(t *testing.T, token, kind, contentType string, size int) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if kind != "" {
		if err := w.WriteField("type", kind); err != nil {
			t.Fatalf("writing type field: %v", err)
		}
	}
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="upload.bin"`)
	hdr.Set("Content-Type", contentType)
	part, err := w.CreatePart(hdr)
	if err != nil {
		t.Fatalf("creating file part: %v", err)
	}
	if _, err := part.Write(bytes.Repeat([]byte("a"), size)); err != nil {
		t.Fatalf("writing file part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/uploads", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func Test_uploadApi_validation(t *testing.T) {
	env := setup(t)

	usr := createUser(t, env.usrSvc, "Hero", "hero@test.test", user.RoleUser)
	teacher := createUser(t, env.usrSvc, "Teacher", "teacher@test.test", user.RoleTeacher)
	teacherToken := getToken(t, teacher)

	t.Run("auth required", func(t *testing.T) {
		req, rec := newUploadRequest(t, "", "image", "image/png", 16)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
	})

	t.Run("staff only", func(t *testing.T) {
		req, rec := newUploadRequest(t, getToken(t, usr), "image", "image/png", 16)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied)}, rec)
	})

	t.Run("oversized file", func(t *testing.T) {
		req, rec := newUploadRequest(t, teacherToken, "image", "image/png", 10<<20+1)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"file": "File size must be less than 10MB"}),
		}, rec)
	})

	t.Run("wrong image type", func(t *testing.T) {
		req, rec := newUploadRequest(t, teacherToken, "image", "text/plain", 16)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"file": "Invalid image type. Allowed types: JPEG, PNG, GIF, WebP"}),
		}, rec)
	})

	t.Run("wrong document type", func(t *testing.T) {
		req, rec := newUploadRequest(t, teacherToken, "document", "image/png", 16)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"file": "Invalid document type. Allowed types: PDF"}),
		}, rec)
	})

	t.Run("unknown kind", func(t *testing.T) {
		req, rec := newUploadRequest(t, teacherToken, "archive", "application/zip", 16)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"type": "must be one of: image, document"}),
		}, rec)
	})
}

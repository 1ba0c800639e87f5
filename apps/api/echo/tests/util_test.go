package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/keneanapp/kenean/apps/api/echo"
	"github.com/keneanapp/kenean/core"
	"github.com/keneanapp/kenean/core/catalog"
	"github.com/keneanapp/kenean/core/qa"
	"github.com/keneanapp/kenean/core/user"
	emailsvc "github.com/keneanapp/kenean/services/email"
	mediasvc "github.com/keneanapp/kenean/services/media"
	translatesvc "github.com/keneanapp/kenean/services/translate"
	inmemdb "github.com/keneanapp/kenean/storage/database/inmem"
)

// a password that clears the whole policy
const testPassword = "S3cret#Pass"

func ctxBg() context.Context { return context.Background() }

type testEnv struct {
	app        Server
	usrSvc     user.Service
	catalogSvc catalog.Service
	qaSvc      qa.Service
}

// setup builds a fresh app on in-memory repositories; no state is shared
// between tests.
func setup(t *testing.T) *testEnv {
	t.Helper()

	db := inmemdb.NewDB()
	usrRepo := inmemdb.NewUserRepository(db)
	catalogRepo := inmemdb.NewCatalogRepository(db)
	qaRepo := inmemdb.NewQARepository(db)

	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	invalidator := core.NewNopInvalidator()
	usrSvc := user.NewServiceMock(usrRepo, mailSvc, conf)
	catalogSvc := catalog.NewService(catalogRepo, invalidator)
	qaSvc := qa.NewServiceMock(qaRepo, catalogSvc, usrSvc, mailSvc, invalidator, conf)

	app := NewServer(ServerDeps{
		Conf:           conf,
		Logger:         logger,
		UserSvc:        usrSvc,
		CatalogSvc:     catalogSvc,
		QASvc:          qaSvc,
		MediaSvc:       mediasvc.NewCloudinaryService(logger, conf),
		TranslateSvc:   translatesvc.NewGeminiService(logger, conf),
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})
	return &testEnv{app: app, usrSvc: usrSvc, catalogSvc: catalogSvc, qaSvc: qaSvc}
}

func createUser(t *testing.T, svc user.Service, name, email string, role user.Role) user.User {
	t.Helper()
	ctx := context.Background()

	usr, err := svc.Create(ctx, user.NewUser{
		Name:            name,
		Email:           email,
		Password:        testPassword,
		PasswordConfirm: testPassword,
	})
	if err != nil {
		t.Fatalf("createUser(): %v", err)
	}
	if role != user.RoleUser {
		if usr, err = svc.SetRole(ctx, usr.ID, role); err != nil {
			t.Fatalf("createUser(): %v", err)
		}
	}
	return usr
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	if l1, ok := j1.([]interface{}); ok {
		if l2, ok := j2.([]interface{}); ok {
			return assert.ElementsMatch(t, l1, l2), nil
		}
	}
	return false, nil
}

// checkCodeAndData compares the status code and, when wantData is set, the body.
func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

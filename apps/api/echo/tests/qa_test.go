package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/keneanapp/kenean/core/qa"
	"github.com/keneanapp/kenean/core/user"
)

func Test_questionApi_submit(t *testing.T) {
	env := setup(t)

	usr := createUser(t, env.usrSvc, "Hero", "hero@test.test", user.RoleUser)

	t.Run("auth required", func(t *testing.T) {
		body := marchallObj(t, qa.SubmitQuestion{Content: "What does Kidase mean?"})
		req, rec := newRequest(http.MethodPost, "/v1/questions", body)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
	})

	t.Run("content too short", func(t *testing.T) {
		body := marchallObj(t, qa.SubmitQuestion{Content: "short"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/questions", getToken(t, usr), body)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %v; want %v", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("unknown lesson", func(t *testing.T) {
		body := marchallObj(t, qa.SubmitQuestion{Content: "What does Kidase mean?", LessonID: "nope"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/questions", getToken(t, usr), body)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "lesson not found"}),
		}, rec)
	})

	t.Run("submit", func(t *testing.T) {
		body := marchallObj(t, qa.SubmitQuestion{Content: "What does Kidase mean?"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/questions", getToken(t, usr), body)
		env.app.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; want %v: %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		var q qa.Question
		if err := json.Unmarshal(rec.Body.Bytes(), &q); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if q.Status != qa.StatusPending {
			t.Errorf("Status = %q; want %q", q.Status, qa.StatusPending)
		}
		if q.UserID != usr.ID {
			t.Errorf("UserID = %q; want %q", q.UserID, usr.ID)
		}
	})

	t.Run("public listing hides unanswered questions", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/questions")
		env.app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var page qa.QuestionPage
		if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if page.Total != 0 || len(page.Questions) != 0 {
			t.Errorf("page = %+v; want an empty page", page)
		}
	})
}

func Test_questionApi_lifecycle(t *testing.T) {
	env := setup(t)
	ctx := ctxBg()

	asker := createUser(t, env.usrSvc, "Hero", "hero@test.test", user.RoleUser)
	teacher1 := createUser(t, env.usrSvc, "Abba Yohannes", "abba@test.test", user.RoleTeacher)
	teacher2 := createUser(t, env.usrSvc, "Memhir Girma", "memhir@test.test", user.RoleTeacher)

	q, err := env.qaSvc.Submit(ctx, asker, qa.SubmitQuestion{Content: "What does Kidase mean?"})
	if err != nil {
		t.Fatalf("Submit(): %v", err)
	}

	askerToken := getToken(t, asker)
	teacher1Token := getToken(t, teacher1)
	teacher2Token := getToken(t, teacher2)

	t.Run("pending question is hidden from the public", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/questions/"+q.ID)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "question not found"}),
		}, rec)
	})

	t.Run("pending question is hidden from the asker too", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/questions/"+q.ID, askerToken)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "question not found"}),
		}, rec)
	})

	t.Run("asker finds it in their own list", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/questions/mine", askerToken)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var page qa.QuestionPage
		if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if page.Total != 1 {
			t.Errorf("Total = %d; want 1", page.Total)
		}
	})

	t.Run("staff sees the pending question", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/questions/"+q.ID, teacher1Token)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("code = %v; want %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
	})

	t.Run("claim requires staff", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/questions/"+q.ID+"/claim", askerToken)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied)}, rec)
	})

	t.Run("claim", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/questions/"+q.ID+"/claim", teacher1Token)
		env.app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var got qa.Question
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if got.Status != qa.StatusClaimed || got.ClaimedByID != teacher1.ID {
			t.Errorf("question = %+v; want CLAIMED by teacher1", got)
		}
	})

	t.Run("claimed question cannot be claimed by another teacher", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/questions/"+q.ID+"/claim", teacher2Token)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: "this question has already been claimed"}),
		}, rec)
	})

	t.Run("re-claim by the claimer", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/questions/"+q.ID+"/claim", teacher1Token)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: "you have already claimed this question"}),
		}, rec)
	})

	t.Run("discussion comment", func(t *testing.T) {
		body := marchallObj(t, qa.AddDiscussion{Content: "Could you say more about the context?"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/questions/"+q.ID+"/discussions", teacher1Token, body)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; want %v: %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
	})

	t.Run("discussions are staff-only", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/questions/"+q.ID+"/discussions", askerToken)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied)}, rec)
	})

	t.Run("answer", func(t *testing.T) {
		body := marchallObj(t, qa.SubmitAnswer{Content: "Kidase means the Divine Liturgy."})
		req, rec := newAuthRequest(http.MethodPost, "/v1/questions/"+q.ID+"/answer", teacher1Token, body)
		env.app.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; want %v: %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		var ans qa.Answer
		if err := json.Unmarshal(rec.Body.Bytes(), &ans); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if ans.AuthorID != teacher1.ID {
			t.Errorf("AuthorID = %q; want %q", ans.AuthorID, teacher1.ID)
		}
	})

	t.Run("second answer is rejected", func(t *testing.T) {
		body := marchallObj(t, qa.SubmitAnswer{Content: "Another answer for the same question."})
		req, rec := newAuthRequest(http.MethodPost, "/v1/questions/"+q.ID+"/answer", teacher2Token, body)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: "this question already has an answer"}),
		}, rec)
	})

	t.Run("answered question cannot be unclaimed", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/questions/"+q.ID+"/unclaim", teacher1Token)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: "cannot unclaim an answered question"}),
		}, rec)
	})

	t.Run("answered question is public", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/questions/"+q.ID)
		env.app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var got qa.Question
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if got.Status != qa.StatusAnswered || got.Answer == nil {
			t.Errorf("question = %+v; want ANSWERED with its answer expanded", got)
		}
	})

	t.Run("public answer detail", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/questions/"+q.ID+"/answer")
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("code = %v; want %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
	})

	t.Run("public listing includes it now", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/questions")
		env.app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var page qa.QuestionPage
		if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if page.Total != 1 || len(page.Questions) != 1 || page.HasMore {
			t.Errorf("page = %+v; want exactly one answered question", page)
		}
	})

	t.Run("any staff member may delete the answer", func(t *testing.T) {
		ans, err := env.qaSvc.GetAnswerByQuestion(ctx, q.ID)
		if err != nil {
			t.Fatalf("GetAnswerByQuestion(): %v", err)
		}

		// not the author, still staff
		req, rec := newAuthRequest(http.MethodDelete, "/v1/answers/"+ans.ID, teacher2Token)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("code = %v; want %v: %s", rec.Code, http.StatusNoContent, rec.Body.String())
		}

		got, err := env.qaSvc.Get(ctx, teacher2, q.ID)
		if err != nil {
			t.Fatalf("Get(): %v", err)
		}
		if got.Status != qa.StatusClaimed {
			t.Errorf("Status = %v; want %v", got.Status, qa.StatusClaimed)
		}
	})
}

func Test_questionApi_staffLists(t *testing.T) {
	env := setup(t)
	ctx := ctxBg()

	asker := createUser(t, env.usrSvc, "Hero", "hero@test.test", user.RoleUser)
	teacher := createUser(t, env.usrSvc, "Abba Yohannes", "abba@test.test", user.RoleTeacher)

	if _, err := env.qaSvc.Submit(ctx, asker, qa.SubmitQuestion{Content: "What does Kidase mean?"}); err != nil {
		t.Fatalf("Submit(): %v", err)
	}
	if _, err := env.qaSvc.Submit(ctx, asker, qa.SubmitQuestion{Content: "Who wrote the Fetha Nagast?"}); err != nil {
		t.Fatalf("Submit(): %v", err)
	}

	askerToken := getToken(t, asker)
	teacherToken := getToken(t, teacher)

	tests := []httpTest{
		{
			name: "all requires staff", method: http.MethodGet, path: "/v1/questions/all", token: askerToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied),
		},
		{
			name: "pending count requires staff", method: http.MethodGet, path: "/v1/questions/pending-count", token: askerToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied),
		},
		{
			name: "pending count", method: http.MethodGet, path: "/v1/questions/pending-count", token: teacherToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, map[string]int{"count": 2}),
		},
		{
			name: "mine requires auth", method: http.MethodGet, path: "/v1/questions/mine",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("all", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/questions/all", teacherToken)
		env.app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var page qa.QuestionPage
		if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if page.Total != 2 || len(page.Questions) != 2 {
			t.Errorf("page = %+v; want both questions", page)
		}
	})

	t.Run("mine", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/questions/mine", askerToken)
		env.app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var page qa.QuestionPage
		if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if page.Total != 2 {
			t.Errorf("Total = %d; want 2", page.Total)
		}
	})
}

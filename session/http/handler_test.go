package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/programme-lv/classroom/account"
	"github.com/programme-lv/classroom/auth"
	"github.com/programme-lv/classroom/course"
	"github.com/programme-lv/classroom/s3bucket"
	"github.com/programme-lv/classroom/session"
	sessionhttp "github.com/programme-lv/classroom/session/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jwtKey = []byte("test")

type env struct {
	h        http.Handler
	token    string
	courseID int64
	exercise int64
}

func setup(t *testing.T) env {
	t.Helper()
	ctx := context.Background()
	accounts := account.NewAccountSrvc(account.NewInMemRepo(), nil, "")
	_, err := accounts.CreateTeacherCode(ctx, "Math", "Math 101", "MATH-101")
	require.NoError(t, err)
	teacher, err := accounts.RegisterTeacher(ctx, account.TeacherSignup{SpecialCode: "MATH-101", Email: "t@school.lv"})
	require.NoError(t, err)
	ta, err := accounts.CreateAssistant(ctx, account.NewAssistant{Name: "Ta", SpecialCode: "TA-1", Email: "ta@school.lv"})
	require.NoError(t, err)
	st, err := accounts.CreateStudent(ctx, account.NewStudent{Name: "Anna", Email: "a@s.lv", StudentID: "S-1", Password: "pw"})
	require.NoError(t, err)
	token, err := auth.GenerateJWT(st.ID, st.StudentID, st.Name, st.Email, jwtKey)
	require.NoError(t, err)

	courseRepo := course.NewInMemRepo()
	courses := course.NewCourseSrvc(courseRepo, accounts)
	c, err := courses.CreateCourse(ctx, teacher.TeacherID, "Algebra", "")
	require.NoError(t, err)
	e, _, err := courses.CreateExercise(ctx, teacher.TeacherID, course.NewExercise{
		CourseID:  c.ID,
		Title:     "Homework 1",
		Questions: []course.NewQuestion{{Text: "one", Points: 1}},
	})
	require.NoError(t, err)
	_, err = courses.AssignAssistant(ctx, teacher.TeacherID, c.ID, ta.ID)
	require.NoError(t, err)

	srvc := session.NewSessionSrvc(
		session.NewInMemRepo(courseRepo), courses, accounts,
		s3bucket.NewMemBucket("https://files.example"),
		session.Options{PublicBaseURL: "https://class.example", AllowEvidenceReopen: true},
	)
	r := chi.NewRouter()
	r.Use(auth.GetJwtAuthMiddleware(jwtKey))
	sessionhttp.NewSessionHttpHandler(srvc, 1<<20).RegisterRoutes(r)
	return env{h: r, token: token, courseID: c.ID, exercise: e.ID}
}

func (e env) post(t *testing.T, path string, body map[string]any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	jsonBody, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	return e.serve(t, req)
}

func (e env) serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	e.h.ServeHTTP(w, req)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w, resp
}

func (e env) upload(t *testing.T, submissionID any, content []byte, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if submissionID != nil {
		require.NoError(t, mw.WriteField("submission_id", fmt.Sprint(submissionID)))
	}
	if content != nil {
		fw, err := mw.CreateFormFile("evidence", "scan.pdf")
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/students/api/evidence/upload/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return e.serve(t, req)
}

func assertErrorInHttpResponse(t *testing.T, w *httptest.ResponseRecorder, status int, expectedMsg string) {
	t.Helper()
	assert.Equal(t, status, w.Code)

	var errorResponse struct {
		Ok    bool   `json:"ok"`
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errorResponse))
	assert.False(t, errorResponse.Ok)
	assert.Equal(t, expectedMsg, errorResponse.Error)
	assert.NotEmpty(t, errorResponse.Code)
}

func (e env) createSession(t *testing.T, questions int) map[string]any {
	t.Helper()
	w, resp := e.post(t, "/assistants/api/session/create/", map[string]any{
		"assistant_code": "TA-1",
		"course_id":      e.courseID,
		"exercise_id":    fmt.Sprint(e.exercise),
		"mode":           "count_only",
		"question_count": questions,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return resp["session"].(map[string]any)
}

func TestCreateSessionValidation(t *testing.T) {
	e := setup(t)

	w, _ := e.post(t, "/assistants/api/session/create/", map[string]any{"assistant_code": "TA-1", "mode": "count_only"})
	assertErrorInHttpResponse(t, w, http.StatusBadRequest, "course_id required")

	w, _ = e.post(t, "/assistants/api/session/create/", map[string]any{"assistant_code": "NOPE", "course_id": e.courseID})
	assertErrorInHttpResponse(t, w, http.StatusNotFound, "Assistant not found")

	w, _ = e.post(t, "/assistants/api/session/create/", map[string]any{"email": "ta@school.lv", "course_id": e.courseID, "mode": "weird"})
	assertErrorInHttpResponse(t, w, http.StatusBadRequest, "Invalid mode")

	w, _ = e.post(t, "/assistants/api/session/create/", map[string]any{
		"assistant_code": "TA-1", "course_id": e.courseID, "mode": "count_only", "question_count": "",
	})
	assertErrorInHttpResponse(t, w, http.StatusBadRequest, "question_count must be > 0")

	w, _ = e.post(t, "/assistants/api/session/create/", map[string]any{
		"assistant_code": "TA-1", "course_id": e.courseID, "mode": "custom_structure", "structure": map[string]any{"questions": []any{}},
	})
	assertErrorInHttpResponse(t, w, http.StatusBadRequest, "structure with questions required")
}

func TestSessionLifecycle(t *testing.T) {
	e := setup(t)
	sess := e.createSession(t, 3)
	slug := sess["slug"].(string)
	assert.Equal(t, "Homework 1", sess["title"])
	assert.Equal(t, []any{"Q1", "Q2", "Q3"}, sess["checkable_paths"])
	assert.Equal(t, "https://class.example/assistants/session/"+slug+"/form/", sess["public_url"])

	w, resp := e.post(t, "/assistants/api/session/public/get/", map[string]any{"slug": slug})
	require.Equal(t, http.StatusOK, w.Code)
	public := resp["session"].(map[string]any)
	assert.NotContains(t, public, "public_url")
	assert.Len(t, public["checkable_paths"], 3)

	w, _ = e.post(t, "/assistants/api/session/public/submit/", map[string]any{
		"slug": slug, "student_id": "S-1", "answers": []any{},
	})
	assertErrorInHttpResponse(t, w, http.StatusBadRequest, "slug, student_id, student_name, answers required")

	w, _ = e.post(t, "/assistants/api/session/public/submit/", map[string]any{
		"slug": slug, "student_id": "S-404", "student_name": "X", "answers": []any{},
	})
	assertErrorInHttpResponse(t, w, http.StatusNotFound, "Invalid student_id")

	for _, n := range []int{1, 2} {
		answers := make([]any, n)
		for i := range answers {
			answers[i] = map[string]any{"path": fmt.Sprintf("Q%d", i+1)}
		}
		w, resp = e.post(t, "/assistants/api/session/public/submit/", map[string]any{
			"slug": slug, "student_id": "s-1", "student_name": "whoever", "answers": answers,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.EqualValues(t, n, resp["version"])
	}

	w, resp = e.post(t, "/assistants/api/session/submissions/", map[string]any{"slug": slug})
	require.Equal(t, http.StatusOK, w.Code)
	subs := resp["submissions"].([]any)
	require.Len(t, subs, 1)
	sub := subs[0].(map[string]any)
	assert.Equal(t, "S-1", sub["student_id"])
	assert.Equal(t, "Anna", sub["student_name"])
	assert.EqualValues(t, 2, sub["total_checked_count"])
	assert.Nil(t, sub["evidence_url"])

	w, resp = e.post(t, "/assistants/api/session/metrics/", map[string]any{"slug": slug})
	require.Equal(t, http.StatusOK, w.Code)
	m := resp["metrics"].(map[string]any)
	assert.EqualValues(t, 1, m["total_submissions"])
	assert.EqualValues(t, 3, m["total_checkable"])
	assert.EqualValues(t, 66.7, m["percent_complete_avg"])

	w, resp = e.post(t, "/assistants/api/session/list/", map[string]any{"assistant_code": "TA-1"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, resp["sessions"], 1)

	w, resp = e.post(t, "/assistants/api/session/grade-close/", map[string]any{
		"assistant_code": "TA-1",
		"slug":           slug,
		"graded": []any{
			map[string]any{"student_id": "S-1", "score": "9", "group_index": ""},
			map[string]any{"student_id": "ghost", "score": 1},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 1, resp["updated_count"])
	assert.Equal(t, map[string]any{"slug": slug, "status": "closed"}, resp["session"])

	w, _ = e.post(t, "/assistants/api/session/public/get/", map[string]any{"slug": slug})
	assertErrorInHttpResponse(t, w, http.StatusNotFound, "Session not found or not active")

	w, resp = e.post(t, "/assistants/api/session/get/", map[string]any{"slug": slug})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "closed", resp["session"].(map[string]any)["status"])

	w, resp = e.post(t, "/assistants/api/session/list-closed/", map[string]any{"assistant_code": "TA-1"})
	require.Equal(t, http.StatusOK, w.Code)
	closed := resp["sessions"].([]any)
	require.Len(t, closed, 1)
	assert.Equal(t, "Homework 1", closed[0].(map[string]any)["exercise"].(map[string]any)["title"])

	w, resp = e.post(t, "/assistants/api/session/submissions/", map[string]any{"slug": slug})
	require.Equal(t, http.StatusOK, w.Code)
	sub = resp["submissions"].([]any)[0].(map[string]any)
	assert.EqualValues(t, 9, sub["score"])
	assert.Nil(t, sub["group_index"])
}

func TestEndDeleteBySessionID(t *testing.T) {
	e := setup(t)
	sess := e.createSession(t, 1)

	w, _ := e.post(t, "/assistants/api/session/end-delete/", map[string]any{"assistant_code": "TA-1"})
	assertErrorInHttpResponse(t, w, http.StatusBadRequest, "slug or session_id required")

	w, _ = e.post(t, "/assistants/api/session/end-delete/", map[string]any{"assistant_code": "TA-1", "session_id": sess["id"]})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = e.post(t, "/assistants/api/session/get/", map[string]any{"slug": sess["slug"]})
	assertErrorInHttpResponse(t, w, http.StatusNotFound, "Session not found")

	// an unknown slug falls back to the id
	other := e.createSession(t, 1)
	w, _ = e.post(t, "/assistants/api/session/end-delete/", map[string]any{
		"assistant_code": "TA-1", "slug": "stale-slug", "session_id": other["id"],
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestUpdateStructure(t *testing.T) {
	e := setup(t)
	sess := e.createSession(t, 1)

	w, _ := e.post(t, "/assistants/api/session/update-structure/", map[string]any{"slug": sess["slug"]})
	assertErrorInHttpResponse(t, w, http.StatusBadRequest, "slug and structure required")

	w, resp := e.post(t, "/assistants/api/session/update-structure/", map[string]any{
		"slug": sess["slug"],
		"structure": map[string]any{"questions": []any{
			map[string]any{"label": "Q1", "children": []any{map[string]any{"label": "a"}, map[string]any{"label": "b"}}},
		}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []any{"Q1.a", "Q1.b"}, resp["session"].(map[string]any)["checkable_paths"])
}

func TestEvidenceReview(t *testing.T) {
	e := setup(t)
	sess := e.createSession(t, 2)
	slug := sess["slug"].(string)

	w, resp := e.post(t, "/assistants/api/session/public/submit/", map[string]any{
		"slug": slug, "student_id": "S-1", "student_name": "Anna", "answers": []any{"x"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	subID := resp["submission_id"]

	w, _ = e.post(t, "/assistants/api/submission/evidence-decision/", map[string]any{
		"assistant_code": "TA-1", "submission_id": subID, "decision": "accept",
	})
	assertErrorInHttpResponse(t, w, http.StatusBadRequest, "Evidence not requested")

	w, resp = e.post(t, "/assistants/api/submission/request-evidence/", map[string]any{
		"assistant_code": "TA-1", "slug": slug, "student_id": "s-1",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "S-1", resp["student_id"])
	assert.NotNil(t, resp["requested_at"])

	w, _ = e.upload(t, subID, []byte("%PDF-1.4\n%test"), "")
	assertErrorInHttpResponse(t, w, http.StatusUnauthorized, "Not authenticated")

	w, _ = e.upload(t, subID, nil, e.token)
	assertErrorInHttpResponse(t, w, http.StatusBadRequest, "submission_id and evidence file required")

	w, resp = e.upload(t, subID, []byte("%PDF-1.4\n%test"), e.token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, resp["evidence_url"], ".pdf")

	w, _ = e.post(t, "/teachers/api/evidence/file/", map[string]any{"email": "t@school.lv"})
	assertErrorInHttpResponse(t, w, http.StatusBadRequest, "submission_id required")

	fileBody, _ := json.Marshal(map[string]any{"email": "t@school.lv", "submission_id": subID})
	fileReq := httptest.NewRequest(http.MethodPost, "/teachers/api/evidence/file/", bytes.NewBuffer(fileBody))
	fileReq.Header.Set("Content-Type", "application/json")
	fw := httptest.NewRecorder()
	e.h.ServeHTTP(fw, fileReq)
	require.Equal(t, http.StatusOK, fw.Code, fw.Body.String())
	assert.Equal(t, "application/pdf", fw.Header().Get("Content-Type"))
	assert.Contains(t, fw.Header().Get("Content-Disposition"), ".pdf")
	assert.Equal(t, "%PDF-1.4\n%test", fw.Body.String())

	w, resp = e.post(t, "/teachers/api/evidence/list/", map[string]any{"email": "t@school.lv"})
	require.Equal(t, http.StatusOK, w.Code)
	items := resp["evidence"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, true, item["awaiting_review"])
	assert.Equal(t, slug, item["session"].(map[string]any)["slug"])
	assert.NotNil(t, item["evidence_url"])

	w, _ = e.post(t, "/teachers/api/evidence/decision/", map[string]any{
		"email": "t@school.lv", "submission_id": subID, "decision": "decline",
	})
	assertErrorInHttpResponse(t, w, http.StatusBadRequest, "new_score required for decline")

	w, _ = e.post(t, "/teachers/api/evidence/decision/", map[string]any{
		"email": "t@school.lv", "submission_id": subID, "decision": "decline", "new_score": "abc",
	})
	assertErrorInHttpResponse(t, w, http.StatusBadRequest, "new_score must be an integer")

	w, resp = e.post(t, "/teachers/api/evidence/decision/", map[string]any{
		"email": "t@school.lv", "submission_id": subID, "decision": "decline", "new_score": 7,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "declined", resp["decision"])
	assert.EqualValues(t, 7, resp["score"])
	assert.NotNil(t, resp["reviewed_at"])

	w, _ = e.post(t, "/assistants/api/submission/evidence-decision/", map[string]any{
		"assistant_code": "TA-1", "submission_id": subID, "decision": "accept",
	})
	assertErrorInHttpResponse(t, w, http.StatusConflict, "Evidence decision already made")

	// reopening is enabled in this setup
	w, _ = e.upload(t, subID, []byte("%PDF-1.4\n%again"), e.token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, resp = e.post(t, "/assistants/api/submission/evidence-decision/", map[string]any{
		"assistant_code": "TA-1", "submission_id": subID, "decision": "accept",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "accepted", resp["decision"])
	assert.EqualValues(t, 7, resp["score"])
}

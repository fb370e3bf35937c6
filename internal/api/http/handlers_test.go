package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/learnloop/learnloop-lms/internal/course"
	"github.com/learnloop/learnloop-lms/internal/progress"
	"github.com/learnloop/learnloop-lms/internal/quiz"
	"github.com/learnloop/learnloop-lms/internal/rbac"
	"github.com/learnloop/learnloop-lms/internal/storage"
)

type env struct {
	materials course.Store
	courses   *course.Service
	quizzes   quiz.Store
	quizSvc   *quiz.Service
	progSvc   *progress.Service
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	materials := course.NewMemoryStore()

	puts := []course.Material{
		{ID: "S1", Type: course.TypeSection, CourseID: "C1", Order: 1, Title: "Intro"},
		{ID: "SS1", Type: course.TypeSubsection, SectionID: "S1", Order: 1, Title: "Basics"},
		{ID: "M1", Type: course.TypePDF, SubSectionID: "SS1", Order: 1, Title: "Doc1"},
		{ID: "QZ1", Type: course.TypeQuiz, SectionID: "S1", Order: 1, Title: "Checkpoint",
			PassingScore: 70, MaxAttempts: 1},
	}
	for _, m := range puts {
		if _, err := materials.PutMaterial(ctx, m); err != nil {
			t.Fatalf("seed %s: %v", m.ID, err)
		}
	}

	quizzes := quiz.NewMemoryStore(materials)
	for i, k := range []string{"0", "1"} {
		_, err := quizzes.PutQuestion(ctx, quiz.Question{
			QuizID: "QZ1", Question: "q", Options: []string{"a", "b"},
			CorrectAnswer: k, Points: 1, Order: i + 1,
			Explanation: "because",
		})
		if err != nil {
			t.Fatalf("seed question: %v", err)
		}
	}

	courses := course.NewService(materials)
	return &env{
		materials: materials,
		courses:   courses,
		quizzes:   quizzes,
		quizSvc:   quiz.NewService(quizzes, materials, nil, nil),
		progSvc:   progress.NewService(progress.NewMemoryStore(), courses, materials, quizzes, nil),
	}
}

func withURLParam(r *http.Request, key, val string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, val)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func asRole(r *http.Request, role, email string) *http.Request {
	ctx := rbac.WithRole(r.Context(), role)
	ctx = rbac.WithSubject(ctx, email)
	return r.WithContext(ctx)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad response body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestCourseTreeHandler(t *testing.T) {
	e := newEnv(t)
	h := CourseTreeHandler(e.courses)

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/course-materials?courseId=C1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	body := decode(t, rec)
	if body["success"] != true {
		t.Errorf("success = %v", body["success"])
	}
	sections, ok := body["sections"].([]any)
	if !ok || len(sections) != 1 {
		t.Fatalf("sections = %v", body["sections"])
	}
}

func TestCourseTreeHandlerMissingCourseID(t *testing.T) {
	e := newEnv(t)
	rec := httptest.NewRecorder()
	CourseTreeHandler(e.courses)(rec, httptest.NewRequest(http.MethodGet, "/course-materials", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	body := decode(t, rec)
	if body["success"] != false || body["message"] == "" {
		t.Errorf("envelope = %v", body)
	}
}

func TestPutMaterialHandlerParentMissing(t *testing.T) {
	e := newEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/materials",
		strings.NewReader(`{"type":"pdf","subSectionId":"ghost","order":1,"title":"x"}`))
	rec := httptest.NewRecorder()
	PutMaterialHandler(e.materials)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for missing parent", rec.Code)
	}
}

func TestGetMaterialHandlerNotFound(t *testing.T) {
	e := newEnv(t)
	r := httptest.NewRequest(http.MethodGet, "/materials/ghost", nil)
	r = withURLParam(r, "materialID", "ghost")
	rec := httptest.NewRecorder()
	GetMaterialHandler(e.materials)(rec, r)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestSubmitAttemptHandlerFlow(t *testing.T) {
	e := newEnv(t)
	h := SubmitAttemptHandler(e.quizSvc)

	req := httptest.NewRequest(http.MethodPost, "/attempts",
		strings.NewReader(`{"quizId":"QZ1","answers":[0,1],"timeSpent":30}`))
	rec := httptest.NewRecorder()
	h(rec, asRole(req, "student", "student@x.com"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	body := decode(t, rec)
	attempt, _ := body["attempt"].(map[string]any)
	if attempt["score"] != float64(100) {
		t.Errorf("score = %v, want 100", attempt["score"])
	}
	if attempt["email"] != "student@x.com" {
		t.Errorf("email = %v, want token subject", attempt["email"])
	}
	if body["stored"] != true {
		t.Errorf("stored = %v", body["stored"])
	}
}

func TestSubmitAttemptHandlerIgnoresBodyIdentity(t *testing.T) {
	e := newEnv(t)
	// body tries to claim someone else's email; the token subject wins
	req := httptest.NewRequest(http.MethodPost, "/attempts",
		strings.NewReader(`{"quizId":"QZ1","email":"victim@x.com","answers":[0,1]}`))
	rec := httptest.NewRecorder()
	SubmitAttemptHandler(e.quizSvc)(rec, asRole(req, "student", "real@x.com"))

	body := decode(t, rec)
	attempt, _ := body["attempt"].(map[string]any)
	if attempt["email"] != "real@x.com" {
		t.Errorf("email = %v, want real@x.com", attempt["email"])
	}
}

func TestSubmitAttemptHandlerLimitMapsTo409(t *testing.T) {
	e := newEnv(t) // QZ1 allows one attempt
	h := SubmitAttemptHandler(e.quizSvc)

	for i, want := range []int{http.StatusOK, http.StatusConflict} {
		req := httptest.NewRequest(http.MethodPost, "/attempts",
			strings.NewReader(`{"quizId":"QZ1","answers":[0,1]}`))
		rec := httptest.NewRecorder()
		h(rec, asRole(req, "student", "s@x.com"))
		if rec.Code != want {
			t.Fatalf("attempt %d: status = %d, want %d", i+1, rec.Code, want)
		}
	}
}

func TestListQuestionsHandlerStripsKeysForStudents(t *testing.T) {
	e := newEnv(t)
	h := ListQuestionsHandler(e.materials, e.quizzes, e.quizSvc)

	req := httptest.NewRequest(http.MethodGet, "/questions?quizId=QZ1", nil)
	rec := httptest.NewRecorder()
	h(rec, asRole(req, "student", "s@x.com"))

	body := decode(t, rec)
	qs, _ := body["questions"].([]any)
	if len(qs) != 2 {
		t.Fatalf("questions = %v", body["questions"])
	}
	for _, raw := range qs {
		q := raw.(map[string]any)
		if _, ok := q["correctAnswer"]; ok {
			t.Fatalf("answer key leaked to student: %v", q)
		}
		if _, ok := q["explanation"]; ok {
			t.Fatalf("explanation leaked to student: %v", q)
		}
	}
}

func TestListQuestionsHandlerFullRowsForInstructors(t *testing.T) {
	e := newEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/questions?quizId=QZ1", nil)
	rec := httptest.NewRecorder()
	ListQuestionsHandler(e.materials, e.quizzes, e.quizSvc)(rec, asRole(req, "instructor", "i@x.com"))

	body := decode(t, rec)
	qs, _ := body["questions"].([]any)
	if len(qs) != 2 {
		t.Fatalf("questions = %v", body["questions"])
	}
	first := qs[0].(map[string]any)
	if first["correctAnswer"] != "0" {
		t.Errorf("instructor should see keys, got %v", first["correctAnswer"])
	}
}

func TestProgressHandlersEndToEnd(t *testing.T) {
	e := newEnv(t)

	mark := httptest.NewRequest(http.MethodPost, "/progress/complete",
		strings.NewReader(`{"courseId":"C1","materialId":"M1"}`))
	rec := httptest.NewRecorder()
	MarkCompleteHandler(e.progSvc)(rec, asRole(mark, "student", "s@x.com"))
	if rec.Code != http.StatusOK {
		t.Fatalf("mark status = %d, body %s", rec.Code, rec.Body)
	}

	get := httptest.NewRequest(http.MethodGet, "/progress?courseId=C1", nil)
	rec = httptest.NewRecorder()
	GetProgressHandler(e.progSvc)(rec, asRole(get, "student", "s@x.com"))

	body := decode(t, rec)
	// C1 has two gradable lessons: M1 and QZ1
	if body["totalLessons"] != float64(2) || body["completedLessons"] != float64(1) || body["progressPercentage"] != float64(50) {
		t.Errorf("progress = %v, want 2/1/50", body)
	}
}

func TestGetProgressHandlerScopesStudentsToSelf(t *testing.T) {
	e := newEnv(t)
	if _, err := e.progSvc.MarkComplete(context.Background(), "other@x.com", "C1", "M1"); err != nil {
		t.Fatal(err)
	}

	// a student asking for someone else's progress gets their own
	req := httptest.NewRequest(http.MethodGet, "/progress?courseId=C1&email=other@x.com", nil)
	rec := httptest.NewRecorder()
	GetProgressHandler(e.progSvc)(rec, asRole(req, "student", "me@x.com"))

	body := decode(t, rec)
	if body["completedLessons"] != float64(0) {
		t.Errorf("student read another student's progress: %v", body)
	}

	// instructors may read anyone's
	req = httptest.NewRequest(http.MethodGet, "/progress?courseId=C1&email=other@x.com", nil)
	rec = httptest.NewRecorder()
	GetProgressHandler(e.progSvc)(rec, asRole(req, "instructor", "i@x.com"))

	body = decode(t, rec)
	if body["completedLessons"] != float64(1) {
		t.Errorf("instructor blocked from other student's progress: %v", body)
	}
}

func TestMarkCompleteHandlerUnknownMaterial(t *testing.T) {
	e := newEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/progress/complete",
		strings.NewReader(`{"courseId":"C1","materialId":"ghost"}`))
	rec := httptest.NewRecorder()
	MarkCompleteHandler(e.progSvc)(rec, asRole(req, "student", "s@x.com"))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestListQuestionsHandlerUnknownQuiz(t *testing.T) {
	e := newEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/questions?quizId=ghost", nil)
	rec := httptest.NewRecorder()
	ListQuestionsHandler(e.materials, e.quizzes, e.quizSvc)(rec, asRole(req, "student", "s@x.com"))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 for unknown quiz", rec.Code)
	}
}

func TestListQuestionsHandlerNonQuizMaterial(t *testing.T) {
	e := newEnv(t)
	// M1 exists but is a pdf, not a quiz
	req := httptest.NewRequest(http.MethodGet, "/questions?quizId=M1", nil)
	rec := httptest.NewRecorder()
	ListQuestionsHandler(e.materials, e.quizzes, e.quizSvc)(rec, asRole(req, "student", "s@x.com"))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 for non-quiz material", rec.Code)
	}
}

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

// assetRouter mirrors the gateway wiring: uploads need asset:upload, reads
// need course:view.
func assetRouter(t *testing.T) (chi.Router, storage.BlobStore) {
	t.Helper()
	bs, err := storage.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := chi.NewRouter()
	r.Route("/assets", func(ar chi.Router) {
		ar.With(rbac.Require("asset:upload")).
			Post("/{courseID}", UploadAssetHandler(bs, time.Minute))
		ar.With(rbac.Require("course:view")).
			Get("/signed-url", SignedURLHandler(bs, time.Minute))
		ar.With(rbac.Require("course:view")).
			Get("/*", ServeAssetHandler(bs))
	})
	return r, bs
}

func TestAssetUploadForbiddenForStudents(t *testing.T) {
	r, bs := assetRouter(t)

	body, ctype := multipartBody(t, "file", "evil.bin", "payload")
	req := httptest.NewRequest(http.MethodPost, "/assets/C1", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, asRole(req, "student", "s@x.com"))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("student upload status = %d, want 403", rec.Code)
	}
	if _, err := bs.Get("courses/C1"); err == nil {
		t.Error("blob landed despite forbidden upload")
	}
}

func TestAssetUploadAllowedForInstructors(t *testing.T) {
	r, _ := assetRouter(t)

	body, ctype := multipartBody(t, "file", "slides.pdf", "pdf bytes")
	req := httptest.NewRequest(http.MethodPost, "/assets/C1", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, asRole(req, "instructor", "i@x.com"))

	if rec.Code != http.StatusOK {
		t.Fatalf("instructor upload status = %d, body %s", rec.Code, rec.Body)
	}
	resp := decode(t, rec)
	key, _ := resp["key"].(string)
	if !strings.HasPrefix(key, "courses/C1/") {
		t.Errorf("key = %q", key)
	}
}

func TestAssetReadsAllowedForStudents(t *testing.T) {
	r, bs := assetRouter(t)
	if _, err := bs.Put("courses/C1/doc.pdf", strings.NewReader("pdf bytes")); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/assets/courses/C1/doc.pdf", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, asRole(req, "student", "s@x.com"))
	if rec.Code != http.StatusOK || rec.Body.String() != "pdf bytes" {
		t.Fatalf("stream status = %d, body %q", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/assets/signed-url?key=courses/C1/doc.pdf", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, asRole(req, "student", "s@x.com"))
	if rec.Code != http.StatusOK {
		t.Fatalf("signed-url status = %d", rec.Code)
	}
}

func TestHandlersRejectBadJSON(t *testing.T) {
	e := newEnv(t)
	cases := []struct {
		name string
		h    http.HandlerFunc
		path string
	}{
		{"put material", PutMaterialHandler(e.materials), "/materials"},
		{"submit attempt", SubmitAttemptHandler(e.quizSvc), "/attempts"},
		{"mark complete", MarkCompleteHandler(e.progSvc), "/progress/complete"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, tc.path, strings.NewReader("{not json"))
		rec := httptest.NewRecorder()
		tc.h(rec, asRole(req, "student", "s@x.com"))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", tc.name, rec.Code)
		}
	}
}

package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"campushub/internal/announce"
	"campushub/internal/attendance"
	"campushub/internal/auth"
	"campushub/internal/config"
)

const (
	testKey    = "test-signing-key"
	testIssuer = "campushub-auth"

	courseC101 = "5f0c3b54-1111-4a7b-9e70-000000000001"
	studentA   = "5f0c3b54-2222-4a7b-9e70-000000000001"
	studentB   = "5f0c3b54-2222-4a7b-9e70-000000000002"
	facultyF1  = "5f0c3b54-3333-4a7b-9e70-000000000001"
)

func testRouter(t *testing.T) (*gin.Engine, *attendance.InMem) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := attendance.NewInMem()
	repo.AddCourse(attendance.Course{ID: courseC101, Code: "C101", Name: "Intro to Computing"})
	repo.AddStudent(studentA, "Alice Adams", "alice@example.edu")
	repo.AddStudent(studentB, "Bob Brown", "bob@example.edu")
	repo.Enroll(courseC101, studentA)
	repo.Enroll(courseC101, studentB)

	cfg := config.App{
		JWTSigningKey:   testKey,
		JWTIssuer:       testIssuer,
		RateLimitPerMin: 1000,
	}
	r := NewRouter(Deps{
		Cfg:           cfg,
		Attendance:    attendance.NewService(repo, nil, 0),
		Announcements: announce.NewInMem(),
	})
	return r, repo
}

func makeToken(t *testing.T, subject, role string) string {
	t.Helper()
	claims := auth.Claims{
		Subject: subject,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testKey))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return token
}

func doJSON(r *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMarkAttendance_facultyAllowed(t *testing.T) {
	r, _ := testRouter(t)
	token := makeToken(t, facultyF1, "faculty")

	body := `{"date":"2024-03-01","students":[` +
		`{"id":"` + studentA + `","status":"present"},` +
		`{"id":"` + studentB + `","status":"absent"}]}`
	w := doJSON(r, http.MethodPost, "/api/courses/"+courseC101+"/attendance", token, body)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
	var resp struct {
		Success bool                   `json:"success"`
		Data    attendance.MarkSummary `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if !resp.Success || resp.Data.Created != 2 || resp.Data.Failed != 0 {
		t.Fatalf("response = %+v", resp)
	}
}

func TestMarkAttendance_studentForbidden(t *testing.T) {
	r, _ := testRouter(t)
	token := makeToken(t, studentA, "student")

	body := `{"date":"2024-03-01","students":[{"id":"` + studentA + `","status":"present"}]}`
	w := doJSON(r, http.MethodPost, "/api/courses/"+courseC101+"/attendance", token, body)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
	var resp struct {
		RequiredRoles []string `json:"required_roles"`
		ActualRole    string   `json:"actual_role"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if resp.ActualRole != "student" || len(resp.RequiredRoles) == 0 {
		t.Fatalf("403 payload = %s", w.Body)
	}
}

func TestMarkAttendance_missingToken(t *testing.T) {
	r, _ := testRouter(t)
	w := doJSON(r, http.MethodPost, "/api/courses/"+courseC101+"/attendance", "", `{}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestMarkAttendance_unknownCourse(t *testing.T) {
	r, _ := testRouter(t)
	token := makeToken(t, facultyF1, "faculty")
	body := `{"date":"2024-03-01","students":[{"id":"` + studentA + `","status":"present"}]}`
	w := doJSON(r, http.MethodPost, "/api/courses/5f0c3b54-0000-4a7b-9e70-00000000beef/attendance", token, body)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestExportAttendance_streamsCSV(t *testing.T) {
	r, _ := testRouter(t)
	faculty := makeToken(t, facultyF1, "faculty")

	mark := `{"date":"2024-03-01","students":[{"id":"` + studentA + `","status":"present"}]}`
	if w := doJSON(r, http.MethodPost, "/api/courses/"+courseC101+"/attendance", faculty, mark); w.Code != http.StatusOK {
		t.Fatalf("mark status = %d", w.Code)
	}

	body := `{"course":"` + courseC101 + `","startDate":"2024-03-01","endDate":"2024-03-01"}`
	w := doJSON(r, http.MethodPost, "/api/attendance/export", faculty, body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "attendance_C101_2024-03-01_to_2024-03-01.csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !strings.HasPrefix(w.Body.String(), "Date,Student Name,Student Email,Status\n") {
		t.Errorf("body = %q", w.Body)
	}
}

func TestStudentAttendance_ownRecordsOnly(t *testing.T) {
	r, _ := testRouter(t)
	faculty := makeToken(t, facultyF1, "faculty")

	mark := `{"date":"2024-03-01","students":[` +
		`{"id":"` + studentA + `","status":"present"},` +
		`{"id":"` + studentB + `","status":"late"}]}`
	if w := doJSON(r, http.MethodPost, "/api/courses/"+courseC101+"/attendance", faculty, mark); w.Code != http.StatusOK {
		t.Fatalf("mark status = %d", w.Code)
	}

	student := makeToken(t, studentA, "student")
	w := doJSON(r, http.MethodGet, "/api/attendance/student", student, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
	var resp struct {
		Data []attendance.Record `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if len(resp.Data) != 1 || resp.Data[0].StudentID != studentA {
		t.Fatalf("records = %+v, want only studentA's", resp.Data)
	}

	// Faculty tokens are not valid on the student-scoped endpoint.
	if w := doJSON(r, http.MethodGet, "/api/attendance/student", faculty, ""); w.Code != http.StatusForbidden {
		t.Fatalf("faculty on student endpoint: status = %d, want 403", w.Code)
	}
}

func TestAnnouncements_roundTrip(t *testing.T) {
	r, _ := testRouter(t)
	faculty := makeToken(t, facultyF1, "faculty")
	student := makeToken(t, studentA, "student")

	create := `{"title":"Midterm moved","body":"Now on Friday."}`
	w := doJSON(r, http.MethodPost, "/api/courses/"+courseC101+"/announcements", faculty, create)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body)
	}

	if w := doJSON(r, http.MethodPost, "/api/courses/"+courseC101+"/announcements", student, create); w.Code != http.StatusForbidden {
		t.Fatalf("student create status = %d, want 403", w.Code)
	}

	w = doJSON(r, http.MethodGet, "/api/courses/"+courseC101+"/announcements", student, "")
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var resp struct {
		Data []announce.Announcement `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if len(resp.Data) != 1 || resp.Data[0].Title != "Midterm moved" {
		t.Fatalf("announcements = %+v", resp.Data)
	}
}

func TestListAttendance_requiresCourseParam(t *testing.T) {
	r, _ := testRouter(t)
	token := makeToken(t, facultyF1, "faculty")
	w := doJSON(r, http.MethodGet, "/api/attendance", token, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

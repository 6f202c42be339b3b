//go:build cgo

package api

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

	"bhss/adapters/blob"
	"bhss/adapters/postgres"
	"bhss/app"
	"bhss/internal/auth"
	"bhss/internal/migration"
	"bhss/internal/notify"
	"bhss/internal/validation"
	"bhss/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	server    *Server
	hub       *notify.Hub
	adminTok  string
	fieldTok  string
	uploadDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := postgres.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migration.NewRunner().Run(ctx, db))

	uploadDir := t.TempDir()
	blobs, err := blob.NewLocalStore(uploadDir, "/uploads")
	require.NoError(t, err)

	hub := notify.NewHub(10)
	t.Cleanup(hub.Close)

	v := validation.New()
	attendance := postgres.NewAttendanceRepository(db)
	deliveries := postgres.NewDeliveryRepository(db)
	schools := postgres.NewSchoolRepository(db)
	beneficiaries := postgres.NewBeneficiaryRepository(db)
	users := app.NewUserService(postgres.NewUserRepository(db), auth.NewTokenIssuer("test-secret", time.Hour), v)

	svc := Services{
		Users:         users,
		Attendance:    app.NewAttendanceService(attendance, v, hub),
		Deliveries:    app.NewDeliveryService(deliveries, blobs, v, hub),
		Directory:     app.NewDirectoryService(schools, beneficiaries, postgres.NewSchoolDetailsRepository(db), v),
		Events:        app.NewEventService(postgres.NewEventRepository(db), v),
		Announcements: app.NewAnnouncementService(postgres.NewAnnouncementRepository(db), v, hub),
		Push:          app.NewPushService(postgres.NewPushSubscriptionRepository(db), v),
		Dashboard:     app.NewDashboardService(attendance, deliveries, schools, beneficiaries),
	}

	require.NoError(t, users.EnsureAdmin(ctx, "admin@bhss.ph", "supersecret"))
	_, err = users.Create(ctx, models.UserInput{
		Email: "field@bhss.ph", Name: "Field", Password: "fieldpass1", Role: models.RoleUser,
		Municipality: "Abucay", School: "School X",
	})
	require.NoError(t, err)

	env := &testEnv{
		server:    NewServer(svc, hub, Options{UploadDir: uploadDir, GinMode: gin.TestMode}),
		hub:       hub,
		uploadDir: uploadDir,
	}
	env.adminTok = env.login(t, "admin@bhss.ph", "supersecret")
	env.fieldTok = env.login(t, "field@bhss.ph", "fieldpass1")
	return env
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/users/login", "", models.LoginInput{Email: email, Password: password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var session models.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	return session.Token
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, rec).Code)

	rec = env.do(t, http.MethodGet, "/api/users/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/users/me", env.fieldTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "field@bhss.ph", me.Email)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestLoginRejectsBadPassword(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/users/login", "", models.LoginInput{Email: "admin@bhss.ph", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid email or password", decodeError(t, rec).Error)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/admin/dashboard", env.fieldTok, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", decodeError(t, rec).Code)

	rec = env.do(t, http.MethodGet, "/api/users", env.fieldTok, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/admin/dashboard", env.adminTok, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/admin/dashboard?from=0002-01-01&to=9999-12-31", env.adminTok, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_INPUT", decodeError(t, rec).Code)
}

func TestAttendanceFlow(t *testing.T) {
	env := newTestEnv(t)

	in := models.AttendanceInput{DateKey: "2025-06-02", Municipality: "Abucay", School: "School X", Grade: "Grade 2", Present: 20, Absent: 2}
	rec := env.do(t, http.MethodPost, "/api/attendance", env.fieldTok, in)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var saved models.AttendanceRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
	assert.False(t, saved.ID.IsEmpty())

	other := in
	other.School = "School Y"
	rec = env.do(t, http.MethodPost, "/api/attendance", env.fieldTok, other)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/attendance", env.fieldTok, models.AttendanceInput{DateKey: "06/02/2025"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, rec).Code)

	rec = env.do(t, http.MethodGet, "/api/admin/attendance/history?from=2025-06-01&to=2025-06-30", env.adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history []models.AttendanceRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 1)
	assert.Equal(t, saved.ID, history[0].ID)

	rec = env.do(t, http.MethodGet, "/api/admin/attendance/history?from=bad", env.adminTok, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPatch, "/api/admin/attendance/"+saved.ID.String(), env.adminTok, map[string]int{"present": 21})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/admin/attendance/"+saved.ID.String(), env.adminTok, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/admin/attendance/"+saved.ID.String(), env.adminTok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Code)
}

func multipartBody(t *testing.T, field, filename, contentType string, content []byte, extra map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range extra {
		require.NoError(t, w.WriteField(k, v))
	}
	header := make(map[string][]string)
	header["Content-Disposition"] = []string{`form-data; name="` + field + `"; filename="` + filename + `"`}
	header["Content-Type"] = []string{contentType}
	part, err := w.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestDeliveryImageUpload(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/delivery", env.fieldTok, models.DeliveryInput{
		DateKey: "2025-06-02", Municipality: "Abucay", School: "School X", CategoryKey: "rice",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var record models.DeliveryRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))

	body, contentType := multipartBody(t, "images", "truck.png", "image/png", []byte("png-bytes"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/delivery/"+record.ID.String()+"/images", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+env.fieldTok)
	up := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(up, req)
	require.Equal(t, http.StatusOK, up.Code, up.Body.String())

	var updated models.DeliveryRecord
	require.NoError(t, json.Unmarshal(up.Body.Bytes(), &updated))
	require.Len(t, updated.Images, 1)
	assert.NotNil(t, updated.UploadedAt)

	served := env.do(t, http.MethodGet, updated.Images[0].URL, "", nil)
	assert.Equal(t, http.StatusOK, served.Code)
	assert.Equal(t, "png-bytes", served.Body.String())

	pdf := env.do(t, http.MethodGet, "/api/admin/delivery/"+record.ID.String()+"/report.pdf", env.adminTok, nil)
	require.Equal(t, http.StatusOK, pdf.Code)
	assert.Equal(t, "application/pdf", pdf.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(pdf.Body.String(), "%PDF-"))

	summary := env.do(t, http.MethodGet, "/api/admin/reports/delivery.pdf?from=2025-06-01", env.adminTok, nil)
	require.Equal(t, http.StatusOK, summary.Code)
	assert.Contains(t, summary.Header().Get("Content-Disposition"), "bhss-delivery-summary.pdf")
}

func TestImportAndExportDirectory(t *testing.T) {
	env := newTestEnv(t)

	sheet := "LGU,BHSS Kitchen,Schools,,,Grade2,Grade3,Grade4\nAbucay,Kitchen A,School X,,,5,6,7\n"
	body, contentType := multipartBody(t, "file", "masterlist.csv", "text/csv", []byte(sheet), map[string]string{"schoolYear": "2025-2026"})
	req := httptest.NewRequest(http.MethodPost, "/api/admin/import/beneficiaries", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+env.adminTok)
	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result struct {
		Imported      int                           `json:"imported"`
		Message       string                        `json:"message"`
		Beneficiaries []models.SchoolBeneficiaryRow `json:"beneficiaries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 1, result.Imported)
	assert.Contains(t, result.Message, "Imported 1")
	require.Len(t, result.Beneficiaries, 1)
	assert.Equal(t, 18, result.Beneficiaries[0].Total)

	bad, badType := multipartBody(t, "file", "other.csv", "text/csv", []byte("foo,bar\n1,2\n"), nil)
	req = httptest.NewRequest(http.MethodPost, "/api/admin/import/beneficiaries", bad)
	req.Header.Set("Content-Type", badType)
	req.Header.Set("Authorization", "Bearer "+env.adminTok)
	rec = httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decodeError(t, rec).Error, "could not detect header row")

	rec = env.do(t, http.MethodPost, "/api/admin/import/teachers", env.adminTok, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	export := env.do(t, http.MethodGet, "/api/admin/export/directory.xlsx", env.adminTok, nil)
	require.Equal(t, http.StatusOK, export.Code)
	assert.Equal(t, xlsxContentType, export.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(export.Body.Bytes(), []byte("PK")))
}

func TestEventsAndAnnouncements(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/admin/events", env.adminTok, models.EventInput{Title: "Orientation", DateKey: "2025-07-01", StartTime: "09:00"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/events", env.fieldTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var events []models.CalendarEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	require.Len(t, events, 1)

	ics := env.do(t, http.MethodGet, "/api/admin/events.ics", env.adminTok, nil)
	require.Equal(t, http.StatusOK, ics.Code)
	assert.Contains(t, ics.Body.String(), "BEGIN:VCALENDAR")

	rec = env.do(t, http.MethodPost, "/api/announcements", env.fieldTok, models.AnnouncementInput{Title: "x", Body: "y"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/announcements", env.adminTok, models.AnnouncementInput{Title: "Holiday", Body: "No feeding on *Friday*"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/announcements?limit=5", env.fieldTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var announcements []models.Announcement
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &announcements))
	require.Len(t, announcements, 1)
	assert.Contains(t, announcements[0].BodyHTML, "<em>Friday</em>")
}

func TestPushSubscription(t *testing.T) {
	env := newTestEnv(t)

	sub := map[string]interface{}{
		"endpoint": "https://push.example/abc",
		"keys":     map[string]string{"p256dh": "key", "auth": "secret"},
	}
	rec := env.do(t, http.MethodPost, "/api/push/subscribe", env.fieldTok, sub)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/push/subscribe", env.fieldTok, map[string]string{"endpoint": "not a url"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/push/unsubscribe", env.fieldTok, map[string]string{"endpoint": "https://push.example/abc"})
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestWebSocketNotifiesSavedAttendance(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.server.Handler())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+env.adminTok, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return env.hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	rec := env.do(t, http.MethodPost, "/api/attendance", env.fieldTok, models.AttendanceInput{
		DateKey: "2025-06-02", Municipality: "Abucay", School: "School X", Grade: "Grade 3", Present: 18,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var n notify.Notification
	require.NoError(t, conn.ReadJSON(&n))
	assert.Equal(t, notify.EventAttendanceSaved, n.Event)
	assert.True(t, strings.HasPrefix(n.ID, "attendance:saved:"))

	var payload models.AttendanceRecord
	require.NoError(t, n.Decode(&payload))
	assert.Equal(t, 18, payload.Present)
}

func TestWebSocketScopesFieldUserNotifications(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.server.Handler())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+env.fieldTok, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return env.hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	for _, school := range []string{"School Y", "School X"} {
		rec := env.do(t, http.MethodPost, "/api/attendance", env.adminTok, models.AttendanceInput{
			DateKey: "2025-06-02", Municipality: "Abucay", School: school, Grade: "Grade 2", Present: 10,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var n notify.Notification
	require.NoError(t, conn.ReadJSON(&n))
	var payload models.AttendanceRecord
	require.NoError(t, n.Decode(&payload))
	assert.Equal(t, "School X", payload.School)
}

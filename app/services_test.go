//go:build cgo

package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"bhss/adapters/blob"
	"bhss/adapters/postgres"
	"bhss/internal/auth"
	apperrors "bhss/internal/errors"
	"bhss/internal/importer"
	"bhss/internal/migration"
	"bhss/internal/notify"
	"bhss/internal/validation"
	"bhss/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(n notify.Notification) {
	m.Called(n)
}

func expectEvent(pub *mockPublisher, event notify.Event) {
	pub.On("Publish", mock.MatchedBy(func(n notify.Notification) bool {
		return n.Event == event
	})).Once()
}

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := postgres.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migration.NewRunner().Run(context.Background(), db))
	return db
}

var (
	admin     = &models.User{ID: "admin-1", Role: models.RoleAdmin}
	fieldUser = &models.User{ID: "user-1", Role: models.RoleUser, Municipality: "Abucay", School: "School X"}
)

func TestAttendanceSaveScopesFieldUsers(t *testing.T) {
	ctx := context.Background()
	pub := &mockPublisher{}
	svc := NewAttendanceService(postgres.NewAttendanceRepository(newTestDB(t)), validation.New(), pub)

	expectEvent(pub, notify.EventAttendanceSaved)
	record, err := svc.Save(ctx, fieldUser, models.AttendanceInput{
		DateKey: "2025-06-02", Municipality: "abucay", School: " school x ", Grade: "Grade 2", Present: 20, Absent: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, fieldUser.ID, record.CreatedBy)
	pub.AssertExpectations(t)

	_, err = svc.Save(ctx, fieldUser, models.AttendanceInput{
		DateKey: "2025-06-02", Municipality: "Abucay", School: "School Y", Grade: "Grade 2",
	})
	assert.Equal(t, apperrors.CodeForbidden, apperrors.GetCode(err))

	_, err = svc.Save(ctx, fieldUser, models.AttendanceInput{Municipality: "Abucay", School: "School X"})
	assert.Equal(t, apperrors.CodeValidationError, apperrors.GetCode(err))

	expectEvent(pub, notify.EventAttendanceSaved)
	_, err = svc.Save(ctx, admin, models.AttendanceInput{
		DateKey: "2025-06-02", Municipality: "Balanga", School: "School Z", Grade: "Grade 3", Present: 10,
	})
	require.NoError(t, err)

	own, err := svc.History(ctx, fieldUser, models.RecordFilter{})
	require.NoError(t, err)
	assert.Len(t, own, 1)

	all, err := svc.History(ctx, admin, models.RecordFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestAttendanceUpdatePublishes(t *testing.T) {
	ctx := context.Background()
	pub := &mockPublisher{}
	svc := NewAttendanceService(postgres.NewAttendanceRepository(newTestDB(t)), validation.New(), pub)

	expectEvent(pub, notify.EventAttendanceSaved)
	record, err := svc.Save(ctx, admin, models.AttendanceInput{
		DateKey: "2025-06-02", Municipality: "Abucay", School: "School X", Grade: "Grade 2", Present: 20,
	})
	require.NoError(t, err)

	present := 25
	expectEvent(pub, notify.EventAttendanceSaved)
	updated, err := svc.Update(ctx, record.ID, models.AttendancePatch{Present: &present})
	require.NoError(t, err)
	assert.Equal(t, 25, updated.Present)
	pub.AssertExpectations(t)

	bad := -1
	_, err = svc.Update(ctx, record.ID, models.AttendancePatch{Present: &bad})
	assert.Equal(t, apperrors.CodeValidationError, apperrors.GetCode(err))
}

func TestDeliveryImages(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := blob.NewLocalStore(dir, "/uploads")
	require.NoError(t, err)

	svc := NewDeliveryService(postgres.NewDeliveryRepository(newTestDB(t)), store, validation.New(), nil)
	fixed := time.Date(2025, 6, 2, 3, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	record, err := svc.Save(ctx, fieldUser, models.DeliveryInput{
		DateKey: "2025-06-02", Municipality: "Abucay", School: "School X", CategoryKey: "rice",
	})
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryPending, record.Status)

	_, err = svc.AddImages(ctx, fieldUser, record.ID, []Upload{{Filename: "notes.txt", ContentType: "text/plain", Body: strings.NewReader("x")}})
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))

	updated, err := svc.AddImages(ctx, fieldUser, record.ID, []Upload{
		{Filename: "Truck.JPG", ContentType: "image/jpeg", Body: strings.NewReader("jpeg-bytes")},
	})
	require.NoError(t, err)
	require.Len(t, updated.Images, 1)
	assert.Equal(t, "Truck.JPG", updated.Images[0].Filename)
	assert.True(t, strings.HasPrefix(updated.Images[0].URL, "/uploads/deliveries/"+record.ID.String()+"/"))
	assert.True(t, strings.HasSuffix(updated.Images[0].URL, ".jpg"))
	require.NotNil(t, updated.UploadedAt)
	assert.True(t, fixed.Equal(*updated.UploadedAt))

	stored := filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(updated.Images[0].URL, "/uploads/")))
	_, err = os.Stat(stored)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, record.ID))
	_, err = os.Stat(stored)
	assert.True(t, os.IsNotExist(err))
}

func TestDirectoryImportSkipsExistingRows(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewDirectoryService(
		postgres.NewSchoolRepository(db),
		postgres.NewBeneficiaryRepository(db),
		postgres.NewSchoolDetailsRepository(db),
		validation.New(),
	)
	sheet := "LGU,BHSS Kitchen,Schools,Grade2,Grade3,Grade4\n" +
		"Abucay,Kitchen A,School X,5,6,7\n" +
		",,School Y,1,1,1\n" +
		",,school x,9,9,9\n"

	result, err := svc.Import(ctx, importer.KindBeneficiaries, "masterlist.csv", strings.NewReader(sheet), "2025-2026")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 1, result.Duplicates)

	rows, err := svc.ListBeneficiaries(ctx, models.RecordFilter{SchoolYear: "2025-2026"})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	again, err := svc.Import(ctx, importer.KindBeneficiaries, "masterlist.csv", strings.NewReader(sheet), "2025-2026")
	require.NoError(t, err)
	assert.Equal(t, 0, again.Imported)
	assert.Equal(t, 3, again.Duplicates)

	_, err = svc.Import(ctx, importer.KindBeneficiaries, "wrong.csv", strings.NewReader("a,b\n1,2\n"), "")
	assert.Equal(t, apperrors.CodeImportFailed, apperrors.GetCode(err))

	_, err = svc.Import(ctx, importer.KindBeneficiaries, "photo.png", strings.NewReader("x"), "")
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))

	var buf bytes.Buffer
	require.NoError(t, svc.Export(ctx, &buf, models.RecordFilter{}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("PK")))
}

func TestDirectoryBeneficiaryTotals(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewDirectoryService(postgres.NewSchoolRepository(db), postgres.NewBeneficiaryRepository(db), postgres.NewSchoolDetailsRepository(db), validation.New())

	row, err := svc.CreateBeneficiary(ctx, models.BeneficiaryInput{Municipality: "Abucay", School: "School X", Grade2: 5, Grade3: 6, Grade4: 7})
	require.NoError(t, err)
	assert.Equal(t, 18, row.Total)

	row, err = svc.UpdateBeneficiary(ctx, row.ID, models.BeneficiaryInput{Municipality: "Abucay", School: "School X", Grade2: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, row.Total)
}

func TestUserLoginAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(postgres.NewUserRepository(newTestDB(t)), auth.NewTokenIssuer("secret", time.Hour), validation.New())

	require.NoError(t, svc.EnsureAdmin(ctx, "admin@bhss.ph", "supersecret"))
	require.NoError(t, svc.EnsureAdmin(ctx, "admin@bhss.ph", "supersecret"))

	users, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)

	_, err = svc.Login(ctx, models.LoginInput{Email: "admin@bhss.ph", Password: "wrong"})
	assert.Equal(t, apperrors.CodeUnauthorized, apperrors.GetCode(err))
	_, err = svc.Login(ctx, models.LoginInput{Email: "nobody@bhss.ph", Password: "supersecret"})
	assert.Equal(t, apperrors.CodeUnauthorized, apperrors.GetCode(err))

	session, err := svc.Login(ctx, models.LoginInput{Email: "ADMIN@bhss.ph", Password: "supersecret"})
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, models.RoleAdmin, session.User.Role)

	user, err := svc.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, user.ID)

	err = svc.Delete(ctx, user, user.ID)
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
}

func TestAnnouncementCreateRendersMarkdown(t *testing.T) {
	ctx := context.Background()
	pub := &mockPublisher{}
	svc := NewAnnouncementService(postgres.NewAnnouncementRepository(newTestDB(t)), validation.New(), pub)

	expectEvent(pub, notify.EventAnnouncementCreated)
	a, err := svc.Create(ctx, admin, models.AnnouncementInput{Title: "Holiday", Body: "No feeding on **Friday**"})
	require.NoError(t, err)
	assert.Contains(t, a.BodyHTML, "<strong>Friday</strong>")
	pub.AssertExpectations(t)

	list, err := svc.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Contains(t, list[0].BodyHTML, "<strong>Friday</strong>")
}

func TestEventICS(t *testing.T) {
	ctx := context.Background()
	svc := NewEventService(postgres.NewEventRepository(newTestDB(t)), validation.New())

	_, err := svc.Create(ctx, admin, models.EventInput{Title: "Orientation", DateKey: "2025-07-01", StartTime: "9:00"})
	assert.Equal(t, apperrors.CodeValidationError, apperrors.GetCode(err))

	_, err = svc.Create(ctx, admin, models.EventInput{Title: "Orientation", DateKey: "2025-07-01", StartTime: "09:00"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.WriteICS(ctx, &buf, models.RecordFilter{}))
	assert.Contains(t, buf.String(), "SUMMARY:Orientation")
}

func TestDashboardSummary(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	attendance := postgres.NewAttendanceRepository(db)
	deliveries := postgres.NewDeliveryRepository(db)
	schools := postgres.NewSchoolRepository(db)
	beneficiaries := postgres.NewBeneficiaryRepository(db)

	require.NoError(t, attendance.Create(ctx, &models.AttendanceRecord{DateKey: "2025-06-02", Municipality: "Abucay", School: "School X", Grade: "Grade 2", Present: 20}))
	require.NoError(t, deliveries.Create(ctx, &models.DeliveryRecord{DateKey: "2025-06-02", Municipality: "Abucay", School: "School X", CategoryKey: "rice", Status: models.DeliveryDelivered}))
	require.NoError(t, deliveries.Create(ctx, &models.DeliveryRecord{DateKey: "2025-06-03", Municipality: "Abucay", School: "School X", CategoryKey: "eggs"}))
	require.NoError(t, schools.Create(ctx, &models.School{Municipality: "Abucay", Name: "School X"}))
	require.NoError(t, beneficiaries.Create(ctx, &models.SchoolBeneficiaryRow{Municipality: "Abucay", School: "School X", Grade2: 5, Grade3: 5}))

	svc := NewDashboardService(attendance, deliveries, schools, beneficiaries)
	summary, err := svc.Summary(ctx, models.RecordFilter{From: "2025-06-01", To: "2025-06-07"}, 3)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Totals.AttendanceRecords)
	assert.Equal(t, 2, summary.Totals.Deliveries)
	assert.Equal(t, 1, summary.Totals.Schools)
	assert.Equal(t, 10, summary.Totals.Beneficiaries)
	assert.Equal(t, 50, summary.CompletionRate)
	assert.Len(t, summary.Daily, 7)

	_, err = svc.Summary(ctx, models.RecordFilter{From: "0002-01-01", To: "9999-12-31"}, 3)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
}

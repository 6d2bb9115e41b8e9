package models

import (
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupModelsTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file:"+uuid.New().String()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(All()...))
	return db
}

func strPtr(s string) *string { return &s }

func TestNewAppointmentID(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	id := NewAppointmentID(now)
	assert.Regexp(t, regexp.MustCompile(`^APT_1700000000123_[0-9a-z]{6}$`), id)
	assert.NotEqual(t, id, NewAppointmentID(now))
}

func TestAppointmentDefaults(t *testing.T) {
	db := setupModelsTestDB(t)

	apt := &Appointment{
		ClientName: "Asha",
		Phone:      "9876543210",
		Reason:     "Jeans",
		Date:       time.Now(),
		Time:       time.Now(),
	}
	require.NoError(t, db.Create(apt).Error)

	assert.Contains(t, apt.ID, "APT_")
	assert.Equal(t, AppointmentStatusPending, apt.Status)
	assert.Equal(t, DefaultInsurance, apt.Insurance)
	assert.Nil(t, apt.Priority)
}

func TestAppointmentCallSidUnique(t *testing.T) {
	db := setupModelsTestDB(t)

	base := Appointment{ClientName: "A", Phone: "9876543210", Reason: "R", Date: time.Now(), Time: time.Now()}

	first := base
	first.CallSid = strPtr("CA1")
	require.NoError(t, db.Create(&first).Error)

	second := base
	second.CallSid = strPtr("CA1")
	assert.Error(t, db.Create(&second).Error)

	// Manual appointments have no call and must not collide
	manual1, manual2 := base, base
	require.NoError(t, db.Create(&manual1).Error)
	require.NoError(t, db.Create(&manual2).Error)
}

func TestIsValidAppointmentStatus(t *testing.T) {
	assert.True(t, IsValidAppointmentStatus("Confirmed"))
	assert.True(t, IsValidAppointmentStatus("Rescheduled"))
	assert.False(t, IsValidAppointmentStatus("confirmed"))
	assert.False(t, IsValidAppointmentStatus("All"))
}

func TestIsValidPriority(t *testing.T) {
	assert.True(t, IsValidPriority(nil))
	assert.True(t, IsValidPriority(strPtr(PriorityHigh)))
	assert.False(t, IsValidPriority(strPtr("Low")))
}

func TestCallRecordingsRoundTrip(t *testing.T) {
	db := setupModelsTestDB(t)

	created := time.Now().UTC().Truncate(time.Second)
	call := &Call{
		Sid: "CA100",
		Recordings: RecordingList{
			{Sid: "CA100", RecordingURL: strPtr("https://rec.example/1.mp3"), CreatedAt: &created},
		},
		LeadDetails: &LeadDetails{CustomerName: "Ravi", ConfidenceScore: 0.7},
	}
	require.NoError(t, db.Create(call).Error)
	assert.Equal(t, "https://rec.example/1.mp3", call.RecordingURL)

	var loaded Call
	require.NoError(t, db.First(&loaded, "sid = ?", "CA100").Error)
	require.Len(t, loaded.Recordings, 1)
	assert.Equal(t, "https://rec.example/1.mp3", *loaded.Recordings[0].RecordingURL)
	require.NotNil(t, loaded.LeadDetails)
	assert.Equal(t, "Ravi", loaded.LeadDetails.CustomerName)
	assert.Nil(t, loaded.AppointmentDetails)
	assert.False(t, loaded.IsProcessed)
}

func TestCallWithoutRecordings(t *testing.T) {
	db := setupModelsTestDB(t)

	call := &Call{Sid: "CA200", Recordings: RecordingList{{Sid: "CA200"}}}
	require.NoError(t, db.Create(call).Error)
	assert.False(t, call.HasRecording())
	assert.Empty(t, call.RecordingURL)
}

func TestRecordingListScanString(t *testing.T) {
	var list RecordingList
	require.NoError(t, list.Scan(`[{"Sid":"CA1","RecordingUrl":"u"}]`))
	assert.Equal(t, "u", list.FirstURL())

	require.NoError(t, list.Scan(nil))
	assert.Empty(t, list)

	assert.Error(t, list.Scan(42))
}

func TestUserNormalization(t *testing.T) {
	db := setupModelsTestDB(t)

	u := &User{Email: "  Agent@Example.COM ", Password: "x", Name: "Agent", AssignedPhoneNumber: strPtr("  ")}
	require.NoError(t, db.Create(u).Error)

	assert.Equal(t, "agent@example.com", u.Email)
	assert.Nil(t, u.AssignedPhoneNumber)
	assert.Equal(t, RoleUser, u.Role)

	// Two users without phone numbers may coexist
	other := &User{Email: "other@example.com", Password: "x", Name: "Other"}
	require.NoError(t, db.Create(other).Error)

	// Duplicate phone numbers are rejected by the store
	a := &User{Email: "a@example.com", Password: "x", Name: "A", AssignedPhoneNumber: strPtr("0801")}
	b := &User{Email: "b@example.com", Password: "x", Name: "B", AssignedPhoneNumber: strPtr("0801")}
	require.NoError(t, db.Create(a).Error)
	assert.Error(t, db.Create(b).Error)
}

func TestContactDefaults(t *testing.T) {
	db := setupModelsTestDB(t)

	c := &Contact{Name: "N", Email: "X@Y.com ", PhoneNumber: "1"}
	require.NoError(t, db.Create(c).Error)
	assert.Equal(t, "x@y.com", c.Email)
	assert.False(t, c.SubmittedAt.IsZero())
	assert.Nil(t, c.Message)
}

package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"studyjam-tracker/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Participant{},
		&models.DailySnapshot{},
		&models.CsvUpload{},
	))
	return db
}

func ingest(t *testing.T, svc *RosterService, filename, date, csv string) *models.CsvUpload {
	t.Helper()
	uploadDate, err := time.Parse("2006-01-02", date)
	require.NoError(t, err)
	upload, err := svc.IngestRoster(filename, uploadDate, strings.NewReader(csv), "")
	require.NoError(t, err)
	return upload
}

func TestReportDateFor(t *testing.T) {
	d := time.Date(2025, 10, 8, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-10-07", ReportDateFor(d))

	// Month boundary
	d = time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-10-31", ReportDateFor(d))
}

func TestIngestRosterCreatesParticipantsAndSnapshots(t *testing.T) {
	svc := NewRosterService(newTestDB(t))

	upload := ingest(t, svc, "day1.csv", "2025-10-08", rosterCSV(
		"Ada Lovelace,ada@example.com,https://skills/ada,All Good,Yes,No,3,A|B|C,1,G1",
		"Alan Turing,alan@example.com,https://skills/alan,All Good,Yes,No,1,A,0,",
	))

	assert.Equal(t, "2025-10-07", upload.ReportDate)
	assert.Equal(t, 2, upload.ParticipantCount)

	participants, err := svc.Store.ListParticipants()
	require.NoError(t, err)
	require.Len(t, participants, 2)
	assert.Equal(t, "Ada Lovelace", participants[0].UserName)
	assert.Equal(t, 3, participants[0].SkillBadgesCount)

	var snapshots []models.DailySnapshot
	require.NoError(t, svc.DB.Find(&snapshots).Error)
	require.Len(t, snapshots, 2)
	for _, snap := range snapshots {
		assert.Equal(t, "2025-10-07", snap.SnapshotDate)
	}
}

func TestIngestRosterIsIdempotent(t *testing.T) {
	svc := NewRosterService(newTestDB(t))
	csv := rosterCSV("Ada Lovelace,ada@example.com,url,ok,Yes,No,3,A|B|C,0,")

	first := ingest(t, svc, "day1.csv", "2025-10-08", csv)
	second := ingest(t, svc, "day1-again.csv", "2025-10-08", csv)

	assert.Equal(t, first.ParticipantCount, second.ParticipantCount)

	var participantCount, snapshotCount int64
	require.NoError(t, svc.DB.Model(&models.Participant{}).Count(&participantCount).Error)
	require.NoError(t, svc.DB.Model(&models.DailySnapshot{}).Count(&snapshotCount).Error)
	assert.EqualValues(t, 1, participantCount)
	assert.EqualValues(t, 1, snapshotCount)
}

func TestIngestRosterKeepsIdentityAcrossUploads(t *testing.T) {
	svc := NewRosterService(newTestDB(t))

	ingest(t, svc, "day1.csv", "2025-10-08", rosterCSV(
		"Ada Lovelace,ada@example.com,url,ok,No,No,3,A|B|C,0,",
	))
	participants, err := svc.Store.ListParticipants()
	require.NoError(t, err)
	require.Len(t, participants, 1)
	originalID := participants[0].ID

	// Next day: name corrected upstream, counts grew, code redeemed
	ingest(t, svc, "day2.csv", "2025-10-09", rosterCSV(
		"Ada King,ada@example.com,url,ok,Yes,No,5,A|B|C|D|E,1,G1",
	))

	participants, err = svc.Store.ListParticipants()
	require.NoError(t, err)
	require.Len(t, participants, 1)
	assert.Equal(t, originalID, participants[0].ID)
	assert.Equal(t, "Ada King", participants[0].UserName)
	assert.Equal(t, 5, participants[0].SkillBadgesCount)
	assert.Equal(t, "Yes", participants[0].RedemptionStatus)

	var snapshots []models.DailySnapshot
	require.NoError(t, svc.DB.Order("snapshot_date ASC").Find(&snapshots).Error)
	require.Len(t, snapshots, 2)
	assert.Equal(t, originalID, snapshots[0].ParticipantID)
	assert.Equal(t, "2025-10-07", snapshots[0].SnapshotDate)
	assert.Equal(t, "2025-10-08", snapshots[1].SnapshotDate)
}

func TestIngestRosterLastRowWinsForDuplicateEmail(t *testing.T) {
	svc := NewRosterService(newTestDB(t))

	upload := ingest(t, svc, "day1.csv", "2025-10-08", rosterCSV(
		"Ada Lovelace,ada@example.com,url,ok,Yes,No,2,A|B,0,",
		"Ada L.,ada@example.com,url,ok,Yes,No,4,A|B|C|D,1,G1",
	))

	assert.Equal(t, 1, upload.ParticipantCount)

	participants, err := svc.Store.ListParticipants()
	require.NoError(t, err)
	require.Len(t, participants, 1)
	assert.Equal(t, "Ada L.", participants[0].UserName)
	assert.Equal(t, 4, participants[0].SkillBadgesCount)

	var snapshots []models.DailySnapshot
	require.NoError(t, svc.DB.Find(&snapshots).Error)
	require.Len(t, snapshots, 1)
	assert.Equal(t, 4, snapshots[0].SkillBadgesCount)
	assert.Equal(t, participants[0].ID, snapshots[0].ParticipantID)
}

func TestIngestRosterCountsPostMergeTotal(t *testing.T) {
	svc := NewRosterService(newTestDB(t))

	first := ingest(t, svc, "day1.csv", "2025-10-08", rosterCSV(
		"Ada,ada@example.com,url,ok,Yes,No,1,A,0,",
		"Alan,alan@example.com,url,ok,Yes,No,1,A,0,",
	))
	assert.Equal(t, 2, first.ParticipantCount)

	// A file containing only a newcomer still reports the merged total
	second := ingest(t, svc, "day2.csv", "2025-10-09", rosterCSV(
		"Grace,grace@example.com,url,ok,Yes,No,2,A|B,0,",
	))
	assert.Equal(t, 3, second.ParticipantCount)
}

func TestIngestRosterStructuralRejectionWritesNothing(t *testing.T) {
	svc := NewRosterService(newTestDB(t))

	_, err := svc.IngestRoster("bad.csv", time.Now(), strings.NewReader("Name,Email\nAda,ada@example.com\n"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required columns")

	var participantCount, uploadCount int64
	require.NoError(t, svc.DB.Model(&models.Participant{}).Count(&participantCount).Error)
	require.NoError(t, svc.DB.Model(&models.CsvUpload{}).Count(&uploadCount).Error)
	assert.EqualValues(t, 0, participantCount)
	assert.EqualValues(t, 0, uploadCount)
}

func TestDeleteUploadCascadeCollectsOrphans(t *testing.T) {
	svc := NewRosterService(newTestDB(t))

	day1 := ingest(t, svc, "day1.csv", "2025-10-08", rosterCSV(
		"Paul,paul@example.com,url,ok,Yes,No,1,A,0,",
		"Quinn,quinn@example.com,url,ok,Yes,No,2,A|B,0,",
	))
	ingest(t, svc, "day2.csv", "2025-10-09", rosterCSV(
		"Quinn,quinn@example.com,url,ok,Yes,No,3,A|B|C,0,",
	))

	require.NoError(t, svc.Store.DeleteUploadCascade(day1.ID))

	// Paul had no other snapshot and is collected; Quinn survives with the
	// day-2 snapshot and keeps the latest mutable values.
	participants, err := svc.Store.ListParticipants()
	require.NoError(t, err)
	require.Len(t, participants, 1)
	assert.Equal(t, "quinn@example.com", participants[0].UserEmail)
	assert.Equal(t, 3, participants[0].SkillBadgesCount)

	var snapshots []models.DailySnapshot
	require.NoError(t, svc.DB.Find(&snapshots).Error)
	require.Len(t, snapshots, 1)
	assert.Equal(t, "2025-10-08", snapshots[0].SnapshotDate)

	_, err = svc.Store.GetUpload(day1.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDeleteUploadCascadeLastUploadEmptiesStore(t *testing.T) {
	svc := NewRosterService(newTestDB(t))

	only := ingest(t, svc, "day1.csv", "2025-10-08", rosterCSV(
		"Ada,ada@example.com,url,ok,Yes,No,1,A,0,",
	))
	require.NoError(t, svc.Store.DeleteUploadCascade(only.ID))

	var participantCount, snapshotCount, uploadCount int64
	require.NoError(t, svc.DB.Model(&models.Participant{}).Count(&participantCount).Error)
	require.NoError(t, svc.DB.Model(&models.DailySnapshot{}).Count(&snapshotCount).Error)
	require.NoError(t, svc.DB.Model(&models.CsvUpload{}).Count(&uploadCount).Error)
	assert.EqualValues(t, 0, participantCount)
	assert.EqualValues(t, 0, snapshotCount)
	assert.EqualValues(t, 0, uploadCount)
}

func TestDeleteUploadCascadeUnknownID(t *testing.T) {
	svc := NewRosterService(newTestDB(t))
	err := svc.Store.DeleteUploadCascade("nope")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestFriendlyDBError(t *testing.T) {
	assert.Equal(t, "duplicate entry", FriendlyDBError(gorm.ErrDuplicatedKey))
	assert.Equal(t, "constraint violation", FriendlyDBError(gorm.ErrForeignKeyViolated))
	assert.Equal(t, "record not found", FriendlyDBError(gorm.ErrRecordNotFound))
	assert.Equal(t, "boom", FriendlyDBError(fmt.Errorf("boom")))
}

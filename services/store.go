package services

import (
	"errors"

	"studyjam-tracker/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// upsertBatchSize caps how many rows go into a single INSERT. Chunk boundaries
// never change merge semantics.
const upsertBatchSize = 100

// RosterStore is the persistence gateway. All conflict resolution happens on
// natural keys: participants upsert on user_email, snapshots on
// (participant_id, snapshot_date).
type RosterStore struct {
	DB *gorm.DB
}

func NewRosterStore(db *gorm.DB) *RosterStore {
	return &RosterStore{DB: db}
}

// ListParticipants returns the full participant set ordered by name.
func (s *RosterStore) ListParticipants() ([]models.Participant, error) {
	var participants []models.Participant
	err := s.DB.Order("user_name ASC").Find(&participants).Error
	return participants, err
}

// UpsertParticipants batch-upserts keyed by email. The conflict update covers
// every mutable field — only id survives across uploads.
func (s *RosterStore) UpsertParticipants(participants []models.Participant) error {
	for start := 0; start < len(participants); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(participants) {
			end = len(participants)
		}
		batch := participants[start:end]
		if err := s.DB.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_email"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"user_name", "profile_url", "profile_status", "redemption_status",
				"all_completed", "skill_badges_count", "skill_badge_names",
				"arcade_games_count", "arcade_game_names", "updated_at",
			}),
		}).Create(&batch).Error; err != nil {
			return err
		}
	}
	return nil
}

// UpsertSnapshots batch-upserts keyed by (participant_id, snapshot_date), so
// re-uploading the same file for the same date overwrites instead of
// duplicating.
func (s *RosterStore) UpsertSnapshots(snapshots []models.DailySnapshot) error {
	for start := 0; start < len(snapshots); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(snapshots) {
			end = len(snapshots)
		}
		batch := snapshots[start:end]
		if err := s.DB.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "participant_id"}, {Name: "snapshot_date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"skill_badges_count", "arcade_games_count",
				"skill_badge_names", "arcade_game_names",
			}),
		}).Create(&batch).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *RosterStore) RecordUpload(upload *models.CsvUpload) error {
	return s.DB.Create(upload).Error
}

func (s *RosterStore) ListUploads() ([]models.CsvUpload, error) {
	var uploads []models.CsvUpload
	err := s.DB.Order("upload_date DESC").Find(&uploads).Error
	return uploads, err
}

func (s *RosterStore) GetUpload(id string) (*models.CsvUpload, error) {
	var upload models.CsvUpload
	if err := s.DB.Where("id = ?", id).First(&upload).Error; err != nil {
		return nil, err
	}
	return &upload, nil
}

// DeleteUploadCascade removes an upload, every snapshot dated at its report
// date, and any participant left with zero snapshots anywhere in the store.
// This is garbage collection, not a rollback: surviving participants keep
// their latest mutable-field values.
func (s *RosterStore) DeleteUploadCascade(uploadID string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var upload models.CsvUpload
		if err := tx.Where("id = ?", uploadID).First(&upload).Error; err != nil {
			return err
		}

		if err := tx.Where("snapshot_date = ?", upload.ReportDate).
			Delete(&models.DailySnapshot{}).Error; err != nil {
			return err
		}

		// Orphan GC: anyone no longer referenced by any snapshot.
		referenced := tx.Model(&models.DailySnapshot{}).Distinct("participant_id")
		if err := tx.Where("id NOT IN (?)", referenced).
			Delete(&models.Participant{}).Error; err != nil {
			return err
		}

		return tx.Delete(&upload).Error
	})
}

// FriendlyDBError folds backend failures into the operator-facing categories.
// Requires gorm.Config{TranslateError: true} on the connection.
func FriendlyDBError(err error) string {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return "duplicate entry"
	case errors.Is(err, gorm.ErrForeignKeyViolated), errors.Is(err, gorm.ErrCheckConstraintViolated):
		return "constraint violation"
	case errors.Is(err, gorm.ErrRecordNotFound):
		return "record not found"
	default:
		return err.Error()
	}
}

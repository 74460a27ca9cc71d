package services

import (
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"studyjam-tracker/models"
	"studyjam-tracker/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RosterService owns the ingestion/reconciliation flow: parse a dated roster
// export, merge it against the known participant set, append the day's
// snapshots, and record provenance.
type RosterService struct {
	DB    *gorm.DB
	Store *RosterStore
}

func NewRosterService(db *gorm.DB) *RosterService {
	return &RosterService{DB: db, Store: NewRosterStore(db)}
}

// ReportDateFor derives the snapshot date from the operator-entered upload
// date: an export taken on day D reflects standing as of midnight D-1. Plain
// calendar subtraction, deliberately not time-zone aware.
func ReportDateFor(uploadDate time.Time) string {
	return uploadDate.AddDate(0, 0, -1).Format("2006-01-02")
}

// IngestRoster runs one file through the full pipeline. The merge is seeded
// from the current participant set (loaded once, batch-scoped): rows matching
// a known email replace that entry in place, first sightings append. Positional
// replacement makes last-row-wins the natural outcome for duplicate emails
// within one file.
//
// A persistence failure aborts the file — no provenance row is written, but
// chunks already committed stay. Re-uploading the same file is safe because
// every write is a natural-key upsert.
func (s *RosterService) IngestRoster(filename string, uploadDate time.Time, r io.Reader, archivePath string) (*models.CsvUpload, error) {
	facts, err := ParseRoster(r)
	if err != nil {
		return nil, err
	}
	reportDate := ReportDateFor(uploadDate)

	existing, err := s.Store.ListParticipants()
	if err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", err)
	}
	index := NewIdentityIndex(existing)

	merged := make([]models.Participant, len(existing))
	copy(merged, existing)
	posByEmail := make(map[string]int, len(merged))
	for i, p := range merged {
		posByEmail[p.UserEmail] = i
	}

	var snapshots []models.DailySnapshot
	snapPosByID := make(map[string]int)

	for _, fact := range facts {
		id, _ := index.Resolve(fact)

		participant := models.Participant{
			ID:               id,
			UserName:         fact.UserName,
			UserEmail:        fact.UserEmail,
			ProfileURL:       fact.ProfileURL,
			ProfileStatus:    fact.ProfileStatus,
			RedemptionStatus: fact.RedemptionStatus,
			AllCompleted:     fact.AllCompleted,
			SkillBadgesCount: fact.SkillBadgesCount,
			SkillBadgeNames:  fact.SkillBadgeNames,
			ArcadeGamesCount: fact.ArcadeGamesCount,
			ArcadeGameNames:  fact.ArcadeGameNames,
		}
		if pos, ok := posByEmail[fact.UserEmail]; ok {
			merged[pos] = participant
		} else {
			posByEmail[fact.UserEmail] = len(merged)
			merged = append(merged, participant)
		}

		snapshot := models.DailySnapshot{
			ID:               uuid.NewString(),
			ParticipantID:    id,
			SnapshotDate:     reportDate,
			SkillBadgesCount: fact.SkillBadgesCount,
			ArcadeGamesCount: fact.ArcadeGamesCount,
			SkillBadgeNames:  fact.SkillBadgeNames,
			ArcadeGameNames:  fact.ArcadeGameNames,
		}
		// One snapshot per (participant, date); a duplicate row in the same
		// file replaces its earlier snapshot, matching last-row-wins.
		if pos, ok := snapPosByID[id]; ok {
			snapshot.ID = snapshots[pos].ID
			snapshots[pos] = snapshot
		} else {
			snapPosByID[id] = len(snapshots)
			snapshots = append(snapshots, snapshot)
		}
	}

	if err := s.Store.UpsertParticipants(merged); err != nil {
		return nil, fmt.Errorf("failed to save participants: %w", err)
	}
	if err := s.Store.UpsertSnapshots(snapshots); err != nil {
		return nil, fmt.Errorf("failed to save snapshots: %w", err)
	}

	upload := &models.CsvUpload{
		ID:               uuid.NewString(),
		Filename:         filename,
		UploadDate:       time.Now(),
		ReportDate:       reportDate,
		ParticipantCount: len(merged),
		ArchivePath:      archivePath,
	}
	if err := s.Store.RecordUpload(upload); err != nil {
		return nil, fmt.Errorf("failed to record upload: %w", err)
	}

	log.Printf("📥 Ingested %s: %d row(s), %d snapshot(s), report date %s, %d participant(s) total",
		filename, len(facts), len(snapshots), reportDate, len(merged))
	return upload, nil
}

// UploadRosters handles the operator's multipart upload of one or more dated
// roster files. Files are processed strictly sequentially so each file's merge
// observes the previous file's results.
func (s *RosterService) UploadRosters(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid multipart form"})
	}

	files := form.File["files"]
	dates := form.Value["dates"]
	if len(files) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "at least one CSV file is required"})
	}
	if len(dates) != len(files) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("got %d file(s) but %d date(s) — one upload date per file is required", len(files), len(dates)),
		})
	}

	var uploads []*models.CsvUpload
	for i, fileHeader := range files {
		if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".csv") {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("invalid file type for %q — please upload a CSV file", fileHeader.Filename),
			})
		}
		uploadDate, err := time.Parse("2006-01-02", strings.TrimSpace(dates[i]))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("invalid upload date %q — expected YYYY-MM-DD", dates[i]),
			})
		}

		// Keep a raw copy for provenance; the archive worker pushes it to R2.
		archivePath := utils.RosterArchivePath(ReportDateFor(uploadDate), fileHeader.Filename)
		if err := utils.SaveFile(fileHeader, archivePath); err != nil {
			log.Printf("⚠️ Failed to archive %s locally: %v", fileHeader.Filename, err)
			archivePath = "" // archive is best-effort, ingestion continues
		}

		file, err := fileHeader.Open()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("failed to open %q", fileHeader.Filename),
			})
		}
		upload, err := s.IngestRoster(fileHeader.Filename, uploadDate, file, archivePath)
		file.Close()
		if err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": FriendlyDBError(err),
				"file":  fileHeader.Filename,
			})
		}
		uploads = append(uploads, upload)
	}

	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Successfully processed %d file(s)", len(uploads)),
		"uploads": uploads,
	})
}

// ListUploads returns upload provenance, newest first.
func (s *RosterService) ListUploads(c *fiber.Ctx) error {
	uploads, err := s.Store.ListUploads()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list uploads",
			"cause": err.Error(),
		})
	}
	return c.JSON(uploads)
}

// DeleteUpload removes an upload and garbage-collects orphaned participants.
func (s *RosterService) DeleteUpload(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := s.Store.DeleteUploadCascade(id); err != nil {
		status := fiber.StatusInternalServerError
		if err == gorm.ErrRecordNotFound {
			status = fiber.StatusNotFound
		}
		return c.Status(status).JSON(fiber.Map{"error": FriendlyDBError(err)})
	}
	log.Printf("🗑️ Deleted upload %s (snapshots for its report date + orphaned participants)", id)
	return c.JSON(fiber.Map{"message": "upload deleted"})
}

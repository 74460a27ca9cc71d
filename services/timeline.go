package services

import (
	"strings"

	"studyjam-tracker/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// DayProgress is one entry of a participant's derived timeline.
type DayProgress struct {
	Date          string   `json:"date"`
	NewBadges     int      `json:"new_badges"`
	NewBadgeNames []string `json:"new_badge_names"`
	TotalBadges   int      `json:"total_badges"`
}

// BuildTimeline derives per-day badge deltas from one participant's snapshot
// history, ordered ascending by date. The first snapshot is the baseline (its
// raw count and full name list); each later entry carries count delta and the
// names present today but absent yesterday, in today's order. A negative delta
// is displayed as-is — counts only shrink after an upstream data correction.
// Pure; empty history yields empty output.
func BuildTimeline(history []models.DailySnapshot) []DayProgress {
	timeline := make([]DayProgress, 0, len(history))
	var prevNames []string
	for i, snap := range history {
		names := SplitNames(snap.SkillBadgeNames)

		var newBadges int
		var newNames []string
		if i == 0 {
			newBadges = snap.SkillBadgesCount
			newNames = names
		} else {
			newBadges = snap.SkillBadgesCount - history[i-1].SkillBadgesCount
			newNames = diffNames(names, prevNames)
		}

		timeline = append(timeline, DayProgress{
			Date:          snap.SnapshotDate,
			NewBadges:     newBadges,
			NewBadgeNames: newNames,
			TotalBadges:   snap.SkillBadgesCount,
		})
		prevNames = names
	}
	return timeline
}

// diffNames returns the entries of current absent from previous, keeping
// current order.
func diffNames(current, previous []string) []string {
	seen := make(map[string]bool, len(previous))
	for _, name := range previous {
		seen[name] = true
	}
	diff := []string{}
	for _, name := range current {
		if !seen[name] {
			diff = append(diff, name)
		}
	}
	return diff
}

// TimelineService serves per-participant progress views. The detail timeline
// sits behind an email verification gate: the caller must present the exact
// email on record for that participant.
type TimelineService struct {
	DB    *gorm.DB
	Store *RosterStore
}

func NewTimelineService(db *gorm.DB) *TimelineService {
	return &TimelineService{DB: db, Store: NewRosterStore(db)}
}

// SnapshotsForParticipant loads one participant's history ascending by date.
func (s *TimelineService) SnapshotsForParticipant(participantID string) ([]models.DailySnapshot, error) {
	var snapshots []models.DailySnapshot
	err := s.DB.Where("participant_id = ?", participantID).
		Order("snapshot_date ASC").
		Find(&snapshots).Error
	return snapshots, err
}

// GetParticipant returns the public card data for one participant.
func (s *TimelineService) GetParticipant(c *fiber.Ctx) error {
	var participant models.Participant
	if err := s.DB.Where("id = ?", c.Params("id")).First(&participant).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "participant not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(participant)
}

// VerifyAndGetTimeline gates the detail view: the presented email must match
// the participant's record exactly. A mismatch is a user-facing rejection, not
// a system fault — stored data is untouched.
func (s *TimelineService) VerifyAndGetTimeline(c *fiber.Ctx) error {
	type Req struct {
		Email string `json:"email"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "email is required"})
	}

	participantID := c.Params("id")
	var participant models.Participant
	err := s.DB.Where("user_email = ?", email).First(&participant).Error
	if err != nil || participant.ID != participantID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "email does not match this participant",
		})
	}

	history, err := s.SnapshotsForParticipant(participantID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load snapshot history",
			"cause": err.Error(),
		})
	}

	timeline := BuildTimeline(history)
	progressChange := 0
	if len(history) >= 2 {
		progressChange = history[len(history)-1].SkillBadgesCount - history[0].SkillBadgesCount
	}

	return c.JSON(fiber.Map{
		"participant":     participant,
		"timeline":        timeline,
		"progress_change": progressChange,
	})
}

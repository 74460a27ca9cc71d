package services

import (
	"sort"
	"strings"

	"studyjam-tracker/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

// StatsService computes the dashboard aggregates. Tier assignment comes from
// the configured policy — a display concern, never consulted by ingestion.
type StatsService struct {
	DB     *gorm.DB
	Store  *RosterStore
	Policy models.TierPolicy

	collator *collate.Collator
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{
		DB:       db,
		Store:    NewRosterStore(db),
		Policy:   models.LoadTierPolicy(),
		collator: collate.New(language.English, collate.IgnoreCase),
	}
}

// ListParticipants serves the public roster, locale-collated by name, with an
// optional ?search= name filter. Readers are not synchronized with writers —
// a list observed mid-upload settles on the next reload.
func (s *StatsService) ListParticipants(c *fiber.Ctx) error {
	participants, err := s.Store.ListParticipants()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load participants",
			"cause": err.Error(),
		})
	}

	if search := strings.ToLower(strings.TrimSpace(c.Query("search"))); search != "" {
		filtered := participants[:0]
		for _, p := range participants {
			if strings.Contains(strings.ToLower(p.UserName), search) {
				filtered = append(filtered, p)
			}
		}
		participants = filtered
	}

	sort.SliceStable(participants, func(i, j int) bool {
		return s.collator.CompareString(participants[i].UserName, participants[j].UserName) < 0
	})

	type card struct {
		models.Participant
		Tier models.TierBucket `json:"tier"`
	}
	cards := make([]card, 0, len(participants))
	for _, p := range participants {
		cards = append(cards, card{
			Participant: p,
			Tier:        s.Policy.TierFor(p.SkillBadgesCount, p.ArcadeGamesCount),
		})
	}
	return c.JSON(cards)
}

// Summary serves the admin/public headline numbers plus the top performers
// and the per-tier distribution.
func (s *StatsService) Summary(c *fiber.Ctx) error {
	participants, err := s.Store.ListParticipants()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load participants",
			"cause": err.Error(),
		})
	}

	total := len(participants)
	active, redeemed, totalBadges := 0, 0, 0
	tiers := make(map[string]int)
	for _, p := range participants {
		if p.SkillBadgesCount > 0 {
			active++
		}
		if p.RedemptionStatus == "Yes" {
			redeemed++
		}
		totalBadges += p.SkillBadgesCount
		tiers[s.Policy.TierFor(p.SkillBadgesCount, p.ArcadeGamesCount).Code]++
	}

	avgBadges := 0.0
	redemptionRate := 0
	if total > 0 {
		avgBadges = float64(totalBadges) / float64(total)
		redemptionRate = redeemed * 100 / total
	}

	top := make([]models.Participant, len(participants))
	copy(top, participants)
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].SkillBadgesCount > top[j].SkillBadgesCount
	})
	if len(top) > 10 {
		top = top[:10]
	}

	var lastUpdated interface{}
	if uploads, err := s.Store.ListUploads(); err == nil && len(uploads) > 0 {
		lastUpdated = uploads[0].UploadDate
	}

	return c.JSON(fiber.Map{
		"total_participants":  total,
		"active_participants": active,
		"avg_skill_badges":    avgBadges,
		"redemption_rate":     redemptionRate,
		"tier_distribution":   tiers,
		"top_performers":      top,
		"last_updated":        lastUpdated,
	})
}

package models

import (
	"encoding/json"
	"log"
	"os"
)

// TierBucket maps a badge-count range to a display tier. MaxBadges < 0 means
// unbounded. Presentation policy only — ingestion never reads tiers.
type TierBucket struct {
	Code          string `json:"code"`
	Label         string `json:"label"`
	MinBadges     int    `json:"min_badges"`
	MaxBadges     int    `json:"max_badges"`
	RequireArcade bool   `json:"require_arcade"`
}

// TierPolicy holds the ordered buckets (most demanding first) plus the badge
// total the program considers "everything".
type TierPolicy struct {
	BadgeTotal int          `json:"badge_total"`
	Buckets    []TierBucket `json:"buckets"`
}

// DefaultTierPolicy mirrors the program's published milestones.
var DefaultTierPolicy = TierPolicy{
	BadgeTotal: 19,
	Buckets: []TierBucket{
		{Code: "complete", Label: "Fully Completed", MinBadges: 19, MaxBadges: -1, RequireArcade: true},
		{Code: "badges-complete", Label: "All Badges Done", MinBadges: 19, MaxBadges: -1},
		{Code: "almost-there", Label: "Almost There", MinBadges: 15, MaxBadges: 18},
		{Code: "great-progress", Label: "Great Progress", MinBadges: 10, MaxBadges: 14},
		{Code: "good-start", Label: "Good Start", MinBadges: 5, MaxBadges: 9},
	},
}

// TierFor returns the first bucket the counts satisfy, or the zero-value
// "starting" bucket when none match.
func (p TierPolicy) TierFor(badges, arcade int) TierBucket {
	for _, b := range p.Buckets {
		if badges < b.MinBadges {
			continue
		}
		if b.MaxBadges >= 0 && badges > b.MaxBadges {
			continue
		}
		if b.RequireArcade && arcade < 1 {
			continue
		}
		return b
	}
	return TierBucket{Code: "starting", Label: "Getting Started"}
}

// LoadTierPolicy reads TIER_POLICY (JSON) from the environment, falling back
// to DefaultTierPolicy on absence or parse failure.
func LoadTierPolicy() TierPolicy {
	raw := os.Getenv("TIER_POLICY")
	if raw == "" {
		return DefaultTierPolicy
	}
	var policy TierPolicy
	if err := json.Unmarshal([]byte(raw), &policy); err != nil || len(policy.Buckets) == 0 {
		log.Printf("⚠️  Invalid TIER_POLICY, using default: %v", err)
		return DefaultTierPolicy
	}
	return policy
}

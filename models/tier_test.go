package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTierForDefaultPolicy(t *testing.T) {
	cases := []struct {
		badges, arcade int
		want           string
	}{
		{19, 1, "complete"},
		{20, 2, "complete"},
		{19, 0, "badges-complete"},
		{18, 1, "almost-there"},
		{15, 0, "almost-there"},
		{14, 0, "great-progress"},
		{10, 0, "great-progress"},
		{9, 0, "good-start"},
		{5, 0, "good-start"},
		{4, 0, "starting"},
		{0, 0, "starting"},
	}
	for _, tc := range cases {
		got := DefaultTierPolicy.TierFor(tc.badges, tc.arcade)
		assert.Equal(t, tc.want, got.Code, "badges=%d arcade=%d", tc.badges, tc.arcade)
	}
}

func TestLoadTierPolicyFromEnv(t *testing.T) {
	t.Setenv("TIER_POLICY", `{"badge_total":10,"buckets":[{"code":"done","label":"Done","min_badges":10,"max_badges":-1}]}`)
	policy := LoadTierPolicy()
	assert.Equal(t, 10, policy.BadgeTotal)
	assert.Equal(t, "done", policy.TierFor(10, 0).Code)
	assert.Equal(t, "starting", policy.TierFor(9, 0).Code)
}

func TestLoadTierPolicyFallsBackOnBadJSON(t *testing.T) {
	t.Setenv("TIER_POLICY", "{not json")
	assert.Equal(t, DefaultTierPolicy, LoadTierPolicy())

	t.Setenv("TIER_POLICY", "")
	assert.Equal(t, DefaultTierPolicy, LoadTierPolicy())
}

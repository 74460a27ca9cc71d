package services

import (
	"studyjam-tracker/models"

	"github.com/google/uuid"
)

// IdentityIndex is a batch-scoped view of all known participants, keyed by
// email. It is built once per file (never refreshed mid-batch) so every row in
// the batch resolves against the same snapshot of the world.
type IdentityIndex struct {
	byEmail map[string]string
}

func NewIdentityIndex(participants []models.Participant) *IdentityIndex {
	byEmail := make(map[string]string, len(participants))
	for _, p := range participants {
		byEmail[p.UserEmail] = p.ID
	}
	return &IdentityIndex{byEmail: byEmail}
}

// Resolve maps a fact to its participant id by exact email match, minting a
// fresh uuid for first sightings. Minted ids join the index immediately, so a
// duplicate email later in the same batch reuses the same id. Pure lookup +
// mint; no writes.
func (ix *IdentityIndex) Resolve(fact Fact) (id string, existing bool) {
	if id, ok := ix.byEmail[fact.UserEmail]; ok {
		return id, true
	}
	id = uuid.NewString()
	ix.byEmail[fact.UserEmail] = id
	return id, false
}

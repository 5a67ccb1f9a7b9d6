package domain

import (
	"time"

	"github.com/google/uuid"
)

// EntityType tags the level a StatusChange applies to. Movie changes are
// reported with EntityEpisode.
type EntityType string

const (
	EntityEpisode EntityType = "episode"
	EntitySeason  EntityType = "season"
	EntityShow    EntityType = "show"
)

// StatusChange records one entity's status transition within a single
// logical operation. It is never persisted.
type StatusChange struct {
	ID         uuid.UUID   `json:"id"`
	EntityType EntityType  `json:"entity_type"`
	EntityID   int64       `json:"entity_id"`
	From       WatchStatus `json:"from"`
	To         WatchStatus `json:"to"`
	Timestamp  time.Time   `json:"timestamp"`
	Reason     string      `json:"reason"`
}

// NewStatusChange builds a change record stamped with at.
func NewStatusChange(entityType EntityType, entityID int64, from, to WatchStatus, reason string, at time.Time) StatusChange {
	return StatusChange{
		ID:         uuid.New(),
		EntityType: entityType,
		EntityID:   entityID,
		From:       from,
		To:         to,
		Timestamp:  at,
		Reason:     reason,
	}
}

// StatusUpdateResult is returned by every mutation of the data service.
type StatusUpdateResult struct {
	Success      bool           `json:"success"`
	Changes      []StatusChange `json:"changes"`
	AffectedRows int64          `json:"affected_rows"`
}

// HasChange reports whether any change applies to the given entity type.
func (r *StatusUpdateResult) HasChange(entityType EntityType) bool {
	for _, c := range r.Changes {
		if c.EntityType == entityType {
			return true
		}
	}
	return false
}

// Operation names carried on published change batches.
const (
	OpEpisodeUpdate  = "episode.update"
	OpSeasonUpdate   = "season.update"
	OpShowUpdate     = "show.update"
	OpMovieUpdate    = "movie.update"
	OpMovieReconcile = "movie.reconcile"
	OpShowReconcile  = "show.reconcile"
)

// ChangeBatch is the set of changes one operation committed for a profile.
type ChangeBatch struct {
	AccountID int64          `json:"account_id"`
	ProfileID int64          `json:"profile_id"`
	Operation string         `json:"operation"`
	Changes   []StatusChange `json:"changes"`
}

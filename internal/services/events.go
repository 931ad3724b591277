package services

import (
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var knownDifficulties = map[string]bool{"Easy": true, "Medium": true, "Hard": true}

// RecordQueryEvent stores one answered question. Difficulty is optional;
// when present it must be one of the three tiers the dashboards bucket by.
func RecordQueryEvent(db *sqlx.DB, userID, topic, difficulty string, responseTimeMs int, cacheHit bool) error {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return ErrBadRequest("topic is required")
	}
	if responseTimeMs < 0 {
		return ErrBadRequest("responseTimeMs must not be negative")
	}
	if difficulty != "" && !knownDifficulties[difficulty] {
		return ErrBadRequest("difficulty must be Easy, Medium or Hard")
	}
	_, err := db.Exec(`
INSERT INTO query_events (id, user_id, topic, difficulty, response_time_ms, cache_hit)
VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)
`, uuid.NewString(), nullIfBlank(userID), topic, difficulty, responseTimeMs, cacheHit)
	return err
}

package service

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rvclass/examroom-backend/internal/config"
)

// AnswerCache is the Redis hash holding an attempt's autosaved
// selections, keyed by (exam, student). It is written on every select,
// read back on resume and by the sweeper — the PostgreSQL copy lags
// behind it until the autosave worker drains the queue — and cleared
// once the attempt is finalized.
type AnswerCache struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewAnswerCache creates a new AnswerCache.
func NewAnswerCache(rdb *redis.Client, log zerolog.Logger) *AnswerCache {
	return &AnswerCache{
		rdb: rdb,
		log: log.With().Str("component", "answer_cache").Logger(),
	}
}

// Save upserts one selection into the attempt's hash.
func (c *AnswerCache) Save(ctx context.Context, examID, studentID, questionID uuid.UUID, selected int) error {
	key := config.CacheKey.AttemptAnswersKey(examID.String(), studentID.String())
	return c.rdb.HSet(ctx, key, questionID.String(), selected).Err()
}

// Load returns every autosaved selection for the pair's attempt. Entries
// that do not parse are skipped; a missing hash yields an empty map.
func (c *AnswerCache) Load(ctx context.Context, examID, studentID uuid.UUID) (map[uuid.UUID]int, error) {
	key := config.CacheKey.AttemptAnswersKey(examID.String(), studentID.String())
	raw, err := c.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}

	answers := make(map[uuid.UUID]int, len(raw))
	for field, val := range raw {
		questionID, err := uuid.Parse(field)
		if err != nil {
			c.log.Warn().Str("field", field).Msg("Skipping malformed answer key")
			continue
		}
		selected, err := strconv.Atoi(val)
		if err != nil {
			c.log.Warn().Str("value", val).Msg("Skipping malformed answer value")
			continue
		}
		answers[questionID] = selected
	}
	return answers, nil
}

// Clear drops the pair's hash after finalize.
func (c *AnswerCache) Clear(ctx context.Context, examID, studentID uuid.UUID) error {
	key := config.CacheKey.AttemptAnswersKey(examID.String(), studentID.String())
	return c.rdb.Del(ctx, key).Err()
}

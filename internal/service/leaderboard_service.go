package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rvclass/examroom-backend/internal/config"
	"github.com/rvclass/examroom-backend/internal/model"
	"github.com/rvclass/examroom-backend/internal/repository"
)

// leaderboardTTL keeps rankings slightly stale rather than recomputing
// the join on every request.
const leaderboardTTL = 30 * time.Second

// LeaderboardService serves score rankings with a short-lived Redis cache.
type LeaderboardService struct {
	repo *repository.LeaderboardRepository
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewLeaderboardService creates a new LeaderboardService.
func NewLeaderboardService(repo *repository.LeaderboardRepository, rdb *redis.Client, log zerolog.Logger) *LeaderboardService {
	return &LeaderboardService{
		repo: repo,
		rdb:  rdb,
		log:  log.With().Str("component", "leaderboard_service").Logger(),
	}
}

// ByExam returns the ranking for one exam.
func (s *LeaderboardService) ByExam(ctx context.Context, examID uuid.UUID) ([]model.LeaderboardEntry, error) {
	return s.cached(ctx, config.CacheKey.LeaderboardKey(examID.String()), func() ([]model.LeaderboardEntry, error) {
		return s.repo.ByExam(ctx, examID)
	})
}

// Overall returns the ranking across all exams.
func (s *LeaderboardService) Overall(ctx context.Context) ([]model.LeaderboardEntry, error) {
	return s.cached(ctx, config.CacheKey.LeaderboardKey(""), func() ([]model.LeaderboardEntry, error) {
		return s.repo.Overall(ctx)
	})
}

func (s *LeaderboardService) cached(ctx context.Context, key string, load func() ([]model.LeaderboardEntry, error)) ([]model.LeaderboardEntry, error) {
	raw, err := s.rdb.Get(ctx, key).Result()
	if err == nil {
		var entries []model.LeaderboardEntry
		if err := json.Unmarshal([]byte(raw), &entries); err == nil {
			return entries, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Str("key", key).Msg("Leaderboard cache read failed")
	}

	entries, err := load()
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}

	if encoded, err := json.Marshal(entries); err == nil {
		_ = s.rdb.Set(ctx, key, encoded, leaderboardTTL).Err()
	}
	return entries, nil
}

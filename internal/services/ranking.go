package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"mixins/internal/contenttype"
	"mixins/internal/models"
	"mixins/internal/utils"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// RankingService serves top-N lists through a short-lived cache. Every
// content type has a generation number that is part of the cache key;
// a vote on the type bumps it, so stale lists are never read again and
// simply age out of the LRU.
type RankingService struct {
	db    *gorm.DB
	cache *utils.Cache[[]RankedRecord]
	ttl   time.Duration
	group singleflight.Group

	mu          sync.Mutex
	generations map[string]uint64
}

func NewRankingService(conn *gorm.DB, size int, ttl time.Duration) (*RankingService, error) {
	cache, err := utils.NewCache[[]RankedRecord](size)
	if err != nil {
		return nil, err
	}
	return &RankingService{
		db:          conn,
		cache:       cache,
		ttl:         ttl,
		generations: make(map[string]uint64),
	}, nil
}

// Invalidate drops the cached lists of contentType.
func (s *RankingService) Invalidate(contentType string) {
	s.mu.Lock()
	s.generations[contentType]++
	s.mu.Unlock()
}

func (s *RankingService) generation(contentType string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[contentType]
}

// Top returns the n best voted records of ct visible to user.
func (s *RankingService) Top(ctx context.Context, ct *contenttype.ContentType, user *models.User, n int) ([]RankedRecord, error) {
	if s.ttl <= 0 {
		return Objects(ctx, s.db, ct).Globals(user).TopN(n)
	}

	var viewer uint
	if user.IsAuthenticated() {
		viewer = user.ID
	}
	key := fmt.Sprintf("top:%s:%d:%d:%d", ct.Key(), s.generation(ct.Key()), viewer, n)
	if list, ok := s.cache.Get(key); ok {
		return list, nil
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		list, err := Objects(ctx, s.db, ct).Globals(user).TopN(n)
		if err != nil {
			return nil, err
		}
		s.cache.Set(key, list, s.ttl)
		return list, nil
	})
	if err != nil {
		log.Printf("ranking %s failed: %v", ct, err)
		return nil, err
	}
	return v.([]RankedRecord), nil
}

package services

import (
	"context"
	"fmt"
	"sync"

	"mixins/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VoteLedger stores one vote per (user, target). Targets never reference
// their votes; everything is a reverse lookup on (content_type, object_id).
type VoteLedger struct {
	db *gorm.DB

	mu       sync.RWMutex
	onChange []func(contentType string)
}

func NewVoteLedger(conn *gorm.DB) *VoteLedger {
	return &VoteLedger{db: conn}
}

// OnChange registers fn to run after votes on a content type change.
func (l *VoteLedger) OnChange(fn func(contentType string)) {
	l.mu.Lock()
	l.onChange = append(l.onChange, fn)
	l.mu.Unlock()
}

func (l *VoteLedger) changed(contentType string) {
	l.mu.RLock()
	hooks := l.onChange
	l.mu.RUnlock()
	for _, fn := range hooks {
		fn(contentType)
	}
}

func (l *VoteLedger) target(ctx context.Context, target models.TargetRef) *gorm.DB {
	return l.db.WithContext(ctx).Model(&models.UserVote{}).
		Where("content_type = ? AND object_id = ?", target.ContentType, target.ObjectID)
}

// Cast records userID's vote on target, overwriting any earlier vote.
func (l *VoteLedger) Cast(ctx context.Context, userID uint, target models.TargetRef, value int) error {
	if value != 1 && value != -1 {
		return ErrInvalidVoteValue
	}

	vote := models.UserVote{
		UserID:      userID,
		ContentType: target.ContentType,
		ObjectID:    target.ObjectID,
		Value:       value,
	}
	err := l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "content_type"}, {Name: "object_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "modified_at"}),
	}).Create(&vote).Error
	if err != nil {
		return fmt.Errorf("cast vote on %s: %w", target, err)
	}

	l.changed(target.ContentType)
	return nil
}

// UserVote returns userID's vote on target, or nil when there is none.
func (l *VoteLedger) UserVote(ctx context.Context, userID uint, target models.TargetRef) (*models.UserVote, error) {
	var votes []models.UserVote
	err := l.target(ctx, target).Where("user_id = ?", userID).Limit(1).Find(&votes).Error
	if err != nil {
		return nil, err
	}
	if len(votes) == 0 {
		return nil, nil
	}
	return &votes[0], nil
}

func (l *VoteLedger) withValue(ctx context.Context, target models.TargetRef, value int) ([]models.UserVote, error) {
	var votes []models.UserVote
	err := l.target(ctx, target).Where("value = ?", value).Order("id").Find(&votes).Error
	return votes, err
}

func (l *VoteLedger) countValue(ctx context.Context, target models.TargetRef, value int) (int64, error) {
	var n int64
	err := l.target(ctx, target).Where("value = ?", value).Count(&n).Error
	return n, err
}

// Ups lists the up-votes on target.
func (l *VoteLedger) Ups(ctx context.Context, target models.TargetRef) ([]models.UserVote, error) {
	return l.withValue(ctx, target, 1)
}

// Downs lists the down-votes on target.
func (l *VoteLedger) Downs(ctx context.Context, target models.TargetRef) ([]models.UserVote, error) {
	return l.withValue(ctx, target, -1)
}

func (l *VoteLedger) UpCount(ctx context.Context, target models.TargetRef) (int64, error) {
	return l.countValue(ctx, target, 1)
}

func (l *VoteLedger) DownCount(ctx context.Context, target models.TargetRef) (int64, error) {
	return l.countValue(ctx, target, -1)
}

// NetScore is the sum of the current vote values on target.
func (l *VoteLedger) NetScore(ctx context.Context, target models.TargetRef) (int, error) {
	var sum int64
	err := l.target(ctx, target).Select("COALESCE(SUM(value), 0)").Scan(&sum).Error
	if err != nil {
		return 0, fmt.Errorf("net score of %s: %w", target, err)
	}
	return int(sum), nil
}

// Scores returns the net score of each id of contentType that has votes.
func (l *VoteLedger) Scores(ctx context.Context, contentType string, ids []uint) (map[uint]int, error) {
	out := make(map[uint]int, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []struct {
		ObjectID uint
		Score    int
	}
	err := l.db.WithContext(ctx).Model(&models.UserVote{}).
		Select("object_id, SUM(value) AS score").
		Where("content_type = ? AND object_id IN ?", contentType, ids).
		Group("object_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.ObjectID] = r.Score
	}
	return out, nil
}

// List pages through every vote, newest first, for the admin list.
func (l *VoteLedger) List(ctx context.Context, offset, limit int) ([]models.UserVote, int64, error) {
	var total int64
	if err := l.db.WithContext(ctx).Model(&models.UserVote{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var votes []models.UserVote
	err := l.db.WithContext(ctx).Order("id DESC").Offset(offset).Limit(limit).Find(&votes).Error
	return votes, total, err
}

// Clear removes every vote on target.
func (l *VoteLedger) Clear(ctx context.Context, target models.TargetRef) error {
	return l.clear(l.db.WithContext(ctx), target)
}

func (l *VoteLedger) clear(tx *gorm.DB, target models.TargetRef) error {
	err := tx.Where("content_type = ? AND object_id = ?", target.ContentType, target.ObjectID).
		Delete(&models.UserVote{}).Error
	if err != nil {
		return fmt.Errorf("clear votes on %s: %w", target, err)
	}
	l.changed(target.ContentType)
	return nil
}

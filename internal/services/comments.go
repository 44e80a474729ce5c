package services

import (
	"context"
	"fmt"
	"strings"

	"mixins/internal/models"

	"gorm.io/gorm"
)

// CommentLedger attaches free text to any target. Comments are vote
// targets themselves under models.CommentContentType.
type CommentLedger struct {
	db    *gorm.DB
	votes *VoteLedger
}

func NewCommentLedger(conn *gorm.DB, votes *VoteLedger) *CommentLedger {
	return &CommentLedger{db: conn, votes: votes}
}

// Add stores a new comment by author (nil for anonymous) on target.
func (l *CommentLedger) Add(ctx context.Context, author *models.User, ip string, target models.TargetRef, body string) (*models.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyComment
	}

	c := &models.Comment{
		ContentType: target.ContentType,
		ObjectID:    target.ObjectID,
		Body:        body,
	}
	c.IP = ip
	if author.IsAuthenticated() {
		id := author.ID
		c.UserID = &id
		c.Username = author.Username
	}
	if err := l.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, fmt.Errorf("add comment on %s: %w", target, err)
	}
	return c, nil
}

// List returns the comments on target, newest first, with Score and
// Username filled in.
func (l *CommentLedger) List(ctx context.Context, target models.TargetRef) ([]models.Comment, error) {
	var comments []models.Comment
	err := l.db.WithContext(ctx).
		Where("content_type = ? AND object_id = ?", target.ContentType, target.ObjectID).
		Order("created_at DESC").Order("id DESC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	if len(comments) == 0 {
		return comments, nil
	}

	ids := make([]uint, len(comments))
	userIDs := make([]uint, 0, len(comments))
	for i, c := range comments {
		ids[i] = c.ID
		if c.UserID != nil {
			userIDs = append(userIDs, *c.UserID)
		}
	}

	scores, err := l.votes.Scores(ctx, models.CommentContentType, ids)
	if err != nil {
		return nil, err
	}

	names := make(map[uint]string, len(userIDs))
	if len(userIDs) > 0 {
		var users []models.User
		if err := l.db.WithContext(ctx).Select("id", "username").Where("id IN ?", userIDs).Find(&users).Error; err != nil {
			return nil, err
		}
		for _, u := range users {
			names[u.ID] = u.Username
		}
	}

	for i := range comments {
		comments[i].Score = scores[comments[i].ID]
		if comments[i].UserID != nil {
			comments[i].Username = names[*comments[i].UserID]
		}
	}
	return comments, nil
}

// Count is the number of comments on target.
func (l *CommentLedger) Count(ctx context.Context, target models.TargetRef) (int64, error) {
	var n int64
	err := l.db.WithContext(ctx).Model(&models.Comment{}).
		Where("content_type = ? AND object_id = ?", target.ContentType, target.ObjectID).
		Count(&n).Error
	return n, err
}

// clear deletes the comments on target together with their votes.
func (l *CommentLedger) clear(tx *gorm.DB, target models.TargetRef) error {
	var ids []uint
	err := tx.Model(&models.Comment{}).
		Where("content_type = ? AND object_id = ?", target.ContentType, target.ObjectID).
		Pluck("id", &ids).Error
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Where("content_type = ? AND object_id IN ?", models.CommentContentType, ids).
		Delete(&models.UserVote{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", ids).Delete(&models.Comment{}).Error
}

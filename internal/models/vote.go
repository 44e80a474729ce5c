package models

import "strconv"

// TargetRef points at any record by (content type, id). Nothing on the
// target side references its votes or comments; they are found by reverse
// lookup.
type TargetRef struct {
	ContentType string `json:"content_type"`
	ObjectID    uint   `json:"object_id"`
}

func (t TargetRef) String() string {
	return t.ContentType + ":" + strconv.FormatUint(uint64(t.ObjectID), 10)
}

// UserVote is one user's vote on one target. The unique index enforces a
// single row per (user, target); casting again overwrites Value.
type UserVote struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	UserID      uint   `gorm:"not null;uniqueIndex:idx_vote_user_target,priority:1" json:"user_id"`
	ContentType string `gorm:"size:100;not null;uniqueIndex:idx_vote_user_target,priority:2;index:idx_vote_target,priority:1" json:"content_type"`
	ObjectID    uint   `gorm:"not null;uniqueIndex:idx_vote_user_target,priority:3;index:idx_vote_target,priority:2" json:"object_id"`
	Value       int    `gorm:"not null;index" json:"vote"` // 1 or -1
	Timestamps
}

func (v *UserVote) GetID() uint { return v.ID }

func (v *UserVote) Target() TargetRef {
	return TargetRef{ContentType: v.ContentType, ObjectID: v.ObjectID}
}

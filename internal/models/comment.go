package models

// CommentContentType is the registry key comments are voted on under.
const CommentContentType = "mixins__comment"

// Comment is free text attached to any target. Comments are themselves
// vote targets.
type Comment struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	ContentType string `gorm:"size:100;not null;index:idx_comment_target,priority:1" json:"content_type"`
	ObjectID    uint   `gorm:"not null;index:idx_comment_target,priority:2" json:"object_id"`
	Body        string `gorm:"column:comment;type:text;not null" json:"comment"`
	Owner
	IPAddress
	Timestamps
	Votes `gorm:"-" json:"-"`

	// 非数据库字段，查询时填充
	Score    int    `gorm:"-" json:"score"`
	Username string `gorm:"-" json:"username,omitempty"`
}

func (c *Comment) GetID() uint { return c.ID }

// Target is what the comment is attached to.
func (c *Comment) Target() TargetRef {
	return TargetRef{ContentType: c.ContentType, ObjectID: c.ObjectID}
}

// Ref is the comment itself as a vote target.
func (c *Comment) Ref() TargetRef {
	return TargetRef{ContentType: CommentContentType, ObjectID: c.ID}
}

func (c *Comment) AutosuggestField() string { return "comment" }

package models

type Tag struct {
	ID  uint   `gorm:"primaryKey" json:"id"`
	Tag string `gorm:"size:20;uniqueIndex;not null" json:"tag"`
}

func (t *Tag) GetID() uint { return t.ID }

func (t *Tag) String() string { return t.Tag }

func (t *Tag) AutosuggestField() string { return "tag" }

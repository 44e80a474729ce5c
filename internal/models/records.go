package models

import "fmt"

// Article carries every capability except location and domain.
type Article struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Title string `gorm:"size:200;not null" json:"title"`
	Body  string `gorm:"type:text" json:"body"`
	UniqueSlug
	SoftDelete
	Timestamps
	Global
	Owner
	Image
	Attributes  Dictionary `gorm:"type:text" json:"attributes"`
	Tags        []Tag      `gorm:"many2many:article_tags;" json:"tags,omitempty"`
	Votes       `gorm:"-" json:"-"`
	Comments    `gorm:"-" json:"-"`
	Autosuggest `gorm:"-" json:"-"`
}

func (a *Article) GetID() uint { return a.ID }

func (a *Article) SlugSource() string { return a.Title }

func (a *Article) SlugPolicy() SlugPolicy { return SlugPolicy{Unique: true} }

func (a *Article) ImageSpec() ImageSpec {
	return ImageSpec{
		Dir:       "articles",
		ThumbSize: &Size{Width: 150, Height: 150},
		ThumbCrop: CropFit,
		MaxSize:   &Size{Width: 1024, Height: 1024},
	}
}

func (a *Article) URL() string {
	return fmt.Sprintf("/articles/%s", a.Slug)
}

// Place is a geocoded location people can vote on.
type Place struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:100;not null" json:"name"`
	Slug
	Location
	Timestamps
	Votes `gorm:"-" json:"-"`
}

func (p *Place) GetID() uint { return p.ID }

func (p *Place) SlugSource() string { return p.Name }

func (p *Place) SlugPolicy() SlugPolicy { return SlugPolicy{NewOnly: true} }

func (p *Place) AutosuggestField() string { return "name" }

func (p *Place) URL() string {
	return fmt.Sprintf("/places/%d/%s", p.ID, p.Slug.Slug)
}

// Site is served from its own subdomain or a custom domain.
type Site struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:100;not null" json:"name"`
	Domain
	Email
	Owner
	Timestamps
}

func (s *Site) GetID() uint { return s.ID }

func (s *Site) AutosuggestField() string { return "name" }

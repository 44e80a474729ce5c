package models

import (
	"strings"
	"time"
)

// Record 任何可组合能力的数据实体
type Record interface {
	GetID() uint
}

// Capability is one optional component a record type can carry.
type Capability uint

const (
	CapSoftDelete Capability = 1 << iota
	CapTimestamps
	CapGlobal
	CapOwner
	CapVotes
	CapComments
	CapSlug
	CapLocation
	CapImage
	CapDomain
	CapAutosuggest
)

// CapabilitySet is a bit set of Capability values.
type CapabilitySet uint

func (s CapabilitySet) Has(c Capability) bool {
	return uint(s)&uint(c) != 0
}

func (s CapabilitySet) With(c Capability) CapabilitySet {
	return CapabilitySet(uint(s) | uint(c))
}

// Component accessors. A record type opts into a capability by embedding
// the matching component struct, which brings the accessor with it.
type (
	SoftDeletable interface {
		IsDeleted() bool
		MarkDeleted()
	}
	Timestamped interface {
		Created() time.Time
	}
	Globalized interface {
		GlobalFlag() bool
	}
	Ownable interface {
		OwnerID() *uint
	}
	VoteCapable interface {
		votesCapability()
	}
	CommentCapable interface {
		commentsCapability()
	}
	Sluggable interface {
		SlugField() *Slug
		SlugSource() string
		SlugPolicy() SlugPolicy
	}
	Locatable interface {
		LocationFields() *Location
	}
	Imageable interface {
		ImageFields() *Image
		ImageSpec() ImageSpec
	}
	Domained interface {
		DomainFields() *Domain
	}
	Autosuggestable interface {
		AutosuggestField() string
	}
)

// CapabilitiesOf inspects which components rec carries.
func CapabilitiesOf(rec Record) CapabilitySet {
	var s CapabilitySet
	if _, ok := rec.(SoftDeletable); ok {
		s = s.With(CapSoftDelete)
	}
	if _, ok := rec.(Timestamped); ok {
		s = s.With(CapTimestamps)
	}
	if _, ok := rec.(Globalized); ok {
		s = s.With(CapGlobal)
	}
	if _, ok := rec.(Ownable); ok {
		s = s.With(CapOwner)
	}
	if _, ok := rec.(VoteCapable); ok {
		s = s.With(CapVotes)
	}
	if _, ok := rec.(CommentCapable); ok {
		s = s.With(CapComments)
	}
	if _, ok := rec.(Sluggable); ok {
		s = s.With(CapSlug)
	}
	if _, ok := rec.(Locatable); ok {
		s = s.With(CapLocation)
	}
	if _, ok := rec.(Imageable); ok {
		s = s.With(CapImage)
	}
	if _, ok := rec.(Domained); ok {
		s = s.With(CapDomain)
	}
	if _, ok := rec.(Autosuggestable); ok {
		s = s.With(CapAutosuggest)
	}
	return s
}

// SoftDelete marks a record inactive instead of removing the row.
type SoftDelete struct {
	Deleted bool `gorm:"not null;default:false;index" json:"-"`
}

func (d *SoftDelete) IsDeleted() bool { return d.Deleted }
func (d *SoftDelete) MarkDeleted()    { d.Deleted = true }

// Timestamps 创建/修改时间
type Timestamps struct {
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	ModifiedAt time.Time `gorm:"autoUpdateTime" json:"modified_at"`
}

func (t *Timestamps) Created() time.Time { return t.CreatedAt }

// Global flags a record as visible to everybody; non-global records are
// only visible to their owner. No gorm default here: a `default:true` tag
// would turn an explicit false into true on insert. Records built with
// ContentType.Default start global instead.
type Global struct {
	IsGlobal bool `gorm:"not null;index" json:"is_global"`
}

func (g *Global) GlobalFlag() bool      { return g.IsGlobal }
func (g *Global) GlobalFields() *Global { return g }

type Owner struct {
	UserID *uint `gorm:"index" json:"user_id"`
}

func (o *Owner) OwnerID() *uint { return o.UserID }

// OwnedBy reports whether userID owns the record.
func (o *Owner) OwnedBy(userID uint) bool {
	return o.UserID != nil && *o.UserID == userID
}

// Votes makes a record a target of the vote ledger.
type Votes struct{}

func (Votes) votesCapability() {}

// Comments makes a record a target of the comment ledger.
type Comments struct{}

func (Comments) commentsCapability() {}

// Autosuggest exposes a record to the autosuggest endpoint, searching on
// "title" unless the record defines its own AutosuggestField.
type Autosuggest struct{}

func (Autosuggest) AutosuggestField() string { return "title" }

// SlugPolicy controls slug assignment on save.
type SlugPolicy struct {
	Unique  bool // append -2, -3, ... on collision
	NewOnly bool // only assign when the record is first created
}

type Slug struct {
	Slug string `gorm:"size:255;index" json:"slug"`
}

func (s *Slug) SlugField() *Slug { return s }

// UniqueSlug is Slug with a unique index, for types whose SlugPolicy is Unique.
type UniqueSlug struct {
	Slug string `gorm:"size:255;uniqueIndex" json:"slug"`
}

func (s *UniqueSlug) SlugField() *Slug { return (*Slug)(s) }

type SimpleLocation struct {
	City  string `gorm:"size:50" json:"city"`
	State string `gorm:"size:50" json:"state"`
}

// SimpleAddress joins the non-empty city and state.
func (l *SimpleLocation) SimpleAddress() string {
	parts := make([]string, 0, 2)
	for _, f := range []string{l.City, l.State} {
		if f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, ", ")
}

// GeoPoint 经纬度
type GeoPoint struct {
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Location is geocoded into Latitude/Longitude during save.
type Location struct {
	SimpleLocation
	Address   string  `gorm:"size:100" json:"address"`
	Address2  string  `gorm:"size:100" json:"address2"`
	Zip       string  `gorm:"size:12" json:"zip"`
	Country   string  `gorm:"size:50;default:'US'" json:"country"`
	Latitude  float64 `gorm:"default:0" json:"latitude"`
	Longitude float64 `gorm:"default:0" json:"longitude"`

	// 地址不唯一时的候选结果，不入库
	PotentialAddresses []GeoPoint `gorm:"-" json:"potential_addresses,omitempty"`
}

func (l *Location) LocationFields() *Location { return l }

// FullAddress is the geocoder query: street, city, state and zip followed
// by the country, or "" when every part is empty.
func (l *Location) FullAddress() string {
	full := make([]string, 0, 5)
	for _, f := range []string{l.Address, l.Address2, l.City, l.State, l.Zip} {
		if f != "" {
			full = append(full, f)
		}
	}
	partial := strings.Join(full, " ")
	if partial == "" {
		return ""
	}
	return partial + " " + l.Country
}

// CropMode selects how thumbnails are cut.
type CropMode int

const (
	CropNone CropMode = 0 // fit inside the box, keep the whole image
	CropFit  CropMode = 1 // fill the box exactly, trimming the edges
)

type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ImageSpec is the per-type image configuration. Nil sizes mean the step
// is skipped.
type ImageSpec struct {
	Dir       string
	ThumbSize *Size
	ThumbCrop CropMode
	MaxSize   *Size
}

type Image struct {
	Image string `gorm:"size:255" json:"image"` // path relative to the media root
}

func (i *Image) ImageFields() *Image { return i }

// Domain lets a record be served from a subdomain of the site or from a
// custom domain.
type Domain struct {
	Domain    *string `gorm:"size:40" json:"domain"`
	Subdomain string  `gorm:"size:30;uniqueIndex;not null" json:"subdomain"`
}

func (d *Domain) DomainFields() *Domain { return d }

// URL returns the custom domain when set, else the subdomain of siteDomain.
func (d *Domain) URL(siteDomain string, forceSubdomain bool) string {
	if d.Domain != nil && *d.Domain != "" && !forceSubdomain {
		return "http://" + *d.Domain
	}
	return "http://" + d.Subdomain + "." + siteDomain
}

type Email struct {
	Email *string `gorm:"size:320" json:"email"`
}

type IPAddress struct {
	IP string `gorm:"size:45" json:"ip"`
}

package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"mixins/internal/contenttype"
	"mixins/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// saveRetries is how often Save picks a new slug after losing a race on
// the unique index.
const saveRetries = 5

// RecordService runs the save and delete pipelines that every record
// type shares; which steps apply depends on the components it embeds.
type RecordService struct {
	db       *gorm.DB
	types    *contenttype.Registry
	votes    *VoteLedger
	comments *CommentLedger
	images   *ImageStore
	geocoder Geocoder
	ranking  *RankingService
}

func NewRecordService(conn *gorm.DB, types *contenttype.Registry, votes *VoteLedger, comments *CommentLedger,
	images *ImageStore, geocoder Geocoder, ranking *RankingService) *RecordService {
	return &RecordService{
		db:       conn,
		types:    types,
		votes:    votes,
		comments: comments,
		images:   images,
		geocoder: geocoder,
		ranking:  ranking,
	}
}

// Save geocodes, slugs and persists rec, then thumbnails and shrinks a
// new or replaced image.
func (s *RecordService) Save(ctx context.Context, rec models.Record) error {
	ct, err := s.types.For(rec)
	if err != nil {
		return err
	}
	isNew := rec.GetID() == 0

	if loc, ok := rec.(models.Locatable); ok {
		s.geocode(ctx, loc.LocationFields())
	}

	imageChanged := false
	if img, ok := rec.(models.Imageable); ok && img.ImageFields().Image != "" {
		imageChanged = s.imageChanged(ctx, ct, rec, isNew)
	}

	sl, sluggable := rec.(models.Sluggable)
	policy := models.SlugPolicy{}
	assignSlug := false
	base := ""
	if sluggable {
		policy = sl.SlugPolicy()
		assignSlug = !policy.NewOnly || isNew
	}
	if assignSlug {
		base = Slugify(sl.SlugSource())
		if base == "" {
			// 标题全是标点
			base = ct.Model
		}
		slug := base
		if policy.Unique {
			if slug, err = UniqueSlug(ctx, s.db, ct, base, rec.GetID()); err != nil {
				return err
			}
		}
		sl.SlugField().Slug = slug
	}

	for attempt := 0; ; attempt++ {
		err = s.db.WithContext(ctx).Save(rec).Error
		if err == nil {
			break
		}
		if !assignSlug || !policy.Unique || !errors.Is(err, gorm.ErrDuplicatedKey) || attempt >= saveRetries {
			return fmt.Errorf("save %s: %w", ct, err)
		}
		// slug taken between probe and insert
		next, perr := UniqueSlug(ctx, s.db, ct, base, rec.GetID())
		if perr != nil {
			return perr
		}
		sl.SlugField().Slug = next
	}

	if imageChanged {
		s.processImage(rec.(models.Imageable))
	}
	if s.ranking != nil {
		s.ranking.Invalidate(ct.Key())
	}
	return nil
}

// geocode fills the coordinates when the address resolves to exactly one
// place. Otherwise the coordinates are zero and the candidates are left
// on the record for the caller to offer.
func (s *RecordService) geocode(ctx context.Context, loc *models.Location) {
	if loc.Address == "" {
		return
	}
	loc.Latitude, loc.Longitude = 0, 0
	loc.PotentialAddresses = nil
	if s.geocoder == nil {
		return
	}

	points, err := s.geocoder.Geocode(ctx, loc.FullAddress())
	if err != nil {
		log.Printf("geocode %q failed: %v", loc.FullAddress(), err)
		return
	}
	if len(points) == 1 {
		loc.Latitude, loc.Longitude = points[0].Latitude, points[0].Longitude
		return
	}
	loc.PotentialAddresses = points
}

func (s *RecordService) imageChanged(ctx context.Context, ct *contenttype.ContentType, rec models.Record, isNew bool) bool {
	if isNew {
		return true
	}
	old, err := AllObjects(ctx, s.db, ct).First(rec.GetID())
	if err != nil {
		return true
	}
	prev := old.(models.Imageable).ImageFields().Image
	return prev == "" || prev != rec.(models.Imageable).ImageFields().Image
}

func (s *RecordService) processImage(img models.Imageable) {
	if s.images == nil {
		return
	}
	rel := img.ImageFields().Image
	spec := img.ImageSpec()
	if spec.ThumbSize != nil {
		if err := s.images.CreateThumbnail(rel, *spec.ThumbSize, spec.ThumbCrop); err != nil {
			log.Printf("thumbnail %s failed: %v", rel, err)
		}
	}
	if spec.MaxSize != nil {
		if err := s.images.Resize(rel, *spec.MaxSize); err != nil {
			log.Printf("resize %s failed: %v", rel, err)
		}
	}
}

// SetImage stores an upload as rec's image and saves rec.
func (s *RecordService) SetImage(ctx context.Context, rec models.Record, filename string, r io.Reader) error {
	img, ok := rec.(models.Imageable)
	if !ok || s.images == nil {
		return ErrNotImageable
	}
	rel, err := s.images.Store(img.ImageSpec().Dir, filename, r)
	if err != nil {
		return err
	}
	img.ImageFields().Image = rel
	return s.Save(ctx, rec)
}

// Delete soft-deletes rec when its type supports it, unless force is set.
// A hard delete also removes the votes and comments on rec.
func (s *RecordService) Delete(ctx context.Context, rec models.Record, force bool) error {
	ct, err := s.types.For(rec)
	if err != nil {
		return err
	}
	defer func() {
		if s.ranking != nil {
			s.ranking.Invalidate(ct.Key())
		}
	}()

	if sd, ok := rec.(models.SoftDeletable); ok && !force {
		sd.MarkDeleted()
		return s.db.WithContext(ctx).Model(rec).Update("deleted", true).Error
	}

	target := ct.Ref(rec)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.comments.clear(tx, target); err != nil {
			return err
		}
		if err := s.votes.clear(tx, target); err != nil {
			return err
		}
		return tx.Select(clause.Associations).Delete(rec).Error
	})
}

// SetTags replaces article's tags, creating the missing ones. Names are
// trimmed, lower-cased and cut to the column size.
func (s *RecordService) SetTags(ctx context.Context, article *models.Article, names []string) error {
	if article.ID == 0 {
		return fmt.Errorf("set tags: article not saved")
	}

	conn := s.db.WithContext(ctx)
	tags := make([]models.Tag, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if r := []rune(name); len(r) > 20 {
			name = string(r[:20])
		}
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		var tag models.Tag
		if err := conn.Where(models.Tag{Tag: name}).FirstOrCreate(&tag).Error; err != nil {
			return fmt.Errorf("tag %q: %w", name, err)
		}
		tags = append(tags, tag)
	}

	if err := conn.Model(article).Association("Tags").Replace(tags); err != nil {
		return fmt.Errorf("set tags: %w", err)
	}
	article.Tags = tags
	return nil
}

package services

import (
	"mixins/internal/config"
	"mixins/internal/contenttype"

	"gorm.io/gorm"
)

// Services bundles the ledgers and pipelines the handlers use.
type Services struct {
	DB       *gorm.DB
	Types    *contenttype.Registry
	Votes    *VoteLedger
	Comments *CommentLedger
	Ranking  *RankingService
	Records  *RecordService
	Images   *ImageStore
	Captcha  *CaptchaService
}

// New wires the services over conn. Geocoding is off when no key is
// configured.
func New(conn *gorm.DB, types *contenttype.Registry, cfg *config.Config) (*Services, error) {
	ranking, err := NewRankingService(conn, cfg.RankingCacheSize, cfg.RankingCacheTTL)
	if err != nil {
		return nil, err
	}

	votes := NewVoteLedger(conn)
	votes.OnChange(ranking.Invalidate)
	comments := NewCommentLedger(conn, votes)
	images := NewImageStore(cfg.MediaRoot, cfg.MediaURL)

	var geocoder Geocoder
	if cfg.GeocoderKey != "" {
		geocoder = NewGoogleGeocoder(cfg.GeocoderKey, cfg.GeocoderURL)
	}

	return &Services{
		DB:       conn,
		Types:    types,
		Votes:    votes,
		Comments: comments,
		Ranking:  ranking,
		Records:  NewRecordService(conn, types, votes, comments, images, geocoder, ranking),
		Images:   images,
		Captcha:  NewCaptchaService(),
	}, nil
}

package services

import (
	"context"
	"fmt"

	"mixins/internal/contenttype"
	"mixins/internal/models"

	"github.com/huandu/go-sqlbuilder"
	"gorm.io/gorm"
)

const voteTable = "user_votes"

// RankedRecord is a record with its vote aggregate.
type RankedRecord struct {
	Record models.Record
	Score  int // sum of vote values
	Votes  int // number of votes
}

// RecordQuery is a chainable query over one content type. Filters that
// need a capability the type lacks are skipped instead of failing.
type RecordQuery struct {
	ct   *contenttype.ContentType
	conn *gorm.DB
	tx   *gorm.DB
}

// Objects queries the live rows of ct; soft-deleted rows are hidden.
func Objects(ctx context.Context, conn *gorm.DB, ct *contenttype.ContentType) *RecordQuery {
	q := AllObjects(ctx, conn, ct)
	if ct.Caps.Has(models.CapSoftDelete) {
		return q.Where("deleted = ?", false)
	}
	return q
}

// AllObjects queries every row of ct, soft-deleted ones included.
func AllObjects(ctx context.Context, conn *gorm.DB, ct *contenttype.ContentType) *RecordQuery {
	conn = conn.WithContext(ctx)
	q := &RecordQuery{ct: ct, conn: conn}
	return q.with(conn.Model(ct.New()))
}

// with snapshots tx in a session so branching a query never leaks
// conditions into its parent.
func (q *RecordQuery) with(tx *gorm.DB) *RecordQuery {
	return &RecordQuery{ct: q.ct, conn: q.conn, tx: tx.Session(&gorm.Session{})}
}

func (q *RecordQuery) ContentType() *contenttype.ContentType { return q.ct }

// Where adds a condition, same arguments as gorm's Where.
func (q *RecordQuery) Where(query interface{}, args ...interface{}) *RecordQuery {
	return q.with(q.tx.Where(query, args...))
}

// Scopes applies gorm scopes such as models.DictionaryContains.
func (q *RecordQuery) Scopes(fns ...func(*gorm.DB) *gorm.DB) *RecordQuery {
	return q.with(q.tx.Scopes(fns...))
}

func (q *RecordQuery) Order(value interface{}) *RecordQuery {
	return q.with(q.tx.Order(value))
}

func (q *RecordQuery) Limit(n int) *RecordQuery {
	return q.with(q.tx.Limit(n))
}

// Globals keeps records flagged global plus, for an authenticated user,
// the ones they own.
func (q *RecordQuery) Globals(user *models.User) *RecordQuery {
	if !q.ct.Caps.Has(models.CapGlobal) {
		return q
	}
	if user.IsAuthenticated() && q.ct.Caps.Has(models.CapOwner) {
		return q.Where("(user_id = ? OR is_global = ?)", user.ID, true)
	}
	return q.Where("is_global = ?", true)
}

// OwnedBy keeps records owned by user; nobody owns anything when user is
// anonymous.
func (q *RecordQuery) OwnedBy(user *models.User) *RecordQuery {
	if !q.ct.Caps.Has(models.CapOwner) {
		return q
	}
	if !user.IsAuthenticated() {
		return q.Where("1 = 0")
	}
	return q.Where("user_id = ?", user.ID)
}

func (q *RecordQuery) Find() ([]models.Record, error) {
	return q.ct.Find(q.tx)
}

func (q *RecordQuery) First(id uint) (models.Record, error) {
	return q.ct.First(q.tx, id)
}

func (q *RecordQuery) Count() (int64, error) {
	var n int64
	err := q.tx.Count(&n).Error
	return n, err
}

// ByVotes orders the records that have votes by score, highest first;
// ties go to the record with fewer votes, then the lower id.
func (q *RecordQuery) ByVotes() ([]RankedRecord, error) {
	return q.byVotes(0)
}

// TopN is ByVotes cut to n records.
func (q *RecordQuery) TopN(n int) ([]RankedRecord, error) {
	if n <= 0 {
		return []RankedRecord{}, nil
	}
	return q.byVotes(n)
}

func (q *RecordQuery) TopTen() ([]RankedRecord, error) {
	return q.TopN(10)
}

func (q *RecordQuery) byVotes(limit int) ([]RankedRecord, error) {
	if !q.ct.Caps.Has(models.CapVotes) {
		tx := q.tx
		if limit > 0 {
			tx = tx.Limit(limit)
		}
		recs, err := q.ct.Find(tx)
		if err != nil {
			return nil, err
		}
		return unranked(recs), nil
	}

	var ids []uint
	if err := q.tx.Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("rank %s: %w", q.ct, err)
	}
	if len(ids) == 0 {
		return []RankedRecord{}, nil
	}

	query, args := voteAggregateSQL(q.ct.Key(), ids, limit)
	var rows []voteAggregate
	if err := q.conn.Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("rank %s: %w", q.ct, err)
	}
	if len(rows) == 0 {
		return []RankedRecord{}, nil
	}

	ranked := make([]uint, len(rows))
	for i, r := range rows {
		ranked[i] = r.ObjectID
	}
	recs, err := q.ct.Find(q.conn.Model(q.ct.New()).Where("id IN ?", ranked))
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Record, len(recs))
	for _, rec := range recs {
		byID[rec.GetID()] = rec
	}

	// bulk fetch loses the order, rebuild it from the aggregate
	out := make([]RankedRecord, 0, len(rows))
	for _, r := range rows {
		rec, ok := byID[r.ObjectID]
		if !ok {
			continue
		}
		out = append(out, RankedRecord{Record: rec, Score: r.VoteScore, Votes: r.TotalVotes})
	}
	return out, nil
}

type voteAggregate struct {
	ObjectID   uint
	VoteScore  int
	TotalVotes int
}

// voteAggregateSQL builds the per-record score/count query. It is built
// with '?' placeholders so gorm can rebind them for the active dialect.
func voteAggregateSQL(contentType string, ids []uint, limit int) (string, []interface{}) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select("object_id", "SUM(value) AS vote_score", "COUNT(value) AS total_votes").
		From(voteTable).
		Where(
			sb.Equal("content_type", contentType),
			sb.In("object_id", sqlbuilder.Flatten(ids)...),
		).
		GroupBy("object_id").
		OrderBy("vote_score DESC", "total_votes ASC", "object_id ASC")
	if limit > 0 {
		sb.Limit(limit)
	}
	return sb.BuildWithFlavor(sqlbuilder.MySQL)
}

// Voteless lists records nobody has voted on; empty for types that can't
// be voted on.
func (q *RecordQuery) Voteless() ([]models.Record, error) {
	if !q.ct.Caps.Has(models.CapVotes) {
		return []models.Record{}, nil
	}
	sub := q.conn.Model(&models.UserVote{}).Select("object_id").Where("content_type = ?", q.ct.Key())
	return q.ct.Find(q.tx.Where("id NOT IN (?)", sub))
}

// ByDate orders newest first when the type has timestamps.
func (q *RecordQuery) ByDate() *RecordQuery {
	if !q.ct.Caps.Has(models.CapTimestamps) {
		return q
	}
	return q.Order("created_at DESC").Order("id DESC")
}

// Newest returns the n most recently created records, 10 when n <= 0.
func (q *RecordQuery) Newest(n int) ([]models.Record, error) {
	if n <= 0 {
		n = 10
	}
	return q.ByDate().Limit(n).Find()
}

func unranked(recs []models.Record) []RankedRecord {
	out := make([]RankedRecord, len(recs))
	for i, rec := range recs {
		out[i] = RankedRecord{Record: rec}
	}
	return out
}

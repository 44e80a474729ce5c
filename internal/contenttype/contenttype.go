// Package contenttype keeps the registry of record types that votes,
// comments and the ajax endpoints can address by "app__model" key.
package contenttype

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"mixins/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

var ErrUnknownContentType = errors.New("unknown content type")

// ContentType describes one registered record type.
type ContentType struct {
	AppLabel string
	Model    string
	Caps     models.CapabilitySet

	newRecord func() models.Record
	find      func(tx *gorm.DB) ([]models.Record, error)
	url       func(models.Record) string
	// columns requests may search, show or filter on, besides the
	// autosuggest field
	searchable []string

	schemaOnce sync.Once
	schema     *schema.Schema
	schemaErr  error
}

// Key is the "app__model" form used on the wire and in the ledgers.
func (ct *ContentType) Key() string {
	return ct.AppLabel + "__" + ct.Model
}

func (ct *ContentType) String() string {
	return ct.AppLabel + "." + ct.Model
}

// New returns a pointer to a zero record of this type.
func (ct *ContentType) New() models.Record {
	return ct.newRecord()
}

// Default returns a new record with field defaults applied, the way a
// form would start it: global types start global.
func (ct *ContentType) Default() models.Record {
	rec := ct.newRecord()
	if g, ok := rec.(interface{ GlobalFields() *models.Global }); ok {
		g.GlobalFields().IsGlobal = true
	}
	return rec
}

// Find runs tx (already scoped to this type's table) and returns the rows.
func (ct *ContentType) Find(tx *gorm.DB) ([]models.Record, error) {
	return ct.find(tx)
}

// First loads the record with the given id through tx.
func (ct *ContentType) First(tx *gorm.DB, id uint) (models.Record, error) {
	rec := ct.newRecord()
	if err := tx.Where("id = ?", id).First(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

// Ref is the vote/comment target for rec.
func (ct *ContentType) Ref(rec models.Record) models.TargetRef {
	return models.TargetRef{ContentType: ct.Key(), ObjectID: rec.GetID()}
}

// URL is the record's absolute URL, or "" when the type has none.
func (ct *ContentType) URL(rec models.Record) string {
	if ct.url != nil {
		return ct.url(rec)
	}
	if u, ok := rec.(interface{ URL() string }); ok {
		return u.URL()
	}
	return ""
}

// AutosuggestField is the default column autosuggest searches, "" when
// the type is not searchable.
func (ct *ContentType) AutosuggestField() string {
	if a, ok := ct.newRecord().(models.Autosuggestable); ok {
		return a.AutosuggestField()
	}
	return ""
}

// Schema is the gorm schema of the type, parsed once. Used to validate
// column names that come from requests.
func (ct *ContentType) Schema(namer schema.Namer) (*schema.Schema, error) {
	ct.schemaOnce.Do(func() {
		ct.schema, ct.schemaErr = schema.Parse(ct.newRecord(), &sync.Map{}, namer)
	})
	return ct.schema, ct.schemaErr
}

// Column resolves a request-supplied field name to a column of this
// type, or returns false.
func (ct *ContentType) Column(namer schema.Namer, name string) (*schema.Field, bool) {
	s, err := ct.Schema(namer)
	if err != nil || name == "" {
		return nil, false
	}
	f := s.LookUpField(name)
	if f == nil || f.DBName == "" {
		return nil, false
	}
	return f, true
}

// Searchable is Column restricted to the autosuggest field and the
// columns declared searchable at registration. Anything else (ip, email)
// is never reachable from a request.
func (ct *ContentType) Searchable(namer schema.Namer, name string) (*schema.Field, bool) {
	f, ok := ct.Column(namer, name)
	if !ok {
		return nil, false
	}
	allowed := ct.searchable
	if def := ct.AutosuggestField(); def != "" {
		allowed = append([]string{def}, allowed...)
	}
	for _, a := range allowed {
		if a == f.DBName || a == f.Name {
			return f, true
		}
	}
	return nil, false
}

// FieldValue reads field name from rec, formatted as text.
func (ct *ContentType) FieldValue(ctx context.Context, namer schema.Namer, rec models.Record, name string) (string, bool) {
	f, ok := ct.Column(namer, name)
	if !ok {
		return "", false
	}
	v, _ := f.ValueOf(ctx, reflect.ValueOf(rec))
	if v == nil {
		return "", true
	}
	if p, ok := v.(*string); ok {
		if p == nil {
			return "", true
		}
		return *p, true
	}
	return fmt.Sprint(v), true
}

// Registry maps keys to content types.
type Registry struct {
	mu     sync.RWMutex
	byKey  map[string]*ContentType
	byType map[string]*ContentType
}

func NewRegistry() *Registry {
	return &Registry{
		byKey:  make(map[string]*ContentType),
		byType: make(map[string]*ContentType),
	}
}

// Options customises a registration.
type Options struct {
	URL func(models.Record) string
	// Searchable lists the extra columns autosuggest may search and filter on.
	Searchable []string
}

// Register adds record type T under appLabel__model and computes its
// capability set.
func Register[T any, PT interface {
	*T
	models.Record
}](r *Registry, appLabel, model string, opts Options) *ContentType {
	ct := &ContentType{
		AppLabel: strings.ToLower(appLabel),
		Model:    strings.ToLower(model),
		newRecord: func() models.Record {
			return PT(new(T))
		},
		find: func(tx *gorm.DB) ([]models.Record, error) {
			var rows []T
			if err := tx.Find(&rows).Error; err != nil {
				return nil, err
			}
			out := make([]models.Record, len(rows))
			for i := range rows {
				out[i] = PT(&rows[i])
			}
			return out, nil
		},
		url:        opts.URL,
		searchable: opts.Searchable,
	}
	ct.Caps = models.CapabilitiesOf(ct.newRecord())

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byKey[ct.Key()] = ct
	r.byType[fmt.Sprintf("%T", ct.newRecord())] = ct
	return ct
}

// Lookup resolves an "app__model" key.
func (r *Registry) Lookup(key string) (*ContentType, error) {
	appLabel, model, ok := strings.Cut(key, "__")
	if !ok || appLabel == "" || model == "" {
		return nil, fmt.Errorf("%w: %q", ErrUnknownContentType, key)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ct, ok := r.byKey[strings.ToLower(appLabel)+"__"+strings.ToLower(model)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownContentType, key)
	}
	return ct, nil
}

// For returns the content type rec was registered as.
func (r *Registry) For(rec models.Record) (*ContentType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ct, ok := r.byType[fmt.Sprintf("%T", rec)]
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnknownContentType, rec)
	}
	return ct, nil
}

// All lists registered types.
func (r *Registry) All() []*ContentType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*ContentType, 0, len(r.byKey))
	for _, ct := range r.byKey {
		out = append(out, ct)
	}
	return out
}

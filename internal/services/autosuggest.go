package services

import (
	"context"
	"html"
	"reflect"
	"strconv"
	"strings"

	"mixins/internal/contenttype"
	"mixins/internal/models"

	"gorm.io/gorm/schema"
)

// NullFilterValue in a filter means "is NULL".
const NullFilterValue = "None"

// SuggestQuery is one autosuggest lookup.
type SuggestQuery struct {
	ContentType      string
	Text             string
	Field            string // column shown and searched; type default when empty
	RequireBeginning bool
	UserOnly         bool
	Filters          map[string]string // column -> value
	Attrs            map[string]string // dictionary key -> value
	AttrText         string            // dictionary mentions this text anywhere
	User             *models.User
}

type Suggestion struct {
	ID    uint   `json:"id"`
	Value string `json:"value"`
	URL   string `json:"url"`
}

var dictionaryType = reflect.TypeOf(models.Dictionary{})

// Autosuggest returns the records of q.ContentType whose field contains
// (or starts with) q.Text, case-insensitively. Only the type's
// searchable columns are accepted: other filters are ignored, any other
// field yields no results.
func (s *RecordService) Autosuggest(ctx context.Context, q SuggestQuery) ([]Suggestion, error) {
	results := []Suggestion{}
	ct, err := s.types.Lookup(q.ContentType)
	if err != nil {
		return results, nil
	}

	namer := s.db.NamingStrategy
	field := q.Field
	if field == "" {
		field = ct.AutosuggestField()
	}
	col, ok := ct.Searchable(namer, field)
	if !ok || col.IndirectFieldType.Kind() != reflect.String {
		return results, nil
	}

	pattern := models.LikeContains(strings.ToLower(q.Text))
	if q.RequireBeginning {
		pattern = models.LikePrefix(strings.ToLower(q.Text))
	}
	query := Objects(ctx, s.db, ct).Where("LOWER("+col.DBName+") LIKE ? ESCAPE '!'", pattern)

	if q.UserOnly && ct.Caps.Has(models.CapOwner) {
		query = query.OwnedBy(q.User)
	}
	for name, value := range q.Filters {
		f, ok := ct.Searchable(namer, name)
		if !ok {
			continue
		}
		if value == NullFilterValue {
			query = query.Where(f.DBName + " IS NULL")
		} else if v, ok := filterValue(f, value); ok {
			query = query.Where(f.DBName+" = ?", v)
		}
	}
	if len(q.Attrs) > 0 || q.AttrText != "" {
		if dict := dictionaryColumn(ct, namer); dict != "" {
			for key, value := range q.Attrs {
				query = query.Scopes(models.DictionaryContains(dict, key, value))
			}
			if q.AttrText != "" {
				query = query.Scopes(models.DictionaryContainsText(dict, q.AttrText))
			}
		}
	}

	recs, err := query.Globals(q.User).Order("id").Find()
	if err != nil {
		return nil, err
	}
	for _, rec := range recs {
		value, _ := ct.FieldValue(ctx, namer, rec, field)
		results = append(results, Suggestion{
			ID:    rec.GetID(),
			Value: html.EscapeString(value),
			URL:   ct.URL(rec),
		})
	}
	return results, nil
}

// dictionaryColumn is the first Dictionary column of ct, "" when none.
func dictionaryColumn(ct *contenttype.ContentType, namer schema.Namer) string {
	sch, err := ct.Schema(namer)
	if err != nil {
		return ""
	}
	for _, f := range sch.Fields {
		if f.FieldType == dictionaryType && f.DBName != "" {
			return f.DBName
		}
	}
	return ""
}

// filterValue converts a query-string value to the column's type.
func filterValue(f *schema.Field, raw string) (interface{}, bool) {
	switch f.DataType {
	case schema.Int:
		v, err := strconv.ParseInt(raw, 10, 64)
		return v, err == nil
	case schema.Uint:
		v, err := strconv.ParseUint(raw, 10, 64)
		return v, err == nil
	case schema.Float:
		v, err := strconv.ParseFloat(raw, 64)
		return v, err == nil
	case schema.Bool:
		v, err := strconv.ParseBool(raw)
		return v, err == nil
	default:
		return raw, true
	}
}

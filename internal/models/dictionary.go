package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Dictionary is a string map stored as JSON text.
type Dictionary map[string]string

// Scan implements sql.Scanner. Empty text scans to an empty dictionary.
func (d *Dictionary) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*d = Dictionary{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("dictionary: unsupported scan type %T", value)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		*d = Dictionary{}
		return nil
	}
	m := make(map[string]string)
	if err := json.Unmarshal(raw, &m); err != nil {
		return fmt.Errorf("dictionary: %w", err)
	}
	*d = m
	return nil
}

// Value implements driver.Valuer.
func (d Dictionary) Value() (driver.Value, error) {
	if len(d) == 0 {
		return "", nil
	}
	b, err := json.Marshal(map[string]string(d))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// escapeLike escapes LIKE wildcards with '!' which every supported
// dialect accepts as an ESCAPE character.
func escapeLike(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(s)
}

// LikeContains builds a pattern matching s anywhere, for use with
// "LIKE ? ESCAPE '!'".
func LikeContains(s string) string {
	return "%" + escapeLike(s) + "%"
}

// LikePrefix builds a pattern matching values starting with s.
func LikePrefix(s string) string {
	return escapeLike(s) + "%"
}

// DictionaryContains scopes a query to rows whose dictionary column holds
// key=value. column must be a trusted column name.
func DictionaryContains(column, key, value string) func(*gorm.DB) *gorm.DB {
	k, _ := json.Marshal(key)
	v, _ := json.Marshal(value)
	pattern := LikeContains(string(k) + ":" + string(v))
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(column+" LIKE ? ESCAPE '!'", pattern)
	}
}

// DictionaryContainsText scopes a query to rows whose dictionary column
// mentions text anywhere, keys included.
func DictionaryContainsText(column, text string) func(*gorm.DB) *gorm.DB {
	pattern := LikeContains(text)
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(column+" LIKE ? ESCAPE '!'", pattern)
	}
}

package widgets

import (
	"strings"

	"gorm.io/gorm/schema"
)

// KindOf guesses the widget kind of a gorm column.
func KindOf(f *schema.Field) Kind {
	switch f.DataType {
	case schema.Bool:
		return KindBoolean
	case schema.Int, schema.Uint:
		if strings.HasSuffix(f.DBName, "_id") {
			return KindForeignKey
		}
		return KindInteger
	case schema.Time:
		return KindDateTime
	case schema.String:
		if f.DBName == "image" {
			return KindImage
		}
		if f.Size > 0 && f.Size <= 255 {
			return KindChar
		}
		return KindText
	}
	// custom types such as Dictionary are stored as text
	if strings.EqualFold(string(f.DataType), "text") {
		return KindText
	}
	return 0
}

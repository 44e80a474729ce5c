// Package widgets renders record fields read-only for the admin pages:
// a display value followed by a hidden input carrying the raw value.
package widgets

import (
	"errors"
	"fmt"
	"html"
	"html/template"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var ErrUnsupportedKind = errors.New("field kind is not supported by ReadOnly")

// Kind is the storage kind of a field, which picks the renderer.
type Kind int

const (
	KindText Kind = iota + 1
	KindChar
	KindInteger
	KindBoolean
	KindFile
	KindImage
	KindForeignKey
	KindManyToMany
	KindDateTime
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindChar:
		return "char"
	case KindInteger:
		return "integer"
	case KindBoolean:
		return "boolean"
	case KindFile:
		return "file"
	case KindImage:
		return "image"
	case KindForeignKey:
		return "foreignkey"
	case KindManyToMany:
		return "manytomany"
	case KindDateTime:
		return "datetime"
	case KindDate:
		return "date"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Choice is one (value, label) option.
type Choice struct {
	Value string
	Label string
}

// Field describes how to render one field.
type Field struct {
	Name    string
	Kind    Kind
	Choices []Choice

	// URL maps a stored file path to its public URL (file and image kinds).
	URL func(path string) string
	// Label resolves a related id to its display text (foreign key and
	// many-to-many kinds).
	Label func(id string) (string, bool)
}

// C-locale strftime %x and %X
const (
	dateLayout     = "01/02/06"
	timeLayout     = "15:04:05"
	datetimeLayout = dateLayout + " " + timeLayout
)

// ReadOnly renders value for f.
func ReadOnly(f Field, value interface{}) (template.HTML, error) {
	value = deref(value)
	raw := rawValue(value)

	var out string
	switch f.Kind {
	case KindText:
		out = html.EscapeString(raw)
	case KindChar:
		out = html.EscapeString(f.choiceLabel(raw, raw))
	case KindInteger:
		n, err := toInt(value)
		if err != nil {
			return "", fmt.Errorf("%s: %w", f.Name, err)
		}
		out = html.EscapeString(f.choiceLabel(raw, strconv.FormatInt(n, 10)))
	case KindBoolean:
		out = booleanIcon(value)
	case KindFile, KindImage:
		out = f.fileLink(raw)
	case KindForeignKey:
		if value == nil && len(f.Choices) > 0 {
			// nothing chosen yet: offer the choices instead
			return f.selectInput(), nil
		}
		out = f.label(raw)
	case KindManyToMany:
		out = f.list(value)
		raw = strings.Join(stringsOf(value), ",")
	case KindDateTime:
		out = formatTime(value, datetimeLayout)
	case KindDate:
		out = formatTime(value, dateLayout)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedKind, f.Kind)
	}

	return template.HTML(out + " " + hiddenInput(f.Name, raw)), nil
}

func (f Field) choiceLabel(raw, fallback string) string {
	for _, c := range f.Choices {
		if c.Value == raw {
			return c.Label
		}
	}
	return fallback
}

func (f Field) fileLink(path string) string {
	if path == "" {
		return ""
	}
	url := path
	if f.URL != nil {
		url = f.URL(path)
	}
	return fmt.Sprintf(`Currently: <a target="_blank" href="%s">%s</a>`, html.EscapeString(url), html.EscapeString(path))
}

func (f Field) label(id string) string {
	if id == "" || f.Label == nil {
		return ""
	}
	text, ok := f.Label(id)
	if !ok {
		return ""
	}
	return html.EscapeString(text)
}

func (f Field) list(value interface{}) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<ul class="m2m_list_%s">`, html.EscapeString(f.Name))
	for _, id := range stringsOf(value) {
		b.WriteString("<li>")
		b.WriteString(f.label(id))
		b.WriteString("</li>")
	}
	b.WriteString("</ul>")
	return b.String()
}

func (f Field) selectInput() template.HTML {
	var b strings.Builder
	fmt.Fprintf(&b, `<select name="%s">`, html.EscapeString(f.Name))
	for _, c := range f.Choices {
		fmt.Fprintf(&b, `<option value="%s">%s</option>`, html.EscapeString(c.Value), html.EscapeString(c.Label))
	}
	b.WriteString("</select>")
	return template.HTML(b.String())
}

func hiddenInput(name, value string) string {
	return fmt.Sprintf(`<input type="hidden" name="%s" value="%s" />`, html.EscapeString(name), html.EscapeString(value))
}

func booleanIcon(value interface{}) string {
	switch v := value.(type) {
	case bool:
		if v {
			return `<img src="/static/img/icon-yes.svg" alt="True" />`
		}
		return `<img src="/static/img/icon-no.svg" alt="False" />`
	}
	return `<img src="/static/img/icon-unknown.svg" alt="None" />`
}

func formatTime(value interface{}, layout string) string {
	t, ok := value.(time.Time)
	if !ok || t.IsZero() {
		return ""
	}
	return t.Format(layout)
}

// deref unwraps pointers; nil pointers become nil.
func deref(value interface{}) interface{} {
	if value == nil {
		return nil
	}
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	return rv.Interface()
}

func rawValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}

func toInt(value interface{}) (int64, error) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), nil
	}
	return 0, fmt.Errorf("not an integer: %T", value)
}

func stringsOf(value interface{}) []string {
	if value == nil {
		return nil
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice {
		return []string{rawValue(value)}
	}
	out := make([]string, rv.Len())
	for i := range out {
		out[i] = rawValue(rv.Index(i).Interface())
	}
	return out
}

package handlers

import (
	"fmt"
	"html/template"
	"net/url"
	"path/filepath"
	"time"

	"mixins/internal/inflect"
	"mixins/internal/models"
	"mixins/internal/services"
	"mixins/internal/utils"

	"github.com/gin-contrib/multitemplate"
)

// views are the page names handlers render, relative to <dir>/views.
var views = []string{
	"auth/login.html",
	"auth/register.html",
	"record/detail.html",
	"record/list.html",
	"admin/votes.html",
	"admin/record.html",
	"site/detail.html",
	"error.html",
}

// LoadTemplates builds one template set per view: every layout and
// include plus the view itself.
func LoadTemplates(templatesDir string, funcMap template.FuncMap) (multitemplate.Renderer, error) {
	r := multitemplate.NewRenderer()

	layouts, err := filepath.Glob(filepath.Join(templatesDir, "layouts", "*.html"))
	if err != nil {
		return nil, err
	}
	includes, err := filepath.Glob(filepath.Join(templatesDir, "includes", "*.html"))
	if err != nil {
		return nil, err
	}

	for _, view := range views {
		files := make([]string, 0, len(layouts)+len(includes)+1)
		files = append(files, layouts...)
		files = append(files, includes...)
		files = append(files, filepath.Join(templatesDir, "views", filepath.FromSlash(view)))
		r.AddFromFilesFuncs(view, funcMap, files...)
	}
	return r, nil
}

// FuncMap is the template function set. images backs the thumbnail
// directive.
func FuncMap(images *services.ImageStore) template.FuncMap {
	return template.FuncMap{
		"dict": func(values ...interface{}) (map[string]interface{}, error) {
			if len(values)%2 != 0 {
				return nil, fmt.Errorf("invalid dict call")
			}
			dict := make(map[string]interface{}, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict keys must be strings")
				}
				dict[key] = values[i+1]
			}
			return dict, nil
		},
		"add": func(a, b int) int {
			return a + b
		},
		"timeAgo": timeAgo,
		"safeHTML": func(s string) template.HTML {
			return template.HTML(s)
		},
		"markdown": func(s string) template.HTML {
			return utils.RenderMarkdown(s)
		},
		"pluralize": func(word string, count int) string {
			return inflect.Pluralize(word, "en", count)
		},
		"singularize": func(word string) string {
			return inflect.Singularize(word, "en")
		},
		"fraction": func(x float64) string {
			return utils.FormatFraction(x, 16)
		},
		// thumbnail obj w h crop
		"thumbnail": func(obj interface{}, w, h, crop int) string {
			rec, ok := obj.(models.Record)
			if !ok || images == nil {
				return ""
			}
			return images.RecordThumbnail(rec, models.Size{Width: w, Height: h}, models.CropMode(crop))
		},
		"urlquery": func(s string) string {
			return url.QueryEscape(s)
		},
	}
}

func timeAgo(t interface{}) string {
	var timeVal time.Time
	switch v := t.(type) {
	case time.Time:
		timeVal = v
	case *time.Time:
		if v == nil {
			return ""
		}
		timeVal = *v
	default:
		return ""
	}

	seconds := int(time.Since(timeVal).Seconds())
	unit := func(n int, word string) string {
		return fmt.Sprintf("%d %s ago", n, inflect.Pluralize(word, "en", n))
	}
	switch {
	case seconds < 60:
		return "just now"
	case seconds < 3600:
		return unit(seconds/60, "minute")
	case seconds < 86400:
		return unit(seconds/3600, "hour")
	case seconds < 2592000:
		return unit(seconds/86400, "day")
	case seconds < 31536000:
		return unit(seconds/2592000, "month")
	}
	return unit(seconds/31536000, "year")
}

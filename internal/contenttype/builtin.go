package contenttype

import (
	"mixins/internal/models"
)

// RegisterBuiltins registers the record types this service ships with.
// siteDomain is used for the URL of records served on their own domain.
func RegisterBuiltins(r *Registry, siteDomain string) {
	Register[models.Article](r, "blog", "article", Options{
		Searchable: []string{"slug", "is_global", "user_id"},
	})
	Register[models.Place](r, "geo", "place", Options{
		Searchable: []string{"slug", "city", "state", "country", "zip"},
	})
	Register[models.Site](r, "sites", "site", Options{
		URL: func(rec models.Record) string {
			return rec.(*models.Site).Domain.URL(siteDomain, false)
		},
		Searchable: []string{"domain", "subdomain", "user_id"},
	})
	Register[models.Tag](r, "mixins", "tag", Options{
		URL: func(rec models.Record) string {
			return "/tags/" + rec.(*models.Tag).Tag
		},
	})
	Register[models.Comment](r, "mixins", "comment", Options{
		Searchable: []string{"content_type", "object_id", "user_id"},
	})
}

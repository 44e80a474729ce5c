package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// Context keys set by Domain.
const (
	DomainKey     = "domain"
	SubdomainKey  = "subdomain"
	MainDomainKey = "main_domain"
)

// SplitHost splits host into subdomain and custom domain relative to
// siteDomain. When the host minus its first label is the site domain,
// the first label is the subdomain (empty and main=true for the bare
// site domain); otherwise the whole host is a custom domain.
func SplitHost(host, siteDomain string) (subdomain, domain string, main bool) {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(strings.ReplaceAll(host, "www.", ""))
	siteDomain = strings.ToLower(siteDomain)

	var rest, first string
	pieces := strings.Split(host, ".")
	if len(pieces) < 2 {
		rest = strings.TrimSpace(host)
	} else {
		first = strings.TrimSpace(pieces[0])
		rest = strings.TrimSpace(strings.Join(pieces[1:], "."))
	}

	switch {
	case rest == siteDomain:
		return first, "", first == ""
	case host == siteDomain:
		return "", "", true
	}
	return "", host, false
}

// Domain records which site a request is for.
func Domain(siteDomain string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sub, domain, main := SplitHost(c.Request.Host, siteDomain)
		c.Set(SubdomainKey, sub)
		c.Set(DomainKey, domain)
		c.Set(MainDomainKey, main)
		c.Next()
	}
}

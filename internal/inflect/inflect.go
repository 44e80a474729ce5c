// Package inflect pluralizes and singularizes words with ordered rule
// tables. The first rule whose pattern matches wins.
package inflect

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Rule rewrites a word: when Match matches, Search is replaced by Replace.
type Rule struct {
	Match   *regexp.Regexp
	Search  *regexp.Regexp
	Replace string
}

func (r Rule) apply(word string) (string, bool) {
	if !r.Match.MatchString(word) {
		return word, false
	}
	return r.Search.ReplaceAllString(word, r.Replace), true
}

// rule builds a Rule whose match and search patterns are the same.
func rule(pattern, replace string) Rule {
	re := regexp.MustCompile(pattern)
	return Rule{Match: re, Search: re, Replace: replace}
}

type table struct {
	plural   []Rule
	singular []Rule
}

var (
	defaultPlural   = rule(`$`, "s")
	defaultSingular = rule(`(?i)s$`, "")
)

// Pluralize returns the plural of word in lang for count items. A count of
// exactly one returns word unchanged. Unknown languages only get the
// default "+s" rule.
func Pluralize(word, lang string, count int) string {
	if count == 1 || word == "" {
		return word
	}
	var rules []Rule
	if t, ok := tables[lang]; ok {
		rules = t.plural
	}
	return inflect(word, rules, defaultPlural)
}

// Singularize returns the singular of word in lang.
func Singularize(word, lang string) string {
	if word == "" {
		return word
	}
	var rules []Rule
	if t, ok := tables[lang]; ok {
		rules = t.singular
	}
	return inflect(word, rules, defaultSingular)
}

func inflect(word string, rules []Rule, fallback Rule) string {
	for _, r := range rules {
		if out, ok := r.apply(word); ok {
			return matchCase(word, out)
		}
	}
	out, _ := fallback.apply(word)
	return matchCase(word, out)
}

// matchCase carries an upper-case first letter (or an all-caps word) over
// to the replacement, since irregular replacements are written lower case.
func matchCase(orig, out string) string {
	if orig == "" || out == "" {
		return out
	}
	if strings.ToUpper(orig) == orig && strings.ToLower(orig) != orig {
		return strings.ToUpper(out)
	}
	first, _ := utf8.DecodeRuneInString(orig)
	if unicode.IsUpper(first) {
		r, size := utf8.DecodeRuneInString(out)
		return string(unicode.ToUpper(r)) + out[size:]
	}
	return out
}

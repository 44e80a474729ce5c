package inflect

import "strings"

var tables = map[string]table{
	"en": english(),
	"es": spanish(),
}

var englishUncountable = []string{
	"equipment", "information", "rice", "money", "species", "series",
	"fish", "sheep", "deer", "moose", "news", "jeans", "police", "aircraft",
}

var englishIrregular = [][2]string{
	{"person", "people"},
	{"man", "men"},
	{"woman", "women"},
	{"child", "children"},
	{"mouse", "mice"},
	{"goose", "geese"},
	{"foot", "feet"},
	{"tooth", "teeth"},
	{"ox", "oxen"},
	{"move", "moves"},
}

func english() table {
	var t table

	uncountable := `(?i)^(` + strings.Join(englishUncountable, "|") + `)$`
	t.plural = append(t.plural, rule(uncountable, "$1"))
	t.singular = append(t.singular, rule(uncountable, "$1"))

	for _, pair := range englishIrregular {
		one, many := pair[0], pair[1]
		t.plural = append(t.plural, rule(`(?i)\b`+one+`$`, many))
		t.singular = append(t.singular, rule(`(?i)\b`+many+`$`, one))
	}

	t.plural = append(t.plural,
		rule(`(?i)(quiz)$`, "${1}zes"),
		rule(`(?i)(matr|vert|ind)(?:ix|ex)$`, "${1}ices"),
		rule(`(?i)(alias|status|bus|gas|canvas|census)$`, "${1}es"),
		rule(`(?i)(octop|vir)us$`, "${1}i"),
		rule(`(?i)(cris|ax|test)is$`, "${1}es"),
		rule(`(?i)(analy|ba|diagno|parenthe|progno|synop|the)sis$`, "${1}ses"),
		rule(`(?i)(buffal|tomat|potat|her|ech)o$`, "${1}oes"),
		rule(`(?i)([ti])um$`, "${1}a"),
		rule(`(?i)(x|ch|ss|sh|zz)$`, "${1}es"),
		rule(`(?i)([^aeiouy]|qu)y$`, "${1}ies"),
		rule(`(?i)(hive)$`, "${1}s"),
		rule(`(?i)(?:([^f])fe|([lr])f)$`, "${1}${2}ves"),
		rule(`(?i)s$`, "s"),
	)

	t.singular = append(t.singular,
		rule(`(?i)(quiz)zes$`, "${1}"),
		rule(`(?i)(matr)ices$`, "${1}ix"),
		rule(`(?i)(vert|ind)ices$`, "${1}ex"),
		rule(`(?i)(alias|status|bus|gas|canvas|census)(es)?$`, "${1}"),
		rule(`(?i)(octop|vir)(us|i)$`, "${1}us"),
		rule(`(?i)(cris|ax|test)es$`, "${1}is"),
		rule(`(?i)(analy|ba|diagno|parenthe|progno|synop|the)(sis|ses)$`, "${1}sis"),
		rule(`(?i)(shoe)s$`, "${1}"),
		rule(`(?i)(o)es$`, "${1}"),
		rule(`(?i)([ti])a$`, "${1}um"),
		rule(`(?i)(x|ch|ss|sh|zz)es$`, "${1}"),
		rule(`(?i)([^aeiouy]|qu)ies$`, "${1}y"),
		rule(`(?i)(hive)s$`, "${1}"),
		rule(`(?i)([lr])ves$`, "${1}f"),
		rule(`(?i)([^f])ves$`, "${1}fe"),
		rule(`(?i)(ss)$`, "${1}"),
	)
	return t
}

func spanish() table {
	var t table
	uncountable := `(?i)^(lunes|martes|miércoles|jueves|viernes|crisis|análisis|tesis)$`
	t.plural = append(t.plural,
		rule(uncountable, "$1"),
		rule(`(?i)z$`, "ces"),
		rule(`(?i)(ión)$`, "iones"),
		rule(`(?i)([aeiouáéó])$`, "${1}s"),
		rule(`(?i)([íú])$`, "${1}es"),
		rule(`(?i)([^aeiou])$`, "${1}es"),
	)
	t.singular = append(t.singular,
		rule(uncountable, "$1"),
		rule(`(?i)ces$`, "z"),
		rule(`(?i)iones$`, "ión"),
		rule(`(?i)([íú])es$`, "${1}"),
		rule(`(?i)([^aeiou]|[dlnrs])es$`, "${1}"),
		rule(`(?i)([aeiouáéó])s$`, "${1}"),
	)
	return t
}

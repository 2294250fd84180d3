package ontology

import (
	"strings"
	"unicode"

	"storyagent/internal/types"
)

// Aliases resolves well-known spellings of an entity to its single identifier.
// Keys are alias keys as produced by AliasKey.
var Aliases = map[string]types.Identifier{
	"newyork":             "city:NewYorkCity",
	"newyorkcity":         "city:NewYorkCity",
	"nyc":                 "city:NewYorkCity",
	"losangeles":          "city:LosAngeles",
	"empirestatebuilding": "city:EmpireStateBuilding",
}

// AliasKey lowercases name and drops everything but ASCII letters and digits,
// so "New York", "new_york" and "new-york" share the key "newyork".
func AliasKey(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Canonicalize maps a free-text name to a namespaced identifier.
//
// Aliases win over everything else. A recognized explicit prefix followed by a
// non-empty, colon-free local part is kept as is; any other prefix is discarded
// and the last colon-separated segment is placed under def. The local part keeps
// its case, has spaces replaced with underscores and is stripped of every
// character other than letters, digits, '_' and '-'.
//
// The second result is false when nothing usable remains.
func Canonicalize(raw string, def types.Prefix) (types.Identifier, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	prefix, rest, hasPrefix := strings.Cut(raw, ":")
	explicit := hasPrefix && types.KnownPrefix(strings.TrimSpace(prefix))

	aliasSource := raw
	if i := strings.LastIndex(raw, ":"); i >= 0 {
		aliasSource = raw[i+1:]
	}
	if id, ok := Aliases[AliasKey(aliasSource)]; ok {
		return id, true
	}

	if explicit && !strings.Contains(rest, ":") {
		if local := cleanLocal(rest); local != "" {
			return types.NewIdentifier(types.Prefix(strings.TrimSpace(prefix)), local), true
		}
		return "", false
	}

	local := cleanLocal(aliasSource)
	if local == "" {
		return "", false
	}
	return types.NewIdentifier(def, local), true
}

// CanonicalizeValue canonicalizes a decoded JSON value. Only strings qualify.
func CanonicalizeValue(v any, def types.Prefix) (types.Identifier, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	return Canonicalize(s, def)
}

func cleanLocal(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == ' ':
			b.WriteByte('_')
		case r == '_' || r == '-':
			b.WriteRune(r)
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		}
	}
	return b.String()
}

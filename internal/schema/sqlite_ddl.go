package schema

import (
	"strings"
	"unicode"
)

// sqliteDDL is what a CREATE TABLE statement adds to the pragma catalog:
// constraint names and CHECK clauses. Keys of the maps are lower-cased.
type sqliteDDL struct {
	primaryKey  string
	uniques     map[string]string // column list -> constraint name
	foreignKeys map[string]string // referred table + column list -> constraint name
	checks      []CheckConstraint
}

func uniqueKey(cols []string) string {
	return strings.ToLower(strings.Join(cols, ","))
}

func foreignKeyKey(referred string, cols []string) string {
	return strings.ToLower(referred) + "|" + uniqueKey(cols)
}

type tokenKind int

const (
	tokWord   tokenKind = iota // bare identifier or keyword
	tokIdent                   // quoted identifier, unquoted in text
	tokString                  // string literal
	tokPunct
)

type token struct {
	kind       tokenKind
	text       string
	start, end int
}

func (t token) is(keyword string) bool {
	return t.kind == tokWord && strings.EqualFold(t.text, keyword)
}

func (t token) punct(c string) bool {
	return t.kind == tokPunct && t.text == c
}

// lexSQL splits SQL into tokens, dropping whitespace and comments.
func lexSQL(src string) []token {
	var out []token
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case strings.HasPrefix(src[i:], "--"):
			n := strings.IndexByte(src[i:], '\n')
			if n < 0 {
				return out
			}
			i += n + 1
		case strings.HasPrefix(src[i:], "/*"):
			n := strings.Index(src[i+2:], "*/")
			if n < 0 {
				return out
			}
			i += n + 4
		case c == '"' || c == '`' || c == '[' || c == '\'':
			closer := c
			if c == '[' {
				closer = ']'
			}
			text, end := quoted(src, i, closer)
			kind := tokIdent
			if c == '\'' {
				kind = tokString
			}
			out = append(out, token{kind: kind, text: text, start: i, end: end})
			i = end
		case isWordByte(c):
			j := i
			for j < len(src) && isWordByte(src[j]) {
				j++
			}
			out = append(out, token{kind: tokWord, text: src[i:j], start: i, end: j})
			i = j
		default:
			out = append(out, token{kind: tokPunct, text: src[i : i+1], start: i, end: i + 1})
			i++
		}
	}
	return out
}

// quoted reads a quoted run starting at src[i]. A doubled closer is an
// escaped closer, except for bracket quoting.
func quoted(src string, i int, closer byte) (string, int) {
	var b strings.Builder
	j := i + 1
	for j < len(src) {
		if src[j] == closer {
			if closer != ']' && j+1 < len(src) && src[j+1] == closer {
				b.WriteByte(closer)
				j += 2
				continue
			}
			return b.String(), j + 1
		}
		b.WriteByte(src[j])
		j++
	}
	return b.String(), j
}

func isWordByte(c byte) bool {
	return c == '_' || c == '$' || c >= 0x80 || unicode.IsLetter(rune(c)) || unicode.IsDigit(rune(c))
}

// closing returns the index of the parenthesis closing the one at toks[open].
func closing(toks []token, open int) int {
	depth := 0
	for i := open; i < len(toks); i++ {
		switch {
		case toks[i].punct("("):
			depth++
		case toks[i].punct(")"):
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return len(toks) - 1
}

// parseSQLiteDDL reads constraint names and CHECK clauses out of a
// CREATE TABLE statement. Anything it does not recognise is skipped.
func parseSQLiteDDL(ddl string) sqliteDDL {
	out := sqliteDDL{uniques: map[string]string{}, foreignKeys: map[string]string{}}
	toks := lexSQL(ddl)

	open := -1
	for i, t := range toks {
		if t.punct("(") {
			open = i
			break
		}
	}
	if open < 0 {
		return out
	}
	body := toks[open+1 : closing(toks, open)]

	for _, def := range splitDefinitions(body) {
		if len(def) == 0 {
			continue
		}
		if isTableConstraint(def[0]) {
			out.tableConstraint(ddl, def)
		} else {
			out.columnConstraints(ddl, def)
		}
	}
	return out
}

func splitDefinitions(body []token) [][]token {
	var (
		out   [][]token
		start int
		depth int
	)
	for i, t := range body {
		switch {
		case t.punct("("):
			depth++
		case t.punct(")"):
			depth--
		case t.punct(",") && depth == 0:
			out = append(out, body[start:i])
			start = i + 1
		}
	}
	return append(out, body[start:])
}

func isTableConstraint(t token) bool {
	for _, kw := range []string{"CONSTRAINT", "PRIMARY", "UNIQUE", "CHECK", "FOREIGN"} {
		if t.is(kw) {
			return true
		}
	}
	return false
}

func (d *sqliteDDL) tableConstraint(src string, def []token) {
	name := ""
	if def[0].is("CONSTRAINT") && len(def) > 2 {
		name = def[1].text
		def = def[2:]
	}

	switch {
	case def[0].is("PRIMARY"):
		d.primaryKey = name
	case def[0].is("UNIQUE"):
		if cols, _ := identList(def, 1); name != "" {
			d.uniques[uniqueKey(cols)] = name
		}
	case def[0].is("CHECK"):
		if text, _, ok := parenText(src, def, 1); ok {
			d.checks = append(d.checks, CheckConstraint{Name: name, SQLText: text})
		}
	case def[0].is("FOREIGN"):
		cols, next := identList(def, 2)
		if next < len(def)-1 && def[next].is("REFERENCES") && name != "" {
			d.foreignKeys[foreignKeyKey(def[next+1].text, cols)] = name
		}
	}
}

func (d *sqliteDDL) columnConstraints(src string, def []token) {
	column := def[0].text
	name := ""
	for i := 1; i < len(def); i++ {
		t := def[i]
		switch {
		case t.is("CONSTRAINT") && i+1 < len(def):
			name = def[i+1].text
			i++
			continue
		case t.is("PRIMARY"):
			d.primaryKey = name
		case t.is("UNIQUE"):
			if name != "" {
				d.uniques[uniqueKey([]string{column})] = name
			}
		case t.is("CHECK"):
			text, end, ok := parenText(src, def, i+1)
			if ok {
				d.checks = append(d.checks, CheckConstraint{Name: name, SQLText: text})
				i = end
			}
		case t.is("REFERENCES") && i+1 < len(def):
			if name != "" {
				d.foreignKeys[foreignKeyKey(def[i+1].text, []string{column})] = name
			}
			i++
		case t.punct("("):
			i = closing(def, i)
			continue
		case t.is("NOT"), t.is("DEFAULT"), t.is("COLLATE"), t.is("GENERATED"):
		default:
			continue
		}
		name = ""
	}
}

// identList reads the parenthesised identifier list at or after def[from]
// and returns the index following it.
func identList(def []token, from int) ([]string, int) {
	for from < len(def) && !def[from].punct("(") {
		from++
	}
	if from >= len(def) {
		return nil, from
	}
	end := closing(def, from)
	var cols []string
	for i := from + 1; i < end; i++ {
		if def[i].kind == tokWord || def[i].kind == tokIdent {
			cols = append(cols, def[i].text)
			// Skip COLLATE and ASC/DESC up to the next comma.
			for i+1 < end && !def[i+1].punct(",") {
				i++
			}
		}
	}
	return cols, end + 1
}

// parenText returns the source text inside the parentheses opening at
// def[at], and the index of the closing parenthesis.
func parenText(src string, def []token, at int) (string, int, bool) {
	if at >= len(def) || !def[at].punct("(") {
		return "", at, false
	}
	end := closing(def, at)
	if !def[end].punct(")") {
		return "", at, false
	}
	return strings.TrimSpace(src[def[at].end:def[end].start]), end, true
}

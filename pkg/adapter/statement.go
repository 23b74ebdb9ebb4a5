package adapter

import (
	"strings"
	"unicode"
)

// rowKeywords are leading keywords of statements that return a row set.
var rowKeywords = map[string]bool{
	"SELECT":    true,
	"WITH":      true,
	"VALUES":    true,
	"TABLE":     true,
	"SHOW":      true,
	"EXPLAIN":   true,
	"DESCRIBE":  true,
	"DESC":      true,
	"PRAGMA":    true,
	"FROM":      true, // duckdb FROM-first syntax
	"SUMMARIZE": true,
}

// ReturnsRows reports whether a statement produces a row set and must be run
// as a query. INSERT/UPDATE/DELETE with a RETURNING clause count as queries.
func ReturnsRows(sqlStr string) bool {
	kw := firstKeyword(sqlStr)
	if rowKeywords[kw] {
		return true
	}
	switch kw {
	case "INSERT", "UPDATE", "DELETE", "MERGE":
		return containsKeyword(stripComments(sqlStr), "RETURNING")
	}
	return false
}

// firstKeyword returns the upper-cased first word after comments and
// opening parentheses.
func firstKeyword(sqlStr string) string {
	s := strings.TrimLeft(stripComments(sqlStr), " \t\r\n(")
	end := strings.IndexFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '_'
	})
	if end < 0 {
		end = len(s)
	}
	return strings.ToUpper(s[:end])
}

// stripComments removes -- line comments and /* */ block comments outside
// of quoted strings.
func stripComments(sqlStr string) string {
	var b strings.Builder
	b.Grow(len(sqlStr))

	var quote byte
	for i := 0; i < len(sqlStr); i++ {
		c := sqlStr[i]
		switch {
		case quote != 0:
			b.WriteByte(c)
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
			b.WriteByte(c)
		case c == '-' && i+1 < len(sqlStr) && sqlStr[i+1] == '-':
			for i < len(sqlStr) && sqlStr[i] != '\n' {
				i++
			}
			b.WriteByte(' ')
		case c == '/' && i+1 < len(sqlStr) && sqlStr[i+1] == '*':
			i += 2
			for i+1 < len(sqlStr) && !(sqlStr[i] == '*' && sqlStr[i+1] == '/') {
				i++
			}
			i++
			b.WriteByte(' ')
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// containsKeyword reports whether kw appears as a whole word in s,
// ignoring case and quoted text.
func containsKeyword(s, kw string) bool {
	var word strings.Builder
	var quote rune
	flush := func() bool {
		match := strings.EqualFold(word.String(), kw)
		word.Reset()
		return match
	}
	for _, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"' || r == '`':
			if flush() {
				return true
			}
			quote = r
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			word.WriteRune(r)
		default:
			if flush() {
				return true
			}
		}
	}
	return flush()
}

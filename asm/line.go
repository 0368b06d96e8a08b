package asm

import (
	"strings"

	"github.com/ezrec/ace3710/expr"
)

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\v' || c == '\f'
}

// skipSpace returns the offset of the first non-space at or after pos.
func skipSpace(text string, pos int) int {
	for pos < len(text) && isSpace(text[pos]) {
		pos++
	}
	return pos
}

// atEnd reports whether only spaces or a comment remain from pos.
func atEnd(text string, pos int) bool {
	pos = skipSpace(text, pos)
	return pos >= len(text) || text[pos] == ';'
}

// scanName returns the offset just past the name starting at pos.
func scanName(text string, pos int) int {
	for pos < len(text) && expr.IsNameChar(text[pos]) {
		pos++
	}
	return pos
}

// validName reports whether text is a complete symbol name.
func validName(text string) bool {
	return len(text) > 0 && expr.IsNameStart(text[0]) && scanName(text, 0) == len(text)
}

// isLocal reports whether a name is local to its region.
func isLocal(name string) bool {
	return strings.HasPrefix(name, "@")
}

// field is one argument of a comma separated list.
type field struct {
	Text string
	Col  int // Offset of Text in the line.
}

// splitArgs splits text[pos:] at the commas that are outside of string and
// character literals, stopping at a comment. Each field is trimmed. An
// empty list returns nil.
func splitArgs(text string, pos int) (args []field) {
	if atEnd(text, pos) {
		return
	}

	start := pos
	flush := func(end int) {
		s := skipSpace(text, start)
		for end > s && isSpace(text[end-1]) {
			end--
		}
		args = append(args, field{Text: text[s:end], Col: s})
	}

	for pos < len(text) {
		switch text[pos] {
		case ';':
			flush(pos)
			return
		case ',':
			flush(pos)
			pos++
			start = pos
			continue
		case '\'':
			if _, next, err := expr.Character(text, pos); err == nil {
				pos = next
				continue
			}
		case '"':
			if _, next, ok := readString(text, pos); ok {
				pos = next
				continue
			}
		}
		pos++
	}
	flush(pos)

	return
}

// readString decodes the double quoted string at text[pos], returning the
// offset just past the closing quote.
func readString(text string, pos int) (value string, next int, ok bool) {
	if pos >= len(text) || text[pos] != '"' {
		return
	}

	var sb strings.Builder
	for next = pos + 1; next < len(text); next++ {
		c := text[next]
		switch c {
		case '"':
			value = sb.String()
			next++
			ok = true
			return
		case '\\':
			next++
			if next >= len(text) {
				return
			}
			c, ok = expr.Escape(text[next])
			if !ok {
				return
			}
			ok = false
		}
		sb.WriteByte(c)
	}

	return
}

// statement is the first word of a directive, instruction or macro call.
type statement struct {
	Word string
	Col  int // Offset of Word in the line.
	Args int // Offset just past Word.
}

// parseStatement finds the statement starting at or after pos. ok is false
// for a blank or comment-only remainder.
func parseStatement(text string, pos int) (stmt statement, ok bool) {
	pos = skipSpace(text, pos)
	if atEnd(text, pos) {
		return
	}

	start := pos
	if text[pos] == '.' {
		pos++
	}
	end := scanName(text, pos)
	if end == pos {
		for end < len(text) && !isSpace(text[end]) && text[end] != ';' {
			end++
		}
	}

	stmt = statement{Word: text[start:end], Col: start, Args: end}
	ok = true
	return
}

// isDeclaration reports whether a line begins with a column 0 label or
// constant declaration.
func isDeclaration(text string) bool {
	return len(text) > 0 && !isSpace(text[0]) && text[0] != ';' && text[0] != '.'
}

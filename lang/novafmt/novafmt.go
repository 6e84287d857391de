// Package novafmt implements Nova's naive source reformatter: it collapses
// runs of whitespace within a line and re-indents by brace nesting depth. It
// does not parse the source; a line ending in "{" opens a level, a line
// starting with "}" closes one.
package novafmt

import (
	"os"
	"strings"
)

const indentUnit = "    "

// Format returns src with internal whitespace runs collapsed to a single
// space and each line re-indented to match its brace nesting depth.
func Format(src string) string {
	var collapsed strings.Builder
	for _, line := range strings.Split(src, "\n") {
		trimmed := strings.TrimSpace(line)
		prevSpace := false
		for _, c := range trimmed {
			isSpace := c == ' ' || c == '\t'
			if isSpace && prevSpace {
				continue
			}
			collapsed.WriteRune(c)
			prevSpace = isSpace
		}
		collapsed.WriteByte('\n')
	}

	var out strings.Builder
	indent := 0
	emptyLine := false
	for _, line := range strings.Split(strings.TrimRight(collapsed.String(), "\n"), "\n") {
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			if !emptyLine {
				out.WriteByte('\n')
				emptyLine = true
			}
			continue
		}
		emptyLine = false

		switch {
		case strings.HasSuffix(trimmed, "{"):
			if strings.HasPrefix(trimmed, "}") && indent > 0 {
				indent--
			}
			out.WriteString(strings.Repeat(indentUnit, indent))
			out.WriteString(trimmed)
			out.WriteByte('\n')
			indent++
		case strings.HasPrefix(trimmed, "}"):
			if indent > 0 {
				indent--
			}
			out.WriteString(strings.Repeat(indentUnit, indent))
			out.WriteString(trimmed)
			out.WriteByte('\n')
		default:
			out.WriteString(strings.Repeat(indentUnit, indent))
			out.WriteString(trimmed)
			out.WriteByte('\n')
		}
	}
	return out.String()
}

// FormatFile reformats the file at path in place.
func FormatFile(path string) error {
	contents, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	formatted := Format(string(contents))
	return os.WriteFile(path, []byte(formatted), 0o644)
}

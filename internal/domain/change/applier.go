package change

import "strings"

// Apply runs a change against file content and returns the new content.
// On any error the original content is returned unchanged.
//
// Only insert is implemented: the content is split into lines, the change
// text spliced into the target line at the given column, and the lines
// rejoined. The column is clamped to the line length.
func Apply(content string, ch Change) (string, error) {
	switch ch.Kind {
	case KindInsert:
		return applyInsert(content, ch)
	case KindDelete, KindReplace:
		return content, ErrUnsupportedKind
	default:
		return content, ErrInvalidInput
	}
}

func applyInsert(content string, ch Change) (string, error) {
	if ch.Line < 0 || ch.Column < 0 {
		return content, ErrInvalidInput
	}

	lines := strings.Split(content, "\n")
	if ch.Line >= len(lines) {
		return content, ErrLineOutOfRange
	}

	line := []rune(lines[ch.Line])
	col := ch.Column
	if col > len(line) {
		col = len(line)
	}

	var b strings.Builder
	b.WriteString(string(line[:col]))
	b.WriteString(ch.Text)
	b.WriteString(string(line[col:]))
	lines[ch.Line] = b.String()

	return strings.Join(lines, "\n"), nil
}

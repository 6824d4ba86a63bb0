package execute

import "strings"

// Placeholders returns the distinct @name placeholders of text in order
// of first appearance, without the '@'.
//
// Quoted strings ('...'), quoted identifiers ("..." and [...]), line
// comments and block comments are skipped. "@@" introduces a server
// variable such as @@ROWCOUNT and is not a placeholder.
func Placeholders(text string) []string {
	var names []string
	seen := make(map[string]bool)

	for i := 0; i < len(text); i++ {
		switch c := text[i]; c {
		case '\'', '"':
			i = skipQuoted(text, i, c)
		case '[':
			i = skipQuoted(text, i, ']')
		case '-':
			if i+1 < len(text) && text[i+1] == '-' {
				for i < len(text) && text[i] != '\n' {
					i++
				}
			}
		case '/':
			if i+1 < len(text) && text[i+1] == '*' {
				end := strings.Index(text[i+2:], "*/")
				if end < 0 {
					return names
				}
				i += 2 + end + 1
			}
		case '@':
			if i+1 < len(text) && text[i+1] == '@' {
				i++
				for i+1 < len(text) && isIdentPart(text[i+1]) {
					i++
				}
				continue
			}
			if i+1 >= len(text) || !isIdentStart(text[i+1]) {
				continue
			}
			j := i + 1
			for j < len(text) && isIdentPart(text[j]) {
				j++
			}
			name := text[i+1 : j]
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
			i = j - 1
		}
	}
	return names
}

// skipQuoted returns the index of the closing quote of the run starting
// at text[start]. A doubled closing quote is an escape.
func skipQuoted(text string, start int, closing byte) int {
	for i := start + 1; i < len(text); i++ {
		if text[i] != closing {
			continue
		}
		if i+1 < len(text) && text[i+1] == closing {
			i++
			continue
		}
		return i
	}
	return len(text)
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

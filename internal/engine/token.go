package engine

import (
	"strings"
	"unicode"
)

// Token is a normalized lexeme with its position in the source (rows and columns are 1-based)
type Token struct {
	Text     string
	Row      int
	Col      int
	EndRow   int
	EndCol   int
	Original string
}

const (
	identToken  = "$id"
	numberToken = "$num"
	stringToken = "$str"
)

var keywords = map[string]bool{
	"abstract": true, "async": true, "await": true, "break": true, "case": true,
	"catch": true, "class": true, "const": true, "continue": true, "def": true,
	"default": true, "defer": true, "do": true, "else": true, "enum": true,
	"export": true, "extends": true, "false": true, "final": true, "finally": true,
	"for": true, "func": true, "function": true, "go": true, "if": true,
	"implements": true, "import": true, "in": true, "instanceof": true, "interface": true,
	"let": true, "new": true, "null": true, "package": true, "private": true,
	"protected": true, "public": true, "return": true, "static": true, "struct": true,
	"super": true, "switch": true, "synchronized": true, "this": true, "throw": true,
	"throws": true, "true": true, "try": true, "var": true, "void": true,
	"while": true, "yield": true, "int": true, "long": true, "double": true,
	"float": true, "boolean": true, "char": true, "byte": true, "short": true,
}

// Tokenize splits source text into normalized tokens. Identifiers, numbers and
// string literals collapse into placeholder tokens so renamed copies still match;
// keywords, annotations and punctuation are kept. Comments and whitespace are dropped.
func Tokenize(content string) []Token {
	src := []rune(content)
	tokens := make([]Token, 0, len(src)/4)

	row, col := 1, 1
	i := 0
	advance := func(n int) {
		for k := 0; k < n && i < len(src); k++ {
			if src[i] == '\n' {
				row++
				col = 1
			} else {
				col++
			}
			i++
		}
	}
	emit := func(text string, startRow, startCol, startIdx int) {
		tokens = append(tokens, Token{
			Text:     text,
			Row:      startRow,
			Col:      startCol,
			EndRow:   row,
			EndCol:   col,
			Original: string(src[startIdx:i]),
		})
	}

	for i < len(src) {
		r := src[i]
		startRow, startCol, startIdx := row, col, i

		switch {
		case unicode.IsSpace(r):
			advance(1)

		case r == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				advance(1)
			}

		case r == '/' && i+1 < len(src) && src[i+1] == '*':
			advance(2)
			for i < len(src) && !(src[i] == '*' && i+1 < len(src) && src[i+1] == '/') {
				advance(1)
			}
			advance(2)

		case r == '"' || r == '\'' || r == '`':
			quote := r
			advance(1)
			for i < len(src) && src[i] != quote {
				if src[i] == '\\' {
					advance(1)
				}
				advance(1)
			}
			advance(1)
			emit(stringToken, startRow, startCol, startIdx)

		case unicode.IsDigit(r):
			for i < len(src) && (unicode.IsDigit(src[i]) || unicode.IsLetter(src[i]) || src[i] == '.' || src[i] == '_') {
				advance(1)
			}
			emit(numberToken, startRow, startCol, startIdx)

		case r == '@' || r == '_' || r == '$' || unicode.IsLetter(r):
			advance(1)
			for i < len(src) && (src[i] == '_' || src[i] == '$' || unicode.IsLetter(src[i]) || unicode.IsDigit(src[i])) {
				advance(1)
			}
			word := string(src[startIdx:i])
			switch {
			case strings.HasPrefix(word, "@"), keywords[word]:
				emit(word, startRow, startCol, startIdx)
			default:
				emit(identToken, startRow, startCol, startIdx)
			}

		default:
			advance(1)
			emit(string(r), startRow, startCol, startIdx)
		}
	}

	return tokens
}

// texts returns the normalized text of every token
func texts(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Text
	}
	return out
}

package query

import (
	"strings"
	"unicode"
)

// lexer splits a query string into tokens. Identifiers are permissive on
// purpose: node references carry dots, slashes and colons (qualified names,
// file paths, full node IDs), so those characters continue an identifier.
type lexer struct {
	input string
	pos   int
}

func newLexer(input string) *lexer {
	return &lexer{input: input}
}

// lex tokenizes the whole input. The only lex-time failure is an unknown
// character or an unterminated string literal.
func (l *lexer) lex() ([]token, error) {
	var tokens []token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.kind == tokenEOF {
			return tokens, nil
		}
	}
}

func (l *lexer) next() (token, error) {
	l.skipSpace()
	start := l.pos
	if l.pos >= len(l.input) {
		return token{kind: tokenEOF, position: start}, nil
	}

	ch := l.input[l.pos]
	switch {
	case ch == ',':
		l.pos++
		return token{kind: tokenComma, text: ",", position: start}, nil
	case ch == '(':
		l.pos++
		return token{kind: tokenLParen, text: "(", position: start}, nil
	case ch == ')':
		l.pos++
		return token{kind: tokenRParen, text: ")", position: start}, nil
	case ch == '*':
		l.pos++
		return token{kind: tokenStar, text: "*", position: start}, nil
	case ch == '+':
		l.pos++
		return token{kind: tokenPlus, text: "+", position: start}, nil
	case ch == '-':
		l.pos++
		return token{kind: tokenMinus, text: "-", position: start}, nil
	case ch == '~':
		l.pos++
		return token{kind: tokenOperator, text: "~", position: start}, nil
	case ch == '=':
		l.pos++
		return token{kind: tokenOperator, text: "=", position: start}, nil
	case ch == '!' || ch == '<' || ch == '>':
		return l.comparison(start), nil
	case ch == '\'' || ch == '"':
		return l.stringLiteral(start)
	case ch >= '0' && ch <= '9':
		return l.number(start), nil
	case isIdentStart(rune(ch)):
		return l.ident(start), nil
	}
	return token{}, &ParseError{
		Message:  "unexpected character",
		Near:     string(ch),
		Position: start,
	}
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.input) && unicode.IsSpace(rune(l.input[l.pos])) {
		l.pos++
	}
}

func (l *lexer) comparison(start int) token {
	ch := l.input[l.pos]
	l.pos++
	if l.pos < len(l.input) {
		two := string(ch) + string(l.input[l.pos])
		switch two {
		case "!=", "<=", ">=", "<>":
			l.pos++
			return token{kind: tokenOperator, text: two, position: start}
		}
	}
	return token{kind: tokenOperator, text: string(ch), position: start}
}

func (l *lexer) stringLiteral(start int) (token, error) {
	quote := l.input[l.pos]
	l.pos++
	var sb strings.Builder
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == '\\' && l.pos+1 < len(l.input) {
			sb.WriteByte(l.input[l.pos+1])
			l.pos += 2
			continue
		}
		if ch == quote {
			l.pos++
			return token{kind: tokenString, text: sb.String(), position: start}, nil
		}
		sb.WriteByte(ch)
		l.pos++
	}
	return token{}, &ParseError{
		Message:  "unterminated string literal",
		Near:     l.input[start:],
		Position: start,
	}
}

func (l *lexer) number(start int) token {
	for l.pos < len(l.input) && (isDigit(l.input[l.pos]) || l.input[l.pos] == '.') {
		l.pos++
	}
	return token{kind: tokenNumber, text: l.input[start:l.pos], position: start}
}

func (l *lexer) ident(start int) token {
	for l.pos < len(l.input) && isIdentPart(rune(l.input[l.pos])) {
		l.pos++
	}
	text := l.input[start:l.pos]
	upper := strings.ToUpper(text)
	if keywords[upper] {
		return token{kind: tokenKeyword, text: text, keyword: upper, position: start}
	}
	return token{kind: tokenIdent, text: text, position: start}
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_' || r == '/' || r == '.'
}

func isIdentPart(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) ||
		r == '_' || r == '.' || r == '/' || r == ':' || r == '-'
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

package query

import "fmt"

// tokenKind classifies lexer output. Keywords are recognized
// case-insensitively during classification; alias keywords (fn, deps, sort)
// are classified here too, so the parser only ever sees canonical kinds.
type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenIdent
	tokenNumber
	tokenString
	tokenKeyword
	tokenOperator // = != <> < > <= >= ~
	tokenComma
	tokenLParen
	tokenRParen
	tokenStar
	tokenPlus
	tokenMinus
)

// token is one lexed unit with its byte position in the query string.
type token struct {
	kind     tokenKind
	text     string // original spelling
	keyword  string // upper-cased canonical keyword, set for tokenKeyword
	position int
}

func (t token) String() string {
	if t.kind == tokenEOF {
		return "end of query"
	}
	return fmt.Sprintf("%q", t.text)
}

// keywords is the closed set of reserved words, verbose and terse alike.
var keywords = map[string]bool{
	"SELECT": true, "FROM": true, "WHERE": true, "AND": true, "OR": true,
	"ORDER": true, "BY": true, "ASC": true, "DESC": true, "LIMIT": true,
	"LIKE": true, "SHOW": true, "OF": true, "DEPTH": true,
	"DEPS": true, "RDEPS": true, "CALLERS": true, "CALLEES": true, "IMPACT": true,
	"FIND": true, "PATH": true, "TO": true, "VIA": true,
	"ANALYZE": true, "CYCLES": true, "COMPLEXITY": true, "COUPLING": true, "IN": true,
	"DESCRIBE": true, "SORT": true,
	"TRUE": true, "FALSE": true,
}

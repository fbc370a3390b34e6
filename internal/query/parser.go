package query

import (
	"regexp"
	"strconv"
	"strings"

	"codegraph/internal/graph"
)

// Parse parses one query string, verbose or terse, into the normalized AST.
// Alias expansion (fn -> function, c -> complexity, ~ -> LIKE) happens here;
// the returned statement carries no trace of the surface syntax.
func Parse(input string) (Statement, error) {
	tokens, err := newLexer(input).lex()
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	stmt, err := p.statement()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokenEOF {
		return nil, errAt(tok, "unexpected trailing input")
	}
	return stmt, nil
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) advance() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokenEOF {
		p.pos++
	}
	return tok
}

func (p *parser) matchKeyword(kw string) bool {
	tok := p.peek()
	if tok.kind == tokenKeyword && tok.keyword == kw {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expectKeyword(kw string) error {
	tok := p.peek()
	if tok.kind != tokenKeyword || tok.keyword != kw {
		return errAt(tok, "expected %s", kw)
	}
	p.advance()
	return nil
}

func (p *parser) statement() (Statement, error) {
	tok := p.peek()
	if tok.kind != tokenKeyword {
		return nil, errAt(tok, "expected a query keyword")
	}
	switch tok.keyword {
	case "SELECT":
		return p.selectStmt()
	case "SHOW":
		return p.showStmt()
	case "DEPS", "RDEPS", "CALLERS", "CALLEES", "IMPACT":
		return p.terseShowStmt()
	case "FIND":
		return p.findPathStmt()
	case "ANALYZE":
		return p.analyzeStmt()
	case "DESCRIBE":
		return p.describeStmt()
	}
	return nil, errAt(tok, "unknown query form")
}

// selectStmt parses
//
//	SELECT <fields> FROM <node-type> [WHERE <cond>]
//	       [ORDER BY <field> [ASC|DESC] | sort [+|-]<field>] [LIMIT <n> | <n>]
func (p *parser) selectStmt() (Statement, error) {
	p.advance() // SELECT

	fields, err := p.fieldList()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	nodeType, err := p.nodeType()
	if err != nil {
		return nil, err
	}

	stmt := &SelectStmt{Fields: fields, NodeType: nodeType, Limit: -1}

	if p.matchKeyword("WHERE") {
		cond, err := p.orExpr()
		if err != nil {
			return nil, err
		}
		stmt.Where = cond
	}

	if p.matchKeyword("ORDER") {
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		field, err := p.fieldName()
		if err != nil {
			return nil, err
		}
		ord := &Ordering{Field: field}
		if p.matchKeyword("DESC") {
			ord.Descending = true
		} else {
			p.matchKeyword("ASC")
		}
		stmt.OrderBy = ord
	} else if p.matchKeyword("SORT") {
		ord := &Ordering{}
		switch p.peek().kind {
		case tokenMinus:
			p.advance()
			ord.Descending = true
		case tokenPlus:
			p.advance()
		}
		field, err := p.fieldName()
		if err != nil {
			return nil, err
		}
		ord.Field = field
		stmt.OrderBy = ord
	}

	if p.matchKeyword("LIMIT") {
		n, err := p.intLiteral()
		if err != nil {
			return nil, err
		}
		stmt.Limit = n
	} else if p.peek().kind == tokenNumber {
		n, err := p.intLiteral()
		if err != nil {
			return nil, err
		}
		stmt.Limit = n
	}

	return stmt, nil
}

func (p *parser) fieldList() ([]string, error) {
	if p.peek().kind == tokenStar {
		p.advance()
		return []string{"*"}, nil
	}
	var fields []string
	for {
		field, err := p.fieldName()
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
		if p.peek().kind != tokenComma {
			return fields, nil
		}
		p.advance()
	}
}

func (p *parser) fieldName() (string, error) {
	tok := p.peek()
	if tok.kind != tokenIdent {
		return "", errAt(tok, "expected a field name")
	}
	name := strings.ToLower(tok.text)
	if canonical, ok := fieldAliases[name]; ok {
		name = canonical
	}
	if !validFields[name] {
		return "", errAt(tok, "unknown field %q", tok.text)
	}
	p.advance()
	return name, nil
}

func (p *parser) nodeType() (graph.NodeType, error) {
	tok := p.peek()
	if tok.kind != tokenIdent && tok.kind != tokenKeyword {
		return "", errAt(tok, "expected a node type")
	}
	t, ok := nodeTypeAliases[strings.ToLower(tok.text)]
	if !ok {
		return "", errAt(tok, "unknown node type %q", tok.text)
	}
	p.advance()
	return t, nil
}

// orExpr and andExpr give AND higher precedence than OR.
func (p *parser) orExpr() (*Condition, error) {
	left, err := p.andExpr()
	if err != nil {
		return nil, err
	}
	for p.matchKeyword("OR") {
		right, err := p.andExpr()
		if err != nil {
			return nil, err
		}
		left = &Condition{Logic: "or", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) andExpr() (*Condition, error) {
	left, err := p.comparison()
	if err != nil {
		return nil, err
	}
	for p.matchKeyword("AND") {
		right, err := p.comparison()
		if err != nil {
			return nil, err
		}
		left = &Condition{Logic: "and", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) comparison() (*Condition, error) {
	if p.peek().kind == tokenLParen {
		p.advance()
		cond, err := p.orExpr()
		if err != nil {
			return nil, err
		}
		if tok := p.peek(); tok.kind != tokenRParen {
			return nil, errAt(tok, "expected closing parenthesis")
		}
		p.advance()
		return cond, nil
	}

	field, err := p.fieldName()
	if err != nil {
		return nil, err
	}
	op, err := p.compareOp()
	if err != nil {
		return nil, err
	}
	value, err := p.literal()
	if err != nil {
		return nil, err
	}
	return &Condition{Field: field, Op: op, Value: value}, nil
}

func (p *parser) compareOp() (CompareOp, error) {
	tok := p.peek()
	if tok.kind == tokenKeyword && tok.keyword == "LIKE" {
		p.advance()
		return OpLike, nil
	}
	if tok.kind != tokenOperator {
		return "", errAt(tok, "expected a comparison operator")
	}
	p.advance()
	switch tok.text {
	case "=":
		return OpEq, nil
	case "!=", "<>":
		return OpNeq, nil
	case "<":
		return OpLt, nil
	case "<=":
		return OpLte, nil
	case ">":
		return OpGt, nil
	case ">=":
		return OpGte, nil
	case "~":
		return OpLike, nil
	}
	return "", errAt(tok, "unknown operator %q", tok.text)
}

func (p *parser) literal() (any, error) {
	tok := p.peek()
	switch tok.kind {
	case tokenNumber:
		p.advance()
		if strings.Contains(tok.text, ".") {
			f, err := strconv.ParseFloat(tok.text, 64)
			if err != nil {
				return nil, errAt(tok, "malformed number")
			}
			return f, nil
		}
		n, err := strconv.ParseInt(tok.text, 10, 64)
		if err != nil {
			return nil, errAt(tok, "malformed number")
		}
		return n, nil
	case tokenString:
		p.advance()
		return tok.text, nil
	case tokenIdent:
		p.advance()
		return tok.text, nil
	case tokenKeyword:
		switch tok.keyword {
		case "TRUE":
			p.advance()
			return true, nil
		case "FALSE":
			p.advance()
			return false, nil
		}
	}
	return nil, errAt(tok, "expected a literal value")
}

func (p *parser) intLiteral() (int, error) {
	tok := p.peek()
	if tok.kind != tokenNumber {
		return 0, errAt(tok, "expected a number")
	}
	n, err := strconv.Atoi(tok.text)
	if err != nil {
		return 0, errAt(tok, "expected an integer")
	}
	p.advance()
	return n, nil
}

// showStmt parses SHOW {DEPS|RDEPS|CALLERS|CALLEES|IMPACT} OF <ref> [DEPTH <n>].
func (p *parser) showStmt() (Statement, error) {
	p.advance() // SHOW

	tok := p.peek()
	kind, ok := showKinds[tok.keyword]
	if tok.kind != tokenKeyword || !ok {
		return nil, errAt(tok, "expected DEPS, RDEPS, CALLERS, CALLEES or IMPACT")
	}
	p.advance()

	if err := p.expectKeyword("OF"); err != nil {
		return nil, err
	}
	ref, err := p.nodeRef()
	if err != nil {
		return nil, err
	}

	stmt := &ShowStmt{Kind: kind, Ref: ref}
	if p.matchKeyword("DEPTH") {
		n, err := p.intLiteral()
		if err != nil {
			return nil, err
		}
		stmt.Depth = n
	}
	return stmt, nil
}

var showKinds = map[string]ShowKind{
	"DEPS":    ShowDeps,
	"RDEPS":   ShowRDeps,
	"CALLERS": ShowCallers,
	"CALLEES": ShowCallees,
	"IMPACT":  ShowImpact,
}

var depthShorthand = regexp.MustCompile(`^d([0-9]+)$`)

// terseShowStmt parses {deps|rdeps|callers|callees|impact} <ref> [d<n>].
func (p *parser) terseShowStmt() (Statement, error) {
	tok := p.advance()
	stmt := &ShowStmt{Kind: showKinds[tok.keyword]}

	ref, err := p.nodeRef()
	if err != nil {
		return nil, err
	}
	stmt.Ref = ref

	next := p.peek()
	if next.kind == tokenIdent {
		if m := depthShorthand.FindStringSubmatch(next.text); m != nil {
			n, _ := strconv.Atoi(m[1])
			stmt.Depth = n
			p.advance()
		}
	} else if p.matchKeyword("DEPTH") {
		n, err := p.intLiteral()
		if err != nil {
			return nil, err
		}
		stmt.Depth = n
	}
	return stmt, nil
}

// findPathStmt parses FIND PATH FROM <ref> TO <ref> [VIA <edge-type>].
func (p *parser) findPathStmt() (Statement, error) {
	p.advance() // FIND
	if err := p.expectKeyword("PATH"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	from, err := p.nodeRef()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("TO"); err != nil {
		return nil, err
	}
	to, err := p.nodeRef()
	if err != nil {
		return nil, err
	}

	stmt := &FindPathStmt{From: from, To: to}
	if p.matchKeyword("VIA") {
		tok := p.peek()
		if tok.kind != tokenIdent && tok.kind != tokenKeyword {
			return nil, errAt(tok, "expected an edge type")
		}
		edgeType, ok := edgeTypeNames[strings.ToLower(tok.text)]
		if !ok {
			return nil, errAt(tok, "unknown edge type %q", tok.text)
		}
		p.advance()
		stmt.Via = edgeType
	}
	return stmt, nil
}

// analyzeStmt parses ANALYZE {CYCLES [IN <scope>]|COMPLEXITY|COUPLING}.
func (p *parser) analyzeStmt() (Statement, error) {
	p.advance() // ANALYZE

	tok := p.peek()
	if tok.kind != tokenKeyword {
		return nil, errAt(tok, "expected CYCLES, COMPLEXITY or COUPLING")
	}
	switch tok.keyword {
	case "CYCLES":
		p.advance()
		stmt := &AnalyzeStmt{Kind: AnalyzeCycles}
		if p.matchKeyword("IN") {
			scope, err := p.nodeRef()
			if err != nil {
				return nil, err
			}
			stmt.Scope = scope
		}
		return stmt, nil
	case "COMPLEXITY":
		p.advance()
		return &AnalyzeStmt{Kind: AnalyzeComplexity}, nil
	case "COUPLING":
		p.advance()
		return &AnalyzeStmt{Kind: AnalyzeCoupling}, nil
	}
	return nil, errAt(tok, "expected CYCLES, COMPLEXITY or COUPLING")
}

func (p *parser) describeStmt() (Statement, error) {
	p.advance() // DESCRIBE
	ref, err := p.nodeRef()
	if err != nil {
		return nil, err
	}
	return &DescribeStmt{Ref: ref}, nil
}

// nodeRef accepts identifiers, quoted strings, and reserved words used as
// plain names (a function named "path" is still addressable).
func (p *parser) nodeRef() (string, error) {
	tok := p.peek()
	switch tok.kind {
	case tokenIdent, tokenString, tokenKeyword:
		p.advance()
		return tok.text, nil
	}
	return "", errAt(tok, "expected a node reference")
}

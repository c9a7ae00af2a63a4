// Copyright © 2025 The cinder authors

/*
Package parser provides the cinder reader.

	expr    := '(' <expr>* ')' | '{' (<keyword> <expr>)* '}' | <number>
	        |  <string> | <bool> | <keyword> | <symbol> | <mark> <expr>
	number  := /[+-]?[0-9]+/ <fraction>? <exponent>?
	bool    := '#t' | '#f'
	keyword := ':' <name>
	mark    := "'" | "`" | "," | ",@"

Comments run from ';' to end of line.  A comment beginning ';;;' is a
doc comment; doc comments preceding a top-level form are collected and
attached to that form so define can register them.
*/
package parser

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	parsec "github.com/prataprc/goparsec"

	"github.com/cinderlisp/cinder/lisp"
)

// Form is one parsed top-level expression along with any doc comments
// that immediately preceded it.
type Form struct {
	Expr *lisp.Value
	Doc  string
}

// Parse reads every expression in text.  name labels the source in
// errors.
func Parse(name string, text []byte) ([]*lisp.Value, error) {
	forms, err := ParseForms(name, text)
	if err != nil {
		return nil, err
	}
	vals := make([]*lisp.Value, len(forms))
	for i := range forms {
		vals[i] = forms[i].Expr
	}
	return vals, nil
}

// ParseReader reads every expression from r.
func ParseReader(name string, r io.Reader) ([]Form, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseForms(name, b)
}

// ParseForms reads every top-level form in text, pairing each with its
// preceding doc comments.
func ParseForms(name string, text []byte) ([]Form, error) {
	var forms []Form
	var pendingDoc []string
	s := parsec.NewScanner(text)
	s = s.TrackLineno()
	parser := newParsecParser()
	root, s := parser(s)
	for root != nil {
		switch node := rootValue(root).(type) {
		case error:
			return forms, fmt.Errorf("%s:%d:%d: %v",
				name, s.Lineno(), column(text, s.GetCursor()), node)
		case docComment:
			pendingDoc = append(pendingDoc, string(node))
		case *lisp.Value:
			forms = append(forms, Form{Expr: node, Doc: strings.Join(pendingDoc, "\n")})
			pendingDoc = nil
		}
		root, s = parser(s)
	}
	_, s = s.SkipWS()
	if !s.Endof() {
		b, _ := s.Match(`.{1,16}`)
		if len(b) > 15 {
			b = append(b[:15:15], []byte("...")...)
		}
		return forms, fmt.Errorf("%s:%d:%d: unexpected source text possibly starting: %s",
			name, s.Lineno(), column(text, s.GetCursor()), b)
	}
	return forms, nil
}

// column reports the 1-based column of the byte offset cursor in text.
func column(text []byte, cursor int) int {
	if cursor > len(text) {
		cursor = len(text)
	}
	return cursor - bytes.LastIndexByte(text[:cursor], '\n')
}

type nodeType uint

const (
	nodeInvalid nodeType = iota
	nodeTerm
	nodeSExpr
	nodeSExprOUnmatched
	nodeMap
	nodeQuoted
	nodeDoc
)

var nodeTypeStrings = []string{
	nodeInvalid:         "INVALID",
	nodeTerm:            "TERM",
	nodeSExpr:           "SEXPR",
	nodeSExprOUnmatched: "SEXPROPENUNMATCHED",
	nodeMap:             "MAP",
	nodeQuoted:          "QUOTED",
	nodeDoc:             "DOC",
}

func (t nodeType) String() string {
	if int(t) >= len(nodeTypeStrings) {
		return "INVALID"
	}
	return nodeTypeStrings[t]
}

// docComment is a top-level parse result carrying ';;;' comment text.
type docComment string

func newParsecParser() parsec.Parser {
	openP := parsec.Atom("(", "OPENP")
	closeP := parsec.Atom(")", "CLOSEP")
	openC := parsec.Atom("{", "OPENC")
	closeC := parsec.Atom("}", "CLOSEC")
	quote := parsec.Atom("'", "QUOTE")
	quasi := parsec.Atom("`", "QUASIQUOTE")
	unquoteSplicing := parsec.Atom(",@", "UNQUOTESPLICING")
	unquote := parsec.Atom(",", "UNQUOTE")
	doccomment := parsec.Token(`;;;[^\n]*`, "DOCCOMMENT")
	comment := parsec.Token(`;[^\n]*`, "COMMENT")
	boolean := parsec.Token(`#[tf]`, "BOOL")
	decimal := parsec.Token(`[+-]?[0-9]+([.][0-9]+)?([eE][+-]?[0-9]+)?`, "DECIMAL")
	keyword := parsec.Token(`:(?:\pL|[0-9]|[._+\-*/=<>!&~%?$])+`, "KEYWORD")
	symbol := parsec.Token(`(?:(?:\pL|[._+\-*/\=<>!&~%?$#])(?:\pL|[0-9]|[._+\-*/\=<>!&~%?$#])*)?[:]?(?:\pL|[._+\-*/\=<>!&~%?$#])(?:\pL|[0-9]|[._+\-*/\=<>!&~%?$#])*`, "SYMBOL")
	term := parsec.OrdChoice(astNode(nodeTerm),
		parsec.String(),
		boolean,
		decimal,
		keyword,
		symbol, // symbol comes last because it swallows anything
	)
	var expr parsec.Parser // forward declaration allows for recursive parsing
	exprList := parsec.Kleene(nil, &expr)
	sexpr := parsec.And(astNode(nodeSExpr), openP, exprList, closeP)
	sexprOUnmatched := parsec.And(astNode(nodeSExprOUnmatched), openP, exprList, parsec.End())
	mapExpr := parsec.And(astNode(nodeMap), openC, exprList, closeC)
	mapOUnmatched := parsec.And(astNode(nodeSExprOUnmatched), openC, exprList, parsec.End())
	quoted := parsec.And(astNode(nodeQuoted), quote, &expr)
	quasiquoted := parsec.And(astNode(nodeQuoted), quasi, &expr)
	unquoteSpliced := parsec.And(astNode(nodeQuoted), unquoteSplicing, &expr)
	unquoted := parsec.And(astNode(nodeQuoted), unquote, &expr)
	docExpr := parsec.And(astNode(nodeDoc), doccomment)
	expr = parsec.OrdChoice(nil,
		docExpr,
		comment,
		term,
		sexpr,
		mapExpr,
		quoted,
		quasiquoted,
		unquoteSpliced,
		unquoted,
		// Error matching cases come last because they have the lowest
		// precedence.
		sexprOUnmatched,
		mapOUnmatched,
	)
	return expr
}

var quoteMarkSymbols = map[string]string{
	"QUOTE":           "quote",
	"QUASIQUOTE":      "quasiquote",
	"UNQUOTE":         "unquote",
	"UNQUOTESPLICING": "unquote-splicing",
}

func astNode(t nodeType) parsec.Nodify {
	return func(nodes []parsec.ParsecNode) parsec.ParsecNode {
		return newAST(t, nodes)
	}
}

func newAST(typ nodeType, nodes []parsec.ParsecNode) parsec.ParsecNode {
	nodes, ok := cleanParsecNodeList(nodes)
	if len(nodes) == 0 {
		return lisp.Nil()
	}
	if !ok {
		// There is an error in the first position.
		return nodes[0]
	}
	switch typ {
	case nodeTerm:
		switch term := nodes[0].(type) {
		case string:
			return lisp.String(unquoteString(term))
		case *parsec.Terminal:
			switch term.Name {
			case "BOOL":
				return lisp.Bool(term.Value == "#t")
			case "DECIMAL":
				f, err := strconv.ParseFloat(term.Value, 64)
				if err != nil {
					return fmt.Errorf("bad number: %v (%s)", err, term.Value)
				}
				return lisp.Number(f)
			case "KEYWORD":
				return lisp.Keyword(term.Value[1:])
			case "SYMBOL":
				return lisp.Symbol(term.Value)
			}
		}
		return fmt.Errorf("unexpected token")
	case nodeDoc:
		term := nodes[0].(*parsec.Terminal)
		return docComment(strings.TrimSpace(strings.TrimPrefix(term.Value, ";;;")))
	case nodeSExprOUnmatched:
		open := nodes[0].(*parsec.Terminal)
		rest := open.GetValue() + stringifyNodes(nodes[1:len(nodes)-1]) // Trim off the End node
		if len(rest) > 10 {
			rest = rest[:10] + "..."
		}
		return fmt.Errorf("unmatched %q starting: %v", open.GetValue(), rest)
	case nodeSExpr:
		// We don't want the terminal parsec nodes '(' and ')'
		cells := make([]*lisp.Value, 0, len(nodes)-2)
		for _, c := range nodes {
			if c, ok := c.(*lisp.Value); ok {
				cells = append(cells, c)
			}
		}
		return lisp.List(cells...)
	case nodeMap:
		var cells []*lisp.Value
		for _, c := range nodes {
			if c, ok := c.(*lisp.Value); ok {
				cells = append(cells, c)
			}
		}
		if len(cells)%2 != 0 {
			return fmt.Errorf("map literal requires an even number of forms")
		}
		m := make(map[string]*lisp.Value, len(cells)/2)
		for i := 0; i < len(cells); i += 2 {
			if cells[i].Type != lisp.VKeyword {
				return fmt.Errorf("map literal key is not a keyword: %s", cells[i])
			}
			m[cells[i].Str] = cells[i+1]
		}
		return lisp.MapValue(m)
	case nodeQuoted:
		mark := nodes[0].(*parsec.Terminal)
		c, ok := nodes[1].(*lisp.Value)
		if !ok {
			return fmt.Errorf("invalid expression after %q", mark.GetValue())
		}
		return lisp.List(lisp.Symbol(quoteMarkSymbols[mark.Name]), c)
	default:
		panic(fmt.Sprintf("unknown nodeType: %s (%d)", typ, typ))
	}
}

func cleanParsecNodeList(lis []parsec.ParsecNode) ([]parsec.ParsecNode, bool) {
	var nodes []parsec.ParsecNode
	for _, n := range lis {
		switch node := n.(type) {
		case *parsec.Terminal:
			if node.Name == "COMMENT" {
				continue
			}
			nodes = append(nodes, node)
		case docComment:
			// Doc comments inside a form are dropped.
			continue
		case error:
			nodes = []parsec.ParsecNode{node}
			return nodes, false
		case []parsec.ParsecNode:
			clean, ok := cleanParsecNodeList(node)
			if !ok {
				return clean, false
			}
			nodes = append(nodes, clean...)
		default:
			nodes = append(nodes, node)
		}
	}
	return nodes, true
}

func stringifyNodes(nodes []parsec.ParsecNode) string {
	var s []string
	for _, node := range nodes {
		switch node := node.(type) {
		case *parsec.Terminal:
			switch node.GetName() {
			case "OPENP", "CLOSEP", "OPENC", "CLOSEC":
				continue
			}
			s = append(s, node.GetValue())
		case []parsec.ParsecNode:
			s = append(s, "("+stringifyNodes(node)+")")
		case *lisp.Value:
			s = append(s, node.String())
		default:
			s = append(s, fmt.Sprint(node))
		}
	}
	return strings.Join(s, " ")
}

// rootValue reduces a top-level parse result to a *lisp.Value, a
// docComment, an error, or nil for blank and comment-only input.
func rootValue(root parsec.ParsecNode) interface{} {
	// Parsers combined with a nil Nodify callback wrap their result in
	// a single-element node list.
	for {
		wrapped, ok := root.([]parsec.ParsecNode)
		if !ok || len(wrapped) != 1 {
			break
		}
		root = wrapped[0]
	}
	switch node := root.(type) {
	case docComment:
		return node
	case error:
		return node
	case *lisp.Value:
		return node
	}
	nodes, ok := cleanParsecNodeList([]parsec.ParsecNode{root})
	if len(nodes) == 0 {
		return nil
	}
	if !ok {
		return nodes[0].(error)
	}
	if v, ok := nodes[0].(*lisp.Value); ok {
		return v
	}
	// A comment-only line leaves a terminal behind.
	return nil
}

// The goparsec.String() parser unescapes the string content but then
// wraps the result in double quotes, which have to be stripped here.
func unquoteString(s string) string {
	return s[1 : len(s)-1]
}

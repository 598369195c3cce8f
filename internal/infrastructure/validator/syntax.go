package validator

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// SyntaxError is the first problem found in a parse tree.
type SyntaxError struct {
	Line    int
	Column  int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s (line %d, column %d)", e.Message, e.Line, e.Column)
}

// treeCheck inspects an error-free tree for problems the grammar tolerates.
type treeCheck func(root *sitter.Node, src []byte) *SyntaxError

// checkSyntax parses code with the given grammar and returns the first
// error or missing node, then the first finding of checks, or nil when the
// tree is clean.
// A new parser is created per call; tree-sitter parsers are not goroutine safe.
func checkSyntax(ctx context.Context, lang *sitter.Language, code string, checks ...treeCheck) (*SyntaxError, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)

	src := []byte(code)
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		if se := firstError(root, src); se != nil {
			return se, nil
		}
		return &SyntaxError{Line: 1, Column: 1, Message: "invalid syntax"}, nil
	}
	for _, check := range checks {
		if se := check(root, src); se != nil {
			return se, nil
		}
	}
	return nil, nil
}

func errorAt(n *sitter.Node, msg string) *SyntaxError {
	p := n.StartPoint()
	return &SyntaxError{Line: int(p.Row) + 1, Column: int(p.Column) + 1, Message: msg}
}

func firstError(n *sitter.Node, src []byte) *SyntaxError {
	if n == nil {
		return nil
	}
	p := n.StartPoint()
	line, col := int(p.Row)+1, int(p.Column)+1

	if n.IsMissing() {
		return &SyntaxError{Line: line, Column: col, Message: fmt.Sprintf("missing %q", n.Type())}
	}
	if n.Type() == "ERROR" {
		return &SyntaxError{Line: line, Column: col, Message: "unexpected " + snippet(n.Content(src))}
	}
	if !n.HasError() {
		return nil
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if se := firstError(n.Child(i), src); se != nil {
			return se
		}
	}
	return nil
}

func snippet(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 24 {
		s = s[:24] + "..."
	}
	if s == "" {
		return "token"
	}
	return fmt.Sprintf("%q", s)
}

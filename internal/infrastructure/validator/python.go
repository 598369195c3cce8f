package validator

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"codegen/internal/domain/entity"
	"codegen/internal/infrastructure/metrics"
)

type PythonValidator struct{}

func NewPythonValidator() *PythonValidator {
	return &PythonValidator{}
}

func (v *PythonValidator) Validate(ctx context.Context, code string) entity.ValidationResult {
	se, err := checkSyntax(ctx, python.GetLanguage(), code, checkPythonLayout)
	if err != nil {
		metrics.IncError("validator", "python_parse")
		metrics.IncValidationRun("python", false)
		return entity.ValidationResult{Valid: false, Message: "invalid syntax: " + err.Error()}
	}
	if se != nil {
		metrics.IncValidationRun("python", false)
		return entity.ValidationResult{Valid: false, Message: "invalid syntax: " + se.Error()}
	}
	metrics.IncValidationRun("python", true)
	return entity.ValidationResult{Valid: true, Message: entity.MsgValidPython}
}

// The grammar still accepts Python 2 statements.
var python2Statements = map[string]string{
	"print_statement": "Missing parentheses in call to 'print'",
	"exec_statement":  "Missing parentheses in call to 'exec'",
}

// Statements that own a suite.
var compoundStatements = map[string]bool{
	"function_definition": true,
	"class_definition":    true,
	"if_statement":        true,
	"elif_clause":         true,
	"else_clause":         true,
	"for_statement":       true,
	"while_statement":     true,
	"with_statement":      true,
	"try_statement":       true,
	"except_clause":       true,
	"finally_clause":      true,
}

// checkPythonLayout enforces what the CPython tokenizer does and the grammar
// recovers from silently: every suite is indented past its header, and the
// statements of one suite start in the same column.
func checkPythonLayout(root *sitter.Node, src []byte) *SyntaxError {
	lines := strings.Split(string(src), "\n")
	return walkLayout(root, lines)
}

func walkLayout(n *sitter.Node, lines []string) *SyntaxError {
	t := n.Type()
	if msg, ok := python2Statements[t]; ok {
		return errorAt(n, msg)
	}
	switch {
	case t == "module":
		if se := alignedStatements(statements(n), lines, 0); se != nil {
			return se
		}
	case t == "block":
		if se := checkBlock(n, lines); se != nil {
			return se
		}
	case compoundStatements[t] && !hasNamedChild(n, "block"):
		return errorAt(n, "expected an indented block")
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if se := walkLayout(n.NamedChild(i), lines); se != nil {
			return se
		}
	}
	return nil
}

func checkBlock(b *sitter.Node, lines []string) *SyntaxError {
	stmts := statements(b)
	if len(stmts) == 0 {
		return errorAt(b, "expected an indented block")
	}
	first := stmts[0]
	if header := b.Parent(); header != nil && first.StartPoint().Row > header.StartPoint().Row {
		if int(first.StartPoint().Column) <= indentOf(lines, header.StartPoint().Row) {
			return errorAt(first, "expected an indented block")
		}
	}
	return alignedStatements(stmts, lines, int(first.StartPoint().Column))
}

// alignedStatements checks the statements that begin a line; later
// statements on a line after ';' are free.
func alignedStatements(stmts []*sitter.Node, lines []string, col int) *SyntaxError {
	for _, s := range stmts {
		p := s.StartPoint()
		got := int(p.Column)
		if got != indentOf(lines, p.Row) || got == col {
			continue
		}
		if got > col {
			return errorAt(s, "unexpected indent")
		}
		return errorAt(s, "unindent does not match any outer indentation level")
	}
	return nil
}

// statements are the named children that are not comments.
func statements(n *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "comment", "line_continuation":
			continue
		}
		out = append(out, c)
	}
	return out
}

func hasNamedChild(n *sitter.Node, typ string) bool {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if n.NamedChild(i).Type() == typ {
			return true
		}
	}
	return false
}

func indentOf(lines []string, row uint32) int {
	if int(row) >= len(lines) {
		return 0
	}
	line := lines[row]
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

package spreadsheet

import "strings"

// Formula wraps a parsed expression tree together with the sorted-unique
// list of positions it references, mirroring the split in the original
// implementation between a thin Formula façade and the FormulaAST it
// owns (original_source/src/formula.cpp).
type Formula struct {
	ast        ASTNode
	referenced []Position
}

// ParseFormula parses text (the formula text with the leading '='
// already stripped) into a Formula. A malformed expression returns a
// *ParseError wrapping the parser's message; text is recorded on the
// error for display (spec.md §4.1, §7).
func ParseFormula(text string) (*Formula, error) {
	lexer := NewLexer(text)
	tokens, err := lexer.Tokenize()
	if err != nil {
		return nil, &ParseError{Text: text, Message: err.Error()}
	}

	parser := NewParser(tokens)
	ast, err := parser.Parse()
	if err != nil {
		return nil, &ParseError{Text: text, Message: err.Error()}
	}

	return &Formula{
		ast:        ast,
		referenced: sortedUniquePositions(ast.ReferencedCells(nil)),
	}, nil
}

// Execute evaluates the formula against resolver. A *FormulaError
// produced during evaluation is returned as a plain error value — see
// Cell.GetValue, which unwraps it back into the Value union.
func (f *Formula) Execute(resolver Resolver) (float64, error) {
	return f.ast.Execute(resolver)
}

// GetExpression renders the formula back to canonical infix text (no
// leading '=').
func (f *Formula) GetExpression() string {
	var sb strings.Builder
	f.ast.ToString(&sb)
	return sb.String()
}

// ReferencedCells returns the sorted-unique positions the formula's
// cellref leaves name.
func (f *Formula) ReferencedCells() []Position {
	return f.referenced
}

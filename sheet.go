package spreadsheet

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Option configures a Sheet at construction time.
type Option func(*Sheet)

// WithMaxPosition overrides the default MaxPos ceiling a Sheet enforces
// on cell coordinates. spec.md §9 leaves the exact extent an
// implementation choice; exposing it as a constructor option keeps the
// default generous (MaxPos) while letting callers tighten it, e.g. for
// tests that want out-of-range references to trigger quickly.
func WithMaxPosition(max int) Option {
	return func(s *Sheet) {
		s.maxPos = max
	}
}

// Sheet owns every cell in a growable two-dimensional grid: it routes
// reads and writes, performs circular-dependency checks on writes,
// triggers transitive cache invalidation, computes the printable
// region, and renders values and texts (spec.md §4.3).
//
// Storage is a sparse map keyed by Position rather than the reference
// implementation's dense slice-of-slices (original_source/src/sheet.h):
// idiomatic Go reaches for a map when most of a large address space is
// expected to stay empty, and a map needs no up-front resizing pass —
// sheetSize is still tracked to preserve invariants I4/I5 and the
// "storage may only grow" lifecycle rule.
type Sheet struct {
	cells         map[Position]*Cell
	graph         *dependencyGraph
	sheetSize     Size
	printableSize Size
	maxPos        int
}

// NewSheet creates an empty sheet of size (0,0).
func NewSheet(opts ...Option) *Sheet {
	s := &Sheet{
		cells:  make(map[Position]*Cell),
		graph:  newDependencyGraph(),
		maxPos: MaxPos,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// isValidPosition checks pos against this sheet's configured maxPos,
// rather than Position.IsValid's package-level default, so
// WithMaxPosition actually narrows what SetCell/GetCell/ClearCell and
// formula cellref resolution accept.
func (s *Sheet) isValidPosition(pos Position) bool {
	return pos.Row >= 0 && pos.Row < s.maxPos && pos.Col >= 0 && pos.Col < s.maxPos
}

// SetCell parses text and commits it at pos, following spec.md §4.3:
//  1. reject an invalid position;
//  2. no-op if text is unchanged (invariant P5);
//  3. grow storage to cover pos;
//  4. parse text into a provisional cell — a parse failure aborts here,
//     leaving the existing cell untouched;
//  5. reject the write with CircularDependencyError if committing it
//     would create a cycle, again leaving the existing cell untouched;
//  6. commit the provisional cell, invalidate every transitive
//     dependent's cache, and update the dependency graph's edges;
//  7. recompute the printable region.
func (s *Sheet) SetCell(pos Position, text string) error {
	if !s.isValidPosition(pos) {
		return &PositionError{Pos: pos}
	}

	if existing, ok := s.cells[pos]; ok && existing.GetText() == text {
		return nil
	}

	// storage grows here regardless of whether the write below is later
	// rejected for a cycle, matching
	// original_source/src/sheet.cpp's SetCell, which resizes before
	// parsing or checking the provisional cell.
	s.grow(pos)

	provisional := newCell(s.resolve)
	if err := provisional.Set(text); err != nil {
		return err
	}

	refs := provisional.GetReferencedCells()
	if s.createsCycle(pos, refs) {
		return &CircularDependencyError{Pos: pos}
	}

	s.cells[pos] = provisional
	s.graph.setReferenced(pos, validPositions(refs))
	s.invalidateDependents(pos)
	s.recomputePrintableSize()
	return nil
}

// createsCycle walks the graph reachable from refs via each cell's
// currently-committed referenced list, looking for a path back to root.
// Invalid referenced positions are skipped — they surface as Ref errors
// at evaluation time, not as cycles (spec.md §4.3). A single visited set
// shared across the whole walk keeps it linear through diamond-shaped
// dependency graphs, mirroring
// original_source/src/sheet.cpp's ThrowIfCircularDependencyFound.
func (s *Sheet) createsCycle(root Position, refs []Position) bool {
	visited := make(map[Position]struct{})
	var visit func([]Position) bool
	visit = func(positions []Position) bool {
		for _, pos := range positions {
			if !pos.IsValid() {
				continue
			}
			if pos == root {
				return true
			}
			if _, seen := visited[pos]; seen {
				continue
			}
			visited[pos] = struct{}{}
			if cell, ok := s.cells[pos]; ok {
				if visit(cell.GetReferencedCells()) {
					return true
				}
			}
		}
		return false
	}
	return visit(refs)
}

// invalidateDependents clears the cache of every cell transitively
// depending on pos (spec.md §4.2).
func (s *Sheet) invalidateDependents(pos Position) {
	visited := make(map[Position]struct{})
	s.graph.collectTransitiveDependents(pos, visited, func(dep Position) {
		if cell, ok := s.cells[dep]; ok {
			cell.invalidateCache()
		}
	})
}

// validPositions returns the subset of positions that are valid graph
// edges, filtering out NonePosition and other out-of-range positions a
// formula's cellref leaves may carry (spec.md §4.1: an out-of-range
// label still parses, it just can't name a graph edge). It never
// mutates positions, since that slice is also Cell.referenced.
func validPositions(positions []Position) []Position {
	out := make([]Position, 0, len(positions))
	for _, pos := range positions {
		if pos.IsValid() {
			out = append(out, pos)
		}
	}
	return out
}

func (s *Sheet) grow(pos Position) {
	if pos.Row+1 > s.sheetSize.Rows {
		s.sheetSize.Rows = pos.Row + 1
	}
	if pos.Col+1 > s.sheetSize.Cols {
		s.sheetSize.Cols = pos.Col + 1
	}
}

// GetCell returns the cell at pos, or nil if pos lies outside the
// current sheet extent or names a slot that is absent or empty
// (spec.md §4.3). Returns a *PositionError for an invalid position.
func (s *Sheet) GetCell(pos Position) (*Cell, error) {
	if !s.isValidPosition(pos) {
		return nil, &PositionError{Pos: pos}
	}
	if pos.Row >= s.sheetSize.Rows || pos.Col >= s.sheetSize.Cols {
		return nil, nil
	}
	cell, ok := s.cells[pos]
	if !ok || cell.GetText() == "" {
		return nil, nil
	}
	return cell, nil
}

// ClearCell resets the cell at pos to Empty. It is a no-op if pos lies
// outside the current sheet extent or names an absent slot. Incoming
// dependency edges are retained — a formula still referencing pos
// resolves it as 0 afterward (spec.md §4.3, Open Question (a)).
func (s *Sheet) ClearCell(pos Position) error {
	if !s.isValidPosition(pos) {
		return &PositionError{Pos: pos}
	}
	if pos.Row >= s.sheetSize.Rows || pos.Col >= s.sheetSize.Cols {
		return nil
	}
	cell, ok := s.cells[pos]
	if !ok {
		return nil
	}
	cell.Clear()
	s.invalidateDependents(pos)
	s.recomputePrintableSize()
	return nil
}

// GetPrintableSize returns the smallest bounding box covering every
// non-empty cell, or (0,0) if the sheet has none (invariant I4).
func (s *Sheet) GetPrintableSize() Size {
	return s.printableSize
}

// recomputePrintableSize scans every stored cell for the maxima of
// (row, col) among cells whose text is non-empty. A sparse map scan is
// the map-storage equivalent of
// original_source/src/sheet.cpp's UpdatePrintableSize, which walks the
// dense grid directly.
func (s *Sheet) recomputePrintableSize() {
	maxRow, maxCol := -1, -1
	for pos, cell := range s.cells {
		if cell.GetText() == "" {
			continue
		}
		if pos.Row > maxRow {
			maxRow = pos.Row
		}
		if pos.Col > maxCol {
			maxCol = pos.Col
		}
	}
	if maxRow < 0 {
		s.printableSize = Size{}
		return
	}
	s.printableSize = Size{Rows: maxRow + 1, Cols: maxCol + 1}
}

// resolve is the Resolver every formula cell in this sheet evaluates
// cellrefs against (spec.md §4.1):
//   - an invalid position is a Ref error;
//   - an absent or Empty cell resolves to 0;
//   - a Text cell's value must convert wholesale to a float64, or it is
//     a Value error;
//   - a Formula cell's own value is used verbatim, re-raising its error
//     if it has one.
func (s *Sheet) resolve(pos Position) (float64, error) {
	if !s.isValidPosition(pos) {
		return 0, NewFormulaError(ErrorCodeRef)
	}
	cell, ok := s.cells[pos]
	if !ok {
		return 0, nil
	}

	value, err := cell.GetValue()
	if err != nil {
		return 0, err
	}

	switch v := value.(type) {
	case nil:
		return 0, nil
	case float64:
		return v, nil
	case string:
		parsed, parseErr := strconv.ParseFloat(v, 64)
		if parseErr != nil {
			return 0, NewFormulaError(ErrorCodeValue)
		}
		return parsed, nil
	case *FormulaError:
		return 0, v
	default:
		return 0, NewFormulaError(ErrorCodeValue)
	}
}

// PrintValues writes the printable region's rendered values to w: one
// line per row, fields separated by a tab, each row terminated by '\n'
// (spec.md §6).
func (s *Sheet) PrintValues(w io.Writer) error {
	return s.printRegion(w, func(cell *Cell) (string, error) {
		value, err := cell.GetValue()
		if err != nil {
			return "", err
		}
		return renderValue(value), nil
	})
}

// PrintTexts writes the printable region's raw texts to w, in the same
// layout as PrintValues (spec.md §6).
func (s *Sheet) PrintTexts(w io.Writer) error {
	return s.printRegion(w, func(cell *Cell) (string, error) {
		return cell.GetText(), nil
	})
}

func (s *Sheet) printRegion(w io.Writer, field func(*Cell) (string, error)) error {
	var sb strings.Builder
	for row := 0; row < s.printableSize.Rows; row++ {
		for col := 0; col < s.printableSize.Cols; col++ {
			if col > 0 {
				sb.WriteByte('\t')
			}
			cell, ok := s.cells[Position{Row: row, Col: col}]
			if ok && cell.GetText() != "" {
				text, err := field(cell)
				if err != nil {
					return err
				}
				sb.WriteString(text)
			}
		}
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(w, sb.String())
	if err != nil {
		return fmt.Errorf("spreadsheet: writing output: %w", err)
	}
	return nil
}

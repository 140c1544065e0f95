package symbolic

import (
	"errors"
	"fmt"
	"strings"
)

// ============================================================
// Matrix: symbolic matrix
// ============================================================

type Matrix struct {
	rows, cols int
	data       [][]Expr
}

func NewMatrix(rows, cols int) *Matrix {
	data := make([][]Expr, rows)
	for i := range data {
		data[i] = make([]Expr, cols)
		for j := range data[i] {
			data[i][j] = N(0)
		}
	}
	return &Matrix{rows: rows, cols: cols, data: data}
}

func MatrixFromSlice(rows, cols int, entries []Expr) *Matrix {
	if len(entries) != rows*cols {
		panic(fmt.Sprintf("symbolic: MatrixFromSlice needs %d entries, got %d", rows*cols, len(entries)))
	}
	m := NewMatrix(rows, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			m.data[i][j] = entries[i*cols+j]
		}
	}
	return m
}

func (m *Matrix) checkBounds(row, col int) {
	if row < 0 || row >= m.rows || col < 0 || col >= m.cols {
		panic(fmt.Sprintf("symbolic: matrix index out of range [%d,%d] for %dx%d", row, col, m.rows, m.cols))
	}
}

func (m *Matrix) Get(row, col int) Expr {
	m.checkBounds(row, col)
	return m.data[row][col]
}
func (m *Matrix) Set(row, col int, val Expr) {
	m.checkBounds(row, col)
	m.data[row][col] = val
}
func (m *Matrix) Rows() int { return m.rows }
func (m *Matrix) Cols() int { return m.cols }

func (m *Matrix) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i := 0; i < m.rows; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("[")
		for j := 0; j < m.cols; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(m.data[i][j].String())
		}
		sb.WriteString("]")
	}
	sb.WriteString("]")
	return sb.String()
}

// RREF reduces m in place to reduced row echelon form using the first
// pivotCols columns for pivots and returns the pivot column indices.
// Entries in pivot columns must be numeric; the remaining columns may hold
// arbitrary expressions (an augmented right-hand side).
func (m *Matrix) RREF(pivotCols int) []int {
	pivots := []int{}
	r := 0
	for c := 0; c < pivotCols && r < m.rows; c++ {
		p := -1
		for i := r; i < m.rows; i++ {
			if !isZeroEntry(m.data[i][c]) {
				p = i
				break
			}
		}
		if p < 0 {
			continue
		}
		m.data[r], m.data[p] = m.data[p], m.data[r]
		inv := PowOf(m.data[r][c], N(-1))
		for j := range m.data[r] {
			m.data[r][j] = MulOf(inv, m.data[r][j])
		}
		for i := 0; i < m.rows; i++ {
			if i == r || isZeroEntry(m.data[i][c]) {
				continue
			}
			factor := m.data[i][c]
			for j := range m.data[i] {
				m.data[i][j] = AddOf(m.data[i][j], MulOf(N(-1), factor, m.data[r][j]))
			}
			m.data[i][c] = N(0)
		}
		pivots = append(pivots, c)
		r++
	}
	return pivots
}

func isZeroEntry(e Expr) bool {
	n, ok := e.(*Num)
	return ok && negligible(n)
}

// ============================================================
// Linear systems
// ============================================================

// ErrNonLinear is returned when an equation is not affine in the unknowns
// or a coefficient is not numeric.
var ErrNonLinear = errors.New("symbolic: system is not linear in the unknowns")

type LinearOutcome int

const (
	LinearUnique LinearOutcome = iota
	LinearParametric
	LinearInconsistent
)

func (o LinearOutcome) String() string {
	switch o {
	case LinearUnique:
		return "unique"
	case LinearParametric:
		return "parametric"
	case LinearInconsistent:
		return "inconsistent"
	}
	return fmt.Sprintf("LinearOutcome(%d)", int(o))
}

// LinearSolution is the result of SolveLinearSystem. For a parametric
// system Values maps each pivot unknown to an expression in Free.
type LinearSolution struct {
	Outcome LinearOutcome
	Values  map[string]Expr
	Free    []string
	Rank    int
}

// SolveLinearSystem solves eqs (each read as eq = 0) for unknowns by exact
// Gauss-Jordan elimination.
func SolveLinearSystem(eqs []Expr, unknowns []string) (LinearSolution, error) {
	zero := make(map[string]Expr, len(unknowns))
	for _, u := range unknowns {
		zero[u] = N(0)
	}
	m := NewMatrix(len(eqs), len(unknowns)+1)
	for i, eq := range eqs {
		eq = eq.Simplify()
		for j, u := range unknowns {
			coeff := Diff(eq, u)
			for _, other := range unknowns {
				if dependsOn(coeff, other) {
					return LinearSolution{}, fmt.Errorf("equation %d: %w", i+1, ErrNonLinear)
				}
			}
			n, ok := coeff.Eval()
			if !ok {
				return LinearSolution{}, fmt.Errorf("equation %d: coefficient of %s is %s: %w", i+1, u, coeff, ErrNonLinear)
			}
			m.data[i][j] = n
		}
		m.data[i][len(unknowns)] = MulOf(N(-1), Subs(eq, zero))
	}

	pivots := m.RREF(len(unknowns))
	for i := len(pivots); i < m.rows; i++ {
		rhs := m.data[i][len(unknowns)]
		if n, ok := rhs.Eval(); !ok || !negligible(n) {
			return LinearSolution{Outcome: LinearInconsistent, Rank: len(pivots)}, nil
		}
	}

	isPivot := map[int]bool{}
	for _, c := range pivots {
		isPivot[c] = true
	}
	free := []string{}
	for j, u := range unknowns {
		if !isPivot[j] {
			free = append(free, u)
		}
	}
	values := make(map[string]Expr, len(pivots))
	for r, c := range pivots {
		terms := []Expr{m.data[r][len(unknowns)]}
		for j, u := range unknowns {
			if isPivot[j] || isZeroEntry(m.data[r][j]) {
				continue
			}
			terms = append(terms, MulOf(N(-1), m.data[r][j], S(u)))
		}
		values[unknowns[c]] = AddOf(terms...)
	}
	outcome := LinearUnique
	if len(free) > 0 {
		outcome = LinearParametric
	}
	return LinearSolution{Outcome: outcome, Values: values, Free: free, Rank: len(pivots)}, nil
}

package unroll

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ShapeError reports an operand whose dimensions are inconsistent with the
// other inputs of an operation. Want dimensions of -1 mean "any".
type ShapeError struct {
	Op       string // "StepForward", "Backward", ...
	Operand  string // "Wx", "hPrev", ...
	Rows     int
	Cols     int
	WantRows int
	WantCols int
}

// Error implements the error interface
func (e *ShapeError) Error() string {
	want := func(v int) string {
		if v < 0 {
			return "*"
		}
		return fmt.Sprintf("%d", v)
	}
	return fmt.Sprintf("unroll: %s: operand %s has shape %dx%d, want %sx%s",
		e.Op, e.Operand, e.Rows, e.Cols, want(e.WantRows), want(e.WantCols))
}

// checkDims validates one operand's dimensions against the expectation,
// returning a stack-annotated *ShapeError on mismatch.
func checkDims(op, operand string, m mat.Matrix, wantRows, wantCols int) error {
	r, c := m.Dims()
	if (wantRows >= 0 && r != wantRows) || (wantCols >= 0 && c != wantCols) {
		return errors.WithStack(&ShapeError{
			Op:       op,
			Operand:  operand,
			Rows:     r,
			Cols:     c,
			WantRows: wantRows,
			WantCols: wantCols,
		})
	}
	return nil
}

// MatrixInfo captures matrix state for error reporting and diagnostics
type MatrixInfo struct {
	Rows       int
	Cols       int
	NaNCount   int
	InfCount   int
	MinValue   float64
	MaxValue   float64
	BadIndices []int // First 10 corrupted flat indices
}

// Format returns a compact string representation
func (info *MatrixInfo) Format() string {
	s := fmt.Sprintf("%dx%d", info.Rows, info.Cols)
	if info.NaNCount > 0 || info.InfCount > 0 {
		s += fmt.Sprintf(" (corrupt: %d NaN, %d Inf at %v)",
			info.NaNCount, info.InfCount, info.BadIndices)
	} else {
		s += fmt.Sprintf(" range=[%.4f, %.4f]", info.MinValue, info.MaxValue)
	}
	return s
}

// Clean reports whether the scan found no NaN or Inf values.
func (info *MatrixInfo) Clean() bool {
	return info.NaNCount == 0 && info.InfCount == 0
}

// ScanMatrix checks for NaN/Inf and collects value range stats
func ScanMatrix(m mat.Matrix) *MatrixInfo {
	if m == nil {
		return nil
	}

	r, c := m.Dims()
	info := &MatrixInfo{
		Rows:       r,
		Cols:       c,
		MinValue:   math.Inf(1),
		MaxValue:   math.Inf(-1),
		BadIndices: make([]int, 0, 10),
	}

	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			switch {
			case math.IsNaN(v):
				info.NaNCount++
				if len(info.BadIndices) < 10 {
					info.BadIndices = append(info.BadIndices, i*c+j)
				}
			case math.IsInf(v, 0):
				info.InfCount++
				if len(info.BadIndices) < 10 {
					info.BadIndices = append(info.BadIndices, i*c+j)
				}
			default:
				if v < info.MinValue {
					info.MinValue = v
				}
				if v > info.MaxValue {
					info.MaxValue = v
				}
			}
		}
	}

	// Handle empty or all-corrupt matrices
	if math.IsInf(info.MinValue, 1) {
		info.MinValue = 0
	}
	if math.IsInf(info.MaxValue, -1) {
		info.MaxValue = 0
	}

	return info
}

package unroll

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestShapeErrorMessage(t *testing.T) {
	err := &ShapeError{
		Op: "StepForward", Operand: "Wh",
		Rows: 4, Cols: 20, WantRows: 5, WantCols: 20,
	}
	require.Equal(t, "unroll: StepForward: operand Wh has shape 4x20, want 5x20", err.Error())

	anyCols := &ShapeError{
		Op: "StepBackward", Operand: "dhNext",
		Rows: 2, Cols: 3, WantRows: 2, WantCols: -1,
	}
	require.Equal(t, "unroll: StepBackward: operand dhNext has shape 2x3, want 2x*", anyCols.Error())
}

func TestScanMatrix(t *testing.T) {
	clean := mat.NewDense(2, 2, []float64{-1, 0.5, 2, 3})
	info := ScanMatrix(clean)
	require.True(t, info.Clean())
	require.Equal(t, -1.0, info.MinValue)
	require.Equal(t, 3.0, info.MaxValue)
	require.Empty(t, info.BadIndices)

	corrupt := mat.NewDense(2, 3, []float64{1, math.NaN(), 2, math.Inf(1), math.Inf(-1), 3})
	info = ScanMatrix(corrupt)
	require.False(t, info.Clean())
	require.Equal(t, 1, info.NaNCount)
	require.Equal(t, 2, info.InfCount)
	require.Equal(t, []int{1, 3, 4}, info.BadIndices)
	require.Contains(t, info.Format(), "corrupt")

	require.Nil(t, ScanMatrix(nil))
}

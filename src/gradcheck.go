package unroll

import (
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// CheckConfig configures the numerical gradient oracle. Every field must
// be set; DefaultCheckConfig gives the conventional values.
type CheckConfig struct {
	Step      float64 // central-difference step size
	Tolerance float64 // max acceptable relative error
}

// DefaultCheckConfig returns the conventional checking parameters.
func DefaultCheckConfig() CheckConfig {
	return CheckConfig{Step: 1e-5, Tolerance: 1e-5}
}

// NumGrad approximates the gradient of a scalar function by central
// differences. f must not retain or mutate its argument.
func NumGrad(f func([]float64) float64, x []float64, step float64) []float64 {
	dst := make([]float64, len(x))
	fd.Gradient(dst, f, x, &fd.Settings{Formula: fd.Central, Step: step})
	return dst
}

// NumGradUpstream approximates the gradient, w.r.t. x, of an array-valued
// function contracted with an upstream gradient: the gradient of the
// scalar ⟨f(x), upstream⟩. This is the oracle the tests hold the analytic
// backward passes against.
func NumGradUpstream(f func(*mat.Dense) *mat.Dense, x, upstream *mat.Dense, step float64) *mat.Dense {
	r, c := x.Dims()
	up := flatten(upstream)
	scalar := func(v []float64) float64 {
		out := f(mat.NewDense(r, c, append([]float64(nil), v...)))
		return floats.Dot(flatten(out), up)
	}
	g := NumGrad(scalar, flatten(x), step)
	return mat.NewDense(r, c, g)
}

// RelError returns the maximum elementwise relative error between two
// matrices: max |a-b| / max(1e-8, |a|+|b|).
func RelError(a, b mat.Matrix) float64 {
	ra, ca := a.Dims()
	max := 0.0
	for i := 0; i < ra; i++ {
		for j := 0; j < ca; j++ {
			av, bv := a.At(i, j), b.At(i, j)
			e := math.Abs(av-bv) / math.Max(1e-8, math.Abs(av)+math.Abs(bv))
			if e > max {
				max = e
			}
		}
	}
	return max
}

// RelErrorVec is RelError over flat slices.
func RelErrorVec(a, b []float64) float64 {
	max := 0.0
	for i := range a {
		e := math.Abs(a[i]-b[i]) / math.Max(1e-8, math.Abs(a[i])+math.Abs(b[i]))
		if e > max {
			max = e
		}
	}
	return max
}

// flatten copies a matrix into a freshly allocated row-major slice. Works
// for any matrix, sliced views included.
func flatten(m mat.Matrix) []float64 {
	r, c := m.Dims()
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out = append(out, m.At(i, j))
		}
	}
	return out
}

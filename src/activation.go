package unroll

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Sigmoid computes the logistic function 1/(1+e^-v) without overflow.
// The branch on sign keeps the argument to math.Exp non-positive, so the
// exponential is always bounded in (0, 1] regardless of |v|.
func Sigmoid(v float64) float64 {
	if v >= 0 {
		return 1.0 / (1.0 + math.Exp(-v))
	}
	e := math.Exp(v)
	return e / (1.0 + e)
}

// SigmoidMat applies Sigmoid elementwise and returns a new matrix.
func SigmoidMat(x mat.Matrix) *mat.Dense {
	var out mat.Dense
	out.Apply(func(_, _ int, v float64) float64 { return Sigmoid(v) }, x)
	return &out
}

func tanhMat(x mat.Matrix) *mat.Dense {
	var out mat.Dense
	out.Apply(func(_, _ int, v float64) float64 { return math.Tanh(v) }, x)
	return &out
}

// sigmoidBack sets dst = dGate ⊙ gate ⊙ (1-gate), the gradient through a
// sigmoid gate given the gate's forward value.
func sigmoidBack(dst *mat.Dense, dGate, gate *mat.Dense) {
	var dg mat.Dense
	dg.Apply(func(_, _ int, v float64) float64 { return v * (1 - v) }, gate)
	dst.MulElem(dGate, &dg)
}

// tanhBack sets dst = dBlock ⊙ (1-block²), the gradient through tanh given
// the forward value.
func tanhBack(dst *mat.Dense, dBlock, block *mat.Dense) {
	var db mat.Dense
	db.Apply(func(_, _ int, v float64) float64 { return 1 - v*v }, block)
	dst.MulElem(dBlock, &db)
}

package unroll

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// The N×4H pre-activation matrix is split into four contiguous H-wide
// blocks in a fixed column order shared by the forward and backward
// passes: input gate, forget gate, output gate, block input.
//
//	[0:H)   input gate  (sigmoid)
//	[H:2H)  forget gate (sigmoid)
//	[2H:3H) output gate (sigmoid)
//	[3H:4H) block input (tanh)

// StepCache snapshots every quantity one timestep's backward pass needs,
// so nothing is recomputed. Produced by StepForward, consumed exactly once
// by the matching StepBackward. Fields are read-only after construction.
type StepCache struct {
	X     *mat.Dense // input, N×D
	HPrev *mat.Dense // hidden state entering the step, N×H
	CPrev *mat.Dense // cell state entering the step, N×H
	HNext *mat.Dense // hidden state leaving the step, N×H
	CNext *mat.Dense // cell state leaving the step, N×H
	Wx    *mat.Dense // input-to-hidden weights, D×4H
	Wh    *mat.Dense // hidden-to-hidden weights, H×4H
	B     []float64  // bias, length 4H
	A     *mat.Dense // pre-activation x·Wx + hPrev·Wh + b, N×4H
	I     *mat.Dense // input gate, N×H
	F     *mat.Dense // forget gate, N×H
	O     *mat.Dense // output gate, N×H
	G     *mat.Dense // block input, N×H
}

// Gradients holds the parameter gradients of one backward pass. For a
// sequence pass they are sums over all timesteps, since the parameters are
// shared across time.
type Gradients struct {
	DWx *mat.Dense // D×4H
	DWh *mat.Dense // H×4H
	Db  []float64  // length 4H
}

// StepForward computes one timestep of the LSTM transition:
//
//	a = x·Wx + hPrev·Wh + b
//	i, f, o = sigmoid of their blocks of a; g = tanh of its block
//	cNext = f ⊙ cPrev + i ⊙ g
//	hNext = o ⊙ tanh(cNext)
//
// Inputs are not mutated. The returned cache feeds StepBackward.
func StepForward(x, hPrev, cPrev, Wx, Wh *mat.Dense, b []float64) (hNext, cNext *mat.Dense, cache *StepCache, err error) {
	n, d := x.Dims()
	_, hdim := hPrev.Dims()

	if err := checkDims("StepForward", "hPrev", hPrev, n, hdim); err != nil {
		return nil, nil, nil, err
	}
	if err := checkDims("StepForward", "cPrev", cPrev, n, hdim); err != nil {
		return nil, nil, nil, err
	}
	if err := checkDims("StepForward", "Wx", Wx, d, 4*hdim); err != nil {
		return nil, nil, nil, err
	}
	if err := checkDims("StepForward", "Wh", Wh, hdim, 4*hdim); err != nil {
		return nil, nil, nil, err
	}
	if len(b) != 4*hdim {
		return nil, nil, nil, errors.WithStack(&ShapeError{
			Op: "StepForward", Operand: "b",
			Rows: len(b), Cols: 1, WantRows: 4 * hdim, WantCols: 1,
		})
	}

	a := mat.NewDense(n, 4*hdim, nil)
	a.Mul(x, Wx)
	var ah mat.Dense
	ah.Mul(hPrev, Wh)
	a.Add(a, &ah)
	for r := 0; r < n; r++ {
		floats.Add(a.RawRowView(r), b)
	}

	i := SigmoidMat(a.Slice(0, n, 0, hdim))
	f := SigmoidMat(a.Slice(0, n, hdim, 2*hdim))
	o := SigmoidMat(a.Slice(0, n, 2*hdim, 3*hdim))
	g := tanhMat(a.Slice(0, n, 3*hdim, 4*hdim))

	cNext = mat.NewDense(n, hdim, nil)
	cNext.MulElem(f, cPrev)
	var ig mat.Dense
	ig.MulElem(i, g)
	cNext.Add(cNext, &ig)

	hNext = mat.NewDense(n, hdim, nil)
	hNext.MulElem(o, tanhMat(cNext))

	cache = &StepCache{
		X: x, HPrev: hPrev, CPrev: cPrev,
		HNext: hNext, CNext: cNext,
		Wx: Wx, Wh: Wh, B: b,
		A: a, I: i, F: f, O: o, G: g,
	}
	return hNext, cNext, cache, nil
}

// StepBackward computes the exact reverse-mode gradient of StepForward at
// the cached inputs. dhNext and dcNext are the upstream gradients of the
// step's hidden and cell outputs; at the last timestep of a sequence,
// dcNext is all zeros.
//
// The upstream gradients are treated as immutable: the hidden path's
// contribution to the cell gradient is accumulated into a fresh matrix,
// never into dcNext itself. The cache is not mutated either.
func StepBackward(dhNext, dcNext *mat.Dense, cache *StepCache) (dx, dhPrev, dcPrev *mat.Dense, grads *Gradients, err error) {
	n, hdim := cache.HNext.Dims()

	if err := checkDims("StepBackward", "dhNext", dhNext, n, hdim); err != nil {
		return nil, nil, nil, nil, err
	}
	if err := checkDims("StepBackward", "dcNext", dcNext, n, hdim); err != nil {
		return nil, nil, nil, nil, err
	}

	tc := tanhMat(cache.CNext)

	// dc = dcNext + dhNext ⊙ o ⊙ (1 - tanh²(cNext))
	dc := mat.NewDense(n, hdim, nil)
	var dcFromH mat.Dense
	dcFromH.MulElem(dhNext, cache.O)
	tanhBack(&dcFromH, &dcFromH, tc)
	dc.Add(dcNext, &dcFromH)

	dcPrev = mat.NewDense(n, hdim, nil)
	dcPrev.MulElem(dc, cache.F)

	// Gradients w.r.t. the four gate outputs.
	var dI, dF, dO, dG mat.Dense
	dI.MulElem(dc, cache.G)
	dF.MulElem(dc, cache.CPrev)
	dO.MulElem(dhNext, tc)
	dG.MulElem(dc, cache.I)

	// Back through the nonlinearities, into the fused pre-activation
	// gradient with the same block layout as the forward pass.
	da := mat.NewDense(n, 4*hdim, nil)
	sigmoidBack(da.Slice(0, n, 0, hdim).(*mat.Dense), &dI, cache.I)
	sigmoidBack(da.Slice(0, n, hdim, 2*hdim).(*mat.Dense), &dF, cache.F)
	sigmoidBack(da.Slice(0, n, 2*hdim, 3*hdim).(*mat.Dense), &dO, cache.O)
	tanhBack(da.Slice(0, n, 3*hdim, 4*hdim).(*mat.Dense), &dG, cache.G)

	_, d := cache.X.Dims()
	dx = mat.NewDense(n, d, nil)
	dx.Mul(da, cache.Wx.T())
	dhPrev = mat.NewDense(n, hdim, nil)
	dhPrev.Mul(da, cache.Wh.T())

	grads = &Gradients{
		DWx: mat.NewDense(d, 4*hdim, nil),
		DWh: mat.NewDense(hdim, 4*hdim, nil),
		Db:  make([]float64, 4*hdim),
	}
	grads.DWx.Mul(cache.X.T(), da)
	grads.DWh.Mul(cache.HPrev.T(), da)
	for r := 0; r < n; r++ {
		floats.Add(grads.Db, da.RawRowView(r))
	}

	return dx, dhPrev, dcPrev, grads, nil
}

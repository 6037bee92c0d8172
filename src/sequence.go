package unroll

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"k8s.io/klog/v2"
)

// Forward unrolls the LSTM cell over a sequence. x holds one N×D input
// matrix per timestep, in time order. The cell state starts at zero — it
// is constructed here, never supplied by the caller, and never exposed:
// the initial hidden state h0 is the only state a caller controls.
//
// It returns one N×H hidden-state matrix per timestep (h0 itself is not
// included) and the per-step caches that Backward consumes.
func Forward(x []*mat.Dense, h0 *mat.Dense, Wx, Wh *mat.Dense, b []float64) (h []*mat.Dense, caches []*StepCache, err error) {
	if len(x) == 0 {
		return nil, nil, errors.New("unroll: Forward: empty input sequence")
	}
	n, hdim := h0.Dims()
	if klogV := klog.V(2); klogV.Enabled() {
		_, d := x[0].Dims()
		klogV.Infof("unroll: forward pass T=%d N=%d D=%d H=%d", len(x), n, d, hdim)
	}

	hPrev := h0
	cPrev := mat.NewDense(n, hdim, nil) // cell state always begins at zero

	h = make([]*mat.Dense, len(x))
	caches = make([]*StepCache, len(x))
	for t := range x {
		var cache *StepCache
		hPrev, cPrev, cache, err = StepForward(x[t], hPrev, cPrev, Wx, Wh, b)
		if err != nil {
			return nil, nil, errors.WithMessagef(err, "timestep %d", t)
		}
		h[t] = hPrev
		caches[t] = cache
	}
	return h, caches, nil
}

// Backward runs back-propagation through time over the caches produced by
// Forward. dh holds the upstream gradient of every output timestep; the
// caches must come from the matching Forward run.
//
// It returns the input gradients dx (one N×D matrix per timestep), the
// gradient dh0 w.r.t. the initial hidden state, and the parameter
// gradients summed over all timesteps.
func Backward(dh []*mat.Dense, caches []*StepCache) (dx []*mat.Dense, dh0 *mat.Dense, grads *Gradients, err error) {
	if len(caches) == 0 {
		return nil, nil, nil, errors.New("unroll: Backward: no step caches")
	}
	if len(dh) != len(caches) {
		return nil, nil, nil, errors.Errorf(
			"unroll: Backward: %d upstream gradients for %d cached steps", len(dh), len(caches))
	}

	n, hdim := caches[0].HNext.Dims()
	xd, h4 := caches[0].Wx.Dims()
	klog.V(2).Infof("unroll: backward pass T=%d N=%d D=%d H=%d", len(caches), n, xd, hdim)

	dx = make([]*mat.Dense, len(caches))
	grads = &Gradients{
		DWx: mat.NewDense(xd, h4, nil),
		DWh: mat.NewDense(hdim, h4, nil),
		Db:  make([]float64, h4),
	}

	dhCarry := mat.NewDense(n, hdim, nil)
	dcPrev := mat.NewDense(n, hdim, nil)
	for t := len(caches) - 1; t >= 0; t-- {
		dhTotal := mat.NewDense(n, hdim, nil)
		dhTotal.Add(dh[t], dhCarry)

		var stepGrads *Gradients
		dx[t], dhCarry, dcPrev, stepGrads, err = StepBackward(dhTotal, dcPrev, caches[t])
		if err != nil {
			return nil, nil, nil, errors.WithMessagef(err, "timestep %d", t)
		}

		grads.DWx.Add(grads.DWx, stepGrads.DWx)
		grads.DWh.Add(grads.DWh, stepGrads.DWh)
		floats.Add(grads.Db, stepGrads.Db)
	}

	// The gradient carried out of timestep 0 is the gradient w.r.t. h0.
	return dx, dhCarry, grads, nil
}

// Package unroll implements the forward and backward passes of a
// single-layer LSTM cell and its unrolled-sequence variants.
//
// The package computes exact reverse-mode gradients by hand rather than
// through an autodiff engine; the gradient-check oracle in this package
// exists so that callers (and the test suite) can verify the analytic
// gradients against central-difference estimates.
//
// Basic usage:
//
//	// One sequence of T timesteps, batch size N, input width D,
//	// hidden width H. Parameters are caller-owned.
//	h, caches, err := unroll.Forward(x, h0, Wx, Wh, b)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// dh holds the upstream gradient for every output timestep.
//	dx, dh0, grads, err := unroll.Backward(dh, caches)
//	if err != nil {
//		log.Fatal(err)
//	}
//
// The cell state always starts at zero; Forward constructs it internally
// and never exposes it. Only the hidden states are returned.
package unroll

// Version of the unroll library
const Version = "1.0.0"

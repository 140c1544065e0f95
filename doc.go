// Package antideriv reconstructs a function f of x from its first or
// second derivative. It integrates symbolically, fixes the integration
// constants from point conditions and zeros of f', and reports the
// critical and inflection points of the result.
//
//	res, err := antideriv.New().Reconstruct(ctx, antideriv.Request{
//		Derivative: "6*x",
//		Order:      antideriv.Second,
//		Conditions: "f(0)=0\nf'(0)=1",
//	})
//
// Expressions are handled by the exact-rational kernel in package symbolic.
package antideriv

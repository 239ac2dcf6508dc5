package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

// ErrNonPositive is returned when Box-Cox input is not strictly positive.
var ErrNonPositive = errors.New("box-cox input must be strictly positive")

// lambdaBound keeps the estimate in the range scipy searches by default.
const lambdaBound = 5.0

// BoxCoxLambda estimates the Box-Cox λ that maximizes the profile
// log-likelihood of x.
func BoxCoxLambda(x []float64) (float64, error) {
	if len(x) < 2 {
		return 0, errors.New("box-cox needs at least two values")
	}
	var sumLog float64
	for _, v := range x {
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, ErrNonPositive
		}
		sumLog += math.Log(v)
	}

	n := float64(len(x))
	y := make([]float64, len(x))
	negLLF := func(p []float64) float64 {
		lambda := p[0]
		if math.Abs(lambda) > lambdaBound {
			return math.Inf(1)
		}
		for i, v := range x {
			y[i] = BoxCox(v, lambda)
		}
		variance := stat.PopVariance(y, nil)
		if variance <= 0 || math.IsNaN(variance) {
			return math.Inf(1)
		}
		return -((lambda-1)*sumLog - n/2*math.Log(variance))
	}

	res, err := optimize.Minimize(optimize.Problem{Func: negLLF}, []float64{1}, nil, &optimize.NelderMead{})
	if err != nil {
		return 0, fmt.Errorf("box-cox optimization failed: %w", err)
	}
	lambda := res.X[0]
	if math.IsNaN(lambda) || math.IsInf(res.F, 0) {
		return 0, errors.New("box-cox optimization did not converge")
	}
	return lambda, nil
}

// BoxCox applies the transform (x^λ - 1)/λ, or log(x) when λ is zero.
func BoxCox(x, lambda float64) float64 {
	if math.Abs(lambda) < 1e-12 {
		return math.Log(x)
	}
	return (math.Pow(x, lambda) - 1) / lambda
}

package main

import "errors"

// Error taxonomy for the model. Everything here is an input-specification
// problem: deterministic, non-transient, and detected before any derived
// statistic is computed. Callers match with errors.Is.
var (
	// ErrSpecification reports malformed or dimensionally inconsistent
	// constraint or contrast input.
	ErrSpecification = errors.New("invalid specification")

	// ErrOutOfSample reports a requested time index outside the sample.
	ErrOutOfSample = errors.New("location outside the sample")

	// ErrUnsupportedLevel reports a significance level with no tabulated
	// critical values.
	ErrUnsupportedLevel = errors.New("unsupported significance level")

	// ErrUnsupportedCombination reports argument combinations the model
	// cannot honor, e.g. forecasting under linear constraints or mixing a
	// covariance override with a time-anchored test.
	ErrUnsupportedCombination = errors.New("unsupported combination of arguments")
)

package main

import (
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// --- CONSTRAINT ENCODER ---

// NewConstraints validates an explicit (R, q) pair. q may be empty (treated
// as zero), a single value broadcast across all constraint rows, or one
// value per row.
func NewConstraints(R *mat.Dense, q []float64) (*Constraints, error) {
	if R == nil {
		return nil, fmt.Errorf("%w: constraint matrix is nil", ErrSpecification)
	}
	m, k := R.Dims()
	if m == 0 || k == 0 {
		return nil, fmt.Errorf("%w: constraint matrix is %dx%d", ErrSpecification, m, k)
	}

	qv := mat.NewVecDense(m, nil)
	switch len(q) {
	case 0:
		// q = 0 for every row
	case 1:
		for i := 0; i < m; i++ {
			qv.SetVec(i, q[0])
		}
	case m:
		for i := 0; i < m; i++ {
			qv.SetVec(i, q[i])
		}
	default:
		return nil, fmt.Errorf("%w: %d constraint rows but %d constraint values",
			ErrSpecification, m, len(q))
	}

	return &Constraints{R: mat.DenseCopyOf(R), Q: qv}, nil
}

// ConstraintMatrix wraps a bare R matrix, implying q = 0.
func ConstraintMatrix(R *mat.Dense) (*Constraints, error) {
	return NewConstraints(R, nil)
}

// ParseConstraints turns a symbolic string of comma-separated equalities
// over named parameters, such as "x1 = x2, 2*x3 = 1", into an (R, q) pair.
// Each side of an equality is a sum of terms of the form name, coef*name or
// a plain number.
func ParseConstraints(expr string, names []string) (*Constraints, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no parameter names declared", ErrSpecification)
	}
	index := make(map[string]int, len(names))
	for i, name := range names {
		index[name] = i
	}
	k := len(names)

	equalities := strings.Split(expr, ",")
	if len(equalities) > k {
		return nil, fmt.Errorf("%w: %d constraints for %d parameters",
			ErrSpecification, len(equalities), k)
	}

	m := len(equalities)
	rData := make([]float64, 0, m*k)
	qData := make([]float64, 0, m)

	for _, eq := range equalities {
		sides := strings.Split(eq, "=")
		if len(sides) != 2 {
			return nil, fmt.Errorf("%w: %q is not a single equality", ErrSpecification, eq)
		}

		lhsCoef, lhsConst, err := parseLinearSide(sides[0], index, k)
		if err != nil {
			return nil, err
		}
		rhsCoef, rhsConst, err := parseLinearSide(sides[1], index, k)
		if err != nil {
			return nil, err
		}

		row := make([]float64, k)
		allZero := true
		for j := 0; j < k; j++ {
			row[j] = lhsCoef[j] - rhsCoef[j]
			if row[j] != 0 {
				allZero = false
			}
		}
		if allZero {
			return nil, fmt.Errorf("%w: %q involves no parameter", ErrSpecification, eq)
		}

		rData = append(rData, row...)
		qData = append(qData, rhsConst-lhsConst)
	}

	return &Constraints{
		R: mat.NewDense(m, k, rData),
		Q: mat.NewVecDense(m, qData),
	}, nil
}

// parseLinearSide reads one side of an equality into per-parameter
// coefficients plus a constant term.
func parseLinearSide(side string, index map[string]int, k int) ([]float64, float64, error) {
	coeffs := make([]float64, k)
	constant := 0.0

	// Normalize subtraction into signed addition so we can split on '+'.
	normalized := strings.ReplaceAll(side, "-", "+-")
	for _, chunk := range strings.Split(normalized, "+") {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		sign := 1.0
		if strings.HasPrefix(chunk, "-") {
			sign = -1.0
			chunk = strings.TrimSpace(strings.TrimPrefix(chunk, "-"))
		}
		if chunk == "" {
			return nil, 0, fmt.Errorf("%w: dangling sign in %q", ErrSpecification, side)
		}

		parts := strings.Split(chunk, "*")
		switch len(parts) {
		case 1:
			token := strings.TrimSpace(parts[0])
			if j, ok := index[token]; ok {
				coeffs[j] += sign
				continue
			}
			v, err := strconv.ParseFloat(token, 64)
			if err != nil {
				return nil, 0, fmt.Errorf("%w: unknown parameter %q", ErrSpecification, token)
			}
			constant += sign * v
		case 2:
			coefToken := strings.TrimSpace(parts[0])
			nameToken := strings.TrimSpace(parts[1])
			// Accept both coef*name and name*coef.
			if _, ok := index[coefToken]; ok {
				coefToken, nameToken = nameToken, coefToken
			}
			j, ok := index[nameToken]
			if !ok {
				return nil, 0, fmt.Errorf("%w: unknown parameter %q", ErrSpecification, nameToken)
			}
			v, err := strconv.ParseFloat(coefToken, 64)
			if err != nil {
				return nil, 0, fmt.Errorf("%w: bad coefficient %q", ErrSpecification, coefToken)
			}
			coeffs[j] += sign * v
		default:
			return nil, 0, fmt.Errorf("%w: cannot parse term %q", ErrSpecification, chunk)
		}
	}

	return coeffs, constant, nil
}

// check validates the constraints against the number of regressors.
func (c *Constraints) check(kExog int) error {
	m, k := c.R.Dims()
	if k != kExog {
		return fmt.Errorf("%w: constraint matrix has %d columns for %d regressors",
			ErrSpecification, k, kExog)
	}
	if m > kExog {
		return fmt.Errorf("%w: %d constraints exceed %d regressors",
			ErrSpecification, m, kExog)
	}
	if c.Q.Len() != m {
		return fmt.Errorf("%w: %d constraint rows but %d constraint values",
			ErrSpecification, m, c.Q.Len())
	}
	return nil
}

package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestParseConstraints_EqualCoefficients(t *testing.T) {
	names := []string{"x1", "x2", "x3"}

	cons, err := ParseConstraints("x1 = x2", names)
	require.NoError(t, err)

	m, k := cons.R.Dims()
	require.Equal(t, 1, m)
	require.Equal(t, 3, k)
	require.Equal(t, []float64{1, -1, 0}, cons.R.RawRowView(0))
	require.Equal(t, 0.0, cons.Q.AtVec(0))
}

func TestParseConstraints_ScaledAndConstant(t *testing.T) {
	names := []string{"x1", "x2", "x3"}

	// two equalities: 2*x3 = 1 and x1 = -x2
	cons, err := ParseConstraints("2*x3 = 1, x1 = -x2", names)
	require.NoError(t, err)

	m, _ := cons.R.Dims()
	require.Equal(t, 2, m)
	require.Equal(t, []float64{0, 0, 2}, cons.R.RawRowView(0))
	require.Equal(t, 1.0, cons.Q.AtVec(0))
	require.Equal(t, []float64{1, 1, 0}, cons.R.RawRowView(1))
	require.Equal(t, 0.0, cons.Q.AtVec(1))
}

func TestParseConstraints_NameTimesCoef(t *testing.T) {
	// coefficient on either side of the '*'
	cons, err := ParseConstraints("x1*3 = 2", []string{"x1", "x2"})
	require.NoError(t, err)
	require.Equal(t, []float64{3, 0}, cons.R.RawRowView(0))
	require.Equal(t, 2.0, cons.Q.AtVec(0))
}

func TestParseConstraints_UnknownName(t *testing.T) {
	_, err := ParseConstraints("x1 = x9", []string{"x1", "x2"})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrSpecification))
}

func TestParseConstraints_NoParameterInvolved(t *testing.T) {
	_, err := ParseConstraints("1 = 1", []string{"x1"})
	require.True(t, errors.Is(err, ErrSpecification))
}

func TestParseConstraints_NotAnEquality(t *testing.T) {
	_, err := ParseConstraints("x1 + x2", []string{"x1", "x2"})
	require.True(t, errors.Is(err, ErrSpecification))
}

func TestNewConstraints_BroadcastQ(t *testing.T) {
	R := mat.NewDense(2, 3, []float64{
		1, -1, 0,
		0, 1, -1,
	})

	// single q broadcast to both rows
	cons, err := NewConstraints(R, []float64{2})
	require.NoError(t, err)
	require.Equal(t, 2.0, cons.Q.AtVec(0))
	require.Equal(t, 2.0, cons.Q.AtVec(1))

	// empty q means zero
	cons, err = NewConstraints(R, nil)
	require.NoError(t, err)
	require.Equal(t, 0.0, cons.Q.AtVec(1))

	// mismatched q length fails
	_, err = NewConstraints(R, []float64{1, 2, 3})
	require.True(t, errors.Is(err, ErrSpecification))
}

func TestConstraints_MoreConstraintsThanRegressors(t *testing.T) {
	endog := []float64{1, 2, 3}
	exog := ColumnMatrix([]float64{1, 1, 1})

	cons, err := NewConstraints(mat.NewDense(2, 1, []float64{1, 2}), nil)
	require.NoError(t, err)

	_, err = NewRecursiveLS(endog, exog, nil, cons)
	require.True(t, errors.Is(err, ErrSpecification))
}

func TestConstraints_ColumnMismatch(t *testing.T) {
	endog := []float64{1, 2, 3}
	exog := ColumnMatrix([]float64{1, 1, 1})

	cons, err := NewConstraints(mat.NewDense(1, 2, []float64{1, -1}), nil)
	require.NoError(t, err)

	_, err = NewRecursiveLS(endog, exog, nil, cons)
	require.True(t, errors.Is(err, ErrSpecification))
}

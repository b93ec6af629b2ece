package main

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCSVToRegression(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	csv := "y,const,x\n" +
		"1.5,1,0.5\n" +
		",1,1.0\n" +
		"3.5,1,1.5\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	endog, exog, names, err := LoadCSVToRegression(path)
	require.NoError(t, err)

	require.Equal(t, []string{"const", "x"}, names)
	require.Len(t, endog, 3)
	require.Equal(t, 1.5, endog[0])
	require.True(t, math.IsNaN(endog[1])) // empty cell marks a missing response
	require.Equal(t, 3.5, endog[2])

	r, c := exog.Dims()
	require.Equal(t, 3, r)
	require.Equal(t, 2, c)
	require.Equal(t, 0.5, exog.At(0, 1))
	require.Equal(t, 1.0, exog.At(2, 0))
}

func TestLoadCSVToRegression_Errors(t *testing.T) {
	_, _, _, err := LoadCSVToRegression(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("y,x\n1,notanumber\n"), 0o644))
	_, _, _, err = LoadCSVToRegression(path)
	require.Error(t, err)
}

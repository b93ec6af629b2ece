package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

// LoadCSVToRegression reads a CSV file:
//
//   - The first row is a header with variable names
//   - The first column is the response, remaining columns are regressors
//   - Empty cells and "NaN" mark missing responses
//
// Returns the response series, the regressor matrix and the regressor names.
func LoadCSVToRegression(path string) (endog []float64, exog *mat.Dense, names []string, err error) {
	// 1. Open file
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	// 2. Make CSV reader
	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	// 3. Read header row
	header, err := r.Read()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 2 {
		return nil, nil, nil, fmt.Errorf("need a response column and at least one regressor in %s", path)
	}
	K := len(header) - 1 // number of regressors

	var (
		data []float64 // flat regressor data for mat.Dense
		row  int       // row counter
	)

	// 4. Read each data row
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, nil, fmt.Errorf("read row %d: %w", row+2, err) // +2 for header + 1-based
		}

		// Skip completely empty lines
		if len(record) == 1 && record[0] == "" {
			continue
		}

		if len(record) != K+1 {
			return nil, nil, nil, fmt.Errorf(
				"row %d: expected %d columns, got %d",
				row+2, K+1, len(record),
			)
		}

		y, err := parseCell(record[0])
		if err != nil {
			return nil, nil, nil, fmt.Errorf(
				"parse response at row %d (%q): %w", row+2, record[0], err,
			)
		}
		endog = append(endog, y)

		for j, s := range record[1:] {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, nil, nil, fmt.Errorf(
					"parse float at row %d col %d (%q): %w",
					row+2, j+2, s, err,
				)
			}
			data = append(data, v)
		}
		row++
	}

	if row == 0 {
		return nil, nil, nil, fmt.Errorf("no data rows in %s", path)
	}

	// 5. Build mat.Dense
	exog = mat.NewDense(row, K, data)

	return endog, exog, header[1:], nil
}

// parseCell reads one response cell; empty cells count as missing.
func parseCell(s string) (float64, error) {
	if s == "" || s == "NaN" || s == "nan" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// OutputCoefficientsToCSV writes the per-period coefficient paths with their
// standard errors, one row per observation.
func (res *RecursiveLSResult) OutputCoefficientsToCSV(path string) error {
	coeffs := res.RecursiveCoefficients()
	n, k := coeffs.Filtered.Dims()
	names := res.Model.Names

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"t"}
	for _, name := range names {
		header = append(header, name, name+"_se")
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for t := 0; t < n; t++ {
		record := []string{strconv.Itoa(t)}
		for j := 0; j < k; j++ {
			se := math.Sqrt(coeffs.FilteredCov[t].At(j, j))
			record = append(record,
				strconv.FormatFloat(coeffs.Filtered.At(t, j), 'g', -1, 64),
				strconv.FormatFloat(se, 'g', -1, 64),
			)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

// OutputCusumToCSV writes the CUSUM and CUSUM-of-squares paths with their
// significance bounds at the given level, one row per post-burn observation.
func (res *RecursiveLSResult) OutputCusumToCSV(path string, alpha float64) error {
	cusum := res.Cusum()
	squares := res.CusumSquares()
	d := res.Burn()

	points := make([]float64, len(cusum))
	for i := range points {
		points[i] = float64(d + i)
	}
	lower, upper, err := res.CusumSignificanceBounds(alpha, points)
	if err != nil {
		return err
	}
	sqLower, sqUpper, err := res.CusumSquaresSignificanceBounds(alpha, points)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"t", "cusum", "cusum_lower", "cusum_upper",
		"cusum_squares", "cusum_squares_lower", "cusum_squares_upper",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i := range cusum {
		record := []string{
			strconv.Itoa(d + i),
			strconv.FormatFloat(cusum[i], 'g', -1, 64),
			strconv.FormatFloat(lower[i], 'g', -1, 64),
			strconv.FormatFloat(upper[i], 'g', -1, 64),
			strconv.FormatFloat(squares[i], 'g', -1, 64),
			strconv.FormatFloat(sqLower[i], 'g', -1, 64),
			strconv.FormatFloat(sqUpper[i], 'g', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

// Summary prints the final coefficient estimates with their t statistics,
// followed by the fit measures.
func (res *RecursiveLSResult) Summary() error {
	k := res.Filter.KStates
	identity := mat.NewDense(k, k, nil)
	for j := 0; j < k; j++ {
		identity.Set(j, j, 1)
	}
	test, err := res.PointInTimeTest(identity, nil, nil)
	if err != nil {
		return err
	}

	fmt.Println("\n=== Recursive Least Squares ===")
	fmt.Printf("Observations: %d  (burn-in: %d, constraints: %d)\n",
		res.Filter.NObs, res.Burn(), res.Filter.KConstraints)
	fmt.Printf("%-12s %12s %12s %12s %12s\n", "variable", "coef", "std err", test.Distribution, "P>|"+test.Distribution+"|")
	for j := 0; j < k; j++ {
		fmt.Printf("%-12s %12.6f %12.6f %12.4f %12.4f\n",
			res.Model.Names[j], test.Effect[j], test.SD[j], test.Statistic[j], test.PValue[j])
	}
	fmt.Printf("Scale: %.6f  SSR: %.6f  R-squared: %.4f\n",
		res.Filter.Scale, res.SSR(), res.RSquared())
	fmt.Printf("Log-likelihood: %.4f  Recursive log-likelihood: %.4f\n",
		res.Filter.Loglikelihood, res.LLFRecursive())
	return nil
}

// PrintStabilityVerdict reports whether the CUSUM and CUSUM-of-squares paths
// stay inside their significance bounds at the given level.
func (res *RecursiveLSResult) PrintStabilityVerdict(alpha float64) error {
	cusum := res.Cusum()
	squares := res.CusumSquares()
	d := res.Burn()

	points := make([]float64, len(cusum))
	for i := range points {
		points[i] = float64(d + i)
	}
	lower, upper, err := res.CusumSignificanceBounds(alpha, points)
	if err != nil {
		return err
	}
	sqLower, sqUpper, err := res.CusumSquaresSignificanceBounds(alpha, points)
	if err != nil {
		return err
	}

	cusumStable, squaresStable := true, true
	for i := range cusum {
		if cusum[i] < lower[i] || cusum[i] > upper[i] {
			cusumStable = false
		}
		if squares[i] < sqLower[i] || squares[i] > sqUpper[i] {
			squaresStable = false
		}
	}

	fmt.Printf("\n=== Stability at alpha=%g ===\n", alpha)
	fmt.Println("CUSUM within bounds:           ", cusumStable)
	fmt.Println("CUSUM of squares within bounds:", squaresStable)
	return nil
}

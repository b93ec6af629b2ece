package main

import (
	"fmt"
	"os"
	"strconv"
)

func main() {
	// expect 1 argument: csv path; optional: constraint string, alpha
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run . <data.csv> [constraints] [alpha]")
		fmt.Println("  constraints: e.g. \"x1 = x2, 2*x3 = 1\" (\"\" for none)")
		fmt.Println("  alpha: significance level for the stability bounds (default 0.05)")
		return
	}
	path := os.Args[1]

	alpha := 0.05
	if len(os.Args) > 3 {
		v, err := strconv.ParseFloat(os.Args[3], 64)
		if err != nil {
			panic("bad alpha: " + os.Args[3])
		}
		alpha = v
	}

	// 1. Load CSV into response + regressors
	endog, exog, names, err := LoadCSVToRegression(path)
	if err != nil {
		panic(err)
	}
	fmt.Println("Loaded", len(endog), "observations on", len(names), "regressors:", names)

	// 2. Parse constraints, if any
	var cons *Constraints
	if len(os.Args) > 2 && os.Args[2] != "" {
		cons, err = ParseConstraints(os.Args[2], names)
		if err != nil {
			panic(err)
		}
		fmt.Println("Applying constraints:", os.Args[2])
	}

	// 3. Build and fit the model
	model, err := NewRecursiveLS(endog, exog, names, cons)
	if err != nil {
		panic(err)
	}
	res, err := model.Fit()
	if err != nil {
		panic(err)
	}

	// 4. Print summary
	if err := res.Summary(); err != nil {
		panic(err)
	}

	// 5. Output coefficient paths to CSV
	err = res.OutputCoefficientsToCSV("recursive_coefficients.csv")
	if err != nil {
		panic(err)
	}
	fmt.Println("Coefficient paths written to recursive_coefficients.csv")

	// 6. Output CUSUM diagnostics to CSV
	err = res.OutputCusumToCSV("cusum_results.csv", alpha)
	if err != nil {
		panic(err)
	}
	fmt.Println("CUSUM diagnostics written to cusum_results.csv")

	// 7. Print the stability verdict
	if err := res.PrintStabilityVerdict(alpha); err != nil {
		panic(err)
	}
}

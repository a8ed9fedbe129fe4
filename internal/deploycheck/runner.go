// Package deploycheck verifies that an environment is ready to run the
// server. Checks are independent; a failing or panicking check is reported
// and the rest still run.
package deploycheck

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Check is one readiness probe. Run returns a short detail on success.
type Check struct {
	Name string
	// Hint is printed when the check fails.
	Hint string
	Run  func(ctx context.Context) (string, error)
}

// Result is the outcome of one check.
type Result struct {
	Name   string
	Passed bool
	Detail string
	Hint   string
}

// Summary aggregates a run.
type Summary struct {
	Results []Result
}

// Passed returns the number of passing checks.
func (s Summary) Passed() int {
	n := 0
	for _, r := range s.Results {
		if r.Passed {
			n++
		}
	}
	return n
}

// OK reports whether every check passed.
func (s Summary) OK() bool {
	return s.Passed() == len(s.Results)
}

// NextSteps are printed when every check passes.
var NextSteps = []string{
	"Start the server: travelbuddy",
	"Open /healthz to confirm the database is reachable",
	"Set APP_ENV=production so .env files are ignored",
}

// Runner executes checks and reports to Out.
type Runner struct {
	Checks []Check
	Out    io.Writer
}

// Run executes every check in order and prints a summary.
func (r *Runner) Run(ctx context.Context) Summary {
	fmt.Fprintln(r.Out, strings.Repeat("=", 60))
	fmt.Fprintln(r.Out, "TravelBuddy deployment verification")
	fmt.Fprintln(r.Out, strings.Repeat("=", 60))

	var sum Summary
	for _, c := range r.Checks {
		res := runOne(ctx, c)
		sum.Results = append(sum.Results, res)
		if res.Passed {
			fmt.Fprintf(r.Out, "[PASS] %s: %s\n", res.Name, res.Detail)
		} else {
			fmt.Fprintf(r.Out, "[FAIL] %s: %s\n", res.Name, res.Detail)
		}
	}

	fmt.Fprintln(r.Out, strings.Repeat("=", 60))
	fmt.Fprintf(r.Out, "Checks passed: %d/%d\n", sum.Passed(), len(sum.Results))
	if sum.OK() {
		fmt.Fprintln(r.Out, "All checks passed. Next steps:")
		for i, s := range NextSteps {
			fmt.Fprintf(r.Out, "%d. %s\n", i+1, s)
		}
		return sum
	}

	fmt.Fprintln(r.Out, "Some checks failed. Suggested fixes:")
	for _, res := range sum.Results {
		if !res.Passed && res.Hint != "" {
			fmt.Fprintf(r.Out, "- %s: %s\n", res.Name, res.Hint)
		}
	}
	return sum
}

func runOne(ctx context.Context, c Check) (res Result) {
	res = Result{Name: c.Name, Hint: c.Hint}
	defer func() {
		if p := recover(); p != nil {
			res.Passed = false
			res.Detail = fmt.Sprintf("panic: %v", p)
		}
	}()

	detail, err := c.Run(ctx)
	if err != nil {
		res.Detail = err.Error()
		return res
	}
	res.Passed = true
	res.Detail = detail
	return res
}

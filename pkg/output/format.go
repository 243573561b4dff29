// Package output provides utilities for formatting and displaying matching
// results.
package output

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/kinKKKdred/Matchingnetwork/pkg/matching"
	"github.com/kinKKKdred/Matchingnetwork/pkg/nodal"
	"github.com/kinKKKdred/Matchingnetwork/pkg/units"
)

// Outcome pairs a problem name with its solver result for rendering. Checks
// optionally carries the nodal cross-check, aligned with Result.Solutions.
type Outcome struct {
	Name   string
	Result *matching.Result
	Checks []nodal.Check
}

// PrettyFormat renders a human-readable rather than machine-readable report.
// With verbose set it includes the full derivation trail of every solution.
func PrettyFormat(w io.Writer, outcomes []Outcome, verbose bool) {
	p := message.NewPrinter(language.English)
	for i, outcome := range outcomes {
		res := outcome.Result
		fmt.Fprintf(w, "--- Results for problem %s (%s network) ---\n", outcome.Name, res.Topology)
		fmt.Fprintf(w, "Z_initial = %s ohm (Gamma = %s)\n",
			units.FormatComplex(res.ZInitial), units.FormatComplex(res.GammaInitial))
		fmt.Fprintf(w, "Z_target  = %s ohm (Gamma = %s)\n",
			units.FormatComplex(res.ZTarget), units.FormatComplex(res.GammaTarget))
		p.Fprintf(w, "Z0 = %g ohm, f = %d Hz (%s)\n",
			res.Z0, int64(res.Frequency), units.FormatFrequency(res.Frequency))

		if len(res.Solutions) == 0 {
			fmt.Fprintf(w, "no solutions\n")
		}
		// The shared derivation trail is the only explanation an empty result
		// carries, so it is always shown in that case.
		if verbose || len(res.Solutions) == 0 {
			for _, step := range res.Steps {
				fmt.Fprintf(w, "  . %s\n", step)
			}
		}

		for j, sol := range res.Solutions {
			title := sol.Name
			if sol.FilterClass != matching.FilterNone {
				title += fmt.Sprintf(" (%s)", sol.FilterClass)
			}
			if sol.Q != 0 {
				title += fmt.Sprintf(" (Q = %.4g)", sol.Q)
			}
			fmt.Fprintf(w, "[%d] %s | status: %s\n", j+1, title, sol.Status)

			for _, c := range sol.Components {
				fmt.Fprintf(w, "    %s\n", c.Describe())
			}
			for _, l := range sol.Lines {
				fmt.Fprintf(w, "    %s\n", l.Describe())
			}
			if sol.Status == matching.StatusNormal {
				fmt.Fprintf(w, "    Z_out = %s ohm, residual = %.3g ohm\n",
					units.FormatComplex(sol.ZOut), sol.Residual)
			}
			if j < len(outcome.Checks) {
				check := outcome.Checks[j]
				if !check.Skipped {
					fmt.Fprintf(w, "    nodal check: Z = %s ohm, residual = %.3g ohm\n",
						units.FormatComplex(check.ZOut), check.Residual)
				}
			}
			if verbose {
				for _, step := range sol.Steps {
					fmt.Fprintf(w, "      . %s\n", step)
				}
			}
		}
		if i < len(outcomes)-1 {
			fmt.Fprintf(w, "\n")
		}
	}
}

// CsvFormat renders in comma-separated value format, one row per solution.
func CsvFormat(w io.Writer, outcomes []Outcome) {
	fmt.Fprintf(w, `"problem","topology","solution","status","filter","q","elements","z_out_ohm","residual_ohm","nodal_residual_ohm"`)
	fmt.Fprintf(w, "\n")
	for _, outcome := range outcomes {
		res := outcome.Result
		for j, sol := range res.Solutions {
			elements := make([]string, 0, len(sol.Components)+len(sol.Lines))
			for _, c := range sol.Components {
				elements = append(elements, c.Describe())
			}
			for _, l := range sol.Lines {
				elements = append(elements, l.Describe())
			}
			nodalResidual := ""
			if j < len(outcome.Checks) && !outcome.Checks[j].Skipped {
				nodalResidual = fmt.Sprintf("%.6g", outcome.Checks[j].Residual)
			}
			zOut := ""
			residual := ""
			if sol.Status == matching.StatusNormal {
				zOut = units.FormatComplex(sol.ZOut)
				residual = fmt.Sprintf("%.6g", sol.Residual)
			}
			q := ""
			if sol.Q != 0 {
				q = fmt.Sprintf("%.6g", sol.Q)
			}
			fmt.Fprintf(w, `"%s","%s","%s","%s","%s","%s","%s","%s","%s","%s"`,
				outcome.Name, res.Topology, sol.Name, sol.Status, sol.FilterClass, q,
				strings.Join(elements, "; "), zOut, residual, nodalResidual)
			fmt.Fprintf(w, "\n")
		}
	}
}

// CsvString renders the CSV report into a string, for embedding in API
// responses.
func CsvString(outcomes []Outcome) string {
	var buf bytes.Buffer
	CsvFormat(&buf, outcomes)
	return buf.String()
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/protflow/pkg/errors"
)

// ToolStatus is one row of the probe output.
type ToolStatus struct {
	Tool       string `json:"tool"`
	Available  bool   `json:"available"`
	Invocation string `json:"invocation,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// ProbeResult lists the probed tools.
type ProbeResult struct {
	Tools []ToolStatus `json:"tools"`
}

func (r ProbeResult) TableHeaders() []string {
	return []string{"TOOL", "AVAILABLE", "INVOCATION", "REASON"}
}

func (r ProbeResult) TableRows() [][]string {
	rows := make([][]string, 0, len(r.Tools))
	for _, t := range r.Tools {
		rows = append(rows, []string{t.Tool, fmt.Sprintf("%t", t.Available), t.Invocation, t.Reason})
	}
	return rows
}

func (r ProbeResult) missing() []string {
	var out []string
	for _, t := range r.Tools {
		if !t.Available {
			out = append(out, t.Tool)
		}
	}
	return out
}

func newProbeCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Report which external tools are available and how they are invoked",
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			tc := cc.probeTools(cmd.Context())
			var res ProbeResult
			for _, a := range tc.All() {
				st := ToolStatus{Tool: a.Tool, Available: a.Available, Reason: a.Reason}
				if a.Available && a.Strategy != nil {
					st.Invocation = a.Strategy.String()
				}
				res.Tools = append(res.Tools, st)
			}
			if err := PrintResult(cmd, res); err != nil {
				return err
			}

			if missing := res.missing(); strict && len(missing) > 0 {
				return errors.New(errors.ErrCodeDependencyMissing, "required tools unavailable").
					WithDetail(fmt.Sprintf("%v", missing))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when any tool is unavailable")
	return cmd
}

//Personal.AI order the ending

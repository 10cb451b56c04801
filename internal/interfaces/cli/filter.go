package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/protflow/internal/application/sequence"
)

// FilterResult lists the selected sequences.
type FilterResult struct {
	Input     string           `json:"input"`
	Output    string           `json:"output,omitempty"`
	Selected  []SelectedRecord `json:"selected"`
	Criterion string           `json:"criterion"`
}

// SelectedRecord is one kept sequence.
type SelectedRecord struct {
	ID     string `json:"id"`
	Length int    `json:"length"`
}

func (r FilterResult) TableHeaders() []string { return []string{"ID", "LENGTH"} }

func (r FilterResult) TableRows() [][]string {
	rows := make([][]string, 0, len(r.Selected))
	for _, s := range r.Selected {
		rows = append(rows, []string{s.ID, fmt.Sprintf("%d", s.Length)})
	}
	return rows
}

func newFilterCmd() *cobra.Command {
	var (
		out  string
		opts = sequence.DefaultFilterOptions()
	)
	cmd := &cobra.Command{
		Use:   "filter <fasta>",
		Short: "Select sequences by length for structure prediction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			// Unset flags fall back to the prediction section of the config.
			p := cc.Config.Prediction
			if !cmd.Flags().Changed("min-len") {
				opts.MinLen = p.MinLen
			}
			if !cmd.Flags().Changed("max-len") {
				opts.MaxLen = p.MaxLen
			}
			if !cmd.Flags().Changed("limit") {
				opts.Limit = p.Limit
			}
			if !cmd.Flags().Changed("sort") {
				opts.SortByLength = p.SortByLength
			}

			kept, err := sequence.FilterFile(args[0], out, opts, cc.Logger)
			if err != nil {
				return err
			}

			res := FilterResult{
				Input:     args[0],
				Output:    out,
				Selected:  make([]SelectedRecord, 0, len(kept)),
				Criterion: fmt.Sprintf("%d <= length <= %d", opts.MinLen, opts.MaxLen),
			}
			for _, r := range kept {
				res.Selected = append(res.Selected, SelectedRecord{ID: r.ID, Length: r.Len()})
			}
			return PrintResult(cmd, res)
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "write the selection as FASTA to this path")
	cmd.Flags().IntVar(&opts.MinLen, "min-len", sequence.DefaultMinLen, "minimum sequence length")
	cmd.Flags().IntVar(&opts.MaxLen, "max-len", sequence.DefaultMaxLen, "maximum sequence length")
	cmd.Flags().IntVar(&opts.Limit, "limit", sequence.DefaultLimit, "maximum sequences kept; 0 keeps all")
	cmd.Flags().BoolVar(&opts.SortByLength, "sort", true, "longest sequences first")
	return cmd
}

//Personal.AI order the ending

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/scorefusion/internal/combine"
	"github.com/Aman-CERP/scorefusion/internal/normalize"
	"github.com/Aman-CERP/scorefusion/internal/ui"
)

type techniqueListing struct {
	Normalization []normalize.Info `json:"normalization"`
	Combination   []combine.Info   `json:"combination"`
}

func newTechniquesCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "techniques",
		Short: "List normalization and combination techniques",
		RunE: func(cmd *cobra.Command, _ []string) error {
			listing := techniqueListing{
				Normalization: normalize.Catalog(),
				Combination:   combine.Catalog(),
			}
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), listing)
			}

			w := ui.NewWriter(cmd.OutOrStdout())
			s := w.Styles()
			section := func(title string, rows [][3]string) {
				w.Print(s.Header.Render(title) + "\n")
				for _, r := range rows {
					w.Print(fmt.Sprintf("  %s  %s\n", s.Doc.Render(fmt.Sprintf("%-38s", r[0])), r[1]))
					if r[2] != "" {
						w.Print(fmt.Sprintf("  %-38s  %s\n", "", s.Dim.Render("params: "+r[2])))
					}
				}
			}

			var rows [][3]string
			for _, info := range listing.Normalization {
				rows = append(rows, [3]string{info.Name, info.Description, strings.Join(info.Params, ", ")})
			}
			section("Normalization", rows)
			w.Newline()

			rows = rows[:0]
			for _, info := range listing.Combination {
				rows = append(rows, [3]string{info.Name, info.Description, strings.Join(info.Params, ", ")})
			}
			section("Combination", rows)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

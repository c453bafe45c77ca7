package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/AndreyAkinshin/closeness/internal/errors"
	"github.com/AndreyAkinshin/closeness/pkg/closeness"
	"github.com/AndreyAkinshin/closeness/pkg/tensor"
)

func (a *app) tolerancesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tolerances [DTYPE...]",
		Short: "Print the default tolerances per dtype",
		Long: `Print the rtol and atol that assert_close uses when none are given.

With several dtypes the last row shows the tolerances of the combination,
which is the loosest of the individual pairs.`,
		RunE: func(_ *cobra.Command, args []string) error {
			dtypes := tensor.DTypes()
			if len(args) > 0 {
				dtypes = dtypes[:0:0]
				for _, name := range args {
					d, err := tensor.ParseDType(name)
					if err != nil {
						return errors.Configf("%v (run 'closeness tolerances' for the known dtypes)", err)
					}
					dtypes = append(dtypes, d)
				}
			}

			rows := make([][]string, 0, len(dtypes)+1)
			for _, d := range dtypes {
				rtol, atol := closeness.DefaultTolerances(d)
				rows = append(rows, []string{d.String(), formatTolerance(rtol), formatTolerance(atol)})
			}
			if len(args) > 1 {
				rtol, atol := closeness.DefaultTolerances(dtypes...)
				rows = append(rows, []string{"combined", formatTolerance(rtol), formatTolerance(atol)})
			}
			a.out.Table([]string{"DType", "RTol", "ATol"}, rows)
			return nil
		},
	}
}

func formatTolerance(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

package cmd

import (
	"fmt"

	"github.com/jsphweid/voicelead/constants"
	"github.com/jsphweid/voicelead/db"
	"github.com/spf13/cobra"
)

// openStore connects to the run-report table.
var openStore = func() (*db.Store, error) {
	return db.NewStore(constants.GetDynamoEndpoint(), constants.GetReportTable())
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report <run-id>...",
	Short: "Prints recorded run reports",
	Long: `Prints run reports stored by "generate --record"

Example: voicelead report 3f1b7f3e-6a55-4f4e-9b7b-0c8f1d0e2a11`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		reports, err := store.GetReports(args)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		var missing []string
		for _, id := range args {
			r, ok := reports[id]
			if !ok {
				missing = append(missing, id)
				continue
			}
			printReport(out, &r)
		}
		if len(missing) > 0 {
			return fmt.Errorf("no report for %v", missing)
		}
		return nil
	},
}

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tracklog/tracklog-client/pkg/models"
)

var (
	historyFrom string
	historyTo   string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Fetch the server-side call history",
	RunE: func(cmd *cobra.Command, _ []string) error {
		from := time.Now()
		to := time.Now()
		var err error

		if historyFrom != "" {
			from, err = time.ParseInLocation(models.HistoryDateLayout, historyFrom, time.Local)
			if err != nil {
				return fmt.Errorf("invalid --from date, expected DD-MM-YYYY: %w", err)
			}
		}
		if historyTo != "" {
			to, err = time.ParseInLocation(models.HistoryDateLayout, historyTo, time.Local)
			if err != nil {
				return fmt.Errorf("invalid --to date, expected DD-MM-YYYY: %w", err)
			}
		}

		records, err := svc.History(cmd.Context(), from, to)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No history for this range.")
			return nil
		}

		for _, r := range records {
			fmt.Printf("%-8s %-15s %-20s %s  %ds\n",
				r.CallType, r.PhoneNumber, r.Name, r.DateTime, r.Duration)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyFrom, "from", "", "start date (DD-MM-YYYY), default today")
	historyCmd.Flags().StringVar(&historyTo, "to", "", "end date (DD-MM-YYYY), default today")
	rootCmd.AddCommand(historyCmd)
}

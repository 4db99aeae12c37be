package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/Harvester/internal/scheduler"
)

// NewScheduleCmd создаёт группу команд для расписания.
func NewScheduleCmd(outputFn func() *Output, now func() time.Time) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Inspect cron schedules",
	}

	cmd.AddCommand(newScheduleNextCmd(outputFn, now))

	return cmd
}

func newScheduleNextCmd(outputFn func() *Output, now func() time.Time) *cobra.Command {
	var count int
	var tz string

	cmd := &cobra.Command{
		Use:   "next CRON_EXPR",
		Short: "Show next run times of a cron expression",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			if err := scheduler.ValidateSpec(args[0]); err != nil {
				return err
			}
			loc, err := time.LoadLocation(tz)
			if err != nil {
				return fmt.Errorf("invalid --tz: %w", err)
			}
			if count <= 0 {
				return fmt.Errorf("--count must be positive")
			}

			runs := make([]string, 0, count)
			rows := make([][]string, 0, count)
			from := now()
			for i := 0; i < count; i++ {
				next, err := scheduler.NextRun(args[0], from, loc)
				if err != nil {
					return err
				}
				runs = append(runs, next.Format(time.RFC3339))
				rows = append(rows, []string{fmt.Sprint(i + 1), next.Format(time.RFC3339)})
				from = next
			}

			out.Print([]string{"#", "NEXT_RUN"}, rows, runs)
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 5, "Number of run times to show")
	cmd.Flags().StringVar(&tz, "tz", scheduler.DefaultTimezone, "Schedule timezone")

	return cmd
}

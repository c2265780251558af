package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/omarqouqas/cashflowforecaster/jobs"
	"github.com/omarqouqas/cashflowforecaster/notify"
)

func newJobsCommand(g *globalFlags) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Run a batch job once",
	}
	jobsCmd.AddCommand(newJobRunCommand(g, "alerts", "Send low-balance alerts", (*jobs.Runner).RunAlerts))
	jobsCmd.AddCommand(newJobRunCommand(g, "digest", "Send the weekly digest", (*jobs.Runner).RunDigest))
	return jobsCmd
}

func newJobRunCommand(g *globalFlags, use, short string, run func(*jobs.Runner, context.Context) (jobs.Summary, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.load()
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			runner := jobs.NewRunner(cfg, store, notify.NewSender(cfg.SMTP, logger), logger)
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			summary, err := run(runner, ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", use, summary)
			return nil
		},
	}
}

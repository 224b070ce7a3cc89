package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/symptia/internal/history"
	"github.com/ppiankov/symptia/internal/pipeline"
)

var (
	historyLimit int
	historyMD    bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse stored analyses (requires history.database_url)",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent analyses",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, closeRepo, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = closeRepo() }()

		reports, err := repo.List(cmd.Context(), historyLimit)
		if err != nil {
			return fmt.Errorf("list analyses: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCREATED\tURGENCY\tTOP CONDITION")
		for _, r := range reports {
			top := "-"
			if m, ok := r.Result.TopMatch(); ok {
				top = fmt.Sprintf("%s (%d%%)", m.Name, m.Confidence)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.ID, r.CreatedAt.Format("2006-01-02 15:04"), r.Result.Urgency, top)
		}
		return w.Flush()
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one stored analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid analysis ID: %w", err)
		}

		repo, closeRepo, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = closeRepo() }()

		report, err := repo.GetByID(cmd.Context(), id)
		if err != nil {
			return err
		}

		renderer := pipeline.NewRenderer(viper.GetBool("output.include_footer"))
		if historyMD {
			fmt.Fprint(cmd.OutOrStdout(), renderer.Markdown(report))
			return nil
		}
		renderer.RenderSummary(cmd.OutOrStdout(), report)
		return nil
	},
}

// openHistory opens the configured store. Without a database URL the
// in-memory store would always be empty, so that is an error here.
func openHistory(cmd *cobra.Command) (history.Repository, func() error, error) {
	cfg, err := effectiveConfig(cmd, nil)
	if err != nil {
		return nil, nil, err
	}
	if cfg.History.DatabaseURL == "" {
		fmt.Fprintln(os.Stderr, "Set history.database_url (or SYMPTIA_HISTORY_DATABASE_URL) to keep analyses between runs.")
		return nil, nil, fmt.Errorf("history database is not configured")
	}
	return history.Open(cmd.Context(), cfg.History)
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)

	historyListCmd.Flags().IntVar(&historyLimit, "limit", history.DefaultListLimit, "max analyses to list")
	historyShowCmd.Flags().BoolVar(&historyMD, "md", false, "print as Markdown")
}

package commands

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/doeshing/promptcraft/internal/app"
	"github.com/doeshing/promptcraft/internal/application/crafter"
	"github.com/doeshing/promptcraft/internal/domain"
	"github.com/doeshing/promptcraft/internal/infrastructure/cli/helpers"
	"github.com/doeshing/promptcraft/internal/infrastructure/history"
)

const dateLayout = "2006-01-02"

// NewHistoryCommand exposes the CLI history store: listing, lookup and export.
func NewHistoryCommand(container *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse and manage generated prompts",
	}

	cmd.AddCommand(
		newHistoryListCommand(container),
		newHistorySearchCommand(container),
		newHistoryFilterCommand(container),
		newHistoryLoadCommand(container),
		newHistoryDeleteCommand(container),
		newHistoryClearCommand(container),
		newHistoryExportCommand(container),
		newHistoryPathCommand(container),
	)

	return cmd
}

// historyService returns the crafter when history is enabled.
func historyService(container *app.Container) (*crafter.Service, error) {
	if container.Crafter == nil {
		return nil, fmt.Errorf(ErrCrafterUnavailable)
	}
	if container.Crafter.History == nil {
		return nil, fmt.Errorf(ErrHistoryDisabled)
	}
	return container.Crafter, nil
}

func newHistoryListCommand(container *app.Container) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent history entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listHistoryEntries(cmd.OutOrStdout(), container, "", domain.HistoryFilter{}, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", domain.DefaultHistoryLimit, "Max entries to show (0 for all)")
	return cmd
}

func newHistorySearchCommand(container *app.Container) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search inputs and outputs for a keyword (case-insensitive)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := helpers.ReadInput(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return listHistoryEntries(cmd.OutOrStdout(), container, query, domain.HistoryFilter{}, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", domain.DefaultHistoryLimit, "Max entries to show (0 for all)")
	return cmd
}

func newHistoryFilterCommand(container *app.Container) *cobra.Command {
	var (
		query      string
		service    string
		model      string
		creativity string
		from       string
		to         string
		limit      int
	)

	cmd := &cobra.Command{
		Use:     "filter",
		Short:   "Filter history by backend, model, creativity or date",
		Example: "  promptcraft history filter --service ollama --from 2025-03-01",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := domain.HistoryFilter{Model: model, Creativity: creativity}
			if service != "" {
				parsed, err := domain.ParseService(service)
				if err != nil {
					return err
				}
				filter.Service = string(parsed)
			}
			var err error
			if filter.From, err = parseDate("from", from); err != nil {
				return err
			}
			if filter.To, err = parseDate("to", to); err != nil {
				return err
			}
			return listHistoryEntries(cmd.OutOrStdout(), container, query, filter, limit)
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "Keyword that must appear in input or output")
	cmd.Flags().StringVar(&service, "service", "", "ollama|lmstudio")
	cmd.Flags().StringVar(&model, "model", "", "Exact model name")
	cmd.Flags().StringVar(&creativity, "creativity", "", "precise|balanced|creative")
	cmd.Flags().StringVar(&from, "from", "", "Earliest day, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "Latest day, YYYY-MM-DD")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max entries to show (0 for all)")
	return cmd
}

func newHistoryLoadCommand(container *app.Container) *cobra.Command {
	var (
		by         string
		index      int
		term       string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Show one stored entry in full",
		Example: `  promptcraft history load
  promptcraft history load --by index --index 3
  promptcraft history load --by search --term lighthouse`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := historyService(container)
			if err != nil {
				return err
			}
			sel := domain.HistorySelector{By: domain.HistorySelectMode(by), Index: index, Term: term}
			entry, err := svc.LoadHistory(cmd.Context(), sel)
			if err != nil {
				return err
			}
			if jsonOutput {
				return helpers.WriteJSON(cmd.OutOrStdout(), entry)
			}
			helpers.RenderHistoryEntry(cmd.OutOrStdout(), entry)
			return nil
		},
	}

	cmd.Flags().StringVar(&by, "by", string(domain.SelectLatest), "latest|index|search")
	cmd.Flags().IntVar(&index, "index", 0, "Entry index as shown by 'history list' (with --by index)")
	cmd.Flags().StringVar(&term, "term", "", "Keyword to look for (with --by search)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the entry as JSON")
	return cmd
}

func newHistoryDeleteCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <index>",
		Short: "Delete the entry at an index shown by 'history list'",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("%w: index must be a number, got %q", domain.ErrInvalidOption, args[0])
			}
			svc, err := historyService(container)
			if err != nil {
				return err
			}
			if err := svc.DeleteHistory(index); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted entry %d\n", index)
			return nil
		},
	}
}

func newHistoryClearCommand(container *app.Container) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every history entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := historyService(container)
			if err != nil {
				return err
			}
			if !yes && !helpers.PromptForConfirmation(cmd.OutOrStdout(), cmd.InOrStdin(), "Clear all history entries?") {
				fmt.Fprintln(cmd.OutOrStdout(), MsgClearCancelled)
				return nil
			}
			if err := svc.ClearHistory(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), MsgHistoryCleared)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func newHistoryExportCommand(container *app.Container) *cobra.Command {
	var (
		format string
		dir    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export history to a timestamped JSON or CSV file",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := historyService(container)
			if err != nil {
				return err
			}
			if dir == "" {
				dir = container.Config.History.ExportDir
			}
			path, err := svc.ExportHistory(format, dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", history.FormatJSON, "json|csv")
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Destination directory (default: history.export_dir)")
	return cmd
}

func newHistoryPathCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where history is stored",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := historyService(container)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), svc.HistoryPath())
			return nil
		},
	}
}

func listHistoryEntries(out io.Writer, container *app.Container, query string, filter domain.HistoryFilter, limit int) error {
	svc, err := historyService(container)
	if err != nil {
		return err
	}
	entries, err := svc.ListHistory(query, filter)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, MsgNoHistoryRecorded)
		return nil
	}
	return helpers.RenderHistory(out, entries, limit)
}

func parseDate(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(dateLayout, value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: --%s must be YYYY-MM-DD, got %q", domain.ErrInvalidOption, name, value)
	}
	return t, nil
}

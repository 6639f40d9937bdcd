package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/vorrawut/poon-ai-service-sub001/internal/cli"
	"github.com/vorrawut/poon-ai-service-sub001/internal/common"
	"github.com/vorrawut/poon-ai-service-sub001/internal/model"
	"github.com/vorrawut/poon-ai-service-sub001/internal/service"
	"github.com/vorrawut/poon-ai-service-sub001/internal/tui"
)

const flagDateLayout = "2006-01-02"

func entriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "entries",
		Aliases: []string{"entry"},
		Short:   "Browse and edit stored spending entries",
	}

	cmd.AddCommand(entriesListCmd())
	cmd.AddCommand(entriesGetCmd())
	cmd.AddCommand(entriesUpdateCmd())
	cmd.AddCommand(entriesDeleteCmd())
	cmd.AddCommand(entriesStatsCmd())
	cmd.AddCommand(entriesLogsCmd())
	cmd.AddCommand(entriesReviewCmd())

	return cmd
}

func entriesListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd.Context(), features{storage: true})
			if err != nil {
				return err
			}
			defer app.Close()

			filter, err := entryFilterFromFlags(cmd, app.settings.Location)
			if err != nil {
				return err
			}

			entries, err := app.store.ListEntries(cmd.Context(), filter)
			if err != nil {
				return fmt.Errorf("failed to list entries: %w", err)
			}
			if entries == nil {
				entries = []model.SpendingEntry{}
			}

			return emit(cmd.OutOrStdout(), entries, func() string {
				if len(entries) == 0 {
					return cli.FormatInfo("No entries found")
				}
				return cli.RenderEntryTable(entries)
			})
		},
	}

	cmd.Flags().String("category", "", "only entries in this category")
	cmd.Flags().String("from", "", "only entries on or after this date (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "only entries on or before this date (YYYY-MM-DD)")
	cmd.Flags().Int("limit", 50, "maximum number of entries")
	cmd.Flags().Int("offset", 0, "number of entries to skip")

	return cmd
}

// entryFilterFromFlags builds a list filter. --to covers the whole day.
func entryFilterFromFlags(cmd *cobra.Command, loc *time.Location) (service.EntryFilter, error) {
	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")
	filter := service.EntryFilter{Limit: limit, Offset: offset}

	if raw, _ := cmd.Flags().GetString("category"); raw != "" {
		category, ok := model.ParseCategory(raw)
		if !ok {
			return filter, common.NewUserError(fmt.Sprintf("Unknown category %q", raw), common.ErrInvalidInput)
		}
		filter.Category = &category
	}

	if raw, _ := cmd.Flags().GetString("from"); raw != "" {
		from, err := time.ParseInLocation(flagDateLayout, raw, loc)
		if err != nil {
			return filter, common.NewUserError("--from must be YYYY-MM-DD", err)
		}
		filter.StartDate = &from
	}

	if raw, _ := cmd.Flags().GetString("to"); raw != "" {
		to, err := time.ParseInLocation(flagDateLayout, raw, loc)
		if err != nil {
			return filter, common.NewUserError("--to must be YYYY-MM-DD", err)
		}
		end := to.AddDate(0, 0, 1).Add(-time.Nanosecond)
		filter.EndDate = &end
	}

	return filter, nil
}

func entriesGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context(), features{storage: true})
			if err != nil {
				return err
			}
			defer app.Close()

			entry, err := app.store.GetEntry(cmd.Context(), args[0])
			if err != nil {
				return notFound(args[0], err)
			}

			return emit(cmd.OutOrStdout(), entry, func() string {
				return cli.RenderEntry(*entry)
			})
		},
	}
}

func entriesUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Correct the merchant, category or description of an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			update, err := entryUpdateFromFlags(cmd)
			if err != nil {
				return err
			}

			app, err := newApp(cmd.Context(), features{storage: true})
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.store.UpdateEntry(cmd.Context(), args[0], update); err != nil {
				return notFound(args[0], err)
			}

			entry, err := app.store.GetEntry(cmd.Context(), args[0])
			if err != nil {
				return notFound(args[0], err)
			}

			return emit(cmd.OutOrStdout(), entry, func() string {
				return cli.RenderEntry(*entry) + "\n" + cli.FormatSuccess("Entry updated")
			})
		},
	}

	cmd.Flags().String("merchant", "", "new merchant name")
	cmd.Flags().String("category", "", "new category")
	cmd.Flags().String("subcategory", "", "new subcategory")
	cmd.Flags().String("description", "", "new description")
	cmd.Flags().String("confidence", "", "new confidence between 0 and 1")

	return cmd
}

// entryUpdateFromFlags sets only the fields whose flags were given.
func entryUpdateFromFlags(cmd *cobra.Command) (service.EntryUpdate, error) {
	var update service.EntryUpdate
	flags := cmd.Flags()

	if flags.Changed("merchant") {
		v, _ := flags.GetString("merchant")
		update.Merchant = &v
	}
	if flags.Changed("category") {
		raw, _ := flags.GetString("category")
		category, ok := model.ParseCategory(raw)
		if !ok {
			return update, common.NewUserError(fmt.Sprintf("Unknown category %q", raw), common.ErrInvalidInput)
		}
		update.Category = &category
	}
	if flags.Changed("subcategory") {
		v, _ := flags.GetString("subcategory")
		update.Subcategory = &v
	}
	if flags.Changed("description") {
		v, _ := flags.GetString("description")
		update.Description = &v
	}
	if flags.Changed("confidence") {
		raw, _ := flags.GetString("confidence")
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 || v > 1 {
			return update, common.NewUserError("--confidence must be a number between 0 and 1", common.ErrInvalidInput)
		}
		update.Confidence = &v
	}

	if update == (service.EntryUpdate{}) {
		return update, common.NewUserError("Nothing to update; pass at least one field flag", common.ErrInvalidInput)
	}
	return update, nil
}

func entriesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an entry and its processing logs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context(), features{storage: true})
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.store.DeleteEntry(cmd.Context(), args[0]); err != nil {
				return notFound(args[0], err)
			}

			return emit(cmd.OutOrStdout(), map[string]string{"deleted": args[0]}, func() string {
				return cli.FormatSuccess("Deleted entry " + args[0])
			})
		},
	}
}

func entriesStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the stored entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd.Context(), features{storage: true})
			if err != nil {
				return err
			}
			defer app.Close()

			stats, err := app.store.GetStatistics(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to compute statistics: %w", err)
			}

			return emit(cmd.OutOrStdout(), stats, func() string {
				return cli.RenderStatistics(stats)
			})
		},
	}
}

func entriesLogsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logs ID",
		Short: "Show the processing history of an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context(), features{storage: true})
			if err != nil {
				return err
			}
			defer app.Close()

			logs, err := app.store.GetProcessingLogs(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to load processing logs: %w", err)
			}

			return emit(cmd.OutOrStdout(), logs, func() string {
				return cli.RenderProcessingLogs(logs)
			})
		},
	}
}

func notFound(id string, err error) error {
	if errors.Is(err, common.ErrNotFound) {
		return common.NewUserError(fmt.Sprintf("No entry with id %s", id), err)
	}
	return err
}

func entriesReviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Interactively confirm categories of low-confidence entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			below, _ := cmd.Flags().GetFloat64("below")

			app, err := newApp(cmd.Context(), features{storage: true})
			if err != nil {
				return err
			}
			defer app.Close()

			filter, err := entryFilterFromFlags(cmd, app.settings.Location)
			if err != nil {
				return err
			}

			entries, err := app.store.ListEntries(cmd.Context(), filter)
			if err != nil {
				return fmt.Errorf("failed to list entries: %w", err)
			}

			var pending []model.SpendingEntry
			for _, entry := range entries {
				if entry.Confidence < below {
					pending = append(pending, entry)
				}
			}
			if len(pending) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Nothing needs review"))
				return nil
			}

			result, err := tui.Run(cmd.Context(), pending, app.store, app.engine.SuggestCategories)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
				fmt.Sprintf("Reviewed %d entries, corrected %d", result.Reviewed, result.Updated)))
			return nil
		},
	}

	cmd.Flags().Float64("below", 0.8, "review entries with confidence below this value")
	cmd.Flags().String("category", "", "only entries in this category")
	cmd.Flags().String("from", "", "only entries on or after this date (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "only entries on or before this date (YYYY-MM-DD)")
	cmd.Flags().Int("limit", 200, "maximum number of entries to consider")
	cmd.Flags().Int("offset", 0, "number of entries to skip")

	return cmd
}

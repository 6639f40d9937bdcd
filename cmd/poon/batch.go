package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vorrawut/poon-ai-service-sub001/internal/cli"
	"github.com/vorrawut/poon-ai-service-sub001/internal/common"
	"github.com/vorrawut/poon-ai-service-sub001/internal/engine"
)

func batchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch FILE.csv",
		Short: "Import spending rows from a CSV file",
		Long: `Import spending rows from a CSV file with a header row. Recognized
columns are amount or total, merchant or description, category and date;
every column is kept in the entry's raw text.`,
		Args: cobra.ExactArgs(1),
		RunE: runBatch,
	}

	cmd.Flags().Bool("enhance", false, "ask the language model about low-confidence rows")
	cmd.Flags().Bool("save", false, "store the entries in the database")
	cmd.Flags().Int("workers", 0, "concurrent rows (default from batch.workers)")

	return cmd
}

func runBatch(cmd *cobra.Command, args []string) error {
	enhance, _ := cmd.Flags().GetBool("enhance")
	save, _ := cmd.Flags().GetBool("save")
	workers, _ := cmd.Flags().GetInt("workers")

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open batch file: %w", err)
	}
	defer func() { _ = f.Close() }()

	columns, rows, err := readRows(f)
	if err != nil {
		return err
	}

	if workers > 0 {
		viper.Set("batch.workers", workers)
	}

	app, err := newApp(cmd.Context(), features{ai: enhance, storage: save})
	if err != nil {
		return err
	}
	defer app.Close()

	req := engine.BatchRequest{
		Rows:          rows,
		Columns:       columns,
		EnhanceWithAI: enhance,
		Save:          save,
	}
	if !jsonOutput() {
		progress := cli.NewBatchProgress(cmd.ErrOrStderr(), len(rows))
		req.Progress = progress.Set
	}

	entries, err := app.engine.ProcessBatch(cmd.Context(), req)
	if err != nil {
		return err
	}

	return emit(cmd.OutOrStdout(), entries, func() string {
		summary := cli.FormatSuccess(fmt.Sprintf("Processed %d rows", len(entries)))
		if save {
			summary = cli.FormatSuccess(fmt.Sprintf("Processed and saved %d rows", len(entries)))
		}
		return cli.RenderEntryTable(entries) + "\n" + summary
	})
}

// readRows reads a CSV file with a header row into column-keyed rows. Header
// names are lowercased and trimmed; blank lines are skipped.
func readRows(r io.Reader) ([]string, []map[string]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, common.NewUserError("batch file is empty", common.ErrInvalidInput)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read row %d: %w", len(rows)+2, err)
		}

		row := make(map[string]string, len(columns))
		empty := true
		for i, value := range record {
			if i >= len(columns) {
				break
			}
			value = strings.TrimSpace(value)
			if value != "" {
				empty = false
			}
			row[columns[i]] = value
		}
		if !empty {
			rows = append(rows, row)
		}
	}

	if len(rows) == 0 {
		return nil, nil, common.NewUserError("batch file has no rows", common.ErrInvalidInput)
	}
	return columns, rows, nil
}

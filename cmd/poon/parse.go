package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vorrawut/poon-ai-service-sub001/internal/cli"
	"github.com/vorrawut/poon-ai-service-sub001/internal/common"
	"github.com/vorrawut/poon-ai-service-sub001/internal/engine"
	"github.com/vorrawut/poon-ai-service-sub001/internal/model"
)

func parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse TEXT...",
		Short: "Extract spending fields from text",
		Long: `Extract amount, merchant, category, date and payment method from
Thai or English text. Results are cached by text and language.

With --ai-only the text is sent straight to the language model.`,
		Example: `  poon parse "กาแฟ สตาร์บัคส์ 120 บาท"
  poon parse --lang en "Lunch at MK 450 baht by card"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runParse,
	}

	cmd.Flags().String("lang", "auto", "text language (th, en, auto)")
	cmd.Flags().Bool("no-ai", false, "never escalate to the language model")
	cmd.Flags().Bool("ai-only", false, "skip local extraction and ask the language model")

	return cmd
}

func runParse(cmd *cobra.Command, args []string) error {
	lang, _ := cmd.Flags().GetString("lang")
	noAI, _ := cmd.Flags().GetBool("no-ai")
	aiOnly, _ := cmd.Flags().GetBool("ai-only")

	if noAI && aiOnly {
		return common.NewUserError("--no-ai and --ai-only cannot be combined", common.ErrInvalidInput)
	}

	app, err := newApp(cmd.Context(), features{ai: !noAI})
	if err != nil {
		return err
	}
	defer app.Close()

	req := engine.TextRequest{
		Text:            strings.Join(args, " "),
		Language:        lang,
		DisableFallback: noAI,
	}

	var result model.ExtractionResult
	if aiOnly {
		result, err = app.engine.ParseWithAI(cmd.Context(), req)
	} else {
		result, err = app.engine.ParseText(cmd.Context(), req)
	}
	if err != nil {
		return err
	}

	return emit(cmd.OutOrStdout(), result, func() string { return cli.RenderExtraction(result) })
}

func textCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "text TEXT...",
		Short: "Turn a spending message into an entry",
		Long: `Turn a typed or dictated spending message into a complete spending
entry. Use --save to store it.`,
		Example: `  poon text --save "ค่าแท็กซี่ 85 บาท เงินสด"`,
		Args:    cobra.MinimumNArgs(1),
		RunE:    runText,
	}

	cmd.Flags().String("lang", "auto", "text language (th, en, auto)")
	cmd.Flags().Bool("no-ai", false, "never escalate to the language model")
	cmd.Flags().Bool("save", false, "store the entry in the database")

	return cmd
}

func runText(cmd *cobra.Command, args []string) error {
	lang, _ := cmd.Flags().GetString("lang")
	noAI, _ := cmd.Flags().GetBool("no-ai")
	save, _ := cmd.Flags().GetBool("save")

	app, err := newApp(cmd.Context(), features{ai: !noAI, storage: save})
	if err != nil {
		return err
	}
	defer app.Close()

	entry, err := app.engine.ProcessText(cmd.Context(), engine.TextRequest{
		Text:            strings.Join(args, " "),
		Language:        lang,
		DisableFallback: noAI,
		Save:            save,
	})
	if err != nil {
		return err
	}

	return emit(cmd.OutOrStdout(), entry, func() string { return renderSaved(entry, save) })
}

func receiptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "receipt IMAGE",
		Short: "Recognize a receipt photo and turn it into an entry",
		Args:  cobra.ExactArgs(1),
		RunE:  runReceipt,
	}

	cmd.Flags().String("lang", "auto", "receipt language (th, en, auto)")
	cmd.Flags().Bool("no-ai", false, "never escalate to the language model")
	cmd.Flags().Bool("save", false, "store the entry in the database")

	return cmd
}

func runReceipt(cmd *cobra.Command, args []string) error {
	lang, _ := cmd.Flags().GetString("lang")
	noAI, _ := cmd.Flags().GetBool("no-ai")
	save, _ := cmd.Flags().GetBool("save")

	image, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read receipt: %w", err)
	}

	app, err := newApp(cmd.Context(), features{ai: !noAI, ocr: true, storage: save})
	if err != nil {
		return err
	}
	defer app.Close()

	entry, err := app.engine.ProcessReceipt(cmd.Context(), engine.ReceiptRequest{
		Image:           image,
		Language:        lang,
		DisableFallback: noAI,
		Save:            save,
		Metadata:        map[string]any{"file": args[0]},
	})
	if err != nil {
		return err
	}

	return emit(cmd.OutOrStdout(), entry, func() string { return renderSaved(entry, save) })
}

func renderSaved(entry model.SpendingEntry, saved bool) string {
	card := cli.RenderEntry(entry)
	if saved {
		return card + "\n" + cli.FormatSuccess("Saved")
	}
	return card
}

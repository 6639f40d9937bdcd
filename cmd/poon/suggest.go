package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vorrawut/poon-ai-service-sub001/internal/cli"
)

func suggestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest MERCHANT",
		Short: "Suggest categories for a merchant",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			description, _ := cmd.Flags().GetString("description")

			app, err := newApp(cmd.Context(), features{})
			if err != nil {
				return err
			}
			defer app.Close()

			suggestions := app.engine.SuggestCategories(strings.Join(args, " "), description)
			return emit(cmd.OutOrStdout(), suggestions, func() string {
				return cli.RenderSuggestions(suggestions)
			})
		},
	}

	cmd.Flags().String("description", "", "free-form description to weigh alongside the merchant")

	return cmd
}

func normalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize MERCHANT",
		Short: "Print the canonical name of a merchant",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context(), features{})
			if err != nil {
				return err
			}
			defer app.Close()

			input := strings.Join(args, " ")
			name := app.engine.NormalizeMerchant(input)
			return emit(cmd.OutOrStdout(), map[string]string{"input": input, "merchant": name}, func() string {
				return fmt.Sprintf("%s %s", cli.LabelStyle.Render("Merchant"), name)
			})
		},
	}
}

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"supportbot/internal/entities"
	"supportbot/internal/routing"
	"supportbot/internal/usecases"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			fmt.Println("schema is up to date")
			return nil
		},
	}
}

func newIngestCmd() *cobra.Command {
	var appendMode bool
	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Load FAQ entries from a PDF, TXT or CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			uc := usecases.NewFAQUsecase(a.faqs, a.escalations, a.catalog, a.log)
			res, err := uc.Import(cmd.Context(), filepath.Base(args[0]), data, !appendMode)
			if err != nil {
				return err
			}
			mode := "replaced the active set"
			if !res.Replaced {
				mode = "appended"
			}
			fmt.Printf("%s: parsed %d, stored %d, %s\n", res.Source, res.Parsed, res.Stored, mode)
			return nil
		},
	}
	cmd.Flags().BoolVar(&appendMode, "append", false, "keep existing entries instead of replacing them")
	return cmd
}

func newAskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <message>",
		Short: "Route a single message and print the decision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			assistant, err := a.assistant(ctx)
			if err != nil {
				return err
			}
			res, err := a.router(assistant).Route(ctx, routing.Request{Message: args[0], SessionID: "cli"}, a.catalog.Entries())
			if err != nil {
				return err
			}
			printDecision(res)
			return nil
		},
	}
}

func printDecision(res routing.Result) {
	label := color.New(color.Bold)
	typ := color.New(color.FgGreen, color.Bold)
	switch res.ResponseType {
	case entities.ResponseAIGenerated:
		typ = color.New(color.FgCyan, color.Bold)
	case entities.ResponseEscalated:
		typ = color.New(color.FgYellow, color.Bold)
	}

	label.Print("type:       ")
	typ.Println(res.ResponseType)
	label.Print("confidence: ")
	fmt.Printf("%.2f\n", res.Confidence)
	if res.MatchedFAQID != 0 {
		label.Print("faq id:     ")
		fmt.Println(res.MatchedFAQID)
	}
	if res.Category != "" {
		label.Print("category:   ")
		fmt.Println(res.Category)
	}
	if res.RequiresEscalation {
		label.Print("escalation: ")
		color.Red("%s (priority %s)", res.EscalationReason, res.Priority)
	}
	fmt.Println()
	fmt.Println(res.ResponseText)
}

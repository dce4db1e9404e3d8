package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-builder/internal/completion"
	"github.com/jonathan/resume-builder/internal/importer"
	"github.com/jonathan/resume-builder/internal/localstore"
	"github.com/jonathan/resume-builder/internal/store"
	"github.com/jonathan/resume-builder/internal/types"
)

var importTitle string

var importCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Normalize a raw resume file into the local document slot",
	Long:  `Read a raw resume JSON export, run it through the normalization pipeline, and write the canonical result into the local state directory.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	importCmd.Flags().StringVar(&importTitle, "title", "Imported Resume", "Title for the imported document")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse import file: %w", err)
	}

	doc, err := importer.Normalize(raw)
	if err != nil {
		var rejection *importer.RejectionError
		if errors.As(err, &rejection) {
			fmt.Fprintln(os.Stderr, "Import rejected:")
			for _, reason := range rejection.Reasons {
				fmt.Fprintf(os.Stderr, "  - %s\n", reason)
			}
			return fmt.Errorf("raw payload failed structural validation")
		}
		return err
	}

	local, err := localstore.Open(cfg.StateDir)
	if err != nil {
		return fmt.Errorf("failed to open state dir: %w", err)
	}
	res := local.Save(cmd.Context(), doc, store.SaveOptions{
		Title:        importTitle,
		TemplateID:   types.DefaultTemplateID,
		SectionOrder: types.SectionKeys(),
		Progress:     completion.Progress(doc),
	})
	if !res.OK() {
		return fmt.Errorf("failed to save imported document: %s", res.Reason)
	}

	fmt.Printf("Imported %q into %s\n", importTitle, cfg.StateDir)
	printProgress(completion.Progress(doc))
	return nil
}

func printProgress(progress map[string]bool) {
	keys := make([]string, 0, len(progress))
	for key := range progress {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fmt.Println("Section completion:")
	for _, key := range keys {
		mark := " "
		if progress[key] {
			mark = "x"
		}
		fmt.Printf("  [%s] %s\n", mark, key)
	}
}

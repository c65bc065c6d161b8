package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/theirongolddev/subtrack/internal/logging"
	"github.com/theirongolddev/subtrack/internal/model"
	"github.com/theirongolddev/subtrack/internal/transfer"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	flagExportFormat  string
	flagExportOutput  string
	flagImportFormat  string
	flagImportReplace bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write subscriptions as JSON, YAML or XLSX",
	Example: `  subtrack export > subs.json
  subtrack export -o subs.xlsx
  subtrack export --format yaml`,
	RunE: runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Load subscriptions from a JSON, YAML or XLSX file",
	Long: "Load subscriptions from a file. By default its records are appended as\n" +
		"new subscriptions; with --replace the file becomes the whole collection.",
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	exportCmd.Flags().StringVarP(&flagExportFormat, "format", "f", "", "json, yaml or xlsx (default: from -o extension, else json)")
	exportCmd.Flags().StringVarP(&flagExportOutput, "output", "o", "", "Output file (default: stdout)")
	importCmd.Flags().StringVarP(&flagImportFormat, "format", "f", "", "json, yaml or xlsx (default: from file extension)")
	importCmd.Flags().BoolVar(&flagImportReplace, "replace", false, "Replace the collection, keeping the file's ids")
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}

func resolveFormat(flag, path string, fallback transfer.Format) (transfer.Format, error) {
	if flag != "" {
		return transfer.ParseFormat(flag)
	}
	if path != "" && path != "-" {
		return transfer.FormatFromPath(path)
	}
	if fallback == "" {
		return "", fmt.Errorf("%w: pass --format", transfer.ErrUnknownFormat)
	}
	return fallback, nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	format, err := resolveFormat(flagExportFormat, flagExportOutput, transfer.FormatJSON)
	if err != nil {
		return err
	}

	e, err := openEnv(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer e.Close()

	var w io.Writer = os.Stdout
	if flagExportOutput != "" && flagExportOutput != "-" {
		f, err := os.Create(flagExportOutput)
		if err != nil {
			return fmt.Errorf("creating %s: %w", flagExportOutput, err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	bw := bufio.NewWriter(w)
	subs := e.repo.List()
	if err := transfer.Encode(bw, format, subs); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if flagExportOutput != "" && flagExportOutput != "-" {
		progress("  Exported %d subscriptions to %s\n", len(subs), flagExportOutput)
	}
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	path := args[0]
	format, err := resolveFormat(flagImportFormat, path, "")
	if err != nil {
		return err
	}

	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening %s: %w", path, err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	subs, err := transfer.Decode(bufio.NewReader(r), format)
	if err != nil {
		return err
	}

	e, err := openEnv(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer e.Close()

	log := logging.For("import").With("file", path, "format", string(format))
	if !flagImportReplace {
		drafts := make([]model.Draft, len(subs))
		for i, s := range subs {
			drafts[i] = s.Draft()
		}
		if _, err := e.repo.AddAll(cmd.Context(), drafts); err != nil {
			return err
		}
		log.Info("subscriptions merged", "count", len(subs))
		fmt.Printf("  Imported %d subscriptions (%d total)\n", len(subs), e.repo.Len())
		return nil
	}

	for i := range subs {
		if subs[i].ID == "" {
			subs[i].ID = uuid.New().String()
		}
	}
	if err := e.repo.Replace(cmd.Context(), subs); err != nil {
		return err
	}
	log.Info("collection replaced", "count", len(subs))
	fmt.Printf("  Replaced collection with %d subscriptions\n", len(subs))
	return nil
}

package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/expenselens/backend/internal/service"
)

func init() {
	rootCmd.AddCommand(ingestCmd)
}

var ingestCmd = &cobra.Command{
	Use:   "ingest FILE...",
	Short: "Extract and store documents from local files",
	Long: `Run one or more local invoice/receipt files through extraction,
normalization, and validation, store the results, and print each record
as JSON. Records that need review list their pending questions.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	documents := service.NewDocumentService(cfg, st, newExtractor(cfg))
	defer documents.Close()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		doc, err := documents.Ingest(cmd.Context(), data, filepath.Base(path))
		if err != nil {
			return fmt.Errorf("ingest %s: %w", path, err)
		}
		if err := enc.Encode(doc); err != nil {
			return err
		}
	}
	return nil
}

package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/expenselens/backend/internal/service"
)

func init() {
	rootCmd.AddCommand(detectCmd)
}

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Scan stored documents for recurring expense patterns",
	Long: `Scan all stored documents for recurring expense candidates and print
them as JSON, ordered by next expected date. Uses the configured store,
so point --config at a SQLite-backed deployment to scan real data.`,
	RunE: runDetect,
}

func runDetect(cmd *cobra.Command, args []string) error {
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

	candidates, err := documents.RecurringCandidates(cmd.Context())
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(candidates)
}

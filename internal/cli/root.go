package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const asciiLogo = `     _       _                 _
  __| |_   _| | ___   __ _  __| |
 / _` + "`" + ` \ \ / / |/ _ \ / _` + "`" + ` |/ _` + "`" + ` |
| (_| |\ V /| | (_) | (_| | (_| |
 \__,_| \_/ |_|\___/ \__,_|\__,_|`

var rootCmd = &cobra.Command{
	Use:   "dvload",
	Short: "Load enrichment and RNA-seq analysis results into PostgreSQL",
	Long: asciiLogo + `

dvload migrates bioinformatics pipeline output into PostgreSQL for the
visualization site: pathway-enrichment JSON files go into a single shared
table, and per-comparison differential-expression CSV files each get their
own table with a schema derived from the CSV header.

Both commands are idempotent: enrichment rows upsert on their natural key,
and gene rows upsert on gene_id, so re-running a migration refreshes data
instead of duplicating it.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration or parameters
  11 - Database connection failed
  12 - User denied clear approval
  13 - Migration produced no usable output
  14 - Source directory or input files not found`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo()
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	// -h is taken by --host on the migration commands, so help keeps only
	// its long form.
	rootCmd.PersistentFlags().Bool("help", false, "Help for dvload")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
	rootCmd.PersistentFlags().String("env-file", "",
		"Path to an env file loaded before connection resolution (default: ./.env)")
}

// loadEnvFile loads the env file named by --env-file, or ./.env when unset.
// A missing default .env is fine; a missing named file is an error.
func loadEnvFile(cmd *cobra.Command) error {
	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil || envFile == "" {
		_ = godotenv.Load()
		return nil
	}
	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", envFile, err)
	}
	return nil
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}

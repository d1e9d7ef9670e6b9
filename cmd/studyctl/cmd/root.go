package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	envFile    string
	policyFile string
)

var rootCmd = &cobra.Command{
	Use:   "studyctl",
	Short: "StudyCore operator CLI",
	Long: `studyctl manages StudyCore accounts and checks navigation policy files.
Database commands read DATABASE_URL from the environment or --env-file.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load(envFile)
		if policyFile == "" {
			policyFile = os.Getenv("POLICY_FILE")
		}
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env.local", "dotenv file to load before running")
	rootCmd.PersistentFlags().StringVar(&policyFile, "policy", "", "navigation policy whose role hierarchy applies (default: built-in, or POLICY_FILE)")
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(policyCmd)
}

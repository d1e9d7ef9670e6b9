package cmd

import (
	"context"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/StudyCore/studycore/internal/seeds"
)

var seedPassword string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo accounts and homework into a development database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		hierarchy, err := activeHierarchy()
		if err != nil {
			return err
		}
		ds, err := seeds.LoadDemo(hierarchy)
		if err != nil {
			return err
		}

		d, err := openDB()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		if err := seeds.SeedAll(ctx, d, ds, seedPassword); err != nil {
			return err
		}
		pterm.Success.Printf("Demo data loaded; every account uses password %q\n", seedPassword)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedPassword, "password", "studycore", "password for every demo account")
	rootCmd.AddCommand(seedCmd)
}

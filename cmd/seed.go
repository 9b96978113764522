/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/chorsey/apiserver/config"
	"github.com/chorsey/apiserver/internal/db"
	"github.com/chorsey/apiserver/internal/store"
	"github.com/spf13/cobra"
)

// seedCmd loads the demo household into postgres.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the demo household into the database",
	Long: `Loads the demo users, assets and tasks into postgres. Records that
already exist are left untouched, so the command can be run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		conn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer conn.Close()

		err = store.DemoDataset().Load(
			cmd.Context(),
			store.NewUserRepository(conn),
			store.NewAssetRepository(conn),
			store.NewTaskRepository(conn),
		)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "demo household loaded")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

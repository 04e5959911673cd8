package main

import (
	"github.com/spf13/cobra"
)

func schemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Create or drop the storage tables",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "create",
			Short: "Create tables if they don't exist",
			RunE: func(cmd *cobra.Command, args []string) error {
				store, closeStore, err := openStore(cmd.Context(), cfg.Storage)
				if err != nil {
					return err
				}
				defer closeStore()
				if err := store.CreateSchema(cmd.Context()); err != nil {
					return err
				}
				good.Println("schema created")
				return nil
			},
		},
		&cobra.Command{
			Use:   "drop",
			Short: "Drop every flowboard table",
			RunE: func(cmd *cobra.Command, args []string) error {
				store, closeStore, err := openStore(cmd.Context(), cfg.Storage)
				if err != nil {
					return err
				}
				defer closeStore()
				if err := store.DropSchema(cmd.Context()); err != nil {
					return err
				}
				good.Println("schema dropped")
				return nil
			},
		},
	)
	return cmd
}

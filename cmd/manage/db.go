// cmd/manage/db.go
package main

import (
	"github.com/spf13/cobra"

	"github.com/javajoker/storefront-backend/internal/database"
)

func newDBCommand() *cobra.Command {
	db := &cobra.Command{
		Use:   "db",
		Short: "Database maintenance",
	}

	db.AddCommand(
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update the schema",
			RunE: func(cmd *cobra.Command, args []string) error {
				conn, err := database.Initialize(cfg.Database)
				if err != nil {
					return err
				}
				defer database.Close(conn)

				return database.RunMigrations(conn)
			},
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Insert the default users and sample catalogue",
			RunE: func(cmd *cobra.Command, args []string) error {
				conn, err := database.Initialize(cfg.Database)
				if err != nil {
					return err
				}
				defer database.Close(conn)

				if err := database.RunMigrations(conn); err != nil {
					return err
				}
				return database.SeedInitialData(conn)
			},
		},
	)

	return db
}

// Package migrate applies the database schema
package migrate

import (
	"github.com/spf13/cobra"

	"fjacquet/txledger/cmd/root"
)

// Cmd represents the migrate command
var Cmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create missing tables and indexes",
	Long:  `Create missing tables and indexes. Safe to run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := root.GetContainer(cmd.Context())
		if err != nil {
			return err
		}
		if err := c.GetStore().Migrate(cmd.Context()); err != nil {
			return err
		}
		c.GetLogger().Info("Schema is up to date")
		return nil
	},
}

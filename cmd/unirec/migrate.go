package main

import (
	"github.com/spf13/cobra"
)

func (c *cli) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.env.migrate(cmd.Context(), c.cfg.Database, c.logger); err != nil {
				return system(err, "migrate")
			}
			return nil
		},
	}
}

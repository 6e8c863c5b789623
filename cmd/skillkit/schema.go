package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillkit/pkg/catalog"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of a catalog entry",
	RunE: func(cmd *cobra.Command, _ []string) error {
		data, err := catalog.SchemaJSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

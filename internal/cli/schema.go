package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/symptia/internal/server"
)

var schemaCmd = &cobra.Command{
	Use:   "schema [intake|report|extract]",
	Short: "Print the JSON Schema of the API documents",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		schemas := server.Schemas()

		var v any = schemas
		if len(args) == 1 {
			s, ok := schemas[args[0]]
			if !ok {
				names := make([]string, 0, len(schemas))
				for name := range schemas {
					names = append(names, name)
				}
				sort.Strings(names)
				return fmt.Errorf("unknown schema %q (available: %s)", args[0], strings.Join(names, ", "))
			}
			v = s
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}

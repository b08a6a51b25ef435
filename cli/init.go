package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aledsdavies/fora/internal/scaffold"
	"github.com/aledsdavies/fora/pkgs/ferrors"
)

// newInitCommand builds `fora init <kind>`, writing one of the
// starter directory layouts into the current directory. Unlike the
// rest of the CLI surface, this subcommand never touches a registry
// or an inventory -- it only writes files, so it is wired up
// separately from NewRootCommand's RunE.
func newInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init <kind>",
		Short: "scaffold a starter deploy project",
		Long: fmt.Sprintf("scaffold a starter deploy project. kind is one of: %s",
			joinKinds(scaffold.Kinds)),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := scaffold.Kind(args[0])
			if err := scaffold.Write(".", kind); err != nil {
				return ferrors.Usage("%v (expected one of: %s)", err, joinKinds(scaffold.Kinds))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s starter project to .\n", kind)
			return nil
		},
	}
	return cmd
}

func joinKinds(kinds []scaffold.Kind) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

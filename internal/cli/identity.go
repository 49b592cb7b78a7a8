package cli

import (
	"io"

	"github.com/spf13/cobra"
	"github.com/stemsi/scholardist/internal/identity"
)

// IdentityResult describes a checked address.
type IdentityResult struct {
	Input     string `json:"input"`
	Canonical string `json:"canonical"`
	Checksum  string `json:"checksum"`
}

// NewIdentityCommand creates the identity command group.
func NewIdentityCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "identity",
		Short: "Inspect wallet identities",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "check <address>",
		Short: "Validate an address and print its canonical and checksummed forms",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			canonical, err := identity.Normalize(args[0])
			if err != nil {
				return err
			}
			res := IdentityResult{
				Input:     args[0],
				Canonical: canonical,
				Checksum:  identity.Checksum(canonical),
			}
			return emit(cmd.OutOrStdout(), rootOpts.Format, res, func(w io.Writer) error {
				return textLine(w, "canonical: %s\nchecksum:  %s", res.Canonical, res.Checksum)
			})
		},
	})

	return cmd
}

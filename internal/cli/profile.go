package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Lllllllleong/jobboard/internal/services"
)

func newProfileCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "profile", Short: "Show or change the signed-in profile"}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the signed-in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap := opts.app.Session.Snapshot()
			if !snap.IsAuthenticated() {
				return services.ErrNotSignedIn
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "User ID:      %s\n", snap.UserID)
			fmt.Fprintf(out, "Email:        %s\n", snap.Email)
			fmt.Fprintf(out, "Display name: %s\n", snap.DisplayName)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set-name NAME",
		Short: "Save a new display name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(strings.Join(args, " "))
			if name == "" {
				return fmt.Errorf("display name must not be empty")
			}
			if err := opts.app.Profiles.SetDisplayName(cmd.Context(), name); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Display name set to %s\n", name)
			return nil
		},
	})
	return cmd
}

package main

import (
	"github.com/spf13/cobra"

	profileUC "github.com/khoahotran/provenpro/internal/application/usecase/profile"
)

func newProfileCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show the profile and its field history",
	}

	var (
		refresh   bool
		profileID string
	)
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the profile snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			core, err := openCore(cmd.Context(), flags, false)
			if err != nil {
				return err
			}
			defer core.Close()

			out, err := core.Profile.ExecuteFetch(cmd.Context(), profileUC.FetchInput{ProfileID: profileID, Force: refresh})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out.Snapshot)
		},
	}
	show.Flags().BoolVar(&refresh, "refresh", false, "ignore the mirrored snapshot")
	show.Flags().StringVar(&profileID, "profile-id", "", "fetch another profile")

	var limit int
	history := &cobra.Command{
		Use:   "history <field>",
		Short: "List archived values of one profile field",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := openCore(cmd.Context(), flags, true)
			if err != nil {
				return err
			}
			defer core.Close()

			if _, err := core.Profile.ExecuteFetch(cmd.Context(), profileUC.FetchInput{}); err != nil {
				return err
			}
			out, err := core.Profile.ExecuteHistory(cmd.Context(), profileUC.HistoryInput{Field: args[0], Limit: limit})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out.Entries)
		},
	}
	history.Flags().IntVar(&limit, "limit", 20, "maximum number of entries")

	cmd.AddCommand(show, history)
	return cmd
}

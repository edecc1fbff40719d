package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"nabscan/internal/store"
)

func newGroupsCommand(ctx *commandContext) *cobra.Command {
	groupsCmd := &cobra.Command{
		Use:   "groups",
		Short: "Manage scanned newsgroups",
	}
	groupsCmd.AddCommand(newGroupsListCommand(ctx))
	groupsCmd.AddCommand(newGroupsAddCommand(ctx))
	groupsCmd.AddCommand(newGroupsActiveCommand(ctx, "activate", true))
	groupsCmd.AddCommand(newGroupsActiveCommand(ctx, "deactivate", false))
	return groupsCmd
}

func newGroupsListCommand(ctx *commandContext) *cobra.Command {
	var activeOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List newsgroups and their article cursors",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				var (
					groups []store.Group
					err    error
				)
				if activeOnly {
					groups, err = st.ActiveGroups(cmd.Context())
				} else {
					groups, err = st.ListGroups(cmd.Context())
				}
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(groups) == 0 {
					fmt.Fprintln(out, "No groups configured")
					return nil
				}
				rows := make([][]string, 0, len(groups))
				for _, g := range groups {
					rows = append(rows, []string{
						g.Name,
						yesNo(g.Active),
						strconv.FormatInt(g.First, 10),
						strconv.FormatInt(g.Last, 10),
					})
				}
				printTable(out, []string{"Group", "Active", "First", "Last"}, rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight})
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&activeOnly, "active", false, "Only list active groups")
	return cmd
}

func newGroupsAddCommand(ctx *commandContext) *cobra.Command {
	var inactive bool

	cmd := &cobra.Command{
		Use:   "add NAME...",
		Short: "Add newsgroups (active unless --inactive)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				out := cmd.OutOrStdout()
				for _, name := range args {
					name = strings.TrimSpace(name)
					if name == "" {
						continue
					}
					g, err := st.AddGroup(cmd.Context(), name, !inactive)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Added %s (active: %s)\n", g.Name, yesNo(g.Active))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&inactive, "inactive", false, "Add the groups without activating them")
	return cmd
}

func newGroupsActiveCommand(ctx *commandContext, use string, active bool) *cobra.Command {
	short := "Include newsgroups in scan cycles"
	if !active {
		short = "Exclude newsgroups from scan cycles"
	}
	return &cobra.Command{
		Use:   use + " NAME...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				out := cmd.OutOrStdout()
				for _, name := range args {
					err := st.SetGroupActive(cmd.Context(), strings.TrimSpace(name), active)
					if errors.Is(err, store.ErrNotFound) {
						return fmt.Errorf("group %s not found; add it with 'nabscan groups add %s'", name, name)
					}
					if err != nil {
						return fmt.Errorf("%s %s: %w", use, name, err)
					}
					fmt.Fprintf(out, "%s: active %s\n", name, yesNo(active))
				}
				return nil
			})
		},
	}
}

package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"nabscan/internal/store"
)

var errDatabaseUnhealthy = errors.New("database check failed")

func newDBCommand(ctx *commandContext) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Index database utilities",
	}
	dbCmd.AddCommand(newDBCheckCommand(ctx))
	return dbCmd
}

func newDBCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check schema version, foreign keys and integrity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				health, err := st.CheckHealth(cmd.Context())
				if err != nil {
					return err
				}
				missing := "none"
				if len(health.MissingTables) > 0 {
					missing = strings.Join(health.MissingTables, ", ")
				}
				rows := [][]string{
					{"Path", health.DBPath},
					{"Exists", yesNo(health.DatabaseExists)},
					{"Readable", yesNo(health.DatabaseReadable)},
					{"Schema version", strconv.Itoa(health.SchemaVersion)},
					{"Missing tables", missing},
					{"Foreign keys", yesNo(health.ForeignKeys)},
					{"Integrity check", yesNo(health.IntegrityCheck)},
				}
				if health.Error != "" {
					rows = append(rows, []string{"Error", health.Error})
				}
				out := cmd.OutOrStdout()
				printTable(out, []string{"Check", "Result"}, rows, nil)
				if !healthy(health) {
					return errDatabaseUnhealthy
				}
				fmt.Fprintln(out, "Database healthy")
				return nil
			})
		},
	}
}

func healthy(h store.DatabaseHealth) bool {
	return h.DatabaseExists && h.DatabaseReadable && len(h.MissingTables) == 0 &&
		h.ForeignKeys && h.IntegrityCheck && h.Error == ""
}

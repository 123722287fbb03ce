package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"sprocket/internal/session"
)

func newSessionCommand(ctx *commandContext) *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect and manage recorded ingest sessions",
	}

	sessionCmd.AddCommand(newSessionListCommand(ctx))
	sessionCmd.AddCommand(newSessionShowCommand(ctx))
	sessionCmd.AddCommand(newSessionClearCommand(ctx))

	return sessionCmd
}

func (c *commandContext) withStore(fn func(*session.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := session.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func newSessionListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded sessions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *session.Store) error {
				sessions, err := store.ListSessions(cmd.Context())
				if err != nil {
					return err
				}
				if len(sessions) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No sessions recorded.")
					return nil
				}

				headers := []string{"ID", "Project", "Source", "Path", "Instances", "Created"}
				rows := make([][]string, 0, len(sessions))
				for _, s := range sessions {
					rows = append(rows, []string{
						strconv.FormatInt(s.ID, 10),
						s.Project,
						s.SourceKind,
						s.SourcePath,
						strconv.Itoa(s.InstanceCount),
						s.CreatedAt.Format("2006-01-02 15:04:05"),
					})
				}
				aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, aligns))
				return nil
			})
		},
	}
}

func newSessionShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show the instances of one session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid session id %q", args[0])
			}
			return ctx.withStore(func(store *session.Store) error {
				found, err := store.GetSession(cmd.Context(), id)
				if err != nil {
					return err
				}
				if found == nil {
					return fmt.Errorf("session %d not found", id)
				}
				instances, err := store.Instances(cmd.Context(), id)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Session %d: project %s, %s ingest of %s\n",
					found.ID, found.Project, found.SourceKind, found.SourcePath)
				fmt.Fprintln(out, renderInstanceTable(instances))
				return nil
			})
		},
	}
}

func newSessionClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *session.Store) error {
				if err := store.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Sessions cleared.")
				return nil
			})
		},
	}
}

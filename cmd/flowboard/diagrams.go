package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/meikuraledutech/flowboard"
	"github.com/meikuraledutech/flowboard/redisfeed"
)

func diagramsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "diagrams",
		Aliases: []string{"d"},
		Short:   "Inspect stored diagrams",
	}
	cmd.AddCommand(diagramsListCmd(), diagramsShowCmd(), diagramsDeleteCmd(), diagramsWatchCmd())
	return cmd
}

func diagramsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored diagrams",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := openStore(cmd.Context(), cfg.Storage)
			if err != nil {
				return err
			}
			defer closeStore()

			list, err := store.ListDiagrams(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				subtle.Println("  no diagrams")
				return nil
			}
			printSummaries(cmd.OutOrStdout(), list)
			return nil
		},
	}
}

func printSummaries(w io.Writer, list []flowboard.DiagramSummary) {
	headers := []string{"ID", "NAME", "NODES", "EDGES", "UPDATED"}
	rows := make([][]string, len(list))
	for i, d := range list {
		rows[i] = []string{d.ID, d.Name, strconv.Itoa(d.NodeCount), strconv.Itoa(d.EdgeCount), d.UpdatedAt.Local().Format(time.DateTime)}
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], len(cell))
		}
	}

	header, sep := "  ", "  "
	for i, h := range headers {
		header += fmt.Sprintf("%-*s  ", widths[i], h)
		sep += strings.Repeat("\u2500", widths[i]) + "  "
	}
	subtle.Fprintln(w, header)
	subtle.Fprintln(w, sep)
	for _, row := range rows {
		line := "  "
		for i, cell := range row {
			line += fmt.Sprintf("%-*s  ", widths[i], cell)
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}

func diagramsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a diagram as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := openStore(cmd.Context(), cfg.Storage)
			if err != nil {
				return err
			}
			defer closeStore()

			d, err := store.GetDiagram(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if d == nil {
				return fmt.Errorf("diagram %q not found", args[0])
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(d)
		},
	}
}

func diagramsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored diagram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := openStore(cmd.Context(), cfg.Storage)
			if err != nil {
				return err
			}
			defer closeStore()

			if err := store.DeleteDiagram(cmd.Context(), args[0]); err != nil {
				return err
			}
			good.Printf("deleted %s\n", args[0])
			return nil
		},
	}
}

func diagramsWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <id>",
		Short: "Follow live changes to a diagram through the Redis feed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Redis.Addr == "" {
				return errors.New("redis.addr (or REDIS_ADDR) is not set")
			}
			rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
			defer rdb.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			out := cmd.OutOrStdout()
			err := redisfeed.Watch(ctx, rdb, cfg.Redis.Prefix, args[0], func(s flowboard.Snapshot) error {
				sel := "-"
				switch {
				case s.Selection.NodeID != "":
					sel = "node " + s.Selection.NodeID
				case s.Selection.EdgeID != "":
					sel = "edge " + s.Selection.EdgeID
				}
				fmt.Fprintf(out, "%s v%d  %d nodes  %d edges  selected: %s\n",
					subtle.Sprint(time.Now().Format(time.TimeOnly)), s.Version, len(s.Nodes), len(s.Edges), sel)
				return nil
			})
			if ctx.Err() != nil {
				return nil
			}
			return err
		},
	}
}


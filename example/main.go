package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meikuraledutech/flowboard"
	"github.com/meikuraledutech/flowboard/memory"
	"github.com/meikuraledutech/flowboard/postgres"
)

func main() {
	ctx := context.Background()

	// Postgres when DATABASE_URL is set, otherwise an in-memory store.
	var store flowboard.Store = memory.New()
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		pool, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			log.Fatalf("connect: %v", err)
		}
		defer pool.Close()
		store = postgres.New(pool)
	}

	if err := store.CreateSchema(ctx); err != nil {
		log.Fatalf("schema: %v", err)
	}

	ed := flowboard.NewEditor("onboarding-flow", flowboard.WithName("Onboarding"))

	// ── Sidebar: add three nodes ──────────────────────────────────────
	var ids []string
	for i, t := range []flowboard.NodeType{flowboard.NodeInput, flowboard.NodeDefault, flowboard.NodeOutput} {
		snap, err := ed.Dispatch(ctx, flowboard.CreateNode{
			Type:     t,
			Position: flowboard.Position{X: 0, Y: float64(i) * 100},
		})
		if err != nil {
			log.Fatalf("add node: %v", err)
		}
		ids = append(ids, snap.Created)
	}

	// ── Canvas: connect them ──────────────────────────────────────────
	for i := 0; i+1 < len(ids); i++ {
		if _, err := ed.Dispatch(ctx, flowboard.Connect{
			Connection: flowboard.Connection{Source: ids[i], Target: ids[i+1]},
		}); err != nil {
			log.Fatalf("connect: %v", err)
		}
	}

	// ── Panel: relabel the middle node ────────────────────────────────
	snap, err := ed.Dispatch(ctx, flowboard.SelectNode{ID: ids[1]})
	if err != nil {
		log.Fatalf("select: %v", err)
	}
	form := *snap.NodeForm
	form.Label = "Collect details"
	form.BackgroundColor = "#8B5CF6"
	if _, err := ed.Dispatch(ctx, flowboard.StageNodeForm{Form: form}); err != nil {
		log.Fatalf("stage: %v", err)
	}
	if _, err := ed.Dispatch(ctx, flowboard.ApplyPanel{}); err != nil {
		log.Fatalf("apply: %v", err)
	}

	// ── Persist and reload ────────────────────────────────────────────
	if err := ed.Save(ctx, store); err != nil {
		log.Fatalf("save: %v", err)
	}
	d, err := store.GetDiagram(ctx, "onboarding-flow")
	if err != nil {
		log.Fatalf("get: %v", err)
	}
	fmt.Println("diagram saved:")
	printJSON(d)

	// ── Delete the input node; its edge goes with it ──────────────────
	snap, err = ed.Dispatch(ctx, flowboard.DeleteNode{ID: ids[0]})
	if err != nil {
		log.Fatalf("delete: %v", err)
	}
	fmt.Printf("\nafter delete: %d nodes, %d edges\n", len(snap.Nodes), len(snap.Edges))

	if err := store.DeleteDiagram(ctx, "onboarding-flow"); err != nil {
		log.Fatalf("cleanup: %v", err)
	}
	fmt.Println("diagram deleted")
}

func printJSON(v any) {
	out, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(out))
}

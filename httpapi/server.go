// Package httpapi exposes diagram editors over HTTP for the browser canvas.
package httpapi

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/logger"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/meikuraledutech/flowboard"
	"github.com/meikuraledutech/flowboard/metrics"
)

// Options configures a Server.
type Options struct {
	Store   flowboard.Store
	Logger  *slog.Logger
	Metrics *metrics.Recorder // nil disables /metrics
	// Observers are subscribed to every editor the server opens.
	Observers []flowboard.Observer
	AccessLog bool
}

// Server is the HTTP API.
type Server struct {
	app   *fiber.App
	hub   *Hub
	store flowboard.Store
	log   *slog.Logger
	rec   *metrics.Recorder
}

// New builds the fiber app and registers every route.
func New(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	var edOpts []flowboard.Option
	for _, o := range opts.Observers {
		edOpts = append(edOpts, flowboard.WithObserver(o))
	}

	s := &Server{
		// Params are kept as ids after the request returns.
		app:   fiber.New(fiber.Config{AppName: "flowboard", Immutable: true}),
		hub:   NewHub(opts.Store, log, opts.Metrics, edOpts...),
		store: opts.Store,
		log:   log,
		rec:   opts.Metrics,
	}
	s.app.Use(recoverer.New())
	if opts.AccessLog {
		s.app.Use(logger.New())
	}
	s.routes()
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App { return s.app }

// Hub returns the editor hub.
func (s *Server) Hub() *Hub { return s.hub }

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.log.Info("listening", "addr", addr)
	return s.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
}

// Shutdown stops accepting requests and saves dirty diagrams.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.app.ShutdownWithContext(ctx)
	if saveErr := s.hub.SaveAll(ctx); saveErr != nil {
		err = errors.Join(err, saveErr)
	}
	return err
}

func (s *Server) routes() {
	app := s.app

	// ── Schema ────────────────────────────────────────────────────────
	app.Post("/schema", func(c fiber.Ctx) error {
		if err := s.store.CreateSchema(c.Context()); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"message": "schema created"})
	})

	app.Delete("/schema", func(c fiber.Ctx) error {
		if err := s.store.DropSchema(c.Context()); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"message": "schema dropped"})
	})

	if s.rec != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(s.rec.Registry, promhttp.HandlerOpts{})))
	}

	// ── Diagrams ──────────────────────────────────────────────────────
	app.Get("/diagrams", func(c fiber.Ctx) error {
		list, err := s.store.ListDiagrams(c.Context())
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(list)
	})

	app.Get("/diagrams/:id", func(c fiber.Ctx) error {
		ed, err := s.hub.Open(c.Context(), c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(ed.Snapshot())
	})

	app.Delete("/diagrams/:id", func(c fiber.Ctx) error {
		id := c.Params("id")
		if err := s.store.DeleteDiagram(c.Context(), id); err != nil {
			return fail(c, err)
		}
		s.hub.Forget(id)
		return c.SendStatus(fiber.StatusNoContent)
	})

	d := app.Group("/diagrams/:id")

	d.Post("/save", func(c fiber.Ctx) error {
		ed, err := s.hub.Open(c.Context(), c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		err = ed.Save(c.Context(), s.store)
		if s.rec != nil {
			s.rec.Saved(err)
		}
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(ed.Snapshot())
	})

	// ── Nodes ─────────────────────────────────────────────────────────
	d.Post("/nodes", func(c fiber.Ctx) error {
		var req struct {
			Node     *flowboard.Node     `json:"node"`
			Type     flowboard.NodeType  `json:"type"`
			Position *flowboard.Position `json:"position"`
		}
		if err := c.Bind().JSON(&req); err != nil {
			return badBody(c)
		}
		pos := flowboard.SidebarPosition()
		if req.Position != nil {
			pos = *req.Position
		}
		var cmd flowboard.Command = flowboard.CreateNode{Type: req.Type, Position: pos}
		if req.Node != nil {
			cmd = flowboard.AddNode{Node: *req.Node}
		}
		return s.dispatch(c, cmd, fiber.StatusCreated)
	})

	d.Patch("/nodes/:nodeID", func(c fiber.Ctx) error {
		var patch flowboard.NodePatch
		if err := c.Bind().JSON(&patch); err != nil {
			return badBody(c)
		}
		return s.dispatch(c, flowboard.UpdateNode{ID: c.Params("nodeID"), Patch: patch}, fiber.StatusOK)
	})

	d.Put("/nodes/:nodeID", func(c fiber.Ctx) error {
		var node flowboard.Node
		if err := c.Bind().JSON(&node); err != nil {
			return badBody(c)
		}
		node.ID = c.Params("nodeID")
		return s.dispatch(c, flowboard.ReplaceNode{Node: node}, fiber.StatusOK)
	})

	d.Put("/nodes/:nodeID/position", func(c fiber.Ctx) error {
		var pos flowboard.Position
		if err := c.Bind().JSON(&pos); err != nil {
			return badBody(c)
		}
		return s.dispatch(c, flowboard.MoveNode{ID: c.Params("nodeID"), Position: pos}, fiber.StatusOK)
	})

	d.Delete("/nodes/:nodeID", func(c fiber.Ctx) error {
		return s.dispatch(c, flowboard.DeleteNode{ID: c.Params("nodeID")}, fiber.StatusOK)
	})

	// ── Edges ─────────────────────────────────────────────────────────
	d.Post("/edges", func(c fiber.Ctx) error {
		var conn flowboard.Connection
		if err := c.Bind().JSON(&conn); err != nil {
			return badBody(c)
		}
		return s.dispatch(c, flowboard.Connect{Connection: conn}, fiber.StatusCreated)
	})

	d.Patch("/edges/:edgeID", func(c fiber.Ctx) error {
		var patch flowboard.EdgePatch
		if err := c.Bind().JSON(&patch); err != nil {
			return badBody(c)
		}
		return s.dispatch(c, flowboard.UpdateEdge{ID: c.Params("edgeID"), Patch: patch}, fiber.StatusOK)
	})

	d.Put("/edges/:edgeID", func(c fiber.Ctx) error {
		var edge flowboard.Edge
		if err := c.Bind().JSON(&edge); err != nil {
			return badBody(c)
		}
		edge.ID = c.Params("edgeID")
		return s.dispatch(c, flowboard.ReplaceEdge{Edge: edge}, fiber.StatusOK)
	})

	d.Delete("/edges/:edgeID", func(c fiber.Ctx) error {
		return s.dispatch(c, flowboard.DeleteEdge{ID: c.Params("edgeID")}, fiber.StatusOK)
	})

	// ── Selection & panels ────────────────────────────────────────────
	d.Post("/select", func(c fiber.Ctx) error {
		var req struct {
			Node string `json:"node"`
			Edge string `json:"edge"`
		}
		if err := c.Bind().JSON(&req); err != nil {
			return badBody(c)
		}
		var cmd flowboard.Command
		switch {
		case req.Node != "" && req.Edge != "":
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "select a node or an edge, not both"})
		case req.Node != "":
			cmd = flowboard.SelectNode{ID: req.Node}
		case req.Edge != "":
			cmd = flowboard.SelectEdge{ID: req.Edge}
		default:
			cmd = flowboard.ClearSelection{}
		}
		return s.dispatch(c, cmd, fiber.StatusOK)
	})

	d.Post("/panel/close", func(c fiber.Ctx) error {
		return s.dispatch(c, flowboard.ClosePanel{}, fiber.StatusOK)
	})

	d.Put("/panel/node", func(c fiber.Ctx) error {
		var form flowboard.NodeForm
		if err := c.Bind().JSON(&form); err != nil {
			return badBody(c)
		}
		return s.dispatch(c, flowboard.StageNodeForm{Form: form}, fiber.StatusOK)
	})

	d.Put("/panel/edge", func(c fiber.Ctx) error {
		var form flowboard.EdgeForm
		if err := c.Bind().JSON(&form); err != nil {
			return badBody(c)
		}
		return s.dispatch(c, flowboard.StageEdgeForm{Form: form}, fiber.StatusOK)
	})

	d.Post("/panel/apply", func(c fiber.Ctx) error {
		return s.dispatch(c, flowboard.ApplyPanel{}, fiber.StatusOK)
	})

	d.Post("/panel/reset", func(c fiber.Ctx) error {
		return s.dispatch(c, flowboard.ResetPanel{}, fiber.StatusOK)
	})
}

// dispatch runs cmd on the diagram named by the :id param and replies
// with the resulting snapshot.
func (s *Server) dispatch(c fiber.Ctx, cmd flowboard.Command, status int) error {
	ed, err := s.hub.Open(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	snap, err := ed.Dispatch(c.Context(), cmd)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(status).JSON(snap)
}

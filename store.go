package flowboard

import (
	"context"
	"errors"
)

var (
	ErrNodeNotFound      = errors.New("flowboard: node not found")
	ErrEdgeNotFound      = errors.New("flowboard: edge not found")
	ErrDuplicateID       = errors.New("flowboard: duplicate id")
	ErrEdgeExists        = errors.New("flowboard: edge already connects these handles")
	ErrInvalidConnection = errors.New("flowboard: invalid connection")
	ErrNoSelection       = errors.New("flowboard: nothing selected")
	ErrInvalid           = errors.New("flowboard: invalid input")
)

// Store defines the contract for persisting and retrieving diagrams.
type Store interface {
	// Schema
	CreateSchema(ctx context.Context) error
	DropSchema(ctx context.Context) error

	// SaveDiagram replaces every node and edge stored under d.ID.
	SaveDiagram(ctx context.Context, d *Diagram) error
	// GetDiagram returns nil, nil if the diagram does not exist.
	GetDiagram(ctx context.Context, id string) (*Diagram, error)
	DeleteDiagram(ctx context.Context, id string) error
	ListDiagrams(ctx context.Context) ([]DiagramSummary, error)
}

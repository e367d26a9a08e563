package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwebster45206/nightloop/pkg/engine"
	"github.com/jwebster45206/nightloop/pkg/scenario"
)

// Storage defines a unified interface for all storage operations
// This interface combines session persistence (Redis) with scenario
// loading (filesystem)
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Session snapshot operations (Redis-backed)
	SaveSession(ctx context.Context, id uuid.UUID, snap *engine.Snapshot) error
	LoadSession(ctx context.Context, id uuid.UUID) (*engine.Snapshot, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error

	// Scenario operations (filesystem-backed)
	ListScenarios(ctx context.Context) (map[string]string, error)
	GetScenario(ctx context.Context, filename string) (*scenario.Assets, error)
}

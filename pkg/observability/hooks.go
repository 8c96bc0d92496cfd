// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers register
// hooks at startup to receive events about placement runs, intersection
// resolution, and store mutations.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This keeps the core engine dependency-free from observability
// frameworks and avoids import cycles: hooks are registered by main, not
// by libraries.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetRunHooks(&myRunHooks{})
//	    // ... run application
//	}
//
// The engine calls hooks to emit events:
//
//	observability.Run().OnRunStart(ctx, categories)
//	// ... place openings ...
//	observability.Run().OnRunComplete(ctx, placed, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Run Hooks
// =============================================================================

// RunHooks receives events spanning one placement run.
type RunHooks interface {
	// OnRunStart fires when a run begins, with the categories processed.
	OnRunStart(ctx context.Context, categories []string)

	// OnRunComplete fires when a run ends, successfully or not.
	OnRunComplete(ctx context.Context, placed int, duration time.Duration, err error)
}

// =============================================================================
// Engine Hooks
// =============================================================================

// EngineHooks receives events from the resolution and clustering stages.
type EngineHooks interface {
	// Resolution events, per category.
	OnResolveStart(ctx context.Context, category string, elements int)
	OnResolveComplete(ctx context.Context, category string, candidates int, duration time.Duration)

	// Clustering events, for the whole run.
	OnClusterStart(ctx context.Context, individuals int)
	OnClusterComplete(ctx context.Context, clusters int, duration time.Duration)
}

// =============================================================================
// Store Hooks
// =============================================================================

// StoreHooks receives events from opening store mutations.
type StoreHooks interface {
	// OnCreate records a created opening.
	OnCreate(ctx context.Context, class, category string)

	// OnDelete records a deleted opening.
	OnDelete(ctx context.Context, id string)

	// OnSuppressed records a candidate rejected as a duplicate.
	OnSuppressed(ctx context.Context, class, category string)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopRunHooks is a no-op implementation of RunHooks.
type NoopRunHooks struct{}

func (NoopRunHooks) OnRunStart(context.Context, []string)                       {}
func (NoopRunHooks) OnRunComplete(context.Context, int, time.Duration, error)   {}

// NoopEngineHooks is a no-op implementation of EngineHooks.
type NoopEngineHooks struct{}

func (NoopEngineHooks) OnResolveStart(context.Context, string, int)                  {}
func (NoopEngineHooks) OnResolveComplete(context.Context, string, int, time.Duration) {}
func (NoopEngineHooks) OnClusterStart(context.Context, int)                          {}
func (NoopEngineHooks) OnClusterComplete(context.Context, int, time.Duration)        {}

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnCreate(context.Context, string, string)     {}
func (NoopStoreHooks) OnDelete(context.Context, string)             {}
func (NoopStoreHooks) OnSuppressed(context.Context, string, string) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	runHooks    RunHooks    = NoopRunHooks{}
	engineHooks EngineHooks = NoopEngineHooks{}
	storeHooks  StoreHooks  = NoopStoreHooks{}
	hooksMu     sync.RWMutex
)

// SetRunHooks registers custom run hooks.
// This should be called once at application startup before any runs.
func SetRunHooks(h RunHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		runHooks = h
	}
}

// SetEngineHooks registers custom engine hooks.
// This should be called once at application startup before any runs.
func SetEngineHooks(h EngineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		engineHooks = h
	}
}

// SetStoreHooks registers custom store hooks.
// This should be called once at application startup before any runs.
func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storeHooks = h
	}
}

// Run returns the registered run hooks.
func Run() RunHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return runHooks
}

// Engine returns the registered engine hooks.
func Engine() EngineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return engineHooks
}

// Store returns the registered store hooks.
func Store() StoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storeHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	runHooks = NoopRunHooks{}
	engineHooks = NoopEngineHooks{}
	storeHooks = NoopStoreHooks{}
}

package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Run hooks
	r := NoopRunHooks{}
	r.OnRunStart(ctx, []string{"pipe", "duct"})
	r.OnRunComplete(ctx, 12, time.Second, nil)

	// Engine hooks
	e := NoopEngineHooks{}
	e.OnResolveStart(ctx, "pipe", 40)
	e.OnResolveComplete(ctx, "pipe", 12, time.Second)
	e.OnClusterStart(ctx, 12)
	e.OnClusterComplete(ctx, 3, time.Second)

	// Store hooks
	s := NoopStoreHooks{}
	s.OnCreate(ctx, "individual", "pipe")
	s.OnDelete(ctx, "op-1")
	s.OnSuppressed(ctx, "individual", "pipe")
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Run().(NoopRunHooks); !ok {
		t.Error("Run() should return NoopRunHooks by default")
	}
	if _, ok := Engine().(NoopEngineHooks); !ok {
		t.Error("Engine() should return NoopEngineHooks by default")
	}
	if _, ok := Store().(NoopStoreHooks); !ok {
		t.Error("Store() should return NoopStoreHooks by default")
	}

	// Set custom hooks
	customRun := &testRunHooks{}
	SetRunHooks(customRun)
	if Run() != customRun {
		t.Error("SetRunHooks should set custom hooks")
	}

	customEngine := &testEngineHooks{}
	SetEngineHooks(customEngine)
	if Engine() != customEngine {
		t.Error("SetEngineHooks should set custom hooks")
	}

	customStore := &testStoreHooks{}
	SetStoreHooks(customStore)
	if Store() != customStore {
		t.Error("SetStoreHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Run().(NoopRunHooks); !ok {
		t.Error("Reset() should restore NoopRunHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testRunHooks{}
	SetRunHooks(custom)

	// Setting nil should be ignored
	SetRunHooks(nil)

	if Run() != custom {
		t.Error("SetRunHooks(nil) should be ignored")
	}

	Reset()
}

// Test implementations
type testRunHooks struct{ NoopRunHooks }
type testEngineHooks struct{ NoopEngineHooks }
type testStoreHooks struct{ NoopStoreHooks }

package factory

import (
	"time"

	"github.com/enzo-projet/zogames/internal/dependencies/mocks"
	"github.com/enzo-projet/zogames/internal/services/identity"
	"github.com/enzo-projet/zogames/internal/storage/memory"
	"github.com/enzo-projet/zogames/internal/testutil"
)

// TestApp wraps App with mocked external dependencies for testing
type TestApp struct {
	*App

	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App wired against in-memory storage and mocked
// clock/random, suitable for deterministic tests
func NewTestApp() *TestApp {
	store := memory.New()
	clk := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	rnd := mocks.NewMockRandom()

	app := newWithDependencies(store, store, clk, rnd, identity.DefaultConfig(), testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  clk,
		MockRandom: rnd,
	}
}

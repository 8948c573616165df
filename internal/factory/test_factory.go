package factory

import (
	"time"

	"github.com/mcoot/sortinghat/internal/catalog"
	"github.com/mcoot/sortinghat/internal/dependencies/mocks"
	"github.com/mcoot/sortinghat/internal/storage/memory"
	"github.com/mcoot/sortinghat/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock     *mocks.MockClock
	MockRandom    *mocks.MockRandom
	MockDirectory *mocks.MockDirectory
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	mockDirectory := mocks.NewMockDirectory()

	app := newWithDependencies(store, catalog.Default(), mockClock, mockRandom, mockDirectory, time.Minute, testutil.NopLogger())

	return &TestApp{
		App:           app,
		MockClock:     mockClock,
		MockRandom:    mockRandom,
		MockDirectory: mockDirectory,
	}
}

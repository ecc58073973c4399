package market

import (
	"sync"

	"github.com/google/uuid"
)

// RunID tags every bar and report produced by one evaluation run.
type RunID = uuid.UUID

var (
	runID     RunID
	runIDOnce sync.Once
	runIDMu   sync.RWMutex
)

// GetRunID returns the process-wide run identifier, creating it on first use.
func GetRunID() RunID {
	runIDOnce.Do(func() {
		runID = uuid.Must(uuid.NewV7())
	})

	runIDMu.RLock()
	defer runIDMu.RUnlock()
	return runID
}

// ResetRunID replaces the run identifier, for callers evaluating several
// symbols in one process.
func ResetRunID() RunID {
	runIDMu.Lock()
	defer runIDMu.Unlock()

	runID = uuid.Must(uuid.NewV7())
	return runID
}

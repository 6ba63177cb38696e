package roster

import "context"

// Source loads a roster snapshot from backing storage (file, database).
type Source interface {
	// Load reads and normalizes the full dataset. Implementations return
	// shared.ErrMissingColumns when the schema is incomplete and
	// shared.ErrNoUsableRows when nothing survives normalization.
	Load(ctx context.Context) (*LoadResult, error)

	// Name identifies the source for logging and events.
	Name() string
}

// Provider hands out the current table snapshot to query execution.
type Provider interface {
	// Current returns the active table, or shared.ErrTableNotLoaded
	// when no dataset has been loaded yet.
	Current() (*Table, error)
}

// Reloader re-reads the dataset and atomically swaps the active table.
// In-flight queries keep the snapshot they started with.
type Reloader interface {
	Reload(ctx context.Context) (*LoadResult, error)
}

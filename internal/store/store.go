// Package store persists the history of healing runs.
package store

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/sheet-doctor/internal/model"
)

// ErrRunNotFound is returned when a run id does not exist.
var ErrRunNotFound = eris.New("run not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Input  string          `json:"input,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

func (f RunFilter) limit() int {
	if f.Limit <= 0 {
		return 50
	}
	return f.Limit
}

// Store defines the persistence interface for run history.
type Store interface {
	// CreateRun records a new running run for input.
	CreateRun(ctx context.Context, input string) (*model.Run, error)
	// CompleteRun stores the counters of a finished run and marks it complete.
	CompleteRun(ctx context.Context, run *model.Run) error
	// FailRun marks a run failed with the error text.
	FailRun(ctx context.Context, runID string, msg string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open returns the store for driver. Supported drivers are "sqlite" (the
// default) and "postgres".
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch strings.ToLower(driver) {
	case "", "sqlite":
		return NewSQLite(dsn)
	case "postgres", "postgresql":
		return NewPostgres(ctx, dsn)
	default:
		return nil, eris.Errorf("store: unsupported driver %q", driver)
	}
}

func marshalReasons(counts map[string]int) (string, error) {
	if counts == nil {
		counts = map[string]int{}
	}
	data, err := json.Marshal(counts)
	if err != nil {
		return "", eris.Wrap(err, "store: marshal reason counts")
	}
	return string(data), nil
}

func unmarshalReasons(data []byte) (map[string]int, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var counts map[string]int
	if err := json.Unmarshal(data, &counts); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal reason counts")
	}
	return counts, nil
}

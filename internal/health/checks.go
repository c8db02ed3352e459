package health

import (
	"context"
	"time"

	"github.com/knowledgebot/internal/retrieval"
)

// DriveCheck verifies beyond authentication that the knowledge-base
// folder is actually listable.
type DriveCheck struct {
	Store retrieval.FileStore
}

func (d *DriveCheck) Name() string { return "drive" }

func (d *DriveCheck) Check(ctx context.Context) Result {
	start := time.Now()
	_, err := d.Store.ListFiles(ctx)
	duration := time.Since(start)

	res := Result{Name: d.Name()}
	switch {
	case err != nil:
		res.Status = StatusUnhealthy
		res.Message = err.Error()
	case duration > 2*time.Second:
		res.Status = StatusDegraded
		res.Message = "drive listing responding slowly"
	default:
		res.Status = StatusHealthy
	}
	return res
}

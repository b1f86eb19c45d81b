package cron

import "context"

// Job is one maintenance pass the worker can run, such as the stale cart
// sweep. Run must be safe to call again on the next tick after a failure.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry holds the maintenance jobs in the order the worker executes them.
type Registry struct {
	jobs []Job
}

// NewRegistry builds a registry from the given jobs, skipping nil entries.
func NewRegistry(jobs ...Job) *Registry {
	r := &Registry{}
	for _, job := range jobs {
		r.Register(job)
	}
	return r
}

func (r *Registry) Register(job Job) {
	if job == nil {
		return
	}
	r.jobs = append(r.jobs, job)
}

// Jobs returns a copy so callers cannot reorder the execution list.
func (r *Registry) Jobs() []Job {
	jobs := make([]Job, len(r.jobs))
	copy(jobs, r.jobs)
	return jobs
}

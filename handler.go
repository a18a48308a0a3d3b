package pgqueue

import (
	"context"
	"encoding/json"
	"errors"
	"maps"
	"slices"
	"sync"
)

// jobExecutor is the internal interface for type-erased job execution.
// It lets handlers with different payload types share a single registry.
type jobExecutor interface {
	Execute(ctx context.Context, payload json.RawMessage) error
}

// jobRegistry stores registered executors by job type. Registration happens
// before the runner starts; after that lookups are read-only, but the
// RWMutex keeps the registry safe if a caller registers late anyway.
type jobRegistry struct {
	executors map[string]jobExecutor
	mu        sync.RWMutex
}

func newJobRegistry() *jobRegistry {
	return &jobRegistry{
		executors: make(map[string]jobExecutor),
	}
}

// register adds an executor for the given job type.
func (r *jobRegistry) register(jobType string, executor jobExecutor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executors[jobType] = executor
}

// get retrieves an executor by job type.
func (r *jobRegistry) get(jobType string) (jobExecutor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	executor, ok := r.executors[jobType]
	return executor, ok
}

// jobTypes returns all registered job type names.
func (r *jobRegistry) jobTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Collect(maps.Keys(r.executors))
}

// handlerWrapper adapts a typed handler for type-erased storage.
// It decodes the JSON payload and calls the typed Perform method.
type handlerWrapper[P any, H interface {
	JobType() string
	Perform(context.Context, P) error
}] struct {
	handler H
}

// Execute decodes the payload and performs the job. A decode failure is
// reported as ErrInvalidPayload without invoking the handler.
func (w *handlerWrapper[P, H]) Execute(ctx context.Context, raw json.RawMessage) error {
	var payload P
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			return errors.Join(ErrInvalidPayload, err)
		}
	}
	return w.handler.Perform(ctx, payload)
}

func newHandlerWrapper[P any, H interface {
	JobType() string
	Perform(context.Context, P) error
}](handler H) *handlerWrapper[P, H] {
	return &handlerWrapper[P, H]{handler: handler}
}

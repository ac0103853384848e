// Package dispatch maps operation names and arguments to the data
// engines, normalizing results and errors into a caller-agnostic
// shape. Every front end (protocol server, direct caller,
// natural-language client, dashboard) goes through Invoke and sees
// identical semantics.
package dispatch

import (
	"context"
	"errors"
	"time"

	"github.com/tabulario/datalens/internal/chart"
	"github.com/tabulario/datalens/internal/dataset"
	"github.com/tabulario/datalens/internal/domain/errs"
)

// Result is the caller-agnostic envelope for one invocation. Exactly
// one of Payload and Error is set.
type Result struct {
	OK        bool        `json:"ok"`
	Operation string      `json:"operation"`
	Payload   any         `json:"payload,omitempty"`
	Error     *errs.Error `json:"error,omitempty"`
}

// Dispatcher owns the operation registry and invokes handlers. The
// registry is built once in New and never mutated afterwards.
type Dispatcher struct {
	registry  *Registry
	store     *dataset.Store
	renderer  chart.Renderer
	outputDir string
	observers []Observer
}

// New builds a dispatcher over the given dataset store and renderer,
// registering the full operation catalog.
func New(store *dataset.Store, renderer chart.Renderer, outputDir string) *Dispatcher {
	d := &Dispatcher{
		registry:  newRegistry(),
		store:     store,
		renderer:  renderer,
		outputDir: outputDir,
	}
	d.registerOperations()
	return d
}

// AddObserver registers an observer to receive lifecycle events.
// Call before serving; the observer list is not synchronized.
func (d *Dispatcher) AddObserver(observer Observer) {
	d.observers = append(d.observers, observer)
}

// Catalog exposes operation metadata for tool listings and prompts.
func (d *Dispatcher) Catalog() []Operation {
	return d.registry.Catalog()
}

// Invoke validates and routes one operation call. Every failure
// surfaced to the caller carries one of the enumerated error kinds;
// panics and unclassified errors become InternalError.
func (d *Dispatcher) Invoke(ctx context.Context, name string, args map[string]any) (result Result) {
	start := time.Now()
	d.notify(Event{Type: EventInvokeStart, Operation: name})

	defer func() {
		if r := recover(); r != nil {
			result = failure(name, errs.NewInternal(r))
		}
		d.notify(Event{
			Type:      EventInvokeEnd,
			Operation: name,
			Duration:  time.Since(start),
			Err:       result.Error,
		})
	}()

	op, ok := d.registry.Lookup(name)
	if !ok {
		return failure(name, errs.NewUnknownOperation(name))
	}

	validated, err := validateArgs(op, args)
	if err != nil {
		return failure(name, errs.AsError(err))
	}

	payload, err := op.handler(ctx, validated)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return failure(name, errs.NewTimeout(name))
		}
		return failure(name, errs.AsError(err))
	}
	return Result{OK: true, Operation: name, Payload: payload}
}

func failure(name string, e *errs.Error) Result {
	return Result{OK: false, Operation: name, Error: e}
}

func (d *Dispatcher) notify(event Event) {
	event.Timestamp = time.Now()
	for _, observer := range d.observers {
		observer.OnEvent(event)
	}
}

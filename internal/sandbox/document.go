package sandbox

import (
	"context"

	"github.com/codearena/backend/internal/sandbox/fault"
	"github.com/codearena/backend/internal/sandbox/monitor"
	"github.com/codearena/backend/internal/shared/types"
)

// runDocument executes under the embedded-document strategy: the code
// gets the curated globals plus a document proxy built from the test
// case's HTML fixture. Same cooperative-timeout caveat as the
// restricted-closure strategy.
//
// If the test case input is a map carrying an "html" string, that
// markup seeds the document; any other input is passed to the entry
// point unchanged.
func (e *Executor) runDocument(ctx context.Context, req Request, mon *monitor.Monitor) (*types.ExecutionResult, error) {
	rt, err := e.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer e.pool.Release(rt)

	dom, evalErr := documentFor(req.Input)
	if evalErr != nil {
		mon.Begin(nil)
		return finish(rt, mon, nil, evalErr), nil
	}

	rt.bindDocument(dom)
	rt.bindNetwork(ctx, mon.Network)

	mon.Begin(func() { rt.interrupt("execution timeout exceeded") })
	output, evalErr := e.evaluate(rt, req, mon)

	// Mutation log stands in for the return value when the entry point
	// works through the document instead of returning.
	if evalErr == nil && output == nil {
		if changes := dom.Changes(); len(changes) > 0 {
			output = map[string]interface{}{"dom_changes": changes}
		}
	}
	return finish(rt, mon, output, evalErr), nil
}

func documentFor(input interface{}) (*DOM, error) {
	if m, ok := input.(map[string]interface{}); ok {
		if markup, ok := m["html"].(string); ok {
			dom, err := DOMFromHTML(markup)
			if err != nil {
				return nil, fault.New(fault.RuntimeError, "invalid document fixture: %v", err)
			}
			return dom, nil
		}
	}
	return NewDOM(), nil
}

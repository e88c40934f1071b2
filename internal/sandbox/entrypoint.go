package sandbox

import (
	"github.com/dop251/goja"

	"github.com/codearena/backend/internal/sandbox/fault"
)

// entryNames is the fixed probe order for a submission's entry point.
// The order is part of the compatibility contract with published
// challenges and must not change.
var entryNames = []string{"runTest", "solution", "solve", "algorithm"}

// analytics-style challenges export a class instead of a function; its
// instances are driven through these two methods.
const (
	analyticsLoad  = "loadData"
	analyticsQuery = "getDailyActiveUsers"
)

// entryInvoker runs the resolved entry point against one input
type entryInvoker func(input goja.Value) (goja.Value, error)

// resolveEntry probes the evaluated globals for an entry point: first
// the named functions in fixed priority order, then an analytics-style
// class. Returns a no-entry-point fault if nothing matches.
func resolveEntry(vm *goja.Runtime) (entryInvoker, error) {
	global := vm.GlobalObject()

	for _, name := range entryNames {
		if fn, ok := goja.AssertFunction(global.Get(name)); ok {
			return func(input goja.Value) (goja.Value, error) {
				return fn(goja.Undefined(), input)
			}, nil
		}
	}

	for _, key := range global.Keys() {
		ctor, ok := global.Get(key).(*goja.Object)
		if !ok {
			continue
		}
		proto, ok := ctor.Get("prototype").(*goja.Object)
		if !ok {
			continue
		}
		if _, ok := goja.AssertFunction(proto.Get(analyticsLoad)); !ok {
			continue
		}
		if _, ok := goja.AssertFunction(proto.Get(analyticsQuery)); !ok {
			continue
		}

		return func(input goja.Value) (goja.Value, error) {
			inst, err := vm.New(ctor)
			if err != nil {
				return nil, err
			}
			load, _ := goja.AssertFunction(inst.Get(analyticsLoad))
			if _, err := load(inst, input); err != nil {
				return nil, err
			}
			query, _ := goja.AssertFunction(inst.Get(analyticsQuery))
			return query(inst)
		}, nil
	}

	return nil, fault.New(fault.NoEntryPoint,
		"no function named %v and no analytics class found", entryNames)
}

package sandbox

import (
	"context"
	"sync"
	"time"

	"github.com/dop251/goja"

	"github.com/codearena/backend/internal/sandbox/monitor"
	"github.com/codearena/backend/internal/shared/types"
)

// maxTimerDelay caps the delay sandboxed code may pass to setTimeout.
// There is no event loop inside the VM: an in-budget callback runs
// synchronously, anything longer is dropped.
const maxTimerDelay = 100 * time.Millisecond

const maxCallStackSize = 1024

// Runtime wraps a goja VM with the curated global surface every
// isolation strategy starts from: a console proxy, capped timers and
// nothing from the host environment.
type Runtime struct {
	vm *goja.Runtime

	console   []types.ConsoleEntry
	consoleMu sync.Mutex

	// hostFault captures a typed fault raised inside a host-provided
	// binding before it unwinds through the VM as a thrown value.
	// hostFaultMsg is the message that was thrown into the VM; sandboxed
	// code can catch that throw, so a recorded fault only stands if the
	// eventual unwind carries the same value.
	hostFault    error
	hostFaultMsg string
}

// newRuntime creates a VM with dangerous bindings excluded
func newRuntime() *Runtime {
	r := &Runtime{vm: goja.New()}
	r.vm.SetMaxCallStackSize(maxCallStackSize)
	r.setupGlobals()
	return r
}

// setupGlobals installs the curated surface. Dangerous capabilities are
// excluded by never binding them: there is no require, no ambient
// process, no dynamic code evaluation.
func (r *Runtime) setupGlobals() {
	r.vm.Set("require", goja.Undefined())
	r.vm.Set("eval", goja.Undefined())
	r.vm.Set("module", goja.Undefined())
	r.vm.Set("exports", goja.Undefined())

	console := r.vm.NewObject()
	console.Set("log", r.makeConsoleFunc("log"))
	console.Set("warn", r.makeConsoleFunc("warn"))
	console.Set("error", r.makeConsoleFunc("error"))
	console.Set("info", r.makeConsoleFunc("info"))
	r.vm.Set("console", console)

	r.vm.Set("setTimeout", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			return goja.Undefined()
		}
		fn, ok := goja.AssertFunction(call.Arguments[0])
		if !ok {
			return goja.Undefined()
		}
		delay := time.Duration(0)
		if len(call.Arguments) > 1 {
			delay = time.Duration(call.Arguments[1].ToInteger()) * time.Millisecond
		}
		if delay > maxTimerDelay {
			return goja.Undefined()
		}
		fn(goja.Undefined())
		return goja.Undefined()
	})
	r.vm.Set("setInterval", func(call goja.FunctionCall) goja.Value {
		return goja.Undefined()
	})
	r.vm.Set("clearTimeout", func(call goja.FunctionCall) goja.Value {
		return goja.Undefined()
	})
	r.vm.Set("clearInterval", func(call goja.FunctionCall) goja.Value {
		return goja.Undefined()
	})
}

// bindNodeShims installs the process/Buffer stand-ins the restricted
// closure strategy passes in. They expose shape, not capability.
func (r *Runtime) bindNodeShims() {
	process := r.vm.NewObject()
	process.Set("env", r.vm.NewObject())
	process.Set("platform", "sandbox")
	process.Set("version", "v0.0.0")
	r.vm.Set("process", process)

	buffer := r.vm.NewObject()
	buffer.Set("from", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			return goja.Undefined()
		}
		return r.vm.ToValue([]byte(call.Arguments[0].String()))
	})
	r.vm.Set("Buffer", buffer)
}

// bindNetwork installs the proxied fetch. Every outbound call goes
// through the network monitor's denylist and quota.
func (r *Runtime) bindNetwork(ctx context.Context, nm *monitor.NetworkMonitor) {
	r.vm.Set("fetch", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			panic(r.vm.NewTypeError("fetch requires a url"))
		}
		target := call.Arguments[0].String()

		method := "GET"
		body := ""
		if len(call.Arguments) > 1 {
			if opts, ok := call.Arguments[1].(*goja.Object); ok {
				if m := opts.Get("method"); m != nil && !goja.IsUndefined(m) {
					method = m.String()
				}
				if b := opts.Get("body"); b != nil && !goja.IsUndefined(b) {
					body = b.String()
				}
			}
		}

		resp, err := nm.Request(ctx, method, target, body)
		if err != nil {
			r.hostFault = err
			r.hostFaultMsg = err.Error()
			panic(r.vm.ToValue(err.Error()))
		}
		out := r.vm.NewObject()
		out.Set("status", resp.Status)
		out.Set("body", resp.Body)
		out.Set("ok", resp.Status >= 200 && resp.Status < 300)
		return out
	})
}

// bindDocument installs the document proxy for the embedded-document
// strategy.
func (r *Runtime) bindDocument(dom *DOM) {
	document := r.vm.NewObject()
	document.Set("querySelector", r.makeQueryFunc(dom, true))
	document.Set("querySelectorAll", r.makeQueryFunc(dom, false))
	document.Set("getElementById", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			return goja.Null()
		}
		elems := dom.Query("#" + call.Arguments[0].String())
		if len(elems) == 0 {
			return goja.Null()
		}
		return r.vm.ToValue(r.elementProxy(elems[0]))
	})
	r.vm.Set("document", document)
}

func (r *Runtime) makeQueryFunc(dom *DOM, single bool) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			return goja.Null()
		}
		elems := dom.Query(call.Arguments[0].String())
		if single {
			if len(elems) == 0 {
				return goja.Null()
			}
			return r.vm.ToValue(r.elementProxy(elems[0]))
		}
		proxies := make([]map[string]interface{}, len(elems))
		for i, e := range elems {
			proxies[i] = r.elementProxy(e)
		}
		return r.vm.ToValue(proxies)
	}
}

func (r *Runtime) elementProxy(elem *Element) map[string]interface{} {
	return map[string]interface{}{
		"tagName":     elem.TagName,
		"id":          elem.ID,
		"className":   elem.ClassName,
		"textContent": elem.TextContent,
		"getAttribute": func(name string) string {
			return elem.GetAttribute(name)
		},
		"setAttribute": func(name, value string) {
			elem.SetAttribute(name, value)
		},
		"setText": func(text string) {
			elem.SetText(text)
		},
	}
}

func (r *Runtime) makeConsoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		var sb []byte
		for i, arg := range call.Arguments {
			if i > 0 {
				sb = append(sb, ' ')
			}
			sb = append(sb, arg.String()...)
		}

		r.consoleMu.Lock()
		r.console = append(r.console, types.ConsoleEntry{
			Level:   level,
			Message: string(sb),
			Time:    time.Now(),
		})
		r.consoleMu.Unlock()

		return goja.Undefined()
	}
}

// drainConsole returns and clears captured console output
func (r *Runtime) drainConsole() []types.ConsoleEntry {
	r.consoleMu.Lock()
	defer r.consoleMu.Unlock()
	out := r.console
	r.console = nil
	return out
}

// interrupt stops the VM at its next instruction boundary. Code blocked
// inside a native call cannot be preempted.
func (r *Runtime) interrupt(reason string) {
	r.vm.Interrupt(reason)
}

// reset discards all user state by replacing the VM
func (r *Runtime) reset() {
	r.vm = goja.New()
	r.vm.SetMaxCallStackSize(maxCallStackSize)
	r.console = nil
	r.hostFault = nil
	r.hostFaultMsg = ""
	r.setupGlobals()
}

// export converts a goja value to a plain Go value
func export(val goja.Value) interface{} {
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return nil
	}
	return val.Export()
}

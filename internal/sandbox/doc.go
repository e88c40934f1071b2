/*
Package sandbox executes untrusted submissions inside isolated goja
runtimes under per-run resource supervision.

# Isolation strategies

Three strategies, chosen per request:

  - restricted-closure: the code sees an enumerated set of safe globals
    (console proxy, capped timers, process/Buffer shims, proxied fetch)
    and nothing else; dangerous bindings are excluded by never being
    passed in.
  - embedded-document: the closure surface plus a document proxy built
    from the test case's HTML fixture, for submissions that manipulate
    markup. Mutations are recorded for validation.
  - dedicated-worker: evaluation on a separate goroutine with a result
    channel. The only strategy with forced mid-execution termination.

# Cancellation contract

The deadline for the closure and document strategies is cooperative: a
watchdog interrupts the VM, and the interrupt lands at the next
instruction boundary. Code blocked inside a native call cannot be
preempted, so the timeout there cancels the caller's wait and the
bookkeeping, not necessarily the callee. Callers needing a hard bound
on CPU-bound loops must pick the worker strategy.

# Entry points

After evaluating a submission the executor probes, in fixed priority
order, for a function named runTest, solution, solve or algorithm, then
for a class whose instances expose loadData/getDailyActiveUsers. The
first match is invoked with the test case input; no match is a
no-entry-point fault.

All strategies produce the same result shape. Faults (timeout, memory
limit, network limit, blocked request, no entry point, runtime error)
are values, never panics.
*/
package sandbox

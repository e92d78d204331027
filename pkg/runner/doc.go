/*
Package runner is the caller layer on top of the engine.

A Runner sanitizes string inputs, assigns each invocation a run id, invokes the
workflow and stores the outcome as a domain.RunRecord. Failed invocations are
recorded too, with status "failed" and the error text, and the error is returned
to the caller.

# Usage

	r := runner.New(wayfinder.New(),
		runner.WithStore(memory.NewStore()),
		runner.WithLogger(logger),
	)

	rec, err := r.Run(ctx, wf, support.Input("u1", "refund please", ""))
*/
package runner

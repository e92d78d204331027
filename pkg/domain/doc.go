/*
Package domain contains the core domain models of the Wayfinder graph engine.

It defines the fundamental entities shared by the builder, the executor and the
workflow definitions. This package is kept pure and free of external dependencies
like I/O or persistence.

# Key Entities

  - State: the runtime record of one invocation (fields, visit history, status).
  - View: the read-only window a node receives over the state fields.
  - Update: the partial delta a node returns; the executor merges it.
  - NodeFunc: a named unit of work (View in, Update out).
  - Switch: a routing function paired with the closed set of labels it may return.
  - LifecycleHooks: observability callbacks fired by the executor.
*/
package domain

/*
Package graph holds the static shape of a workflow: the edge table and the compiled
Workflow that ties an entry node, a node registry, an edge table, terminal markers and a
state schema together.

Three edge kinds are supported:

  - static: a fixed successor.
  - conditional: a domain.Switch (routing function plus its closed label set) and a
    label → successor mapping.
  - bounded retry: a conditional edge that may route back to an earlier node, paired with
    a state-resident iteration counter, a ceiling and a forced label taken once the
    ceiling is reached. Any edge that closes a cycle should be declared this way.

A node owns at most one outgoing rule. Label sets are checked for exhaustiveness when the
edge is added, so an unmapped label is a build error rather than a runtime surprise.
*/
package graph

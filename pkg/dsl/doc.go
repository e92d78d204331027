/*
Package dsl provides a fluent Go builder for wayfinder workflows.

It lets a workflow be declared in one place, node by node, with its outgoing rule next to
it. Compile checks every structural invariant (entry, successors, label exhaustiveness,
terminal markers, schema coverage of retry counters) and returns either a ready
*graph.Workflow or a *domain.ConfigError listing every problem.

Example usage:

	b := dsl.New("greeter").
		Schema(schema.MustRecord(
			schema.Required("name", schema.String()),
			schema.Optional("greeting", schema.String()),
		))

	b.Add("greet", greet).Go("polish")
	b.Add("polish", polish).Terminal()

	wf, err := b.Compile()
	if err != nil {
		log.Fatal(err)
	}
	// ... pass wf to wayfinder.Engine.Invoke
*/
package dsl

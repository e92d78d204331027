/*
Package wayfinder is a small directed-graph workflow executor.

A workflow is a set of named nodes connected by static, conditional and bounded retry
edges, operating over a shared, schema-checked state record. Each node reads an immutable
view of the record and returns a partial update; the engine merges the update, picks the
successor and repeats until a terminal node (or domain.End) is reached.

# Key Features

  - Deterministic Execution: identical nodes and input yield identical final state and visit history.
  - Closed Label Sets: every conditional edge declares its labels, checked for exhaustiveness at build time.
  - Bounded Cycles: loops are expressed as bounded retry edges with a state-resident counter and a forced verdict.
  - Strict Contracts: input and every update are validated against the workflow schema.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/wayfinder"
		"github.com/aretw0/wayfinder/pkg/domain"
		"github.com/aretw0/wayfinder/pkg/dsl"
	)

	func main() {
		b := dsl.New("hello")
		b.Add("greet", func(ctx context.Context, in domain.View) (domain.Update, error) {
			return domain.Update{"greeting": "hello " + in.String("name")}, nil
		}).End()

		wf, err := b.Compile()
		if err != nil {
			log.Fatal(err)
		}

		state, err := wayfinder.New().Invoke(context.Background(), wf, map[string]any{"name": "ada"})
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(state.Context["greeting"])
	}

Two workflows ship with the module: pkg/workflows/rag (retrieval routing with a bounded
relevance loop) and pkg/workflows/support (ticket triage).
*/
package wayfinder

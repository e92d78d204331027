package wayfinder_test

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/aretw0/wayfinder"
	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/aretw0/wayfinder/pkg/dsl"
	"github.com/aretw0/wayfinder/pkg/graph"
	"github.com/aretw0/wayfinder/pkg/schema"
)

// ExampleEngine_Invoke builds a two step workflow with a conditional edge and runs it.
func ExampleEngine_Invoke() {
	b := dsl.New("shout").Schema(schema.MustRecord(
		schema.Required("text", schema.String()),
		schema.Optional("loud", schema.Enum("yes", "no")),
		schema.Optional("result", schema.String()),
	))

	b.Add("classify", func(_ context.Context, in domain.View) (domain.Update, error) {
		if strings.HasSuffix(in.String("text"), "!") {
			return domain.Update{"loud": "yes"}, nil
		}
		return domain.Update{"loud": "no"}, nil
	}).Branch(domain.FieldSwitch("loud", "yes", "no"), map[domain.Label]string{
		"yes": "upper",
		"no":  domain.End,
	})

	b.Add("upper", func(_ context.Context, in domain.View) (domain.Update, error) {
		return domain.Update{"result": strings.ToUpper(in.String("text"))}, nil
	}).Terminal()

	wf, err := b.Compile()
	if err != nil {
		log.Fatal(err)
	}

	state, err := wayfinder.New().Invoke(context.Background(), wf, map[string]any{"text": "hello!"})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(state.History)
	fmt.Println(state.Context["result"])
	// Output:
	// [classify upper]
	// HELLO!
}

// ExampleEngine_Inspect prints the edges of a retry loop.
func ExampleEngine_Inspect() {
	b := dsl.New("retry")
	b.Add("try", func(context.Context, domain.View) (domain.Update, error) {
		return domain.Update{"ok": "No"}, nil
	}).Retry(graph.BoundedRetry{
		Switch:    domain.FieldSwitch("ok", "Yes", "No"),
		Routes:    map[domain.Label]string{"Yes": domain.End, "No": "try"},
		Counter:   "attempts",
		MaxVisits: 3,
		Forced:    "Yes",
	})
	wf := b.MustCompile()

	for _, e := range wayfinder.New().Inspect(wf).Edges {
		fmt.Printf("%s -[%s]-> %s forced=%v\n", e.From, e.Label, e.To, e.Forced)
	}
	// Output:
	// try -[Yes]-> __end__ forced=true
	// try -[No]-> try forced=false
}

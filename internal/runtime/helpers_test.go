package runtime_test

import (
	"context"
	"testing"

	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/aretw0/wayfinder/pkg/dsl"
	"github.com/aretw0/wayfinder/pkg/graph"
	"github.com/aretw0/wayfinder/pkg/schema"
	"github.com/stretchr/testify/require"
)

func set(update domain.Update) domain.NodeFunc {
	return func(context.Context, domain.View) (domain.Update, error) {
		return update, nil
	}
}

// loopWorkflow: work -> check, check retries work until ok=Yes, forced after max visits.
// verdict decides what "work" writes on each pass.
func loopWorkflow(t *testing.T, maxVisits int, verdict func(pass int) string) *graph.Workflow {
	t.Helper()
	b := dsl.New("loop").Schema(schema.MustRecord(
		schema.Required("query", schema.String()),
		schema.Optional("passes", schema.Int()),
		schema.Optional("ok", schema.Enum("Yes", "No")),
		schema.Optional("iteration_count", schema.Int()),
		schema.Optional("answer", schema.String()),
	))
	b.Add("work", func(_ context.Context, in domain.View) (domain.Update, error) {
		pass := in.Int("passes") + 1
		return domain.Update{"passes": pass, "ok": verdict(pass)}, nil
	}).Go("check")
	b.Add("check", set(nil)).Retry(graph.BoundedRetry{
		Switch:       domain.FieldSwitch("ok", "Yes", "No"),
		Routes:       map[domain.Label]string{"Yes": "answer", "No": "work"},
		Counter:      "iteration_count",
		MaxVisits:    maxVisits,
		Forced:       "Yes",
		ForcedUpdate: domain.Update{"ok": "Yes"},
	})
	b.Add("answer", func(_ context.Context, in domain.View) (domain.Update, error) {
		return domain.Update{"answer": "answered " + in.String("query")}, nil
	}).Terminal()

	wf, err := b.Compile()
	require.NoError(t, err)
	return wf
}

func linearWorkflow(t *testing.T) *graph.Workflow {
	t.Helper()
	b := dsl.New("linear").Schema(schema.MustRecord(
		schema.Required("message", schema.String()),
		schema.Optional("upper", schema.Bool()),
		schema.Optional("length", schema.Int()),
	))
	b.Add("measure", func(_ context.Context, in domain.View) (domain.Update, error) {
		return domain.Update{"length": len(in.String("message"))}, nil
	}).Go("flag")
	b.Add("flag", set(domain.Update{"upper": false})).End()

	wf, err := b.Compile()
	require.NoError(t, err)
	return wf
}

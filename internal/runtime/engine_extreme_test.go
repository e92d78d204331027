package runtime_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/aretw0/wayfinder/internal/runtime"
	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestEngine_ConcurrentInvocations(t *testing.T) {
	engine := runtime.NewEngine()
	wf := loopWorkflow(t, 3, func(pass int) string {
		if pass >= 2 {
			return "Yes"
		}
		return "No"
	})

	const workers = 32
	var wg sync.WaitGroup
	results := make([]*domain.State, workers)
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = engine.Run(context.Background(), wf, fmt.Sprintf("run-%d", i), map[string]any{"query": fmt.Sprintf("q%d", i)})
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, fmt.Sprintf("answered q%d", i), results[i].Context["answer"])
		assert.Equal(t, 2, results[i].Context["iteration_count"])
		assert.Equal(t, fmt.Sprintf("run-%d", i), results[i].RunID)
	}
}

func TestEngine_PropertyRetryBounded(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ceiling := rapid.IntRange(1, 8).Draw(rt, "ceiling")
		accept := rapid.IntRange(1, 12).Draw(rt, "accept")

		wf := loopWorkflow(t, ceiling, func(pass int) string {
			if pass >= accept {
				return "Yes"
			}
			return "No"
		})

		state, err := runtime.NewEngine().Run(context.Background(), wf, "", map[string]any{"query": "q"})
		if err != nil {
			rt.Fatalf("run failed: %v", err)
		}

		want := accept
		if ceiling < want {
			want = ceiling
		}
		if got := state.Context["iteration_count"]; got != want {
			rt.Fatalf("iteration_count = %v, want %d", got, want)
		}
		if state.History[len(state.History)-1] != "answer" {
			rt.Fatalf("did not finish at answer: %v", state.History)
		}
		if state.Context["ok"] != "Yes" {
			rt.Fatalf("ok = %v at termination", state.Context["ok"])
		}
	})
}

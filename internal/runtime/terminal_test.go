package runtime_test

import (
	"context"
	"testing"

	"github.com/aretw0/wayfinder/internal/runtime"
	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/aretw0/wayfinder/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_TerminalNodeStops(t *testing.T) {
	var ran []string
	track := func(name string) domain.NodeFunc {
		return func(context.Context, domain.View) (domain.Update, error) {
			ran = append(ran, name)
			return nil, nil
		}
	}

	b := dsl.New("terminal")
	b.Add("a", track("a")).Go("b")
	b.Add("b", track("b")).Terminal()
	wf, err := b.Compile()
	require.NoError(t, err)

	state, err := runtime.NewEngine().Run(context.Background(), wf, "", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ran)
	assert.Equal(t, domain.StatusCompleted, state.Status)
	assert.Equal(t, "b", state.CurrentNodeID)
}

func TestEngine_EntryCanBeTerminal(t *testing.T) {
	b := dsl.New("single")
	b.Add("only", set(domain.Update{"done": true})).Terminal()
	wf, err := b.Compile()
	require.NoError(t, err)

	state, err := runtime.NewEngine().Run(context.Background(), wf, "", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, state.History)
	assert.Equal(t, true, state.Context["done"])
}

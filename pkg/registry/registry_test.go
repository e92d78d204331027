package registry_test

import (
	"context"
	"testing"

	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/aretw0/wayfinder/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(ctx context.Context, in domain.View) (domain.Update, error) {
	return nil, nil
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := registry.NewRegistry()
	require.NoError(t, r.Register("categorize", noop))
	require.NoError(t, r.Register("analyze_sentiment", noop))

	fn, err := r.Lookup("categorize")
	require.NoError(t, err)
	assert.NotNil(t, fn)

	assert.True(t, r.Has("analyze_sentiment"))
	assert.Equal(t, []string{"analyze_sentiment", "categorize"}, r.Names())
}

func TestRegistry_Errors(t *testing.T) {
	r := registry.NewRegistry()
	require.NoError(t, r.Register("router", noop))

	err := r.Register("router", noop)
	assert.ErrorIs(t, err, domain.ErrDuplicateNodeName)

	_, err = r.Lookup("missing")
	assert.ErrorIs(t, err, domain.ErrUnknownNode)

	assert.Error(t, r.Register("", noop))
	assert.Error(t, r.Register(domain.End, noop), "the end marker is reserved")
	assert.Error(t, r.Register("nil_fn", nil))
}

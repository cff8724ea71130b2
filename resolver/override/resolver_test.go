package override

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/flagly/policy"
	"github.com/viant/flagly/resolver"
	"github.com/viant/flagly/resolver/static"
)

func TestResolver_Resolve(t *testing.T) {
	delegate := static.New(map[string]string{
		"payment_flow": "v1",
		"search":       "classic",
	})

	r, err := New(delegate, WithExpression("payment_flow=v2"))
	require.NoError(t, err)

	ctx := context.Background()
	// override wins over the delegate
	assert.Equal(t, "v2", r.Resolve(ctx, "payment_flow", nil))
	// unlisted features delegate
	assert.Equal(t, "classic", r.Resolve(ctx, "search", nil))
	assert.Equal(t, resolver.Default, r.Resolve(ctx, "unknown", nil))
}

func TestResolver_PolicyPinWins(t *testing.T) {
	delegate := static.New(map[string]string{"payment_flow": "v1"})
	r, err := New(delegate, WithExpression("payment_flow=v2"))
	require.NoError(t, err)

	ctx := policy.WithPolicy(context.Background(), &policy.Policy{
		Pins: map[string]string{"payment_flow": "v9"},
	})
	assert.Equal(t, "v9", r.Resolve(ctx, "payment_flow", nil))
	// other features still see the packaged override or the delegate
	assert.Equal(t, "v2", r.Resolve(context.Background(), "payment_flow", nil))
}

func TestResolver_Env(t *testing.T) {
	os.Setenv("FLAGLY_TEST_FLAGS", "search=experimental")
	defer os.Unsetenv("FLAGLY_TEST_FLAGS")

	r, err := New(nil, WithEnv("FLAGLY_TEST_FLAGS"))
	require.NoError(t, err)

	assert.Equal(t, "experimental", r.Resolve(context.Background(), "search", nil))
	assert.Equal(t, resolver.Default, r.Resolve(context.Background(), "other", nil))
	assert.Equal(t, map[string]string{"search": "experimental"}, r.Overrides())
}

func TestResolver_UnsetEnvIsNoop(t *testing.T) {
	os.Unsetenv("FLAGLY_TEST_FLAGS")
	r, err := New(nil, WithEnv("FLAGLY_TEST_FLAGS"))
	require.NoError(t, err)
	assert.Empty(t, r.Overrides())
}

func TestResolver_LaterExpressionWins(t *testing.T) {
	r, err := New(nil,
		WithPairs(Pair{Feature: "a", Flow: "x"}),
		WithExpression("a=y,b=z"),
	)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "y", "b": "z"}, r.Overrides())
}

func TestResolver_MalformedExpression(t *testing.T) {
	_, err := New(nil, WithExpression("not valid = ="))
	assert.Error(t, err)
}

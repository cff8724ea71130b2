package static

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/flagly/resolver"
)

func TestResolver_Resolve(t *testing.T) {
	testCases := []struct {
		name     string
		flows    map[string]string
		feature  string
		expected string
	}{
		{
			name:     "assigned flow",
			flows:    map[string]string{"payment_flow": "v2"},
			feature:  "payment_flow",
			expected: "v2",
		},
		{
			name:     "unknown feature",
			flows:    map[string]string{"payment_flow": "v2"},
			feature:  "search",
			expected: resolver.Default,
		},
		{
			name:     "empty value",
			flows:    map[string]string{"payment_flow": ""},
			feature:  "payment_flow",
			expected: resolver.Default,
		},
		{
			name:     "blank value",
			flows:    map[string]string{"payment_flow": "   "},
			feature:  "payment_flow",
			expected: resolver.Default,
		},
		{
			name:     "padded value is trimmed",
			flows:    map[string]string{"payment_flow": "  v2  "},
			feature:  "payment_flow",
			expected: "v2",
		},
		{
			name:     "case sensitive key",
			flows:    map[string]string{"Payment_Flow": "v2"},
			feature:  "payment_flow",
			expected: resolver.Default,
		},
		{
			name:     "nil map",
			flows:    nil,
			feature:  "anything",
			expected: resolver.Default,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			r := New(testCase.flows)
			actual := r.Resolve(context.Background(), testCase.feature, nil)
			assert.Equal(t, testCase.expected, actual)
		})
	}
}

func TestResolver_CopiesBackingMap(t *testing.T) {
	flows := map[string]string{"payment_flow": "v2"}
	r := New(flows)
	flows["payment_flow"] = "v9"
	flows["extra"] = "x"

	assert.Equal(t, "v2", r.Resolve(context.Background(), "payment_flow", nil))
	assert.Equal(t, resolver.Default, r.Resolve(context.Background(), "extra", nil))
}

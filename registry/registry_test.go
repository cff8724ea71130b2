package registry

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/flagly/model/types"
	"github.com/viant/x"
)

type checkoutInput struct {
	Amount int
}

func noopHandler(tag string, calls *[]string) types.Handler {
	return func(ctx context.Context, input, output interface{}) error {
		*calls = append(*calls, tag)
		return nil
	}
}

func TestService_RegisterAndLookup(t *testing.T) {
	var calls []string
	service := New()
	service.Register("payment_flow", "v1", noopHandler("v1", &calls))
	service.Register("payment_flow", "v2", noopHandler("v2", &calls))
	service.Register("search", "experimental", noopHandler("search", &calls))

	handler, ok := service.Lookup("payment_flow", "v2")
	assert.True(t, ok)
	assert.NoError(t, handler(context.Background(), nil, nil))
	assert.Equal(t, []string{"v2"}, calls)

	_, ok = service.Lookup("payment_flow", "v3")
	assert.False(t, ok)
	_, ok = service.Lookup("unknown", "v1")
	assert.False(t, ok)

	// lookup is exact and case sensitive
	_, ok = service.Lookup("Payment_Flow", "v1")
	assert.False(t, ok)
	_, ok = service.Lookup("payment_flow", "V1")
	assert.False(t, ok)

	assert.Equal(t, []string{"v1", "v2"}, service.Flows("payment_flow"))
	assert.Nil(t, service.Flows("unknown"))
	assert.Equal(t, 3, service.Size())
}

func TestService_Handler(t *testing.T) {
	var calls []string
	service := New()
	service.Register("payment_flow", "v1", noopHandler("v1", &calls))

	handler, err := service.Handler("payment_flow", "v1")
	assert.NoError(t, err)
	assert.NotNil(t, handler)

	_, err = service.Handler("payment_flow", "v2")
	assert.EqualError(t, err, "handler payment_flow/v2 not found")
}

func TestService_Signatures(t *testing.T) {
	service := New()
	service.RegisterBinding(Binding{
		Feature: "payment_flow",
		Flow:    "v2",
		Handler: func(ctx context.Context, input, output interface{}) error { return nil },
		Input:   reflect.TypeOf(checkoutInput{}),
	})
	service.Register("payment_flow", "v1", noopHandler("v1", new([]string)))
	service.Register("checkout", "beta", noopHandler("beta", new([]string)))

	signatures := service.Signatures()
	assert.Equal(t, 3, len(signatures))
	assert.Equal(t, "checkout", signatures[0].Feature)
	assert.Equal(t, "payment_flow", signatures[1].Feature)
	assert.Equal(t, "v1", signatures[1].Flow)
	assert.Equal(t, "v2", signatures[2].Flow)

	declared := signatures.Lookup("payment_flow", "v2")
	if assert.NotNil(t, declared) {
		assert.Equal(t, reflect.TypeOf(checkoutInput{}), declared.Input)
	}
	assert.Nil(t, signatures.Lookup("payment_flow", "v9"))
}

func TestService_LastRegistrationWins(t *testing.T) {
	var calls []string
	service := New()
	service.Register("payment_flow", "v1", noopHandler("first", &calls))
	service.Register("payment_flow", "v1", noopHandler("second", &calls))

	handler, ok := service.Lookup("payment_flow", "v1")
	assert.True(t, ok)
	assert.NoError(t, handler(context.Background(), nil, nil))
	assert.Equal(t, []string{"second"}, calls)
	assert.Equal(t, 1, service.Size())
}

func TestService_RegisterBindingResolvesNamedTypes(t *testing.T) {
	service := New(x.NewType(reflect.TypeOf(checkoutInput{}), x.WithName("CheckoutInput")))
	service.RegisterBinding(Binding{
		Feature:   "checkout",
		Flow:      "v2",
		Handler:   func(ctx context.Context, input, output interface{}) error { return nil },
		InputType: "CheckoutInput",
	})

	binding, ok := service.Binding("checkout", "v2")
	assert.True(t, ok)
	assert.Equal(t, reflect.TypeOf(checkoutInput{}), binding.Input)
	assert.Nil(t, binding.Output)

	signature := binding.Signature()
	assert.Equal(t, "checkout", signature.Feature)
	assert.Equal(t, "v2", signature.Flow)
}

func TestTypes_LookupModifiers(t *testing.T) {
	typesRegistry := NewTypes()
	typesRegistry.Register(x.NewType(reflect.TypeOf(checkoutInput{}), x.WithName("CheckoutInput")))

	testCases := []struct {
		name     string
		lookup   string
		expected reflect.Type
	}{
		{name: "plain", lookup: "CheckoutInput", expected: reflect.TypeOf(checkoutInput{})},
		{name: "slice", lookup: "[]CheckoutInput", expected: reflect.TypeOf([]checkoutInput{})},
		{name: "slice of slice", lookup: "[][]CheckoutInput", expected: reflect.TypeOf([][]checkoutInput{})},
		{name: "map", lookup: "map[string]CheckoutInput", expected: reflect.TypeOf(map[string]checkoutInput{})},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			xType := typesRegistry.Lookup(testCase.lookup)
			if assert.NotNil(t, xType) {
				assert.Equal(t, testCase.expected, xType.Type)
			}
		})
	}

	assert.Nil(t, typesRegistry.Lookup("Unknown"))
}

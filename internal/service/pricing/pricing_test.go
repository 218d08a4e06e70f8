package pricing_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gofarma/internal/domain"
	apperror "gofarma/internal/errors"
	"gofarma/internal/service/pricing"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestFreeShippingThreshold(t *testing.T) {
	policy := pricing.FreeShippingThreshold{Fee: d("10"), Threshold: d("100")}

	assert.True(t, policy.Compute(d("99.99")).Equal(d("10")))
	assert.True(t, policy.Compute(d("100")).Equal(decimal.Zero))
	assert.True(t, policy.Compute(d("250")).Equal(decimal.Zero))
}

func TestFreeShippingThreshold_ZeroThresholdIsFlat(t *testing.T) {
	policy := pricing.FreeShippingThreshold{Fee: d("15"), Threshold: decimal.Zero}

	assert.True(t, policy.Compute(d("1000")).Equal(d("15")))
	assert.True(t, pricing.FlatRate{Fee: d("15")}.Compute(d("1000")).Equal(d("15")))
}

func TestNewQuote_EndToEndValues(t *testing.T) {
	policy := pricing.PolicyFor(domain.ShippingSettings{FlatFee: d("10"), FreeShippingThreshold: d("100")})

	q, err := pricing.NewQuote(d("12.99"), decimal.Zero, policy)

	require.NoError(t, err)
	assert.Equal(t, "22.99", q.Total.StringFixed(2))
	assert.True(t, q.Shipping.Equal(d("10")))
}

func TestNewQuote_Discount(t *testing.T) {
	policy := pricing.FlatRate{Fee: d("10")}

	q, err := pricing.NewQuote(d("50"), d("5.5"), policy)
	require.NoError(t, err)
	assert.True(t, q.Total.Equal(d("54.5")))

	_, err = pricing.NewQuote(d("50"), d("-1"), policy)
	assert.Error(t, err)
	_, err = pricing.NewQuote(d("50"), d("51"), policy)
	assert.Error(t, err)
}

func TestSplitInstallments(t *testing.T) {
	inst, err := pricing.SplitInstallments(d("100"), 3, 12)
	require.NoError(t, err)
	assert.Equal(t, "33.33", inst.Value.StringFixed(2))
	assert.True(t, inst.Total.Equal(d("100")), "o total não é alterado pelo parcelamento")

	_, err = pricing.SplitInstallments(d("100"), 0, 12)
	assert.Error(t, err)
	_, err = pricing.SplitInstallments(d("100"), 13, 12)
	assert.Error(t, err)

	assert.Len(t, pricing.InstallmentOptions(d("100"), 6), 6)
}

type fixedSettings struct {
	s domain.StoreSettings
}

func (f fixedSettings) GetSettings(ctx context.Context) (domain.StoreSettings, error) {
	return f.s, nil
}

func TestService_UsesCurrentSettings(t *testing.T) {
	svc := pricing.NewService(fixedSettings{domain.StoreSettings{
		MaxInstallments: 3,
		Shipping:        domain.ShippingSettings{FlatFee: d("20"), FreeShippingThreshold: d("50")},
	}})
	ctx := context.Background()

	q, err := svc.Quote(ctx, d("49.90"), decimal.Zero, "")
	require.NoError(t, err)
	assert.True(t, q.Total.Equal(d("69.90")))

	q, err = svc.Quote(ctx, d("50"), decimal.Zero, "")
	require.NoError(t, err)
	assert.True(t, q.Shipping.IsZero())

	_, err = svc.Installments(ctx, d("90"), 4)
	assert.Error(t, err)
	opts, err := svc.InstallmentOptions(ctx, d("90"))
	require.NoError(t, err)
	assert.Len(t, opts, 3)
}

func shippingWithMethods() domain.ShippingSettings {
	return domain.ShippingSettings{
		FlatFee:               d("10"),
		FreeShippingThreshold: d("100"),
		Methods: []domain.ShippingMethod{
			{ID: "expressa", Name: "Expressa", Fee: d("25"), EstimatedDays: 1, Active: true},
			{ID: "retirada", Name: "Retirada na loja", Fee: decimal.Zero, Active: true},
			{ID: "economica", Name: "Econômica", Fee: d("5"), FreeShippingThreshold: d("60"), Active: false},
		},
	}
}

func TestPolicyForMethod(t *testing.T) {
	s := shippingWithMethods()

	policy, err := pricing.PolicyForMethod(s, "")
	require.NoError(t, err)
	assert.True(t, policy.Compute(d("12.99")).Equal(d("10")))

	// limite zero: a expressa nunca é grátis
	policy, err = pricing.PolicyForMethod(s, "expressa")
	require.NoError(t, err)
	assert.True(t, policy.Compute(d("500")).Equal(d("25")))

	policy, err = pricing.PolicyForMethod(s, "retirada")
	require.NoError(t, err)
	assert.True(t, policy.Compute(d("1")).IsZero())

	_, err = pricing.PolicyForMethod(s, "economica")
	assert.IsType(t, &apperror.ValidationError{}, err)
	_, err = pricing.PolicyForMethod(s, "teletransporte")
	assert.IsType(t, &apperror.ValidationError{}, err)
}

func TestService_QuoteWithMethodAndActiveMethods(t *testing.T) {
	svc := pricing.NewService(fixedSettings{domain.StoreSettings{MaxInstallments: 1, Shipping: shippingWithMethods()}})
	ctx := context.Background()

	q, err := svc.Quote(ctx, d("12.99"), decimal.Zero, "expressa")
	require.NoError(t, err)
	assert.Equal(t, "37.99", q.Total.StringFixed(2))

	methods, err := svc.ShippingMethods(ctx)
	require.NoError(t, err)
	require.Len(t, methods, 2)
	assert.Equal(t, "expressa", methods[0].ID)
	assert.Equal(t, "retirada", methods[1].ID)
}

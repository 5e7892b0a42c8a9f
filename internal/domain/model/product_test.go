package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestFindVariant_ExactMatch(t *testing.T) {
	p := &Product{
		Variants: []ProductVariant{
			{Size: "M", Color: "Đen", Stock: 3},
			{Size: "L", Color: "Trắng", Stock: 5},
		},
	}

	v := p.FindVariant("M", "Đen")
	require.NotNil(t, v)
	require.Equal(t, uint(3), v.Stock)

	require.Nil(t, p.FindVariant("M", "Trắng"))
	require.Nil(t, p.FindVariant("m", "Đen"))
}

func TestResolvePrice_FallbackToBase(t *testing.T) {
	base := decimal.NewFromInt(100000)

	withPrice := ProductVariant{Price: decimal.NewFromInt(120000)}
	require.True(t, withPrice.ResolvePrice(base).Equal(decimal.NewFromInt(120000)))

	zeroPrice := ProductVariant{}
	require.True(t, zeroPrice.ResolvePrice(base).Equal(base))
}

func TestImagesForColor_Fallback(t *testing.T) {
	p := &Product{
		ColorImages: map[string][]string{"Đen": {"den-1.jpg"}},
		Images:      []string{"legacy-1.jpg"},
	}

	require.Equal(t, []string{"den-1.jpg"}, p.ImagesForColor("Đen"))
	require.Equal(t, []string{"legacy-1.jpg"}, p.ImagesForColor("Trắng"))
}

func TestStockTaken(t *testing.T) {
	cod := &Order{PaymentMethod: PaymentMethodCOD, Payment: false}
	require.True(t, cod.StockTaken())

	vnpayUnpaid := &Order{PaymentMethod: PaymentMethodVNPay, Payment: false}
	require.False(t, vnpayUnpaid.StockTaken())

	vnpayPaid := &Order{PaymentMethod: PaymentMethodVNPay, Payment: true}
	require.True(t, vnpayPaid.StockTaken())
}

package components

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"price_small", FormatPrice(decimal.RequireFromString("0.0001234")), "$0.000123"},
		{"price_large", FormatPrice(decimal.RequireFromString("3412.5")), "$3412.5000"},
		{"usd_positive", FormatUSD(decimal.RequireFromString("902")), "$902.00"},
		{"usd_negative", FormatUSD(decimal.RequireFromString("-12.345")), "-$12.35"},
		{"percent", FormatPercent(decimal.RequireFromString("9.02")), "+9.02%"},
		{"compact_millions", FormatCompact(decimal.RequireFromString("2500000")), "$2.50M"},
		{"compact_small", FormatCompact(decimal.RequireFromString("950")), "$950"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestPricesComponent_Spread(t *testing.T) {
	lo, hi := decimal.RequireFromString("1.00"), decimal.RequireFromString("1.10")
	p := NewPricesComponent()

	p.Update("chainlink", []PriceRow{{Chain: "ethereum", Price: &lo}, {Chain: "bsc", Reason: "timeout"}})
	_, ok := p.Spread()
	assert.False(t, ok, "one quoted chain has no spread")

	p.Update("chainlink", []PriceRow{{Chain: "ethereum", Price: &lo}, {Chain: "polygon", Price: &hi}})
	spread, ok := p.Spread()
	assert.True(t, ok)
	assert.True(t, spread.Equal(decimal.NewFromInt(10)), "spread = %s", spread)
}

func TestOpportunitiesComponent_Scroll(t *testing.T) {
	o := NewOpportunitiesComponent(2)
	o.Set(make([]OpportunityRow, 5), 12)

	o.ScrollUp()
	assert.Equal(t, 0, o.offset)

	for i := 0; i < 10; i++ {
		o.ScrollDown()
	}
	assert.Equal(t, 3, o.offset)

	o.Clear()
	assert.Equal(t, 0, o.Len())
	assert.Equal(t, 0, o.offset)
}

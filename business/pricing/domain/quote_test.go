package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestQuoteSet_PresentInCanonicalOrder(t *testing.T) {
	set := QuoteSet{
		TokenID: "chainlink",
		Results: map[Chain]QuoteResult{
			ChainBSC:      Present(ChainQuote{Chain: ChainBSC, Price: decimal.RequireFromString("14.2")}),
			ChainEthereum: Present(ChainQuote{Chain: ChainEthereum, Price: decimal.RequireFromString("14.1")}),
			ChainPolygon:  Absent(ChainPolygon, ReasonTimeout),
			ChainArbitrum: Present(ChainQuote{Chain: ChainArbitrum, Price: decimal.RequireFromString("14.0")}),
		},
	}

	present := set.Present()
	if len(present) != 3 {
		t.Fatalf("len(Present()) = %d, want 3", len(present))
	}
	want := []Chain{ChainEthereum, ChainArbitrum, ChainBSC}
	for i, q := range present {
		if q.Chain != want[i] {
			t.Errorf("present[%d] = %s, want %s", i, q.Chain, want[i])
		}
	}
	if set.PresentCount() != 3 {
		t.Errorf("PresentCount() = %d, want 3", set.PresentCount())
	}
	if r := set.Results[ChainPolygon]; r.IsPresent() || r.Reason != ReasonTimeout {
		t.Errorf("polygon result = %+v", r)
	}
}

func TestChainQuote_Valid(t *testing.T) {
	tests := []struct {
		name  string
		quote ChainQuote
		want  bool
	}{
		{"positive", ChainQuote{Chain: ChainBase, Price: decimal.RequireFromString("0.0001")}, true},
		{"zero", ChainQuote{Chain: ChainBase, Price: decimal.Zero}, false},
		{"negative", ChainQuote{Chain: ChainBase, Price: decimal.RequireFromString("-1")}, false},
		{"unknown chain", ChainQuote{Chain: "fantom", Price: decimal.RequireFromString("1")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.quote.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

package asset

import "testing"

func TestParseTokenID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantKind Kind
		wantStr  string
		wantErr  bool
	}{
		{
			name:     "evm address normalized to lowercase",
			input:    "0x514910771AF9Ca656af840dff83E8264EcF986CA",
			wantKind: KindEVMAddress,
			wantStr:  "0x514910771af9ca656af840dff83e8264ecf986ca",
		},
		{
			name:     "evm address surrounded by spaces",
			input:    "  0x514910771af9ca656af840dff83e8264ecf986ca ",
			wantKind: KindEVMAddress,
			wantStr:  "0x514910771af9ca656af840dff83e8264ecf986ca",
		},
		{
			name:     "solana mint",
			input:    "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
			wantKind: KindSolanaMint,
			wantStr:  "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		},
		{
			name:     "coin id",
			input:    "Chainlink",
			wantKind: KindCoinID,
			wantStr:  "chainlink",
		},
		{
			name:     "coin id with hyphen",
			input:    "matic-network",
			wantKind: KindCoinID,
			wantStr:  "matic-network",
		},
		{name: "empty", input: "", wantErr: true},
		{name: "whitespace", input: "   ", wantErr: true},
		{name: "short hex", input: "0x1234", wantErr: true},
		{name: "non hex address", input: "0xZZ4910771af9ca656af840dff83e8264ecf986ca", wantErr: true},
		{name: "path traversal", input: "../admin", wantErr: true},
		{name: "spaces inside", input: "usd coin", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTokenID(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Kind() != tt.wantKind {
				t.Errorf("Kind() = %v, want %v", got.Kind(), tt.wantKind)
			}
			if got.String() != tt.wantStr {
				t.Errorf("String() = %q, want %q", got.String(), tt.wantStr)
			}
		})
	}
}

func TestTokenID_Checksum(t *testing.T) {
	id, err := ParseTokenID("0x514910771af9ca656af840dff83e8264ecf986ca")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := id.Checksum(), "0x514910771AF9Ca656af840dff83E8264EcF986CA"; got != want {
		t.Errorf("Checksum() = %s, want %s", got, want)
	}

	var zero TokenID
	if !zero.IsZero() {
		t.Error("zero value should report IsZero")
	}
}

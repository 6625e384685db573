package provider

import "testing"

func TestValidateAddressFormat(t *testing.T) {
	tests := []struct {
		name    string
		chain   string
		address string
		want    bool
	}{
		{"btc bech32", "BTC", "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq", true},
		{"btc legacy", "BTC", "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", true},
		{"btc testnet rejected", "BTC", "tb1qw508d6qejxtdg4y5r3zarvary0c5xw7kxpjzsx", false},
		{"btc garbage", "BTC", "bc1-not-an-address", false},
		{"eth", "ETH", "0x52f1984Cd3e46e1214dB222D3Ff63712E7aCEedD", true},
		{"bsc lowercase", "bsc", "0x52f1984cd3e46e1214db222d3ff63712e7aceedd", true},
		{"eth too short", "ETH", "0x52f1984Cd3e46e", false},
		{"sol", "SOL", "11111111111111111111111111111111", true},
		{"sol invalid base58", "SOL", "0OIl", false},
		{"unknown chain passes", "TRX", "TXYZopYRdj2D9XRtbG411XZZ3kM5VkAeBf", true},
		{"empty", "TRX", "  ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateAddressFormat(tt.chain, tt.address); got != tt.want {
				t.Errorf("ValidateAddressFormat(%s, %s) = %v, want %v", tt.chain, tt.address, got, tt.want)
			}
		})
	}
}

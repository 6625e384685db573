/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package provider

import (
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"
)

var evmChains = map[string]bool{
	"ETH":      true,
	"BSC":      true,
	"POLYGON":  true,
	"ARBITRUM": true,
	"OP":       true,
	"BASE":     true,
	"AVAX":     true,
}

// ValidateAddressFormat is the local syntax check run before asking the
// provider. Chains without a known format pass.
func ValidateAddressFormat(chain, address string) bool {
	address = strings.TrimSpace(address)
	if address == "" {
		return false
	}

	chain = strings.ToUpper(chain)
	switch {
	case chain == "BTC":
		addr, err := btcutil.DecodeAddress(address, &chaincfg.MainNetParams)
		return err == nil && addr.IsForNet(&chaincfg.MainNetParams)
	case chain == "SOL":
		_, err := solana.PublicKeyFromBase58(address)
		return err == nil
	case evmChains[chain]:
		return common.IsHexAddress(address)
	default:
		return true
	}
}

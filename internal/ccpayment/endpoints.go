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

package ccpayment

import (
	"context"
	"strconv"

	"github.com/shopspring/decimal"
)

func (c *Client) GetCoinList(ctx context.Context) ([]Coin, error) {
	var data struct {
		Coins []Coin `json:"coins"`
	}
	if err := c.call(ctx, "getCoinList", nil, &data); err != nil {
		return nil, err
	}
	return data.Coins, nil
}

func (c *Client) GetCoin(ctx context.Context, coinId int64) (*Coin, error) {
	var data struct {
		Coin Coin `json:"coin"`
	}
	request := map[string]int64{"coinId": coinId}
	if err := c.call(ctx, "getCoin", request, &data); err != nil {
		return nil, err
	}
	return &data.Coin, nil
}

// GetCoinUSDTPrice returns USDT prices keyed by coin id
func (c *Client) GetCoinUSDTPrice(ctx context.Context, coinIds []int64) (map[int64]decimal.Decimal, error) {
	var data struct {
		Prices map[string]decimal.Decimal `json:"prices"`
	}
	request := map[string][]int64{"coinIds": coinIds}
	if err := c.call(ctx, "getCoinUSDTPrice", request, &data); err != nil {
		return nil, err
	}

	prices := make(map[int64]decimal.Decimal, len(data.Prices))
	for key, price := range data.Prices {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		prices[id] = price
	}
	return prices, nil
}

func (c *Client) GetSwapCoinList(ctx context.Context) ([]SwapCoin, error) {
	var data struct {
		Coins []SwapCoin `json:"coins"`
	}
	if err := c.call(ctx, "getSwapCoinList", nil, &data); err != nil {
		return nil, err
	}
	return data.Coins, nil
}

func (c *Client) GetOrCreateUserDepositAddress(ctx context.Context, userId, chain string) (*DepositAddress, error) {
	var data DepositAddress
	request := map[string]string{"userId": userId, "chain": chain}
	if err := c.call(ctx, "getOrCreateUserDepositAddress", request, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (c *Client) GetUserCoinAssetList(ctx context.Context, userId string) ([]Asset, error) {
	var data struct {
		UserId string  `json:"userId"`
		Assets []Asset `json:"assets"`
	}
	request := map[string]string{"userId": userId}
	if err := c.call(ctx, "getUserCoinAssetList", request, &data); err != nil {
		return nil, err
	}
	return data.Assets, nil
}

func (c *Client) GetAppCoinAssetList(ctx context.Context) ([]Asset, error) {
	var data struct {
		Assets []Asset `json:"assets"`
	}
	if err := c.call(ctx, "getAppCoinAssetList", nil, &data); err != nil {
		return nil, err
	}
	return data.Assets, nil
}

// ApplyUserWithdrawToNetwork submits a withdrawal and returns the provider record id
func (c *Client) ApplyUserWithdrawToNetwork(ctx context.Context, request UserWithdrawRequest) (string, error) {
	var data struct {
		RecordId string `json:"recordId"`
	}
	if err := c.call(ctx, "applyUserWithdrawToNetwork", request, &data); err != nil {
		return "", err
	}
	return data.RecordId, nil
}

func (c *Client) UserSwap(ctx context.Context, request UserSwapRequest) (*SwapResult, error) {
	var data SwapResult
	if err := c.call(ctx, "userSwap", request, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (c *Client) CheckWithdrawalAddressValidity(ctx context.Context, chain, address string) (bool, error) {
	var data struct {
		AddrIsValid bool `json:"addrIsValid"`
	}
	request := map[string]string{"chain": chain, "address": address}
	if err := c.call(ctx, "checkWithdrawalAddressValidity", request, &data); err != nil {
		return false, err
	}
	return data.AddrIsValid, nil
}

func (c *Client) GetWithdrawFee(ctx context.Context, coinId int64, chain string) (*Fee, error) {
	var data struct {
		Fee Fee `json:"fee"`
	}
	request := struct {
		CoinId int64  `json:"coinId"`
		Chain  string `json:"chain"`
	}{coinId, chain}
	if err := c.call(ctx, "getWithdrawFee", request, &data); err != nil {
		return nil, err
	}
	return &data.Fee, nil
}

func (c *Client) GetUserDepositRecord(ctx context.Context, recordId string) (*DepositRecord, error) {
	var data struct {
		Record DepositRecord `json:"record"`
	}
	request := map[string]string{"recordId": recordId}
	if err := c.call(ctx, "getUserDepositRecord", request, &data); err != nil {
		return nil, err
	}
	return &data.Record, nil
}

// GetUserDepositRecordList returns one page of deposit records and the cursor of the next
func (c *Client) GetUserDepositRecordList(ctx context.Context, query RecordQuery) ([]DepositRecord, string, error) {
	var data struct {
		Records []DepositRecord `json:"records"`
		NextId  string          `json:"nextId"`
	}
	if err := c.call(ctx, "getUserDepositRecordList", query, &data); err != nil {
		return nil, "", err
	}
	return data.Records, data.NextId, nil
}

func (c *Client) GetUserWithdrawRecordList(ctx context.Context, query RecordQuery) ([]WithdrawRecord, string, error) {
	var data struct {
		Records []WithdrawRecord `json:"records"`
		NextId  string           `json:"nextId"`
	}
	if err := c.call(ctx, "getUserWithdrawRecordList", query, &data); err != nil {
		return nil, "", err
	}
	return data.Records, data.NextId, nil
}

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


package api

import (
	"net/http"
	"strconv"

	"dgt-wallet-go/internal/apperr"
	"dgt-wallet-go/internal/models"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetUserBalance(c *gin.Context) {
	balance, err := s.wallet.GetUserBalance(c.Request.Context(), c.Param("userId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, balance)
}

func (s *Server) GetTransactionHistory(c *gin.Context) {
	opts := models.HistoryOptions{
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	var err error
	if opts.Page, err = intQuery(c, "page"); err != nil {
		fail(c, err)
		return
	}
	if opts.Limit, err = intQuery(c, "limit"); err != nil {
		fail(c, err)
		return
	}

	transactions, err := s.wallet.GetTransactionHistory(c.Request.Context(), c.Param("userId"), opts)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": transactions, "page": opts.Normalize().Page})
}

func (s *Server) GetDepositAddresses(c *gin.Context) {
	addresses, err := s.wallet.GetDepositAddresses(c.Request.Context(), c.Param("userId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"addresses": addresses})
}

func (s *Server) GetSupportedCoins(c *gin.Context) {
	coins, err := s.wallet.GetSupportedCoins(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"coins": coins})
}

func (s *Server) GetWalletConfig(c *gin.Context) {
	c.JSON(http.StatusOK, s.wallet.GetWalletConfig())
}

// intQuery reads an optional integer query parameter; absent is zero
func intQuery(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation("getTransactionHistory", "%s must be an integer", name)
	}
	return n, nil
}

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
	"context"
	"fmt"
	"net/http"
	"time"

	"dgt-wallet-go/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const headerRequestId = "X-Request-Id"

// WalletAPI is the part of the wallet service exposed over HTTP
type WalletAPI interface {
	ProcessWebhook(ctx context.Context, providerName string, delivery models.WebhookDelivery) (*models.WebhookResult, error)
	GetUserBalance(ctx context.Context, userId string) (*models.WalletBalance, error)
	GetTransactionHistory(ctx context.Context, userId string, opts models.HistoryOptions) ([]models.Transaction, error)
	GetDepositAddresses(ctx context.Context, userId string) ([]models.DepositAddress, error)
	GetSupportedCoins(ctx context.Context) ([]models.SupportedCoin, error)
	GetWalletConfig() models.WalletConfig
}

// HealthChecker reports whether a dependency is usable
type HealthChecker func(ctx context.Context) error

// Server is the HTTP surface of the wallet: provider webhooks, read-only
// wallet queries, health and metrics.
type Server struct {
	wallet WalletAPI
	health HealthChecker
	engine *gin.Engine
}

func NewServer(wallet WalletAPI, health HealthChecker) *Server {
	s := &Server{wallet: wallet, health: health}

	r := gin.New()
	r.Use(requestId(), accessLog(), gin.CustomRecovery(recoverPanic))

	r.GET("/healthz", s.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/webhooks/:provider", s.HandleWebhook)

	v1 := r.Group("/v1")
	{
		v1.GET("/config", s.GetWalletConfig)
		v1.GET("/coins", s.GetSupportedCoins)
		users := v1.Group("/users/:userId")
		users.GET("/balance", s.GetUserBalance)
		users.GET("/transactions", s.GetTransactionHistory)
		users.GET("/deposit-addresses", s.GetDepositAddresses)
	}

	s.engine = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// HTTPServer wraps the handler with the timeouts used in production
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}

func (s *Server) HealthCheck(c *gin.Context) {
	if s.health != nil {
		if err := s.health(c.Request.Context()); err != nil {
			zap.L().Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// requestId propagates or assigns a request id and exposes it to the
// service through the request context.
func requestId() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(headerRequestId)
		if rid == "" {
			rid = uuid.New().String()
		}
		c.Header(headerRequestId, rid)
		ctx := models.WithOrigin(c.Request.Context(), &models.Origin{RequestId: rid, Channel: "http"})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		zap.L().Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.Writer.Header().Get(headerRequestId)))
	}
}

func recoverPanic(c *gin.Context, recovered any) {
	zap.L().Error("HTTP handler panic",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("panic", fmt.Sprint(recovered)),
		zap.Stack("stack"))
	c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Kind: "UnknownError", Message: "internal error"})
}

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
	"io"
	"net/http"

	"dgt-wallet-go/internal/apperr"
	"dgt-wallet-go/internal/models"

	"github.com/gin-gonic/gin"
)

// maxWebhookBody bounds a provider callback
const maxWebhookBody = 1 << 20

// CCPayment signs callbacks with these headers
const (
	headerAppId     = "Appid"
	headerTimestamp = "Timestamp"
	headerSign      = "Sign"
)

// HandleWebhook passes the raw body and signature headers to the wallet
// service. CCPayment treats anything but {"msg":"success"} as a failed
// delivery and retries it.
func (s *Server) HandleWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody+1))
	if err != nil {
		fail(c, apperr.Validation("handleWebhook", "unable to read body"))
		return
	}
	if len(body) > maxWebhookBody {
		fail(c, apperr.Validation("handleWebhook", "body exceeds %d bytes", maxWebhookBody))
		return
	}

	result, err := s.wallet.ProcessWebhook(c.Request.Context(), c.Param("provider"), models.WebhookDelivery{
		Payload:   body,
		Signature: c.GetHeader(headerSign),
		Timestamp: c.GetHeader(headerTimestamp),
		AppId:     c.GetHeader(headerAppId),
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.Header("X-Webhook-Duplicate", boolHeader(result.Duplicate))
	c.JSON(http.StatusOK, gin.H{"msg": "success"})
}

func boolHeader(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

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
	"dgt-wallet-go/internal/apperr"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type errorResponse struct {
	Kind    string         `json:"kind"`
	Code    string         `json:"code,omitempty"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// fail answers with the status of the error's kind. Unknown and provider
// errors keep their cause out of the response body.
func fail(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	resp := errorResponse{Kind: string(kind), Message: "internal error"}
	if e, ok := apperr.As(err); ok {
		resp.Code = e.Code
		if kind != apperr.KindUnknown && kind != apperr.KindPaymentProvider {
			resp.Message = e.Message
			resp.Data = e.Data
		}
	}

	status := apperr.HTTPStatus(kind)
	zap.L().Warn("HTTP request failed",
		zap.String("path", c.FullPath()),
		zap.Int("status", status),
		zap.Error(err))
	c.AbortWithStatusJSON(status, resp)
}

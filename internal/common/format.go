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


package common

import (
	"fmt"
	"strings"

	"dgt-wallet-go/internal/models"

	"github.com/shopspring/decimal"
)

const ReportWidth = 72

// PrintHeader prints a title between two rules
func PrintHeader(title string) {
	fmt.Println("\n" + strings.Repeat("=", ReportWidth))
	fmt.Println(title)
	fmt.Println(strings.Repeat("=", ReportWidth))
}

// PrintFooter prints a closing message between two rules
func PrintFooter(message string) {
	fmt.Println("\n" + strings.Repeat("=", ReportWidth))
	fmt.Println(message)
	fmt.Println(strings.Repeat("=", ReportWidth) + "\n")
}

// BoxPrefix returns the box-drawing prefix for list items
func BoxPrefix(isLast bool) string {
	if isLast {
		return "└  "
	}
	return "│  "
}

// FormatDgt renders a DGT amount with the ledger's eight decimal places
// trimmed of trailing zeros.
func FormatDgt(amount decimal.Decimal) string {
	return amount.Truncate(8).String() + " DGT"
}

// ShortId abbreviates long identifiers for table output
func ShortId(id string) string {
	if len(id) <= 12 {
		return id
	}
	return id[:12] + "…"
}

// DescribeTransaction renders a ledger row from its typed metadata, naming
// the admin behind manual adjustments. Rows without readable metadata, such
// as provider history, fall back to the stored description.
func DescribeTransaction(tx models.Transaction) string {
	if len(tx.Metadata) == 0 {
		return tx.Description
	}
	metadata, err := models.DecodeMetadata(tx.Metadata)
	if err != nil {
		return tx.Description
	}

	switch m := metadata.(type) {
	case models.AdminCredit:
		return withActor(m.Description(), m.AdminId)
	case models.AdminDebit:
		return withActor(m.Description(), m.AdminId)
	default:
		return m.Description()
	}
}

func withActor(description, actor string) string {
	if actor == "" {
		return description
	}
	return fmt.Sprintf("%s (by %s)", description, actor)
}

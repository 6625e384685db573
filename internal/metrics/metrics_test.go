package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestOperationErrorsCountsByLabel(t *testing.T) {
	before := testutil.ToFloat64(OperationErrors.WithLabelValues("debitDgt", "InsufficientFunds"))
	OperationErrors.WithLabelValues("debitDgt", "InsufficientFunds").Inc()
	after := testutil.ToFloat64(OperationErrors.WithLabelValues("debitDgt", "InsufficientFunds"))

	if after-before != 1 {
		t.Errorf("Expected counter to advance by 1, got %v", after-before)
	}
}

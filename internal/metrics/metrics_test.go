package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveRequestRecordsASample(t *testing.T) {
	before := testutil.CollectAndCount(RequestDuration)
	ObserveRequest("put", "put_success", time.Now().Add(-time.Millisecond))
	after := testutil.CollectAndCount(RequestDuration)

	if after <= before {
		t.Errorf("expected a new series to be recorded, before=%d after=%d", before, after)
	}
}

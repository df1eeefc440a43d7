// =============================================================================
// WeChat Order Ledger - Month Partitioning
// =============================================================================
//
// One ledger file per calendar month. A batch is routed to the month that
// the majority of its fulfillment dates fall in; rows with unparseable or
// missing dates count toward the current month, and an empty batch falls
// back to the current month outright.
//
// =============================================================================

package ledger

import (
	"fmt"
	"time"

	"orderledger/internal/types"
)

const dateLayout = "2006-01-02"

// MonthFile returns the ledger path for a batch: "{dir}/{M}月.csv" where M
// is the majority fulfillment month. Ties break toward the month seen
// first, which keeps the choice deterministic for identical input.
func MonthFile(dir string, records []types.Record, now time.Time) string {
	counts := make(map[int]int)
	var order []int

	for _, record := range records {
		month := int(now.Month())
		if t, err := time.Parse(dateLayout, record.FulfillmentDate); err == nil {
			month = int(t.Month())
		}
		if counts[month] == 0 {
			order = append(order, month)
		}
		counts[month]++
	}

	month := int(now.Month())
	if len(order) > 0 {
		month = order[0]
		for _, m := range order[1:] {
			if counts[m] > counts[month] {
				month = m
			}
		}
	}

	return fmt.Sprintf("%s/%d月.csv", dir, month)
}

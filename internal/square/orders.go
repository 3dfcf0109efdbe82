package square

import (
	"context"
	"iter"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/reorder-forecast/internal/domain"
)

const orderPageLimit = 500

// orderPages lazily pages through completed orders created within [start, end]
// at the client's location.
func (c *Client) orderPages(ctx context.Context, start, end time.Time) iter.Seq2[*orderSearchResponse, error] {
	startAt := start.UTC().Format(time.RFC3339Nano)
	endAt := end.UTC().Format(time.RFC3339Nano)

	return pages(ctx, c, ordersSearchPath,
		func(cursor string) any {
			return orderSearchRequest{
				LocationIDs: []string{c.locationID},
				Query: orderQuery{
					Filter: orderFilter{
						DateTimeFilter: dateTimeFilter{CreatedAt: timeRange{StartAt: startAt, EndAt: endAt}},
						StateFilter:    stateFilter{States: []string{stateCompleted}},
					},
					Sort: &orderSort{SortField: "CREATED_AT", SortOrder: "ASC"},
				},
				Limit:  orderPageLimit,
				Cursor: cursor,
			}
		},
		func(r *orderSearchResponse) string { return r.Cursor },
	)
}

// FetchSales accumulates line item quantities of every order page into a
// ledger. A failing page stops paging; what was gathered so far is returned.
func (c *Client) FetchSales(ctx context.Context, start, end time.Time) (domain.SalesLedger, domain.StageReport) {
	report := domain.StageReport{Stage: domain.StageSales}
	ledger := make(domain.SalesLedger)
	orders := 0

	for page, err := range c.orderPages(ctx, start, end) {
		countPage(&report, err)
		if err != nil {
			report.Error = err.Error()
			log.Error().Err(err).Int("pages", report.Requests-report.Failed).Msg("square: failed to fetch sales data, keeping partial results")
			break
		}
		orders += len(page.Orders)
		for _, o := range page.Orders {
			addOrder(ledger, o)
		}
	}

	log.Debug().Int("orders", orders).Int("pages", report.Requests).Msg("square: fetched sales")
	report.Records = orders
	report.Status = domain.StatusFor(report.Failed, report.Requests)
	return ledger, report
}

func addOrder(ledger domain.SalesLedger, o order) {
	createdAt, err := time.Parse(time.RFC3339Nano, o.CreatedAt)
	if err != nil {
		log.Warn().Err(err).Str("order_id", o.ID).Msg("square: skipping order with unparseable created_at")
		return
	}
	for _, li := range o.LineItems {
		if li.CatalogObjectID == "" {
			continue
		}
		qty, err := parseQuantity(li.Quantity)
		if err != nil || qty <= 0 {
			log.Warn().Err(err).Str("order_id", o.ID).Str("variation_id", li.CatalogObjectID).Msg("square: skipping line item quantity")
			continue
		}
		ledger.Add(li.CatalogObjectID, createdAt, qty)
	}
}

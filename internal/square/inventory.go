package square

import (
	"context"
	"errors"
	"iter"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/reorder-forecast/internal/domain"
)

// FetchInventory retrieves IN_STOCK counts at the client's location for ids,
// in chunks of at most the configured batch size, following the cursor within
// each chunk. A failed chunk keeps the pages it already got and the other
// chunks are still merged.
func (c *Client) FetchInventory(ctx context.Context, ids []string) (domain.InventoryCounts, domain.StageReport) {
	report := domain.StageReport{Stage: domain.StageInventory}
	counts := make(domain.InventoryCounts)
	var errs []error

	for _, chunk := range chunkIDs(ids, c.batchSize) {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			report.Failed++
			break
		}

		for resp, err := range c.inventoryPages(ctx, chunk) {
			countPage(&report, err)
			if err != nil {
				errs = append(errs, err)
				log.Error().Err(err).Int("chunk_size", len(chunk)).Msg("square: failed to fetch inventory counts")
				break
			}
			collectCounts(resp.Counts, counts)
		}
	}

	report.Records = len(counts)
	report.Status = domain.StatusFor(report.Failed, report.Requests)
	if err := errors.Join(errs...); err != nil {
		report.Error = err.Error()
	}
	return counts, report
}

// inventoryPages follows the batch-retrieve cursor for one chunk of ids.
func (c *Client) inventoryPages(ctx context.Context, chunk []string) iter.Seq2[*inventoryBatchResponse, error] {
	return pages(ctx, c, inventoryCountsPath,
		func(cursor string) any {
			return inventoryBatchRequest{
				CatalogObjectIDs: chunk,
				LocationIDs:      []string{c.locationID},
				States:           []string{stateInStock},
				Cursor:           cursor,
			}
		},
		func(r *inventoryBatchResponse) string { return r.Cursor },
	)
}

func collectCounts(raw []inventoryCount, into domain.InventoryCounts) {
	for _, count := range raw {
		if count.State != stateInStock || count.CatalogObjectID == "" {
			continue
		}
		qty, err := parseStock(count.Quantity)
		if err != nil {
			log.Warn().Err(err).Str("variation_id", count.CatalogObjectID).Msg("square: skipping inventory count")
			continue
		}
		into[count.CatalogObjectID] = qty
	}
}

// chunkIDs splits ids into consecutive slices no longer than size.
func chunkIDs(ids []string, size int) [][]string {
	if size <= 0 {
		size = defaultBatchSize
	}
	var chunks [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}

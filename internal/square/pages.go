package square

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/reorder-forecast/internal/domain"
)

// ErrRepeatedCursor is yielded when the server hands out a cursor it already
// returned. Paging stops there and the listing is incomplete.
var ErrRepeatedCursor = errors.New("square: repeated pagination cursor")

// pages yields successive responses of a cursor paginated endpoint. The
// sequence ends after the first response without a cursor, or after the first
// error, which is yielded once. It is not restartable.
func pages[Resp any](ctx context.Context, c *Client, path string, request func(cursor string) any, next func(*Resp) string) iter.Seq2[*Resp, error] {
	return func(yield func(*Resp, error) bool) {
		cursor := ""
		seen := make(map[string]struct{})
		for {
			resp := new(Resp)
			if err := c.post(ctx, path, request(cursor), resp); err != nil {
				yield(nil, err)
				return
			}
			if !yield(resp, nil) {
				return
			}

			cursor = next(resp)
			if cursor == "" {
				return
			}
			if _, dup := seen[cursor]; dup {
				log.Warn().Str("path", path).Str("cursor", cursor).Msg("square: cursor repeated, stopping pagination")
				yield(nil, fmt.Errorf("%s: %w", path, ErrRepeatedCursor))
				return
			}
			seen[cursor] = struct{}{}
		}
	}
}

// countPage records one element of a pages sequence on report. A repeated
// cursor is not a request of its own but still counts as a failure.
func countPage(report *domain.StageReport, err error) {
	if !errors.Is(err, ErrRepeatedCursor) {
		report.Requests++
	}
	if err != nil {
		report.Failed++
	}
}

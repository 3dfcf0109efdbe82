package square

import (
	"context"
	"errors"
	"iter"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/reorder-forecast/internal/domain"
)

// FetchItems searches the catalog once per category and collects every
// variation keyed by variation id. A category whose search fails is logged
// and skipped; the remaining categories are still fetched.
func (c *Client) FetchItems(ctx context.Context, categoryIDs []string) (map[string]domain.ItemVariation, domain.StageReport) {
	report := domain.StageReport{Stage: domain.StageItems}
	items := make(map[string]domain.ItemVariation)
	var errs []error

	for _, categoryID := range categoryIDs {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			report.Failed++
			break
		}

		found := 0
		for resp, err := range c.searchItems(ctx, categoryID) {
			countPage(&report, err)
			if err != nil {
				errs = append(errs, err)
				log.Error().Err(err).Str("category_id", categoryID).Msg("square: failed to fetch items for category")
				break
			}
			for _, obj := range resp.Objects {
				found += collectVariations(obj, items)
			}
		}
		log.Debug().Str("category_id", categoryID).Int("variations", found).Msg("square: fetched category items")
	}

	report.Records = len(items)
	report.Status = domain.StatusFor(report.Failed, report.Requests)
	if err := errors.Join(errs...); err != nil {
		report.Error = err.Error()
	}
	return items, report
}

func (c *Client) searchItems(ctx context.Context, categoryID string) iter.Seq2[*catalogSearchResponse, error] {
	return pages(ctx, c, catalogSearchPath,
		func(cursor string) any {
			return catalogSearchRequest{
				ObjectTypes: []string{objectTypeItem},
				Query: &catalogQuery{ExactQuery: &exactQuery{
					AttributeName:  "category_id",
					AttributeValue: categoryID,
				}},
				Limit:  c.limit,
				Cursor: cursor,
			}
		},
		func(r *catalogSearchResponse) string { return r.Cursor },
	)
}

func collectVariations(obj catalogObject, into map[string]domain.ItemVariation) int {
	if obj.Type != objectTypeItem || obj.ItemData == nil {
		return 0
	}
	data := obj.ItemData

	categoryID := data.CategoryID
	if categoryID == "" && len(data.Categories) > 0 {
		categoryID = data.Categories[0].ID
	}
	reportingID := ""
	if data.ReportingCategory != nil {
		reportingID = data.ReportingCategory.ID
	}

	n := 0
	for _, v := range data.Variations {
		if v.ID == "" {
			continue
		}
		name := ""
		if v.VariationData != nil {
			name = v.VariationData.Name
		}
		into[v.ID] = domain.ItemVariation{
			ID:                  v.ID,
			ItemID:              obj.ID,
			ItemName:            data.Name,
			VariationName:       name,
			CategoryID:          categoryID,
			ReportingCategoryID: reportingID,
		}
		n++
	}
	return n
}

// FetchCategories lists every category in one catalog search. Only the first
// page is read.
func (c *Client) FetchCategories(ctx context.Context) (map[string]string, domain.StageReport) {
	report := domain.StageReport{Stage: domain.StageCategories, Requests: 1}
	names := make(map[string]string)

	var resp catalogSearchResponse
	err := c.post(ctx, catalogSearchPath, catalogSearchRequest{
		ObjectTypes: []string{objectTypeCategory},
	}, &resp)
	if err != nil {
		log.Error().Err(err).Msg("square: failed to fetch category names")
		report.Failed = 1
		report.Status = domain.FetchFailed
		report.Error = err.Error()
		return names, report
	}

	for _, obj := range resp.Objects {
		if obj.Type != objectTypeCategory || obj.CategoryData == nil {
			continue
		}
		names[obj.ID] = obj.CategoryData.Name
	}

	report.Records = len(names)
	report.Status = domain.FetchSuccess
	return names, report
}

// ListCategories returns the categories sorted by name, then id.
func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, domain.StageReport) {
	names, report := c.FetchCategories(ctx)
	return SortCategories(names), report
}

// SortCategories turns an id→name lookup into a slice ordered by name.
func SortCategories(names map[string]string) []domain.Category {
	out := make([]domain.Category, 0, len(names))
	for id, name := range names {
		out = append(out, domain.Category{ID: id, Name: name})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

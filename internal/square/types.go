package square

// Wire types for the subset of the Square Connect API the pipeline uses.
// Fields the platform may omit are pointers or zero values and are checked before use.

const (
	objectTypeItem     = "ITEM"
	objectTypeCategory = "CATEGORY"
	stateInStock       = "IN_STOCK"
	stateCompleted     = "COMPLETED"
)

type catalogSearchRequest struct {
	ObjectTypes []string      `json:"object_types"`
	Query       *catalogQuery `json:"query,omitempty"`
	Limit       int           `json:"limit,omitempty"`
	Cursor      string        `json:"cursor,omitempty"`
}

type catalogQuery struct {
	ExactQuery *exactQuery `json:"exact_query,omitempty"`
}

type exactQuery struct {
	AttributeName  string `json:"attribute_name"`
	AttributeValue string `json:"attribute_value"`
}

type catalogSearchResponse struct {
	Objects []catalogObject `json:"objects"`
	Cursor  string          `json:"cursor"`
}

type catalogObject struct {
	Type         string        `json:"type"`
	ID           string        `json:"id"`
	ItemData     *itemData     `json:"item_data,omitempty"`
	CategoryData *categoryData `json:"category_data,omitempty"`
}

type itemData struct {
	Name              string            `json:"name"`
	CategoryID        string            `json:"category_id"`
	Categories        []objectRef       `json:"categories"`
	ReportingCategory *objectRef        `json:"reporting_category,omitempty"`
	Variations        []variationObject `json:"variations"`
}

type objectRef struct {
	ID string `json:"id"`
}

type categoryData struct {
	Name string `json:"name"`
}

// variationData sits on variation objects under item_variation_data.
type variationData struct {
	ItemID string `json:"item_id"`
	Name   string `json:"name"`
}

type variationObject struct {
	Type          string         `json:"type"`
	ID            string         `json:"id"`
	VariationData *variationData `json:"item_variation_data,omitempty"`
}

type inventoryBatchRequest struct {
	CatalogObjectIDs []string `json:"catalog_object_ids"`
	LocationIDs      []string `json:"location_ids"`
	States           []string `json:"states"`
	Cursor           string   `json:"cursor,omitempty"`
}

type inventoryBatchResponse struct {
	Counts []inventoryCount `json:"counts"`
	Cursor string           `json:"cursor"`
}

type inventoryCount struct {
	CatalogObjectID string `json:"catalog_object_id"`
	State           string `json:"state"`
	LocationID      string `json:"location_id"`
	Quantity        string `json:"quantity"`
}

type orderSearchRequest struct {
	LocationIDs []string   `json:"location_ids"`
	Query       orderQuery `json:"query"`
	Limit       int        `json:"limit,omitempty"`
	Cursor      string     `json:"cursor,omitempty"`
}

type orderQuery struct {
	Filter orderFilter `json:"filter"`
	Sort   *orderSort  `json:"sort,omitempty"`
}

type orderFilter struct {
	DateTimeFilter dateTimeFilter `json:"date_time_filter"`
	StateFilter    stateFilter    `json:"state_filter"`
}

type dateTimeFilter struct {
	CreatedAt timeRange `json:"created_at"`
}

type timeRange struct {
	StartAt string `json:"start_at"`
	EndAt   string `json:"end_at"`
}

type stateFilter struct {
	States []string `json:"states"`
}

type orderSort struct {
	SortField string `json:"sort_field"`
	SortOrder string `json:"sort_order"`
}

type orderSearchResponse struct {
	Orders []order `json:"orders"`
	Cursor string  `json:"cursor"`
}

type order struct {
	ID        string     `json:"id"`
	State     string     `json:"state"`
	CreatedAt string     `json:"created_at"`
	LineItems []lineItem `json:"line_items"`
}

type lineItem struct {
	CatalogObjectID string `json:"catalog_object_id"`
	Quantity        string `json:"quantity"`
}

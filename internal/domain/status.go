package domain

import "strings"

// FetchStatus describes how much of a remote stage's data arrived.
type FetchStatus int

const (
	FetchSuccess FetchStatus = iota
	FetchPartial
	FetchFailed
)

var fetchStatusLabels = map[FetchStatus]string{
	FetchSuccess: "success",
	FetchPartial: "partial",
	FetchFailed:  "failed",
}

var fetchStatusCodes = map[string]FetchStatus{
	"success": FetchSuccess,
	"partial": FetchPartial,
	"failed":  FetchFailed,
}

func (s FetchStatus) String() string {
	if label, ok := fetchStatusLabels[s]; ok {
		return label
	}

	return "unknown"
}

// MarshalText encodes the status as its label.
func (s FetchStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParseFetchStatus returns the status for a given label (case-insensitive).
func ParseFetchStatus(label string) (FetchStatus, bool) {
	code, ok := fetchStatusCodes[strings.ToLower(strings.TrimSpace(label))]

	return code, ok
}

// StatusFor derives the status of a stage from its request counters.
func StatusFor(failed, total int) FetchStatus {
	switch {
	case failed == 0:
		return FetchSuccess
	case failed >= total:
		return FetchFailed
	default:
		return FetchPartial
	}
}

// StageReport records the outcome of one pipeline stage.
type StageReport struct {
	Stage    string      `json:"stage"`
	Status   FetchStatus `json:"status"`
	Requests int         `json:"requests"`
	Failed   int         `json:"failed"`
	Records  int         `json:"records"`
	Error    string      `json:"error,omitempty"`
}

// Pipeline stage names.
const (
	StageItems      = "items"
	StageCategories = "categories"
	StageInventory  = "inventory"
	StageSales      = "sales"
)

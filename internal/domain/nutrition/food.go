package nutrition

import "context"

// Food is a stored USDA food record with per-serving nutrients.
type Food struct {
	ID              string  `json:"id"`
	FDCID           int     `json:"fdcId"`
	Description     string  `json:"description"`
	Category        string  `json:"category,omitempty"`
	DataType        string  `json:"dataType,omitempty"`
	BrandOwner      string  `json:"brandOwner,omitempty"`
	Ingredients     string  `json:"ingredients,omitempty"`
	SearchText      string  `json:"searchText,omitempty"`
	ServingSize     float64 `json:"servingSize"`
	ServingSizeUnit string  `json:"servingSizeUnit,omitempty"`
	Calories        float64 `json:"calories"`
	Protein         float64 `json:"protein"`
	Carbs           float64 `json:"carbs"`
	Fat             float64 `json:"fat"`
	Fiber           float64 `json:"fiber"`
	Sugar           float64 `json:"sugar"`
}

// Match is one ranked retrieval result.
type Match struct {
	Food  Food
	Score float64
}

// Filter narrows a search to specific records.
type Filter struct {
	FDCIDs []int
}

// Searcher runs a semantic query against the food vector index.
type Searcher interface {
	Search(ctx context.Context, query string, topK int, filter *Filter) ([]Match, error)
}

// Catalog fetches stored foods by exact FDC id.
type Catalog interface {
	FoodsByFDCIDs(ctx context.Context, ids []int) ([]Food, error)
}

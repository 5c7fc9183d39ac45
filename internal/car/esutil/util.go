// File: internal/car/esutil/util.go

// Package esutil builds Elasticsearch document bodies and search queries for
// the cars index. It is deliberately free of model dependencies; the car
// package maps its types into the structures here.
package esutil

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// CarDocument is the shape of a car listing in the cars index. The document
// ID is the car's UUID; search results only carry IDs back and the rows are
// re-read from the database.
type CarDocument struct {
	Make         string    `json:"make"`
	Model        string    `json:"model"`
	Description  string    `json:"description,omitempty"`
	Slug         string    `json:"slug"`
	Year         int       `json:"year"`
	Price        float64   `json:"price"`
	Mileage      int       `json:"mileage"`
	Fuel         string    `json:"fuel"`
	Transmission string    `json:"transmission"`
	Location     string    `json:"location"`
	SellerID     string    `json:"seller_id"`
	Featured     bool      `json:"featured"`
	Verified     bool      `json:"verified"`
	Sold         bool      `json:"sold"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Marshal serializes the document to its index JSON.
func (d CarDocument) Marshal() ([]byte, error) {
	body, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal car document %s: %w", d.Slug, err)
	}
	return body, nil
}

// SearchParams carries the filters for a car search against the index.
type SearchParams struct {
	SearchTerm   string
	Make         string
	Fuel         string
	Transmission string
	Location     string
	YearMin      *int
	YearMax      *int
	PriceMin     *float64
	PriceMax     *float64
	Featured     *bool
	IncludeSold  bool
	SortBy       string
	SortOrder    string
	From         int
	Size         int
}

// BuildSearchQuery constructs the ES search body for a car search. Pagination
// is expressed through from/size; sorting mirrors the SQL search's fixed set
// of sortable fields.
func BuildSearchQuery(p SearchParams) ([]byte, error) {
	must := make([]map[string]interface{}, 0, 2)
	filter := make([]map[string]interface{}, 0, 8)

	if term := strings.TrimSpace(p.SearchTerm); term != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     term,
				"fields":    []string{"make^2", "model^2", "description"},
				"type":      "best_fields",
				"fuzziness": "AUTO",
			},
		})
	}
	if p.Make != "" {
		filter = append(filter, termFilter("make.keyword", p.Make))
	}
	if p.Fuel != "" {
		filter = append(filter, termFilter("fuel", p.Fuel))
	}
	if p.Transmission != "" {
		filter = append(filter, termFilter("transmission", p.Transmission))
	}
	if p.Location != "" {
		filter = append(filter, termFilter("location", p.Location))
	}
	if p.Featured != nil {
		filter = append(filter, termFilter("featured", *p.Featured))
	}
	if !p.IncludeSold {
		filter = append(filter, termFilter("sold", false))
	}
	if p.YearMin != nil || p.YearMax != nil {
		filter = append(filter, rangeFilterInt("year", p.YearMin, p.YearMax))
	}
	if p.PriceMin != nil || p.PriceMax != nil {
		filter = append(filter, rangeFilterFloat("price", p.PriceMin, p.PriceMax))
	}

	boolQuery := map[string]interface{}{}
	if len(must) > 0 {
		boolQuery["must"] = must
	}
	if len(filter) > 0 {
		boolQuery["filter"] = filter
	}
	if len(boolQuery) == 0 {
		boolQuery["must"] = []map[string]interface{}{{"match_all": map[string]interface{}{}}}
	}

	body := map[string]interface{}{
		"query":   map[string]interface{}{"bool": boolQuery},
		"from":    p.From,
		"size":    p.Size,
		"sort":    buildSort(p),
		"_source": false,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal car search query: %w", err)
	}
	return payload, nil
}

func buildSort(p SearchParams) []map[string]interface{} {
	validSortableFields := map[string]string{
		"created_at": "created_at",
		"price":      "price",
		"year":       "year",
		"mileage":    "mileage",
	}
	field, ok := validSortableFields[p.SortBy]
	if !ok {
		// Relevance first when a free-text term is present, recency otherwise.
		if strings.TrimSpace(p.SearchTerm) != "" {
			return []map[string]interface{}{
				{"_score": map[string]interface{}{"order": "desc"}},
				{"created_at": map[string]interface{}{"order": "desc"}},
			}
		}
		field = "created_at"
	}
	order := "desc"
	if strings.ToLower(p.SortOrder) == "asc" {
		order = "asc"
	}
	return []map[string]interface{}{
		{field: map[string]interface{}{"order": order}},
	}
}

func termFilter(field string, value interface{}) map[string]interface{} {
	return map[string]interface{}{
		"term": map[string]interface{}{field: value},
	}
}

func rangeFilterInt(field string, min, max *int) map[string]interface{} {
	bounds := map[string]interface{}{}
	if min != nil {
		bounds["gte"] = *min
	}
	if max != nil {
		bounds["lte"] = *max
	}
	return map[string]interface{}{
		"range": map[string]interface{}{field: bounds},
	}
}

func rangeFilterFloat(field string, min, max *float64) map[string]interface{} {
	bounds := map[string]interface{}{}
	if min != nil {
		bounds["gte"] = *min
	}
	if max != nil {
		bounds["lte"] = *max
	}
	return map[string]interface{}{
		"range": map[string]interface{}{field: bounds},
	}
}

// SearchResponse is the subset of the ES search response callers read.
type SearchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID string `json:"_id"`
		} `json:"hits"`
	} `json:"hits"`
}

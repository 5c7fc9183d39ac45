// File: internal/platform/elasticsearch/index.go
package elasticsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"
)

const CarsIndexName = "cars"

// defineCarsMapping returns the JSON string for the cars index mapping.
func defineCarsMapping() (string, error) {
	mapping := map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"make":         map[string]interface{}{"type": "text", "fields": map[string]interface{}{"keyword": map[string]interface{}{"type": "keyword", "ignore_above": 256}}},
				"model":        map[string]interface{}{"type": "text", "fields": map[string]interface{}{"keyword": map[string]interface{}{"type": "keyword", "ignore_above": 256}}},
				"description":  map[string]interface{}{"type": "text"},
				"slug":         map[string]interface{}{"type": "keyword"},
				"year":         map[string]interface{}{"type": "integer"},
				"price":        map[string]interface{}{"type": "double"},
				"mileage":      map[string]interface{}{"type": "integer"},
				"fuel":         map[string]interface{}{"type": "keyword"},
				"transmission": map[string]interface{}{"type": "keyword"},
				"location":     map[string]interface{}{"type": "keyword"},
				"seller_id":    map[string]interface{}{"type": "keyword"},
				"featured":     map[string]interface{}{"type": "boolean"},
				"verified":     map[string]interface{}{"type": "boolean"},
				"sold":         map[string]interface{}{"type": "boolean"},
				"created_at":   map[string]interface{}{"type": "date"},
				"updated_at":   map[string]interface{}{"type": "date"},
			},
		},
	}
	mappingBytes, err := json.Marshal(mapping)
	if err != nil {
		return "", fmt.Errorf("error marshalling cars mapping to JSON: %w", err)
	}
	return string(mappingBytes), nil
}

// CreateCarsIndexIfNotExists creates the cars index with the defined mapping
// if it does not already exist.
func CreateCarsIndexIfNotExists(client *ESClientWrapper, logger *zap.Logger) error {
	ctx := context.Background()
	log := logger.Named("elasticsearch_index_setup")

	req := esapi.IndicesExistsRequest{
		Index: []string{CarsIndexName},
	}
	res, err := req.Do(ctx, client.Client)
	if err != nil {
		log.Error("Error checking if cars index exists", zap.Error(err))
		return fmt.Errorf("error checking if cars index exists: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		log.Info("Cars index already exists", zap.String("index_name", CarsIndexName))
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		log.Error("Unexpected status while checking cars index",
			zap.String("status", res.Status()),
			zap.String("index_name", CarsIndexName))
		return fmt.Errorf("error checking if cars index exists: status %s", res.Status())
	}

	mappingJSON, err := defineCarsMapping()
	if err != nil {
		return err
	}

	createReq := esapi.IndicesCreateRequest{
		Index: CarsIndexName,
		Body:  strings.NewReader(mappingJSON),
	}
	createRes, err := createReq.Do(ctx, client.Client)
	if err != nil {
		log.Error("Error creating cars index", zap.Error(err))
		return fmt.Errorf("error creating cars index: %w", err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		log.Error("Cars index creation returned an error", zap.String("status", createRes.Status()))
		return fmt.Errorf("cars index creation failed: status %s", createRes.Status())
	}

	log.Info("Cars index created", zap.String("index_name", CarsIndexName))
	return nil
}

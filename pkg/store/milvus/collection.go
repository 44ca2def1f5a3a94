package milvus

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/tunogya/hcpart/pkg/model"
)

const (
	// DefaultCollectionName is the default collection name for profile shapes
	DefaultCollectionName = "profile_shapes"
)

// Field names of the shape collection
const (
	FieldResultID    = "result_id"
	FieldEmbedding   = "embedding"
	FieldProfileName = "profile_name"
	FieldMethod      = "method"
	FieldNumClusters = "num_clusters"
	FieldTotalError  = "total_error"
)

// CollectionConfig holds configuration for creating a collection
type CollectionConfig struct {
	Name      string
	Dimension int // Vector dimension
	Shards    int // Number of shards
	NList     int // IVF cluster count of the index
}

// DefaultCollectionConfig returns default collection configuration
func DefaultCollectionConfig() CollectionConfig {
	return CollectionConfig{
		Name:      DefaultCollectionName,
		Dimension: model.VectorDim96,
		Shards:    2,
		NList:     128,
	}
}

// CreateCollection creates the shape collection; it reports whether the
// collection was newly created
func (c *Client) CreateCollection(ctx context.Context, cfg CollectionConfig) (bool, error) {
	exists, err := c.HasCollection(ctx, cfg.Name)
	if err != nil {
		return false, fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		return false, nil
	}

	err = c.conn.CreateCollection(ctx, shapeSchema(cfg), int32(cfg.Shards))
	if err != nil {
		return false, fmt.Errorf("failed to create collection: %w", err)
	}
	return true, nil
}

func shapeSchema(cfg CollectionConfig) *entity.Schema {
	return &entity.Schema{
		CollectionName: cfg.Name,
		Description:    "Reduced profile shapes for similarity search",
		Fields: []*entity.Field{
			{
				Name:       FieldResultID,
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     FieldEmbedding,
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": strconv.Itoa(cfg.Dimension),
				},
			},
			{
				Name:     FieldProfileName,
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "256",
				},
			},
			{
				Name:     FieldMethod,
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "32",
				},
			},
			{
				Name:     FieldNumClusters,
				DataType: entity.FieldTypeInt32,
			},
			{
				Name:     FieldTotalError,
				DataType: entity.FieldTypeDouble,
			},
		},
	}
}

// Upsert writes shapes, replacing earlier rows with the same result ID
func (c *Client) Upsert(ctx context.Context, collectionName string, shapes []model.ProfileShape) error {
	if len(shapes) == 0 {
		return nil
	}
	columns, err := shapeColumns(shapes)
	if err != nil {
		return err
	}
	if _, err := c.conn.Upsert(ctx, collectionName, "", columns...); err != nil {
		return fmt.Errorf("failed to upsert: %w", err)
	}
	return nil
}

// shapeColumns converts shapes into column data; all vectors must share one
// dimension
func shapeColumns(shapes []model.ProfileShape) ([]entity.Column, error) {
	dim := shapes[0].Vector.Dim()
	ids := make([]string, len(shapes))
	embeddings := make([][]float32, len(shapes))
	names := make([]string, len(shapes))
	methods := make([]string, len(shapes))
	clusters := make([]int32, len(shapes))
	totals := make([]float64, len(shapes))

	for i, s := range shapes {
		if s.Vector.Dim() != dim {
			return nil, fmt.Errorf("shape %s has dimension %d, expected %d", s.ResultID, s.Vector.Dim(), dim)
		}
		ids[i] = s.ResultID
		embeddings[i] = s.Vector
		names[i] = s.ProfileName
		methods[i] = s.Method
		clusters[i] = int32(s.NumClusters)
		totals[i] = s.TotalError
	}

	return []entity.Column{
		entity.NewColumnVarChar(FieldResultID, ids),
		entity.NewColumnFloatVector(FieldEmbedding, dim, embeddings),
		entity.NewColumnVarChar(FieldProfileName, names),
		entity.NewColumnVarChar(FieldMethod, methods),
		entity.NewColumnInt32(FieldNumClusters, clusters),
		entity.NewColumnDouble(FieldTotalError, totals),
	}, nil
}

// SearchResult represents a single search result
type SearchResult struct {
	model.ProfileShape
	Score float32
}

// Filter builds a boolean expression restricting a search to a method and
// target cluster count; zero values leave the field unrestricted
func Filter(method string, clusters int) string {
	var parts []string
	if method != "" {
		parts = append(parts, fmt.Sprintf("%s == %q", FieldMethod, method))
	}
	if clusters > 0 {
		parts = append(parts, fmt.Sprintf("%s == %d", FieldNumClusters, clusters))
	}
	return strings.Join(parts, " && ")
}

// Search performs a TopK similarity search
func (c *Client) Search(ctx context.Context, collectionName string, embedding []float32, filter string, topK int) ([]SearchResult, error) {
	vectors := []entity.Vector{entity.FloatVector(embedding)}

	sp, err := entity.NewIndexIvfFlatSearchParam(16) // nprobe
	if err != nil {
		return nil, fmt.Errorf("failed to create search param: %w", err)
	}

	outputFields := []string{FieldResultID, FieldProfileName, FieldMethod, FieldNumClusters, FieldTotalError}

	results, err := c.conn.Search(
		ctx,
		collectionName,
		nil,          // partitions
		filter,       // expression filter
		outputFields, // output fields
		vectors,
		FieldEmbedding,
		entity.COSINE,
		topK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	if len(results) == 0 {
		return nil, nil
	}
	return parseResults(results[0].ResultCount, results[0].Scores, results[0].Fields), nil
}

// parseResults extracts the output fields of one result set
func parseResults(count int, scores []float32, fields []entity.Column) []SearchResult {
	out := make([]SearchResult, count)
	for i := range out {
		out[i].Score = scores[i]
		for _, field := range fields {
			switch col := field.(type) {
			case *entity.ColumnVarChar:
				val, _ := col.ValueByIdx(i)
				switch col.Name() {
				case FieldResultID:
					out[i].ResultID = val
				case FieldProfileName:
					out[i].ProfileName = val
				case FieldMethod:
					out[i].Method = val
				}
			case *entity.ColumnInt32:
				if col.Name() == FieldNumClusters {
					val, _ := col.ValueByIdx(i)
					out[i].NumClusters = int(val)
				}
			case *entity.ColumnDouble:
				if col.Name() == FieldTotalError {
					val, _ := col.ValueByIdx(i)
					out[i].TotalError = val
				}
			}
		}
	}
	return out
}

// Flush flushes the collection to ensure data persistence
func (c *Client) Flush(ctx context.Context, collectionName string) error {
	return c.conn.Flush(ctx, collectionName, false)
}

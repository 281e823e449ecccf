package vector

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/qdrant/go-client/qdrant"

	"github.com/curator-ai/curator/pkg/content"
)

// QdrantIndex implements Index backed by a qdrant server.
type QdrantIndex struct {
	client     *qdrant.Client
	collection string
	dimension  int
}

// NewQdrantIndex connects to qdrant and ensures the section collection.
func NewQdrantIndex(cfg Config) (*QdrantIndex, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.EnableTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	idx := &QdrantIndex{
		client:     client,
		collection: cfg.Collection,
		dimension:  cfg.Dimension,
	}
	if err := idx.ensureCollection(context.Background()); err != nil {
		_ = client.Close()
		return nil, err
	}
	return idx, nil
}

func (x *QdrantIndex) ensureCollection(ctx context.Context) error {
	exists, err := x.client.CollectionExists(ctx, x.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		return nil
	}

	err = x.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: x.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(x.dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

// UpsertSection writes one section point with its payload.
func (x *QdrantIndex) UpsertSection(ctx context.Context, sec *content.DocumentSection) error {
	metaJSON, err := json.Marshal(sec.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode section metadata: %w", err)
	}

	payload := map[string]*qdrant.Value{
		fieldUserID:      qdrant.NewValueString(sec.UserID),
		fieldDocumentID:  qdrant.NewValueString(sec.DocumentID),
		fieldSectionType: qdrant.NewValueString(string(sec.SectionType)),
		fieldContent:     qdrant.NewValueString(sec.Content),
		fieldMetadata:    qdrant.NewValueString(string(metaJSON)),
	}

	_, err = x.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: x.collection,
		Points: []*qdrant.PointStruct{{
			Id:      qdrant.NewID(sec.ID),
			Vectors: qdrant.NewVectors(sec.Embedding...),
			Payload: payload,
		}},
	})
	if err != nil {
		return fmt.Errorf("failed to upsert section %s: %w", sec.ID, err)
	}
	return nil
}

// DeleteDocument removes every point whose payload references the document.
func (x *QdrantIndex) DeleteDocument(ctx context.Context, documentID string) error {
	_, err := x.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: x.collection,
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch(fieldDocumentID, documentID),
			},
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to delete sections for document %s: %w", documentID, err)
	}
	return nil
}

// Search returns the user's sections ranked by cosine similarity.
func (x *QdrantIndex) Search(ctx context.Context, q Query) ([]Result, error) {
	req := &qdrant.SearchPoints{
		CollectionName: x.collection,
		Vector:         q.Vector,
		Limit:          uint64(q.Limit),
		WithPayload:    qdrant.NewWithPayload(true),
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch(fieldUserID, q.UserID),
			},
		},
	}
	if q.Threshold > 0 {
		threshold := q.Threshold
		req.ScoreThreshold = &threshold
	}

	points, err := x.client.GetPointsClient().Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("qdrant search failed: %w", err)
	}

	results := make([]Result, 0, len(points.Result))
	for _, p := range points.Result {
		results = append(results, pointToResult(p))
	}
	return results, nil
}

func pointToResult(p *qdrant.ScoredPoint) Result {
	r := Result{Score: p.Score}

	if p.Id != nil {
		switch id := p.Id.PointIdOptions.(type) {
		case *qdrant.PointId_Uuid:
			r.SectionID = id.Uuid
		case *qdrant.PointId_Num:
			r.SectionID = fmt.Sprintf("%d", id.Num)
		}
	}

	for key, value := range p.Payload {
		sv := value.GetStringValue()
		switch key {
		case fieldUserID:
			// scoping field, not returned
		case fieldDocumentID:
			r.DocumentID = sv
		case fieldSectionType:
			r.SectionType = content.SourceType(sv)
		case fieldContent:
			r.Content = sv
		case fieldMetadata:
			var meta map[string]any
			if err := json.Unmarshal([]byte(sv), &meta); err == nil {
				r.Metadata = meta
			}
		}
	}
	return r
}

// Close closes the qdrant connection.
func (x *QdrantIndex) Close() error {
	return x.client.Close()
}

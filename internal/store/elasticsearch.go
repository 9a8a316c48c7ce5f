package store

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/google/uuid"

	apperrors "deal-intake/internal/common/errors"
	"deal-intake/internal/models"
)

const ElasticsearchName = "elasticsearch"

// ElasticsearchStore indexes one document per deal.
type ElasticsearchStore struct {
	client *elasticsearch.Client
	index  string
	now    func() time.Time
}

func NewElasticsearchStore(client *elasticsearch.Client, index string) *ElasticsearchStore {
	if index == "" {
		index = "deals"
	}
	return &ElasticsearchStore{client: client, index: index, now: time.Now}
}

func (s *ElasticsearchStore) Name() string { return ElasticsearchName }

func (s *ElasticsearchStore) Ping(ctx context.Context) error {
	res, err := s.client.Ping(s.client.Ping.WithContext(ctx))
	if err != nil {
		return apperrors.NewStoreUnavailableError(ElasticsearchName, err)
	}
	defer res.Body.Close()
	if _, fatal := classifyStatus(ElasticsearchName, res.StatusCode, res.Status()); fatal != nil {
		return fatal
	}
	return nil
}

type indexResponse struct {
	ID     string `json:"_id"`
	Result string `json:"result"`
}

func (s *ElasticsearchStore) Submit(ctx context.Context, records []models.Attributes) ([]Result, error) {
	batchID := BatchID(ctx)
	results := make([]Result, 0, len(records))

	for i, rec := range records {
		doc := map[string]interface{}{
			"batch_id":   batchID,
			"created_at": s.now().UTC().Format(time.RFC3339),
		}
		for k, v := range rec {
			doc[k] = v
		}
		doc[models.AttrFunnels] = funnelsOf(rec)

		body, err := json.Marshal(doc)
		if err != nil {
			results = append(results, Result{Index: i, Err: err})
			continue
		}

		res, err := s.client.Index(s.index, bytes.NewReader(body),
			s.client.Index.WithContext(ctx),
			s.client.Index.WithDocumentID(uuid.New().String()),
		)
		if err != nil {
			return results, apperrors.NewStoreUnavailableError(ElasticsearchName, err)
		}
		payload, _ := io.ReadAll(res.Body)
		res.Body.Close()

		itemErr, fatal := classifyStatus(ElasticsearchName, res.StatusCode, string(payload))
		if fatal != nil {
			return results, fatal
		}
		if itemErr != nil {
			results = append(results, Result{Index: i, Err: itemErr})
			continue
		}

		var out indexResponse
		if err := json.Unmarshal(payload, &out); err != nil {
			results = append(results, Result{Index: i, Err: err})
			continue
		}
		results = append(results, Result{Index: i, OK: true, ExternalID: out.ID})
	}
	return results, nil
}

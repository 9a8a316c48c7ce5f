package store

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"deal-intake/internal/common/config"
	apperrors "deal-intake/internal/common/errors"
	commonhttp "deal-intake/internal/common/http"
	"deal-intake/internal/common/logger"
	"deal-intake/internal/models"
)

const NotionName = "notion"

// NotionStore creates one page per deal in the offers database and links the advertiser page when one exists.
type NotionStore struct {
	cfg    config.NotionConfig
	client *commonhttp.Client
	logger logger.Logger
}

func NewNotionStore(cfg config.NotionConfig, client *commonhttp.Client, log logger.Logger) *NotionStore {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.notion.com/v1"
	}
	if cfg.Version == "" {
		cfg.Version = "2022-06-28"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &NotionStore{cfg: cfg, client: client, logger: log}
}

func (s *NotionStore) Name() string { return NotionName }

type notionError struct {
	Object  string `json:"object"`
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type notionPage struct {
	ID string `json:"id"`
}

type notionQueryResponse struct {
	Results []notionPage `json:"results"`
}

func (s *NotionStore) headers() map[string]string {
	return map[string]string{
		"Authorization":  "Bearer " + s.cfg.Token,
		"Notion-Version": s.cfg.Version,
	}
}

func (s *NotionStore) Ping(ctx context.Context) error {
	if s.cfg.Token == "" {
		return apperrors.NewStoreCredentialMissingError(NotionName, "notion token is not set")
	}
	resp, err := s.client.DoJSON(ctx, http.MethodGet, s.cfg.BaseURL+"/users/me", s.headers(), nil)
	if err != nil {
		return apperrors.NewStoreUnavailableError(NotionName, err)
	}
	if _, fatal := classifyStatus(NotionName, resp.StatusCode, errorMessage(resp)); fatal != nil {
		return fatal
	}
	if !resp.OK() {
		return fmt.Errorf("notion ping failed (status %d): %s", resp.StatusCode, errorMessage(resp))
	}
	return nil
}

func (s *NotionStore) Submit(ctx context.Context, records []models.Attributes) ([]Result, error) {
	if s.cfg.Token == "" || s.cfg.OffersDatabaseID == "" {
		return nil, apperrors.NewStoreCredentialMissingError(NotionName, "notion token and offers database id are required")
	}

	results := make([]Result, 0, len(records))
	for i, rec := range records {
		advertiserID, err := s.findAdvertiser(ctx, rec.String(models.AttrCompanyName))
		if apperrors.IsFatal(err) {
			return results, err
		}
		if err != nil {
			s.logger.Warn("advertiser lookup failed, submitting without relation", map[string]interface{}{
				"company": rec.String(models.AttrCompanyName),
				"error":   err.Error(),
			})
		}

		resp, err := s.client.DoJSON(ctx, http.MethodPost, s.cfg.BaseURL+"/pages", s.headers(), s.pagePayload(rec, advertiserID))
		if err != nil {
			return results, apperrors.NewStoreUnavailableError(NotionName, err)
		}
		itemErr, fatal := classifyStatus(NotionName, resp.StatusCode, errorMessage(resp))
		if fatal != nil {
			return results, fatal
		}
		if itemErr != nil {
			results = append(results, Result{Index: i, Err: itemErr})
			continue
		}

		var page notionPage
		if err := resp.Decode(&page); err != nil {
			results = append(results, Result{Index: i, Err: err})
			continue
		}
		results = append(results, Result{Index: i, OK: true, ExternalID: page.ID})
	}
	return results, nil
}

// findAdvertiser returns the advertiser page id for company, or "" when there is none.
func (s *NotionStore) findAdvertiser(ctx context.Context, company string) (string, error) {
	if s.cfg.AdvertisersDatabaseID == "" || company == "" {
		return "", nil
	}
	query := map[string]interface{}{
		"filter": map[string]interface{}{
			"property": "Name",
			"title":    map[string]interface{}{"equals": company},
		},
		"page_size": 1,
	}
	url := fmt.Sprintf("%s/databases/%s/query", s.cfg.BaseURL, s.cfg.AdvertisersDatabaseID)
	resp, err := s.client.DoJSON(ctx, http.MethodPost, url, s.headers(), query)
	if err != nil {
		return "", apperrors.NewStoreUnavailableError(NotionName, err)
	}
	itemErr, fatal := classifyStatus(NotionName, resp.StatusCode, errorMessage(resp))
	if fatal != nil {
		return "", fatal
	}
	if itemErr != nil {
		return "", itemErr
	}

	var result notionQueryResponse
	if err := resp.Decode(&result); err != nil {
		return "", err
	}
	if len(result.Results) == 0 {
		return "", nil
	}
	return result.Results[0].ID, nil
}

func (s *NotionStore) pagePayload(rec models.Attributes, advertiserID string) map[string]interface{} {
	company := rec.String(models.AttrCompanyName)
	geo := rec.String(models.AttrGeo)

	funnels := funnelsOf(rec)
	options := make([]map[string]interface{}, 0, len(funnels))
	for _, f := range funnels {
		options = append(options, map[string]interface{}{"name": f})
	}

	props := map[string]interface{}{
		"Name":      titleProperty(strings.TrimSpace(company + " " + geo)),
		"Company":   richTextProperty(company),
		"GEO":       richTextProperty(geo),
		"Language":  richTextProperty(rec.String(models.AttrLanguage)),
		"Source":    richTextProperty(rec.String(models.AttrSource)),
		"Funnels":   map[string]interface{}{"multi_select": options},
		"CPA":       map[string]interface{}{"number": amountArg(rec, models.AttrCPA)},
		"CRG":       map[string]interface{}{"number": amountArg(rec, models.AttrCRG)},
		"CPL":       map[string]interface{}{"number": amountArg(rec, models.AttrCPL)},
		"Deduction": map[string]interface{}{"number": amountArg(rec, models.AttrDeduction)},
	}
	if advertiserID != "" {
		props["Advertiser"] = map[string]interface{}{
			"relation": []map[string]interface{}{{"id": advertiserID}},
		}
	}

	return map[string]interface{}{
		"parent":     map[string]interface{}{"database_id": s.cfg.OffersDatabaseID},
		"properties": props,
	}
}

func titleProperty(text string) map[string]interface{} {
	return map[string]interface{}{"title": []map[string]interface{}{{"text": map[string]interface{}{"content": text}}}}
}

func richTextProperty(text string) map[string]interface{} {
	return map[string]interface{}{"rich_text": []map[string]interface{}{{"text": map[string]interface{}{"content": text}}}}
}

func errorMessage(resp *commonhttp.Response) string {
	if resp.OK() {
		return ""
	}
	var e notionError
	if err := resp.Decode(&e); err == nil && e.Message != "" {
		return e.Code + ": " + e.Message
	}
	return strings.TrimSpace(string(resp.Body))
}

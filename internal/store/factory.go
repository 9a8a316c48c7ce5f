package store

import (
	"database/sql"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"

	"deal-intake/internal/common/config"
	commonhttp "deal-intake/internal/common/http"
	"deal-intake/internal/common/logger"
)

// Deps carries the clients a backend may need. Only the one for the configured backend must be set.
type Deps struct {
	HTTP          *commonhttp.Client
	DB            *sql.DB
	Elasticsearch *elasticsearch.Client
	Logger        logger.Logger
}

// New builds the store selected by cfg.Store.Backend.
func New(cfg *config.Config, deps Deps) (Store, error) {
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	switch cfg.Store.Backend {
	case config.StoreBackendNotion, "":
		client := deps.HTTP
		if client == nil {
			client = commonhttp.NewClient(config.GetDuration(cfg.Store.Timeout))
		}
		return NewNotionStore(cfg.Store.Notion, client, log.WithFields(map[string]interface{}{"store": NotionName})), nil
	case config.StoreBackendPostgres:
		if deps.DB == nil {
			return nil, fmt.Errorf("postgres store requires a database connection")
		}
		return NewPostgresStore(deps.DB, cfg.Database.Postgres.Table)
	case config.StoreBackendElasticsearch:
		if deps.Elasticsearch == nil {
			return nil, fmt.Errorf("elasticsearch store requires a client")
		}
		return NewElasticsearchStore(deps.Elasticsearch, cfg.Database.Elasticsearch.Index), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

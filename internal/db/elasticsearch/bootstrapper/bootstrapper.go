package bootstrapper

import (
	"fmt"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"strings"
	"time"
)

const retries = 30
const waitTime = 5

const alreadyExistsError = "resource_already_exists_exception"

type Bootstrapper struct {
	esClient  *elasticsearch.Client
	indexName string
	retries   int
	waitTime  time.Duration
	logger    *zap.Logger
}

func NewBootstrapper(esClient *elasticsearch.Client, indexName string, logger *zap.Logger) *Bootstrapper {
	return &Bootstrapper{
		esClient:  esClient,
		indexName: indexName,
		retries:   retries,
		waitTime:  waitTime * time.Second,
		logger:    logger,
	}
}

// BootstrapElasticsearch waits for the cluster and creates the record index. An index left by
// an earlier run is kept.
func (bs *Bootstrapper) BootstrapElasticsearch() error {
	if err := bs.waitForElasticsearch(bs.retries, bs.waitTime); err != nil {
		return fmt.Errorf("failed to connect to Elasticsearch: %w", err)
	}

	if err := bs.createIndex(bs.indexName, recordIndex); err != nil {
		return fmt.Errorf("error creating record index: %w", err)
	}
	return nil
}

func (bs *Bootstrapper) waitForElasticsearch(maxRetries int, delay time.Duration) error {
	for i := 0; i < maxRetries; i++ {
		res, err := bs.esClient.Info()
		if err == nil {
			res.Body.Close()
			if res.StatusCode == 200 {
				bs.logger.Info("Elasticsearch is available")
				return nil
			}
		}
		bs.logger.Warn(fmt.Sprintf("Elasticsearch not available (attempt %d/%d), retrying...", i+1, maxRetries))

		time.Sleep(delay)
	}

	return fmt.Errorf("Elasticsearch is not available after %d attempts", maxRetries)
}

func (bs *Bootstrapper) createIndex(indexName string, index map[string]interface{}) error {
	body, err := json.Marshal(index)
	if err != nil {
		return fmt.Errorf("error marshaling index input during bootstrap: %w", err)
	}

	res, err := bs.esClient.Indices.Create(
		indexName,
		bs.esClient.Indices.Create.WithBody(strings.NewReader(string(body))),
	)
	if err != nil {
		return fmt.Errorf("error creating index during bootstrap %s: %w", indexName, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		response := res.String()
		if strings.Contains(response, alreadyExistsError) {
			bs.logger.Info("Index already exists", zap.String("index_name", indexName))
			return nil
		}
		return fmt.Errorf("error response for index %s: %s", indexName, response)
	}

	bs.logger.Info("Successfully created index", zap.String("index_name", indexName))
	return nil
}

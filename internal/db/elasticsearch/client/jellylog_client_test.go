package client

import (
	"context"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type capturedRequest struct {
	path  string
	query string
	body  string
}

func newFakeElasticsearch(t *testing.T, response string, captured *capturedRequest) *JellylogClientImpl {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*captured = capturedRequest{path: r.URL.Path, query: r.URL.RawQuery, body: string(body)}
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return NewJellylogClientImpl(es, Immediate)
}

func TestBulkIndex(t *testing.T) {
	t.Run("should send one action and one document line per value", func(t *testing.T) {
		var captured capturedRequest
		ac := newFakeElasticsearch(t, `{"took":1,"errors":false,"items":[]}`, &captured)
		metaMap, dataMap, err := ToMetaAndDataMap([]map[string]interface{}{
			{"_id": "a1", "message": "database is locked"},
			{"message": "no id"},
		})
		require.NoError(t, err)

		err = ac.BulkIndex(context.Background(), metaMap, dataMap, "records")
		assert.Nil(t, err)
		assert.Equal(t, "/records/_bulk", captured.path)
		assert.Contains(t, captured.query, "refresh=true")
		lines := strings.Split(strings.TrimSpace(captured.body), "\n")
		assert.Equal(t, []string{
			`{"index":{"_id":"a1"}}`,
			`{"message":"database is locked"}`,
			`{"index":{}}`,
			`{"message":"no id"}`,
		}, lines)
	})

	t.Run("should report item failures of an otherwise successful request", func(t *testing.T) {
		var captured capturedRequest
		response := `{"took":1,"errors":true,"items":[{"index":{"_index":"records","_id":"a1","status":400,` +
			`"error":{"type":"mapper_parsing_exception","reason":"failed to parse field [instant]"}}}]}`
		ac := newFakeElasticsearch(t, response, &captured)

		err := ac.BulkIndex(context.Background(), nil, []DocumentMap{{"instant": "yesterday"}}, "records")
		assert.NotNil(t, err)
		assert.Contains(t, err.Error(), "mapper_parsing_exception")
		assert.Equal(t, "{\"index\":{}}\n{\"instant\":\"yesterday\"}\n", captured.body)
	})
}

func TestCount(t *testing.T) {
	t.Run("should decode the document count", func(t *testing.T) {
		var captured capturedRequest
		ac := newFakeElasticsearch(t, `{"count":3,"_shards":{"total":1,"successful":1,"skipped":0,"failed":0}}`, &captured)
		count, err := ac.Count(context.Background(), `{"query":{"match_all":{}}}`, []string{"records"})
		assert.Nil(t, err)
		assert.Equal(t, int64(3), count)
		assert.Equal(t, "/records/_count", captured.path)
	})
}

func TestSearch(t *testing.T) {
	t.Run("should return sources with their document ids", func(t *testing.T) {
		var captured capturedRequest
		response := `{"took":2,"timed_out":false,"hits":{"total":{"value":1,"relation":"eq"},` +
			`"hits":[{"_index":"records","_id":"a1","_source":{"message":"database is locked"}}]}}`
		ac := newFakeElasticsearch(t, response, &captured)
		size := 5
		results, err := ac.Search(context.Background(), `{"query":{"match_all":{}}}`, []string{"records"}, &size)
		assert.Nil(t, err)
		assert.Equal(t, []map[string]interface{}{{"_id": "a1", "message": "database is locked"}}, results)
		assert.Equal(t, "/records/_search", captured.path)
		assert.Contains(t, captured.query, "size=5")
	})
}

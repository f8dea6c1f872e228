package write_buffer

import (
	"context"
	"errors"
	"github.com/Avi18971911/jellylog/internal/db/elasticsearch/client"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
	"testing"
)

type bulkCall struct {
	meta      []client.MetaMap
	documents []client.DocumentMap
	index     string
}

type fakeClient struct {
	calls []bulkCall
	err   error
}

func (fc *fakeClient) BulkIndex(_ context.Context, metaInfo []client.MetaMap, documentInfo []client.DocumentMap, index string) error {
	fc.calls = append(fc.calls, bulkCall{meta: metaInfo, documents: documentInfo, index: index})
	return fc.err
}

func (fc *fakeClient) Search(context.Context, string, []string, *int) ([]map[string]interface{}, error) {
	return nil, nil
}

func (fc *fakeClient) Count(context.Context, string, []string) (int64, error) {
	return 0, nil
}

type document struct {
	Id      string `json:"_id"`
	Message string `json:"message"`
}

func documents(n int) []document {
	values := make([]document, n)
	for i := range values {
		values[i] = document{Id: string(rune('a' + i%26)), Message: "database is locked"}
	}
	return values
}

func TestWriteToBuffer(t *testing.T) {
	ctx := context.Background()

	t.Run("should hold values until the queue is full", func(t *testing.T) {
		fc := &fakeClient{}
		wb := NewDatabaseWriteBufferImpl[document](fc, "records", zaptest.NewLogger(t))
		assert.Nil(t, wb.WriteToBuffer(ctx, documents(WriteQueueSize)))
		assert.Empty(t, fc.calls)

		assert.Nil(t, wb.WriteToBuffer(ctx, documents(1)))
		assert.Equal(t, 1, len(fc.calls))
		assert.Equal(t, WriteQueueSize+1, len(fc.calls[0].documents))
		assert.Equal(t, "records", fc.calls[0].index)
		assert.Equal(t, client.MetaMap{"index": map[string]interface{}{"_id": "a"}}, fc.calls[0].meta[0])
		assert.Equal(t, client.DocumentMap{"message": "database is locked"}, fc.calls[0].documents[0])
	})

	t.Run("should flush the remainder on demand", func(t *testing.T) {
		fc := &fakeClient{}
		wb := NewDatabaseWriteBufferImpl[document](fc, "records", zaptest.NewLogger(t))
		assert.Nil(t, wb.WriteToBuffer(ctx, documents(3)))
		assert.Nil(t, wb.Flush(ctx))
		assert.Nil(t, wb.Flush(ctx))
		assert.Equal(t, 1, len(fc.calls))
		assert.Equal(t, 3, len(fc.calls[0].documents))
	})

	t.Run("should return bulk failures and drop the failed batch", func(t *testing.T) {
		fc := &fakeClient{err: errors.New("cluster unavailable")}
		wb := NewDatabaseWriteBufferImpl[document](fc, "records", zaptest.NewLogger(t))
		assert.Nil(t, wb.WriteToBuffer(ctx, documents(2)))
		assert.NotNil(t, wb.Flush(ctx))
		assert.Nil(t, wb.Flush(ctx))
		assert.Equal(t, 1, len(fc.calls))
	})
}

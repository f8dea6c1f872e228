package write_buffer

import (
	"context"
	"fmt"
	"github.com/Avi18971911/jellylog/internal/db/elasticsearch/client"
	"go.uber.org/zap"
	"sync"
	"time"
)

const WriteQueueSize = 30
const flushTimeOut = 10 * time.Second

type DatabaseWriteBuffer[ValueType any] interface {
	// WriteToBuffer queues values and bulk indexes the queue once it grows past WriteQueueSize.
	WriteToBuffer(ctx context.Context, values []ValueType) error
	// Flush bulk indexes whatever is still queued.
	Flush(ctx context.Context) error
}

type DatabaseWriteBufferImpl[ValueType any] struct {
	writeQueue  []ValueType
	ac          client.JellylogClient
	esIndexName string
	logger      *zap.Logger
	mu          sync.Mutex
}

func NewDatabaseWriteBufferImpl[ValueType any](
	ac client.JellylogClient,
	esIndexName string,
	logger *zap.Logger,
) *DatabaseWriteBufferImpl[ValueType] {
	return &DatabaseWriteBufferImpl[ValueType]{
		writeQueue:  []ValueType{},
		ac:          ac,
		esIndexName: esIndexName,
		logger:      logger,
	}
}

func (wbc *DatabaseWriteBufferImpl[ValueType]) WriteToBuffer(
	ctx context.Context,
	values []ValueType,
) error {
	wbc.mu.Lock()
	defer wbc.mu.Unlock()
	wbc.writeQueue = append(wbc.writeQueue, values...)
	if len(wbc.writeQueue) <= WriteQueueSize {
		return nil
	}
	return wbc.flushToElasticsearch(ctx)
}

func (wbc *DatabaseWriteBufferImpl[ValueType]) Flush(ctx context.Context) error {
	wbc.mu.Lock()
	defer wbc.mu.Unlock()
	return wbc.flushToElasticsearch(ctx)
}

func (wbc *DatabaseWriteBufferImpl[ValueType]) flushToElasticsearch(ctx context.Context) error {
	if len(wbc.writeQueue) == 0 {
		return nil
	}
	bulkCtx, cancel := context.WithTimeout(ctx, flushTimeOut)
	defer cancel()
	metaMap, dataMap, err := client.ToMetaAndDataMap(wbc.writeQueue)
	if err != nil {
		return fmt.Errorf("error converting write queue to meta and data map: %w", err)
	}
	queued := len(wbc.writeQueue)
	err = wbc.ac.BulkIndex(
		bulkCtx,
		metaMap,
		dataMap,
		wbc.esIndexName,
	)
	wbc.writeQueue = []ValueType{}
	if err != nil {
		return fmt.Errorf("error bulk indexing to Elasticsearch: %w", err)
	}
	wbc.logger.Debug("Flushed write buffer", zap.String("index", wbc.esIndexName), zap.Int("documents", queued))
	return nil
}

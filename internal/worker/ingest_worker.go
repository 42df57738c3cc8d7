package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/phuslu/log"
	amqp "github.com/rabbitmq/amqp091-go"

	"docuchat/internal/model"
)

// DocumentProcessor runs one deferred ingestion from a queued job.
type DocumentProcessor interface {
	ProcessDocument(ctx context.Context, job model.IngestJob) error
}

// IngestWorker consumes ingest jobs and runs the pipeline on a bounded
// pool of goroutines. The pool size caps how many CPU-bound
// extractions run at once and therefore bounds ingestion throughput,
// keeping request handling unaffected.
type IngestWorker struct {
	conn        *amqp.Connection
	processor   DocumentProcessor
	queueName   string
	concurrency int

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewIngestWorker(conn *amqp.Connection, processor DocumentProcessor, queueName string, concurrency int) *IngestWorker {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &IngestWorker{
		conn:        conn,
		processor:   processor,
		queueName:   queueName,
		concurrency: concurrency,
	}
}

func (w *IngestWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare ingest queue failed: %w", err)
	}

	if err := ch.Qos(w.concurrency, 0, false); err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("set channel qos failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume ingest queue failed: %w", err)
	}

	var once sync.Once
	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			defer once.Do(func() { _ = ch.Close() })
			w.consume(workerCtx, deliveries)
		}()
	}

	return nil
}

func (w *IngestWorker) consume(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}

			var job model.IngestJob
			if err := json.Unmarshal(d.Body, &job); err != nil {
				log.Error().Err(err).Msg("decode ingest job failed")
				_ = d.Nack(false, false)
				continue
			}

			// No automatic retry: a failed run has already marked the
			// document Failed and logged the cause, so the delivery is
			// acked either way.
			if err := w.processor.ProcessDocument(ctx, job); err != nil {
				log.Error().Err(err).
					Uint("user_id", job.UserID).
					Str("file_name", job.FileName).
					Msg("ingest job failed")
			}
			_ = d.Ack(false)
		}
	}
}

func (w *IngestWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

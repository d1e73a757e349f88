package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"partselect/parser/internal/cache"
	"partselect/parser/internal/domain"
	"partselect/parser/internal/domain/task"
	"partselect/parser/internal/extract"
	"partselect/parser/internal/fetcher"
	"partselect/parser/internal/observability"
	"partselect/parser/internal/queue"
	"partselect/parser/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type Service struct {
	fetcher      fetcher.PageFetcher
	extractor    *extract.Extractor
	cache        cache.RecordCache
	repository   repository.RecordRepository
	queue        queue.Queue
	recordTTL    time.Duration
	maxTaskRetry int
	minIdleTime  time.Duration
	now          func() time.Time
}

// NewService wires the scraping pipeline. recordCache, repo and q are
// optional and may be nil.
func NewService(
	pageFetcher fetcher.PageFetcher,
	recordCache cache.RecordCache,
	repo repository.RecordRepository,
	q queue.Queue,
	recordTTL time.Duration,
	maxTaskRetry int,
	minIdleTime int,
) *Service {
	return &Service{
		fetcher:      pageFetcher,
		extractor:    extract.NewExtractor(),
		cache:        recordCache,
		repository:   repo,
		queue:        q,
		recordTTL:    recordTTL,
		maxTaskRetry: maxTaskRetry,
		minIdleTime:  time.Duration(minIdleTime) * time.Second,
		now:          time.Now,
	}
}

// ScrapePart returns the record of one part. Any fetch failure is fatal and
// yields no record; cache and database failures are logged and skipped.
func (s *Service) ScrapePart(ctx context.Context, partNumber string, force bool) (domain.PartRecord, error) {
	normalized, err := domain.NormalizePartNumber(partNumber)
	if err != nil {
		return domain.PartRecord{}, s.fetchFailed(fetcher.NewFetchError(fetcher.CodeInvalidInput, "invalid part number", err))
	}
	url, _ := domain.BuildPartURL(normalized)

	if !force {
		if record, ok := s.lookup(ctx, normalized); ok {
			return record, nil
		}
	}

	log.Infof("🔍 Scraping %s", url)
	page, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return domain.PartRecord{}, s.fetchFailed(err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			log.Debugf("Failed to close page %s: %v", url, err)
		}
	}()

	record, report := s.extractor.Extract(ctx, page)
	log.Infof("✅ Extracted %s (%d field failures)", normalized, len(report.Failures))

	if s.repository != nil {
		if err := s.repository.SaveRecord(ctx, normalized, record); err != nil {
			log.Errorf("❌ Failed to save record %s: %v", normalized, err)
		}
	}
	s.cacheRecord(ctx, normalized, record)

	return record, nil
}

// lookup serves a part from the cache, then from a stored record younger
// than recordTTL.
func (s *Service) lookup(ctx context.Context, partNumber string) (domain.PartRecord, bool) {
	if s.cache != nil {
		record, ok, err := s.cache.Get(ctx, partNumber)
		if err != nil {
			log.Warnf("⚠️ Cache lookup failed for %s: %v", partNumber, err)
		} else if ok {
			log.Debugf("Cache hit for %s", partNumber)
			return record, true
		}
	}

	if s.repository == nil || s.recordTTL <= 0 {
		return domain.PartRecord{}, false
	}
	record, scrapedAt, err := s.repository.GetRecord(ctx, partNumber)
	if err != nil {
		if !errors.Is(err, repository.ErrRecordNotFound) {
			log.Warnf("⚠️ Failed to load stored record %s: %v", partNumber, err)
		}
		return domain.PartRecord{}, false
	}
	if s.now().Sub(scrapedAt) >= s.recordTTL {
		return domain.PartRecord{}, false
	}
	log.Debugf("Serving stored record %s scraped at %s", partNumber, scrapedAt.Format(time.RFC3339))
	s.cacheRecord(ctx, partNumber, record)
	return record, true
}

func (s *Service) cacheRecord(ctx context.Context, partNumber string, record domain.PartRecord) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, partNumber, record); err != nil {
		log.Warnf("⚠️ Failed to cache record %s: %v", partNumber, err)
	}
}

func (s *Service) fetchFailed(err error) error {
	code := fetcher.CodeOf(err)
	if code == "" {
		code = fetcher.CodeUnreachable
	}
	observability.FetchFailures.WithLabelValues(code).Inc()
	log.Errorf("❌ %v", err)
	return err
}

// PartResult is the outcome of one part in a batch.
type PartResult struct {
	PartNumber string
	Record     domain.PartRecord
	Err        error
}

// ScrapeMany scrapes parts with at most workers concurrent fetches. Results
// keep the input order; one failing part does not stop the others.
func (s *Service) ScrapeMany(ctx context.Context, partNumbers []string, workers int, force bool) []PartResult {
	results := make([]PartResult, len(partNumbers))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, workers))
	for i, partNumber := range partNumbers {
		g.Go(func() error {
			record, err := s.ScrapePart(ctx, partNumber, force)
			results[i] = PartResult{PartNumber: partNumber, Record: record, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// EnqueueParts pushes one PartTask per part number onto the queue.
func (s *Service) EnqueueParts(ctx context.Context, partNumbers []string, force bool) (int, error) {
	if s.queue == nil {
		return 0, fmt.Errorf("queue is not configured")
	}

	added := 0
	for _, partNumber := range partNumbers {
		normalized, err := domain.NormalizePartNumber(partNumber)
		if err != nil {
			log.Warnf("⚠️ Skipping %q: %v", partNumber, err)
			continue
		}
		if _, err := s.queue.AddTask(ctx, &task.PartTask{PartNumber: normalized, Force: force}); err != nil {
			return added, fmt.Errorf("failed to enqueue %s: %w", normalized, err)
		}
		added++
	}

	log.Infof("📥 Enqueued %d of %d parts", added, len(partNumbers))
	return added, nil
}

func (s *Service) RunWorkers(ctx context.Context, numWorkers int) error {
	if s.queue == nil {
		return fmt.Errorf("queue is not configured")
	}

	var wg sync.WaitGroup

	// Run workers for both regular and retry tasks
	s.runWorkersForStream(ctx, &wg, numWorkers, task.PartTaskType)
	s.runWorkersForStream(ctx, &wg, max(1, numWorkers/2), task.PartRetryTaskType)

	wg.Wait()
	return nil
}

func (s *Service) runWorkersForStream(ctx context.Context, wg *sync.WaitGroup, numWorkers int, taskType string) {
	// Auto-claimer for this stream
	if s.minIdleTime > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			consumer := "autoclaimer-" + taskType + "-" + uuid.NewString()
			ticker := time.NewTicker(s.minIdleTime)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					claimedMessages, err := s.queue.AutoClaim(ctx, consumer, taskType, s.minIdleTime)
					if err != nil {
						log.Errorf("❌ Failed to auto-claim messages for %s: %v", taskType, err)
						continue
					}
					for _, msg := range claimedMessages {
						log.Infof("🔄 Auto-claimed message %s from %s", msg.ID, taskType)
						if err := s.processMessage(ctx, taskType, &msg); err != nil {
							log.Errorf("❌ Failed to process auto-claimed message %s: %v", msg.ID, err)
						}
					}
				}
			}
		}()
	}

	// Regular workers for this stream
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			consumer := fmt.Sprintf("%s-worker-%d-%s", taskType, workerID, uuid.NewString())
			log.Infof("🚀 Starting %s worker %d as consumer %s", taskType, workerID, consumer)
			for {
				select {
				case <-ctx.Done():
					log.Infof("🛑 %s worker %d stopping", taskType, workerID)
					return
				default:
					msg, err := s.queue.GetTask(ctx, consumer, taskType)
					if err != nil {
						if ctx.Err() == nil {
							log.Errorf("❌ Failed to get task from %s: %v", taskType, err)
						}
						continue
					}

					if msg != nil {
						if err := s.processMessage(ctx, taskType, msg); err != nil {
							log.Errorf("❌ Failed to process message %s: %v", msg.ID, err)
						}
					}
				}
			}
		}(i + 1)
	}
}

func (s *Service) processMessage(ctx context.Context, taskType string, msg *redis.XMessage) error {
	data, err := queue.TaskData(*msg)
	if err != nil {
		return s.ack(ctx, taskType, msg.ID, err)
	}

	switch taskType {
	case task.PartTaskType:
		partTask, err := task.UnmarshalTask[*task.PartTask](data)
		if err != nil {
			return s.ack(ctx, taskType, msg.ID, err)
		}
		if _, err := s.ScrapePart(ctx, partTask.PartNumber, partTask.Force); err != nil {
			s.scheduleRetry(ctx, &task.PartRetryTask{PartNumber: partTask.PartNumber, Error: err.Error()}, err)
		}

	case task.PartRetryTaskType:
		retryTask, err := task.UnmarshalTask[*task.PartRetryTask](data)
		if err != nil {
			return s.ack(ctx, taskType, msg.ID, err)
		}
		retryTask.RetryCount++
		log.Infof("🔄 Retrying %s (attempt %d)", retryTask.PartNumber, retryTask.RetryCount)
		if _, err := s.ScrapePart(ctx, retryTask.PartNumber, true); err != nil {
			retryTask.Error = err.Error()
			s.scheduleRetry(ctx, retryTask, err)
		} else {
			log.Infof("✅ Recovered %s after %d attempts", retryTask.PartNumber, retryTask.RetryCount)
		}

	default:
		return s.ack(ctx, taskType, msg.ID, fmt.Errorf("unknown task type: %s", taskType))
	}

	return s.ack(ctx, taskType, msg.ID, nil)
}

// ack acknowledges msgID and returns cause, or the ack failure.
func (s *Service) ack(ctx context.Context, taskType, msgID string, cause error) error {
	if err := s.queue.AckTask(ctx, taskType, msgID); err != nil {
		return fmt.Errorf("failed to ack message %s: %w", msgID, err)
	}
	return cause
}

// scheduleRetry re-queues a failed part until maxTaskRetry attempts have
// been made. Invalid part numbers are never retried.
func (s *Service) scheduleRetry(ctx context.Context, retryTask *task.PartRetryTask, cause error) {
	if fetcher.CodeOf(cause) == fetcher.CodeInvalidInput {
		log.Warnf("⚠️ Dropping %s: %v", retryTask.PartNumber, cause)
		return
	}
	if retryTask.RetryCount >= s.maxTaskRetry {
		log.Errorf("❌ Giving up on %s after %d retries: %s", retryTask.PartNumber, retryTask.RetryCount,
			strings.TrimSpace(retryTask.Error))
		return
	}
	if _, err := s.queue.AddTask(ctx, retryTask); err != nil {
		log.Errorf("❌ Failed to add retry task for %s: %v", retryTask.PartNumber, err)
		return
	}
	log.Warnf("🔄 Added %s to retry queue due to error: %v", retryTask.PartNumber, cause)
}

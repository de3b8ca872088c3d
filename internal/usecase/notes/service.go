// Package notes runs the asynchronous document-to-study-notes pipeline.
package notes

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/studyvault-app/studyvault/internal/domain"
	"github.com/studyvault-app/studyvault/internal/domain/chunk"
	domnotes "github.com/studyvault-app/studyvault/internal/domain/notes"
	"github.com/studyvault-app/studyvault/internal/domain/job"
	"github.com/studyvault-app/studyvault/internal/metrics"
	"github.com/studyvault-app/studyvault/internal/repository/jobstore"
)

type task struct {
	jobID    string
	filename string
	mimeType string
	data     []byte
}

// Service accepts note-making jobs and processes them on a fixed pool of
// workers behind a buffered queue. A full queue rejects the job instead of
// growing without bound.
type Service struct {
	store     jobstore.Store
	extractor Extractor
	splitter  *chunk.Splitter
	generator Generator
	resultDir string
	log       *zap.Logger

	queue chan task
	wg    sync.WaitGroup
}

// New creates a notes service. Call Start to launch the workers.
func New(store jobstore.Store, extractor Extractor, splitter *chunk.Splitter, generator Generator, resultDir string, queueSize int, log *zap.Logger) *Service {
	return &Service{
		store:     store,
		extractor: extractor,
		splitter:  splitter,
		generator: generator,
		resultDir: resultDir,
		log:       log,
		queue:     make(chan task, queueSize),
	}
}

// Start launches the worker goroutines.
func (s *Service) Start(workers int) {
	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
}

// Stop closes the queue and waits for in-flight jobs to finish. Submit must
// not be called after Stop.
func (s *Service) Stop() {
	close(s.queue)
	s.wg.Wait()
}

// Submit creates a processing job and enqueues it. The job record is visible
// to Status immediately, before any background work runs. A full queue
// returns domain.ErrQueueFull and leaves the job in error state.
func (s *Service) Submit(ctx context.Context, filename, mimeType string, data []byte) (job.Job, error) {
	j := job.Job{
		ID:        uuid.NewString(),
		Status:    job.StatusProcessing,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Create(ctx, j); err != nil {
		return job.Job{}, fmt.Errorf("create job: %w", err)
	}

	select {
	case s.queue <- task{jobID: j.ID, filename: filename, mimeType: mimeType, data: data}:
		return j, nil
	default:
		if err := s.store.Fail(ctx, j.ID, "rejected: queue full"); err != nil {
			s.log.Warn("mark rejected job failed", zap.String("job_id", j.ID), zap.Error(err))
		}
		return job.Job{}, domain.ErrQueueFull
	}
}

// Status returns the job record.
func (s *Service) Status(ctx context.Context, id string) (job.Job, error) {
	j, err := s.store.Get(ctx, id)
	if err != nil {
		return job.Job{}, fmt.Errorf("get job: %w", err)
	}
	return j, nil
}

// Result returns the finished notes document. Jobs still processing return
// domain.ErrResultNotReady; failed jobs surface their recorded message.
func (s *Service) Result(ctx context.Context, id string) (domnotes.Document, error) {
	j, err := s.store.Get(ctx, id)
	if err != nil {
		return domnotes.Document{}, fmt.Errorf("get job: %w", err)
	}

	switch j.Status {
	case job.StatusProcessing:
		return domnotes.Document{}, domain.ErrResultNotReady
	case job.StatusError:
		return domnotes.Document{}, fmt.Errorf("job failed: %s", j.Error)
	}

	data, err := os.ReadFile(j.ResultPath)
	if err != nil {
		return domnotes.Document{}, fmt.Errorf("read result: %w", err)
	}
	var doc domnotes.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return domnotes.Document{}, fmt.Errorf("decode result: %w", err)
	}
	return doc, nil
}

func (s *Service) worker(id int) {
	defer s.wg.Done()
	log := s.log.With(zap.Int("worker", id))

	for t := range s.queue {
		s.runJob(log, t)
	}
}

// runJob processes one job end to end. Panics are converted to job errors so
// a single bad document cannot take a worker down.
func (s *Service) runJob(log *zap.Logger, t task) {
	ctx := context.Background()

	defer func() {
		if r := recover(); r != nil {
			log.Error("job panicked", zap.String("job_id", t.jobID), zap.Any("panic", r))
			s.fail(ctx, log, t.jobID, fmt.Sprintf("internal error: %v", r))
		}
	}()

	resultPath, err := s.process(ctx, log, t)
	if err != nil {
		log.Warn("job failed", zap.String("job_id", t.jobID), zap.Error(err))
		s.fail(ctx, log, t.jobID, err.Error())
		return
	}

	if err := s.store.Complete(ctx, t.jobID, resultPath); err != nil {
		log.Error("mark job done", zap.String("job_id", t.jobID), zap.Error(err))
		return
	}
	metrics.NotesJobsTotal.WithLabelValues("done").Inc()
	log.Info("job done", zap.String("job_id", t.jobID), zap.String("result", resultPath))
}

func (s *Service) process(ctx context.Context, log *zap.Logger, t task) (string, error) {
	text, err := s.extractor.Extract(t.data, t.filename, t.mimeType)
	if err != nil {
		return "", fmt.Errorf("extract: %w", err)
	}

	pieces := s.splitter.Split(text)
	if len(pieces) == 0 {
		return "", fmt.Errorf("document has no extractable text")
	}

	var fragments []domnotes.Document
	for i, piece := range pieces {
		frag, err := s.generateFragment(ctx, piece)
		if err != nil {
			// Drop this chunk, keep the job alive. The job only fails when
			// every chunk fails.
			metrics.NotesChunksSkippedTotal.Inc()
			log.Warn("chunk skipped", zap.String("job_id", t.jobID), zap.Int("chunk", i), zap.Error(err))
			continue
		}
		fragments = append(fragments, frag)
	}

	if len(fragments) == 0 {
		return "", fmt.Errorf("%w: all %d chunks failed", domain.ErrNoUsableChunks, len(pieces))
	}

	merged := domnotes.Merge(fragments)
	return s.writeResult(t.jobID, merged)
}

// generateFragment calls the model and strictly parses the output. One retry
// with a hardened prompt on parse failure; provider errors are not retried.
func (s *Service) generateFragment(ctx context.Context, piece string) (domnotes.Document, error) {
	raw, err := s.generator.Generate(ctx, generatePrompt, piece)
	if err != nil {
		return domnotes.Document{}, err
	}

	frag, parseErr := domnotes.ParseFragment(raw)
	if parseErr == nil {
		return frag, nil
	}

	raw, err = s.generator.Generate(ctx, strictPrefix+generatePrompt, piece)
	if err != nil {
		return domnotes.Document{}, err
	}
	frag, retryErr := domnotes.ParseFragment(raw)
	if retryErr != nil {
		return domnotes.Document{}, fmt.Errorf("parse after retry: %w (first attempt: %v)", retryErr, parseErr)
	}
	return frag, nil
}

func (s *Service) writeResult(jobID string, doc domnotes.Document) (string, error) {
	if err := os.MkdirAll(s.resultDir, 0o755); err != nil {
		return "", fmt.Errorf("create result dir: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}

	path := filepath.Join(s.resultDir, jobID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write result: %w", err)
	}
	return path, nil
}

func (s *Service) fail(ctx context.Context, log *zap.Logger, jobID, message string) {
	if err := s.store.Fail(ctx, jobID, message); err != nil {
		log.Error("mark job failed", zap.String("job_id", jobID), zap.Error(err))
		return
	}
	metrics.NotesJobsTotal.WithLabelValues("error").Inc()
}

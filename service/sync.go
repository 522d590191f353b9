package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Ta-h-a/Hack2SkillFrontend/config"
	"github.com/Ta-h-a/Hack2SkillFrontend/model"
	"github.com/Ta-h-a/Hack2SkillFrontend/pkg/logger"
)

type watchHandle struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// Synchronizer keeps the store's view of asynchronous engine jobs fresh.
// Analysis results are polled every few seconds until the job is terminal;
// video jobs get their own slower loop. One watcher runs per document or
// job; starting a new one cancels its predecessor, and deleting a document
// cancels its watcher outright so no detached loop outlives its context.
type Synchronizer struct {
	engine *EngineService
	store  *DocumentStore

	resultInterval    time.Duration
	resultMaxAttempts int
	videoInterval     time.Duration
	videoMaxAttempts  int

	mu       sync.Mutex
	watchers map[string]*watchHandle
	wg       sync.WaitGroup
}

func NewSynchronizer(engine *EngineService, store *DocumentStore, cfg *config.EngineConfig) *Synchronizer {
	return &Synchronizer{
		engine:            engine,
		store:             store,
		resultInterval:    time.Duration(cfg.ResultPollSeconds) * time.Second,
		resultMaxAttempts: cfg.ResultPollMaxRetries,
		videoInterval:     time.Duration(cfg.VideoPollSeconds) * time.Second,
		videoMaxAttempts:  cfg.VideoPollMaxRetries,
		watchers:          make(map[string]*watchHandle),
	}
}

// WatchResult starts a background watcher that polls the engine for the
// document's analysis result until the job finishes, then installs the
// normalized clause list into the store.
func (s *Synchronizer) WatchResult(documentID string) {
	ctx, release := s.register("result/" + documentID)
	ctx = logger.WithDocument(ctx, documentID)

	s.store.ResetSync(documentID)
	s.store.UpdateStatus(documentID, model.StatusProcessing, "")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer release()

		err := PollUntilTerminal(ctx, s.resultInterval, s.resultMaxAttempts, func(ctx context.Context, seq uint64) (bool, error) {
			return s.resultTick(ctx, documentID, seq)
		})
		if err == nil {
			return
		}
		if errors.Is(err, context.Canceled) {
			logger.Info(ctx, "result watcher cancelled")
			return
		}

		logger.Error(ctx, "analysis watch failed", "error", err)
		// Sequence one past the attempt budget always clears the guard
		s.store.FailAnalysis(documentID, uint64(s.resultMaxAttempts)+1, err.Error())
	}()
}

// resultTick performs one poll of the analysis result.
func (s *Synchronizer) resultTick(ctx context.Context, documentID string, seq uint64) (bool, error) {
	result, err := s.engine.GetResult(ctx, documentID)
	if err != nil {
		var nf *NotFoundError
		if errors.As(err, &nf) {
			// The engine does not know this id; retrying won't change that
			return true, err
		}
		logger.Warn(ctx, "result poll failed", "seq", seq, "error", err)
		return false, err
	}

	if result.Failed() {
		msg := result.Error
		if msg == "" {
			msg = "analysis failed"
		}
		s.store.FailAnalysis(documentID, seq, msg)
		return true, nil
	}

	if !result.Terminal() {
		return false, nil
	}

	clauses := NormalizeClauses(documentID, result.Clauses)
	if s.store.CompleteAnalysis(documentID, seq, clauses) {
		logger.Info(ctx, "analysis completed", "clauses", len(clauses))
	}
	return true, nil
}

// WatchVideo starts a background watcher for a video-summary job.
func (s *Synchronizer) WatchVideo(jobID string) {
	ctx, release := s.register("video/" + jobID)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer release()

		err := PollUntilTerminal(ctx, s.videoInterval, s.videoMaxAttempts, func(ctx context.Context, seq uint64) (bool, error) {
			return s.videoTick(ctx, jobID, seq)
		})
		if err == nil || errors.Is(err, context.Canceled) {
			return
		}

		logger.Error(ctx, "video watch failed", "job_id", jobID, "error", err)
		s.store.UpdateVideoJob(jobID, model.VideoFailed, "", err.Error())
	}()
}

func (s *Synchronizer) videoTick(ctx context.Context, jobID string, seq uint64) (bool, error) {
	status, err := s.engine.GetVideoGenStatus(ctx, jobID)
	if err != nil {
		var nf *NotFoundError
		if errors.As(err, &nf) {
			return true, err
		}
		logger.Warn(ctx, "video poll failed", "job_id", jobID, "seq", seq, "error", err)
		return false, err
	}

	s.store.UpdateVideoJob(jobID, status.Status, status.VideoURL, status.ErrorMsg)

	switch status.Status {
	case model.VideoCompleted, model.VideoFailed:
		return true, nil
	default:
		return false, nil
	}
}

// CancelWatch stops the analysis watcher for a document, discarding any
// in-flight response. Called when the document is deleted.
func (s *Synchronizer) CancelWatch(documentID string) {
	key := "result/" + documentID
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.watchers[key]; ok {
		h.cancel()
		delete(s.watchers, key)
	}
}

// Shutdown cancels every watcher and waits for them to exit.
func (s *Synchronizer) Shutdown() {
	s.mu.Lock()
	for _, h := range s.watchers {
		h.cancel()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// register creates a cancellable context for a watcher key, cancelling any
// previous watcher registered under the same key. The returned release func
// removes the registration, but only if it still belongs to this watcher.
func (s *Synchronizer) register(key string) (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	h := &watchHandle{ctx: ctx, cancel: cancel}

	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.watchers[key]; ok {
		prev.cancel()
	}
	s.watchers[key] = h

	release := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		cancel()
		if cur, ok := s.watchers[key]; ok && cur == h {
			delete(s.watchers, key)
		}
	}
	return ctx, release
}

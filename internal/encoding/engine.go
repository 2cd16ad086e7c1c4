package encoding

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"discompressor/internal/deps"
	"discompressor/internal/logging"
	"discompressor/internal/progress"
	"discompressor/internal/services"
)

const (
	defaultProbeTimeout = 30 * time.Second
	defaultWaitDelay    = 5 * time.Second
	defaultEventBuffer  = 64
	failureTailLines    = 10
)

// ProbeFailureMessage is the failure text when the source duration is unreadable.
const ProbeFailureMessage = "could not read media duration."

// Request is one transcode attempt.
type Request struct {
	InputPath string
	TargetMB  int
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithOutputExtension sets the output container extension.
func WithOutputExtension(ext string) EngineOption {
	return func(e *Engine) {
		if strings.TrimSpace(ext) != "" {
			e.outputExt = ext
		}
	}
}

// WithProbeTimeout bounds the duration probe.
func WithProbeTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.probeTimeout = d
		}
	}
}

// WithEncodeTimeout bounds the encoder run. Zero disables the limit.
func WithEncodeTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d >= 0 {
			e.encodeTimeout = d
		}
	}
}

// WithWaitDelay sets how long a signalled encoder may take to exit before it
// is killed.
func WithWaitDelay(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.waitDelay = d
		}
	}
}

// WithEventBuffer sets the per-job event buffer size.
func WithEventBuffer(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.eventBuffer = n
		}
	}
}

// WithObserver registers a callback invoked once per job after its terminal
// event has been published.
func WithObserver(fn func(Summary)) EngineOption {
	return func(e *Engine) {
		e.observer = fn
	}
}

// Engine starts transcode jobs against a located encoder/prober pair.
type Engine struct {
	paths         deps.BinaryPaths
	logger        *slog.Logger
	outputExt     string
	probeTimeout  time.Duration
	encodeTimeout time.Duration
	waitDelay     time.Duration
	eventBuffer   int
	observer      func(Summary)

	mu     sync.Mutex
	active map[string]string // output path -> job id
}

// NewEngine constructs an engine for the given binaries.
func NewEngine(paths deps.BinaryPaths, opts ...EngineOption) *Engine {
	e := &Engine{
		paths:        paths,
		outputExt:    DefaultOutputExtension,
		probeTimeout: defaultProbeTimeout,
		waitDelay:    defaultWaitDelay,
		eventBuffer:  defaultEventBuffer,
		active:       make(map[string]string),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.NewComponentLogger(e.logger, "encoding")
	return e
}

// Start validates the request, reserves the output path and launches the job
// on its own goroutine. Errors returned here mean no job was started and no
// events will be produced. Cancelling ctx cancels the job.
func (e *Engine) Start(ctx context.Context, req Request) (*Job, error) {
	if !e.paths.Complete() {
		return nil, services.Wrap(services.ErrBinaryMissing, "encoding", "start", "encoder and prober must both be available", nil)
	}
	req.InputPath = strings.TrimSpace(req.InputPath)
	if req.InputPath == "" {
		return nil, services.Wrap(services.ErrValidation, "encoding", "start", "input path is required", nil)
	}
	if req.TargetMB <= 0 {
		return nil, services.Wrap(services.ErrValidation, "encoding", "start", "target size must be a positive number of megabytes", nil)
	}

	output := OutputPath(req.InputPath, req.TargetMB, e.outputExt)
	key := outputKey(output)

	id := uuid.NewString()
	e.mu.Lock()
	if owner, busy := e.active[key]; busy {
		e.mu.Unlock()
		return nil, services.Wrap(services.ErrBusy, "encoding", "start", "output "+output+" is already being written by job "+owner, nil)
	}
	e.active[key] = id
	e.mu.Unlock()

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	job := &Job{
		id:        id,
		req:       req,
		engine:    e,
		events:    progress.NewChannel(e.eventBuffer),
		state:     StateIdle,
		plan:      Plan{OutputPath: output},
		cancelRun: cancel,
		done:      make(chan struct{}),
		startedAt: time.Now(),
	}
	job.logger = e.logger.With(logging.String(logging.FieldJobID, id))
	stop := context.AfterFunc(ctx, job.Cancel)

	go func() {
		defer close(job.done)
		defer stop()
		job.run(services.WithJobID(runCtx, id))
		cancel()
		e.release(key)
		if e.observer != nil {
			e.observer(job.Summary())
		}
	}()
	return job, nil
}

// Busy reports whether any job is active.
func (e *Engine) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.active) > 0
}

func (e *Engine) release(key string) {
	e.mu.Lock()
	delete(e.active, key)
	e.mu.Unlock()
}

func outputKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return filepath.Clean(path)
}

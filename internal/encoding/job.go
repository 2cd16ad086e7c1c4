package encoding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
	"time"

	"discompressor/internal/logging"
	"discompressor/internal/procutil"
	"discompressor/internal/progress"
	"discompressor/internal/services"
)

// Job is a single transcode run. All methods are safe for concurrent use.
type Job struct {
	id        string
	req       Request
	engine    *Engine
	logger    *slog.Logger
	events    *progress.Channel
	cancelRun context.CancelFunc
	done      chan struct{}
	startedAt time.Time

	mu         sync.Mutex
	state      State
	plan       Plan
	err        error
	finishedAt time.Time
}

// Summary is a snapshot of a finished (or running) job.
type Summary struct {
	ID         string
	Request    Request
	Plan       Plan
	State      State
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// ID returns the job identifier.
func (j *Job) ID() string { return j.id }

// Request returns the request the job was started with.
func (j *Job) Request() Request { return j.req }

// Events returns the job's event stream. It ends with one terminal event and
// is then closed.
func (j *Job) Events() <-chan progress.Event { return j.events.Events() }

// Done is closed once the job's goroutine has exited and its output path
// reservation is released.
func (j *Job) Done() <-chan struct{} { return j.done }

// State returns the current lifecycle state.
func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Plan returns the planned duration, bitrate and output path. Duration and
// bitrate are zero until planning completes.
func (j *Job) Plan() Plan {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.plan
}

// Summary returns a snapshot of the job.
func (j *Job) Summary() Summary {
	j.mu.Lock()
	defer j.mu.Unlock()
	return Summary{
		ID:         j.id,
		Request:    j.req,
		Plan:       j.plan,
		State:      j.state,
		Err:        j.err,
		StartedAt:  j.startedAt,
		FinishedAt: j.finishedAt,
	}
}

// Cancel stops the job. The encoder, if running, is asked to terminate and
// the stream ends with a single cancelled event; no progress, success or
// failure events follow. Cancel is idempotent and a no-op once the job has
// reached a terminal state.
func (j *Job) Cancel() {
	if !j.terminate(StateCancelled, services.Wrap(services.ErrCancelled, "encoding", "cancel", "", nil), func() {
		j.events.Cancelled()
	}) {
		return
	}
	j.logger.Info("transcode cancelled", logging.String(logging.FieldEventType, "transcode_cancelled"))
	j.cancelRun()
}

// terminate moves the job into a terminal state exactly once and publishes
// the matching event while holding the lock.
func (j *Job) terminate(state State, err error, publish func()) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state.Terminal() {
		return false
	}
	j.state = state
	j.err = err
	j.finishedAt = time.Now()
	publish()
	return true
}

// advance moves to a non-terminal state unless the job already ended.
func (j *Job) advance(state State) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state.Terminal() {
		return false
	}
	j.state = state
	return true
}

func (j *Job) fail(message string, err error) {
	if j.terminate(StateFailed, err, func() { j.events.FailMessage(message, err) }) {
		logging.ErrorWithContext(j.logger, "transcode failed", "transcode_failed",
			logging.String("reason", message),
			logging.Error(err),
		)
	}
}

func (j *Job) run(ctx context.Context) {
	e := j.engine
	j.logger.Info("transcode started",
		logging.String(logging.FieldEventType, "transcode_started"),
		logging.String("input", j.req.InputPath),
		logging.Int("target_mb", j.req.TargetMB),
	)

	if !j.advance(StateProbing) {
		return
	}
	probeCtx, cancelProbe := context.WithTimeout(services.WithStage(ctx, "probing"), e.probeTimeout)
	duration, err := probeDuration(probeCtx, e.paths.Prober, j.req.InputPath)
	cancelProbe()
	if err != nil {
		if !errors.Is(err, services.ErrProbe) {
			err = services.Wrap(services.ErrProbe, "probing", "duration", "", err)
		}
		j.fail(ProbeFailureMessage, err)
		return
	}

	if !j.advance(StatePlanning) {
		return
	}
	bitrate, err := PlanBitrate(j.req.TargetMB, duration)
	if err != nil {
		j.fail(err.Error(), err)
		return
	}
	j.mu.Lock()
	j.plan.DurationSeconds = duration
	j.plan.BitrateBPS = bitrate
	plan := j.plan
	j.mu.Unlock()
	j.logger.Info("bitrate planned",
		logging.String(logging.FieldEventType, "bitrate_planned"),
		logging.Float64("duration_seconds", duration),
		logging.Int64("bitrate_bps", bitrate),
		logging.String("output", plan.OutputPath),
	)

	if !j.advance(StateEncoding) {
		return
	}
	j.encode(services.WithStage(ctx, "encoding"), plan)
}

func (j *Job) encode(ctx context.Context, plan Plan) {
	e := j.engine
	encodeCtx := ctx
	if e.encodeTimeout > 0 {
		var cancel context.CancelFunc
		encodeCtx, cancel = context.WithTimeout(ctx, e.encodeTimeout)
		defer cancel()
	}

	tail := newTailBuffer(failureTailLines)
	sampler := logging.NewProgressSampler(10)
	stderr := newLineWriter(func(line string) {
		fraction, ok := ParseProgressLine(line, plan.DurationSeconds)
		if !ok {
			tail.Add(line)
			return
		}
		j.events.Progress(fraction)
		if sampler.ShouldLog(fraction, "encoding") {
			j.logger.Debug("transcode progress",
				logging.Float64(logging.FieldProgressPercent, fraction*100),
			)
		}
	})

	cmd := exec.CommandContext(encodeCtx, e.paths.Encoder, EncoderArgs(j.req.InputPath, plan.BitrateBPS, plan.OutputPath)...)
	procutil.Configure(cmd)
	cmd.Stderr = stderr
	cmd.Cancel = func() error {
		return procutil.Interrupt(cmd.Process)
	}
	cmd.WaitDelay = e.waitDelay

	if err := cmd.Start(); err != nil {
		j.fail("could not start encoder: "+err.Error(), services.Wrap(services.ErrEncodeProcess, "encoding", "start encoder", "", err))
		return
	}
	j.logger.Debug("encoder spawned", logging.Int("pid", cmd.Process.Pid))

	waitErr := cmd.Wait()
	stderr.Flush()

	switch {
	case waitErr == nil:
		if j.terminate(StateSucceeded, nil, func() { j.events.Succeed(plan.OutputPath) }) {
			j.logger.Info("transcode completed",
				logging.String(logging.FieldEventType, "transcode_completed"),
				logging.String("output", plan.OutputPath),
				logging.Duration("elapsed", time.Since(j.startedAt)),
			)
		}
	case errors.Is(encodeCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		err := services.Wrap(services.ErrTimeout, "encoding", "run encoder",
			fmt.Sprintf("encoder exceeded %s", e.encodeTimeout), waitErr)
		j.fail(fmt.Sprintf("encoding timed out after %s", e.encodeTimeout), err)
	default:
		message := tail.String()
		if message == "" {
			message = "encoder failed: " + waitErr.Error()
		}
		j.fail(message, services.Wrap(services.ErrEncodeProcess, "encoding", "run encoder", exitDetail(waitErr), waitErr))
	}
}

func exitDetail(err error) string {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Sprintf("exit code %d", exitErr.ExitCode())
	}
	return ""
}

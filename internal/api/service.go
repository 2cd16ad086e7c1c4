package api

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"discompressor/internal/config"
	"discompressor/internal/deps"
	"discompressor/internal/encoding"
	"discompressor/internal/history"
	"discompressor/internal/logging"
	"discompressor/internal/media/ffprobe"
	"discompressor/internal/preflight"
	"discompressor/internal/progress"
	"discompressor/internal/provision"
	"discompressor/internal/services"
)

const historyWriteTimeout = 5 * time.Second

// HistoryStore abstracts the transcode history persistence used by Service.
type HistoryStore interface {
	Record(ctx context.Context, entry history.Entry) (history.Entry, error)
	List(ctx context.Context, limit int) ([]history.Entry, error)
}

// Option customizes a Service.
type Option func(*Service)

// WithLogger sets the logger handed to the engine and provisioner.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithHistory attaches a history store; finished transcodes are recorded in it.
func WithHistory(store HistoryStore) Option {
	return func(s *Service) {
		s.history = store
	}
}

// WithProvisionOptions forwards options to the provisioner, for example a
// custom HTTP client.
func WithProvisionOptions(opts ...provision.Option) Option {
	return func(s *Service) {
		s.provisionOpts = append(s.provisionOpts, opts...)
	}
}

// Service wires configuration to the locator, provisioner, prober and engine.
type Service struct {
	cfg           *config.Config
	logger        *slog.Logger
	history       HistoryStore
	provisionOpts []provision.Option

	provisionOnce sync.Once
	provisioner   *provision.Provisioner

	mu          sync.Mutex
	engine      *encoding.Engine
	enginePaths deps.BinaryPaths
}

// NewService constructs a Service for the given configuration.
func NewService(cfg *config.Config, opts ...Option) *Service {
	s := &Service{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	return s
}

// Config returns the configuration the service was built with.
func (s *Service) Config() *config.Config { return s.cfg }

func (s *Service) locator() deps.Locator {
	return deps.Locator{
		InstallDir:  s.cfg.Paths.InstallDir,
		EncoderName: s.cfg.EncoderBinary(),
		ProberName:  s.cfg.ProberBinary(),
	}
}

// LocateBinaries finds an encoder/prober pair. The result is never partial.
func (s *Service) LocateBinaries() (deps.BinaryPaths, bool) {
	return s.locator().Locate()
}

// InstalledLocally reports whether the install directory holds both executables.
func (s *Service) InstalledLocally() bool {
	return s.locator().InstalledLocally()
}

// Dependencies reports encoder and prober availability for status output.
func (s *Service) Dependencies() []DependencyStatus {
	return FromDependencyStatuses(preflight.CheckSystemDeps(s.cfg))
}

// Provisioner returns the lazily built provisioner shared by all calls.
func (s *Service) Provisioner() *provision.Provisioner {
	s.provisionOnce.Do(func() {
		opts := append([]provision.Option{provision.WithLogger(s.logger)}, s.provisionOpts...)
		s.provisioner = provision.New(provision.Options{
			InstallDir:  s.cfg.Paths.InstallDir,
			ReleaseURL:  s.cfg.FFmpeg.ReleaseURL,
			EncoderName: s.cfg.EncoderBinary(),
			ProberName:  s.cfg.ProberBinary(),
			TempDir:     s.cfg.Paths.TempDir,
			Timeout:     time.Duration(s.cfg.FFmpeg.DownloadTimeoutSeconds) * time.Second,
			ChunkSize:   s.cfg.FFmpeg.ChunkSizeKiB * 1024,
		}, opts...)
	})
	return s.provisioner
}

// DownloadSize reports the release archive size in bytes, or 0 when unknown.
func (s *Service) DownloadSize(ctx context.Context) (int64, error) {
	return s.Provisioner().DownloadSize(ctx)
}

// Provision downloads and installs the binaries. See provision.Provisioner.
func (s *Service) Provision(ctx context.Context) (<-chan progress.Event, error) {
	return s.Provisioner().Provision(ctx)
}

// StartTranscode locates the binaries and starts a job. ErrBinaryMissing is
// returned when no complete pair is available.
func (s *Service) StartTranscode(ctx context.Context, inputPath string, targetMB int) (*encoding.Job, error) {
	paths, ok := s.LocateBinaries()
	if !ok {
		return nil, services.Wrap(services.ErrBinaryMissing, "transcode", "locate binaries",
			"install ffmpeg with 'discompressor install' or put it on PATH", nil)
	}
	return s.engineFor(paths).Start(ctx, encoding.Request{InputPath: inputPath, TargetMB: targetMB})
}

// engineFor returns the shared engine, replacing it when the located
// binaries changed and no job is running on the old one.
func (s *Service) engineFor(paths deps.BinaryPaths) *encoding.Engine {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine != nil && (s.enginePaths == paths || s.engine.Busy()) {
		return s.engine
	}
	opts := []encoding.EngineOption{
		encoding.WithLogger(s.logger),
		encoding.WithOutputExtension(s.cfg.Encoding.OutputExtension),
		encoding.WithProbeTimeout(time.Duration(s.cfg.Encoding.ProbeTimeoutSeconds) * time.Second),
		encoding.WithEncodeTimeout(time.Duration(s.cfg.Encoding.EncodeTimeoutSeconds) * time.Second),
	}
	if s.history != nil {
		opts = append(opts, encoding.WithObserver(s.recordHistory))
	}
	s.engine = encoding.NewEngine(paths, opts...)
	s.enginePaths = paths
	return s.engine
}

func (s *Service) recordHistory(summary encoding.Summary) {
	var outputBytes int64
	if summary.State == encoding.StateSucceeded {
		if info, err := os.Stat(summary.Plan.OutputPath); err == nil {
			outputBytes = info.Size()
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), historyWriteTimeout)
	defer cancel()
	if _, err := s.history.Record(ctx, historyEntryFromSummary(summary, outputBytes)); err != nil {
		logging.WarnWithContext(s.logger, "failed to record transcode history", "history_record_failed",
			logging.String(logging.FieldJobID, summary.ID),
			logging.Error(err),
			logging.String(logging.FieldImpact, "this run will not appear in history"),
		)
	}
}

// Probe inspects a media file with the located prober.
func (s *Service) Probe(ctx context.Context, inputPath string) (ProbeReport, error) {
	paths, ok := s.LocateBinaries()
	if !ok {
		return ProbeReport{}, services.Wrap(services.ErrBinaryMissing, "probing", "locate binaries", "", nil)
	}
	probeCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.Encoding.ProbeTimeoutSeconds)*time.Second)
	defer cancel()
	result, err := ffprobe.Inspect(probeCtx, paths.Prober, inputPath)
	if err != nil {
		return ProbeReport{}, err
	}
	return FromProbeResult(inputPath, result), nil
}

// History returns recent transcodes, newest first. Without a store it
// returns nothing.
func (s *Service) History(ctx context.Context, limit int) ([]TranscodeRecord, error) {
	if s.history == nil {
		return nil, nil
	}
	entries, err := s.history.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	return FromHistoryEntries(entries), nil
}

package provision

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"discompressor/internal/deps"
	"discompressor/internal/fileutil"
	"discompressor/internal/logging"
	"discompressor/internal/progress"
	"discompressor/internal/services"
	"discompressor/internal/staging"
)

const (
	defaultChunkSize   = 64 * 1024
	defaultTimeout     = 10 * time.Minute
	defaultEventBuffer = 256
	installMode        = 0o755
)

// Options describes where the release comes from and where it is installed.
type Options struct {
	InstallDir  string
	ReleaseURL  string
	EncoderName string // platform file name, e.g. ffmpeg.exe on Windows
	ProberName  string
	TempDir     string // parent of the per-run scratch directory
	Timeout     time.Duration
	ChunkSize   int
}

// Option customizes a Provisioner.
type Option func(*Provisioner)

// WithHTTPClient replaces the default HTTP client. Options.Timeout is not
// applied to an injected client.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Provisioner) {
		if client != nil {
			p.client = client
		}
	}
}

// WithLogger sets the provisioner logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provisioner) {
		p.logger = logger
	}
}

// WithChunkSize sets the download read size.
func WithChunkSize(n int) Option {
	return func(p *Provisioner) {
		if n > 0 {
			p.opts.ChunkSize = n
		}
	}
}

// WithTempRoot sets the directory that holds per-run scratch directories.
func WithTempRoot(dir string) Option {
	return func(p *Provisioner) {
		if strings.TrimSpace(dir) != "" {
			p.opts.TempDir = dir
		}
	}
}

// Provisioner installs the encoder/prober pair from a release archive. At
// most one run is active per process, and the install directory lock keeps
// other processes out.
type Provisioner struct {
	opts    Options
	client  *http.Client
	logger  *slog.Logger
	running atomic.Bool

	mu    sync.Mutex
	state State
}

// New builds a provisioner. Empty executable names default to the platform
// names of ffmpeg and ffprobe.
func New(cfg Options, opts ...Option) *Provisioner {
	cfg.InstallDir = strings.TrimSpace(cfg.InstallDir)
	cfg.ReleaseURL = strings.TrimSpace(cfg.ReleaseURL)
	if strings.TrimSpace(cfg.EncoderName) == "" {
		cfg.EncoderName = deps.ExecutableName("ffmpeg")
	}
	if strings.TrimSpace(cfg.ProberName) == "" {
		cfg.ProberName = deps.ExecutableName("ffprobe")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = defaultChunkSize
	}
	p := &Provisioner{opts: cfg}
	for _, opt := range opts {
		opt(p)
	}
	if p.client == nil {
		p.client = &http.Client{Timeout: cfg.Timeout}
	}
	p.logger = logging.NewComponentLogger(p.logger, "provision")
	locator := deps.Locator{InstallDir: cfg.InstallDir, EncoderName: cfg.EncoderName, ProberName: cfg.ProberName}
	if locator.InstalledLocally() {
		p.state = StateInstalled
	}
	return p
}

// State returns the provisioning state.
func (p *Provisioner) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Provisioner) setState(state State) {
	p.mu.Lock()
	previous := p.state
	p.state = state
	p.mu.Unlock()
	if previous != state {
		p.logger.Debug("provision state changed",
			logging.String("from", previous.String()),
			logging.String("to", state.String()),
		)
	}
}

// DownloadSize asks the release server for the archive size with a HEAD
// request. Zero means the server did not say.
func (p *Provisioner) DownloadSize(ctx context.Context) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.opts.ReleaseURL, nil)
	if err != nil {
		return 0, services.Wrap(services.ErrProvision, "download", "size request", "", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, services.Wrap(services.ErrProvision, "download", "size request", "", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, services.Wrap(services.ErrProvision, "download", "size request", fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}
	if resp.ContentLength > 0 {
		return resp.ContentLength, nil
	}
	return 0, nil
}

// Provision starts a download-and-install run and returns its event stream.
// ErrBusy means another run holds the install directory; no events are
// produced in that case. Cancelling ctx aborts the run with a cancelled event.
func (p *Provisioner) Provision(ctx context.Context) (<-chan progress.Event, error) {
	if p.opts.InstallDir == "" {
		return nil, services.Wrap(services.ErrValidation, "provision", "start", "install directory is required", nil)
	}
	if !p.running.CompareAndSwap(false, true) {
		return nil, services.Wrap(services.ErrBusy, "provision", "start", "provisioning already in progress", nil)
	}

	if err := os.MkdirAll(filepath.Dir(p.opts.InstallDir), 0o755); err != nil {
		p.running.Store(false)
		return nil, services.Wrap(services.ErrProvision, "provision", "start", "create install parent", err)
	}
	lock := flock.New(p.opts.InstallDir + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		p.running.Store(false)
		return nil, services.Wrap(services.ErrProvision, "provision", "acquire lock", "", err)
	}
	if !locked {
		p.running.Store(false)
		return nil, services.Wrap(services.ErrBusy, "provision", "acquire lock", "another process is installing into "+p.opts.InstallDir, nil)
	}

	events := progress.NewChannel(defaultEventBuffer)
	go func() {
		started := time.Now()
		err := p.run(ctx, events)
		if unlockErr := lock.Unlock(); unlockErr != nil {
			logging.WarnWithContext(p.logger, "failed to release install lock", "provision_unlock_failed",
				logging.Error(unlockErr),
				logging.String(logging.FieldImpact, "a later install may report busy"),
			)
		}
		p.running.Store(false)
		p.finish(events, err, time.Since(started))
	}()
	return events.Events(), nil
}

// run performs one provisioning attempt. Scratch files are gone by the time
// it returns.
func (p *Provisioner) run(ctx context.Context, events *progress.Channel) error {
	p.setState(StateDownloading)
	p.logger.Info("provisioning started",
		logging.String(logging.FieldEventType, "provision_started"),
		logging.String("url", p.opts.ReleaseURL),
		logging.String("install_dir", p.opts.InstallDir),
	)

	tempRoot := p.opts.TempDir
	if strings.TrimSpace(tempRoot) == "" {
		tempRoot = os.TempDir()
	}
	if err := os.MkdirAll(tempRoot, 0o755); err != nil {
		return services.Wrap(services.ErrProvision, "provision", "create temp root", "", err)
	}
	scratch, err := os.MkdirTemp(tempRoot, staging.ProvisionPrefix)
	if err != nil {
		return services.Wrap(services.ErrProvision, "provision", "create temp dir", "", err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			logging.WarnWithContext(p.logger, "failed to remove provisioning temp dir", "provision_cleanup_failed",
				logging.String("path", scratch),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "remove the directory manually"),
			)
		}
	}()

	archive, err := p.download(ctx, scratch, events)
	if err != nil {
		return err
	}

	p.setState(StateExtracting)
	extractDir := filepath.Join(scratch, "extract")
	if err := extractArchive(archive, extractDir); err != nil {
		return err
	}
	encoderSrc, proberSrc, err := p.locateExecutables(extractDir)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return services.Wrap(services.ErrCancelled, "provision", "install", "", err)
	}
	return p.install(encoderSrc, proberSrc)
}

// finish records the outcome and publishes the terminal event.
func (p *Provisioner) finish(events *progress.Channel, err error, elapsed time.Duration) {
	switch {
	case err == nil:
		p.setState(StateInstalled)
		p.logger.Info("provisioning completed",
			logging.String(logging.FieldEventType, "provision_completed"),
			logging.String("install_dir", p.opts.InstallDir),
			logging.Duration("elapsed", elapsed),
		)
		events.Succeed(p.opts.InstallDir)
	case services.IsCancelled(err):
		p.setState(StateNotInstalled)
		p.logger.Info("provisioning cancelled", logging.String(logging.FieldEventType, "provision_cancelled"))
		events.Cancelled()
	default:
		p.setState(StateFailed)
		logging.ErrorWithContext(p.logger, "provisioning failed", "provision_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check network access or set ffmpeg.release_url"),
		)
		events.Fail(err)
	}
}

// download streams the archive into dir in fixed-size chunks, publishing a
// transfer event after each one.
func (p *Provisioner) download(ctx context.Context, dir string, events *progress.Channel) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.opts.ReleaseURL, nil)
	if err != nil {
		return "", services.Wrap(services.ErrProvision, "download", "request", "", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return "", downloadError(ctx, "request", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", services.Wrap(services.ErrProvision, "download", "request", fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	total := resp.ContentLength
	if total <= 0 {
		total = 0
		if size, err := p.DownloadSize(ctx); err == nil {
			total = size
		}
	}

	archivePath := filepath.Join(dir, "archive"+archiveExt(p.opts.ReleaseURL))
	out, err := os.Create(archivePath)
	if err != nil {
		return "", services.Wrap(services.ErrProvision, "download", "create archive", "", err)
	}
	defer out.Close()

	buf := make([]byte, p.opts.ChunkSize)
	var done int64
	for {
		n, readErr := io.ReadFull(resp.Body, buf)
		if n > 0 {
			if _, err := out.Write(buf[:n]); err != nil {
				return "", services.Wrap(services.ErrProvision, "download", "write archive", "", err)
			}
			done += int64(n)
			events.Transfer(done, total)
		}
		if errors.Is(readErr, io.EOF) || errors.Is(readErr, io.ErrUnexpectedEOF) {
			break
		}
		if readErr != nil {
			return "", downloadError(ctx, "read body", readErr)
		}
	}
	if err := out.Close(); err != nil {
		return "", services.Wrap(services.ErrProvision, "download", "write archive", "", err)
	}
	p.logger.Debug("archive downloaded",
		logging.String("path", archivePath),
		logging.Int64("bytes", done),
	)
	return archivePath, nil
}

func downloadError(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return services.Wrap(services.ErrCancelled, "download", op, "", ctx.Err())
	}
	return services.Wrap(services.ErrProvision, "download", op, "", err)
}

// locateExecutables finds both executables in the extracted tree before
// anything is installed.
func (p *Provisioner) locateExecutables(root string) (string, string, error) {
	binDir, err := releaseBinDir(root)
	if err != nil {
		return "", "", err
	}
	encoder := filepath.Join(binDir, p.opts.EncoderName)
	prober := filepath.Join(binDir, p.opts.ProberName)
	for _, path := range []string{encoder, prober} {
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			return "", "", services.Wrap(services.ErrProvision, "extract", "verify", "archive is missing "+filepath.Base(path), nil)
		}
	}
	return encoder, prober, nil
}

// install moves both executables into the install directory. When the
// second move fails the first is removed again, along with the install
// directory if this run created it.
func (p *Provisioner) install(encoderSrc, proberSrc string) error {
	dir := p.opts.InstallDir
	_, statErr := os.Stat(dir)
	created := errors.Is(statErr, os.ErrNotExist)
	if err := os.MkdirAll(dir, installMode); err != nil {
		return services.Wrap(services.ErrProvision, "install", "create install dir", "", err)
	}
	rollback := func(paths ...string) {
		for _, path := range paths {
			_ = os.Remove(path)
		}
		if created {
			_ = os.Remove(dir)
		}
	}

	encoderDst := filepath.Join(dir, p.opts.EncoderName)
	if err := fileutil.MoveFile(encoderSrc, encoderDst, installMode); err != nil {
		rollback(encoderDst)
		return services.Wrap(services.ErrProvision, "install", "move encoder", "", err)
	}
	proberDst := filepath.Join(dir, p.opts.ProberName)
	if err := fileutil.MoveFile(proberSrc, proberDst, installMode); err != nil {
		rollback(encoderDst, proberDst)
		return services.Wrap(services.ErrProvision, "install", "move prober", "", err)
	}
	return nil
}

func archiveExt(rawURL string) string {
	name := rawURL
	if parsed, err := url.Parse(rawURL); err == nil {
		name = parsed.Path
	}
	name = strings.ToLower(name)
	switch {
	case strings.HasSuffix(name, ".tar.gz"):
		return ".tar.gz"
	case strings.HasSuffix(name, ".tgz"):
		return ".tgz"
	case strings.HasSuffix(name, ".zip"):
		return ".zip"
	default:
		return ""
	}
}

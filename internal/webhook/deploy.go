package webhook

import (
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/medlem-go/internal/model"
)

// ErrDeployerStopped is returned by Schedule after Stop.
var ErrDeployerStopped = errors.New("deployer stopped")

// Runner executes the deploy script. The default runs it with os/exec.
type Runner func(ctx context.Context, script string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, script string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, script, args...).CombinedOutput()
}

// DeployConfig configures the Deployer.
type DeployConfig struct {
	// BranchPrefix selects the branches that deploy, e.g. "release/".
	BranchPrefix string
	// Script is run with the branch name as its only argument.
	Script string
	// Delay postpones the run so GitHub gets its response first.
	Delay time.Duration
	// Timeout bounds a single script run.
	Timeout time.Duration
}

// Job is a scheduled deploy.
type Job struct {
	ID          string
	Branch      string
	ScheduledAt time.Time
	RunAt       time.Time
}

// Deployer schedules the deploy script after a delay. Pending runs are
// cancelled by Stop.
type Deployer struct {
	cfg    DeployConfig
	run    Runner
	logger *slog.Logger
	notify func(Job, error)

	mu      sync.Mutex
	pending map[string]*time.Timer
	stopped bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewDeployer creates a Deployer. A nil runner uses os/exec.
func NewDeployer(cfg DeployConfig, run Runner, logger *slog.Logger) *Deployer {
	if run == nil {
		run = execRunner
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Deployer{
		cfg:     cfg,
		run:     run,
		logger:  logger,
		pending: make(map[string]*time.Timer),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// OnFinish registers fn to be called after every run. It must be set
// before the first Schedule.
func (d *Deployer) OnFinish(fn func(job Job, err error)) {
	d.notify = fn
}

// Enabled reports whether a deploy script is configured.
func (d *Deployer) Enabled() bool {
	return d != nil && d.cfg.Script != ""
}

// Matches reports whether branch should deploy.
func (d *Deployer) Matches(branch string) bool {
	return branch != "" && strings.HasPrefix(branch, d.cfg.BranchPrefix)
}

// Schedule queues a deploy of branch after the configured delay.
func (d *Deployer) Schedule(branch string) (Job, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return Job{}, ErrDeployerStopped
	}

	now := time.Now()
	job := Job{
		ID:          uuid.NewString(),
		Branch:      branch,
		ScheduledAt: now,
		RunAt:       now.Add(d.cfg.Delay),
	}

	d.wg.Add(1)
	d.pending[job.ID] = time.AfterFunc(d.cfg.Delay, func() {
		defer d.wg.Done()
		d.mu.Lock()
		delete(d.pending, job.ID)
		d.mu.Unlock()
		d.execute(job)
	})

	d.logger.Info("deploy scheduled", "job_id", job.ID, "branch", branch, "run_at", job.RunAt)
	return job, nil
}

func (d *Deployer) execute(job Job) {
	ctx, cancel := context.WithTimeout(d.ctx, d.cfg.Timeout)
	defer cancel()

	start := time.Now()
	out, err := d.run(ctx, d.cfg.Script, job.Branch)
	if d.notify != nil {
		defer d.notify(job, err)
	}
	if err != nil {
		d.logger.Error("deploy failed",
			"job_id", job.ID,
			"branch", job.Branch,
			"error", err,
			"output", tail(string(out), 2000),
			"category", model.EventCategoryDeploy,
		)
		return
	}
	d.logger.Info("deploy finished",
		"job_id", job.ID,
		"branch", job.Branch,
		"duration", time.Since(start).Round(time.Millisecond).String(),
	)
}

// Pending returns the number of scheduled runs that have not started.
func (d *Deployer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Stop cancels pending runs, aborts a running script and waits for it.
func (d *Deployer) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	for id, t := range d.pending {
		if t.Stop() {
			d.wg.Done()
			d.logger.Info("deploy cancelled", "job_id", id)
		}
		delete(d.pending, id)
	}
	d.mu.Unlock()

	d.cancel()
	d.wg.Wait()
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

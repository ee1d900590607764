// Package probe periodically checks daemon instance availability and keeps
// the latest result per instance for the health endpoint and metrics.
package probe

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/flemzord/syncmcp/internal/registry"
)

// Recorder receives probe outcomes. Satisfied by metrics.Metrics.
type Recorder interface {
	SetInstanceUp(instance string, up bool)
}

// InstanceHealth is the latest probe result for one instance.
type InstanceHealth struct {
	Name      string    `json:"name"`
	Available bool      `json:"available"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Prober runs availability checks on a cron schedule. Each tick pings every
// registered instance; a tick that overlaps a still-running one is skipped.
type Prober struct {
	mu       sync.Mutex
	running  sync.Mutex
	cron     *cron.Cron
	reg      *registry.Registry
	recorder Recorder
	logger   *slog.Logger
	schedule string
	timeout  time.Duration
	state    map[string]InstanceHealth
	cancel   context.CancelFunc

	// pruneFn, when set, runs on pruneSchedule (retention cleanup).
	pruneFn       func(context.Context)
	pruneSchedule string
}

// New creates a prober. Schedule is a five-field cron expression.
func New(reg *registry.Registry, recorder Recorder, logger *slog.Logger, schedule string) *Prober {
	if logger == nil {
		logger = slog.Default()
	}
	return &Prober{
		reg:      reg,
		recorder: recorder,
		logger:   logger,
		schedule: schedule,
		timeout:  10 * time.Second,
		state:    make(map[string]InstanceHealth),
	}
}

// WithPrune registers a retention cleanup callback on its own schedule.
// Must be called before Start().
func (p *Prober) WithPrune(schedule string, fn func(context.Context)) {
	p.pruneSchedule = schedule
	p.pruneFn = fn
}

// Start runs one immediate probe pass and then begins the schedule.
func (p *Prober) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	p.cron = cron.New(cron.WithParser(parser))

	_, err := p.cron.AddFunc(p.schedule, func() {
		// TryLock is atomic. If the previous tick is still running,
		// skip this one rather than stacking probes.
		if !p.running.TryLock() {
			p.logger.Warn("probe: previous pass still running, skipping tick")
			return
		}
		defer p.running.Unlock()
		p.probeAll(ctx)
	})
	if err != nil {
		cancel()
		return err
	}

	if p.pruneFn != nil {
		if _, err := p.cron.AddFunc(p.pruneSchedule, func() { p.pruneFn(ctx) }); err != nil {
			cancel()
			return err
		}
	}

	// The initial pass holds the same lock as scheduled ones, so an early
	// cron tick skips rather than overlaps it, and Stop waits for it.
	p.running.Lock()
	go func() {
		defer p.running.Unlock()
		p.probeAll(ctx)
	}()
	p.cron.Start()
	p.logger.Info("probe: started", "schedule", p.schedule)
	return nil
}

// Stop halts the schedule and waits for a running pass to finish.
func (p *Prober) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	if p.cron != nil {
		<-p.cron.Stop().Done()
	}
	p.running.Lock()
	p.running.Unlock() //nolint:staticcheck // wait for an in-flight pass
}

func (p *Prober) probeAll(ctx context.Context) {
	for name, client := range p.reg.All() {
		checkCtx, cancel := context.WithTimeout(ctx, p.timeout)
		err := client.Ping(checkCtx)
		cancel()

		h := InstanceHealth{
			Name:      name,
			Available: err == nil,
			CheckedAt: time.Now().UTC(),
		}
		if err != nil {
			h.Error = client.DescribeError(err)
		}

		p.mu.Lock()
		prev, seen := p.state[name]
		p.state[name] = h
		p.mu.Unlock()

		if p.recorder != nil {
			p.recorder.SetInstanceUp(name, h.Available)
		}
		if seen && prev.Available != h.Available {
			if h.Available {
				p.logger.Info("probe: instance recovered", "instance", name)
			} else {
				p.logger.Warn("probe: instance unavailable", "instance", name, "error", h.Error)
			}
		}
	}
}

// Health returns the latest result for every probed instance, sorted by
// name. Instances not yet probed are absent.
func (p *Prober) Health() []InstanceHealth {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]InstanceHealth, 0, len(p.state))
	for _, h := range p.state {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// AllAvailable reports whether every probed instance was reachable on its
// last check. True when nothing has been probed yet.
func (p *Prober) AllAvailable() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, h := range p.state {
		if !h.Available {
			return false
		}
	}
	return true
}

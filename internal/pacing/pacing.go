package pacing

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"scribe/internal/config"
	"scribe/internal/logging"
)

// Outcome classifies the result of one fetch attempt for the controller.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeSoftError
	OutcomeRateLimited
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeSoftError:
		return "soft_error"
	case OutcomeRateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

// Settings holds the controller's tuning values.
type Settings struct {
	Posture       Posture
	BaseDelay     time.Duration
	Jitter        float64
	WorkerCeiling int
	RampSuccesses int
	CooldownMin   time.Duration
	CooldownMax   time.Duration
	CooldownCap   time.Duration
	GraceMin      time.Duration
	GraceMax      time.Duration
	Multipliers   [3]float64 // indexed by Posture
}

// SettingsFromConfig converts the pacing section of the runtime configuration.
func SettingsFromConfig(p config.Pacing) (Settings, error) {
	posture, err := ParsePosture(p.Posture)
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		Posture:       posture,
		BaseDelay:     time.Duration(p.BaseDelaySeconds * float64(time.Second)),
		Jitter:        p.JitterFraction,
		WorkerCeiling: p.WorkerCeiling,
		RampSuccesses: p.RampSuccesses,
		CooldownMin:   time.Duration(p.CooldownMinSeconds) * time.Second,
		CooldownMax:   time.Duration(p.CooldownMaxSeconds) * time.Second,
		CooldownCap:   time.Duration(p.CooldownCapSeconds) * time.Second,
		GraceMin:      time.Duration(p.GraceMinSeconds) * time.Second,
		GraceMax:      time.Duration(p.GraceMaxSeconds) * time.Second,
		Multipliers: [3]float64{
			p.Multipliers.Conservative,
			p.Multipliers.Balanced,
			p.Multipliers.Aggressive,
		},
	}, nil
}

// Controller governs request pacing and concurrency for the whole process.
// It hands out slots with a jittered delay per request, shrinks concurrency
// while conservative, and runs a cooldown-then-ramp recovery sequence when
// the remote service starts rate limiting.
//
// The ceiling is global rather than per collection because the remote
// limiter is keyed by requesting origin, not by collection.
type Controller struct {
	settings Settings
	logger   *slog.Logger

	// now and sleep are test seams following the retry client pattern.
	now   func() time.Time
	sleep func(context.Context, time.Duration) error
	rng   *rand.Rand
	rngMu sync.Mutex

	mu               sync.Mutex
	posture          Posture
	active           int
	successStreak    int
	cooldownDeadline time.Time
	graceDeadline    time.Time
	cooldownScale    int
	blocks           int
	changed          chan struct{}
}

// New constructs a Controller starting at the configured posture.
func New(settings Settings, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = logging.NewNop()
	}
	if settings.WorkerCeiling < 1 {
		settings.WorkerCeiling = 1
	}
	if settings.RampSuccesses < 1 {
		settings.RampSuccesses = 1
	}
	for i, m := range settings.Multipliers {
		if m <= 0 {
			settings.Multipliers[i] = 1
		}
	}
	return &Controller{
		settings:      settings,
		logger:        logging.NewComponentLogger(logger, "pacing"),
		now:           time.Now,
		sleep:         sleepContext,
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
		posture:       settings.Posture,
		cooldownScale: 1,
		changed:       make(chan struct{}),
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Acquire blocks until a request may proceed: any active cooldown has
// elapsed, a concurrency slot is free at the current posture, and the
// jittered inter-request delay has passed. The returned release function
// frees the slot and must be called exactly once, after the fetch finishes.
func (c *Controller) Acquire(ctx context.Context) (func(), error) {
	if err := c.waitForSlot(ctx); err != nil {
		return nil, err
	}

	if err := c.sleep(ctx, c.nextDelay()); err != nil {
		c.releaseSlot()
		return nil, err
	}

	var once sync.Once
	return func() { once.Do(c.releaseSlot) }, nil
}

func (c *Controller) waitForSlot(ctx context.Context) error {
	for {
		c.mu.Lock()
		now := c.now()
		wait := c.cooldownDeadline.Sub(now)
		if wait <= 0 && c.active < c.workerLimitLocked() {
			c.active++
			c.mu.Unlock()
			return nil
		}
		changed := c.changed
		c.mu.Unlock()

		if wait > 0 {
			// Sleep out the cooldown, but wake early if state changes.
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-changed:
				timer.Stop()
			case <-timer.C:
			}
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
		}
	}
}

func (c *Controller) releaseSlot() {
	c.mu.Lock()
	if c.active > 0 {
		c.active--
	}
	c.notifyLocked()
	c.mu.Unlock()
}

func (c *Controller) notifyLocked() {
	close(c.changed)
	c.changed = make(chan struct{})
}

// nextDelay computes the jittered inter-request delay at the current posture.
func (c *Controller) nextDelay() time.Duration {
	c.mu.Lock()
	base := float64(c.settings.BaseDelay) * c.settings.Multipliers[c.posture]
	c.mu.Unlock()

	jitter := c.settings.Jitter
	if jitter <= 0 {
		return time.Duration(base)
	}
	factor := 1 + (c.randFloat()*2-1)*jitter
	return time.Duration(base * factor)
}

func (c *Controller) randFloat() float64 {
	c.rngMu.Lock()
	defer c.rngMu.Unlock()
	return c.rng.Float64()
}

func (c *Controller) randRange(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(c.randFloat()*float64(max-min))
}

// Report feeds a fetch outcome back into the controller.
func (c *Controller) Report(outcome Outcome) {
	switch outcome {
	case OutcomeSuccess:
		c.reportSuccess()
	case OutcomeSoftError:
		c.reportSoftError()
	case OutcomeRateLimited:
		c.reportRateLimited()
	}
}

func (c *Controller) reportSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.posture >= c.settings.Posture {
		// Fully recovered (or never blocked); nothing to ramp.
		c.successStreak = 0
		if !c.now().Before(c.graceDeadline) {
			c.cooldownScale = 1
		}
		return
	}
	if c.now().Before(c.graceDeadline) {
		// Hold the conservative floor through the grace window.
		return
	}
	c.successStreak++
	if c.successStreak < c.settings.RampSuccesses {
		return
	}
	c.successStreak = 0
	c.posture++
	if c.posture >= c.settings.Posture {
		c.posture = c.settings.Posture
		c.cooldownScale = 1
	}
	c.logger.Info("pacing ramp-up",
		logging.String("posture", c.posture.String()),
		logging.Int("workers", c.workerLimitLocked()),
	)
	c.notifyLocked()
}

func (c *Controller) reportSoftError() {
	c.mu.Lock()
	c.successStreak = 0
	c.mu.Unlock()
}

func (c *Controller) reportRateLimited() {
	c.mu.Lock()
	defer c.mu.Unlock()

	cooldown := c.randRange(c.settings.CooldownMin, c.settings.CooldownMax) * time.Duration(c.cooldownScale)
	if c.settings.CooldownCap > 0 && cooldown > c.settings.CooldownCap {
		cooldown = c.settings.CooldownCap
	}
	grace := c.randRange(c.settings.GraceMin, c.settings.GraceMax)

	now := c.now()
	deadline := now.Add(cooldown)
	if deadline.After(c.cooldownDeadline) {
		c.cooldownDeadline = deadline
		c.graceDeadline = deadline.Add(grace)
	}
	c.posture = PostureConservative
	c.successStreak = 0
	c.blocks++
	if c.cooldownScale < 1<<16 {
		c.cooldownScale *= 2
	}

	c.logger.Warn("rate limit detected, entering cooldown",
		logging.Duration("cooldown", cooldown),
		logging.Duration("grace", grace),
		logging.Int("blocks", c.blocks),
	)
	c.notifyLocked()
}

func (c *Controller) workerLimitLocked() int {
	mult := c.settings.Multipliers[c.posture]
	limit := int(float64(c.settings.WorkerCeiling) / mult)
	if limit < 1 {
		limit = 1
	}
	return limit
}

// WorkerLimit returns the concurrency ceiling at the current posture.
func (c *Controller) WorkerLimit() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.workerLimitLocked()
}

// Posture returns the current posture.
func (c *Controller) Posture() Posture {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.posture
}

// State is a point-in-time snapshot for logging and run reports.
type State struct {
	Posture          Posture
	WorkerLimit      int
	Blocks           int
	CooldownDeadline time.Time
	InCooldown       bool
}

// Snapshot returns the controller's current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Posture:          c.posture,
		WorkerLimit:      c.workerLimitLocked(),
		Blocks:           c.blocks,
		CooldownDeadline: c.cooldownDeadline,
		InCooldown:       c.now().Before(c.cooldownDeadline),
	}
}

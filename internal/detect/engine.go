// Package detect decides whether catalog tools are usable right now. It
// combines live probe results with persisted override and failure flags into
// two deliberately different verdicts: IsInstalled (display accuracy) and
// CanRun (execution authorization).
package detect

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/climateandtech/carbonara-sub002/internal/catalog"
	"github.com/climateandtech/carbonara-sub002/internal/proc"
	"github.com/climateandtech/carbonara-sub002/internal/pyenv"
	"github.com/climateandtech/carbonara-sub002/internal/state"
)

// Engine evaluates detection strategies for catalog tools. Probe results are
// cached for the process lifetime or until Invalidate.
type Engine struct {
	catalog     *catalog.Catalog
	store       state.Store
	runner      proc.Runner
	venvs       *pyenv.Manager
	projectPath string
	logger      *slog.Logger

	probeTimeout time.Duration

	mu    sync.RWMutex
	cache map[string]bool // live probe outcome per tool id
}

// Options configures an Engine.
type Options struct {
	// ProjectPath roots workspace-aware queries and isolated environments.
	ProjectPath string

	// ProbeTimeout overrides the default per-probe bound.
	ProbeTimeout time.Duration

	Logger *slog.Logger
}

// NewEngine creates a detection engine over the given collaborators.
func NewEngine(cat *catalog.Catalog, store state.Store, runner proc.Runner, venvs *pyenv.Manager, opts Options) *Engine {
	timeout := opts.ProbeTimeout
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		catalog:      cat,
		store:        store,
		runner:       runner,
		venvs:        venvs,
		projectPath:  opts.ProjectPath,
		logger:       logger,
		probeTimeout: timeout,
		cache:        make(map[string]bool),
	}
}

// IsInstalled reports the display/advisory install verdict for a tool.
//
// Precedence, in strict order: a sticky persisted detectionFailed flag
// forces false even when a live probe now succeeds (once burned, stay
// distrustful until explicitly cleared); otherwise the live probe chain
// decides. A persisted installed flag never upgrades a failing probe to
// true here, accuracy to the user wins; see CanRun for the authorization
// side.
func (e *Engine) IsInstalled(ctx context.Context, toolID string) bool {
	desc, err := e.catalog.Get(toolID)
	if err != nil {
		return false
	}

	st, err := e.store.LoadState(ctx, toolID)
	if err != nil {
		e.logger.Warn("failed to load tool state, treating as empty", "tool", toolID, "error", err)
		st = state.ToolState{}
	}

	if st.DetectionFailed {
		return false
	}

	return e.liveProbe(ctx, desc)
}

// CanRun reports whether invoking the tool is authorized. It is purely
// state-based: a manual or prior successful install authorizes execution
// even when live detection fails (covers tools with unreliable detection
// signatures), and the sticky failure flag revokes it.
func (e *Engine) CanRun(ctx context.Context, toolID string) bool {
	desc, err := e.catalog.Get(toolID)
	if err != nil {
		return false
	}
	if desc.Installation.Type == catalog.EcosystemBuiltIn {
		return true
	}

	st, err := e.store.LoadState(ctx, toolID)
	if err != nil {
		return false
	}
	return st.Installed() && !st.DetectionFailed
}

// liveProbe evaluates the descriptor's strategy chain, consulting the cache
// first. The first conclusive verdict wins.
func (e *Engine) liveProbe(ctx context.Context, desc catalog.Descriptor) bool {
	e.mu.RLock()
	cached, ok := e.cache[desc.ID]
	e.mu.RUnlock()
	if ok {
		return cached
	}

	detected := false
	for _, s := range e.probeStrategies(desc) {
		switch s.probe(ctx) {
		case verdictDetected:
			detected = true
		case verdictNotDetected:
			detected = false
		case verdictInconclusive:
			continue
		}
		e.logger.Debug("detection probe concluded", "tool", desc.ID, "strategy", s.name, "detected", detected)
		break
	}

	e.mu.Lock()
	e.cache[desc.ID] = detected
	e.mu.Unlock()
	return detected
}

// Refresh re-runs the live probe chain for every catalog tool and caches the
// results. Probes for different tools share no mutable state and run
// concurrently.
func (e *Engine) Refresh(ctx context.Context) {
	e.Invalidate()

	var wg sync.WaitGroup
	for _, desc := range e.catalog.List() {
		wg.Add(1)
		go func(d catalog.Descriptor) {
			defer wg.Done()
			e.liveProbe(ctx, d)
		}(desc)
	}
	wg.Wait()
}

// Invalidate drops all cached probe results.
func (e *Engine) Invalidate() {
	e.mu.Lock()
	e.cache = make(map[string]bool)
	e.mu.Unlock()
}

// MarkDetectionFailed sets the sticky failure flag for a tool: a prior
// installed verdict was proven wrong. The flag survives later successful
// probes until ClearDetectionFailed.
func (e *Engine) MarkDetectionFailed(ctx context.Context, toolID string) error {
	now := time.Now().UTC()
	return e.store.SaveState(ctx, toolID, state.StatePatch{
		DetectionFailed:   state.Bool(true),
		DetectionFailedAt: state.Time(now),
	})
}

// ClearDetectionFailed explicitly clears the sticky failure flag.
func (e *Engine) ClearDetectionFailed(ctx context.Context, toolID string) error {
	return e.store.SaveState(ctx, toolID, state.StatePatch{
		DetectionFailed: state.Bool(false),
	})
}

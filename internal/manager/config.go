package manager

import (
	"github.com/rs/zerolog"

	"locallm/internal/catalog"
	"locallm/internal/execx"
	"locallm/internal/hardware"
	"locallm/internal/progress"
	"locallm/internal/registry"
	"locallm/internal/retry"
	"locallm/internal/supervisor"
)

// Option overrides a collaborator the manager would otherwise build from
// configuration. Tests use options to inject fakes.
type Option func(*deps)

type deps struct {
	engine     Engine
	installer  supervisor.Installer
	strategies []supervisor.Strategy
	runner     execx.Runner
	finder     execx.ProcessFinder
	hardware   *hardware.Info
	clock      retry.Clock
	reporter   progress.Reporter
	publisher  EventPublisher
	logger     zerolog.Logger
	registry   *registry.Registry
	puller     catalog.Puller
}

func WithEngine(e Engine) Option { return func(d *deps) { d.engine = e } }

func WithInstaller(i supervisor.Installer) Option { return func(d *deps) { d.installer = i } }

// WithStrategies replaces the detached/background launch chain.
func WithStrategies(s ...supervisor.Strategy) Option {
	return func(d *deps) { d.strategies = s }
}

func WithRunner(r execx.Runner) Option { return func(d *deps) { d.runner = r } }

func WithFinder(f execx.ProcessFinder) Option { return func(d *deps) { d.finder = f } }

// WithHardware skips detection and uses info as the machine profile.
func WithHardware(info hardware.Info) Option {
	return func(d *deps) { d.hardware = &info }
}

func WithClock(c retry.Clock) Option { return func(d *deps) { d.clock = c } }

func WithReporter(r progress.Reporter) Option { return func(d *deps) { d.reporter = r } }

func WithPublisher(p EventPublisher) Option { return func(d *deps) { d.publisher = p } }

func WithLogger(l zerolog.Logger) Option { return func(d *deps) { d.logger = l } }

func WithRegistry(r *registry.Registry) Option { return func(d *deps) { d.registry = r } }

// WithPuller replaces the download path chosen by the pull_mode setting.
func WithPuller(p catalog.Puller) Option { return func(d *deps) { d.puller = p } }

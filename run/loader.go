package run

import (
	"fmt"

	"github.com/relex/gotils/channels"
	"github.com/relex/gotils/logger"
	"github.com/relex/gotils/promexporter/promreg"

	"github.com/hpcops/torque-slack-agent/base"
	"github.com/hpcops/torque-slack-agent/defs"
	"github.com/hpcops/torque-slack-agent/input/dirtail"
	"github.com/hpcops/torque-slack-agent/input/dirwatch"
	"github.com/hpcops/torque-slack-agent/input/torqueparser"
	"github.com/hpcops/torque-slack-agent/output/dispatch"
	"github.com/hpcops/torque-slack-agent/output/slack"
)

// Loader prepares everything derived from the config file but does not trigger anything
// automatically; replay, tailers and the dispatcher are exposed separately to allow
// customization and testing, see Run()
type Loader struct {
	Config        Config
	MetricCreator promreg.MetricCreator
	Queue         *base.EventQueue

	keepFile func(name string) bool
}

// watchedDirectory pairs one log directory with its line format
type watchedDirectory struct {
	source    base.LogSource
	directory string
}

// NewLoaderFromConfigFile loads and verifies configuration and prepares the shared
// event queue and metric factory
func NewLoaderFromConfigFile(path string, metricPrefix string) (*Loader, error) {
	config, err := ParseConfigFile(path)
	if err != nil {
		return nil, err
	}
	return NewLoader(config, metricPrefix)
}

// NewLoader prepares a Loader from an already verified Config
func NewLoader(config Config, metricPrefix string) (*Loader, error) {
	keepFile, err := dirtail.NewFileFilter(config.IgnoreFiles)
	if err != nil {
		return nil, err
	}

	if config.MaxLineSize.Bytes() > 0 {
		defs.InputLogMaxLineBytes = int(config.MaxLineSize.Bytes())
	}

	return &Loader{
		Config:        config,
		MetricCreator: promreg.NewMetricFactory(metricPrefix, nil, nil),
		Queue:         base.NewEventQueue(),
		keepFile:      keepFile,
	}, nil
}

func (loader *Loader) watchedDirectories() []watchedDirectory {
	return []watchedDirectory{
		{source: base.SourceServerLog, directory: loader.Config.ServerLogDir},
		{source: base.SourceAccountingLog, directory: loader.Config.AccountingLogDir},
	}
}

// ReplayIntoQueue replays the newest files of both directories, merges the parsed
// events into one time-ordered sequence, pushes them all onto the queue and returns the
// per-directory handoffs for the live tailers
//
// Must be called before LaunchTailers so live tailing continues exactly where replay
// finished.
func (loader *Loader) ReplayIntoQueue(parentLogger logger.Logger) (map[base.LogSource]dirtail.Handoff, error) {
	sequences := make([][]*base.Event, 0, 2)
	handoffs := make(map[base.LogSource]dirtail.Handoff, 2)

	for _, watched := range loader.watchedDirectories() {
		parser := torqueparser.NewLineParser(parentLogger, watched.source, loader.MetricCreator)
		events, handoff, err := dirtail.ReplayDirectory(parentLogger, watched.directory, parser,
			loader.Config.ReplayFileCount, loader.keepFile)
		if err != nil {
			return nil, err
		}
		sequences = append(sequences, events)
		handoffs[watched.source] = handoff
	}

	for _, event := range base.MergeByTime(sequences...) {
		loader.Queue.Push(event)
	}
	return handoffs, nil
}

// LaunchTailers establishes the directory watches and starts one tailer per directory
//
// Watch establishment failure is returned as an error; the caller must treat it as
// fatal since the system cannot make progress without a watch.
func (loader *Loader) LaunchTailers(parentLogger logger.Logger, handoffs map[base.LogSource]dirtail.Handoff,
	stopRequest channels.Awaitable) ([]*dirtail.Tailer, error) {

	tailers := make([]*dirtail.Tailer, 0, 2)
	for _, watched := range loader.watchedDirectories() {
		listener, err := loader.newListener(parentLogger, watched.directory)
		if err != nil {
			return nil, fmt.Errorf("failed to establish watch: %w", err)
		}

		tailer := dirtail.NewTailer(parentLogger, dirtail.TailerArgs{
			Directory: watched.directory,
			Listener:  listener,
			Parser:    torqueparser.NewLineParser(parentLogger, watched.source, loader.MetricCreator),
			Queue:     loader.Queue,
			Handoff:   handoffs[watched.source],
			KeepFile:  loader.keepFile,
		}, loader.MetricCreator, stopRequest)

		listener.Launch()
		tailer.Launch()
		tailers = append(tailers, tailer)
	}
	return tailers, nil
}

// LaunchDispatcher starts the dispatcher consuming the queue and delivering to the
// configured webhook
func (loader *Loader) LaunchDispatcher(parentLogger logger.Logger, stopRequest channels.Awaitable) *dispatch.Dispatcher {
	webhook := loader.Config.Webhook
	sink := slack.NewEventSink(
		slack.NewMessageFormatter(webhook.Username, webhook.Channel),
		slack.NewWebhookClient(parentLogger, webhook.URL),
	)

	dispatcher := dispatch.NewDispatcher(parentLogger, loader.Queue, sink, dispatch.Params{
		MinPostDelay:    webhook.MinPostDelay,
		OnFailure:       dispatch.FailurePolicy(webhook.OnFailure),
		FailureCooldown: webhook.FailureCooldown,
	}, loader.MetricCreator, stopRequest)

	dispatcher.Launch()
	return dispatcher
}

func (loader *Loader) newListener(parentLogger logger.Logger, directory string) (base.DirectoryListener, error) {
	switch loader.Config.Watch.Mode {
	case WatchModePoll:
		return dirwatch.NewPollListener(parentLogger, directory, loader.Config.Watch.PollInterval)
	default:
		return dirwatch.NewFsnotifyListener(parentLogger, directory)
	}
}

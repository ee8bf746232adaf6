// Package run wires replay, the live tailers and the dispatcher together and runs the
// agent until stopped by signals.
package run

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/relex/gotils/channels"
	"github.com/relex/gotils/logger"

	"github.com/hpcops/torque-slack-agent/defs"
)

// Run runs the agent until stopped by signals
//
// Startup order guarantees the global ordering of historical events: replay pushes the
// merged, time-ordered history onto the queue strictly before any live tailer starts,
// and the queue preserves push order to the single dispatcher. Once live tailing
// begins, interleaving between the two directories is queue-arrival order, not globally
// timestamp-sorted.
func Run(configFile string) {
	loader, loaderErr := NewLoaderFromConfigFile(configFile, "torqueslack_")
	if loaderErr != nil {
		logger.Fatal(loaderErr)
	}

	runLogger := logger.WithField(defs.LabelComponent, "Launcher")
	registerQueueDepthMetric(loader)

	stopRequest := channels.NewSignalAwaitable()

	handoffs, replayErr := loader.ReplayIntoQueue(logger.Root())
	if replayErr != nil {
		logger.Fatal(replayErr)
	}

	tailers, tailerErr := loader.LaunchTailers(logger.Root(), handoffs, stopRequest)
	if tailerErr != nil {
		logger.Fatal(tailerErr)
	}

	dispatcher := loader.LaunchDispatcher(logger.Root(), stopRequest)

	// a tailer stopping on its own means a structural failure (unexpected concurrent
	// write or a lost watch); partial operation with one dead watcher is worse than a
	// clean failure
	for _, tailer := range tailers {
		tailer := tailer
		go func() {
			tailer.Stopped().WaitForever()
			if !stopRequest.Peek() {
				logger.Fatalf("tailer terminated unexpectedly: %v", tailer.Err())
			}
		}()
	}

	// abort policy stops the dispatcher; treat it like any other structural failure
	go func() {
		dispatcher.Stopped().WaitForever()
		if !stopRequest.Peek() {
			logger.Fatalf("dispatcher terminated unexpectedly: %v", dispatcher.Err())
		}
	}()

	// wait for shutdown signal
	{
		sigChan := make(chan os.Signal, 10)
		signal.Notify(sigChan, syscall.SIGINT)
		signal.Notify(sigChan, syscall.SIGTERM)
		s := <-sigChan
		runLogger.Infof("received %s, shutting down", s)
	}

	stopRequest.Signal()
	stoppedTailers := make([]channels.Awaitable, 0, len(tailers))
	for _, tailer := range tailers {
		stoppedTailers = append(stoppedTailers, tailer.Stopped())
	}
	channels.AllAwaitables(stoppedTailers...).WaitForever()

	// everything enqueued before the sentinel is still delivered; minimum-delay waits
	// are cut short once stopRequest is signaled, sink backoff still applies
	dispatcher.Stop()
	dispatcher.Stopped().WaitForever()
	runLogger.Info("clean exit")
}

// registerQueueDepthMetric exposes the current queue depth; registration tolerates
// repeats so tests can call Run-like wiring more than once
func registerQueueDepthMetric(loader *Loader) {
	gauge := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "torqueslack_queued_events",
		Help: "Numbers of events currently waiting in the queue",
	}, func() float64 {
		return float64(loader.Queue.Depth())
	})
	if err := prometheus.Register(gauge); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			logger.Warnf("failed to register queue depth gauge: %s", err.Error())
		}
	}
}

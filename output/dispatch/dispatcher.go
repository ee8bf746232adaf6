// Package dispatch contains the sole consumer of the event queue: a single worker that
// serializes delivery to the notification sink, applies the minimum inter-delivery
// delay and honors sink-signaled backoff.
package dispatch

import (
	"time"

	"github.com/relex/gotils/channels"
	"github.com/relex/gotils/logger"
	"github.com/relex/gotils/promexporter/promext"
	"github.com/relex/gotils/promexporter/promreg"

	"github.com/hpcops/torque-slack-agent/base"
	"github.com/hpcops/torque-slack-agent/defs"
)

// Sink is the delivery boundary for one event at a time
//
// Deliver returns (0, nil) on success, (retryAfter, nil) when the sink rate-limits the
// caller, and (0, error) on any other failure.
type Sink interface {
	Deliver(event *base.Event) (retryAfter time.Duration, err error)
}

// FailurePolicy decides what happens after a generic delivery failure
type FailurePolicy string

// Supported failure policies
const (
	// FailureContinue logs the failure, waits out the cooldown and treats the event as
	// delivered; this is the default, as a dead watcher is worse than a lost notification
	FailureContinue FailurePolicy = "continue"
	// FailureAbort stops the dispatcher fatally on the first delivery failure
	FailureAbort FailurePolicy = "abort"
)

// Params are the dispatching knobs from configuration
type Params struct {
	MinPostDelay    time.Duration // minimum wait between two deliveries
	OnFailure       FailurePolicy
	FailureCooldown time.Duration // wait after a failed delivery under FailureContinue
}

// Dispatcher drains the event queue one event at a time for the lifetime of the process
//
// After every delivery attempt it suspends for max(retryAfter, minPostDelay) before
// pulling the next event; this is the sole throttling mechanism and applies whether the
// delivery succeeded or was rate-limited. A stop request cuts only the minPostDelay (or
// cooldown) portion of the suspension short, never the sink-signaled backoff. Producers
// are never blocked by the suspension; the queue absorbs the backpressure by growing.
type Dispatcher struct {
	logger      logger.Logger
	queue       *base.EventQueue
	sink        Sink
	params      Params
	stopRequest channels.Awaitable
	stopped     *channels.SignalAwaitable
	err         error

	deliveredTotal   promext.RWCounter
	rateLimitedTotal promext.RWCounter
	failedTotal      promext.RWCounter
}

// NewDispatcher creates a Dispatcher consuming the given queue
//
// stopRequest only cuts the minimum-delay portion of post-delivery waits short;
// sink-signaled backoff is honored even while stopping. Actual shutdown happens through
// the queue's stop sentinel, so no in-flight delivery is ever aborted.
func NewDispatcher(parentLogger logger.Logger, queue *base.EventQueue, sink Sink, params Params,
	metricCreator promreg.MetricCreator, stopRequest channels.Awaitable) *Dispatcher {

	if params.MinPostDelay <= 0 {
		params.MinPostDelay = defs.DefaultMinPostDelay
	}
	if params.OnFailure == "" {
		params.OnFailure = FailureContinue
	}
	if params.FailureCooldown <= 0 {
		params.FailureCooldown = defs.DispatchFailureCooldown
	}

	dispatchMetricCreator := metricCreator.AddOrGetPrefix("dispatch_", nil, nil)
	return &Dispatcher{
		logger:      parentLogger.WithField(defs.LabelComponent, "Dispatcher"),
		queue:       queue,
		sink:        sink,
		params:      params,
		stopRequest: stopRequest,
		stopped:     channels.NewSignalAwaitable(),
		deliveredTotal: dispatchMetricCreator.AddOrGetCounter("delivered_events_total",
			"Numbers of events delivered to the sink", nil, nil),
		rateLimitedTotal: dispatchMetricCreator.AddOrGetCounter("rate_limited_total",
			"Numbers of deliveries answered with a rate-limit signal", nil, nil),
		failedTotal: dispatchMetricCreator.AddOrGetCounter("failed_deliveries_total",
			"Numbers of failed delivery attempts", nil, nil),
	}
}

// Launch starts the dispatch loop in background
func (dispatcher *Dispatcher) Launch() {
	go dispatcher.run()
}

// Stopped returns an Awaitable signaled when the dispatch loop has exited
func (dispatcher *Dispatcher) Stopped() channels.Awaitable {
	return dispatcher.stopped
}

// Err returns the error that aborted dispatching under FailureAbort, if any; valid
// after Stopped
func (dispatcher *Dispatcher) Err() error {
	return dispatcher.err
}

// Stop requests the loop to exit after draining everything queued so far; idempotent
func (dispatcher *Dispatcher) Stop() {
	dispatcher.queue.Close()
}

func (dispatcher *Dispatcher) run() {
	defer dispatcher.stopped.Signal()
	dispatcher.logger.Info("started")

	for {
		event := dispatcher.queue.Pop()
		if event == nil {
			dispatcher.logger.Info("stop requested")
			break
		}

		backoff, waitTime, fatal := dispatcher.deliver(event)
		if fatal {
			break
		}
		// the sink demanded the backoff; a stop request never cuts it short, or draining
		// the backlog on shutdown would hammer a rate-limiting sink
		if backoff > 0 {
			time.Sleep(backoff)
			waitTime -= backoff
		}
		if waitTime > 0 {
			// interrupted waits fall through to Pop; the stop sentinel is already queued then
			dispatcher.stopRequest.Wait(waitTime)
		}
	}

	dispatcher.logger.Info("stopped")
}

// deliver attempts one delivery and returns the sink-signaled backoff (never cut short)
// and the total wait before the next pull, or fatal=true when the failure policy aborts
// dispatching
func (dispatcher *Dispatcher) deliver(event *base.Event) (time.Duration, time.Duration, bool) {
	retryAfter, err := dispatcher.sink.Deliver(event)

	if err != nil {
		dispatcher.failedTotal.Inc()
		if dispatcher.params.OnFailure == FailureAbort {
			dispatcher.logger.Errorf("delivery failed, aborting: %s", err.Error())
			dispatcher.err = err
			return 0, 0, true
		}
		dispatcher.logger.Errorf("delivery failed, cooling down %s: %s",
			dispatcher.params.FailureCooldown, err.Error())
		return 0, maxDuration(dispatcher.params.FailureCooldown, dispatcher.params.MinPostDelay), false
	}

	dispatcher.deliveredTotal.Inc()
	if retryAfter > 0 {
		dispatcher.rateLimitedTotal.Inc()
	}
	return retryAfter, maxDuration(retryAfter, dispatcher.params.MinPostDelay), false
}

func maxDuration(a time.Duration, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}

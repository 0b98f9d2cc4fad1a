// Package delivery hands a serialized payload to the external graph viewer,
// either embedded in a URL or injected into a freshly opened viewer window.
package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/athapong/graph-bridge/pkg/graph"
	"github.com/athapong/graph-bridge/pkg/graph/metrics"
	"github.com/athapong/graph-bridge/pkg/graph/visualizer"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Injection is everything a sink needs to run a live-injection delivery
type Injection struct {
	ID          string
	AppURL      string
	URL         string
	Payload     string
	RecordCount int
	// Script is the rendered <script> element
	Script string
}

// Sink performs the side-effecting part of a delivery. Failures returned by
// a sink are logged by the dispatcher and never reach its caller.
type Sink interface {
	DeliverViaURL(ctx context.Context, url string) error
	DeliverViaLiveInjection(ctx context.Context, inj *Injection) error
	// Interactive reports whether a display able to run live injection is
	// available right now.
	Interactive() bool
}

// NopSink delivers nothing and reports no display. Dispatching through it
// still computes the URL and advisories.
type NopSink struct{}

func (NopSink) DeliverViaURL(context.Context, string) error { return nil }
func (NopSink) DeliverViaLiveInjection(context.Context, *Injection) error { return nil }
func (NopSink) Interactive() bool { return false }

// Request is one delivery
type Request struct {
	Payload     string
	RecordCount int
	AppURL      string
	Mode        Mode
	// Display must be set for live injection to be attempted
	Display bool
}

// Result describes a completed delivery
type Result struct {
	URL        string           `json:"url"`
	Mode       Mode             `json:"mode"`
	Script     string           `json:"script,omitempty"`
	DeliveryID string           `json:"delivery_id"`
	Advisories []graph.Advisory `json:"advisories,omitempty"`
}

// Dispatcher chooses a channel and drives the sink
type Dispatcher struct {
	sink          Sink
	logger        *logrus.Logger
	fallbackDelay time.Duration
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithLogger replaces the dispatcher's logger
func WithLogger(logger *logrus.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithFallbackDelay sets the injection script's timer delay
func WithFallbackDelay(delay time.Duration) Option {
	return func(d *Dispatcher) {
		d.fallbackDelay = delay
	}
}

// NewDispatcher creates a dispatcher over sink. A nil sink is a NopSink.
func NewDispatcher(sink Sink, opts ...Option) *Dispatcher {
	if sink == nil {
		sink = NopSink{}
	}
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	d := &Dispatcher{
		sink:          sink,
		logger:        logger,
		fallbackDelay: visualizer.DefaultFallbackDelay,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch delivers req.Payload and returns the canonical URL for it. The
// URL is computed for every mode. Live injection runs only when requested,
// req.Display is set and the sink has an interactive display; a missing
// display falls back to URL delivery with an advisory. Sink failures are
// logged and swallowed.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (*Result, error) {
	mode, err := ParseMode(string(req.Mode))
	if err != nil {
		return nil, err
	}
	if req.AppURL == "" {
		return nil, errors.New("app URL is required")
	}

	res := &Result{
		URL:        BuildURL(req.AppURL, req.Payload),
		Mode:       ModeURL,
		DeliveryID: uuid.NewString(),
	}
	log := d.logger.WithFields(logrus.Fields{
		"delivery_id": res.DeliveryID,
		"records":     req.RecordCount,
		"requested":   mode,
	})
	metrics.PayloadBytes.Set(float64(len(req.Payload)))

	if n := len(res.URL); n > MaxURLLength {
		d.advise(log, res, graph.Advisory{
			Kind: graph.AdvisoryURLLength,
			Message: fmt.Sprintf(
				"URL length (%d characters) exceeds %d. Consider using the live-injection mode or reducing the size of your dataset.",
				n, MaxURLLength),
		})
	}

	if mode == ModeLiveInjection {
		switch {
		case !req.Display:
			log.Info("Display disabled, delivering by URL")
		case !d.sink.Interactive():
			d.advise(log, res, graph.Advisory{
				Kind:    graph.AdvisoryDisplayFallback,
				Message: "Interactive display not available. Falling back to URL method.",
			})
		default:
			return d.inject(ctx, log, req, res)
		}
	}

	log.WithField("url_length", len(res.URL)).Info("Opening Graph Explorer")
	if err := d.sink.DeliverViaURL(ctx, res.URL); err != nil {
		log.WithError(err).Error("Failed to open Graph Explorer URL")
		metrics.DeliveryTotal.WithLabelValues(string(ModeURL), "failed").Inc()
	} else {
		metrics.DeliveryTotal.WithLabelValues(string(ModeURL), "delivered").Inc()
	}
	return res, nil
}

func (d *Dispatcher) inject(ctx context.Context, log *logrus.Entry, req Request, res *Result) (*Result, error) {
	script, err := visualizer.RenderScript(visualizer.Script{
		AppURL:        req.AppURL,
		Payload:       req.Payload,
		FallbackDelay: d.fallbackDelay,
	})
	if err != nil {
		return nil, err
	}
	res.Mode = ModeLiveInjection
	res.Script = script

	log.Infof("Sending data to Graph Explorer (%d records)", req.RecordCount)
	err = d.sink.DeliverViaLiveInjection(ctx, &Injection{
		ID:          res.DeliveryID,
		AppURL:      req.AppURL,
		URL:         res.URL,
		Payload:     req.Payload,
		RecordCount: req.RecordCount,
		Script:      script,
	})
	if err != nil {
		log.WithError(err).Error("Live injection failed")
		metrics.DeliveryTotal.WithLabelValues(string(ModeLiveInjection), "failed").Inc()
	} else {
		metrics.DeliveryTotal.WithLabelValues(string(ModeLiveInjection), "delivered").Inc()
	}
	return res, nil
}

func (d *Dispatcher) advise(log *logrus.Entry, res *Result, adv graph.Advisory) {
	res.Advisories = append(res.Advisories, adv)
	metrics.DeliveryAdvisories.WithLabelValues(string(adv.Kind)).Inc()
	log.WithField("advisory", adv.Kind).Warn(adv.Message)
}

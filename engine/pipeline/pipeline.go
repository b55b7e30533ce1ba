// Package pipeline wires authentication, extraction, catalog matching, tag
// derivation, and dispatch into the single state machine behind the
// webhook endpoint.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/fitmentworks/fitment-engine/engine/catalog"
	"github.com/fitmentworks/fitment-engine/engine/domain"
	"github.com/fitmentworks/fitment-engine/engine/extract"
	"github.com/fitmentworks/fitment-engine/engine/tags"
	"github.com/fitmentworks/fitment-engine/engine/webhook"
	"github.com/fitmentworks/fitment-engine/pkg/fn"
	"github.com/fitmentworks/fitment-engine/pkg/metrics"
	"github.com/fitmentworks/fitment-engine/pkg/natsutil"
)

// SubjectProductTagged is the NATS subject tagged-product events are
// published on.
const SubjectProductTagged = "fitment.product.tagged"

// Dispatcher is the outbound contract toward the commerce platform.
// EnsureCollection returns the collection identifier for a composite tag,
// creating the collection if it does not exist yet.
type Dispatcher interface {
	ApplyTags(ctx context.Context, productID domain.ProductID, tags []string) error
	EnsureCollection(ctx context.Context, tag string) (string, error)
	AddProductToCollection(ctx context.Context, collectionID string, productID domain.ProductID) error
}

// Config assembles a Pipeline. Extractor and Matcher are mandatory;
// Dispatcher nil means tags are derived but not pushed anywhere (dry run),
// NATS nil disables event publishing, Registry nil disables metrics.
type Config struct {
	Secret    string
	Extractor extract.Provider
	Matcher   *catalog.Matcher
	Dispatch  Dispatcher
	NATS      *nats.Conn
	Registry  *metrics.Registry
	Log       *slog.Logger
	// Workers bounds concurrent collection reconciliation per request.
	Workers int
}

// Pipeline processes one webhook payload end to end.
type Pipeline struct {
	cfg Config
	log *slog.Logger

	durations *metrics.Histogram
}

// New validates cfg and builds a Pipeline.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Extractor == nil {
		return nil, fmt.Errorf("pipeline: extractor provider is required")
	}
	if cfg.Matcher == nil {
		return nil, fmt.Errorf("pipeline: matcher is required")
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	p := &Pipeline{cfg: cfg, log: cfg.Log}
	if cfg.Registry != nil {
		p.durations = cfg.Registry.Histogram(
			"fitment_pipeline_duration_seconds",
			"End-to-end webhook processing time.",
			nil,
		)
	}
	return p, nil
}

// state threads one request through the stages.
type state struct {
	event domain.InboundEvent
	ex    extract.Result
	match catalog.Match
	tags  []string
}

// Process implements webhook.Processor. Authentication happens before
// anything else; an unauthenticated request reads no catalog state and
// causes no side effects.
func (p *Pipeline) Process(ctx context.Context, body []byte, signature string) (webhook.Result, error) {
	start := time.Now()

	if !webhook.VerifySignature(p.cfg.Secret, signature, body) {
		p.countEvent("unauthorized")
		return webhook.Result{}, domain.ErrAuthentication
	}

	run := fn.Then(
		fn.Then(
			fn.Then(
				fn.Traced("parse", p.parse(body)),
				fn.Traced("extract", p.extract),
			),
			fn.Traced("match", p.matchCatalog),
		),
		fn.Then(
			fn.Traced("derive", p.derive),
			fn.Traced("dispatch", p.dispatch),
		),
	)

	st, err := run(ctx, &state{}).Unwrap()
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMalformedPayload):
			p.countEvent("malformed")
		case errors.Is(err, domain.ErrDispatchFailed):
			p.countEvent("dispatch_failed")
		default:
			p.countEvent("error")
		}
		return webhook.Result{}, err
	}

	p.publish(ctx, st)
	p.countEvent("success")
	if p.durations != nil {
		p.durations.Since(start)
	}
	return webhook.Result{ProductID: st.event.ProductID, Tags: st.tags}, nil
}

// parse decodes the authenticated body. A payload without a product
// identifier is malformed; a missing title is fine and extracts to nothing.
func (p *Pipeline) parse(body []byte) fn.Stage[*state, *state] {
	return func(_ context.Context, st *state) fn.Result[*state] {
		if err := json.Unmarshal(body, &st.event); err != nil {
			return fn.Err[*state](fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err))
		}
		if st.event.ProductID == "" {
			return fn.Err[*state](fmt.Errorf("%w: missing product id", domain.ErrMalformedPayload))
		}
		return fn.Ok(st)
	}
}

func (p *Pipeline) extract(_ context.Context, st *state) fn.Result[*state] {
	st.ex = p.cfg.Extractor.Current().Extract(st.event.Title)
	return fn.Ok(st)
}

// matchCatalog degrades a failing catalog to OutcomeNotFound: the product
// still gets extraction-derived tags, and the fault is logged rather than
// bounced back to the sender.
func (p *Pipeline) matchCatalog(ctx context.Context, st *state) fn.Result[*state] {
	m, err := p.cfg.Matcher.Match(ctx, st.ex)
	if err != nil {
		p.log.Warn("catalog unavailable, degrading to extraction tags",
			"product_id", st.event.ProductID,
			"error", errors.Join(domain.ErrCatalogUnavailable, err),
		)
	}
	st.match = m
	p.countMatch(m.Outcome)
	return fn.Ok(st)
}

func (p *Pipeline) derive(_ context.Context, st *state) fn.Result[*state] {
	st.tags = tags.Derive(st.match, st.ex)
	return fn.Ok(st)
}

// dispatch pushes the tag set to the commerce platform: one ApplyTags call,
// then per composite tag an EnsureCollection followed by
// AddProductToCollection. Ordering holds within each tag; distinct tags
// reconcile concurrently. An empty tag set is a successful no-op.
func (p *Pipeline) dispatch(ctx context.Context, st *state) fn.Result[*state] {
	if p.cfg.Dispatch == nil || len(st.tags) == 0 {
		return fn.Ok(st)
	}

	if err := p.cfg.Dispatch.ApplyTags(ctx, st.event.ProductID, st.tags); err != nil {
		derr := &domain.DispatchError{Op: "apply_tags", Err: err}
		return fn.Err[*state](errors.Join(domain.ErrDispatchFailed, derr))
	}

	composites := tags.Composites(st.tags)
	results := fn.ParMapResult(composites, p.cfg.Workers, func(tag string) fn.Result[struct{}] {
		collID, err := p.cfg.Dispatch.EnsureCollection(ctx, tag)
		if err != nil {
			return fn.Err[struct{}](&domain.DispatchError{Op: "ensure_collection", Tag: tag, Err: err})
		}
		if err := p.cfg.Dispatch.AddProductToCollection(ctx, collID, st.event.ProductID); err != nil {
			return fn.Err[struct{}](&domain.DispatchError{Op: "add_product", Tag: tag, Err: err})
		}
		return fn.Ok(struct{}{})
	})
	if errs := fn.Errors(results); len(errs) > 0 {
		return fn.Err[*state](errors.Join(append([]error{domain.ErrDispatchFailed}, errs...)...))
	}
	return fn.Ok(st)
}

// publish emits the tagged event. Best effort: a NATS outage never fails a
// request that already dispatched successfully.
func (p *Pipeline) publish(ctx context.Context, st *state) {
	if p.cfg.NATS == nil || len(st.tags) == 0 {
		return
	}
	ev := domain.TaggedEvent{
		ProductID: string(st.event.ProductID),
		Tags:      st.tags,
		Matched:   st.match.Outcome == catalog.OutcomeFound,
		TaggedAt:  time.Now().UTC(),
	}
	if err := natsutil.Publish(ctx, p.cfg.NATS, SubjectProductTagged, ev); err != nil {
		p.log.Warn("tagged event publish failed",
			"product_id", st.event.ProductID,
			"error", err,
		)
	}
}

func (p *Pipeline) countEvent(outcome string) {
	if p.cfg.Registry == nil {
		return
	}
	p.cfg.Registry.Counter(
		metrics.WithLabels("fitment_events_total", "outcome", outcome),
		"Webhook events by terminal outcome.",
	).Inc()
}

func (p *Pipeline) countMatch(o catalog.Outcome) {
	if p.cfg.Registry == nil {
		return
	}
	p.cfg.Registry.Counter(
		metrics.WithLabels("fitment_match_total", "outcome", o.String()),
		"Catalog match attempts by outcome.",
	).Inc()
}

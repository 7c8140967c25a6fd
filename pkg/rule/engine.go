package rule

import (
	"context"

	"github.com/recoverykit/journey-engine/pkg/metrics"
	"github.com/recoverykit/journey-engine/pkg/signal"
	"github.com/sirupsen/logrus"
)

// Engine evaluates activity signals against a registry.
type Engine struct {
	registry *Registry
}

func NewEngine(registry *Registry) *Engine {
	return &Engine{registry: registry}
}

// Evaluate runs sig through the rules listening to its type and returns the
// triggers in evaluation order, so a day completion always precedes the
// celebrations of the same activity. A rule that cannot read the signal is
// logged and skipped. The only error is ctx being done between rules.
func (e *Engine) Evaluate(ctx context.Context, sig signal.Signal) ([]*Trigger, error) {
	if sig == nil {
		return nil, nil
	}

	log := logrus.WithFields(logrus.Fields{
		"userId":     sig.UserID(),
		"signalType": sig.Type(),
	})

	rules := e.registry.For(sig.Type())
	if len(rules) == 0 {
		log.Debug("no rules listen to signal")
		return nil, nil
	}

	var triggers []*Trigger
	for _, r := range rules {
		if err := ctx.Err(); err != nil {
			return triggers, err
		}

		trigger, err := r.Evaluate(ctx, sig)
		if err != nil {
			log.WithField("ruleId", r.ID()).Errorf("rule evaluation failed: %v", err)
			continue
		}
		if trigger == nil {
			continue
		}

		log.WithFields(logrus.Fields{
			"ruleId": r.ID(),
			"day":    trigger.Day,
		}).Infof("rule triggered: %s", trigger.Reason)
		metrics.RuleTriggersTotal.WithLabelValues(r.ID(), r.Config().Type).Inc()
		triggers = append(triggers, trigger)
	}
	return triggers, nil
}

// Registry returns the rules this engine evaluates.
func (e *Engine) Registry() *Registry {
	return e.registry
}

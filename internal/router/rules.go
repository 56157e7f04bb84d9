package router

import (
	"context"
	"fmt"

	"github.com/aescanero/gerrit-link-router/internal/eval/cel"
	"go.uber.org/zap"
)

// routeRules rewrites an unresolved token with the first matching rule.
// Rule targets are resolved by validateConfig, so a match always yields a
// screen; a nil decision means no rule matched
func (r *Router) routeRules(ctx context.Context, req *Request) (*Decision, error) {
	vars := cel.Vars(req.Token, req.Session)

	for i, rule := range r.config.Rules {
		r.logger.Debug("evaluating rule",
			zap.Int("rule_index", i),
			zap.String("condition", rule.Condition),
		)

		matched, err := r.celEvaluator.Match(ctx, rule.Condition, vars)
		if err != nil {
			r.logger.Warn("rule evaluation error",
				zap.Int("rule_index", i),
				zap.String("condition", rule.Condition),
				zap.Error(err),
			)
			continue
		}
		if !matched {
			continue
		}

		r.logger.Debug("rule matched",
			zap.Int("rule_index", i),
			zap.String("condition", rule.Condition),
			zap.String("target", rule.Target),
		)

		// Rewrites are applied once; a target is never fed back into the rules
		screen := r.targets[i]
		return r.decide(req, screen, PathRewrite,
			fmt.Sprintf("matched rule %d: %s", i, rule.Condition)), nil
	}

	return nil, nil
}

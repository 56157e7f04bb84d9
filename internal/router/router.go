package router

import (
	"context"
	"fmt"

	"github.com/aescanero/gerrit-link-router/internal/changes"
	"github.com/aescanero/gerrit-link-router/internal/eval/cel"
	"github.com/aescanero/gerrit-link-router/internal/eval/template"
	"github.com/aescanero/gerrit-link-router/internal/link"
	"go.uber.org/zap"
)

// Policy decides what happens to a token that names no screen
type Policy string

const (
	// PolicyNotice leaves the token unresolved and renders a notice for the user
	PolicyNotice Policy = "notice"

	// PolicyRedirect sends the user to a configured default screen
	PolicyRedirect Policy = "redirect"
)

// Paths a decision can take
const (
	PathDirect   = "direct"
	PathRewrite  = "rewrite"
	PathRedirect = "redirect"
	PathNotice   = "notice"
)

// Config configures token routing
type Config struct {
	Rules          []Rule `json:"rules,omitempty"`
	NotFound       Policy `json:"not_found"`
	RedirectToken  string `json:"redirect_token,omitempty"`
	NoticeTemplate string `json:"notice_template,omitempty"`
}

// Rule rewrites an unresolved token to Target when Condition holds
type Rule struct {
	Condition string `json:"condition"`
	Target    string `json:"target"`
}

// Request is a single history change to route
type Request struct {
	SessionID string                 `json:"session_id"`
	Token     string                 `json:"token"`
	Session   map[string]interface{} `json:"session,omitempty"`
}

// Decision is the outcome of routing a request
type Decision struct {
	SessionID string      `json:"session_id"`
	Token     string      `json:"token"`
	Screen    link.Screen `json:"screen"`
	Target    string      `json:"target,omitempty"`
	Endpoint  string      `json:"endpoint,omitempty"`
	PathTaken string      `json:"path_taken"`
	Reasoning string      `json:"reasoning"`
	Notice    string      `json:"notice,omitempty"`
}

// Router maps history tokens to screens
type Router struct {
	celEvaluator   *cel.Evaluator
	templateEngine *template.Engine
	services       *changes.Services
	config         Config
	redirect       link.Screen
	targets        []link.Screen // resolved rule targets, by rule index
	logger         *zap.Logger
}

// NewRouter creates a new router
func NewRouter(services *changes.Services, cfg Config, logger *zap.Logger) (*Router, error) {
	if services == nil {
		return nil, fmt.Errorf("services are required")
	}

	r := &Router{
		celEvaluator:   cel.NewEvaluator(),
		templateEngine: template.NewEngine(),
		services:       services,
		config:         cfg,
		logger:         logger,
	}

	if r.config.NotFound == "" {
		r.config.NotFound = PolicyNotice
	}
	if r.config.NoticeTemplate == "" {
		r.config.NoticeTemplate = template.DefaultNotice
	}

	if err := r.validateConfig(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return r, nil
}

// Route decides which screen req.Token identifies.
// A malformed change id is returned as an error wrapping
// link.ErrInvalidChangeID; unknown tokens are handled by the not-found policy
func (r *Router) Route(ctx context.Context, req *Request) (*Decision, error) {
	r.logger.Debug("routing request",
		zap.String("session_id", req.SessionID),
		zap.String("token", req.Token),
	)

	screen, err := link.Select(req.Token)
	if err != nil {
		r.logger.Warn("routing failed",
			zap.String("session_id", req.SessionID),
			zap.String("token", req.Token),
			zap.Error(err),
		)
		return nil, fmt.Errorf("route %q: %w", req.Token, err)
	}

	var result *Decision
	switch {
	case screen.Resolved():
		result = r.decide(req, screen, PathDirect, "matched token")

	case req.Token != "":
		result, err = r.routeRules(ctx, req)
		if err != nil {
			return nil, err
		}
	}

	if result == nil {
		result, err = r.notFound(req)
		if err != nil {
			return nil, err
		}
	}

	r.logger.Info("routing decision",
		zap.String("session_id", req.SessionID),
		zap.String("token", req.Token),
		zap.Stringer("screen", result.Screen),
		zap.String("path", result.PathTaken),
		zap.String("reasoning", result.Reasoning),
	)

	return result, nil
}

// decide builds a decision for a resolved screen
func (r *Router) decide(req *Request, screen link.Screen, path, reasoning string) *Decision {
	return &Decision{
		SessionID: req.SessionID,
		Token:     req.Token,
		Screen:    screen,
		Target:    screen.Token(),
		Endpoint:  r.services.ChangeList,
		PathTaken: path,
		Reasoning: reasoning,
	}
}

// notFound applies the not-found policy to an unresolved request
func (r *Router) notFound(req *Request) (*Decision, error) {
	if r.config.NotFound == PolicyRedirect {
		return r.decide(req, r.redirect, PathRedirect,
			fmt.Sprintf("no screen for token, redirected to %s", r.config.RedirectToken)), nil
	}

	notice, err := r.templateEngine.Render(r.config.NoticeTemplate, map[string]interface{}{
		"token":      req.Token,
		"session_id": req.SessionID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render notice: %w", err)
	}

	return &Decision{
		SessionID: req.SessionID,
		Token:     req.Token,
		PathTaken: PathNotice,
		Reasoning: "no screen for token",
		Notice:    notice,
	}, nil
}

// validateConfig validates the routing configuration
func (r *Router) validateConfig() error {
	for i, rule := range r.config.Rules {
		if rule.Condition == "" {
			return fmt.Errorf("rule %d: condition is required", i)
		}
		if rule.Target == "" {
			return fmt.Errorf("rule %d: target is required", i)
		}
		if err := r.celEvaluator.ValidateExpression(rule.Condition); err != nil {
			return fmt.Errorf("rule %d: %w", i, err)
		}
		screen, err := link.Select(rule.Target)
		if err != nil {
			return fmt.Errorf("rule %d: target: %w", i, err)
		}
		if !screen.Resolved() {
			return fmt.Errorf("rule %d: target %q names no screen", i, rule.Target)
		}
		r.targets = append(r.targets, screen)
	}

	switch r.config.NotFound {
	case PolicyNotice:
		if err := r.templateEngine.ValidateTemplate(r.config.NoticeTemplate); err != nil {
			return fmt.Errorf("notice template: %w", err)
		}

	case PolicyRedirect:
		if r.config.RedirectToken == "" {
			return fmt.Errorf("redirect policy requires a redirect token")
		}
		screen, err := link.Select(r.config.RedirectToken)
		if err != nil {
			return fmt.Errorf("redirect token: %w", err)
		}
		if !screen.Resolved() {
			return fmt.Errorf("redirect token %q names no screen", r.config.RedirectToken)
		}
		r.redirect = screen

	default:
		return fmt.Errorf("unknown not-found policy: %s", r.config.NotFound)
	}

	return nil
}

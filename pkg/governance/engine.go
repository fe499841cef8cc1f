package governance

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"caretrust-hq/minerva/pkg/action"
	"caretrust-hq/minerva/pkg/audit"
	"caretrust-hq/minerva/pkg/bias"
	"caretrust-hq/minerva/pkg/config"
	"caretrust-hq/minerva/pkg/fallback"
	"caretrust-hq/minerva/pkg/rbac"
	"caretrust-hq/minerva/pkg/riskgate"
	"caretrust-hq/minerva/pkg/telemetry/metrics"
)

// Dependencies collects the managers the engine composes. RBAC, Gate,
// Audit, and Fallback are required; Bias and Metrics are optional.
type Dependencies struct {
	RBAC     *rbac.Manager
	Gate     *riskgate.Manager
	Audit    *audit.Manager
	Fallback *fallback.Manager
	Bias     *bias.Monitor
	Metrics  *metrics.Collector
}

// Engine runs the governance pipeline: permission checks, risk gating,
// fallback escalation, handler dispatch, and audit recording. All
// methods are safe for concurrent use. None of the engine's internal
// locks are held across handler or hook execution.
type Engine struct {
	logger *slog.Logger
	config *config.Manager

	rbac     *rbac.Manager
	gate     *riskgate.Manager
	audit    *audit.Manager
	fallback *fallback.Manager
	bias     *bias.Monitor
	metrics  *metrics.Collector

	mu        sync.RWMutex
	handlers  map[handlerKey]Handler
	preHooks  []Hook
	postHooks []Hook
}

// NewEngine creates a governance engine and registers its audit-recording
// escalation callback on the fallback manager.
func NewEngine(cfg *config.Manager, deps Dependencies, logger *slog.Logger) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config manager is required")
	}
	if deps.RBAC == nil || deps.Gate == nil || deps.Audit == nil || deps.Fallback == nil {
		return nil, fmt.Errorf("rbac, gate, audit, and fallback managers are required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		logger:   logger.With("component", "governance"),
		config:   cfg,
		rbac:     deps.RBAC,
		gate:     deps.Gate,
		audit:    deps.Audit,
		fallback: deps.Fallback,
		bias:     deps.Bias,
		metrics:  deps.Metrics,
		handlers: make(map[handlerKey]Handler),
	}

	e.fallback.RegisterCallback(e.recordEscalation)
	return e, nil
}

// recordEscalation mirrors every fallback escalation into the audit
// trail. Registered as a fallback callback at construction so escalations
// raised outside the pipeline are recorded too.
func (e *Engine) recordEscalation(esc fallback.Escalation) error {
	_, err := e.audit.LogEscalation(context.Background(), audit.EscalationLog{
		ID:          esc.ID,
		SourceAgent: esc.AgentType,
		ActionID:    esc.ActionID,
		Reason:      esc.Reason,
		Confidence:  esc.Confidence,
		RiskLevel:   esc.RiskLevel,
	})
	if err != nil {
		return err
	}
	if e.metrics != nil {
		e.metrics.RecordEscalation(string(esc.Trigger))
	}
	return nil
}

// RegisterHandler binds a handler to an (agent type, action type) pair,
// replacing any previous binding.
func (e *Engine) RegisterHandler(agentType action.AgentType, actionType string, h Handler) error {
	if h == nil {
		return fmt.Errorf("handler cannot be nil")
	}
	if actionType == "" {
		return fmt.Errorf("action type is required")
	}
	if _, err := action.ParseAgentType(string(agentType)); err != nil {
		return err
	}

	e.mu.Lock()
	e.handlers[handlerKey{agentType, actionType}] = h
	e.mu.Unlock()

	e.logger.Info("Handler registered",
		"agent_type", string(agentType),
		"action_type", actionType,
	)
	return nil
}

// HasHandler reports whether a handler is bound for the pair.
func (e *Engine) HasHandler(agentType action.AgentType, actionType string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.handlers[handlerKey{agentType, actionType}]
	return ok
}

// RegisterPreHook appends a hook run before handler dispatch.
func (e *Engine) RegisterPreHook(h Hook) {
	e.mu.Lock()
	e.preHooks = append(e.preHooks, h)
	e.mu.Unlock()
}

// RegisterPostHook appends a hook run after handler dispatch.
func (e *Engine) RegisterPostHook(h Hook) {
	e.mu.Lock()
	e.postHooks = append(e.postHooks, h)
	e.mu.Unlock()
}

// handler returns the registered handler for the pair, or nil.
func (e *Engine) handler(agentType action.AgentType, actionType string) Handler {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.handlers[handlerKey{agentType, actionType}]
}

// hooks returns snapshots of both hook lists so invocation never holds
// the registry lock.
func (e *Engine) hooks() (pre, post []Hook) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	pre = append([]Hook(nil), e.preHooks...)
	post = append([]Hook(nil), e.postHooks...)
	return pre, post
}

// runHooks invokes each hook in order, isolating panics.
func (e *Engine) runHooks(ctx context.Context, phase string, hooks []Hook, a *action.Action) {
	for i, h := range hooks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					e.logger.Error("Hook panicked",
						"phase", phase,
						"index", i,
						"action_id", a.ID,
						"panic", fmt.Sprint(r),
					)
				}
			}()
			h(ctx, a)
		}()
	}
}

// invokeHandler runs a handler with panic isolation, normalizing its
// outcome into a Result.
func (e *Engine) invokeHandler(ctx context.Context, h Handler, a *action.Action) (result *action.Result) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Handler panicked",
				"action_id", a.ID,
				"action_type", a.ActionType,
				"panic", fmt.Sprint(r),
			)
			result = action.Fail(fmt.Sprintf("handler panic: %v", r))
		}
	}()

	res, err := h(ctx, a)
	if err != nil {
		return action.Fail(err.Error())
	}
	if res == nil {
		return action.OK(nil)
	}
	return res
}

// Bias returns the bias monitor, or nil when monitoring is disabled.
// Handlers use it to record demographic outcomes.
func (e *Engine) Bias() *bias.Monitor {
	if e.bias == nil {
		return nil
	}
	if !e.config.Current().Governance.BiasMonitoringEnabled {
		return nil
	}
	return e.bias
}

// Audit returns the audit manager for read-side consumers.
func (e *Engine) Audit() *audit.Manager { return e.audit }

// Gate returns the risk gate manager.
func (e *Engine) Gate() *riskgate.Manager { return e.gate }

// Fallback returns the fallback manager.
func (e *Engine) Fallback() *fallback.Manager { return e.fallback }

// RBAC returns the access control manager.
func (e *Engine) RBAC() *rbac.Manager { return e.rbac }

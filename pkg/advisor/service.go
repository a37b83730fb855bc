package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/klokku/spendwise/pkg/budget"
	"github.com/klokku/spendwise/pkg/conversation"
	"github.com/klokku/spendwise/pkg/session"
	log "github.com/sirupsen/logrus"
)

var (
	ErrMissingApiKey   = errors.New("no API key available")
	ErrAdvisorDisabled = errors.New("AI advisor is disabled")
	ErrEmptyLedger     = errors.New("no expenses to analyze")
	ErrEmptyMessage    = errors.New("empty chat message")
)

type Config struct {
	// ApiKey is used when the session has no key of its own.
	ApiKey            string
	SystemInstruction string
	Models            []string
	Timeout           time.Duration
}

type KeySource string

const (
	KeySourceSession KeySource = "session"
	KeySourceConfig  KeySource = "config"
	KeySourceNone    KeySource = "none"
)

type Service interface {
	Analyze(ctx context.Context) (Outcome, error)
	Chat(ctx context.Context, message string) (Outcome, error)
	History(ctx context.Context) ([]conversation.Turn, error)
	SetApiKey(ctx context.Context, key string) error
	ClearApiKey(ctx context.Context) error
	KeySource(ctx context.Context) (KeySource, error)
	Models() []string
	Enabled() bool
}

type ServiceImpl struct {
	apiKey   string
	factory  InvokerFactory
	strategy *Strategy
	prompts  *PromptBuilder
	disabled error
}

// NewService wires the advisor. When the configuration cannot produce a working provider the
// service is still returned, but every AI operation fails with ErrAdvisorDisabled.
func NewService(cfg Config, factory InvokerFactory, prompts *PromptBuilder) *ServiceImpl {
	strategy, err := NewStrategy(cfg.Models, cfg.Timeout)
	if err == nil && factory == nil {
		err = errors.New("no AI provider configured")
	}
	if err != nil {
		log.Errorf("AI advisor disabled: %v", err)
		return &ServiceImpl{disabled: err}
	}
	return &ServiceImpl{
		apiKey:   strings.TrimSpace(cfg.ApiKey),
		factory:  factory,
		strategy: strategy,
		prompts:  prompts,
	}
}

// NewDisabledService returns a service that refuses every AI operation, used when the
// provider could not be initialised at startup.
func NewDisabledService(reason error) *ServiceImpl {
	return &ServiceImpl{disabled: reason}
}

func (s *ServiceImpl) Enabled() bool {
	return s.disabled == nil
}

func (s *ServiceImpl) Models() []string {
	if s.strategy == nil {
		return []string{}
	}
	return s.strategy.Models()
}

func (s *ServiceImpl) Analyze(ctx context.Context) (Outcome, error) {
	state, err := s.currentSession(ctx)
	if err != nil {
		return Outcome{}, err
	}
	records := state.Ledger().Snapshot()
	if len(records) == 0 {
		return Outcome{}, ErrEmptyLedger
	}
	invoker, err := s.invokerFor(ctx, state)
	if err != nil {
		return Outcome{}, err
	}

	prompt, err := s.prompts.Analysis(records, budget.Summarize(state.BudgetGoal(), records))
	if err != nil {
		return Outcome{}, err
	}
	outcome := s.strategy.Run(ctx, invoker, prompt)
	log.Infof("analysis for session %s finished: %s %s", state.Id, outcome.Kind, outcome.Model)
	return outcome, nil
}

// Chat sends message together with the whole conversation so far. The user turn is kept
// even when no model answers; the assistant turn is only recorded on success.
func (s *ServiceImpl) Chat(ctx context.Context, message string) (Outcome, error) {
	state, err := s.currentSession(ctx)
	if err != nil {
		return Outcome{}, err
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return Outcome{}, ErrEmptyMessage
	}
	invoker, err := s.invokerFor(ctx, state)
	if err != nil {
		return Outcome{}, err
	}

	history := state.Transcript().Turns()
	if err := state.Transcript().Append(conversation.RoleUser, message); err != nil {
		return Outcome{}, err
	}

	records := state.Ledger().Snapshot()
	prompt, err := s.prompts.Chat(records, budget.Summarize(state.BudgetGoal(), records), history, message)
	if err != nil {
		return Outcome{}, err
	}
	outcome := s.strategy.Run(ctx, invoker, prompt)
	if outcome.Kind == OutcomeSuccess {
		if err := state.Transcript().Append(conversation.RoleAssistant, outcome.Text); err != nil {
			return Outcome{}, err
		}
	}
	return outcome, nil
}

func (s *ServiceImpl) History(ctx context.Context) ([]conversation.Turn, error) {
	state, err := session.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current session: %w", err)
	}
	return state.Transcript().Turns(), nil
}

// SetApiKey stores a key for the current session only. It is never persisted.
func (s *ServiceImpl) SetApiKey(ctx context.Context, key string) error {
	state, err := session.Current(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current session: %w", err)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrMissingApiKey
	}
	state.SetApiKey(key)
	log.Debugf("API key set for session %s", state.Id)
	return nil
}

func (s *ServiceImpl) ClearApiKey(ctx context.Context) error {
	state, err := session.Current(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current session: %w", err)
	}
	state.SetApiKey("")
	return nil
}

func (s *ServiceImpl) KeySource(ctx context.Context) (KeySource, error) {
	state, err := session.Current(ctx)
	if err != nil {
		return KeySourceNone, fmt.Errorf("failed to get current session: %w", err)
	}
	switch {
	case state.ApiKey() != "":
		return KeySourceSession, nil
	case s.apiKey != "":
		return KeySourceConfig, nil
	default:
		return KeySourceNone, nil
	}
}

func (s *ServiceImpl) currentSession(ctx context.Context) (*session.State, error) {
	if s.disabled != nil {
		return nil, fmt.Errorf("%w: %v", ErrAdvisorDisabled, s.disabled)
	}
	state, err := session.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current session: %w", err)
	}
	return state, nil
}

func (s *ServiceImpl) invokerFor(ctx context.Context, state *session.State) (Invoker, error) {
	key := state.ApiKey()
	if key == "" {
		key = s.apiKey
	}
	if key == "" {
		return nil, ErrMissingApiKey
	}
	invoker, err := s.factory.ForKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize AI client: %w", err)
	}
	return invoker, nil
}

package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// ExhaustedMessage is shown when every candidate model was unavailable.
const ExhaustedMessage = "All AI models are currently unavailable. Please wait 60 seconds and try again."

var (
	ErrNoModels      = errors.New("no candidate models configured")
	ErrEmptyResponse = errors.New("empty response")
)

type OutcomeKind string

const (
	OutcomeSuccess   OutcomeKind = "success"
	OutcomeFatal     OutcomeKind = "fatal"
	OutcomeExhausted OutcomeKind = "exhausted"
)

type Attempt struct {
	Model string
	Class ErrorClass
	Err   error
}

// Outcome is the result of one run over the candidate models. Text and Model are set for
// OutcomeSuccess, Err and Model for OutcomeFatal.
type Outcome struct {
	Kind     OutcomeKind
	Text     string
	Model    string
	Err      error
	Warnings []string
	Attempts []Attempt
}

// Strategy tries the candidate models in order until one answers. Models that do not exist or
// are rate limited are skipped; any other failure ends the run.
type Strategy struct {
	models  []string
	timeout time.Duration
}

func NewStrategy(models []string, timeout time.Duration) (*Strategy, error) {
	if len(models) == 0 {
		return nil, ErrNoModels
	}
	candidates := make([]string, len(models))
	copy(candidates, models)
	return &Strategy{models: candidates, timeout: timeout}, nil
}

func (s *Strategy) Models() []string {
	out := make([]string, len(s.models))
	copy(out, s.models)
	return out
}

func (s *Strategy) Run(ctx context.Context, invoker Invoker, prompt Prompt) Outcome {
	outcome := Outcome{}
	for _, model := range s.models {
		if err := ctx.Err(); err != nil {
			// Model names the last candidate actually invoked, if any.
			outcome.Kind = OutcomeFatal
			if n := len(outcome.Attempts); n > 0 {
				outcome.Model = outcome.Attempts[n-1].Model
			}
			outcome.Err = err
			return outcome
		}

		text, err := s.invoke(ctx, invoker, model, prompt)
		if err == nil && strings.TrimSpace(text) == "" {
			err = &InvocationError{Model: model, Class: ClassOther, Err: ErrEmptyResponse}
		}
		if err == nil {
			outcome.Attempts = append(outcome.Attempts, Attempt{Model: model})
			outcome.Kind = OutcomeSuccess
			outcome.Text = text
			outcome.Model = model
			return outcome
		}

		class := classOf(err)
		outcome.Attempts = append(outcome.Attempts, Attempt{Model: model, Class: class, Err: err})
		switch class {
		case ClassNotFound:
			log.Debugf("model %s not found, trying next", model)
		case ClassRateLimited:
			warning := fmt.Sprintf("Model %s is busy (Quota Hit). Trying next...", model)
			log.Warn(warning)
			outcome.Warnings = append(outcome.Warnings, warning)
		default:
			log.Errorf("unexpected error with %s: %v", model, err)
			outcome.Kind = OutcomeFatal
			outcome.Model = model
			outcome.Err = err
			return outcome
		}
	}

	outcome.Kind = OutcomeExhausted
	return outcome
}

func (s *Strategy) invoke(ctx context.Context, invoker Invoker, model string, prompt Prompt) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return invoker.Invoke(ctx, model, prompt.Text, prompt.SystemInstruction)
}

func classOf(err error) ErrorClass {
	var invocationErr *InvocationError
	if errors.As(err, &invocationErr) {
		return invocationErr.Class
	}
	return ClassOther
}

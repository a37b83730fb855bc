package advisor

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/klokku/spendwise/internal/rest"
	"github.com/klokku/spendwise/pkg/conversation"
	"github.com/klokku/spendwise/pkg/session"
	log "github.com/sirupsen/logrus"
)

const (
	StatusSuccess    = "success"
	StatusFatal      = "fatal"
	StatusExhausted  = "exhausted"
	StatusMissingKey = "missing_key"
	StatusIgnored    = "ignored"
)

const missingKeyMessage = "Please provide a Gemini API key to use the AI advisor."

type OutcomeDTO struct {
	Status   string   `json:"status"`
	Headline string   `json:"headline,omitempty"`
	Message  string   `json:"message"`
	Model    string   `json:"model,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

type TurnDTO struct {
	Role    conversation.Role `json:"role"`
	Content string            `json:"content"`
}

type ChatRequestDTO struct {
	Message string `json:"message"`
}

type ChatResponseDTO struct {
	Outcome OutcomeDTO `json:"outcome"`
	Turns   []TurnDTO  `json:"turns"`
}

type ApiKeyDTO struct {
	ApiKey string `json:"apiKey"`
}

type StatusDTO struct {
	Enabled   bool      `json:"enabled"`
	KeySource KeySource `json:"keySource"`
	Models    []string  `json:"models"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Analyze godoc
// @Summary Analyze expenses with AI
// @Description Asks the first available model for three saving tips on the current expenses.
// @Tags Advisor
// @Produce json
// @Success 200 {object} OutcomeDTO
// @Failure 400 {object} rest.ErrorResponse
// @Failure 403 {object} rest.ErrorResponse
// @Failure 503 {object} rest.ErrorResponse
// @Router /api/advisor/analysis [post]
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	log.Debug("Analyzing expenses")
	w.Header().Set("Content-Type", "application/json")

	outcome, err := h.service.Analyze(r.Context())
	if err != nil {
		if errors.Is(err, ErrMissingApiKey) {
			rest.WriteJSON(w, http.StatusOK, OutcomeDTO{Status: StatusMissingKey, Message: missingKeyMessage})
			return
		}
		writeServiceError(w, err)
		return
	}
	dto := OutcomeToDTO(outcome)
	if outcome.Kind == OutcomeSuccess {
		dto.Headline = fmt.Sprintf("Analysis Complete (using %s)", outcome.Model)
	}
	rest.WriteJSON(w, http.StatusOK, dto)
}

// Chat godoc
// @Summary Send a chat message to the advisor
// @Tags Advisor
// @Accept json
// @Produce json
// @Param message body ChatRequestDTO true "Message"
// @Success 200 {object} ChatResponseDTO
// @Failure 400 {object} rest.ErrorResponse
// @Failure 403 {object} rest.ErrorResponse
// @Failure 503 {object} rest.ErrorResponse
// @Router /api/advisor/chat [post]
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	log.Debug("Sending chat message")
	w.Header().Set("Content-Type", "application/json")

	var request ChatRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	outcome, err := h.service.Chat(r.Context(), request.Message)
	var dto OutcomeDTO
	switch {
	case errors.Is(err, ErrMissingApiKey):
		dto = OutcomeDTO{Status: StatusMissingKey, Message: missingKeyMessage}
	case errors.Is(err, ErrEmptyMessage):
		dto = OutcomeDTO{Status: StatusIgnored}
	case err != nil:
		writeServiceError(w, err)
		return
	default:
		dto = OutcomeToDTO(outcome)
	}

	turns, err := h.service.History(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, ChatResponseDTO{Outcome: dto, Turns: TurnsToDTO(turns)})
}

// GetHistory godoc
// @Summary Get the chat transcript
// @Tags Advisor
// @Produce json
// @Success 200 {array} TurnDTO
// @Failure 403 {object} rest.ErrorResponse
// @Router /api/advisor/chat [get]
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	log.Trace("Getting chat history")
	w.Header().Set("Content-Type", "application/json")

	turns, err := h.service.History(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, TurnsToDTO(turns))
}

// SetApiKey godoc
// @Summary Use an API key for this session
// @Description The key is kept in memory for the current session only and is never returned.
// @Tags Advisor
// @Accept json
// @Produce json
// @Param key body ApiKeyDTO true "API key"
// @Success 200 {object} StatusDTO
// @Failure 400 {object} rest.ErrorResponse
// @Failure 403 {object} rest.ErrorResponse
// @Router /api/advisor/key [put]
func (h *Handler) SetApiKey(w http.ResponseWriter, r *http.Request) {
	log.Debug("Setting session API key")
	w.Header().Set("Content-Type", "application/json")

	var request ApiKeyDTO
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if err := h.service.SetApiKey(r.Context(), request.ApiKey); err != nil {
		if errors.Is(err, ErrMissingApiKey) {
			rest.WriteError(w, http.StatusBadRequest, "API key must not be empty", "")
			return
		}
		writeServiceError(w, err)
		return
	}
	h.writeStatus(w, r)
}

// ClearApiKey godoc
// @Summary Forget the session API key
// @Tags Advisor
// @Produce json
// @Success 200 {object} StatusDTO
// @Failure 403 {object} rest.ErrorResponse
// @Router /api/advisor/key [delete]
func (h *Handler) ClearApiKey(w http.ResponseWriter, r *http.Request) {
	log.Debug("Clearing session API key")
	w.Header().Set("Content-Type", "application/json")

	if err := h.service.ClearApiKey(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	h.writeStatus(w, r)
}

// GetStatus godoc
// @Summary Advisor availability
// @Description Whether the advisor is enabled, where the API key comes from and the candidate models in order.
// @Tags Advisor
// @Produce json
// @Success 200 {object} StatusDTO
// @Failure 403 {object} rest.ErrorResponse
// @Router /api/advisor/models [get]
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	log.Trace("Getting advisor status")
	w.Header().Set("Content-Type", "application/json")
	h.writeStatus(w, r)
}

func (h *Handler) writeStatus(w http.ResponseWriter, r *http.Request) {
	source, err := h.service.KeySource(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, StatusDTO{
		Enabled:   h.service.Enabled(),
		KeySource: source,
		Models:    h.service.Models(),
	})
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNoSession):
		rest.WriteError(w, http.StatusForbidden, "No active session", err.Error())
	case errors.Is(err, ErrAdvisorDisabled):
		rest.WriteError(w, http.StatusServiceUnavailable, "AI advisor is unavailable", err.Error())
	case errors.Is(err, ErrEmptyLedger):
		rest.WriteError(w, http.StatusBadRequest, "Add an expense to get started!", err.Error())
	default:
		log.Errorf("advisor request failed: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Internal server error", err.Error())
	}
}

func OutcomeToDTO(outcome Outcome) OutcomeDTO {
	dto := OutcomeDTO{
		Model:    outcome.Model,
		Warnings: outcome.Warnings,
	}
	switch outcome.Kind {
	case OutcomeSuccess:
		dto.Status = StatusSuccess
		dto.Message = outcome.Text
	case OutcomeFatal:
		dto.Status = StatusFatal
		if outcome.Model == "" {
			dto.Message = fmt.Sprintf("Unexpected error: %v", errorDetail(outcome.Err))
		} else {
			dto.Message = fmt.Sprintf("Unexpected error with %s: %v", outcome.Model, errorDetail(outcome.Err))
		}
	default:
		dto.Status = StatusExhausted
		dto.Message = ExhaustedMessage
	}
	return dto
}

func TurnsToDTO(turns []conversation.Turn) []TurnDTO {
	dtos := make([]TurnDTO, 0, len(turns))
	for _, turn := range turns {
		dtos = append(dtos, TurnDTO{Role: turn.Role, Content: turn.Content})
	}
	return dtos
}

// errorDetail drops the model prefix of an InvocationError, the message already names the model.
func errorDetail(err error) error {
	var invocationErr *InvocationError
	if errors.As(err, &invocationErr) && invocationErr.Err != nil {
		return invocationErr.Err
	}
	return err
}

package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/klokku/spendwise/internal/config"
	"github.com/klokku/spendwise/pkg/advisor"
	log "github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

// Factory creates Gemini clients for the keys the advisor resolves per session.
type Factory struct {
	baseUrl    string
	apiVersion string
	httpClient *http.Client
}

// NewFactory validates the provider settings. An error here means the advisor cannot work
// at all and should be disabled.
func NewFactory(cfg config.Advisor) (*Factory, error) {
	if cfg.BaseUrl != "" {
		u, err := url.Parse(cfg.BaseUrl)
		if err != nil {
			return nil, fmt.Errorf("invalid advisor base url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil, fmt.Errorf("invalid advisor base url %q: scheme must be http or https", cfg.BaseUrl)
		}
	}
	return &Factory{
		baseUrl:    strings.TrimRight(cfg.BaseUrl, "/"),
		apiVersion: cfg.ApiVersion,
		httpClient: http.DefaultClient,
	}, nil
}

func (f *Factory) ForKey(ctx context.Context, apiKey string) (advisor.Invoker, error) {
	clientConfig := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: f.httpClient,
		HTTPOptions: genai.HTTPOptions{
			APIVersion: f.apiVersion,
		},
	}
	if f.baseUrl != "" {
		clientConfig.HTTPOptions.BaseURL = f.baseUrl + "/"
	}
	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, err
	}
	return &Invoker{client: client}, nil
}

type Invoker struct {
	client *genai.Client
}

func (i *Invoker) Invoke(ctx context.Context, model string, prompt string, systemInstruction string) (string, error) {
	var generateConfig *genai.GenerateContentConfig
	if systemInstruction != "" {
		generateConfig = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		}
	}

	log.Tracef("calling Gemini model %s", model)
	resp, err := i.client.Models.GenerateContent(ctx, model, genai.Text(prompt), generateConfig)
	if err != nil {
		return "", Classify(model, err)
	}

	text := responseText(resp)
	if strings.TrimSpace(text) == "" {
		return "", &advisor.InvocationError{Model: model, Class: advisor.ClassOther, Err: advisor.ErrEmptyResponse}
	}
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}

// Classify maps a Gemini error to the class the fallback strategy acts on.
// Only the HTTP status decides; the error text is never inspected.
func Classify(model string, err error) *advisor.InvocationError {
	class := advisor.ClassOther
	if code, ok := statusCode(err); ok {
		switch code {
		case http.StatusNotFound:
			class = advisor.ClassNotFound
		case http.StatusTooManyRequests:
			class = advisor.ClassRateLimited
		}
	}
	return &advisor.InvocationError{Model: model, Class: class, Err: err}
}

func statusCode(err error) (int, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, true
	}
	return 0, false
}

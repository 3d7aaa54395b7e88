package judge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"text/template"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = "gpt-4o-mini"

var promptTmpl = template.Must(template.New("judge").Parse(`You grade answers to a social-cognition test.
Read the story, the question and the subject's answer. Decide whether the
answer is acceptable for the question.

Story:
{{.Story}}

Question:
{{.Question}}

Answer:
{{.Answer}}

Reply with a JSON object {"score": 0 or 1, "probability": number between 0 and 1}.`))

// OpenAIJudge asks a chat model for a verdict. It works with any
// OpenAI-compatible API via BaseURL.
type OpenAIJudge struct {
	client *openai.Client
	model  string
}

func NewOpenAIJudge(apiKey, model, baseURL string) (*OpenAIJudge, error) {
	if apiKey == "" {
		return nil, errors.New("openai API key is required")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIJudge{client: openai.NewClientWithConfig(cfg), model: model}, nil
}

func (j *OpenAIJudge) Judge(ctx context.Context, req Request) (Verdict, error) {
	var prompt bytes.Buffer
	if err := promptTmpl.Execute(&prompt, req); err != nil {
		return Verdict{}, fmt.Errorf("render prompt: %w", err)
	}

	resp, err := j.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: j.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt.String()},
		},
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return Verdict{}, mapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return Verdict{}, &InvalidResponseError{Err: errors.New("no choices in response")}
	}
	return decodeVerdict([]byte(strings.TrimSpace(resp.Choices[0].Message.Content)))
}

func mapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode >= http.StatusBadRequest {
		return &UnavailableError{StatusCode: apiErr.HTTPStatusCode, Err: err}
	}
	return &UnavailableError{Err: err}
}

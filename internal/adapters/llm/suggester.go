// Package llm asks an OpenAI-compatible chat endpoint (Ollama by default)
// to label an utterance before deterministic resolution.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/bnema/roland/internal/domain"
	"github.com/bnema/roland/internal/ports"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"
)

var ErrEmptyCompletion = errors.New("empty completion")

const systemPrompt = `You label voice commands for a space flight game assistant.
Reply with ONE JSON object and nothing else, no markdown:
{"intent": "<label>", "slots": {"<name>": "<value>"}}

Labels:
- "repeat": do the last action again ("again", "one more time").
- "create_macro": define a new voice macro. Slots: "trigger" (the phrase to listen for), "action" (what to press, e.g. "press c", "hold shift for 2 seconds", "control alt p").
- "list_macros": list saved macros.
- "delete_macro": delete a macro. Slots: "name".
- "rename_macro": rename a macro. Slots: "name", "new_name".
- "execute": run a game action or macro by name. Slots: "name".
- "unknown": anything else.

Never invent slot values that were not spoken. Use lowercase.`

var knownLabels = []string{
	domain.LabelRepeat,
	domain.LabelCreateMacro,
	domain.LabelListMacros,
	domain.LabelDeleteMacro,
	domain.LabelRenameMacro,
	domain.LabelExecute,
}

type Options struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
	// HTTPClient is used by tests; nil uses the SDK default.
	HTTPClient *http.Client
	Logger     *zap.Logger
}

type Suggester struct {
	client openai.Client
	model  string
	logger *zap.Logger
}

var _ ports.Suggester = (*Suggester)(nil)

func NewSuggester(opts Options) (*Suggester, error) {
	if strings.TrimSpace(opts.Model) == "" {
		return nil, fmt.Errorf("llm model is required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	// The pipeline bounds each call; a retried request would outlive it.
	clientOpts := []option.RequestOption{option.WithMaxRetries(0)}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.Timeout > 0 {
		clientOpts = append(clientOpts, option.WithRequestTimeout(opts.Timeout))
	}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(opts.HTTPClient))
	}

	return &Suggester{
		client: openai.NewClient(clientOpts...),
		model:  opts.Model,
		logger: opts.Logger,
	}, nil
}

func (s *Suggester) Suggest(ctx context.Context, transcript string) (*domain.Suggestion, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, nil
	}

	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(transcript),
		},
		Model:       openai.ChatModel(s.model),
		Temperature: openai.Float(0),
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyCompletion
	}

	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyCompletion
	}
	s.logger.Debug("language model suggestion", zap.String("transcript", transcript), zap.String("raw", content))

	return ParseSuggestion(content)
}

type completionPayload struct {
	Intent string         `json:"intent"`
	Slots  map[string]any `json:"slots"`
}

// ParseSuggestion decodes the model reply. Unknown or unlisted labels yield
// a nil suggestion rather than an error.
func ParseSuggestion(content string) (*domain.Suggestion, error) {
	raw := extractJSON(content)

	var payload completionPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("decode suggestion: %w", err)
	}

	label := strings.ToLower(strings.TrimSpace(payload.Intent))
	if !slices.Contains(knownLabels, label) {
		return nil, nil
	}

	suggestion := &domain.Suggestion{Label: label}
	for name, value := range payload.Slots {
		text, ok := value.(string)
		if !ok || strings.TrimSpace(text) == "" {
			continue
		}
		if suggestion.Slots == nil {
			suggestion.Slots = map[string]string{}
		}
		suggestion.Slots[strings.ToLower(name)] = strings.TrimSpace(text)
	}

	return suggestion, nil
}

// extractJSON trims code fences and chatter around the first object.
func extractJSON(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return strings.TrimSpace(content)
	}
	return content[start : end+1]
}

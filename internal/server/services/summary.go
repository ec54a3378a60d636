package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/categolj/entry-api-gemfire/internal/logging"
)

const summarizeSystemPrompt = `You are a professional editor. Your role is to create a concise summary of the text (blog article) that the user inputs. Please summarize it within the character limit that can be posted on X/Twitter (about 140 chars). Also, assuming it will be used as the OGP description for an SNS post introducing the blog article, it is preferable that the content is clear from the first sentence.
Use the same language as the input text. Do not include markdown/HTML in the summary text. Also do not use markup such as ` + "`code`" + ` formatting. The summary should be in a format that introduces the blog article, such as "This is an article about..." or "In this article...".
Your response should contain only the summary text and nothing else.`

// EditMode selects the system prompt of an AI-assisted edit.
type EditMode string

const (
	EditModeProofreading EditMode = "PROOFREADING"
	EditModeCompletion   EditMode = "COMPLETION"
	EditModeExpansion    EditMode = "EXPANSION"
)

var editModePrompts = map[EditMode]string{
	EditModeProofreading: `You need to proofread user-entered text (blog posts) for formatting and stylistic issues only.
Fix typos, punctuation errors, and grammatical mistakes.
Do not change the content, structure, or meaning of the text.
Do not add or remove any sentences.`,
	EditModeCompletion: `In addition to proofreading, fill in missing sentences or explanations that are lacking.
If a sentence is incomplete or an explanation is insufficient, complete it naturally.
Do not add entirely new topics or sections.`,
	EditModeExpansion: `In addition to proofreading and completing the article, imagine what the author would write next and continue the article naturally.
Do not add headings like "Follow-up" or "Continuation". Just seamlessly extend the content.`,
}

// ParseEditMode maps a request value to an EditMode, case-insensitively.
func ParseEditMode(s string) (EditMode, error) {
	mode := EditMode(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := editModePrompts[mode]; !ok {
		return "", fmt.Errorf("unknown edit mode %q", s)
	}
	return mode, nil
}

// SystemPrompt returns the full system prompt of the mode.
func (m EditMode) SystemPrompt() string {
	return fmt.Sprintf("You are a professional technical editor.\n%s\nPlease reply only the edited text.", editModePrompts[m])
}

// AIService summarizes and edits article content through the OpenAI
// chat completions API.
type AIService struct {
	client *openai.Client
	model  string
	log    logging.Logger
}

// NewAIService builds the service. An empty baseURL keeps the library default,
// a non-empty one points the client at a compatible endpoint.
func NewAIService(apiKey, baseURL, model string, log logging.Logger) *AIService {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &AIService{client: openai.NewClientWithConfig(cfg), model: model, log: log}
}

// Summarize produces an OGP-ready summary of the content, about 140 chars,
// in the language of the input.
func (s *AIService) Summarize(ctx context.Context, content string) (string, error) {
	s.log.Info(ctx, "action=start_summarization", "model", s.model)
	start := time.Now()
	text, err := s.complete(ctx, summarizeSystemPrompt, content)
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	s.log.Info(ctx, "action=finish_summarization", "model", s.model, "duration", time.Since(start))
	return text, nil
}

// Edit rewrites the content according to the mode's system prompt.
func (s *AIService) Edit(ctx context.Context, content string, mode EditMode) (string, error) {
	s.log.Info(ctx, "action=start_edit", "mode", string(mode), "model", s.model)
	start := time.Now()
	text, err := s.complete(ctx, mode.SystemPrompt(), content)
	if err != nil {
		return "", fmt.Errorf("edit: %w", err)
	}
	s.log.Info(ctx, "action=finish_edit", "mode", string(mode), "model", s.model, "duration", time.Since(start))
	return text, nil
}

func (s *AIService) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

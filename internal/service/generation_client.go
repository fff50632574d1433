package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"nihongo_edu_backend/internal/config"
	"nihongo_edu_backend/internal/model"
	"nihongo_edu_backend/internal/util"
	"nihongo_edu_backend/pkg/monitoring"
)

// ContentGenerator is the boundary to the external content generation
// service. It must be treated as unreliable: implementations map network
// failures, timeouts and unparsable output to util.ErrUpstreamGeneration.
type ContentGenerator interface {
	Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error)
}

const (
	GenerateLessonText = "lesson_text"
	GenerateQuiz       = "quiz"
)

type GenerationRequest struct {
	Kind          string   `json:"kind"` // lesson_text | quiz
	Topic         string   `json:"topic"`
	JLPTLevel     int      `json:"jlptLevel"`
	Difficulty    int      `json:"difficulty"`
	Keywords      []string `json:"keywords,omitempty"`
	QuestionCount int      `json:"questionCount,omitempty"`
}

type GenerationResult struct {
	Title     string                    `json:"title,omitempty"`
	Text      string                    `json:"text,omitempty"`
	Questions []model.GeneratedQuestion `json:"questions,omitempty"`
}

// GenerationClient talks to an OpenAI-compatible chat completions endpoint.
// One instance is constructed at process start and injected wherever
// content generation is needed.
type GenerationClient struct {
	config config.GenerationConfig
	client *http.Client
}

func NewGenerationClient(cfg config.GenerationConfig) *GenerationClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GenerationClient{
		config: cfg,
		client: &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *GenerationClient) Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error) {
	started := time.Now()
	result, err := c.generate(ctx, req)
	monitoring.GenerationDuration.Observe(time.Since(started).Seconds())
	return result, err
}

func (c *GenerationClient) generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error) {
	messages := []chatMessage{
		{Role: "system", Content: systemPrompt(req.Kind)},
		{Role: "user", Content: userPrompt(req)},
	}

	reqBody := chatCompletionRequest{
		Model:    c.config.Model,
		Messages: messages,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", util.ErrUpstreamGeneration, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.config.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrUpstreamGeneration, err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrUpstreamGeneration, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: upstream status %d: %s", util.ErrUpstreamGeneration, resp.StatusCode, string(body))
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", util.ErrUpstreamGeneration, err)
	}
	if completion.Error != nil {
		return nil, fmt.Errorf("%w: %s", util.ErrUpstreamGeneration, completion.Error.Message)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("%w: upstream returned no choices", util.ErrUpstreamGeneration)
	}

	content := stripCodeFence(completion.Choices[0].Message.Content)

	var result GenerationResult
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, fmt.Errorf("%w: unparsable payload: %v", util.ErrUpstreamGeneration, err)
	}

	if req.Kind == GenerateQuiz && len(result.Questions) == 0 {
		return nil, fmt.Errorf("%w: quiz payload contained no questions", util.ErrUpstreamGeneration)
	}

	return &result, nil
}

func systemPrompt(kind string) string {
	base := "You are a Japanese language teaching assistant for JLPT learners. " +
		"Respond with a single JSON object and nothing else, no markdown fences, no commentary."
	switch kind {
	case GenerateQuiz:
		return base + ` The object has a "questions" array; each question has ` +
			`"kind" (multiple_choice|true_false|fill_blank|matching), "prompt", "difficultyLevel" (1-5), "points", ` +
			`"hint", "explanation", and for choice kinds an "options" array of {"text","isCorrect","feedback"}, ` +
			`for fill_blank an "acceptedAnswers" array, for matching a "pairs" array of {"prompt","answer"}.`
	default:
		return base + ` The object has "title" and "text" fields; "text" is a clear lesson explanation ` +
			`with Japanese examples and English glosses.`
	}
}

func userPrompt(req GenerationRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s. JLPT level N%d, difficulty %d of 5.", req.Topic, req.JLPTLevel, req.Difficulty)
	if len(req.Keywords) > 0 {
		fmt.Fprintf(&b, " Cover these items: %s.", strings.Join(req.Keywords, ", "))
	}
	if req.Kind == GenerateQuiz {
		count := req.QuestionCount
		if count <= 0 {
			count = 5
		}
		fmt.Fprintf(&b, " Produce %d questions.", count)
	}
	return b.String()
}

// stripCodeFence tolerates models that wrap JSON in ``` fences despite the
// instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

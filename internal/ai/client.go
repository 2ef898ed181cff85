package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storygen-server/internal/config"
	"storygen-server/internal/models"

	"github.com/ollama/ollama/api"
	"github.com/pkoukk/tiktoken-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openaigo "github.com/sashabaranov/go-openai"
)

// Константы цен за 1М токенов в USD (для оценочной метрики стоимости)
const (
	pricePerMillionInputTokensUSD  = 0.1
	pricePerMillionOutputTokensUSD = 0.4
)

var (
	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storygen_ai_requests_total",
			Help: "Total number of requests to the AI API.",
		},
		[]string{"model", "status"},
	)
	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storygen_ai_request_duration_seconds",
			Help:    "Histogram of AI API request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)
	aiPromptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storygen_ai_prompt_tokens",
			Help:    "Histogram of prompt token counts.",
			Buckets: prometheus.LinearBuckets(250, 250, 20),
		},
		[]string{"model"},
	)
	aiCompletionTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storygen_ai_completion_tokens",
			Help:    "Histogram of completion token counts.",
			Buckets: prometheus.LinearBuckets(100, 100, 20),
		},
		[]string{"model"},
	)
	aiEstimatedCostUSD = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storygen_ai_estimated_cost_usd_total",
			Help: "Estimated total cost of AI requests in USD.",
		},
		[]string{"model"},
	)
)

// GenerationParams — параметры сэмплирования для одного запроса.
// Используем указатели, чтобы отличить 0/0.0 от отсутствия.
type GenerationParams struct {
	Temperature *float64
	MaxTokens   *int
	TopP        *float64
}

// UsageInfo содержит информацию об использовании токенов и стоимости
type UsageInfo struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	EstimatedCostUSD float64
}

// Client интерфейс для взаимодействия с AI API
type Client interface {
	// GenerateText генерирует текст на основе системного промта, ввода пользователя и параметров.
	// Возвращает сгенерированный текст, информацию об использовании и ошибку.
	GenerateText(ctx context.Context, userID string, systemPrompt string, userInput string, params GenerationParams) (string, UsageInfo, error)
}

// calculateCost рассчитывает оценочную стоимость запроса на основе токенов.
func calculateCost(promptTokens, completionTokens int) float64 {
	inputCost := float64(promptTokens) * pricePerMillionInputTokensUSD / 1_000_000.0
	outputCost := float64(completionTokens) * pricePerMillionOutputTokensUSD / 1_000_000.0
	return inputCost + outputCost
}

// float32Val конвертирует *float64 в float32 для OpenAI API.
func float32Val(f64 *float64) float32 {
	if f64 == nil {
		return 1.0
	}
	return float32(*f64)
}

// intVal конвертирует *int в int; 0 означает "не установлено".
func intVal(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}

// estimateTokens оценивает количество токенов через tiktoken, когда
// провайдер не вернул usage-блок.
func estimateTokens(model, systemPrompt, userInput, completion string) (int, int) {
	tke, err := tiktoken.EncodingForModel(model)
	if err != nil {
		// Неизвестная модель: берем универсальную кодировку
		tke, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return 0, 0
		}
	}
	prompt := len(tke.Encode(systemPrompt, nil, nil)) + len(tke.Encode(userInput, nil, nil))
	return prompt, len(tke.Encode(completion, nil, nil))
}

// --- OpenAI-compatible Client Implementation ---

// openAIClient реализует Client с использованием go-openai (OpenRouter и
// любой другой OpenAI-совместимый провайдер).
type openAIClient struct {
	client *openaigo.Client
	model  string
	logger zerolog.Logger
}

// GenerateText генерирует текст на основе системного промта и ввода пользователя
func (c *openAIClient) GenerateText(ctx context.Context, userID string, systemPrompt string, userInput string, params GenerationParams) (string, UsageInfo, error) {
	usageInfo := UsageInfo{}

	if strings.TrimSpace(systemPrompt) == "" {
		aiRequestsTotal.WithLabelValues(c.model, "error").Inc()
		return "", usageInfo, fmt.Errorf("%w: системный промт пуст", models.ErrAIGenerationFailed)
	}

	messages := []openaigo.ChatCompletionMessage{
		{Role: openaigo.ChatMessageRoleSystem, Content: systemPrompt},
	}
	if userInput != "" {
		messages = append(messages, openaigo.ChatCompletionMessage{
			Role:    openaigo.ChatMessageRoleUser,
			Content: userInput,
		})
	}

	startTime := time.Now()
	c.logger.Debug().
		Str("model", c.model).
		Str("user_id", userID).
		Int("system_prompt_bytes", len(systemPrompt)).
		Int("user_input_bytes", len(userInput)).
		Msg("sending AI request")

	resp, err := c.client.CreateChatCompletion(ctx, openaigo.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: float32Val(params.Temperature),
		MaxTokens:   intVal(params.MaxTokens),
		TopP:        float32Val(params.TopP),
	})
	duration := time.Since(startTime)

	if err != nil {
		c.logger.Error().Err(err).Str("user_id", userID).Dur("duration", duration).Msg("AI request failed")
		aiRequestsTotal.WithLabelValues(c.model, "error").Inc()
		return "", usageInfo, fmt.Errorf("%w: %v", models.ErrAIGenerationFailed, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		c.logger.Error().Str("user_id", userID).Dur("duration", duration).Msg("AI returned empty response")
		aiRequestsTotal.WithLabelValues(c.model, "error_empty_response").Inc()
		return "", usageInfo, fmt.Errorf("%w: получен пустой ответ", models.ErrAIGenerationFailed)
	}

	aiRequestsTotal.WithLabelValues(c.model, "success").Inc()
	aiRequestDuration.WithLabelValues(c.model).Observe(duration.Seconds())

	generatedText := resp.Choices[0].Message.Content

	usageInfo.PromptTokens = resp.Usage.PromptTokens
	usageInfo.CompletionTokens = resp.Usage.CompletionTokens
	usageInfo.TotalTokens = resp.Usage.TotalTokens
	if usageInfo.TotalTokens == 0 {
		// Провайдер не вернул usage: оцениваем через tiktoken
		usageInfo.PromptTokens, usageInfo.CompletionTokens = estimateTokens(c.model, systemPrompt, userInput, generatedText)
		usageInfo.TotalTokens = usageInfo.PromptTokens + usageInfo.CompletionTokens
	}
	usageInfo.EstimatedCostUSD = calculateCost(usageInfo.PromptTokens, usageInfo.CompletionTokens)

	aiPromptTokens.WithLabelValues(c.model).Observe(float64(usageInfo.PromptTokens))
	aiCompletionTokens.WithLabelValues(c.model).Observe(float64(usageInfo.CompletionTokens))
	if usageInfo.EstimatedCostUSD > 0 {
		aiEstimatedCostUSD.WithLabelValues(c.model).Add(usageInfo.EstimatedCostUSD)
	}

	c.logger.Info().
		Str("user_id", userID).
		Dur("duration", duration).
		Int("prompt_tokens", usageInfo.PromptTokens).
		Int("completion_tokens", usageInfo.CompletionTokens).
		Int("response_chars", len(generatedText)).
		Msg("AI response received")

	return generatedText, usageInfo, nil
}

// --- Ollama Client Implementation ---

// ollamaClient реализует Client с использованием нативного ollama/api
type ollamaClient struct {
	client  *api.Client
	model   string
	timeout time.Duration
	logger  zerolog.Logger
}

func newOllamaClient(cfg *config.Config, logger zerolog.Logger) (Client, error) {
	httpClient := &http.Client{Timeout: cfg.AITimeout}

	// api.NewClient требует URL без суффикса /v1
	ollamaBaseURL := strings.TrimSuffix(cfg.OllamaURL, "/v1")
	ollamaBaseURL = strings.TrimSuffix(ollamaBaseURL, "/")

	parsedURL, err := url.Parse(ollamaBaseURL)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга Ollama Base URL '%s': %w", ollamaBaseURL, err)
	}

	logger.Info().Str("base_url", ollamaBaseURL).Str("model", cfg.OllamaModel).Msg("Ollama client created")

	return &ollamaClient{
		client:  api.NewClient(parsedURL, httpClient),
		model:   cfg.OllamaModel,
		timeout: cfg.AITimeout,
		logger:  logger,
	}, nil
}

// GenerateText генерирует текст с использованием Ollama
func (c *ollamaClient) GenerateText(ctx context.Context, userID string, systemPrompt string, userInput string, params GenerationParams) (string, UsageInfo, error) {
	usageInfo := UsageInfo{} // Ollama локальный, стоимость 0

	if strings.TrimSpace(systemPrompt) == "" {
		aiRequestsTotal.WithLabelValues(c.model, "error").Inc()
		return "", usageInfo, fmt.Errorf("%w: системный промт пуст", models.ErrAIGenerationFailed)
	}

	messages := []api.Message{
		{Role: "system", Content: systemPrompt},
	}
	if userInput != "" {
		messages = append(messages, api.Message{Role: "user", Content: userInput})
	}

	req := &api.ChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   func(b bool) *bool { return &b }(false),
		Options: map[string]interface{}{
			"temperature": params.Temperature,
			"top_p":       params.TopP,
			"num_predict": intVal(params.MaxTokens),
		},
	}

	requestCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	startTime := time.Now()
	var resp api.ChatResponse
	err := c.client.Chat(requestCtx, req, func(r api.ChatResponse) error {
		resp = r // Сохраняем последний (полный) ответ
		return nil
	})
	duration := time.Since(startTime)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			c.logger.Error().Err(err).Str("user_id", userID).Dur("timeout", c.timeout).Msg("Ollama request timed out")
		} else {
			c.logger.Error().Err(err).Str("user_id", userID).Dur("duration", duration).Msg("Ollama request failed")
		}
		aiRequestsTotal.WithLabelValues(c.model, "error").Inc()
		return "", usageInfo, fmt.Errorf("%w: %v", models.ErrAIGenerationFailed, err)
	}
	if resp.Message.Content == "" {
		c.logger.Error().Str("user_id", userID).Dur("duration", duration).Msg("Ollama returned empty response")
		aiRequestsTotal.WithLabelValues(c.model, "error_empty_response").Inc()
		return "", usageInfo, fmt.Errorf("%w: получен пустой ответ", models.ErrAIGenerationFailed)
	}

	aiRequestsTotal.WithLabelValues(c.model, "success").Inc()
	aiRequestDuration.WithLabelValues(c.model).Observe(duration.Seconds())

	usageInfo.PromptTokens = resp.PromptEvalCount
	usageInfo.CompletionTokens = resp.EvalCount
	usageInfo.TotalTokens = resp.PromptEvalCount + resp.EvalCount
	if usageInfo.TotalTokens > 0 {
		aiPromptTokens.WithLabelValues(c.model).Observe(float64(usageInfo.PromptTokens))
		aiCompletionTokens.WithLabelValues(c.model).Observe(float64(usageInfo.CompletionTokens))
	}

	c.logger.Info().
		Str("user_id", userID).
		Dur("duration", duration).
		Int("total_tokens", usageInfo.TotalTokens).
		Msg("Ollama response received")

	return resp.Message.Content, usageInfo, nil
}

// --- Factory Function ---

// NewClient создает AI-клиент в зависимости от конфигурации.
func NewClient(cfg *config.Config, logger zerolog.Logger) (Client, error) {
	switch strings.ToLower(cfg.AIProvider) {
	case "openrouter", "openai":
		openaiConfig := openaigo.DefaultConfig(cfg.AIAPIKey)
		openaiConfig.BaseURL = cfg.AIBaseURL
		openaiConfig.HTTPClient = &http.Client{Timeout: cfg.AITimeout}
		client := openaigo.NewClientWithConfig(openaiConfig)
		logger.Info().Str("base_url", cfg.AIBaseURL).Str("model", cfg.AIModel).Msg("OpenAI-compatible client created")
		return &openAIClient{
			client: client,
			model:  cfg.AIModel,
			logger: logger,
		}, nil
	case "ollama":
		return newOllamaClient(cfg, logger)
	default:
		return nil, fmt.Errorf("неизвестный тип AI провайдера: '%s'", cfg.AIProvider)
	}
}

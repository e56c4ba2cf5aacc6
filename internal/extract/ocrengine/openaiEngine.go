package ocrengine

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/medref/ExtractionAPI/internal/customHttpClient"
	"github.com/medref/ExtractionAPI/pkg/logger_i"
)

type openaiEngine struct {
	client openai.Client
	model  string
	logger *logger_i.Logger
}

// NewOpenAIEngine is the alternate recognition backend, selected with
// OCR_ENGINE=openai.
func NewOpenAIEngine(modelName string, apikey string) (Engine, error) {
	logger := logger_i.NewLogger("ocr_openai")
	client := openai.NewClient(
		option.WithAPIKey(apikey),
		option.WithHTTPClient(customHttpClient.Client()),
	)
	logger.Info("OpenAI OCR client created", "model", modelName)
	return &openaiEngine{client: client, model: modelName, logger: logger}, nil
}

func (e *openaiEngine) Name() string { return "openai" }

func (e *openaiEngine) Recognize(ctx context.Context, png []byte, pageNum int, sub func(float64)) (RecognizedPage, error) {
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(e.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(ocrPrompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}),
			}),
		},
	}

	if sub != nil {
		sub(0.05)
	}

	stream := e.client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	var sb strings.Builder
	chunks := 0
	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) > 0 {
			sb.WriteString(chunk.Choices[0].Delta.Content)
		}
		chunks++
		if sub != nil {
			sub(streamProgress(chunks))
		}
	}
	if err := stream.Err(); err != nil {
		e.logger.Error("OpenAI OCR stream failed", "page", pageNum, "error", err)
		return RecognizedPage{}, fmt.Errorf("openai recognition failed: %w", err)
	}

	text := strings.TrimSpace(sb.String())
	if sub != nil {
		sub(1)
	}
	return RecognizedPage{Text: text, Confidence: estimateConfidence(text)}, nil
}

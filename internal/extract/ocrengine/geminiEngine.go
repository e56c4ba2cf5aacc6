package ocrengine

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/medref/ExtractionAPI/internal/customHttpClient"
	"github.com/medref/ExtractionAPI/pkg/logger_i"
)

type geminiEngine struct {
	client *genai.Client
	model  string
	logger *logger_i.Logger
}

// NewGeminiEngine builds the default recognition backend on the Gemini
// vision models.
func NewGeminiEngine(ctx context.Context, modelName string, apikey string) (Engine, error) {
	logger := logger_i.NewLogger("ocr_gemini")
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apikey,
		HTTPClient: customHttpClient.Client(),
	})
	if err != nil {
		logger.Error("Error creating Gemini OCR client:", "error", err)
		return nil, err
	}
	logger.Info("Gemini OCR client created", "model", modelName)
	return &geminiEngine{client: c, model: modelName, logger: logger}, nil
}

func (e *geminiEngine) Name() string { return "gemini" }

func (e *geminiEngine) Recognize(ctx context.Context, png []byte, pageNum int, sub func(float64)) (RecognizedPage, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{InlineData: &genai.Blob{MIMEType: "image/png", Data: png}},
				{Text: ocrPrompt},
			},
		},
	}

	if sub != nil {
		sub(0.05) //request sent
	}

	var sb strings.Builder
	chunks := 0
	//streaming lets the page's sub-progress advance while the model is
	//still transcribing instead of jumping 0 -> 1
	for resp, err := range e.client.Models.GenerateContentStream(ctx, e.model, contents, nil) {
		if err != nil {
			e.logger.Error("Gemini OCR stream failed", "page", pageNum, "error", err)
			return RecognizedPage{}, fmt.Errorf("gemini recognition failed: %w", err)
		}
		sb.WriteString(resp.Text())
		chunks++
		if sub != nil {
			sub(streamProgress(chunks))
		}
	}

	text := strings.TrimSpace(sb.String())
	if sub != nil {
		sub(1)
	}
	return RecognizedPage{Text: text, Confidence: estimateConfidence(text)}, nil
}

// streamProgress maps chunk count onto (0,0.95]: chunk sizes are opaque,
// so progress approaches but never reaches done until the stream closes.
func streamProgress(chunks int) float64 {
	p := 0.1 + float64(chunks)*0.05
	if p > 0.95 {
		p = 0.95
	}
	return p
}

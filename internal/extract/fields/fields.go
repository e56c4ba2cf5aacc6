package fields

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/medref/ExtractionAPI/internal/config"
	"github.com/medref/ExtractionAPI/internal/customHttpClient"
	"github.com/medref/ExtractionAPI/internal/domain/commonModels"
	"github.com/medref/ExtractionAPI/pkg/logger_i"
)

// FieldNames is the referral intake schema. Field numbers in model
// output are 1-based indexes into this list.
var FieldNames = [15]string{
	"Patient Name",
	"Date of Birth",
	"Patient Phone",
	"Insurance Provider",
	"Insurance ID",
	"Referring Physician",
	"Referring Practice",
	"Referring Phone",
	"Referring Fax",
	"Reason for Referral",
	"Diagnosis",
	"ICD Codes",
	"Current Medications",
	"Allergies",
	"Urgency",
}

const extractionPrompt = `You extract intake fields from medical referral documents.
For each field below, output exactly one line in the format NUMBER|VALUE.
If a field is not present in the document, output NUMBER|NOT FOUND.
Output nothing else. Fields:
`

type Extractor interface {
	Extract(ctx context.Context, text string) ([]commonModels.ExtractedField, error)
}

type fieldClient struct {
	client    *genai.Client
	modelName string
}

var logger *logger_i.Logger
var instance *fieldClient
var once sync.Once

func GetFieldExtractor(ctx context.Context, modelName string, apikey string) Extractor {
	once.Do(func() {
		logger = logger_i.NewLogger("FieldExtractor")
		newFieldClient(ctx, modelName, apikey)
	})

	if instance == nil {
		return nil
	}
	return instance
}

func newFieldClient(ctx context.Context, modelName string, apikey string) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apikey,
		HTTPClient: customHttpClient.Client(),
	})
	if err != nil {
		logger.Error("Error creating Gemini client:", "error", err)
		return
	}
	instance = &fieldClient{client: c, modelName: modelName}
	logger.Info("Field extraction client created")
	go closeClient(ctx, instance)
}

func closeClient(ctx context.Context, fc *fieldClient) {
	<-ctx.Done()
	logger.Info("Closing field extraction client")
	fc.client = nil
}

func (c *fieldClient) Extract(ctx context.Context, text string) ([]commonModels.ExtractedField, error) {
	loggr := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	if c.client == nil {
		return nil, errors.New("field extraction client is closed")
	}

	var sb strings.Builder
	sb.WriteString(extractionPrompt)
	for i, name := range FieldNames {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, name)
	}
	sb.WriteString("\nDocument:\n")
	sb.WriteString(text)

	result, err := c.client.Models.GenerateContent(
		ctx,
		c.modelName,
		genai.Text(sb.String()),
		nil,
	)
	if err != nil {
		loggr.Error("Field extraction call failed: ", "error:", err)
		return nil, err
	}

	extracted := ParseFields(result.Text())
	loggr.Debug("Extracted fields: ", "count", len(extracted))
	return extracted, nil
}

// ParseFields reads NUMBER|VALUE lines. Lines that do not parse, point
// at an unknown field number, or carry NOT FOUND are skipped.
func ParseFields(s string) []commonModels.ExtractedField {
	var out []commonModels.ExtractedField
	seen := make(map[int]bool)

	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		num, value, found := strings.Cut(line, "|")
		if !found {
			continue
		}

		n, err := strconv.Atoi(strings.TrimSpace(num))
		if err != nil || n < 1 || n > len(FieldNames) || seen[n] {
			continue
		}

		value = strings.TrimSpace(value)
		if value == "" || strings.EqualFold(value, "NOT FOUND") {
			continue
		}

		seen[n] = true
		out = append(out, commonModels.ExtractedField{
			Number: n,
			Name:   FieldNames[n-1],
			Value:  value,
		})
	}
	return out
}

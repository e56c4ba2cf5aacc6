package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

const (
	LogLevelProd = slog.LevelInfo
	TRACE_ID_KEY = "traceId"

	RATE_LIMIT_PER_SECOND       = 2
	BURST_RATE_LIMIT_PER_SECOND = 5

	//auth - bearer token check is skipped when the bypass is set
	NoAuthBypass = true
	AuthToken    = ""

	RequestsPerNewWorkerCount int64 = 10
	MaxWorkerCount            int64 = 10
	MinWorkerCount            int64 = 1
	IdleWorkerTimeout               = 1 * time.Minute

	//a single OCR run can take minutes on large referrals
	JobTimeout = 10 * time.Minute

	//serverTimeouts - the fields endpoint waits on a model call, so the
	//write timeout is generous
	ReadTimeout            = 30 * time.Second
	WriteTimeout           = 60 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//server listening port
	ServerListenAddr = ":3000"

	//job requests buffer limit
	BufferLimit = 100

	//extraction pipeline -----------------------------------------------

	//direct extraction is accepted when it yields more than this many
	//characters per page, otherwise the document is treated as scanned
	//and sent through OCR
	DefaultYieldThreshold = 100.0

	//sections scoring at or below this are dropped as noise
	DefaultRelevanceFloor = 0.1

	//progress weighting: load/init, per-page OCR, post-processing
	ProgressBaseWeight = 0.2
	ProgressOcrWeight  = 0.6

	//per-page direct extraction guard
	DirectPageTimeout = 10 * time.Second

	//rasterization: longer side of the rendered bitmap approaches this
	RenderTargetPx = 1500
	RenderMinScale = 1.5
	RenderMaxScale = 2.0

	//truncated preview length on reference points
	ReferencePreviewLen = 100

	//reference lookups return at most this many sections unless asked
	DefaultMaxReferenceSections = 3

	//semantic fallback similarity cutoff on the section index
	SectionSimilarityCutoff = 0.62
	SectionIndexName        = "referral-sections"

	//llm / ocr
	GeminiModelName      = "gemini-2.5-flash-lite-preview-09-2025"
	GeminiOcrModelName   = "gemini-2.5-flash-lite-preview-09-2025"
	OpenAIOcrModelName   = "gpt-4o-mini"
	GoogleEmbeddingModel = "gemini-embedding-001"

	EmbeddingOutputDimensionality int32 = 1536

	//qdrant
	QdrantHost             = "127.0.0.1"
	QdrantGrpcPort         = 6334
	QdrantUseTLS           = false
	QdrantPoolSize         = 1
	QdrantKeepAliveTimeout = 30 * time.Second

	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	//redis
	redisHost     = "127.0.0.1"
	redisPort     = "6379"
	RedisAddr     = redisHost + ":" + redisPort
	RedisPassword = ""

	//redis has 16 DBs we can use
	RedisJobStore      = 0
	RedisResultStore   = 1
	RedisProgressStore = 2

	//redis timeouts
	RedisJobStoreTTL      = 24 * time.Hour
	RedisResultStoreTTL   = 7 * 24 * time.Hour
	RedisProgressStoreTTL = 24 * time.Hour
)

func IsProd() bool {
	return os.Getenv("MEDREF_ENV") == "prod"
}

// YieldThreshold and RelevanceFloor are deliberately env-tunable: the
// reference values are empirical and need re-tuning per document corpus.
func YieldThreshold() float64 {
	return envFloat("EXTRACT_YIELD_THRESHOLD", DefaultYieldThreshold)
}

func RelevanceFloor() float64 {
	return envFloat("EXTRACT_RELEVANCE_FLOOR", DefaultRelevanceFloor)
}

// OcrEngineName selects the recognition engine: "gemini" (default) or "openai".
func OcrEngineName() string {
	if v := os.Getenv("OCR_ENGINE"); v != "" {
		return v
	}
	return "gemini"
}

func GeminiAPIKey() string {
	return os.Getenv("GEMINI_API_KEY")
}

func OpenAIAPIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

func envFloat(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return val
}

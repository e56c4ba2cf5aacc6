package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/medref/ExtractionAPI/internal/config"
	"github.com/medref/ExtractionAPI/internal/data/store"
	jobmodel "github.com/medref/ExtractionAPI/internal/domain/jobModel"
	"github.com/medref/ExtractionAPI/internal/extract"
	"github.com/medref/ExtractionAPI/internal/extract/direct"
	"github.com/medref/ExtractionAPI/internal/extract/embedding"
	"github.com/medref/ExtractionAPI/internal/extract/embedding/googleEmbedding"
	"github.com/medref/ExtractionAPI/internal/extract/fields"
	"github.com/medref/ExtractionAPI/internal/extract/ocrengine"
	"github.com/medref/ExtractionAPI/internal/extract/render"
	"github.com/medref/ExtractionAPI/internal/extract/sectionindex"
	"github.com/medref/ExtractionAPI/internal/handlers"
	"github.com/medref/ExtractionAPI/internal/job"
	"github.com/medref/ExtractionAPI/internal/mcpserver"
	"github.com/medref/ExtractionAPI/internal/server"
	"github.com/medref/ExtractionAPI/internal/worker"
	"github.com/medref/ExtractionAPI/pkg/logger_i"
)

var (
	listenAddr        string
	mcpMode           bool
	requestCount      int64
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {

	logger_i.Init()
	var logger = logger_i.NewLogger("main")

	//config
	flag.StringVar(&listenAddr, "listen-addr", config.ServerListenAddr, "server listen address")
	flag.BoolVar(&mcpMode, "mcp", false, "serve MCP tools over stdio instead of HTTP")
	flag.Parse()

	//init buffered job channel
	jobChannel := make(chan jobmodel.Job, config.BufferLimit)
	dispatcherChannel := make(chan bool, 1)
	stopWorkerChannel = make(chan bool, 1)

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	//init job service and stores
	serviceConfig := job.ServiceConfig{
		JobChannel:        jobChannel,
		RequestCount:      requestCount,
		DispatcherChannel: dispatcherChannel,
	}
	logger.Info("Starting job service")

	jobStore := store.GetRedisJobStore(serviceContext)
	resultStore := store.GetRedisResultStore(serviceContext)
	progressStore := store.GetRedisProgressStore(serviceContext)
	if jobStore == nil || resultStore == nil || progressStore == nil {
		logger.Error("Redis stores are offline, falling back to in-memory stores")
		serviceConfig.JobStore = store.InitInMemoryJobStore()
		serviceConfig.ResultStore = store.InitInMemoryResultStore()
		serviceConfig.ProgressStore = store.InitInMemoryProgressStore()
	} else {
		serviceConfig.JobStore = jobStore
		serviceConfig.ResultStore = resultStore
		serviceConfig.ProgressStore = progressStore
	}
	service := job.InitJobService(serviceConfig)

	//extraction pipeline clients; each degrades independently
	ocrPool := ocrengine.NewPool(newOcrEngine)

	var index sectionindex.Indexer
	if holder := sectionindex.GetSectionIndex(serviceContext); holder != nil {
		index = holder
	} else {
		logger.Warn("Section index unavailable, semantic reference fallback disabled")
	}

	var embedder embedding.Embedder
	if em := googleEmbedding.GetGoogleEmbeddingClient(serviceContext, config.GoogleEmbeddingModel, config.GeminiAPIKey()); em != nil {
		embedder = em
	} else {
		logger.Warn("Embedding client unavailable, sections will not be indexed")
	}

	fieldClient := fields.GetFieldExtractor(serviceContext, config.GeminiModelName, config.GeminiAPIKey())
	if fieldClient == nil {
		logger.Warn("Field extraction client unavailable")
	}

	extractService := extract.NewService(
		direct.NewExtractor(),
		render.NewRenderer(),
		ocrPool,
		index,
		embedder,
		fieldClient,
		serviceConfig.ResultStore,
		serviceConfig.ProgressStore,
	)

	if mcpMode {
		if err := mcpserver.NewServer(extractService).Run(serviceContext); err != nil {
			logger.Error("MCP server stopped", "error", err)
		}
		return
	}

	handlers.InitJobHandler(service, extractService)

	//init worker pool
	worker.InitServices(service, extractService)
	worker.InitWorkerPool(stopWorkerChannel, &workerWaitGroup)

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeExternalServices,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(listenAddr)

	<-stopExecution
	logger.Info("Server stopped")
}

func newOcrEngine(ctx context.Context) (ocrengine.Engine, error) {
	switch config.OcrEngineName() {
	case "openai":
		return ocrengine.NewOpenAIEngine(config.OpenAIOcrModelName, config.OpenAIAPIKey())
	default:
		return ocrengine.NewGeminiEngine(ctx, config.GeminiOcrModelName, config.GeminiAPIKey())
	}
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/voxwire-ai/voxwire/pkg/callercontext"
	"github.com/voxwire-ai/voxwire/pkg/httpapi"
	"github.com/voxwire-ai/voxwire/pkg/logging"
	"github.com/voxwire-ai/voxwire/pkg/orchestrator"
	llmProvider "github.com/voxwire-ai/voxwire/pkg/providers/llm"
	sttProvider "github.com/voxwire-ai/voxwire/pkg/providers/stt"
	ttsProvider "github.com/voxwire-ai/voxwire/pkg/providers/tts"
	"github.com/voxwire-ai/voxwire/pkg/store"
)

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: No .env file found, using system environment variables")
	}

	logger := logging.New(env("LOG_LEVEL", "info"))

	deepgramKey := os.Getenv("DEEPGRAM_API_KEY")
	groqKey := os.Getenv("GROQ_API_KEY")
	openaiKey := os.Getenv("OPENAI_API_KEY")
	cartesiaKey := os.Getenv("CARTESIA_API_KEY")
	elevenKey := os.Getenv("ELEVENLABS_API_KEY")

	if deepgramKey == "" {
		logger.Error("DEEPGRAM_API_KEY must be set")
		os.Exit(1)
	}

	// LLM selection, groq by default for latency.
	var generator orchestrator.Generator
	switch env("LLM_PROVIDER", "groq") {
	case "openai":
		if openaiKey == "" {
			logger.Error("OPENAI_API_KEY must be set for openai LLM")
			os.Exit(1)
		}
		generator = llmProvider.NewOpenAI(openaiKey, os.Getenv("OPENAI_MODEL"))
	default:
		if groqKey == "" {
			logger.Error("GROQ_API_KEY must be set for groq LLM")
			os.Exit(1)
		}
		generator = llmProvider.NewGroq(groqKey, os.Getenv("GROQ_MODEL"))
	}

	var synth orchestrator.Synthesizer
	var opts []orchestrator.Option
	switch {
	case cartesiaKey != "":
		synth = ttsProvider.NewCartesia(cartesiaKey, env("CARTESIA_VOICE_ID", "a0e99841-438c-4a64-b679-ae501e7d6091"))
		if elevenKey != "" {
			opts = append(opts, orchestrator.WithFallbackSynthesizer(ttsProvider.NewElevenLabs(elevenKey, os.Getenv("ELEVENLABS_VOICE_ID"))))
		}
	case elevenKey != "":
		synth = ttsProvider.NewElevenLabs(elevenKey, os.Getenv("ELEVENLABS_VOICE_ID"))
	default:
		logger.Error("CARTESIA_API_KEY or ELEVENLABS_API_KEY must be set")
		os.Exit(1)
	}

	cfg := orchestrator.DefaultConfig()
	if prompt := os.Getenv("AGENT_SYSTEM_PROMPT"); prompt != "" {
		cfg.SystemPrompt = prompt
	}
	if greeting := os.Getenv("AGENT_GREETING"); greeting != "" {
		cfg.Greeting = greeting
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var repo store.Repository
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		pg, err := store.NewPostgresStore(ctx, dbURL)
		if err != nil {
			logger.Error("postgres init failed", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		repo = pg
		logger.Info("using postgres store")
	} else {
		repo = store.NewMemoryStore()
		logger.Warn("DATABASE_URL not set, sessions held in memory only")
	}

	opts = append(opts,
		orchestrator.WithLogger(logger),
		orchestrator.WithStore(repo),
		orchestrator.WithContextFetcher(callercontext.New(cfg.ContextFetchTimeout)),
	)

	recognizer := sttProvider.NewDeepgram(deepgramKey, logger)
	orch, err := orchestrator.New(recognizer, generator, synth, cfg, opts...)
	if err != nil {
		logger.Error("orchestrator init failed", "error", err)
		os.Exit(1)
	}

	var dialer httpapi.CallPlacer
	accountSID := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")
	fromNumber := os.Getenv("TWILIO_FROM_NUMBER")
	if accountSID != "" && authToken != "" && fromNumber != "" {
		dialer = httpapi.NewTwilioDialer(accountSID, authToken, fromNumber)
	} else {
		logger.Warn("Twilio credentials not set, outbound calling disabled")
	}

	publicHost := os.Getenv("PUBLIC_HOST")
	if publicHost == "" {
		logger.Error("PUBLIC_HOST must be set so Twilio can reach the webhooks")
		os.Exit(1)
	}

	server := httpapi.NewServer(httpapi.Config{
		Orchestrator: orch,
		Registry:     orchestrator.NewRegistry(),
		Repository:   repo,
		Dialer:       dialer,
		PublicHost:   publicHost,
		Logger:       logger,
	})

	addr := ":" + env("PORT", "8080")
	go func() {
		if err := server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			stop()
		}
	}()

	logger.Info("voice agent ready",
		"providers", orch.Providers(), "publicHost", publicHost, "addr", addr)

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

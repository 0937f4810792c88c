package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"smallchain/internal/agent"
	"smallchain/internal/chunker"
	"smallchain/internal/config"
	"smallchain/internal/domain"
	"smallchain/internal/embedding"
	embopenai "smallchain/internal/embedding/openai"
	"smallchain/internal/embedding/tfidf"
	"smallchain/internal/history"
	"smallchain/internal/history/jsonfile"
	"smallchain/internal/history/sqlite"
	"smallchain/internal/llm/ollama"
	llmopenai "smallchain/internal/llm/openai"
	"smallchain/internal/loader"
	"smallchain/internal/logger"
	"smallchain/internal/prompt"
	"smallchain/internal/retriever"
	"smallchain/internal/service"
	"smallchain/internal/summarizer"
	"smallchain/internal/tools"
	"smallchain/internal/tools/search"
	"smallchain/internal/tools/weather"
	"smallchain/internal/tui"
	"smallchain/internal/vectorstore/memory"
)

func main() {
	_ = godotenv.Load()

	var (
		cfgPath string
		ask     string
		debug   bool
	)
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/smallchain/config.yaml if not provided)")
	flag.StringVar(&ask, "ask", "", "Answer one question from the documents and exit")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.Parse()
	inputs := flag.Args()
	if len(inputs) == 0 {
		fmt.Println("Usage: smallchain [--config=config.yaml] [--ask question] [--debug] file1.txt [file2.md file3.pdf ...]")
		os.Exit(1)
	}

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// In TUI mode the terminal belongs to bubbletea.
	var logOut io.Writer = os.Stderr
	if ask == "" {
		path := cfg.Log.File
		if path == "" {
			path = "smallchain.log"
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatalf("open log file: %v", err)
		}
		defer f.Close()
		logOut = f
	}
	logger.Init(logOut, debug || cfg.Log.Level == "debug")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Assemble components
	emb, batchSize := buildEmbedder(cfg)
	ch := chunker.New(chunker.NewRecursiveSplitter(cfg.Chunker.Limit, cfg.Chunker.Overlap,
		chunker.WithSeparators(cfg.Chunker.Separators...)))
	store := memory.NewCorpus()

	opts := []service.IngestOption{service.WithConcurrency(cfg.Ingest.Concurrency), service.WithBatchSize(batchSize)}
	switch cfg.Summarizer.Type {
	case "frequency", "":
		opts = append(opts, service.WithSummarizer(summarizer.NewFrequency(), cfg.Summarizer.MaxSentences))
	case "none":
	default:
		log.Fatalf("unknown summarizer: %s", cfg.Summarizer.Type)
	}
	svc := service.NewIngestService(ch, emb, store, opts...)
	stats, err := svc.Ingest(ctx, loader.Concat{loader.NewTextLoader(inputs...), loader.NewPDFLoader(inputs...)})
	if err != nil {
		log.Fatalf("ingest failed: %v", err)
	}
	logger.Info("ingested", "documents", stats.Documents, "chunks", stats.Chunks, "dimension", stats.Dimension)

	ret := retriever.New(emb, store, retriever.WithTopK(cfg.Retriever.TopK))
	streamer := buildStreamer(cfg)

	if ask != "" {
		gen := agent.NewGenerator(streamer, "", stdoutSink{})
		chain, err := service.RAGChain(ret, gen, prompt.MustParse(service.DefaultRAGTemplate))
		if err != nil {
			log.Fatal(err)
		}
		if _, err := chain.Invoke(ctx, ask); err != nil {
			log.Fatalf("ask failed: %v", err)
		}
		fmt.Println()
		return
	}

	reg := tools.NewRegistry()
	if err := search.Register(reg, ret); err != nil {
		log.Fatal(err)
	}
	if key := os.Getenv(cfg.Tools.Weather.APIKeyEnv); key != "" {
		if err := weather.Register(reg, weather.NewClient(weather.Config{APIKey: key})); err != nil {
			log.Fatal(err)
		}
	} else {
		logger.Info("weather tool disabled", "env", cfg.Tools.Weather.APIKeyEnv)
	}
	system, err := prompt.SystemPrompt(time.Now(), reg, prompt.SystemOptions{})
	if err != nil {
		log.Fatal(err)
	}

	sink := &tui.ProgramSink{}
	agentOpts := []agent.Option{
		agent.WithSystemPrompt(system),
		agent.WithSink(sink),
		agent.WithPlainTextFallback(true),
	}
	if hs, closeFn := buildHistory(cfg); hs != nil {
		defer closeFn()
		agentOpts = append(agentOpts, agent.WithHistory(hs))
	}
	ag := agent.New(streamer, reg, agentOpts...)
	logger.Info("conversation started", "id", ag.ID())

	p := tea.NewProgram(tui.New(ag, stats.Summary), tea.WithAltScreen(), tea.WithContext(ctx))
	sink.Attach(p)
	if _, err := p.Run(); err != nil {
		log.Fatal(err)
	}
}

func buildEmbedder(cfg *config.AppConfig) (embedding.Embedder, int) {
	switch cfg.Embedder.Type {
	case "tfidf", "":
		return tfidf.NewEmbedder(), 16
	case "openai":
		oc := cfg.Embedder.OpenAI
		client, err := embopenai.NewClient(embopenai.Config{
			BaseURL:    oc.BaseURL,
			APIKeyEnv:  oc.APIKeyEnv,
			Model:      oc.Model,
			APIVersion: oc.APIVersion,
			Timeout:    time.Duration(oc.TimeoutSecs) * time.Second,
		})
		if err != nil {
			log.Fatalf("openai embedder init failed: %v", err)
		}
		return client, oc.BatchSize
	default:
		log.Fatalf("unknown embedder: %s", cfg.Embedder.Type)
	}
	return nil, 0
}

func buildStreamer(cfg *config.AppConfig) domain.ChatStreamer {
	switch cfg.LLM.Type {
	case "openai":
		client, err := llmopenai.NewClient(llmopenai.Config{
			BaseURL:     cfg.LLM.BaseURL,
			APIKeyEnv:   cfg.LLM.APIKeyEnv,
			Model:       cfg.LLM.Model,
			APIVersion:  cfg.LLM.APIVersion,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout(),
		})
		if err != nil {
			log.Fatalf("openai llm init failed: %v", err)
		}
		return client
	case "ollama":
		return ollama.NewClient(ollama.Config{BaseURL: cfg.LLM.BaseURL, Model: cfg.LLM.Model, Timeout: cfg.LLM.Timeout()})
	default:
		log.Fatalf("unknown llm: %s", cfg.LLM.Type)
	}
	return nil
}

func buildHistory(cfg *config.AppConfig) (history.Store, func()) {
	switch cfg.History.Type {
	case "jsonfile":
		s, err := jsonfile.New(cfg.History.Path)
		if err != nil {
			log.Fatalf("history init failed: %v", err)
		}
		return s, func() {}
	case "sqlite":
		s, err := sqlite.Open(cfg.History.Path)
		if err != nil {
			log.Fatalf("history init failed: %v", err)
		}
		return s, func() { _ = s.Close() }
	}
	return nil, nil
}

// stdoutSink prints answer tokens as they stream in.
type stdoutSink struct{}

func (stdoutSink) Token(text string) { fmt.Print(text) }
func (stdoutSink) Thinking()         {}
func (stdoutSink) Info(domain.Frame) {}

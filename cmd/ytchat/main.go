package main

import (
	"flag"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"ytchat/internal/chunker"
	"ytchat/internal/config"
	"ytchat/internal/domain"
	"ytchat/internal/embedding"
	"ytchat/internal/embedding/openai"
	"ytchat/internal/embedding/tfidf"
	"ytchat/internal/generator"
	"ytchat/internal/prompt"
	"ytchat/internal/session"
	"ytchat/internal/summarizer"
	"ytchat/internal/transcript"
	"ytchat/internal/tui"
	"ytchat/internal/vectorstore"
	"ytchat/internal/vectorstore/memory"
	"ytchat/internal/vectorstore/qdrant"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/ytchat/config.yaml if not provided)")
	flag.Parse()

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

	// Assemble components
	var emb embedding.Embedder
	switch cfg.Embedder.Type {
	case "openai", "":
		oc := cfg.Embedder.OpenAI
		if oc == nil {
			oc = &config.OpenAIEmbedderConfig{}
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:   oc.BaseURL,
			APIKeyEnv: oc.APIKeyEnv,
			Model:     oc.Model,
			Timeout:   time.Duration(oc.TimeoutSecs) * time.Second,
			BatchSize: oc.BatchSize,
		})
		if err != nil {
			log.Fatalf("openai embedder init failed: %v", err)
		}
		emb = client
	case "tfidf":
		emb = tfidf.NewEmbedder()
	default:
		log.Fatalf("unknown embedder: %s", cfg.Embedder.Type)
	}

	gen, err := generator.NewClient(generator.Config{
		BaseURL:     cfg.Generator.BaseURL,
		APIKeyEnv:   cfg.Generator.APIKeyEnv,
		Model:       cfg.Generator.Model,
		Temperature: cfg.Generator.Temperature,
		MaxTokens:   cfg.Generator.MaxTokens,
		Timeout:     time.Duration(cfg.Generator.TimeoutSecs) * time.Second,
	})
	if err != nil {
		log.Fatalf("generator init failed: %v", err)
	}

	var newStore func() vectorstore.Storage
	switch cfg.VectorStore.Type {
	case "memory", "":
		newStore = func() vectorstore.Storage { return memory.NewStorage() }
	case "qdrant":
		if cfg.VectorStore.Qdrant == nil {
			log.Fatalf("qdrant config missing")
		}
		qcfg := qdrant.Config{
			URL:        cfg.VectorStore.Qdrant.URL,
			APIKey:     cfg.VectorStore.Qdrant.APIKey,
			Collection: cfg.VectorStore.Qdrant.Collection,
			Timeout:    time.Duration(cfg.VectorStore.Qdrant.TimeoutSecs) * time.Second,
		}
		newStore = func() vectorstore.Storage { return qdrant.NewStorage(qcfg) }
	default:
		log.Fatalf("unknown vector store: %s", cfg.VectorStore.Type)
	}

	tmpl := prompt.Default()
	if cfg.Prompt.Template != "" {
		tmpl, err = prompt.New(cfg.Prompt.Template)
		if err != nil {
			log.Fatalf("invalid prompt template: %v", err)
		}
	}

	var fetcher domain.TranscriptFetcher = transcript.NewClient(time.Duration(cfg.Transcript.TimeoutSecs) * time.Second)
	splitter := chunker.NewSplitter(cfg.Chunker.WindowChars, cfg.Chunker.OverlapChars)
	sum := summarizer.NewFrequencySummarizer()

	sess := session.New(fetcher, splitter, emb, gen, sum, newStore, tmpl, session.Config{
		Languages:    cfg.Transcript.Languages,
		TopK:         cfg.Retriever.TopK,
		MaxSentences: cfg.Summarizer.MaxSentences,
	})

	m := tui.New(sess)
	if url := flag.Arg(0); url != "" {
		m = m.WithURL(url)
	}
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		log.Fatal(err)
	}
}

package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// TranscriptConfig controls transcript fetching.
type TranscriptConfig struct {
	Languages   []string `yaml:"languages"`
	TimeoutSecs int      `yaml:"timeout_secs"`
}

// ChunkerConfig configures how the transcript is split into chunks.
type ChunkerConfig struct {
	WindowChars  int `yaml:"window_chars"`
	OverlapChars int `yaml:"overlap_chars"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	BatchSize   int    `yaml:"batch_size"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// GeneratorConfig configures the chat completion model used for answers.
type GeneratorConfig struct {
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutSecs int     `yaml:"timeout_secs"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type   string        `yaml:"type"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// RetrieverConfig sets how many chunks are retrieved per question.
type RetrieverConfig struct {
	TopK int `yaml:"top_k"`
}

// PromptConfig optionally overrides the built-in prompt template. A custom
// template must contain the {context} and {question} slots.
type PromptConfig struct {
	Template string `yaml:"template,omitempty"`
}

// SummarizerConfig configures the transcript summary shown after loading.
type SummarizerConfig struct {
	MaxSentences int `yaml:"max_sentences"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Transcript  TranscriptConfig  `yaml:"transcript"`
	Chunker     ChunkerConfig     `yaml:"chunker"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	Generator   GeneratorConfig   `yaml:"generator"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Retriever   RetrieverConfig   `yaml:"retriever"`
	Prompt      PromptConfig      `yaml:"prompt"`
	Summarizer  SummarizerConfig  `yaml:"summarizer"`
}

// Load reads a config from a specified path. If the file does not exist,
// returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/ytchat/config.yaml.
// If neither exists, it writes defaults to ~/.config/ytchat/config.yaml and
// returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "ytchat", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		Transcript:  TranscriptConfig{Languages: []string{"en"}, TimeoutSecs: 30},
		Chunker:     ChunkerConfig{WindowChars: 1000, OverlapChars: 200},
		Embedder:    EmbedderConfig{Type: "openai", OpenAI: &OpenAIEmbedderConfig{}},
		Generator:   GeneratorConfig{Temperature: 0.5, MaxTokens: 600},
		VectorStore: VectorStoreConfig{Type: "memory"},
		Retriever:   RetrieverConfig{TopK: 4},
		Summarizer:  SummarizerConfig{MaxSentences: 3},
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	if len(cfg.Transcript.Languages) == 0 {
		cfg.Transcript.Languages = []string{"en"}
	}
	if cfg.Transcript.TimeoutSecs == 0 {
		cfg.Transcript.TimeoutSecs = 30
	}
	if cfg.Chunker.WindowChars == 0 {
		cfg.Chunker.WindowChars = 1000
	}
	if cfg.Chunker.OverlapChars == 0 {
		cfg.Chunker.OverlapChars = 200
	}
	if cfg.Retriever.TopK == 0 {
		cfg.Retriever.TopK = 4
	}
	if cfg.Generator.Temperature == 0 {
		cfg.Generator.Temperature = 0.5
	}
	if cfg.Generator.MaxTokens == 0 {
		cfg.Generator.MaxTokens = 600
	}
	if cfg.Summarizer.MaxSentences == 0 {
		cfg.Summarizer.MaxSentences = 3
	}
	if cfg.Embedder.Type == "openai" && cfg.Embedder.OpenAI == nil {
		cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
	}
}

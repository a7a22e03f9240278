package config

import (
	"fmt"
	"os"
	"strconv"
)

func Load() (*Config, error) {
	personaPath := os.Getenv("DIMON_PERSONA")
	if personaPath == "" {
		personaPath = "persona.md"
	}

	memoryPath := os.Getenv("DIMON_MEMORY")
	if memoryPath == "" {
		memoryPath = "dimon.db"
	}

	tuningPath := os.Getenv("DIMON_TUNING")
	if tuningPath == "" {
		tuningPath = "tuning.yml"
	}

	timezone := os.Getenv("TZ")
	if timezone == "" {
		timezone = "UTC"
	}

	retentionDays := 30
	if d, err := strconv.Atoi(os.Getenv("RETENTION_DAYS")); err == nil && d > 0 {
		retentionDays = d
	}

	llmConfig, err := loadLLMConfig()
	if err != nil {
		return nil, err
	}

	multiBot, err := loadMultiBotConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		PersonaPath:   personaPath,
		MemoryPath:    memoryPath,
		TuningPath:    tuningPath,
		Timezone:      timezone,
		RetentionDays: retentionDays,
		LLM:           llmConfig,
		Embedder:      loadEmbedderConfig(),
		Bots:          multiBot,
		Chat:          loadChatConfig(),
		Storage:       loadStorageConfig(),
	}, nil
}

func loadChatConfig() ChatConfig {
	var chatID int64
	if id, err := strconv.ParseInt(os.Getenv("CHAT_ID"), 10, 64); err == nil {
		chatID = id
	}

	return ChatConfig{ChatID: chatID}
}

func loadStorageConfig() StorageConfig {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		endpoint = "minio:9000"
	}

	bucket := os.Getenv("MINIO_BUCKET")
	if bucket == "" {
		bucket = "dimon-backups"
	}

	accessKey := os.Getenv("MINIO_ACCESS_KEY")
	secretKey := os.Getenv("MINIO_SECRET_KEY")

	return StorageConfig{
		Enabled:   accessKey != "" && secretKey != "",
		Endpoint:  endpoint,
		AccessKey: accessKey,
		SecretKey: secretKey,
		UseSSL:    os.Getenv("MINIO_USE_SSL") == "true",
		Bucket:    bucket,
	}
}

func loadMultiBotConfig() (MultiBot, error) {
	telegramToken := os.Getenv("TELEGRAM_TOKEN")
	discordToken := os.Getenv("DISCORD_TOKEN")

	if telegramToken == "" && discordToken == "" {
		return MultiBot{}, fmt.Errorf("no transport configured: set TELEGRAM_TOKEN or DISCORD_TOKEN")
	}

	return MultiBot{
		Telegram: BotInstance{
			Enabled: telegramToken != "",
			Token:   telegramToken,
		},
		Discord: BotInstance{
			Enabled: discordToken != "",
			Token:   discordToken,
		},
	}, nil
}

func loadEmbedderConfig() EmbedderConfig {
	return EmbedderConfig{
		Provider: os.Getenv("EMBEDDER_PROVIDER"),
		BaseURL:  os.Getenv("EMBEDDER_URL"),
		Model:    os.Getenv("EMBEDDER_MODEL"),
	}
}

func loadLLMConfig() (LLMConfig, error) {
	provider := os.Getenv("LLM_PROVIDER")
	if provider == "" {
		provider = "lmstudio"
	}

	apiKey, err := getAPIKey(provider)
	if err != nil {
		return LLMConfig{}, err
	}

	return LLMConfig{
		Provider: provider,
		APIKey:   apiKey,
		Model:    os.Getenv("LLM_MODEL"),
		BaseURL:  os.Getenv("LLM_BASE_URL"),
	}, nil
}

func getAPIKey(provider string) (string, error) {
	envKey := os.Getenv("LLM_API_KEY")
	if envKey != "" {
		return envKey, nil
	}

	switch provider {
	case "claude":
		key := os.Getenv("ANTHROPIC_API_KEY")
		if key == "" {
			return "", fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
		return key, nil
	case "openai":
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return "", fmt.Errorf("OPENAI_API_KEY not set")
		}
		return key, nil
	case "lmstudio":
		// local server, key is a placeholder
		return "lm-studio", nil
	case "ollama":
		return "ollama", nil
	default:
		return "", fmt.Errorf("unknown provider: %s", provider)
	}
}

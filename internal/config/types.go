package config

type Config struct {
	PersonaPath   string
	MemoryPath    string
	TuningPath    string
	Timezone      string
	RetentionDays int

	LLM      LLMConfig
	Embedder EmbedderConfig
	Bots     MultiBot
	Chat     ChatConfig
	Storage  StorageConfig
}

type LLMConfig struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
}

type EmbedderConfig struct {
	Provider string
	BaseURL  string
	Model    string
}

type BotInstance struct {
	Enabled bool
	Token   string
}

type MultiBot struct {
	Telegram BotInstance
	Discord  BotInstance
}

// ChatConfig scopes the agent to one group chat; zero means any chat.
type ChatConfig struct {
	ChatID int64
}

type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

package bot

import (
	"context"

	"github.com/r0d10nq/dimon/internal/agent"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Bot interface {
	Start(ctx context.Context) error
	Send(chatID int64, message string) error
}

type Config struct {
	Provider string
	Token    string

	// ChatID restricts the agent to one group chat; private chats always
	// pass. Zero means no restriction.
	ChatID int64
}

type telegram struct {
	api   *tgbotapi.BotAPI
	agent *agent.Agent
	cfg   Config
}

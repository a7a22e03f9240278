package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/r0d10nq/dimon/internal/agent"
	"github.com/r0d10nq/dimon/internal/logger"
)

func newTelegram(cfg Config, agent *agent.Agent) (Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}

	return &telegram{api: api, agent: agent, cfg: cfg}, nil
}

func (t *telegram) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := t.api.GetUpdatesChan(u)

	logger.Info("telegram bot started", "username", t.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update := <-updates:
			if update.Message == nil {
				continue
			}

			go t.handleMessage(ctx, update.Message)
		}
	}
}

func (t *telegram) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.From.IsBot {
		return
	}
	if !t.wantsMessage(msg) {
		return
	}

	if msg.IsCommand() {
		t.handleCommand(msg)
		return
	}

	if msg.Text == "" {
		return
	}

	logger.Debug("message received", "chat", msg.Chat.ID, "from", msg.From.UserName, "text", truncate(msg.Text, 50))

	out := t.agent.Process(ctx, agent.Inbound{
		Platform:     "telegram",
		UserID:       msg.From.ID,
		ChatID:       msg.Chat.ID,
		Username:     displayName(msg.From),
		Text:         msg.Text,
		ReplyToAgent: t.isReplyToMe(msg),
		Timestamp:    msg.Time(),
	})

	if !out.Respond {
		return
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, out.Reply)
	reply.ReplyToMessageID = msg.MessageID

	if _, err := t.api.Send(reply); err != nil {
		logger.Error("send failed", "error", err)
	}
}

// wantsMessage applies the group-chat scoping. Private chats always pass
// so DM initiations can get answers.
func (t *telegram) wantsMessage(msg *tgbotapi.Message) bool {
	if msg.Chat.IsPrivate() {
		return true
	}
	return t.cfg.ChatID == 0 || msg.Chat.ID == t.cfg.ChatID
}

func (t *telegram) isReplyToMe(msg *tgbotapi.Message) bool {
	return msg.ReplyToMessage != nil &&
		msg.ReplyToMessage.From != nil &&
		msg.ReplyToMessage.From.ID == t.api.Self.ID
}

func (t *telegram) handleCommand(msg *tgbotapi.Message) {
	var text string

	switch msg.Command() {
	case "start":
		text = "Here. Listening. Talk whenever."
	case "status":
		text = statusText(t.agent)
	case "memory":
		text = memoryText(t.agent, msg.From.ID)
	default:
		return
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, text)
	if _, err := t.api.Send(reply); err != nil {
		logger.Error("command reply failed", "command", msg.Command(), "error", err)
	}
}

func (t *telegram) Send(chatID int64, message string) error {
	msg := tgbotapi.NewMessage(chatID, message)
	_, err := t.api.Send(msg)
	if err != nil {
		logger.Error("proactive send failed", "error", err, "chatID", chatID)
	} else {
		logger.Info("proactive message sent", "chatID", chatID, "chars", len(message))
	}
	return err
}

func displayName(u *tgbotapi.User) string {
	if u.UserName != "" {
		return u.UserName
	}
	return u.FirstName
}

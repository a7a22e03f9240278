package bot

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/r0d10nq/dimon/internal/agent"
	"github.com/r0d10nq/dimon/internal/logger"
)

type discord struct {
	session *discordgo.Session
	agent   *agent.Agent
	cfg     Config
	ctx     context.Context
}

func newDiscord(cfg Config, agent *agent.Agent) (Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, err
	}

	d := &discord{
		session: session,
		agent:   agent,
		cfg:     cfg,
	}

	session.AddHandler(d.handleMessage)

	return d, nil
}

func (d *discord) Start(ctx context.Context) error {
	d.ctx = ctx

	if err := d.session.Open(); err != nil {
		return err
	}

	logger.Info("discord bot started")

	<-ctx.Done()
	return d.session.Close()
}

func (d *discord) Send(chatID int64, message string) error {
	channelID := fmt.Sprintf("%d", chatID)
	_, err := d.session.ChannelMessageSend(channelID, message)
	if err != nil {
		logger.Error("discord send failed", "error", err, "channelID", channelID)
	} else {
		logger.Info("discord message sent", "channelID", channelID, "chars", len(message))
	}
	return err
}

func (d *discord) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.Author.ID == s.State.User.ID {
		return
	}
	if m.Content == "" {
		return
	}

	userID, err := strconv.ParseInt(m.Author.ID, 10, 64)
	if err != nil {
		return
	}
	chatID, err := strconv.ParseInt(m.ChannelID, 10, 64)
	if err != nil {
		return
	}
	if d.cfg.ChatID != 0 && chatID != d.cfg.ChatID && m.GuildID != "" {
		return
	}

	logger.Debug("message received", "from", m.Author.Username, "text", truncate(m.Content, 50))

	out := d.agent.Process(d.ctx, agent.Inbound{
		Platform:     "discord",
		UserID:       userID,
		ChatID:       chatID,
		Username:     m.Author.Username,
		Text:         m.Content,
		ReplyToAgent: d.isReplyToMe(s, m),
		Timestamp:    time.Now(),
	})

	if !out.Respond {
		return
	}

	if _, err := s.ChannelMessageSendReply(m.ChannelID, out.Reply, m.Reference()); err != nil {
		logger.Error("discord reply failed", "error", err)
	}
}

func (d *discord) isReplyToMe(s *discordgo.Session, m *discordgo.MessageCreate) bool {
	if m.ReferencedMessage != nil && m.ReferencedMessage.Author != nil &&
		m.ReferencedMessage.Author.ID == s.State.User.ID {
		return true
	}
	for _, u := range m.Mentions {
		if u.ID == s.State.User.ID {
			return true
		}
	}
	return false
}

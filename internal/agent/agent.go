package agent

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/r0d10nq/dimon/internal/engage"
	"github.com/r0d10nq/dimon/internal/llm"
	"github.com/r0d10nq/dimon/internal/logger"
	"github.com/r0d10nq/dimon/internal/session"
	"github.com/r0d10nq/dimon/pkg/dimonmem"
)

const llmTimeout = 60 * time.Second
const contextBudget = 2000

func New(model llm.LLM, memory *dimonmem.Store, arbiter *engage.Arbiter, personaPath, timezone string) *Agent {
	persona := loadPersona(personaPath)

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		logger.Warn("invalid timezone, using UTC", "timezone", timezone, "error", err)
		loc = time.UTC
	}

	return &Agent{
		llm:      model,
		memory:   memory,
		arbiter:  arbiter,
		sessions: session.NewStore(),
		persona:  persona,
		timezone: loc,
	}
}

func loadPersona(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("persona file missing, running without one", "path", path)
		return ""
	}

	return string(data)
}

// Process runs one inbound message through the whole pipeline: durable
// append, profile update, engagement decision, and reply generation. It
// never returns an error; every failure degrades to silence so one user's
// trouble cannot crash the loop or poison another user's state.
func (a *Agent) Process(ctx context.Context, in Inbound) Outcome {
	trace := uuid.New().String()[:8]

	sess := a.sessions.Get(fmt.Sprintf("%s:%d", in.Platform, in.UserID))
	sess.Lock()
	defer sess.Unlock()

	ev := &dimonmem.Event{
		UserID:    in.UserID,
		ChatID:    in.ChatID,
		Username:  in.Username,
		RawText:   in.Text,
		CreatedAt: in.Timestamp,
	}

	if _, err := a.memory.Append(ctx, ev); err != nil {
		var verr *dimonmem.ValidationError
		if errors.As(err, &verr) {
			logger.Debug("event rejected", "trace", trace, "field", verr.Field)
			return Outcome{Reason: "invalid_event"}
		}
		logger.Error("append failed", "trace", trace, "error", err)
		return Outcome{Reason: "store_failed"}
	}

	profile, err := a.memory.ApplyEvent(ev)
	if err != nil {
		logger.Error("profile update failed", "trace", trace, "error", err)
		// decision still runs; a nil profile means stranger treatment
	}

	sess.AddMessage("user", fmt.Sprintf("%s: %s", displayName(in), in.Text))

	decision := a.arbiter.Decide(profile, in.UserID, in.ChatID, in.Text, in.ReplyToAgent)
	logger.Debug("decision", "trace", trace, "respond", decision.Respond, "reason", decision.Reason, "state", decision.State.String())

	if !decision.Respond {
		return Outcome{Reason: decision.Reason}
	}

	bundle, err := a.memory.BuildContext(ctx, in.UserID, in.ChatID, in.Text, contextBudget)
	if err != nil {
		logger.Error("context build failed", "trace", trace, "error", err)
		bundle = nil
	}

	llmCtx, cancel := context.WithTimeout(ctx, llmTimeout)
	defer cancel()

	reply, err := a.llm.Chat(llmCtx, a.systemPrompt(bundle, profile, decision.Reason), sess.Messages())
	if err != nil {
		logger.Error("llm failed, staying silent", "trace", trace, "error", err)
		return Outcome{Reason: "llm_failed"}
	}

	reply = cleanReply(reply)
	if reply == "" {
		return Outcome{Reason: "empty_reply"}
	}

	sess.AddMessage("assistant", reply)
	logger.Info("replying", "trace", trace, "user", in.UserID, "reason", decision.Reason, "chars", len(reply))

	return Outcome{Respond: true, Reply: reply, Reason: decision.Reason}
}

func displayName(in Inbound) string {
	if in.Username != "" {
		return in.Username
	}
	return fmt.Sprintf("user%d", in.UserID)
}

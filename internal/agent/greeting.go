package agent

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/r0d10nq/dimon/internal/engage"
	"github.com/r0d10nq/dimon/internal/llm"
	"github.com/r0d10nq/dimon/internal/logger"
)

// Static fallbacks keep the proactive path alive when the LLM is down.
var morningFallbacks = []string{
	"Morning. Another day, huh.",
	"Good morning. Coffee first, talk later.",
	"Morning! Hope the day treats you alright.",
}

var fridayMorningFallbacks = []string{
	"Morning! It's Friday, we're almost there.",
	"Friday morning. Hold on, weekend incoming.",
}

var eveningFallbacks = []string{
	"Evening. How did the day go?",
	"Workday's done. What's left of you?",
}

var fridayEveningFallbacks = []string{
	"It's Friday evening! Week survived.",
	"Friday's done. Enjoy the weekend.",
}

// Greeting generates a proactive message for one eligible user. Friday
// gets its own flavor. An LLM failure falls back on a canned line so the
// tick never goes fully quiet.
func (a *Agent) Greeting(ctx context.Context, in engage.Initiation, now time.Time) string {
	friday := now.Weekday() == time.Friday

	prompt := greetingPrompt(in, friday)

	llmCtx, cancel := context.WithTimeout(ctx, llmTimeout)
	defer cancel()

	reply, err := a.llm.Chat(llmCtx, a.persona, []llm.Message{{Role: "user", Content: prompt}})
	if err != nil {
		logger.Warn("greeting generation failed, using fallback", "user", in.UserID, "error", err)
		return fallbackGreeting(in.Slot, friday)
	}

	reply = cleanReply(reply)
	if reply == "" {
		return fallbackGreeting(in.Slot, friday)
	}

	return reply
}

func greetingPrompt(in engage.Initiation, friday bool) string {
	name := in.Username
	if name == "" {
		name = "an old chat acquaintance"
	}

	day := "a workday"
	if friday {
		day = "Friday, the last workday of the week"
	}

	if in.Slot == engage.SlotEvening {
		return fmt.Sprintf("Write a short, casual end-of-workday message to %s. It is the evening of %s. One or two sentences, in character.", name, day)
	}
	return fmt.Sprintf("Write a short, casual good-morning message to %s. It is the morning of %s. One or two sentences, in character.", name, day)
}

func fallbackGreeting(slot engage.Slot, friday bool) string {
	var pool []string
	switch {
	case slot == engage.SlotEvening && friday:
		pool = fridayEveningFallbacks
	case slot == engage.SlotEvening:
		pool = eveningFallbacks
	case friday:
		pool = fridayMorningFallbacks
	default:
		pool = morningFallbacks
	}

	return pool[rand.Intn(len(pool))]
}

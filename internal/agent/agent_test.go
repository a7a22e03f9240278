package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/r0d10nq/dimon/internal/engage"
	"github.com/r0d10nq/dimon/internal/llm"
	"github.com/r0d10nq/dimon/pkg/dimonmem"
)

type stubLLM struct {
	reply string
	err   error
	calls int
}

func (s *stubLLM) Chat(_ context.Context, _ string, _ []llm.Message) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func openTestMemory(t *testing.T) *dimonmem.Store {
	t.Helper()
	store, err := dimonmem.Open(":memory:")
	if err != nil {
		t.Fatalf("open memory store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// alwaysPolicy responds to everything instantly; neverPolicy only responds
// to direct address. Both make arbiter outcomes deterministic without
// touching its random source.
func alwaysPolicy() engage.Policy {
	p := basePolicy()
	for tier := range p.Tiers {
		p.Tiers[tier] = engage.TierPolicy{Probability: 1, Cooldown: 0}
	}
	p.MaxProbability = 1
	return p
}

func neverPolicy() engage.Policy {
	p := basePolicy()
	for tier := range p.Tiers {
		p.Tiers[tier] = engage.TierPolicy{Probability: 0, Cooldown: 0}
	}
	p.SilentBonus = 0
	p.MaxProbability = 0
	return p
}

func basePolicy() engage.Policy {
	p := engage.DefaultPolicy
	tiers := make(map[dimonmem.Tier]engage.TierPolicy, len(p.Tiers))
	for k, v := range p.Tiers {
		tiers[k] = v
	}
	p.Tiers = tiers
	return p
}

func testAgent(t *testing.T, model *stubLLM, policy engage.Policy) *Agent {
	t.Helper()
	return New(model, openTestMemory(t), engage.New(policy), "testdata/absent-persona.md", "UTC")
}

func inbound(text string) Inbound {
	return Inbound{
		Platform:  "telegram",
		UserID:    1,
		ChatID:    10,
		Username:  "lena",
		Text:      text,
		Timestamp: time.Now(),
	}
}

func TestProcessRespondsAndRecords(t *testing.T) {
	model := &stubLLM{reply: "Sure, sounds good."}
	a := testAgent(t, model, alwaysPolicy())

	out := a.Process(context.Background(), inbound("hello there"))
	if !out.Respond {
		t.Fatalf("expected a response, got reason %q", out.Reason)
	}
	if out.Reply != "Sure, sounds good." {
		t.Errorf("reply = %q", out.Reply)
	}

	p, err := a.memory.GetProfile(1)
	if err != nil {
		t.Fatalf("profile should exist after processing: %v", err)
	}
	if p.InteractionCount != 1 {
		t.Errorf("InteractionCount = %d, want 1", p.InteractionCount)
	}
}

func TestProcessSuppressedStillRemembers(t *testing.T) {
	model := &stubLLM{reply: "should never be called"}
	a := testAgent(t, model, neverPolicy())

	out := a.Process(context.Background(), inbound("just chatting"))
	if out.Respond {
		t.Fatal("never-policy should suppress")
	}
	if model.calls != 0 {
		t.Error("suppressed message must not hit the LLM")
	}

	// the event is stored regardless of the decision
	events, err := a.memory.RecentEvents(1, 10)
	if err != nil {
		t.Fatalf("RecentEvents: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("expected 1 stored event, got %d", len(events))
	}
}

func TestProcessDirectAddressOverrides(t *testing.T) {
	model := &stubLLM{reply: "Yes?"}
	a := testAgent(t, model, neverPolicy())

	out := a.Process(context.Background(), inbound("dimon, you alive?"))
	if !out.Respond {
		t.Fatalf("direct address must force a response, got %q", out.Reason)
	}
	if out.Reason != "direct_address" {
		t.Errorf("reason = %q", out.Reason)
	}
}

func TestProcessLLMFailureFallsSilent(t *testing.T) {
	model := &stubLLM{err: errors.New("inference down")}
	a := testAgent(t, model, alwaysPolicy())

	out := a.Process(context.Background(), inbound("hello"))
	if out.Respond {
		t.Fatal("LLM failure must degrade to silence, not an error reply")
	}
	if out.Reason != "llm_failed" {
		t.Errorf("reason = %q, want llm_failed", out.Reason)
	}
}

func TestProcessRejectsEmptyText(t *testing.T) {
	a := testAgent(t, &stubLLM{}, alwaysPolicy())

	out := a.Process(context.Background(), inbound("   "))
	if out.Respond || out.Reason != "invalid_event" {
		t.Errorf("outcome = %+v, want invalid_event suppression", out)
	}
}

func TestCleanReply(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Fine by me.", "Fine by me."},
		{"think block", "<think>reasoning here</think>\nFine by me.", "Fine by me."},
		{"wrapping quotes", `"Fine by me."`, "Fine by me."},
		{"speaker prefix", "Dimon: Fine by me.", "Fine by me."},
		{"whitespace", "  Fine by me.  ", "Fine by me."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanReply(tt.in); got != tt.want {
				t.Errorf("cleanReply(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanReplyClampsAtSentence(t *testing.T) {
	long := strings.Repeat("A long sentence goes here. ", 40)
	got := cleanReply(long)
	if len(got) > maxReplyLen {
		t.Fatalf("reply length %d exceeds cap %d", len(got), maxReplyLen)
	}
	if !strings.HasSuffix(got, ".") {
		t.Errorf("clamp should end at a sentence boundary, got %q", got[len(got)-10:])
	}
}

func TestCleanReplyClampsCyrillicOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("длинное предложение на кириллице без точки ", 30)
	got := cleanReply(long)

	if !utf8.ValidString(got) {
		t.Fatalf("clamp split a multibyte rune: %q", got[len(got)-12:])
	}
	if utf8.RuneCountInString(got) > maxReplyLen {
		t.Errorf("reply length %d runes exceeds cap %d", utf8.RuneCountInString(got), maxReplyLen)
	}
	// no sentence end in the text, so the clamp backs up to a word break
	if strings.HasSuffix(got, " ") || got == "" {
		t.Errorf("clamp left a ragged edge: %q", got)
	}
}

func TestGreetingFallsBackWhenLLMDown(t *testing.T) {
	model := &stubLLM{err: errors.New("inference down")}
	a := testAgent(t, model, alwaysPolicy())

	in := engage.Initiation{UserID: 1, ChatID: 1, Username: "lena", Slot: engage.SlotMorning}
	monday := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	if got := a.Greeting(context.Background(), in, monday); got == "" {
		t.Error("greeting must fall back to a canned line, never empty")
	}
}

func TestSchedulerTickGreetsOncePerDay(t *testing.T) {
	model := &stubLLM{reply: "Morning!"}

	policy := alwaysPolicy()
	policy.MinInitiationTier = dimonmem.TierStranger
	a := testAgent(t, model, policy)

	// a known user exists
	ev := &dimonmem.Event{UserID: 1, Username: "lena", RawText: "hi"}
	if _, err := a.memory.Append(context.Background(), ev); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := a.memory.ApplyEvent(ev); err != nil {
		t.Fatalf("ApplyEvent: %v", err)
	}

	var sent []int64
	s := NewScheduler(a, func(chatID int64, message string) error {
		sent = append(sent, chatID)
		return nil
	})

	monday := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	s.Tick(context.Background(), monday, engage.SlotMorning)

	if len(sent) != 1 || sent[0] != 1 {
		t.Fatalf("expected one greeting to chat 1, got %v", sent)
	}

	// evening tick the same day stays quiet
	s.Tick(context.Background(), monday.Add(9*time.Hour), engage.SlotEvening)
	if len(sent) != 1 {
		t.Errorf("second greeting sent on the same day: %v", sent)
	}

	// next workday is eligible again
	s.Tick(context.Background(), monday.AddDate(0, 0, 1), engage.SlotMorning)
	if len(sent) != 2 {
		t.Errorf("expected a greeting the next day, got %v", sent)
	}
}

package agent

import (
	"time"

	"github.com/r0d10nq/dimon/internal/engage"
	"github.com/r0d10nq/dimon/internal/llm"
	"github.com/r0d10nq/dimon/internal/session"
	"github.com/r0d10nq/dimon/pkg/dimonmem"
)

// Inbound is one message delivered by a transport.
type Inbound struct {
	Platform     string
	UserID       int64
	ChatID       int64
	Username     string
	Text         string
	ReplyToAgent bool
	Timestamp    time.Time
}

// Outcome is what the transport does with the message: send Reply, or
// nothing. Reason carries the arbiter verdict for logging.
type Outcome struct {
	Respond bool
	Reply   string
	Reason  string
}

type Agent struct {
	llm      llm.LLM
	memory   *dimonmem.Store
	arbiter  *engage.Arbiter
	sessions *session.Store
	persona  string
	timezone *time.Location
}

func (a *Agent) Memory() *dimonmem.Store {
	return a.memory
}

func (a *Agent) Timezone() *time.Location {
	return a.timezone
}

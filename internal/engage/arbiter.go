package engage

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/r0d10nq/dimon/pkg/dimonmem"
)

// State is where a (user, chat) pair sits between decisions. Cooldown is
// never ticked by a timer, it is a pure function of elapsed time evaluated
// when the next message or tick arrives.
type State int

const (
	StateIdle State = iota
	StateCooldown
	StateEligible
)

func (s State) String() string {
	switch s {
	case StateCooldown:
		return "cooldown"
	case StateEligible:
		return "eligible"
	default:
		return "idle"
	}
}

type Decision struct {
	Respond bool
	State   State
	Reason  string
}

type key struct {
	userID int64
	chatID int64
}

// chatState is a cache, not a source of truth. Losing it on restart only
// resets cooldowns and silence counters.
type chatState struct {
	lastResponseAt time.Time
	silentCount    int
}

type Arbiter struct {
	mu     sync.Mutex
	policy Policy
	state  map[key]*chatState

	now  func() time.Time
	rand func() float64
}

func New(policy Policy) *Arbiter {
	return &Arbiter{
		policy: policy,
		state:  make(map[key]*chatState),
		now:    time.Now,
		rand:   rand.Float64,
	}
}

// Decide runs one inbound message through the state machine. A nil profile
// means an unknown user and defaults to stranger behavior, never an error.
// Direct address (the agent's name in the text, or a reply to the agent)
// forces a response, cooldown included.
func (a *Arbiter) Decide(profile *dimonmem.Profile, userID, chatID int64, text string, replyToAgent bool) Decision {
	tier := dimonmem.TierStranger
	if profile != nil {
		tier = profile.Tier
	}
	tp := a.policy.forTier(tier)

	direct := replyToAgent || a.policy.matchesTrigger(text)

	a.mu.Lock()
	defer a.mu.Unlock()

	k := key{userID: userID, chatID: chatID}
	st := a.state[k]
	if st == nil {
		st = &chatState{}
		a.state[k] = st
	}

	now := a.now()
	cooling := !st.lastResponseAt.IsZero() && now.Sub(st.lastResponseAt) < tp.Cooldown

	if direct {
		st.lastResponseAt = now
		st.silentCount = 0
		return Decision{Respond: true, State: StateCooldown, Reason: "direct_address"}
	}

	if cooling {
		st.silentCount++
		return Decision{Respond: false, State: StateCooldown, Reason: "cooldown"}
	}

	p := tp.Probability + float64(st.silentCount)*a.policy.SilentBonus
	if p > a.policy.MaxProbability {
		p = a.policy.MaxProbability
	}

	if a.rand() < p {
		st.lastResponseAt = now
		st.silentCount = 0
		return Decision{Respond: true, State: StateCooldown, Reason: "probability"}
	}

	st.silentCount++
	return Decision{Respond: false, State: StateIdle, Reason: "probability"}
}

// matchesTrigger reports whether the text addresses the agent by name.
func (p Policy) matchesTrigger(text string) bool {
	lower := strings.ToLower(text)
	for _, t := range p.Triggers {
		if t != "" && strings.Contains(lower, strings.ToLower(t)) {
			return true
		}
	}
	return false
}

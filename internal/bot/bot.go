package bot

import (
	"fmt"

	"github.com/r0d10nq/dimon/internal/agent"
)

func New(cfg Config, agent *agent.Agent) (Bot, error) {
	switch cfg.Provider {
	case "telegram":
		return newTelegram(cfg, agent)
	case "discord":
		return newDiscord(cfg, agent)
	default:
		return nil, fmt.Errorf("unknown bot provider: %s", cfg.Provider)
	}
}

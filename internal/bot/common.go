package bot

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/r0d10nq/dimon/internal/agent"
	"github.com/r0d10nq/dimon/pkg/dimonmem"
)

var startedAt = time.Now()

// statusText builds the /status reply: process uptime, memory store
// counters, and host health.
func statusText(a *agent.Agent) string {
	var b strings.Builder

	uptime := time.Since(startedAt).Round(time.Second)
	fmt.Fprintf(&b, "Up %s.\n", uptime)

	if stats, err := a.Memory().CollectStats(); err == nil {
		fmt.Fprintf(&b, "Remembering %d messages (%d indexed) from %d people.\n",
			stats.EventCount, stats.EmbeddedRows, stats.UserCount)

		var tiers []string
		for tier := dimonmem.TierBuddy; tier >= dimonmem.TierStranger; tier-- {
			if n := stats.TierCounts[tier]; n > 0 {
				tiers = append(tiers, fmt.Sprintf("%d %s", n, tier))
			}
		}
		if len(tiers) > 0 {
			fmt.Fprintf(&b, "Relationships: %s.\n", strings.Join(tiers, ", "))
		}
	} else {
		b.WriteString("Memory store unreachable right now.\n")
	}

	if cpuPercent, err := cpu.Percent(0, false); err == nil && len(cpuPercent) > 0 {
		fmt.Fprintf(&b, "CPU %.0f%%", cpuPercent[0])
	}
	if memInfo, err := mem.VirtualMemory(); err == nil {
		fmt.Fprintf(&b, ", RAM %.0f%%", memInfo.UsedPercent)
	}
	if diskInfo, err := disk.Usage("/"); err == nil {
		fmt.Fprintf(&b, ", disk %.0f%%", diskInfo.UsedPercent)
	}
	b.WriteString(".")

	return b.String()
}

// memoryText builds the /memory reply: what the agent knows about the
// asking user.
func memoryText(a *agent.Agent, userID int64) string {
	p, err := a.Memory().GetProfile(userID)
	if err != nil {
		return "I don't know you yet. Say something."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "We're at %s (%d interactions, score %.1f).\n",
		p.Tier, p.InteractionCount, p.RelationshipScore)

	if len(p.Traits) > 0 {
		fmt.Fprintf(&b, "Traits I picked up: %s.\n", strings.Join(traitLines(p.Traits), ", "))
	}

	if events, err := a.Memory().RecentEvents(userID, 3); err == nil && len(events) > 0 {
		b.WriteString("Last things you said:\n")
		for _, ev := range events {
			fmt.Fprintf(&b, "- %s\n", truncate(ev.RawText, 80))
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// traitLines orders traits strongest first so repeated /memory calls print
// the same listing.
func traitLines(traits map[string]float64) []string {
	names := make([]string, 0, len(traits))
	for name := range traits {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if traits[names[i]] != traits[names[j]] {
			return traits[names[i]] > traits[names[j]]
		}
		return names[i] < names[j]
	})

	lines := make([]string, len(names))
	for i, name := range names {
		lines[i] = fmt.Sprintf("%s %.2f", name, traits[name])
	}
	return lines
}

// truncate cuts on rune boundaries; byte slicing could split multibyte
// text mid-character and telegram rejects invalid UTF-8.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}

	return string(runes[:max]) + "..."
}

// Package featureflags evaluates runtime feature flags from a comma-separated
// definition list, e.g. "comment_fanout=on,experimental_ranking=25%".
package featureflags

import (
	"hash/fnv"
	"strconv"
	"strings"
)

// Flags consulted by the services. Defining them here keeps the flag names in
// one place instead of scattered through call sites.
const (
	// FlagCommentFanout gates the subscriber notification fan-out that runs
	// after a comment is created. Defaults to enabled when unset.
	FlagCommentFanout = "comment_fanout"
)

type mode int

const (
	modeOff mode = iota
	modeOn
	modeRollout
)

// rule is one parsed flag definition. Malformed definitions are dropped at
// parse time so evaluation never has to re-validate strings.
type rule struct {
	mode    mode
	percent int
}

// Manager holds the parsed flag rules. The zero value and a nil Manager both
// behave as "nothing configured".
type Manager struct {
	rules map[string]rule
}

// NewManager parses a comma-separated list of name=value pairs. Values are
// "on", "off", "true", "false", "1", "0", or "N%" for a deterministic
// percentage rollout. Pairs that do not parse are ignored.
func NewManager(raw string) *Manager {
	rules := make(map[string]rule)
	for _, pair := range strings.Split(raw, ",") {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		name = canon(name)
		r, ok := parseRule(canon(value))
		if name == "" || !ok {
			continue
		}
		rules[name] = r
	}
	return &Manager{rules: rules}
}

func parseRule(value string) (rule, bool) {
	switch value {
	case "on", "true", "1":
		return rule{mode: modeOn}, true
	case "off", "false", "0":
		return rule{mode: modeOff}, true
	}
	pct, found := strings.CutSuffix(value, "%")
	if !found {
		return rule{}, false
	}
	n, err := strconv.Atoi(pct)
	if err != nil || n < 0 || n > 100 {
		return rule{}, false
	}
	return rule{mode: modeRollout, percent: n}, true
}

// Enabled reports whether the flag is on for the given user. Unconfigured
// flags are off.
func (m *Manager) Enabled(name string, userID uint) bool {
	return m.EnabledOrDefault(name, userID, false)
}

// EnabledOrDefault is Enabled with an explicit fallback for flags that are
// not configured. Features that ship enabled pass def=true so operators only
// need to define the flag to turn them off.
func (m *Manager) EnabledOrDefault(name string, userID uint, def bool) bool {
	if m == nil {
		return def
	}
	r, ok := m.rules[canon(name)]
	if !ok {
		return def
	}
	switch r.mode {
	case modeOn:
		return true
	case modeRollout:
		if r.percent >= 100 {
			return true
		}
		// Anonymous users have no stable identity to bucket on.
		if r.percent == 0 || userID == 0 {
			return false
		}
		return bucket(canon(name), userID) < r.percent
	}
	return false
}

// Raw returns the configured flags in their definition form, for the admin
// inspection endpoint.
func (m *Manager) Raw() map[string]string {
	out := make(map[string]string, len(m.rules))
	for name, r := range m.rules {
		switch r.mode {
		case modeOn:
			out[name] = "on"
		case modeRollout:
			out[name] = strconv.Itoa(r.percent) + "%"
		default:
			out[name] = "off"
		}
	}
	return out
}

// Snapshot evaluates every configured flag for one user.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool, len(m.rules))
	for name := range m.rules {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func canon(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// bucket maps a (flag, user) pair onto 0..99. The hash input is stable so a
// user stays inside or outside a rollout across restarts.
func bucket(name string, userID uint) int {
	h := fnv.New32a()
	h.Write([]byte(name))
	h.Write([]byte{'/'})
	h.Write([]byte(strconv.FormatUint(uint64(userID), 10)))
	return int(h.Sum32() % 100)
}

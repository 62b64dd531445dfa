// Package roster loads and serves officer definitions for the war room.
// The roster file is the single source of truth; the Registry is an explicit,
// reloadable snapshot of it so components never read ambient global state.
package roster

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// CapabilityClass groups officers into coarse duty tiers.
type CapabilityClass string

const (
	ClassStrategic   CapabilityClass = "Strategic"
	ClassOperational CapabilityClass = "Operational"
	ClassTactical    CapabilityClass = "Tactical"
	ClassSupport     CapabilityClass = "Support"
)

// Valid reports whether c is one of the four known capability classes.
func (c CapabilityClass) Valid() bool {
	switch c {
	case ClassStrategic, ClassOperational, ClassTactical, ClassSupport:
		return true
	}
	return false
}

// Capability class embed colors, with a grey fallback for anything unknown.
const defaultColor = 0x95A5A6

var classColors = map[CapabilityClass]int{
	ClassStrategic:   0x9B59B6,
	ClassOperational: 0x3498DB,
	ClassTactical:    0x2ECC71,
	ClassSupport:     0xF39C12,
}

// ClassColor resolves a class name (any case) to its display color, grey for
// anything unknown or empty.
func ClassColor(class string) int {
	for c, color := range classColors {
		if strings.EqualFold(string(c), class) {
			return color
		}
	}
	return defaultColor
}

// Officer is one configured LLM-backed participant. Immutable per request.
type Officer struct {
	ID              string          `json:"-"`
	Title           string          `json:"title"`
	Model           string          `json:"model"`
	Specialty       string          `json:"specialty"`
	CapabilityClass CapabilityClass `json:"capability_class"`
	Color           string          `json:"color,omitempty"`
	SystemPrompt    string          `json:"system_prompt"`
}

// EmbedColor resolves the display color: an explicit hex color on the officer
// wins, otherwise the capability class color, otherwise grey.
func (o Officer) EmbedColor() int {
	if o.Color != "" {
		hex := strings.TrimPrefix(strings.TrimPrefix(o.Color, "0x"), "#")
		if v, err := strconv.ParseInt(hex, 16, 32); err == nil {
			return int(v)
		}
	}
	if c, ok := classColors[o.CapabilityClass]; ok {
		return c
	}
	return defaultColor
}

// document is the on-disk roster shape.
type document struct {
	Version      string             `json:"version"`
	ActiveRoster []string           `json:"active_roster"`
	Officers     map[string]Officer `json:"officers"`
}

// Registry holds the loaded roster. Safe for concurrent reads; Reload swaps
// the snapshot atomically under the write lock.
type Registry struct {
	mu      sync.RWMutex
	path    string
	version string
	active  []Officer          // active_roster order
	byID    map[string]Officer // all definitions, including inactive ones
}

// Load reads and validates the roster file at path.
// Validation failures are fatal configuration errors, never skipped.
func Load(path string) (*Registry, error) {
	r := &Registry{path: path}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-reads the roster file and replaces the registry snapshot.
// On error the previous snapshot is kept.
func (r *Registry) Reload() error {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return fmt.Errorf("read roster: %w", err)
	}
	version, active, byID, err := parse(data)
	if err != nil {
		return fmt.Errorf("roster %s: %w", r.path, err)
	}

	r.mu.Lock()
	r.version = version
	r.active = active
	r.byID = byID
	r.mu.Unlock()
	return nil
}

func parse(data []byte) (string, []Officer, map[string]Officer, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", nil, nil, fmt.Errorf("parse: %w", err)
	}
	if len(doc.ActiveRoster) == 0 {
		return "", nil, nil, fmt.Errorf("active_roster is empty")
	}

	byID := make(map[string]Officer, len(doc.Officers))
	for id, o := range doc.Officers {
		o.ID = id
		if !o.CapabilityClass.Valid() {
			return "", nil, nil, fmt.Errorf("officer %s: unknown capability_class %q", id, o.CapabilityClass)
		}
		if strings.TrimSpace(o.Model) == "" {
			return "", nil, nil, fmt.Errorf("officer %s: empty model", id)
		}
		if strings.TrimSpace(o.SystemPrompt) == "" {
			return "", nil, nil, fmt.Errorf("officer %s: empty system_prompt", id)
		}
		byID[id] = o
	}

	seen := make(map[string]bool, len(doc.ActiveRoster))
	active := make([]Officer, 0, len(doc.ActiveRoster))
	for _, id := range doc.ActiveRoster {
		if seen[id] {
			return "", nil, nil, fmt.Errorf("duplicate id %q in active_roster", id)
		}
		seen[id] = true
		o, ok := byID[id]
		if !ok {
			return "", nil, nil, fmt.Errorf("active_roster id %q has no officer definition", id)
		}
		active = append(active, o)
	}
	return doc.Version, active, byID, nil
}

// Version returns the roster document version tag.
func (r *Registry) Version() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// Get returns the definition for id, active or not.
func (r *Registry) Get(id string) (Officer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.byID[id]
	return o, ok
}

// Active returns all active officers in roster order.
func (r *Registry) Active() []Officer {
	return r.FilterByClass("")
}

// FilterByClass returns active officers whose capability class matches,
// preserving roster order. An empty class returns every active officer.
// Matching is case-insensitive; an unknown class yields an empty slice.
func (r *Registry) FilterByClass(class string) []Officer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Officer, 0, len(r.active))
	want := strings.ToLower(class)
	for _, o := range r.active {
		if class == "" || strings.ToLower(string(o.CapabilityClass)) == want {
			out = append(out, o)
		}
	}
	return out
}

// Definitions returns every officer definition, including ones no longer on
// the active roster. Used for seeding the store.
func (r *Registry) Definitions() []Officer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Officer, 0, len(r.byID))
	for _, o := range r.byID {
		out = append(out, o)
	}
	return out
}

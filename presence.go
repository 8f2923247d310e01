package artisan

import "strings"

// Presence is the bit flag recorded for each field of a normalized
// specification.
type Presence uint8

const (
	PresenceSeen           Presence = 1 << iota // Field appeared in the input.
	PresenceWasNull                             // Field value was null.
	PresenceDefaultApplied                      // Default value was applied.
)

// String renders the set flags joined by '|'.
func (p Presence) String() string {
	if p == 0 {
		return "absent"
	}
	var parts []string
	if p&PresenceSeen != 0 {
		parts = append(parts, "seen")
	}
	if p&PresenceWasNull != 0 {
		parts = append(parts, "null")
	}
	if p&PresenceDefaultApplied != 0 {
		parts = append(parts, "default")
	}
	return strings.Join(parts, "|")
}

// PresenceMap maps JSON Pointers to Presence flags.
type PresenceMap map[string]Presence

// PresenceMap walks s and its nested specifications and returns the flags of
// every field, keyed by JSON Pointer relative to s.
func (s *Spec) PresenceMap() PresenceMap {
	pm := PresenceMap{}
	s.collectPresence(pm, "")
	return pm
}

func (s *Spec) collectPresence(pm PresenceMap, base string) {
	for _, k := range s.keys {
		p := base + "/" + pointerToken(k)
		pm[p] = s.presence[k]
		collectNested(pm, p, s.values[k])
	}
}

func collectNested(pm PresenceMap, base string, v any) {
	switch t := v.(type) {
	case *Spec:
		t.collectPresence(pm, base)
	case []any:
		for i, x := range t {
			collectNested(pm, base+"/"+itoa(i), x)
		}
	case map[string]any:
		for k, x := range t {
			collectNested(pm, base+"/"+pointerToken(k), x)
		}
	}
}

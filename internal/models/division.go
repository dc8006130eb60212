package models

import "strings"

// CombinedKey is the division whose player count doubles as the site total
const CombinedKey = "combined"

// Division is a competitive category with its own ranking list
type Division struct {
	Key  string `json:"key" yaml:"key"`
	Name string `json:"name" yaml:"name"`
}

// Registry maps division keys to display names, in display order.
// It is built once at startup and never mutated.
type Registry struct {
	divisions []Division
	names     map[string]string
}

// NewRegistry creates a registry from an ordered division list.
// Later duplicates of a key are ignored.
func NewRegistry(divisions ...Division) *Registry {
	r := &Registry{names: make(map[string]string, len(divisions))}
	for _, d := range divisions {
		if _, ok := r.names[d.Key]; ok || d.Key == "" {
			continue
		}
		r.names[d.Key] = d.Name
		r.divisions = append(r.divisions, d)
	}
	return r
}

// DefaultDivisions returns the Swedish IPSC handgun divisions
func DefaultDivisions() []Division {
	return []Division{
		{Key: CombinedKey, Name: "Kombinerad ranking"},
		{Key: "classic", Name: "Classic"},
		{Key: "open", Name: "Open"},
		{Key: "production", Name: "Production"},
		{Key: "production_optics", Name: "Production Optics"},
		{Key: "standard", Name: "Standard"},
		{Key: "revolver", Name: "Revolver"},
		{Key: "pistol_caliber_carbine", Name: "Pistol Caliber Carbine"},
	}
}

// DefaultRegistry returns a registry over DefaultDivisions
func DefaultRegistry() *Registry {
	return NewRegistry(DefaultDivisions()...)
}

// Divisions returns a copy of the ordered division list
func (r *Registry) Divisions() []Division {
	out := make([]Division, len(r.divisions))
	copy(out, r.divisions)
	return out
}

// DisplayName returns the configured name, or the key itself when unknown
func (r *Registry) DisplayName(key string) string {
	if name, ok := r.names[key]; ok {
		return name
	}
	return key
}

// Has reports whether key is a configured division
func (r *Registry) Has(key string) bool {
	_, ok := r.names[key]
	return ok
}

// Len returns the number of divisions
func (r *Registry) Len() int { return len(r.divisions) }

// ElementKey returns the dash-normalised key used for page element ids
func ElementKey(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

// DataFileName returns the ranking file name for a division
func DataFileName(key string) string {
	return "ipsc_ranking_" + key + ".json"
}

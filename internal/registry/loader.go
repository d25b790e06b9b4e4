// Package registry holds static metadata about models the orchestrator knows
// how to fetch: size, description and whether it is recommended.
package registry

import (
	"fmt"
	"strings"

	"locallm/internal/config"
	"locallm/pkg/types"
)

// Entry describes one known model.
type Entry struct {
	Name        string  `json:"name" yaml:"name" toml:"name"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	SizeGB      float64 `json:"size_gb" yaml:"size_gb" toml:"size_gb"`
	Language    string  `json:"language,omitempty" yaml:"language,omitempty" toml:"language,omitempty"`
	Recommended bool    `json:"recommended" yaml:"recommended" toml:"recommended"`
}

// File is the on-disk models file layout.
type File struct {
	AvailableModels []Entry `json:"available_models" yaml:"available_models" toml:"available_models"`
	SelectedModel   string  `json:"selected_model,omitempty" yaml:"selected_model,omitempty" toml:"selected_model,omitempty"`
}

// Registry is an immutable, ordered set of entries.
type Registry struct {
	entries   []Entry
	byName    map[string]int
	preferred string
}

// Default returns the built-in catalog.
func Default() *Registry {
	r, _ := New(File{AvailableModels: []Entry{
		{Name: "phi3.5:latest", Description: "Small, fast general model", SizeGB: 2.2, Language: "multilingual", Recommended: true},
		{Name: "mistral:7b", Description: "Balanced model", SizeGB: 4.1, Language: "multilingual", Recommended: true},
		{Name: "phi:2.7b", Description: "Compact fallback model", SizeGB: 1.7, Language: "english"},
	}, SelectedModel: "phi3.5:latest"})
	return r
}

// Load reads a models file (.yaml/.yml/.json/.toml).
func Load(path string) (*Registry, error) {
	var f File
	if err := config.Decode(path, &f); err != nil {
		return nil, err
	}
	return New(f)
}

// New validates f and builds a Registry. Names must be non-empty and unique;
// a selected model, when set, must be listed.
func New(f File) (*Registry, error) {
	r := &Registry{byName: make(map[string]int, len(f.AvailableModels))}
	for _, e := range f.AvailableModels {
		e.Name = strings.TrimSpace(e.Name)
		if e.Name == "" {
			return nil, fmt.Errorf("models file: entry with empty name")
		}
		if _, dup := r.byName[e.Name]; dup {
			return nil, fmt.Errorf("models file: duplicate model %q", e.Name)
		}
		r.byName[e.Name] = len(r.entries)
		r.entries = append(r.entries, e)
	}
	if sel := strings.TrimSpace(f.SelectedModel); sel != "" {
		if _, ok := r.byName[sel]; !ok {
			return nil, fmt.Errorf("models file: selected model %q is not listed", sel)
		}
		r.preferred = sel
	}
	return r, nil
}

// Entries returns the entries in file order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Names returns entry names in file order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Name
	}
	return out
}

// Preferred returns the file's selected model, or "".
func (r *Registry) Preferred() string { return r.preferred }

// Lookup finds an entry by exact name, also trying the implicit ":latest" tag.
func (r *Registry) Lookup(name string) (Entry, bool) {
	if i, ok := r.byName[name]; ok {
		return r.entries[i], true
	}
	if !strings.Contains(name, ":") {
		if i, ok := r.byName[name+":latest"]; ok {
			return r.entries[i], true
		}
	}
	return Entry{}, false
}

// Descriptor builds the wire descriptor for name, joining any known metadata.
func (r *Registry) Descriptor(name string, downloaded bool) types.ModelDescriptor {
	d := types.ModelDescriptor{ID: name, Downloaded: downloaded}
	if e, ok := r.Lookup(name); ok {
		d.Description = e.Description
		d.SizeGB = e.SizeGB
		d.Recommended = e.Recommended
	}
	return d
}

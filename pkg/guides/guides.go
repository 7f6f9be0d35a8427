// Package guides provides the embedded library of static how-to guides
// (application tips, eligibility primers, deadline checklists) shipped with
// the Pathways binary.
package guides

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed guides.yaml
var guidesRawData []byte

// Guide is one static content page.
type Guide struct {
	Slug    string   `yaml:"slug" json:"slug"`
	Title   string   `yaml:"title" json:"title"`
	Summary string   `yaml:"summary" json:"summary"`
	Topics  []string `yaml:"topics" json:"topics"`
	Body    string   `yaml:"body" json:"body,omitempty"`
}

// guidesFile is the top-level structure of the embedded YAML.
type guidesFile struct {
	Guides []Guide `yaml:"guides"`
}

// Library provides lazy-loaded access to the embedded guides.
type Library struct {
	once   sync.Once
	guides []Guide
	bySlug map[string]int
	err    error
}

// NewLibrary creates a Library that parses the embedded YAML on first access.
func NewLibrary() *Library {
	return &Library{}
}

// All returns a copy of every guide, body included.
func (l *Library) All() ([]Guide, error) {
	l.once.Do(l.load)
	if l.err != nil {
		return nil, l.err
	}
	cp := make([]Guide, len(l.guides))
	copy(cp, l.guides)
	return cp, nil
}

// Get returns the guide with the given slug, or false when absent.
func (l *Library) Get(slug string) (Guide, bool, error) {
	l.once.Do(l.load)
	if l.err != nil {
		return Guide{}, false, l.err
	}
	i, ok := l.bySlug[slug]
	if !ok {
		return Guide{}, false, nil
	}
	return l.guides[i], true, nil
}

// load parses the embedded YAML guide data.
func (l *Library) load() {
	var f guidesFile
	if err := yaml.Unmarshal(guidesRawData, &f); err != nil {
		l.err = fmt.Errorf("guides: parse yaml: %w", err)
		return
	}
	l.guides = f.Guides
	l.bySlug = make(map[string]int, len(f.Guides))
	for i, g := range f.Guides {
		l.bySlug[g.Slug] = i
	}
}

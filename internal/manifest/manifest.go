// Package manifest owns the persistent routing manifest: categories, bash
// shortcuts, and the tool/skill index the Tiered Router falls back to when
// the native and small-model classifiers miss. The manifest is a
// single-writer, atomically-persisted document — callers route every
// mutation through the Manifest Store rather than editing it directly.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/corvidlabs/corvid/internal/capabilities"
	"github.com/corvidlabs/corvid/internal/defaults"
)

// Category bundles a set of intent patterns with the tools/skills and agent
// configuration needed to serve them.
type Category struct {
	ID         string   `json:"id" yaml:"id"`
	Patterns   []string `json:"patterns" yaml:"patterns"`
	Tools      []string `json:"tools" yaml:"tools"`
	Skills     []string `json:"skills" yaml:"skills"`
	AgentType  string   `json:"agent_type" yaml:"agent_type"`   // react | plan-execute | reflection
	PromptTier string   `json:"prompt_tier" yaml:"prompt_tier"` // minimal | standard | full
}

// Document is the on-disk manifest shape (spec §6, canonical JSON layout;
// persisted as YAML per project convention — see ExportJSON for the
// canonical JSON form).
type Document struct {
	Version        int               `json:"version" yaml:"version"`
	GeneratedAt    time.Time         `json:"generated_at" yaml:"generated_at"`
	InstantAnswers map[string]string `json:"instant_answers" yaml:"instant_answers"`
	BashCommands   map[string]string `json:"bash_commands" yaml:"bash_commands"`
	Categories     []Category        `json:"categories" yaml:"categories"`
	ToolIndex      map[string]string `json:"tool_index" yaml:"tool_index"`
	SkillIndex     map[string]string `json:"skill_index" yaml:"skill_index"`
}

func emptyDocument() Document {
	return Document{
		InstantAnswers: map[string]string{},
		BashCommands:   map[string]string{},
		Categories:     nil,
		ToolIndex:      map[string]string{},
		SkillIndex:     map[string]string{},
	}
}

// Store is the Manifest Store: the single in-memory writer for one
// manifest file, persisted atomically on every mutation.
type Store struct {
	mu      sync.RWMutex
	path    string
	doc     Document
	loaded  bool
}

// NewStore returns a Store bound to path. Call Load to populate it.
func NewStore(path string) *Store {
	return &Store{path: path, doc: emptyDocument()}
}

// Loaded reports whether the manifest was successfully loaded from disk.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Load reads and parses the manifest file. A missing or malformed file is
// not an error: loaded is false and the caller (the router) falls back to
// defaults.
func (s *Store) Load() (loaded bool, err error) {
	data, readErr := os.ReadFile(s.path)
	if readErr != nil {
		s.mu.Lock()
		s.loaded = false
		s.mu.Unlock()
		return false, nil
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		s.mu.Lock()
		s.loaded = false
		s.mu.Unlock()
		return false, nil
	}

	normalize(&doc)

	s.mu.Lock()
	s.doc = doc
	s.loaded = true
	s.mu.Unlock()
	return true, nil
}

func normalize(doc *Document) {
	if doc.InstantAnswers == nil {
		doc.InstantAnswers = map[string]string{}
	}
	if doc.BashCommands == nil {
		doc.BashCommands = map[string]string{}
	}
	if doc.ToolIndex == nil {
		doc.ToolIndex = map[string]string{}
	}
	if doc.SkillIndex == nil {
		doc.SkillIndex = map[string]string{}
	}
}

// Document returns a copy of the current in-memory manifest.
func (s *Store) Document() Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneDocument(s.doc)
}

func cloneDocument(doc Document) Document {
	clone := Document{
		Version:        doc.Version,
		GeneratedAt:    doc.GeneratedAt,
		InstantAnswers: cloneMap(doc.InstantAnswers),
		BashCommands:   cloneMap(doc.BashCommands),
		ToolIndex:      cloneMap(doc.ToolIndex),
		SkillIndex:     cloneMap(doc.SkillIndex),
		Categories:     make([]Category, len(doc.Categories)),
	}
	copy(clone.Categories, doc.Categories)
	return clone
}

func cloneMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// save writes the manifest to a temporary sibling file then renames it over
// the destination, incrementing version first. Caller must hold s.mu.
func (s *Store) save() error {
	s.doc.Version++
	s.doc.GeneratedAt = time.Now().UTC()

	data, err := yaml.Marshal(s.doc)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	dir := filepath.Dir(s.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create manifest directory: %w", err)
		}
	}

	tmp, err := os.CreateTemp(dir, ".manifest-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	s.loaded = true
	return nil
}

// Save persists the current document atomically.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

// ExportJSON renders the current document in the canonical JSON layout
// §6 describes, even though the on-disk form is YAML.
func (s *Store) ExportJSON() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.MarshalIndent(s.doc, "", "  ")
}

// AppendSkill adds or replaces a skill index entry and persists.
func (s *Store) AppendSkill(name, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.SkillIndex[name] = description
	return s.save()
}

// AppendTool adds or replaces a tool index entry and persists.
func (s *Store) AppendTool(name, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.ToolIndex[name] = description
	return s.save()
}

// AppendBashCommand adds or replaces a bash shortcut and persists.
func (s *Store) AppendBashCommand(pattern, command string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.BashCommands[pattern] = command
	return s.save()
}

// IsStale reports whether any tool or skill currently registered in reg is
// missing from the manifest's tool_index/skill_index.
func (s *Store) IsStale(reg *capabilities.Registry) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, name := range reg.Tools() {
		if _, ok := s.doc.ToolIndex[name]; !ok {
			return true
		}
	}
	for _, name := range reg.Skills() {
		if _, ok := s.doc.SkillIndex[name]; !ok {
			return true
		}
	}
	return false
}

// SyncResult reports what Sync changed.
type SyncResult struct {
	ToolsAdded      []string
	SkillsAdded     []string
	SkillsAssigned  map[string]string // skill name -> category id
}

// Sync appends any tool/skill in reg that's missing from the manifest, and
// tries to assign each newly-added skill to an existing category by
// keyword overlap (>= 2 term matches against the category's patterns or
// id). Applying Sync twice with no capability changes is a no-op: the
// second call finds nothing missing and writes no new version.
func (s *Store) Sync(reg *capabilities.Registry) (SyncResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := SyncResult{SkillsAssigned: map[string]string{}}

	toolDescs := reg.ToolDescriptions()
	for name, desc := range toolDescs {
		if _, ok := s.doc.ToolIndex[name]; !ok {
			s.doc.ToolIndex[name] = desc
			result.ToolsAdded = append(result.ToolsAdded, name)
		}
	}

	skillDescs := reg.SkillDescriptions()
	for name, desc := range skillDescs {
		if _, ok := s.doc.SkillIndex[name]; ok {
			continue
		}
		s.doc.SkillIndex[name] = desc
		result.SkillsAdded = append(result.SkillsAdded, name)

		if catID := s.assignCategory(name, desc); catID != "" {
			result.SkillsAssigned[name] = catID
		}
	}

	if len(result.ToolsAdded) == 0 && len(result.SkillsAdded) == 0 {
		return result, nil
	}
	return result, s.save()
}

// assignCategory finds the first category whose patterns or id overlap the
// skill's name+description by at least 2 keyword matches, and appends the
// skill to it. Caller must hold s.mu. Returns the assigned category id, or
// empty if no category qualified.
func (s *Store) assignCategory(skillName, skillDesc string) string {
	terms := keywordSet(skillName + " " + skillDesc)

	for i := range s.doc.Categories {
		cat := &s.doc.Categories[i]
		catTerms := keywordSet(cat.ID + " " + strings.Join(cat.Patterns, " "))

		matches := 0
		for t := range terms {
			if catTerms[t] {
				matches++
			}
		}
		if matches >= 2 {
			cat.Skills = append(cat.Skills, skillName)
			return cat.ID
		}
	}
	return ""
}

func keywordSet(s string) map[string]bool {
	set := map[string]bool{}
	for _, word := range strings.Fields(strings.ToLower(s)) {
		word = strings.Trim(word, ".,;:!?()[]{}\"'|")
		if len(word) >= 3 {
			set[word] = true
		}
	}
	return set
}

// LoadBundledFallback populates an empty Store from the embedded default
// manifest (used when generate() cannot reach the small model).
func (s *Store) LoadBundledFallback() error {
	data, err := defaults.BundledManifest()
	if err != nil {
		return fmt.Errorf("read bundled manifest: %w", err)
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse bundled manifest: %w", err)
	}
	normalize(&doc)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc
	return nil
}

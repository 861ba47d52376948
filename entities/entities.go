// Package entities finds known people, institutions and commodities in
// signals by alias lookup and builds the briefing's entity directory.
package entities

import (
	"cmp"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"compass/logging"
	"compass/types"
)

// Entity types used in the directory.
const (
	TypePeople      = "people"
	TypeInstitution = "institution"
	TypeOrg         = "org"
	TypeCommodity   = "commodity"
)

// Entity is one dictionary entry. English aliases match case-insensitively,
// Chinese aliases match exactly.
type Entity struct {
	ID      string   `yaml:"id"`
	Type    string   `yaml:"type"`
	EN      []string `yaml:"en"`
	ZH      []string `yaml:"zh"`
	lowerEN []string
}

// Name is the bilingual display name: the first alias on each side, or the
// id when a side has none.
func (e Entity) Name() types.Text {
	en, zh := e.ID, e.ID
	if len(e.EN) > 0 {
		en = e.EN[0]
	}
	if len(e.ZH) > 0 {
		zh = e.ZH[0]
	}
	return types.Bilingual(en, zh)
}

// Matcher scans signals against an entity dictionary.
type Matcher struct {
	entities []Entity
}

// New builds a matcher. Entries without an id are dropped and a missing type
// defaults to org.
func New(entities []Entity) *Matcher {
	m := &Matcher{}
	for _, e := range entities {
		if e.ID == "" {
			continue
		}
		if e.Type == "" {
			e.Type = TypeOrg
		}
		e.lowerEN = make([]string, 0, len(e.EN))
		for _, a := range e.EN {
			if a = strings.ToLower(strings.TrimSpace(a)); a != "" {
				e.lowerEN = append(e.lowerEN, a)
			}
		}
		m.entities = append(m.entities, e)
	}
	return m
}

// Default builds a matcher over the built-in dictionary.
func Default() *Matcher {
	return New(DefaultEntities())
}

// FromFile builds a matcher from a YAML list of entities. An empty path
// yields the defaults.
func FromFile(path string) (*Matcher, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read entity file: %w", err)
	}
	var list []Entity
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse entity file %s: %w", path, err)
	}
	return New(list), nil
}

// Match returns the sorted ids of every entity mentioned in the signal.
func (m *Matcher) Match(sig types.Signal) []string {
	text := searchText(sig)
	lower := strings.ToLower(text)

	var ids []string
	for _, e := range m.entities {
		if matches(e, text, lower) {
			ids = append(ids, e.ID)
		}
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}

func matches(e Entity, text, lower string) bool {
	for _, a := range e.lowerEN {
		if strings.Contains(lower, a) {
			return true
		}
	}
	for _, a := range e.ZH {
		if a != "" && strings.Contains(text, a) {
			return true
		}
	}
	return false
}

// Annotate sets entity_ids on a copy of each signal and aggregates the
// directory, sorted by mention count descending then id.
func (m *Matcher) Annotate(signals []types.Signal) ([]types.Signal, []types.EntityMention) {
	out := make([]types.Signal, len(signals))
	byID := make(map[string]*types.EntityMention)
	for i, sig := range signals {
		ids := m.Match(sig)
		sig.EntityIDs = ids
		out[i] = sig
		for _, id := range ids {
			mention, ok := byID[id]
			if !ok {
				mention = m.mention(id)
				byID[id] = mention
			}
			mention.Mentions++
			if sig.ID != "" {
				mention.SignalIDs = append(mention.SignalIDs, sig.ID)
			}
		}
	}

	directory := make([]types.EntityMention, 0, len(byID))
	for _, mention := range byID {
		mention.Description = types.Bilingual(
			fmt.Sprintf("Mentioned in %d signal(s) today.", mention.Mentions),
			fmt.Sprintf("今日在%d条信号中被提及。", mention.Mentions),
		)
		directory = append(directory, *mention)
	}
	slices.SortFunc(directory, func(a, b types.EntityMention) int {
		if c := cmp.Compare(b.Mentions, a.Mentions); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	logging.Info("matched entities", "signals", len(signals), "entities", len(directory))
	return out, directory
}

func (m *Matcher) mention(id string) *types.EntityMention {
	for _, e := range m.entities {
		if e.ID == id {
			return &types.EntityMention{ID: id, Name: e.Name(), Type: e.Type, SignalIDs: []string{}}
		}
	}
	return &types.EntityMention{ID: id, Name: types.Bilingual(id, id), Type: TypeOrg, SignalIDs: []string{}}
}

func searchText(sig types.Signal) string {
	var parts []string
	for _, t := range []types.Text{sig.Title, sig.BodyText, sig.BodySnippet, sig.Body} {
		if t.EN != "" {
			parts = append(parts, t.EN)
		}
		if t.ZH != "" && t.ZH != t.EN {
			parts = append(parts, t.ZH)
		}
	}
	return strings.Join(parts, " ")
}

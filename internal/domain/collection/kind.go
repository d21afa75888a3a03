package collection

import (
	"encoding/json"
	"fmt"
	"sort"
)

const (
	KindExperience    = "experience"
	KindProject       = "project"
	KindSkill         = "skill"
	KindTool          = "tool"
	KindCategory      = "category"
	KindCertification = "certification"
	KindProfilePic    = "profile_pic"
	KindVideoIntro    = "video_intro"
)

// Kind describes one item shape of the profile: where its collection lives
// and which fields define equality and completeness.
type Kind struct {
	Name      string
	Field     string
	KeyFields []string
	Required  []string
	// Rules are extra validator tags applied to non-empty values.
	Rules map[string]string
	// Scalar collections may travel as a bare list of names.
	Scalar bool
	// Media kinds are single profile fields, not collections.
	Media bool
}

var registry = map[string]Kind{
	KindExperience: {
		Name:      KindExperience,
		Field:     "experiences",
		KeyFields: []string{"company", "position", "start_date", "end_date", "responsibilities"},
		Required:  []string{"company", "position", "start_date"},
		Rules: map[string]string{
			"start_date": "datetime=2006-01-02",
			"end_date":   "present_or_date",
		},
	},
	KindProject: {
		Name:      KindProject,
		Field:     "portfolio",
		KeyFields: []string{"title", "description", "link"},
		Required:  []string{"title"},
		Rules:     map[string]string{"link": "url"},
	},
	KindSkill: {
		Name:      KindSkill,
		Field:     "technical_skills",
		KeyFields: []string{"name"},
		Required:  []string{"name"},
		Scalar:    true,
	},
	KindTool: {
		Name:      KindTool,
		Field:     "tools",
		KeyFields: []string{"name"},
		Required:  []string{"name"},
		Scalar:    true,
	},
	KindCategory: {
		Name:      KindCategory,
		Field:     "categories",
		KeyFields: []string{"name"},
		Required:  []string{"name"},
		Scalar:    true,
	},
	KindCertification: {
		Name:      KindCertification,
		Field:     "certifications",
		KeyFields: []string{"name", "issuer", "issue_date"},
		Required:  []string{"name", "issuer"},
		Rules:     map[string]string{"issue_date": "datetime=2006-01-02"},
	},
	KindProfilePic: {Name: KindProfilePic, Field: "profile_pic", Media: true},
	KindVideoIntro: {Name: KindVideoIntro, Field: "video_intro", Media: true},
}

func Lookup(name string) (Kind, bool) {
	k, ok := registry[name]
	return k, ok
}

func MustLookup(name string) Kind {
	k, ok := registry[name]
	if !ok {
		panic(fmt.Sprintf("collection: unknown kind %q", name))
	}
	return k
}

// Kinds lists every registered kind ordered by name.
func Kinds() []Kind {
	out := make([]Kind, 0, len(registry))
	for _, k := range registry {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// EmptyItem is the create-form default for the kind.
func (k Kind) EmptyItem() Item {
	fields := make(map[string]any, len(k.KeyFields))
	for _, f := range k.KeyFields {
		fields[f] = ""
	}
	return NewItem("", fields)
}

// Decode parses the raw profile field holding this kind's collection.
// A missing or null field is an empty collection.
func (k Kind) Decode(raw json.RawMessage) (Collection, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return Collection{}, nil
	}
	var c Collection
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode %s: %w", k.Field, err)
	}
	if c == nil {
		c = Collection{}
	}
	return c, nil
}

// Encode renders a collection the way the profile service expects it.
// Scalar kinds go out as plain names while every item is nothing but a name.
func (k Kind) Encode(c Collection) (json.RawMessage, error) {
	if c == nil {
		c = Collection{}
	}
	if k.Scalar && k.nameOnly(c) {
		names := make([]string, len(c))
		for i, it := range c {
			names[i] = it.Get(k.KeyFields[0])
		}
		return json.Marshal(names)
	}
	return json.Marshal(c)
}

func (k Kind) nameOnly(c Collection) bool {
	for _, it := range c {
		if it.HasID() {
			return false
		}
		for name := range it.Fields {
			if name != k.KeyFields[0] && it.Get(name) != "" {
				return false
			}
		}
	}
	return true
}

package collection

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Item is one entry of a profile collection. ID is empty until the profile
// service has persisted the item.
type Item struct {
	ID     string
	Fields map[string]any

	rawID json.RawMessage
}

type Collection []Item

func NewItem(id string, fields map[string]any) Item {
	if fields == nil {
		fields = map[string]any{}
	}
	return Item{ID: id, Fields: fields}
}

func (it Item) HasID() bool {
	return it.ID != ""
}

// Get renders a field as a string. Missing and null fields are "".
func (it Item) Get(field string) string {
	return render(it.Fields[field])
}

func (it Item) Clone() Item {
	out := Item{ID: it.ID, Fields: make(map[string]any, len(it.Fields))}
	if it.rawID != nil {
		out.rawID = append(json.RawMessage(nil), it.rawID...)
	}
	for k, v := range it.Fields {
		out.Fields[k] = cloneValue(v)
	}
	return out
}

func (c Collection) Clone() Collection {
	if c == nil {
		return Collection{}
	}
	out := make(Collection, len(c))
	for i, it := range c {
		out[i] = it.Clone()
	}
	return out
}

// IndexOfID returns the position of the item with the given id, or -1.
func (c Collection) IndexOfID(id string) int {
	if id == "" {
		return -1
	}
	for i, it := range c {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// WithoutID returns a copy of c without the item carrying id.
func (c Collection) WithoutID(id string) Collection {
	out := make(Collection, 0, len(c))
	for _, it := range c {
		if it.ID == id && id != "" {
			continue
		}
		out = append(out, it.Clone())
	}
	return out
}

func (it Item) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(it.Fields))
	for k := range it.Fields {
		if k == "id" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	if it.ID != "" {
		buf.WriteString(`"id":`)
		buf.Write(it.idJSON())
		first = false
	}
	for _, k := range keys {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		kb, _ := json.Marshal(k)
		vb, err := json.Marshal(it.Fields[k])
		if err != nil {
			return nil, fmt.Errorf("marshal field %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// idJSON keeps numeric ids numeric when they came from the server that way.
func (it Item) idJSON() []byte {
	if it.rawID != nil {
		var s string
		if json.Unmarshal(it.rawID, &s) == nil && s == it.ID {
			return it.rawID
		}
		if n, err := strconv.ParseInt(it.ID, 10, 64); err == nil && string(it.rawID) == strconv.FormatInt(n, 10) {
			return it.rawID
		}
	}
	b, _ := json.Marshal(it.ID)
	return b
}

// UnmarshalJSON accepts an object, or a bare string which becomes {"name": s}.
func (it *Item) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*it = Item{Fields: map[string]any{"name": s}}
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var raw map[string]json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("decode collection item: %w", err)
	}

	out := Item{Fields: make(map[string]any, len(raw))}
	for k, v := range raw {
		if k == "id" {
			if string(v) == "null" {
				continue
			}
			out.rawID = append(json.RawMessage(nil), v...)
			out.ID = renderRawID(v)
			continue
		}
		var val any
		vd := json.NewDecoder(bytes.NewReader(v))
		vd.UseNumber()
		if err := vd.Decode(&val); err != nil {
			return fmt.Errorf("decode field %q: %w", k, err)
		}
		out.Fields[k] = val
	}
	*it = out
	return nil
}

func renderRawID(v json.RawMessage) string {
	var s string
	if json.Unmarshal(v, &s) == nil {
		return s
	}
	var n json.Number
	if json.Unmarshal(v, &n) == nil {
		return n.String()
	}
	return string(v)
}

func render(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, vv := range t {
			m[k] = cloneValue(vv)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, vv := range t {
			s[i] = cloneValue(vv)
		}
		return s
	default:
		return t
	}
}

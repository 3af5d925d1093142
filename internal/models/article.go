package models

import (
	"bytes"
	"encoding/json"
)

// Block types accepted in an article body
const (
	BlockTypeText  = "block"
	BlockTypeImage = "image"
	BlockTypeCode  = "code"
	BlockTypeVideo = "video"
	BlockTypeAudio = "audio"
)

// Slug is the store's slug object; Current is the article's logical identity.
type Slug struct {
	Type    string `json:"_type,omitempty"`
	Current string `json:"current" validate:"required"`
}

// UnmarshalJSON accepts both the slug object and a bare string.
func (s *Slug) UnmarshalJSON(data []byte) error {
	var current string
	if err := json.Unmarshal(data, &current); err == nil {
		*s = Slug{Type: "slug", Current: current}
		return nil
	}

	type slugFields Slug
	var fields slugFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*s = Slug(fields)
	return nil
}

// Article is one document to publish. Fields the importer does not know
// about are kept in Extra and written back unchanged. Body entries that are
// JSON objects decode as Block; anything else is kept as decoded and written
// back unchanged.
type Article struct {
	ID          string                 `json:"_id,omitempty"`
	Type        string                 `json:"_type,omitempty"`
	Title       string                 `json:"title" validate:"required"`
	Slug        Slug                   `json:"slug"`
	Pillar      string                 `json:"pillar,omitempty"`
	Category    string                 `json:"category,omitempty"`
	Status      string                 `json:"status,omitempty"`
	ImpactLevel string                 `json:"impactLevel,omitempty"`
	Summary     string                 `json:"summary,omitempty"`
	MainImage   map[string]interface{} `json:"mainImage,omitempty"`
	PublishedAt string                 `json:"publishedAt,omitempty"`
	Body        []interface{}          `json:"body" validate:"required,min=1"`

	Extra map[string]json.RawMessage `json:"-"`
}

// articleFields is Article without its JSON methods.
type articleFields Article

var knownArticleFields = map[string]bool{
	"_id": true, "_type": true, "title": true, "slug": true, "pillar": true,
	"category": true, "status": true, "impactLevel": true, "summary": true,
	"mainImage": true, "publishedAt": true, "body": true,
}

// UnmarshalJSON decodes the known fields and keeps the rest in Extra.
// Numbers inside blocks are kept as json.Number so they round-trip exactly.
func (a *Article) UnmarshalJSON(data []byte) error {
	var fields articleFields
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key := range raw {
		if knownArticleFields[key] {
			delete(raw, key)
		}
	}
	if len(raw) > 0 {
		fields.Extra = raw
	}
	for i, entry := range fields.Body {
		if obj, ok := entry.(map[string]interface{}); ok {
			fields.Body[i] = Block(obj)
		}
	}

	*a = Article(fields)
	return nil
}

// MarshalJSON writes the known fields followed by Extra.
func (a Article) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(articleFields(a))
	if err != nil {
		return nil, err
	}
	if len(a.Extra) == 0 {
		return known, nil
	}

	merged := make(map[string]json.RawMessage, len(a.Extra)+len(knownArticleFields))
	for key, value := range a.Extra {
		merged[key] = value
	}
	var knownMap map[string]json.RawMessage
	if err := json.Unmarshal(known, &knownMap); err != nil {
		return nil, err
	}
	for key, value := range knownMap {
		merged[key] = value
	}
	return json.Marshal(merged)
}

// Blocks returns the body entries that are JSON objects, in order. The
// blocks share storage with Body, so changes made through them are kept.
func (a *Article) Blocks() []Block {
	blocks := make([]Block, 0, len(a.Body))
	for _, entry := range a.Body {
		if block, ok := AsBlock(entry); ok {
			blocks = append(blocks, block)
		}
	}
	return blocks
}

// Block is one body entry. Blocks are polymorphic and may be malformed, so
// they are kept as decoded JSON objects and passed to the store as-is apart
// from canonicalization.
type Block map[string]interface{}

// AsBlock reports whether a body entry is an object and returns it as a Block.
func AsBlock(entry interface{}) (Block, bool) {
	switch v := entry.(type) {
	case Block:
		return v, v != nil
	case map[string]interface{}:
		return Block(v), v != nil
	}
	return nil, false
}

// Type returns the block's _type discriminator.
func (b Block) Type() string {
	t, _ := b["_type"].(string)
	return t
}

// Key returns the block's _key, or "" when absent or not a string.
func (b Block) Key() string {
	k, _ := b["_key"].(string)
	return k
}

// SetKey sets the block's _key.
func (b Block) SetKey(key string) {
	b["_key"] = key
}

// Package canonical rewrites an article body into the shape the content
// store accepts.
//
// The store requires a _key on every block and on every member of a
// block's children and markDefs arrays, unique within the document. Code
// blocks must carry their payload as text. Canonicalize is idempotent: an
// article that is already canonical comes back unchanged.
package canonical

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/article-ingest/internal/models"
	"github.com/google/uuid"
)

// DefaultLanguage is assigned to code blocks that carry no language.
const DefaultLanguage = "json"

// keyedArrays are the block fields whose object members need their own _key.
var keyedArrays = []string{"children", "markDefs"}

// Canonicalizer assigns keys and normalizes code blocks.
type Canonicalizer struct {
	// NewKey returns a fresh key. Collisions with keys already used in the
	// document are retried.
	NewKey func() string
}

// New returns a Canonicalizer with random 12 character keys.
func New() *Canonicalizer {
	return &Canonicalizer{NewKey: RandomKey}
}

// RandomKey returns a short opaque key derived from a random UUID.
func RandomKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// Canonicalize rewrites article.Body in place. Existing keys are preserved
// unless they repeat a key seen earlier in the same document. Entries that
// are not objects are left untouched.
func (c *Canonicalizer) Canonicalize(article *models.Article) {
	if article == nil {
		return
	}

	seen := make(map[string]bool)
	for _, block := range article.Blocks() {
		c.ensureKey(block, seen)

		if block.Type() == models.BlockTypeCode {
			normalizeCode(block)
		}

		for _, field := range keyedArrays {
			members, ok := block[field].([]interface{})
			if !ok {
				continue
			}
			for _, member := range members {
				if obj, ok := member.(map[string]interface{}); ok {
					c.ensureKey(models.Block(obj), seen)
				}
			}
		}
	}
}

func (c *Canonicalizer) ensureKey(node models.Block, seen map[string]bool) {
	key := node.Key()
	if key == "" || seen[key] {
		key = c.freshKey(seen)
		node.SetKey(key)
	}
	seen[key] = true
}

func (c *Canonicalizer) freshKey(seen map[string]bool) string {
	newKey := c.NewKey
	if newKey == nil {
		newKey = RandomKey
	}
	for {
		key := newKey()
		if key != "" && !seen[key] {
			return key
		}
	}
}

// normalizeCode serializes a structured code payload to JSON text and
// defaults the language.
func normalizeCode(block models.Block) {
	switch payload := block["code"].(type) {
	case []interface{}, map[string]interface{}:
		if text, err := serialize(payload); err == nil {
			block["code"] = text
		}
	}

	if lang, _ := block["language"].(string); lang == "" {
		block["language"] = DefaultLanguage
	}
}

// serialize renders v as compact JSON without HTML escaping, so table cells
// like "<5%" stay readable in the editor.
func serialize(v interface{}) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArticle_UnknownFieldsPassThrough(t *testing.T) {
	input := `{
		"title": "Rural Hospital Funding",
		"slug": {"_type": "slug", "current": "rural-hospital-funding"},
		"readingTime": 7,
		"authors": ["a", "b"],
		"body": [{"_type": "code", "code": [[1, 2.50], [3, 12345678901234567890]]}]
	}`

	var article Article
	require.NoError(t, json.Unmarshal([]byte(input), &article))
	assert.Equal(t, "rural-hospital-funding", article.Slug.Current)
	require.Contains(t, article.Extra, "readingTime")
	require.Contains(t, article.Extra, "authors")
	assert.NotContains(t, article.Extra, "title")

	out, err := json.Marshal(article)
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.JSONEq(t, `7`, string(decoded["readingTime"]))
	assert.JSONEq(t, `["a","b"]`, string(decoded["authors"]))
	assert.Contains(t, string(decoded["body"]), "12345678901234567890", "large numbers survive a round trip")
	assert.Contains(t, string(decoded["body"]), "2.50")
}

func TestSlug_AcceptsBareString(t *testing.T) {
	var article Article
	require.NoError(t, json.Unmarshal([]byte(`{"title":"T","slug":"plain-slug","body":[]}`), &article))
	assert.Equal(t, Slug{Type: "slug", Current: "plain-slug"}, article.Slug)
}

func TestArticle_NonObjectBlocksPassThrough(t *testing.T) {
	var article Article
	input := `{"title":"A","slug":{"current":"a"},"body":[{"_type":"block"},"stray text",42]}`
	require.NoError(t, json.Unmarshal([]byte(input), &article))

	require.Len(t, article.Body, 3)
	assert.IsType(t, Block{}, article.Body[0])
	assert.Equal(t, "stray text", article.Body[1])
	assert.Equal(t, json.Number("42"), article.Body[2])

	blocks := article.Blocks()
	require.Len(t, blocks, 1)
	blocks[0].SetKey("k1")
	assert.Equal(t, "k1", article.Body[0].(Block).Key(), "blocks share storage with the body")

	out, err := json.Marshal(article)
	require.NoError(t, err)
	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.JSONEq(t, `[{"_type":"block","_key":"k1"},"stray text",42]`, string(decoded["body"]))
}

func TestAsBlock(t *testing.T) {
	_, ok := AsBlock("text")
	assert.False(t, ok)
	_, ok = AsBlock(Block(nil))
	assert.False(t, ok)

	b, ok := AsBlock(map[string]interface{}{"_type": "video"})
	assert.True(t, ok)
	assert.Equal(t, "video", b.Type())
}

func TestBlock_Accessors(t *testing.T) {
	b := Block{"_type": "image", "_key": 42}
	assert.Equal(t, "image", b.Type())
	assert.Equal(t, "", b.Key(), "non-string keys read as absent")

	b.SetKey("k1")
	assert.Equal(t, "k1", b.Key())
}

package extract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "object wrapped in commentary",
			raw:  "Here is your JSON:\n{\"title\":\"A\",\"slug\":{\"current\":\"a\"},\"body\":[]}\nEnjoy!",
			want: `{"title":"A","slug":{"current":"a"},"body":[]}`,
		},
		{
			name: "markdown fence",
			raw:  "```json\n{\"title\":\"A\"}\n```",
			want: `{"title":"A"}`,
		},
		{
			name: "braces inside string literals",
			raw:  `{"title":"Use } and { freely","body":[{"text":"\"quoted {\""}]}`,
			want: `{"title":"Use } and { freely","body":[{"text":"\"quoted {\""}]}`,
		},
		{
			name: "prose braces before the document",
			raw:  "Template {placeholder} filled below.\n{\"title\":\"B\"}",
			want: `{"title":"B"}`,
		},
		{
			name: "stray unbalanced brace in prose",
			raw:  "Remember to close every { in code.\n{\"title\":\"C\"}",
			want: `{"title":"C"}`,
		},
		{
			name: "second document is ignored",
			raw:  `{"title":"first"} and also {"title":"second"}`,
			want: `{"title":"first"}`,
		},
		{
			name: "array of articles",
			raw:  "Articles:\n[ {\"title\":\"A\"}, {\"title\":\"B\"} ]\n",
			want: `[ {"title":"A"}, {"title":"B"} ]`,
		},
		{
			name: "bracketed prose is not an array candidate",
			raw:  "[draft] {\"title\":\"D\"}",
			want: `{"title":"D"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtract_InvalidCandidateIsReturnedWhole(t *testing.T) {
	raw := `prefix {"title":"A","nested":{"ok":true},} suffix`

	got, err := Extract(raw)
	require.NoError(t, err)
	assert.Equal(t, `{"title":"A","nested":{"ok":true},}`, got, "must not fall back to the nested fragment")

	_, err = Decode(got)
	var parseErr *ParseError
	assert.True(t, errors.As(err, &parseErr))
}

func TestExtract_Failures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "no brace at all", raw: "The model refused to answer."},
		{name: "empty", raw: ""},
		{name: "truncated output", raw: `{"title":"A","body":[{"_type":"block"`},
		{name: "array without objects", raw: "[1, 2, 3]"},
		{name: "mismatched closer hides nested objects", raw: `Here: {"title":"A","slug":{"current":"a"},"body":[}`},
		{name: "truncated after a complete nested object", raw: `{"title":"A","slug":{"current":"a"},"body":[`},
		{name: "only prose braces", raw: "Fill in {name} and {date}."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract(tt.raw)
			var extractErr *ExtractionError
			require.True(t, errors.As(err, &extractErr), "expected ExtractionError, got %v", err)
		})
	}
}

func TestDecode(t *testing.T) {
	articles, err := Decode(`{"title":"A","slug":{"current":"a"},"body":[{"_type":"block"}]}`)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "A", articles[0].Title)
	assert.Equal(t, "a", articles[0].Slug.Current)
	assert.Len(t, articles[0].Body, 1)

	articles, err = Decode(`[{"title":"A"},{"title":"B"}]`)
	require.NoError(t, err)
	require.Len(t, articles, 2)
	assert.Equal(t, "B", articles[1].Title)
}

func TestDecode_Failures(t *testing.T) {
	for _, payload := range []string{
		`{"title": "A",}`,
		`{"title": 12}`,
		`[]`,
		`[{"title":"A"}, null]`,
	} {
		_, err := Decode(payload)
		var parseErr *ParseError
		assert.True(t, errors.As(err, &parseErr), "payload %s: expected ParseError, got %v", payload, err)
	}
}

func TestParse(t *testing.T) {
	articles, err := Parse("Sure! ```json\n{\"title\":\"A\",\"slug\":\"a\",\"body\":[{}]}\n```")
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "a", articles[0].Slug.Current)

	_, err = Parse("nothing here")
	var extractErr *ExtractionError
	assert.ErrorAs(t, err, &extractErr)
}

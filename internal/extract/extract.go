// Package extract recovers article documents from raw generator output.
//
// Generated files often wrap the JSON payload in commentary or markdown
// fences. Extract finds the payload with a bracket scanner that understands
// string literals, so braces inside prose or inside JSON strings do not
// confuse it, and Decode turns the payload into articles.
package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/article-ingest/internal/models"
)

// ExtractionError reports that no JSON object could be located in the input.
type ExtractionError struct {
	Reason string
}

func (e *ExtractionError) Error() string {
	return "extract: " + e.Reason
}

// ParseError reports that the located payload is not valid article JSON.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse: %s: %v", e.Reason, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Extract returns the first balanced JSON object in raw, or the first
// balanced array whose first element is an object. Among balanced
// candidates the first one that is valid JSON wins; when none is valid the
// first candidate is returned so that Decode can report why. A candidate
// that never closes ends the scan: everything after it is its content.
func Extract(raw string) (string, error) {
	if !strings.Contains(raw, "{") {
		return "", &ExtractionError{Reason: "no JSON object found in input"}
	}

	first := ""
	for start := 0; start < len(raw); start++ {
		if !isOpener(raw, start) {
			continue
		}
		end := matchClose(raw, start)
		if end < 0 {
			break
		}
		candidate := raw[start : end+1]
		if json.Valid([]byte(candidate)) {
			return candidate, nil
		}
		if first == "" {
			first = candidate
		}
		// Never descend into a rejected candidate; a nested fragment is not
		// the document.
		start = end
	}

	if first != "" {
		return first, nil
	}
	return "", &ExtractionError{Reason: "no balanced JSON object found in input"}
}

// isOpener reports whether raw[i] starts a candidate: '{' followed by a
// key or '}', or '[' followed by such an object. Braces in prose such as
// "{placeholder}" are not candidates.
func isOpener(raw string, i int) bool {
	switch raw[i] {
	case '{':
		return opensObject(raw[i+1:])
	case '[':
		rest := strings.TrimLeft(raw[i+1:], " \t\r\n")
		return strings.HasPrefix(rest, "{") && opensObject(rest[1:])
	}
	return false
}

// opensObject reports whether rest, the text after a '{', begins like an
// object body.
func opensObject(rest string) bool {
	rest = strings.TrimLeft(rest, " \t\r\n")
	return strings.HasPrefix(rest, `"`) || strings.HasPrefix(rest, "}")
}

// matchClose returns the index of the bracket closing raw[start], or -1.
// Brackets inside string literals are ignored, as are escaped quotes.
func matchClose(raw string, start int) int {
	var stack []byte
	inString := false
	escaped := false

	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return -1
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i
			}
		}
	}
	return -1
}

// Decode parses an extracted payload. An object yields one article and an
// array yields one article per element, in order.
func Decode(payload string) ([]*models.Article, error) {
	trimmed := strings.TrimSpace(payload)
	if strings.HasPrefix(trimmed, "[") {
		var articles []*models.Article
		if err := strictUnmarshal(trimmed, &articles); err != nil {
			return nil, &ParseError{Reason: "invalid article array", Err: err}
		}
		if len(articles) == 0 {
			return nil, &ParseError{Reason: "invalid article array", Err: errors.New("array is empty")}
		}
		for i, a := range articles {
			if a == nil {
				return nil, &ParseError{Reason: "invalid article array", Err: fmt.Errorf("element %d is null", i)}
			}
		}
		return articles, nil
	}

	var article models.Article
	if err := strictUnmarshal(trimmed, &article); err != nil {
		return nil, &ParseError{Reason: "invalid article JSON", Err: err}
	}
	return []*models.Article{&article}, nil
}

// Parse runs Extract then Decode.
func Parse(raw string) ([]*models.Article, error) {
	payload, err := Extract(raw)
	if err != nil {
		return nil, err
	}
	return Decode(payload)
}

// strictUnmarshal decodes exactly one JSON value and rejects trailing data.
func strictUnmarshal(payload string, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(payload)))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after top-level value")
	}
	return nil
}

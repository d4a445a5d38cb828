// Package parser turns free-form model replies into analysis results.
// Parse never fails: each step falls through to a more lenient one.
package parser

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/bore13/Ai-data-chat/internal/domain/analysis"
)

// FallbackInsight is the single insight attached when no JSON could be recovered.
const FallbackInsight = "Analysis completed"

// Parse maps a raw model reply to a Result.
//
//  1. strip a surrounding markdown code fence
//  2. strict JSON parse of the cleaned text
//  3. parse of the first balanced {...} span of the raw text
//  4. raw text as the message with FallbackInsight
func Parse(raw string) analysis.Result {
	if res, ok := decode(StripFences(raw)); ok {
		return res
	}
	if span, ok := ExtractObject(raw); ok {
		if res, ok := decode(span); ok {
			return res
		}
	}
	res := analysis.Empty()
	res.Message = raw
	res.Insights = []string{FallbackInsight}
	return res
}

// StripFences trims whitespace and removes an opening ``` or ```lang line
// together with a trailing ```.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		lang := strings.TrimSpace(s[:nl])
		if lang == "" || isLangTag(lang) {
			s = s[nl+1:]
		}
	} else {
		// single line: ```json {...}```
		s = strings.TrimLeft(s, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func isLangTag(s string) bool {
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}

// ExtractObject returns the first balanced outermost {...} span in s.
// Braces inside JSON strings are ignored. An unbalanced span reports false.
func ExtractObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
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
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

type reply struct {
	ReformulatedQuery json.RawMessage `json:"reformulated_query"`
	Message           json.RawMessage `json:"message"`
	Insights          json.RawMessage `json:"insights"`
	Recommendations   json.RawMessage `json:"recommendations"`
	Metrics           json.RawMessage `json:"metrics"`
}

// decode parses text as an object carrying a string "message".
func decode(text string) (analysis.Result, bool) {
	var r reply
	dec := json.NewDecoder(strings.NewReader(text))
	if err := dec.Decode(&r); err != nil {
		return analysis.Result{}, false
	}
	// trailing garbage means this was not a single object
	if dec.More() {
		return analysis.Result{}, false
	}
	var msg string
	if len(r.Message) == 0 || string(r.Message) == "null" || json.Unmarshal(r.Message, &msg) != nil {
		return analysis.Result{}, false
	}

	res := analysis.Empty()
	res.Message = msg
	res.ReformulatedQuery = optionalString(r.ReformulatedQuery)
	res.Insights = stringList(r.Insights)
	res.Recommendations = stringList(r.Recommendations)
	res.Metrics = stringMap(r.Metrics)
	return res, true
}

func optionalString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return compact(raw)
}

// stringList accepts an array of anything; a lone scalar becomes a one-element list.
func stringList(raw json.RawMessage) []string {
	out := []string{}
	if len(raw) == 0 || string(raw) == "null" {
		return out
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return append(out, render(raw))
	}
	for _, it := range items {
		if string(it) == "null" {
			continue
		}
		out = append(out, render(it))
	}
	return out
}

// stringMap keeps an object's entries; anything else yields an empty map.
func stringMap(raw json.RawMessage) map[string]string {
	var in map[string]json.RawMessage
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &in)
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = render(v)
	}
	return out
}

// render returns the string value of a JSON string, or the compact JSON text of anything else.
func render(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return compact(raw)
}

func compact(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

package problem_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syntaxarena/arena/internal/problem"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func modelReply(text string) string {
	b, _ := json.Marshal(map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": text}}}},
		},
	})
	return string(b)
}

func TestGemini_Generate(t *testing.T) {
	var gotPath, gotKey, gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		var body struct {
			Contents []struct {
				Parts []struct{ Text string } `json:"parts"`
			} `json:"contents"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if len(body.Contents) > 0 && len(body.Contents[0].Parts) > 0 {
			gotPrompt = body.Contents[0].Parts[0].Text
		}
		io.WriteString(w, modelReply("```json\n{\"title\":\"Valid Anagram\",\"description\":\"Check anagrams.\",\"examples\":[\"s = anagram\"],\"starterCode\":\"class Solution {}\"}\n```"))
	}))
	defer srv.Close()

	g := problem.NewGemini(problem.GeminiConfig{APIKey: "k-1", BaseURL: srv.URL}, discardLogger())

	p, err := g.Generate(context.Background(), "Strings", "Easy", "go")
	require.NoError(t, err)

	assert.Equal(t, "/v1beta/models/gemini-1.5-flash:generateContent", gotPath)
	assert.Equal(t, "k-1", gotKey)
	assert.Contains(t, gotPrompt, "Topic: Strings.")
	assert.Contains(t, gotPrompt, "Language: go.")

	assert.Equal(t, "Valid Anagram", p.Title)
	assert.Equal(t, "Check anagrams.", p.Description)
	assert.Equal(t, []string{"s = anagram"}, p.Examples)
	assert.Equal(t, "class Solution {}", p.StarterCode)
	assert.Equal(t, "Easy", p.Difficulty)
}

func TestGemini_FallsBack(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "quota exceeded", http.StatusTooManyRequests)
			},
		},
		{
			name: "no candidates",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				io.WriteString(w, `{"candidates":[]}`)
			},
		},
		{
			name: "prose instead of json",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				io.WriteString(w, modelReply("Sure! Here is a question about arrays."))
			},
		},
		{
			name: "missing title",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				io.WriteString(w, modelReply(`{"description":"x"}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()
			g := problem.NewGemini(problem.GeminiConfig{APIKey: "k", BaseURL: srv.URL}, discardLogger())

			p, err := g.Generate(context.Background(), "Arrays", "Hard", "java")

			require.NoError(t, err)
			assert.Equal(t, "Trapping Rain Water", p.Title)
			assert.Equal(t, "Hard", p.Difficulty)
		})
	}
}

func TestGemini_NoKeySkipsNetwork(t *testing.T) {
	g := problem.NewGemini(problem.GeminiConfig{BaseURL: "http://127.0.0.1:1"}, discardLogger())

	p, err := g.Generate(context.Background(), "Arrays", "Medium", "java")

	require.NoError(t, err)
	assert.Equal(t, "Longest Substring Without Repeating Characters", p.Title)
}

func TestGemini_CanceledContextFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()
	g := problem.NewGemini(problem.GeminiConfig{APIKey: "k", BaseURL: srv.URL}, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Generate(ctx, "Arrays", "Medium", "java")

	assert.ErrorIs(t, err, context.Canceled)
}

func TestFallback(t *testing.T) {
	tests := map[string]string{
		"easy":    "Two Sum",
		"EASY":    "Two Sum",
		"Medium":  "Longest Substring Without Repeating Characters",
		"":        "Longest Substring Without Repeating Characters",
		"extreme": "Longest Substring Without Repeating Characters",
		"Hard":    "Trapping Rain Water",
	}
	for difficulty, want := range tests {
		p := problem.Fallback(difficulty)
		assert.Equal(t, want, p.Title, difficulty)
		assert.True(t, strings.HasPrefix(p.StarterCode, "public class Solution"), difficulty)
		assert.Len(t, p.Examples, 2, difficulty)
	}
}

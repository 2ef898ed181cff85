package ai

import (
	"testing"

	"storygen-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "без ограждения",
			raw:  `{"a": "b"}`,
			want: `{"a": "b"}`,
		},
		{
			name: "ограждение с языком",
			raw:  "```json\n{\"a\": \"b\"}\n```",
			want: `{"a": "b"}`,
		},
		{
			name: "ограждение без языка",
			raw:  "```\n{\"a\": \"b\"}\n```",
			want: `{"a": "b"}`,
		},
		{
			name: "пробелы вокруг ограждения",
			raw:  "  ```json\n{\"a\": \"b\"}\n```  ",
			want: `{"a": "b"}`,
		},
		{
			name: "ограждение внутри текста не трогаем",
			raw:  "prefix ```json\n{}\n``` suffix",
			want: "prefix ```json\n{}\n``` suffix",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripFences(tt.raw))
		})
	}
}

func TestParseJSONObject(t *testing.T) {
	parsed, err := parseJSONObject("```json\n{\"ordinaryWorld\": \"The hero wakes.\", \"ordeal\": \"Battle.\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"ordinaryWorld": "The hero wakes.",
		"ordeal":        "Battle.",
	}, parsed)
}

func TestParseJSONObject_DropsNonStringValues(t *testing.T) {
	parsed, err := parseJSONObject(`{"good": "text", "bad": 42, "worse": ["a"]}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"good": "text"}, parsed)
}

func TestParseJSONObject_InvalidJSON(t *testing.T) {
	_, err := parseJSONObject("Sure! Here is your story: once upon a time...")
	assert.ErrorIs(t, err, models.ErrAIInvalidFormat)
}

func TestParseQuestions(t *testing.T) {
	questions, err := parseQuestions("```json\n{\"questions\": [\"What drives the hero?\", \"Who opposes them?\"]}\n```")
	require.NoError(t, err)
	assert.Equal(t, []string{"What drives the hero?", "Who opposes them?"}, questions)
}

func TestParseQuestions_DropsNonStringEntries(t *testing.T) {
	questions, err := parseQuestions(`{"questions": ["valid", 7, null, "also valid"]}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"valid", "also valid"}, questions)
}

func TestParseQuestions_MissingKey(t *testing.T) {
	_, err := parseQuestions(`{"items": ["a"]}`)
	assert.ErrorIs(t, err, models.ErrAIInvalidFormat)
}

func TestMissingContentPlaceholder(t *testing.T) {
	got := missingContentPlaceholder("8. The Ordeal", ModeCreative)
	assert.Equal(t, "[AI content for 8. The Ordeal (creative mode) was not generated or was in an invalid format.]", got)
}

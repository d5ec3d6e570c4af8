package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"headdowell/internal/conversation"
	"headdowell/internal/history"
	"headdowell/internal/knowledge"
	"headdowell/internal/taxonomy"
)

func newEngine(t *testing.T) *conversation.Engine {
	t.Helper()
	tax, err := taxonomy.Default()
	require.NoError(t, err)
	graph, err := knowledge.Default()
	require.NoError(t, err)
	return conversation.NewEngine(tax, graph)
}

func TestRunChatPersistsAndResumes(t *testing.T) {
	engine := newEngine(t)
	store := history.NewFileStore(filepath.Join(t.TempDir(), "history.json"))

	var out bytes.Buffer
	err := runChat(context.Background(), engine, store, strings.NewReader("I feel tired\n\n/done\n"), &out, 0)
	require.NoError(t, err)
	assert.Contains(t, out.String(), conversation.Greeting)
	assert.Contains(t, out.String(), "Do you often feel tired even after sleeping?")

	rec, err := store.Load()
	require.NoError(t, err)
	// Greeting, user text, acknowledgement, introduction, first question.
	require.Len(t, rec.Messages, 5)
	require.NotNil(t, rec.State)
	assert.Equal(t, conversation.PhaseQuestioning, rec.State.Phase)

	// The next run picks up mid-questionnaire.
	out.Reset()
	err = runChat(context.Background(), engine, store, strings.NewReader("yes\n"), &out, 0)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Resuming your last conversation.")
	assert.Contains(t, out.String(), "Fatigue is one of the most common signs of depression.")

	rec, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, 1, rec.State.AffirmativeCount)
}

func TestRunChatClear(t *testing.T) {
	engine := newEngine(t)
	store := history.NewFileStore(filepath.Join(t.TempDir(), "history.json"))

	var out bytes.Buffer
	err := runChat(context.Background(), engine, store, strings.NewReader("I feel sad\n/clear\n/done\n"), &out, 0)
	require.NoError(t, err)

	rec, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, rec.Messages)
}

func TestPrintKnowledge(t *testing.T) {
	graph, err := knowledge.Default()
	require.NoError(t, err)

	var out bytes.Buffer
	printKnowledge(&out, graph)
	assert.Contains(t, out.String(), "Depression: A mood disorder characterized by persistent feelings of sadness")
	assert.Contains(t, out.String(), "  therapy: Exposure Therapy\n")
	assert.Contains(t, out.String(), "  coping: Create a calming playlist\n")
	assert.Contains(t, out.String(), "Professional support:\n  Consider speaking with a mental health professional\n")
}

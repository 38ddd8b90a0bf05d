// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package internal provides end-to-end tests wiring the session to a real
// HTTP completion client.
//
// These tests verify:
// - The request/response cycle over HTTP
// - Saving and continuing conversations
// - Failure taxonomy as seen by the session
// - Endpoint changes picked up from the config file
package internal

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/askq/internal/cloud"
	"github.com/jeranaias/askq/internal/config"
	"github.com/jeranaias/askq/internal/session"
)

// =============================================================================
// TEST UTILITIES
// =============================================================================

// fakeEndpoint is a generateContent server that records the prompts it sees.
type fakeEndpoint struct {
	*httptest.Server

	mu      sync.Mutex
	prompts []string
	reply   func(prompt string) (int, string)
}

func newFakeEndpoint(t *testing.T, reply func(prompt string) (int, string)) *fakeEndpoint {
	t.Helper()
	f := &fakeEndpoint{reply: reply}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req cloud.GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Contents) != 1 || len(req.Contents[0].Parts) != 1 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		prompt := req.Contents[0].Parts[0].Text

		f.mu.Lock()
		f.prompts = append(f.prompts, prompt)
		f.mu.Unlock()

		status, body := f.reply(prompt)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(f.Server.Close)
	return f
}

func (f *fakeEndpoint) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

func textBody(text string) string {
	data, _ := json.Marshal(cloud.GenerateResponse{
		Candidates: []cloud.Candidate{{Content: &cloud.Content{Parts: []cloud.Part{{Text: text}}}}},
	})
	return string(data)
}

func echoReply(prompt string) (int, string) {
	return http.StatusOK, textBody("**Answer** to: " + prompt)
}

// =============================================================================
// END-TO-END TESTS
// =============================================================================

func TestEndToEnd_AskOverHTTP(t *testing.T) {
	endpoint := newFakeEndpoint(t, func(string) (int, string) {
		return http.StatusOK, textBody("**AI** learns\npatterns.")
	})
	sess := session.New(cloud.NewClient(endpoint.URL + "/v1/models/m:generateContent?key=k"))

	require.NoError(t, sess.SubmitQuestion(context.Background(), "  What is AI?  "))

	st := sess.Snapshot()
	assert.False(t, st.IsLoading)
	require.Len(t, st.ActiveTranscript, 2)
	assert.Equal(t, "What is AI?", st.ActiveTranscript[0].Text)
	assert.Equal(t, "AI learns patterns.", st.ActiveTranscript[1].Text)
	require.Len(t, st.SavedConversations, 1)
	assert.Equal(t, "What is AI?", st.SavedConversations[0].Title)
	assert.Equal(t, []string{"What is AI?"}, endpoint.seen())
}

func TestEndToEnd_OnlyTheQuestionIsSent(t *testing.T) {
	endpoint := newFakeEndpoint(t, echoReply)
	sess := session.New(cloud.NewClient(endpoint.URL))
	ctx := context.Background()

	require.NoError(t, sess.SubmitQuestion(ctx, "first"))
	require.NoError(t, sess.SubmitQuestion(ctx, "second"))

	assert.Equal(t, []string{"first", "second"}, endpoint.seen())
	assert.Len(t, sess.Snapshot().ActiveTranscript, 4)
}

func TestEndToEnd_SwitchAndContinue(t *testing.T) {
	endpoint := newFakeEndpoint(t, echoReply)
	sess := session.New(cloud.NewClient(endpoint.URL))
	ctx := context.Background()

	require.NoError(t, sess.SubmitQuestion(ctx, "alpha"))
	alphaID := sess.Snapshot().ActiveConversationID
	sess.StartNewChat()
	require.NoError(t, sess.SubmitQuestion(ctx, "beta"))

	require.True(t, sess.SelectConversation(alphaID))
	require.NoError(t, sess.SubmitQuestion(ctx, "alpha again"))

	st := sess.Snapshot()
	require.Len(t, st.SavedConversations, 2)
	alpha, ok := sess.Conversation(alphaID)
	require.True(t, ok)
	assert.Equal(t, 4, alpha.TurnCount())
	assert.Equal(t, "alpha", alpha.Title)
	assert.Equal(t, "Answer to: alpha again", alpha.Transcript[3].Text)
}

func TestEndToEnd_ServerErrorKeepsQuestion(t *testing.T) {
	endpoint := newFakeEndpoint(t, func(string) (int, string) {
		return http.StatusInternalServerError, `{"error":{"message":"backend exploded"}}`
	})
	sess := session.New(cloud.NewClient(endpoint.URL))

	err := sess.SubmitQuestion(context.Background(), "Will it work?")
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, cloud.StatusCode(err))

	st := sess.Snapshot()
	assert.False(t, st.IsLoading)
	assert.Contains(t, st.LastError, "HTTP 500")
	assert.Contains(t, st.LastError, "backend exploded")
	require.Len(t, st.ActiveTranscript, 1)
	assert.True(t, st.ActiveTranscript[0].IsQuestion())
	assert.Empty(t, st.SavedConversations)
}

func TestEndToEnd_MalformedResponse(t *testing.T) {
	endpoint := newFakeEndpoint(t, func(string) (int, string) {
		return http.StatusOK, `{"candidates":[]}`
	})
	sess := session.New(cloud.NewClient(endpoint.URL))

	err := sess.SubmitQuestion(context.Background(), "q")
	require.Error(t, err)
	assert.True(t, cloud.IsMalformed(err))
	assert.True(t, sess.Snapshot().HasError())
}

func TestEndToEnd_CancelledRequest(t *testing.T) {
	arrived := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(arrived)
		<-r.Context().Done()
	}))
	defer server.Close()

	sess := session.New(cloud.NewClient(server.URL))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- sess.SubmitQuestion(ctx, "slow question") }()

	<-arrived
	assert.True(t, sess.Snapshot().IsLoading)
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.True(t, cloud.IsTransport(err))
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(5 * time.Second):
		t.Fatal("submission did not return after cancel")
	}
	assert.False(t, sess.Snapshot().IsLoading)
}

func TestEndToEnd_ConfigReloadRetargetsClient(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(config.EnvEndpointURL, "")
	t.Setenv(config.EnvEndpointTimeout, "")

	first := newFakeEndpoint(t, echoReply)
	second := newFakeEndpoint(t, echoReply)

	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := config.Default()
	cfg.Endpoint.URL = first.URL + "/gen"
	require.NoError(t, config.Save(cfg, path))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	client := cloud.NewClient(loaded.Endpoint.URL).WithTimeout(loaded.Endpoint.Timeout())
	sess := session.New(client)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, config.WatchWithDebounce(ctx, path, 20*time.Millisecond, func(c *config.Config, err error) {
		if err == nil {
			client.SetEndpoint(c.Endpoint.URL)
			client.SetTimeout(c.Endpoint.Timeout())
		}
	}))

	require.NoError(t, sess.SubmitQuestion(ctx, "to first"))

	cfg.Endpoint.URL = second.URL + "/gen"
	cfg.Endpoint.TimeoutSecs = 5
	require.NoError(t, config.Save(cfg, path))

	require.Eventually(t, func() bool {
		return client.EndpointRedacted() == second.URL+"/gen"
	}, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, sess.SubmitQuestion(ctx, "to second"))
	assert.Equal(t, []string{"to first"}, first.seen())
	assert.Equal(t, []string{"to second"}, second.seen())

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
}

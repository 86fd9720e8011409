package discord

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/go-faster/errors"
	"github.com/stake-plus/govcomms-suggestions/src/suggestions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestSurface points the channel endpoints of discordgo at handler.
func newTestSurface(t *testing.T, handler http.HandlerFunc) *Surface {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	prev := discordgo.EndpointChannels
	discordgo.EndpointChannels = srv.URL + "/channels/"
	t.Cleanup(func() { discordgo.EndpointChannels = prev })

	session, err := discordgo.New("Bot test")
	require.NoError(t, err)
	session.MaxRestRetries = 0
	return NewSurface(session, SurfaceConfig{GuildID: "g", ChannelID: "c"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func unknown(code int) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Unknown", "code": code})
	}
}

func TestDeleteOfMissingResourcesSucceeds(t *testing.T) {
	ctx := context.Background()

	surface := newTestSurface(t, unknown(discordgo.ErrCodeUnknownMessage))
	assert.NoError(t, surface.DeleteMessage(ctx, "m1"))

	surface = newTestSurface(t, unknown(discordgo.ErrCodeUnknownChannel))
	assert.NoError(t, surface.DeleteThread(ctx, "m1"))
}

func TestDeleteMessageReportsOtherFailures(t *testing.T) {
	surface := newTestSurface(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]any{"message": "Missing Permissions", "code": 50013})
	})
	assert.Error(t, surface.DeleteMessage(context.Background(), "m1"))
}

func TestIsUnknownResource(t *testing.T) {
	assert.True(t, IsUnknownResource(&discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusNotFound}}))
	assert.True(t, IsUnknownResource(errors.Wrap(&discordgo.RESTError{
		Response: &http.Response{StatusCode: http.StatusBadRequest},
		Message:  &discordgo.APIErrorMessage{Code: discordgo.ErrCodeUnknownMessage},
	}, "delete")))
	assert.False(t, IsUnknownResource(&discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusForbidden}}))
	assert.False(t, IsUnknownResource(errors.New("timeout")))
}

func TestRenderFetchesMessageOnce(t *testing.T) {
	s := &suggestions.Suggestion{ID: 7, Status: suggestions.StatusOpen, VotesFor: 1}
	stored := &discordgo.Message{
		ID:        "m1",
		ChannelID: "c",
		Embeds: []*discordgo.MessageEmbed{BuildEmbed(suggestions.Display{
			SuggestionID: 7,
			Title:        "Dark mode",
			Description:  "Please",
			Status:       suggestions.StatusOpen,
			Layout:       suggestions.NewLayout(s),
		})},
	}

	var (
		mu     sync.Mutex
		gets   int
		edited []*discordgo.MessageEmbed
	)
	surface := newTestSurface(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch r.Method {
		case http.MethodGet:
			gets++
		case http.MethodPatch:
			var body struct {
				Embeds []*discordgo.MessageEmbed `json:"embeds"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			edited = body.Embeds
		}
		writeJSON(w, http.StatusOK, stored)
	})

	var seen suggestions.Layout
	err := surface.Render(context.Background(), "m1", suggestions.StatusApproved, func(current suggestions.Layout) (suggestions.Layout, error) {
		seen = current
		return current.WithCounts(suggestions.Tally{For: 5, Against: 2})
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, gets)
	assert.Equal(t, suggestions.NewLayout(s), seen)
	require.Len(t, edited, 1)
	assert.Equal(t, "Dark mode", edited[0].Title)
	assert.Equal(t, suggestions.StatusApproved.Style().Color, edited[0].Color)
	assert.Equal(t, "5", edited[0].Fields[1].Value)
	assert.Equal(t, "2", edited[0].Fields[2].Value)
}

func TestRenderSkipsEditWhenUpdateDeclines(t *testing.T) {
	var patches int
	surface := newTestSurface(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPatch {
			patches++
		}
		writeJSON(w, http.StatusOK, &discordgo.Message{ID: "m1", ChannelID: "c"})
	})

	err := surface.Render(context.Background(), "m1", suggestions.StatusOpen, func(suggestions.Layout) (suggestions.Layout, error) {
		return nil, nil
	})
	require.NoError(t, err)
	assert.Zero(t, patches)
}

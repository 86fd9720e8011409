package webserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/OneOfOne/xxhash"
	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/stake-plus/govcomms-suggestions/src/suggestions"
)

type Suggestions struct {
	src Source
}

func NewSuggestions(src Source) Suggestions {
	return Suggestions{src: src}
}

type listEntry struct {
	ID    uint64 `json:"id"`
	Title string `json:"title"`
	Link  string `json:"link"`
}

type listGroup struct {
	Status      string      `json:"status"`
	Suggestions []listEntry `json:"suggestions"`
}

type suggestionView struct {
	ID           uint64 `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	AuthorID     string `json:"author_id"`
	Status       string `json:"status"`
	StatusReason string `json:"status_reason,omitempty"`
	VotesFor     int    `json:"votes_for"`
	VotesAgainst int    `json:"votes_against"`
	Link         string `json:"link,omitempty"`
}

// List serves the Open, Considered and Approved suggestions. Responses carry
// an ETag so pollers can revalidate cheaply.
func (h Suggestions) List(c *gin.Context) {
	groups, err := h.src.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}

	out := make([]listGroup, 0, len(groups))
	for _, g := range groups {
		entries := make([]listEntry, 0, len(g.Entries))
		for _, e := range g.Entries {
			entries = append(entries, listEntry{ID: e.ID, Title: e.Title, Link: e.Link})
		}
		out = append(out, listGroup{Status: g.Status.String(), Suggestions: entries})
	}

	body, err := json.Marshal(out)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}

	etag := fmt.Sprintf(`"%016x"`, xxhash.Checksum64(body))
	c.Header("ETag", etag)
	c.Header("Cache-Control", "no-cache")
	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func (h Suggestions) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"err": "bad id"})
		return
	}

	s, err := h.src.Get(c.Request.Context(), id)
	switch {
	case errors.Is(err, suggestions.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"err": "not found"})
		return
	case err != nil:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}

	c.JSON(http.StatusOK, suggestionView{
		ID:           s.ID,
		Title:        s.Title,
		Description:  s.Description,
		AuthorID:     s.AuthorID,
		Status:       s.Status.String(),
		StatusReason: s.StatusReason,
		VotesFor:     s.VotesFor,
		VotesAgainst: s.VotesAgainst,
		Link:         h.src.Link(s),
	})
}

package server

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/yuin/goldmark"

	"github.com/hrygo/solace/internal/version"
)

// ChatRequest is the POST /api/chat payload.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
	// Format selects the response rendering: "text" (default) or
	// "html" for a Markdown-rendered reply.
	Format string `json:"format,omitempty"`
}

// ChatData is the successful chat response body.
type ChatData struct {
	Response     string `json:"response"`
	ResponseHTML string `json:"response_html,omitempty"`
	Stage        string `json:"stage"`
	IsCrisis     bool   `json:"is_crisis"`
	SessionID    string `json:"session_id"`
}

type apiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) handleChat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apiResponse{Error: "invalid request body"})
	}
	if strings.TrimSpace(req.Message) == "" {
		return c.JSON(http.StatusBadRequest, apiResponse{Error: "message is required"})
	}

	session, result := s.sessions.Resolve(c.Request().Context(), s.pipeline, req.SessionID, req.Message)

	data := ChatData{
		Response:  result.Text,
		Stage:     string(result.Stage),
		IsCrisis:  result.IsCrisis,
		SessionID: session.ID,
	}
	if req.Format == "html" {
		var buf bytes.Buffer
		if err := goldmark.Convert([]byte(result.Text), &buf); err == nil {
			data.ResponseHTML = buf.String()
		}
	}

	return c.JSON(http.StatusOK, apiResponse{Success: true, Data: data})
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, apiResponse{Success: true, Data: map[string]any{
		"status":  "ok",
		"mode":    s.profile.Mode,
		"version": version.GetCurrentVersion(s.profile.Mode),
	}})
}

func (s *Server) handleInsights(c echo.Context) error {
	snapshot := s.pipeline.Insights().Snapshot()
	return c.JSON(http.StatusOK, apiResponse{Success: true, Data: map[string]any{
		"insights": snapshot,
		"sessions": s.sessions.Count(),
	}})
}

// handleTranscript returns the persisted transcript for a session. 404
// when persistence is disabled.
func (s *Server) handleTranscript(c echo.Context) error {
	if s.store == nil {
		return c.JSON(http.StatusNotFound, apiResponse{Error: "transcripts not persisted in this mode"})
	}
	turns, err := s.store.ListTranscripts(c.Request().Context(), c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, apiResponse{Error: "failed to load transcript"})
	}
	return c.JSON(http.StatusOK, apiResponse{Success: true, Data: turns})
}

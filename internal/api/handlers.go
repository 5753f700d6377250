package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"strategy-builder/internal/auth"
	"strategy-builder/internal/database"
	"strategy-builder/internal/extract"
	"strategy-builder/internal/pipeline"
	"strategy-builder/internal/session"
)

// TurnRequest is the client-facing shape of one conversation turn. The
// server owns history and accumulated rules; clients only send the new
// input.
type TurnRequest struct {
	Message             string `json:"message"`
	ConversationID      string `json:"conversation_id,omitempty"`
	CriticalAnswer      string `json:"critical_answer,omitempty"`
	PatternConfirmation bool   `json:"pattern_confirmation,omitempty"`
}

func (s *Server) handleHealth(c *gin.Context) {
	status := gin.H{"status": "ok"}
	if s.repo != nil {
		if err := s.repo.HealthCheck(c.Request.Context()); err != nil {
			status["status"] = "degraded"
			status["database"] = "unreachable"
		} else {
			status["database"] = "ok"
		}
	}
	c.JSON(http.StatusOK, status)
}

// handleBuild processes one conversation turn.
func (s *Server) handleBuild(c *gin.Context) {
	var req TurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "INVALID_REQUEST", "message": err.Error()})
		return
	}
	if req.Message == "" && req.CriticalAnswer == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "INVALID_REQUEST", "message": "message or critical_answer is required"})
		return
	}

	ctx := c.Request.Context()

	sess := s.loadOrCreateSession(ctx, req.ConversationID)
	if userID, ok := auth.UserIDFromContext(c); ok && sess.UserID == "" {
		sess.UserID = userID
	}

	resp := s.builder.Build(ctx, pipeline.BuildRequest{
		Message:             req.Message,
		ConversationID:      sess.ConversationID,
		CriticalAnswer:      req.CriticalAnswer,
		PatternConfirmation: req.PatternConfirmation,
		PartialRules:        sess.Rules,
		History:             sess.History,
	})

	s.advanceSession(ctx, sess, req, resp)
	s.persistTurn(ctx, sess, req, resp)

	if resp.Type == pipeline.ResponseStrategyComplete {
		s.hub.BroadcastStrategy(resp)
	}

	c.JSON(http.StatusOK, resp)
}

// loadOrCreateSession fetches the conversation state, starting a fresh
// session for unknown or expired IDs.
func (s *Server) loadOrCreateSession(ctx context.Context, conversationID string) *session.Session {
	if conversationID != "" {
		if sess, err := s.sessions.Get(ctx, conversationID); err == nil {
			return sess
		} else if !errors.Is(err, session.ErrNotFound) {
			s.log.Warn().Err(err).Msg("Session load failed, starting fresh")
		}
	}
	if conversationID == "" {
		conversationID = uuid.New().String()
	}
	return &session.Session{ConversationID: conversationID}
}

// advanceSession folds the turn into the stored conversation state.
func (s *Server) advanceSession(ctx context.Context, sess *session.Session, req TurnRequest, resp pipeline.BuildResponse) {
	sess.ConversationID = resp.ConversationID
	sess.Rules = resp.Rules
	sess.Phase = resp.Phase
	if resp.Pattern != "" {
		sess.Pattern = resp.Pattern
	}

	if req.Message != "" {
		sess.History = append(sess.History, extract.Message{Role: extract.RoleUser, Content: req.Message})
	} else if req.CriticalAnswer != "" {
		sess.History = append(sess.History, extract.Message{Role: extract.RoleUser, Content: req.CriticalAnswer})
	}
	if reply := assistantReply(resp); reply != "" {
		sess.History = append(sess.History, extract.Message{Role: extract.RoleAssistant, Content: reply})
	}

	if err := s.sessions.Save(ctx, sess); err != nil {
		s.log.Warn().Err(err).Str("conversation_id", sess.ConversationID).Msg("Session save failed")
	}
}

// assistantReply picks the text that represents this turn's response in the
// conversation history.
func assistantReply(resp pipeline.BuildResponse) string {
	switch {
	case resp.Question != nil:
		return resp.Question.Prompt
	case resp.Message != "":
		return resp.Message
	case resp.Type == pipeline.ResponseStrategyComplete:
		return "Your strategy is complete."
	}
	return ""
}

// persistTurn writes the conversation and any completed strategy to the
// database. Persistence failures are logged, not surfaced; the turn already
// succeeded.
func (s *Server) persistTurn(ctx context.Context, sess *session.Session, req TurnRequest, resp pipeline.BuildResponse) {
	if s.repo == nil {
		return
	}

	conv := &database.Conversation{ID: sess.ConversationID, Phase: string(resp.Phase)}
	if sess.UserID != "" {
		conv.UserID = &sess.UserID
	}
	if resp.Pattern != "" {
		conv.Pattern = &resp.Pattern
	}
	if err := s.repo.UpsertConversation(ctx, conv); err != nil {
		s.log.Warn().Err(err).Msg("Conversation persist failed")
		return
	}

	content := req.Message
	if content == "" {
		content = req.CriticalAnswer
	}
	if content != "" {
		msg := &database.ConversationMessage{
			ConversationID: sess.ConversationID,
			Role:           extract.RoleUser,
			Content:        content,
		}
		if err := s.repo.AddMessage(ctx, msg); err != nil {
			s.log.Warn().Err(err).Msg("Message persist failed")
		}
	}
	if reply := assistantReply(resp); reply != "" {
		msg := &database.ConversationMessage{
			ConversationID: sess.ConversationID,
			Role:           extract.RoleAssistant,
			Content:        reply,
		}
		if err := s.repo.AddMessage(ctx, msg); err != nil {
			s.log.Warn().Err(err).Msg("Message persist failed")
		}
	}

	if resp.Type == pipeline.ResponseStrategyComplete {
		s.persistStrategy(ctx, sess, resp)
	}
}

func (s *Server) persistStrategy(ctx context.Context, sess *session.Session, resp pipeline.BuildResponse) {
	rulesJSON, err := json.Marshal(resp.Rules)
	if err != nil {
		s.log.Error().Err(err).Msg("Rules marshal failed")
		return
	}
	strategyJSON, err := json.Marshal(resp.Strategy)
	if err != nil {
		s.log.Error().Err(err).Msg("Strategy marshal failed")
		return
	}
	coordsJSON, err := json.Marshal(resp.Coordinates)
	if err != nil {
		s.log.Error().Err(err).Msg("Coordinates marshal failed")
		return
	}

	rec := &database.StrategyRecord{
		ID:              uuid.New().String(),
		ConversationID:  &sess.ConversationID,
		Pattern:         resp.Pattern,
		Rules:           rulesJSON,
		Strategy:        strategyJSON,
		Coordinates:     coordsJSON,
		DefaultsApplied: resp.DefaultsApplied,
	}
	if sess.UserID != "" {
		rec.UserID = &sess.UserID
	}
	if resp.Strategy != nil && resp.Strategy.Instrument != nil {
		rec.Instrument = &resp.Strategy.Instrument.Symbol
	}

	if err := s.repo.SaveStrategy(ctx, rec); err != nil {
		s.log.Warn().Err(err).Msg("Strategy persist failed")
		return
	}
	s.log.Info().Str("strategy_id", rec.ID).Str("pattern", rec.Pattern).Msg("Strategy saved")
}

// handleReset discards a conversation's accumulated state.
func (s *Server) handleReset(c *gin.Context) {
	var req struct {
		ConversationID string `json:"conversation_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "INVALID_REQUEST", "message": err.Error()})
		return
	}

	if err := s.sessions.Delete(c.Request.Context(), req.ConversationID); err != nil {
		s.log.Warn().Err(err).Msg("Session delete failed")
	}
	c.JSON(http.StatusOK, gin.H{"status": "reset", "conversation_id": req.ConversationID})
}

// handleGetConversation returns the live state of a conversation.
func (s *Server) handleGetConversation(c *gin.Context) {
	id := c.Param("id")

	sess, err := s.sessions.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "NOT_FOUND", "message": "conversation not found or expired"})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "SESSION_STORE_UNAVAILABLE"})
		return
	}

	c.JSON(http.StatusOK, sess)
}

// handleGetStrategy returns a persisted strategy by ID.
func (s *Server) handleGetStrategy(c *gin.Context) {
	if s.repo == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "PERSISTENCE_DISABLED"})
		return
	}

	rec, err := s.repo.GetStrategy(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "NOT_FOUND"})
			return
		}
		s.log.Error().Err(err).Msg("Strategy lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "INTERNAL_ERROR"})
		return
	}

	c.JSON(http.StatusOK, strategyJSON(rec))
}

// handleListStrategies returns the authenticated user's saved strategies.
func (s *Server) handleListStrategies(c *gin.Context) {
	if s.repo == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "PERSISTENCE_DISABLED"})
		return
	}

	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": auth.ErrUnauthorized.Code, "message": auth.ErrUnauthorized.Message})
		return
	}

	records, err := s.repo.ListStrategies(c.Request.Context(), userID, 50)
	if err != nil {
		s.log.Error().Err(err).Msg("Strategy list failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "INTERNAL_ERROR"})
		return
	}

	out := make([]gin.H, 0, len(records))
	for i := range records {
		out = append(out, strategyJSON(&records[i]))
	}
	c.JSON(http.StatusOK, gin.H{"strategies": out})
}

// strategyJSON re-inflates the stored JSON documents so clients receive
// structured objects rather than escaped strings.
func strategyJSON(rec *database.StrategyRecord) gin.H {
	out := gin.H{
		"id":               rec.ID,
		"pattern":          rec.Pattern,
		"defaults_applied": rec.DefaultsApplied,
		"created_at":       rec.CreatedAt,
	}
	if rec.ConversationID != nil {
		out["conversation_id"] = *rec.ConversationID
	}
	if rec.Instrument != nil {
		out["instrument"] = *rec.Instrument
	}
	out["rules"] = json.RawMessage(rec.Rules)
	out["strategy"] = json.RawMessage(rec.Strategy)
	if len(rec.Coordinates) > 0 {
		out["coordinates"] = json.RawMessage(rec.Coordinates)
	}
	return out
}

package web

import (
	"errors"
	"net/http"

	"github.com/vbonduro/shopassist/internal/api"
	"github.com/vbonduro/shopassist/internal/chat"
	"github.com/vbonduro/shopassist/internal/identity"
)

type chatView struct {
	Messages []chat.Message
	CanRetry bool
	Err      string
}

// chatView builds the widget state for the device's current conversation.
func (s *Server) chatView(r *http.Request, errMsg string) chatView {
	convID, err := identity.ConversationID(r.Context(), s.Store.Scope(deviceID(r)))
	if err != nil {
		s.logger.Warn("conversation id failed", "error", err)
		return chatView{Messages: []chat.Message{{Role: chat.RoleAssistant, Text: chat.Greeting}}, Err: errMsg}
	}
	return chatView{
		Messages: s.Chat.Transcript(convID),
		CanRetry: s.Chat.CanRetry(convID),
		Err:      errMsg,
	}
}

func (s *Server) renderChat(w http.ResponseWriter, r *http.Request, status int, errMsg string) {
	if err := s.renderPartialStatus(w, status, "partials/chat.html", s.chatView(r, errMsg)); err != nil {
		s.logger.Error("render partial failed", "error", err)
	}
}

func (s *Server) conversation(w http.ResponseWriter, r *http.Request) (string, bool) {
	convID, err := identity.ConversationID(r.Context(), s.Store.Scope(deviceID(r)))
	if err != nil {
		http.Error(w, "failed to load conversation", http.StatusInternalServerError)
		s.logger.Error("conversation id failed", "error", err)
		return "", false
	}
	return convID, true
}

func (s *Server) handleChatTranscript(w http.ResponseWriter, r *http.Request) {
	s.renderChat(w, r, http.StatusOK, "")
}

// handleChatAsk relays the message and re-renders the transcript. A failed
// reply is part of the transcript, with a retry button, so it is not an HTTP
// error.
func (s *Server) handleChatAsk(w http.ResponseWriter, r *http.Request) {
	convID, ok := s.conversation(w, r)
	if !ok {
		return
	}
	_, err := s.Chat.Ask(r.Context(), convID, r.FormValue("message"))
	if api.KindOf(err) == api.KindValidation {
		s.renderChat(w, r, http.StatusUnprocessableEntity, api.Message(err))
		return
	}
	s.renderChat(w, r, http.StatusOK, "")
}

func (s *Server) handleChatRetry(w http.ResponseWriter, r *http.Request) {
	convID, ok := s.conversation(w, r)
	if !ok {
		return
	}
	if _, err := s.Chat.Retry(r.Context(), convID); errors.Is(err, chat.ErrNothingToRetry) {
		s.renderChat(w, r, http.StatusBadRequest, err.Error())
		return
	}
	s.renderChat(w, r, http.StatusOK, "")
}

// handleChatReset starts a new conversation for the device.
func (s *Server) handleChatReset(w http.ResponseWriter, r *http.Request) {
	convID, ok := s.conversation(w, r)
	if !ok {
		return
	}
	s.Chat.Forget(convID)
	if _, err := identity.ResetConversation(r.Context(), s.Store.Scope(deviceID(r))); err != nil {
		http.Error(w, "failed to reset conversation", http.StatusInternalServerError)
		s.logger.Error("reset conversation failed", "error", err)
		return
	}
	s.renderChat(w, r, http.StatusOK, "")
}

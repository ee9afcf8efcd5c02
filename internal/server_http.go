package internal

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"chatpane/internal/storage"
)

type conversationDTO struct {
	Key     string `json:"key"`
	IsGroup bool   `json:"is_group"`
}

type senderDTO struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

type fileDTO struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type messageDTO struct {
	ID      string    `json:"id"`
	Sender  senderDTO `json:"sender"`
	Content string    `json:"content"`
	Ts      int64     `json:"ts"`
	Files   []fileDTO `json:"files,omitempty"`
}

type transcriptResponse struct {
	Conversation conversationDTO `json:"conversation"`
	Messages     []messageDTO    `json:"messages"`
}

type ingestRequest struct {
	Sender  string   `json:"sender"`
	Avatar  string   `json:"avatar,omitempty"`
	Content string   `json:"content"`
	Ts      int64    `json:"ts,omitempty"`
	Files   []string `json:"files,omitempty"`
	IsGroup bool     `json:"is_group,omitempty"`
}

type editRequest struct {
	Content string `json:"content"`
}

type shareRequest struct {
	UserID  int64 `json:"user_id,omitempty"`
	GroupID int64 `json:"group_id,omitempty"`
}

type userDTO struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
	Online   bool   `json:"online"`
}

type groupDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type directoryResponse struct {
	Users  []userDTO  `json:"users"`
	Groups []groupDTO `json:"groups"`
}

// HandleConversations routes /conversations/{key}/messages.
func (s *Server) HandleConversations(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/conversations/"), "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "messages" {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}
	key := parts[0]
	switch r.Method {
	case http.MethodGet:
		s.handleListMessages(w, r, key)
	case http.MethodPost:
		s.handleIngestMessage(w, r, key)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request, key string) {
	conv, err := s.store.GetConversation(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if conv == nil {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}
	messages, err := s.store.ListMessages(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	resp := transcriptResponse{
		Conversation: conversationDTO{Key: conv.Key, IsGroup: conv.IsGroup},
		Messages:     make([]messageDTO, 0, len(messages)),
	}
	for _, msg := range messages {
		dto := messageDTO{
			ID: msg.ID,
			Sender: senderDTO{
				ID:       msg.SenderID,
				Username: msg.SenderName,
				Avatar:   msg.SenderAvatar,
			},
			Content: msg.Content,
			Ts:      msg.Ts.Unix(),
		}
		for _, file := range msg.Files {
			dto.Files = append(dto.Files, fileDTO{ID: file.ID, URL: file.URL})
		}
		resp.Messages = append(resp.Messages, dto)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleIngestMessage(w http.ResponseWriter, r *http.Request, key string) {
	if !s.mutationLimiter.Allow(s.clientIP(r)) {
		http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		return
	}
	var req ingestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sender := strings.TrimSpace(req.Sender)
	if sender == "" {
		writeError(w, http.StatusBadRequest, errors.New("sender is required"))
		return
	}
	if strings.TrimSpace(req.Content) == "" && len(req.Files) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("message needs content or files"))
		return
	}

	user, err := s.store.GetUserByUsername(r.Context(), sender)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if user == nil {
		id, err := s.store.CreateUser(r.Context(), sender, req.Avatar)
		if errors.Is(err, storage.ErrUserExists) {
			user, err = s.store.GetUserByUsername(r.Context(), sender)
			if err != nil || user == nil {
				writeError(w, http.StatusInternalServerError, errors.New("sender lookup failed"))
				return
			}
		} else if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		} else {
			user = &storage.User{ID: id, Username: sender, Avatar: req.Avatar}
		}
	}
	if err := s.store.EnsureConversation(r.Context(), key, req.IsGroup); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	ts := time.Now()
	if req.Ts != 0 {
		ts = time.Unix(req.Ts, 0)
	}
	msg := storage.Message{
		ID:              uuid.NewString(),
		ConversationKey: key,
		SenderID:        user.ID,
		Content:         req.Content,
		Ts:              ts,
	}
	for _, url := range req.Files {
		url = strings.TrimSpace(url)
		if url == "" {
			continue
		}
		msg.Files = append(msg.Files, storage.Attachment{
			ID:     uuid.NewString(),
			URL:    url,
			SHA256: s.hashLocalAttachment(url),
		})
	}
	if err := s.store.InsertMessage(r.Context(), msg); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.metrics.IncMessage()
	s.broadcastEvent(ChangeEvent{
		Type:            EventMessagePosted,
		ConversationKey: key,
		MessageID:       msg.ID,
		Ts:              ts.Unix(),
	})
	writeJSON(w, http.StatusCreated, map[string]any{"id": msg.ID, "ts": ts.Unix()})
}

// HandleMessages routes /messages/{id}, /messages/{id}/share, and
// /messages/{id}/files/{fileID}.
func (s *Server) HandleMessages(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/messages/"), "/"), "/")
	if parts[0] == "" {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}
	messageID := parts[0]
	switch {
	case len(parts) == 1:
		switch r.Method {
		case http.MethodPatch:
			s.handleEditMessage(w, r, messageID)
		case http.MethodDelete:
			s.handleDeleteMessage(w, r, messageID)
		default:
			methodNotAllowed(w, "PATCH, DELETE")
		}
	case len(parts) == 2 && parts[1] == "share":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		s.handleShareMessage(w, r, messageID)
	case len(parts) == 3 && parts[1] == "files":
		if r.Method != http.MethodDelete {
			methodNotAllowed(w, http.MethodDelete)
			return
		}
		s.handleDeleteFile(w, r, messageID, parts[2])
	default:
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	}
}

func (s *Server) handleEditMessage(w http.ResponseWriter, r *http.Request, messageID string) {
	if !s.mutationLimiter.Allow(s.clientIP(r)) {
		http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		return
	}
	var req editRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, errors.New("content is required"))
		return
	}
	msg, err := s.store.GetMessage(r.Context(), messageID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if msg == nil {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}
	if err := s.store.UpdateMessageContent(r.Context(), messageID, req.Content); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.metrics.IncEdit()
	s.broadcastEvent(ChangeEvent{
		Type:            EventMessageUpdated,
		ConversationKey: msg.ConversationKey,
		MessageID:       messageID,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteMessage(w http.ResponseWriter, r *http.Request, messageID string) {
	if !s.mutationLimiter.Allow(s.clientIP(r)) {
		http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		return
	}
	msg, err := s.store.GetMessage(r.Context(), messageID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if msg == nil {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}
	if err := s.store.DeleteMessage(r.Context(), messageID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.metrics.IncDelete()
	s.broadcastEvent(ChangeEvent{
		Type:            EventMessageDeleted,
		ConversationKey: msg.ConversationKey,
		MessageID:       messageID,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request, messageID, fileID string) {
	if !s.mutationLimiter.Allow(s.clientIP(r)) {
		http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		return
	}
	msg, err := s.store.GetMessage(r.Context(), messageID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if msg == nil {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}
	if err := s.store.DeleteAttachment(r.Context(), messageID, fileID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.metrics.IncFileDelete()
	s.broadcastEvent(ChangeEvent{
		Type:            EventFileDeleted,
		ConversationKey: msg.ConversationKey,
		MessageID:       messageID,
		FileID:          fileID,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleShareMessage(w http.ResponseWriter, r *http.Request, messageID string) {
	if !s.mutationLimiter.Allow(s.clientIP(r)) {
		http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		return
	}
	var req shareRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if (req.UserID == 0) == (req.GroupID == 0) {
		writeError(w, http.StatusBadRequest, errors.New("choose exactly one of user_id or group_id"))
		return
	}
	msg, err := s.store.GetMessage(r.Context(), messageID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if msg == nil {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}
	share := storage.Share{
		ID:        uuid.NewString(),
		MessageID: messageID,
		UserID:    req.UserID,
		GroupID:   req.GroupID,
	}
	if err := s.store.RecordShare(r.Context(), share); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.metrics.IncShare()
	s.broadcastEvent(ChangeEvent{
		Type:            EventMessageShared,
		ConversationKey: msg.ConversationKey,
		MessageID:       messageID,
	})
	writeJSON(w, http.StatusCreated, map[string]string{"id": share.ID})
}

// HandleFiles routes /files/{fileID}/share.
func (s *Server) HandleFiles(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/files/"), "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "share" {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	s.handleShareFile(w, r, parts[0])
}

func (s *Server) handleShareFile(w http.ResponseWriter, r *http.Request, fileID string) {
	if !s.mutationLimiter.Allow(s.clientIP(r)) {
		http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		return
	}
	var req shareRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if (req.UserID == 0) == (req.GroupID == 0) {
		writeError(w, http.StatusBadRequest, errors.New("choose exactly one of user_id or group_id"))
		return
	}
	file, err := s.store.GetAttachment(r.Context(), fileID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if file == nil {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}
	msg, err := s.store.GetMessage(r.Context(), file.MessageID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	share := storage.Share{
		ID:           uuid.NewString(),
		AttachmentID: fileID,
		UserID:       req.UserID,
		GroupID:      req.GroupID,
	}
	if err := s.store.RecordShare(r.Context(), share); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.metrics.IncShare()
	if msg != nil {
		s.broadcastEvent(ChangeEvent{
			Type:            EventMessageShared,
			ConversationKey: msg.ConversationKey,
			MessageID:       msg.ID,
			FileID:          fileID,
		})
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": share.ID})
}

// HandleDirectory serves the share-picker's users and groups.
func (s *Server) HandleDirectory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	groups, err := s.store.ListGroups(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	resp := directoryResponse{
		Users:  make([]userDTO, 0, len(users)),
		Groups: make([]groupDTO, 0, len(groups)),
	}
	for _, u := range users {
		resp.Users = append(resp.Users, userDTO{
			ID:       u.ID,
			Username: u.Username,
			Avatar:   u.Avatar,
			Online:   s.presence.Online(u.ID),
		})
	}
	for _, g := range groups {
		resp.Groups = append(resp.Groups, groupDTO{ID: g.ID, Name: g.Name})
	}
	writeJSON(w, http.StatusOK, resp)
}

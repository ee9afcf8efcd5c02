package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"chatpane/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := storage.NewStore("sqlite://file:" + t.Name() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewServer(store, t.TempDir())
}

func doRequest(t *testing.T, handler http.HandlerFunc, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewBuffer(encoded)
	} else {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func ingestTestMessage(t *testing.T, server *Server, key string, payload ingestRequest) string {
	t.Helper()
	rec := doRequest(t, server.HandleConversations, http.MethodPost, "/conversations/"+key+"/messages", payload)
	if rec.Code != http.StatusCreated {
		t.Fatalf("ingest returned %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode ingest response: %v", err)
	}
	id, _ := resp["id"].(string)
	if id == "" {
		t.Fatal("ingest response missing id")
	}
	return id
}

func fetchTestTranscript(t *testing.T, server *Server, key string) transcriptResponse {
	t.Helper()
	rec := doRequest(t, server.HandleConversations, http.MethodGet, "/conversations/"+key+"/messages", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list returned %d: %s", rec.Code, rec.Body.String())
	}
	var resp transcriptResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode transcript: %v", err)
	}
	return resp
}

func TestIngestAndListMessages(t *testing.T) {
	server := newTestServer(t)

	rec := doRequest(t, server.HandleConversations, http.MethodGet, "/conversations/missing/messages", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown conversation, got %d", rec.Code)
	}

	ingestTestMessage(t, server, "demo", ingestRequest{
		Sender:  "amira",
		Content: "first",
		Ts:      1700000000,
	})
	ingestTestMessage(t, server, "demo", ingestRequest{
		Sender:  "jonas",
		Content: "with a file",
		Ts:      1700000100,
		Files:   []string{"https://example.com/pic.png"},
	})

	resp := fetchTestTranscript(t, server, "demo")
	if resp.Conversation.Key != "demo" {
		t.Fatalf("conversation key = %q", resp.Conversation.Key)
	}
	if len(resp.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(resp.Messages))
	}
	if resp.Messages[0].Sender.Username != "amira" || resp.Messages[1].Sender.Username != "jonas" {
		t.Fatalf("messages out of order: %q then %q", resp.Messages[0].Sender.Username, resp.Messages[1].Sender.Username)
	}
	if len(resp.Messages[1].Files) != 1 || resp.Messages[1].Files[0].URL != "https://example.com/pic.png" {
		t.Fatalf("second message files = %+v", resp.Messages[1].Files)
	}

	rec = doRequest(t, server.HandleConversations, http.MethodPost, "/conversations/demo/messages", ingestRequest{Sender: "amira"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty message, got %d", rec.Code)
	}
}

func TestEditAndDeleteMessage(t *testing.T) {
	server := newTestServer(t)
	id := ingestTestMessage(t, server, "demo", ingestRequest{Sender: "amira", Content: "draft", Ts: 1700000000})

	rec := doRequest(t, server.HandleMessages, http.MethodPatch, "/messages/"+id, editRequest{Content: "  "})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank edit, got %d", rec.Code)
	}

	rec = doRequest(t, server.HandleMessages, http.MethodPatch, "/messages/"+id, editRequest{Content: "final"})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("edit returned %d: %s", rec.Code, rec.Body.String())
	}
	resp := fetchTestTranscript(t, server, "demo")
	if resp.Messages[0].Content != "final" {
		t.Fatalf("content after edit = %q", resp.Messages[0].Content)
	}

	rec = doRequest(t, server.HandleMessages, http.MethodDelete, "/messages/"+id, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete returned %d", rec.Code)
	}
	if resp := fetchTestTranscript(t, server, "demo"); len(resp.Messages) != 0 {
		t.Fatalf("expected empty transcript after delete, got %d messages", len(resp.Messages))
	}

	rec = doRequest(t, server.HandleMessages, http.MethodDelete, "/messages/"+id, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 deleting twice, got %d", rec.Code)
	}
}

func TestDeleteAttachmentEndpoint(t *testing.T) {
	server := newTestServer(t)
	id := ingestTestMessage(t, server, "demo", ingestRequest{
		Sender:  "amira",
		Content: "look",
		Ts:      1700000000,
		Files:   []string{"https://example.com/a.png", "https://example.com/b.mp3"},
	})

	resp := fetchTestTranscript(t, server, "demo")
	if len(resp.Messages[0].Files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(resp.Messages[0].Files))
	}
	fileID := resp.Messages[0].Files[0].ID

	rec := doRequest(t, server.HandleMessages, http.MethodDelete, "/messages/"+id+"/files/"+fileID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("file delete returned %d: %s", rec.Code, rec.Body.String())
	}
	resp = fetchTestTranscript(t, server, "demo")
	if len(resp.Messages[0].Files) != 1 {
		t.Fatalf("expected 1 file after delete, got %d", len(resp.Messages[0].Files))
	}
	if resp.Messages[0].Content != "look" {
		t.Fatal("message content should survive a file delete")
	}

	rec = doRequest(t, server.HandleMessages, http.MethodDelete, "/messages/"+id+"/files/"+fileID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing file, got %d", rec.Code)
	}
}

func TestShareEndpoints(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()
	userID, err := server.store.CreateUser(ctx, "priya", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	groupID, err := server.store.CreateGroup(ctx, "design-crew")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}

	id := ingestTestMessage(t, server, "demo", ingestRequest{
		Sender:  "amira",
		Content: "share me",
		Ts:      1700000000,
		Files:   []string{"https://example.com/deck.pdf"},
	})

	rec := doRequest(t, server.HandleMessages, http.MethodPost, "/messages/"+id+"/share", shareRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 with no recipient, got %d", rec.Code)
	}
	rec = doRequest(t, server.HandleMessages, http.MethodPost, "/messages/"+id+"/share", shareRequest{UserID: userID, GroupID: groupID})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 with both recipients, got %d", rec.Code)
	}
	rec = doRequest(t, server.HandleMessages, http.MethodPost, "/messages/"+id+"/share", shareRequest{UserID: userID})
	if rec.Code != http.StatusCreated {
		t.Fatalf("message share returned %d: %s", rec.Code, rec.Body.String())
	}

	resp := fetchTestTranscript(t, server, "demo")
	fileID := resp.Messages[0].Files[0].ID
	rec = doRequest(t, server.HandleFiles, http.MethodPost, "/files/"+fileID+"/share", shareRequest{GroupID: groupID})
	if rec.Code != http.StatusCreated {
		t.Fatalf("file share returned %d: %s", rec.Code, rec.Body.String())
	}

	count, err := server.store.CountShares(ctx)
	if err != nil {
		t.Fatalf("count shares: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 recorded shares, got %d", count)
	}
}

func TestDirectoryHandler(t *testing.T) {
	server := newTestServer(t)
	if err := Seed(context.Background(), server.store, DemoFixture()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rec := doRequest(t, server.HandleDirectory, http.MethodGet, "/directory", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("directory returned %d", rec.Code)
	}
	var resp directoryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode directory: %v", err)
	}
	if len(resp.Users) != 3 {
		t.Fatalf("expected 3 users, got %d", len(resp.Users))
	}
	if len(resp.Groups) != 1 || resp.Groups[0].Name != "design-crew" {
		t.Fatalf("groups = %+v", resp.Groups)
	}
	for _, u := range resp.Users {
		if u.Online {
			t.Fatalf("user %s should be offline with no feed connections", u.Username)
		}
	}
}

func TestSeedIsIdempotentForDirectory(t *testing.T) {
	server := newTestServer(t)
	fixture := DemoFixture()
	if err := Seed(context.Background(), server.store, fixture); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if err := Seed(context.Background(), server.store, fixture); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	users, err := server.store.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 3 {
		t.Fatalf("expected 3 users after reseeding, got %d", len(users))
	}
}

func TestHealthz(t *testing.T) {
	server := newTestServer(t)
	rec := doRequest(t, server.HandleHealthz, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz returned %d", rec.Code)
	}
	rec = doRequest(t, server.HandleHealthz, http.MethodPost, "/healthz", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

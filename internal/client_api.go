package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"chatpane/internal/transcript"
)

var httpTimeout = 5 * time.Second

// APIClient is the typed HTTP surface the TUI talks to. It mirrors the
// server's routes one method per endpoint.
type APIClient struct {
	baseURL string
}

func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{baseURL: strings.TrimRight(baseURL, "/")}
}

// FetchTranscript loads a conversation and its messages in display order.
func (c *APIClient) FetchTranscript(key string) (transcript.Conversation, []transcript.Message, error) {
	var resp transcriptResponse
	endpoint := c.baseURL + "/conversations/" + key + "/messages"
	if err := doJSONRequest(http.MethodGet, endpoint, nil, &resp); err != nil {
		return transcript.Conversation{}, nil, err
	}
	conv := transcript.Conversation{Key: resp.Conversation.Key, IsGroup: resp.Conversation.IsGroup}
	messages := make([]transcript.Message, 0, len(resp.Messages))
	for _, dto := range resp.Messages {
		msg := transcript.Message{
			ID: dto.ID,
			Sender: transcript.Sender{
				ID:       dto.Sender.ID,
				Username: dto.Sender.Username,
				Avatar:   dto.Sender.Avatar,
			},
			Content:   dto.Content,
			Timestamp: time.Unix(dto.Ts, 0),
		}
		for _, file := range dto.Files {
			msg.Files = append(msg.Files, transcript.Attachment{ID: file.ID, URL: file.URL})
		}
		messages = append(messages, msg)
	}
	return conv, messages, nil
}

// FetchDirectory loads the share-picker's users and groups.
func (c *APIClient) FetchDirectory() (transcript.Directory, error) {
	var resp directoryResponse
	if err := doJSONRequest(http.MethodGet, c.baseURL+"/directory", nil, &resp); err != nil {
		return transcript.Directory{}, err
	}
	directory := transcript.Directory{
		Users:  make([]transcript.User, 0, len(resp.Users)),
		Groups: make([]transcript.Group, 0, len(resp.Groups)),
	}
	for _, u := range resp.Users {
		directory.Users = append(directory.Users, transcript.User{
			ID:       u.ID,
			Username: u.Username,
			Avatar:   u.Avatar,
			Online:   u.Online,
		})
	}
	for _, g := range resp.Groups {
		directory.Groups = append(directory.Groups, transcript.Group{ID: g.ID, Name: g.Name})
	}
	return directory, nil
}

// UpdateMessage replaces a message's content.
func (c *APIClient) UpdateMessage(messageID, content string) error {
	payload := editRequest{Content: content}
	return doJSONRequest(http.MethodPatch, c.baseURL+"/messages/"+messageID, payload, nil)
}

// DeleteMessage removes a message and its attachments.
func (c *APIClient) DeleteMessage(messageID string) error {
	return doJSONRequest(http.MethodDelete, c.baseURL+"/messages/"+messageID, nil, nil)
}

// DeleteFile removes one attachment of a message.
func (c *APIClient) DeleteFile(messageID, fileID string) error {
	return doJSONRequest(http.MethodDelete, c.baseURL+"/messages/"+messageID+"/files/"+fileID, nil, nil)
}

// ShareMessage records a share of a whole message against a user or group.
func (c *APIClient) ShareMessage(messageID string, userID, groupID int64) error {
	payload := shareRequest{UserID: userID, GroupID: groupID}
	return doJSONRequest(http.MethodPost, c.baseURL+"/messages/"+messageID+"/share", payload, nil)
}

// ShareFile records a share of a single attachment against a user or group.
func (c *APIClient) ShareFile(fileID string, userID, groupID int64) error {
	payload := shareRequest{UserID: userID, GroupID: groupID}
	return doJSONRequest(http.MethodPost, c.baseURL+"/files/"+fileID+"/share", payload, nil)
}

func doJSONRequest(method, endpoint string, payload interface{}, out interface{}) error {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(buf)
	}
	req, err := http.NewRequest(method, endpoint, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	client := &http.Client{Timeout: httpTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, readResponseError(resp.Body))
	}
	if out != nil {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, out); err != nil {
				return err
			}
		}
	}
	return nil
}

func readResponseError(body io.Reader) string {
	data, err := io.ReadAll(body)
	if err != nil || len(data) == 0 {
		return "request failed"
	}
	var parsed map[string]string
	if err := json.Unmarshal(data, &parsed); err == nil {
		if msg, ok := parsed["error"]; ok {
			return msg
		}
	}
	return strings.TrimSpace(string(data))
}

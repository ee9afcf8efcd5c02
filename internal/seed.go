package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"chatpane/internal/storage"
)

// SeedFixture describes demo data loaded with the -seed flag so a fresh
// install shows a populated transcript.
type SeedFixture struct {
	Users         []SeedUser         `json:"users"`
	Groups        []SeedGroup        `json:"groups"`
	Conversations []SeedConversation `json:"conversations"`
}

type SeedUser struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

type SeedGroup struct {
	Name    string   `json:"name"`
	Members []string `json:"members,omitempty"`
}

type SeedConversation struct {
	Key      string        `json:"key"`
	IsGroup  bool          `json:"is_group,omitempty"`
	Messages []SeedMessage `json:"messages"`
}

type SeedMessage struct {
	Sender  string   `json:"sender"`
	Content string   `json:"content"`
	Ts      int64    `json:"ts,omitempty"`
	Files   []string `json:"files,omitempty"`
}

// LoadSeedFixture parses a fixture file.
func LoadSeedFixture(path string) (SeedFixture, error) {
	var fixture SeedFixture
	data, err := os.ReadFile(path)
	if err != nil {
		return fixture, fmt.Errorf("read seed fixture: %w", err)
	}
	if err := json.Unmarshal(data, &fixture); err != nil {
		return fixture, fmt.Errorf("parse seed fixture: %w", err)
	}
	return fixture, nil
}

// Seed inserts the fixture through the store. Users and groups that already
// exist are reused, so seeding twice does not duplicate the directory.
func Seed(ctx context.Context, store *storage.Store, fixture SeedFixture) error {
	userIDs := make(map[string]int64, len(fixture.Users))
	for _, u := range fixture.Users {
		id, err := store.CreateUser(ctx, u.Username, u.Avatar)
		if errors.Is(err, storage.ErrUserExists) {
			existing, err := store.GetUserByUsername(ctx, u.Username)
			if err != nil {
				return err
			}
			id = existing.ID
		} else if err != nil {
			return fmt.Errorf("seed user %s: %w", u.Username, err)
		}
		userIDs[u.Username] = id
	}

	for _, g := range fixture.Groups {
		groupID, err := store.CreateGroup(ctx, g.Name)
		if errors.Is(err, storage.ErrGroupExists) {
			continue
		}
		if err != nil {
			return fmt.Errorf("seed group %s: %w", g.Name, err)
		}
		for _, member := range g.Members {
			userID, ok := userIDs[member]
			if !ok {
				return fmt.Errorf("seed group %s: unknown member %s", g.Name, member)
			}
			if err := store.AddGroupMember(ctx, groupID, userID); err != nil {
				return err
			}
		}
	}

	for _, conv := range fixture.Conversations {
		if err := store.EnsureConversation(ctx, conv.Key, conv.IsGroup); err != nil {
			return fmt.Errorf("seed conversation %s: %w", conv.Key, err)
		}
		for i, sm := range conv.Messages {
			senderID, ok := userIDs[sm.Sender]
			if !ok {
				return fmt.Errorf("seed conversation %s: unknown sender %s", conv.Key, sm.Sender)
			}
			ts := time.Unix(sm.Ts, 0)
			if sm.Ts == 0 {
				// stagger unstamped messages so ordering stays stable
				ts = time.Now().Add(time.Duration(i-len(conv.Messages)) * time.Minute)
			}
			msg := storage.Message{
				ID:              uuid.NewString(),
				ConversationKey: conv.Key,
				SenderID:        senderID,
				Content:         sm.Content,
				Ts:              ts,
			}
			for _, url := range sm.Files {
				msg.Files = append(msg.Files, storage.Attachment{ID: uuid.NewString(), URL: url})
			}
			if err := store.InsertMessage(ctx, msg); err != nil {
				return fmt.Errorf("seed message in %s: %w", conv.Key, err)
			}
		}
	}
	return nil
}

// DemoFixture is the built-in fixture used when -seed is passed without a
// file path. Two days of chatter with every attachment kind represented.
func DemoFixture() SeedFixture {
	yesterday := time.Now().Add(-26 * time.Hour)
	today := time.Now().Add(-2 * time.Hour)
	return SeedFixture{
		Users: []SeedUser{
			{Username: "amira"},
			{Username: "jonas", Avatar: "https://example.com/avatars/jonas.png"},
			{Username: "priya"},
		},
		Groups: []SeedGroup{
			{Name: "design-crew", Members: []string{"amira", "priya"}},
		},
		Conversations: []SeedConversation{
			{
				Key:     "demo",
				IsGroup: true,
				Messages: []SeedMessage{
					{Sender: "amira", Content: "morning! pushed the new mockups", Ts: yesterday.Unix(),
						Files: []string{"https://example.com/files/mockups-v2.png"}},
					{Sender: "jonas", Content: "nice, the spacing looks way better now", Ts: yesterday.Add(4 * time.Minute).Unix()},
					{Sender: "priya", Content: "recorded a quick walkthrough", Ts: yesterday.Add(9 * time.Minute).Unix(),
						Files: []string{"https://example.com/files/walkthrough.mp4"}},
					{Sender: "jonas", Content: "and here's the kickoff audio plus the brief", Ts: today.Unix(),
						Files: []string{
							"https://example.com/files/kickoff.mp3",
							"https://example.com/files/brief.pdf",
						}},
					{Sender: "amira", Content: "thanks! reviewing after lunch", Ts: today.Add(12 * time.Minute).Unix()},
				},
			},
		},
	}
}

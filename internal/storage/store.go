package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sqlite "modernc.org/sqlite"
)

const (
	sqliteConstraintCode = 19
	defaultBusyTimeout   = 5000
)

// Store wraps the SQLite handle and exposes the queries the server needs.
type Store struct {
	db *sql.DB
}

// User is a row in the users table; users come from the surrounding
// application's directory, not from any signup flow here.
type User struct {
	ID        int64
	Username  string
	Avatar    string
	CreatedAt time.Time
}

// Group is a share-target group.
type Group struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// Conversation is a message container identified by its key.
type Conversation struct {
	Key       string
	IsGroup   bool
	CreatedAt time.Time
}

// Message is a stored transcript entry with its attachments joined in.
type Message struct {
	ID              string
	ConversationKey string
	SenderID        int64
	SenderName      string
	SenderAvatar    string
	Content         string
	Ts              time.Time
	Files           []Attachment
}

// Attachment is a stored file reference belonging to a message.
type Attachment struct {
	ID        string
	MessageID string
	URL       string
	SHA256    string
	CreatedAt time.Time
}

// Share records one resolved share action. Exactly one of MessageID or
// AttachmentID is set, and exactly one of UserID or GroupID.
type Share struct {
	ID           string
	MessageID    string
	AttachmentID string
	UserID       int64
	GroupID      int64
	CreatedAt    time.Time
}

// ErrUserExists is returned when inserting a duplicate username.
var ErrUserExists = errors.New("user already exists")

// ErrGroupExists is returned when inserting a duplicate group name.
var ErrGroupExists = errors.New("group already exists")

// ErrNotFound is returned when a mutation targets a missing row.
var ErrNotFound = errors.New("not found")

// NewStore initializes the SQLite database at the provided path. Call Close
// when done.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "chatpane.db"
	}
	dsn := buildDSN(path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", defaultBusyTimeout)); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying DB connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func buildDSN(path string) string {
	switch {
	case strings.HasPrefix(path, "sqlite://"):
		path = path[len("sqlite://"):]
	case strings.HasPrefix(path, "file:"), strings.HasPrefix(path, ":memory:"):
		// already in a form sqlite understands
	default:
		path = "file:" + path
	}
	separator := "?"
	if strings.Contains(path, "?") {
		separator = "&"
	}
	return fmt.Sprintf("%s%s_pragma=busy_timeout=%d&_pragma=foreign_keys=ON", path, separator, defaultBusyTimeout)
}

// Migrate runs the schema creation statements.
func (s *Store) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			avatar TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS groups (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS group_members (
			group_id INTEGER NOT NULL,
			user_id INTEGER NOT NULL,
			PRIMARY KEY (group_id, user_id),
			FOREIGN KEY(group_id) REFERENCES groups(id) ON DELETE CASCADE,
			FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS conversations (
			key TEXT PRIMARY KEY,
			is_group INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			conversation_key TEXT NOT NULL,
			sender_id INTEGER NOT NULL,
			content TEXT NOT NULL DEFAULT '',
			ts DATETIME NOT NULL,
			FOREIGN KEY(conversation_key) REFERENCES conversations(key) ON DELETE CASCADE,
			FOREIGN KEY(sender_id) REFERENCES users(id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation_ts
			ON messages(conversation_key, ts);`,
		`CREATE TABLE IF NOT EXISTS attachments (
			id TEXT PRIMARY KEY,
			message_id TEXT NOT NULL,
			url TEXT NOT NULL,
			sha256 TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY(message_id) REFERENCES messages(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS shares (
			id TEXT PRIMARY KEY,
			message_id TEXT,
			attachment_id TEXT,
			user_id INTEGER,
			group_id INTEGER,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	for _, stmt := range statements {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// CreateUser inserts a directory user. ErrUserExists is returned on
// duplicate usernames.
func (s *Store) CreateUser(ctx context.Context, username, avatar string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `INSERT INTO users(username, avatar) VALUES(?, ?)`, username, avatar)
	if err != nil {
		if isConstraintError(err) {
			return 0, ErrUserExists
		}
		return 0, err
	}
	return result.LastInsertId()
}

// GetUserByUsername fetches a user by username, nil when absent.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, username, avatar, created_at FROM users WHERE username = ?`, username)
	var user User
	if err := row.Scan(&user.ID, &user.Username, &user.Avatar, &user.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// ListUsers returns every directory user ordered by username.
func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, username, avatar, created_at FROM users ORDER BY username ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.Avatar, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CreateGroup inserts a share-target group. ErrGroupExists on duplicates.
func (s *Store) CreateGroup(ctx context.Context, name string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `INSERT INTO groups(name) VALUES(?)`, name)
	if err != nil {
		if isConstraintError(err) {
			return 0, ErrGroupExists
		}
		return 0, err
	}
	return result.LastInsertId()
}

// ListGroups returns every group ordered by name.
func (s *Store) ListGroups(ctx context.Context) ([]Group, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, created_at FROM groups ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var groups []Group
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedAt); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// AddGroupMember links a user into a group, idempotently.
func (s *Store) AddGroupMember(ctx context.Context, groupID, userID int64) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO group_members(group_id, user_id) VALUES(?, ?)`, groupID, userID)
	return err
}

// EnsureConversation creates the conversation if it does not exist yet.
func (s *Store) EnsureConversation(ctx context.Context, key string, isGroup bool) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO conversations(key, is_group) VALUES(?, ?)`, key, boolToInt(isGroup))
	return err
}

// GetConversation fetches a conversation by key, nil when absent.
func (s *Store) GetConversation(ctx context.Context, key string) (*Conversation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT key, is_group, created_at FROM conversations WHERE key = ?`, key)
	var conv Conversation
	var isGroup int
	if err := row.Scan(&conv.Key, &isGroup, &conv.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	conv.IsGroup = isGroup != 0
	return &conv, nil
}

// InsertMessage stores a message and its attachments in one transaction.
func (s *Store) InsertMessage(ctx context.Context, msg Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO messages(id, conversation_key, sender_id, content, ts) VALUES(?, ?, ?, ?, ?)`,
		msg.ID, msg.ConversationKey, msg.SenderID, msg.Content, msg.Ts.UTC()); err != nil {
		return err
	}
	for _, file := range msg.Files {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO attachments(id, message_id, url, sha256) VALUES(?, ?, ?, ?)`,
			file.ID, msg.ID, file.URL, file.SHA256); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListMessages returns a conversation's messages ascending by timestamp with
// sender info and attachments joined in.
func (s *Store) ListMessages(ctx context.Context, conversationKey string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.conversation_key, m.sender_id, u.username, u.avatar, m.content, m.ts
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.conversation_key = ?
		ORDER BY m.ts ASC, m.id ASC
	`, conversationKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	index := make(map[string]int)
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationKey, &m.SenderID, &m.SenderName, &m.SenderAvatar, &m.Content, &m.Ts); err != nil {
			return nil, err
		}
		index[m.ID] = len(messages)
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return messages, nil
	}

	fileRows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.message_id, a.url, a.sha256, a.created_at
		FROM attachments a
		JOIN messages m ON m.id = a.message_id
		WHERE m.conversation_key = ?
		ORDER BY a.created_at ASC, a.id ASC
	`, conversationKey)
	if err != nil {
		return nil, err
	}
	defer fileRows.Close()
	for fileRows.Next() {
		var a Attachment
		if err := fileRows.Scan(&a.ID, &a.MessageID, &a.URL, &a.SHA256, &a.CreatedAt); err != nil {
			return nil, err
		}
		if i, ok := index[a.MessageID]; ok {
			messages[i].Files = append(messages[i].Files, a)
		}
	}
	return messages, fileRows.Err()
}

// GetMessage fetches one message with its attachments, nil when absent.
func (s *Store) GetMessage(ctx context.Context, id string) (*Message, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT m.id, m.conversation_key, m.sender_id, u.username, u.avatar, m.content, m.ts
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.id = ?
	`, id)
	var m Message
	if err := row.Scan(&m.ID, &m.ConversationKey, &m.SenderID, &m.SenderName, &m.SenderAvatar, &m.Content, &m.Ts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, message_id, url, sha256, created_at FROM attachments WHERE message_id = ? ORDER BY created_at ASC, id ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var a Attachment
		if err := rows.Scan(&a.ID, &a.MessageID, &a.URL, &a.SHA256, &a.CreatedAt); err != nil {
			return nil, err
		}
		m.Files = append(m.Files, a)
	}
	return &m, rows.Err()
}

// UpdateMessageContent replaces a message's text. ErrNotFound when the id
// does not exist.
func (s *Store) UpdateMessageContent(ctx context.Context, id, content string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE messages SET content = ? WHERE id = ?`, content, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMessage removes a message; its attachments go with it via cascade.
func (s *Store) DeleteMessage(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetAttachment fetches one attachment, nil when absent.
func (s *Store) GetAttachment(ctx context.Context, id string) (*Attachment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, message_id, url, sha256, created_at FROM attachments WHERE id = ?`, id)
	var a Attachment
	if err := row.Scan(&a.ID, &a.MessageID, &a.URL, &a.SHA256, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// DeleteAttachment removes one attachment of a message. ErrNotFound when the
// pair does not match a row.
func (s *Store) DeleteAttachment(ctx context.Context, messageID, attachmentID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM attachments WHERE id = ? AND message_id = ?`, attachmentID, messageID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordShare persists one resolved share action.
func (s *Store) RecordShare(ctx context.Context, share Share) error {
	if (share.MessageID == "") == (share.AttachmentID == "") {
		return errors.New("share targets exactly one of message or attachment")
	}
	if (share.UserID == 0) == (share.GroupID == 0) {
		return errors.New("share resolves to exactly one of user or group")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO shares(id, message_id, attachment_id, user_id, group_id) VALUES(?, ?, ?, ?, ?)`,
		share.ID, nullableString(share.MessageID), nullableString(share.AttachmentID),
		nullableInt(share.UserID), nullableInt(share.GroupID))
	return err
}

// CountShares reports how many shares have been recorded.
func (s *Store) CountShares(ctx context.Context) (int, error) {
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM shares`)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func nullableString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableInt(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func isConstraintError(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqliteConstraintCode
	}
	return false
}

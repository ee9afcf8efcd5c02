package internal

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"chatpane/internal/transcript"
)

// HandleAttachmentDownload serves /attachments/{id}. Remote file references
// redirect to their URL; local ones stream from the attachment directory.
func (s *Server) HandleAttachmentDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	fileID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/attachments/"), "/")
	if fileID == "" || strings.Contains(fileID, "/") {
		http.Error(w, "file ID required", http.StatusBadRequest)
		return
	}
	file, err := s.store.GetAttachment(r.Context(), fileID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if file == nil {
		http.Error(w, "file not found", http.StatusNotFound)
		return
	}
	if isRemoteURL(file.URL) {
		http.Redirect(w, r, file.URL, http.StatusFound)
		return
	}

	path, ok := s.localAttachmentPath(file.URL)
	if !ok {
		http.Error(w, "invalid file path", http.StatusForbidden)
		return
	}
	handle, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "file not found on disk", http.StatusNotFound)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	defer handle.Close()

	name := transcript.DisplayName(file.URL)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Type", "application/octet-stream")
	http.ServeContent(w, r, name, file.CreatedAt, handle)
}

// localAttachmentPath maps a stored file reference onto the attachment
// directory, rejecting anything that would escape it.
func (s *Server) localAttachmentPath(url string) (string, bool) {
	if s.attachmentDir == "" {
		return "", false
	}
	name := sanitizePathComponent(transcript.DisplayName(url))
	if name == "unnamed" {
		return "", false
	}
	path := filepath.Join(s.attachmentDir, name)
	absPath, err := filepath.Abs(path)
	if err != nil || !strings.HasPrefix(absPath, filepath.Clean(s.attachmentDir)) {
		return "", false
	}
	return path, true
}

// hashLocalAttachment computes the sha256 of a locally stored file reference.
// Remote or missing files get an empty hash.
func (s *Server) hashLocalAttachment(url string) string {
	if isRemoteURL(url) {
		return ""
	}
	path, ok := s.localAttachmentPath(url)
	if !ok {
		return ""
	}
	handle, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer handle.Close()
	hasher := sha256.New()
	if _, err := io.Copy(hasher, handle); err != nil {
		return ""
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

func isRemoteURL(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}

// sanitizePathComponent strips path separators and null bytes from a single
// path element.
func sanitizePathComponent(s string) string {
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, "\x00", "")
	s = strings.TrimSpace(s)
	if s == "" || s == "." || s == ".." {
		return "unnamed"
	}
	return s
}

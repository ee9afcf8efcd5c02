package internal

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
)

type Metrics struct {
	messagesIn  atomic.Uint64
	edits       atomic.Uint64
	deletes     atomic.Uint64
	fileDeletes atomic.Uint64
	shares      atomic.Uint64
	activeConns atomic.Int64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) IncMessage() {
	m.messagesIn.Add(1)
}

func (m *Metrics) IncEdit() {
	m.edits.Add(1)
}

func (m *Metrics) IncDelete() {
	m.deletes.Add(1)
}

func (m *Metrics) IncFileDelete() {
	m.fileDeletes.Add(1)
}

func (m *Metrics) IncShare() {
	m.shares.Add(1)
}

func (m *Metrics) IncConn() {
	m.activeConns.Add(1)
}

func (m *Metrics) DecConn() {
	m.activeConns.Add(-1)
}

func (m *Metrics) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	payload := map[string]any{
		"messages_ingested_total": m.messagesIn.Load(),
		"message_edits_total":     m.edits.Load(),
		"message_deletes_total":   m.deletes.Load(),
		"file_deletes_total":      m.fileDeletes.Load(),
		"shares_total":            m.shares.Load(),
		"active_connections":      m.activeConns.Load(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

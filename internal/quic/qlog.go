// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package quic

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// QlogWriter accepts qlog events from a Connection engine. This
// package only produces a version-negotiation-failed event and,
// implicitly, trace setup/teardown. The full qlog event vocabulary
// belongs to the Connection engine.
type QlogWriter interface {
	WriteEvent(name string, data any)
	Close() error
}

// disabledQlog discards every event. It is returned when qlog is off
// or the file couldn't be created, so a tracing failure degrades
// instead of blocking the connection.
type disabledQlog struct{}

func (disabledQlog) WriteEvent(string, any) {}
func (disabledQlog) Close() error           { return nil }

// fileQlog writes newline-delimited JSON qlog events to a file opened
// with exclusive-create semantics: a pre-existing file of the same
// name disables qlog for this connection instead of being
// overwritten.
//
// qlog itself is just JSON; no streaming JSON *encoder* suited to
// appending one object per event fits better than encoding/json here.
type fileQlog struct {
	f       *os.File
	enc     *json.Encoder
	traceID uuid.UUID
}

func newFileQlog(dir string, odcid ConnID, log logrus.FieldLogger) QlogWriter {
	if dir == "" {
		return disabledQlog{}
	}
	path := filepath.Join(dir, odcid.String()+".qlog")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		log.WithError(err).WithField("path", path).Warn("qlog: could not create trace file, continuing without qlog")
		return disabledQlog{}
	}
	q := &fileQlog{f: f, enc: json.NewEncoder(f), traceID: uuid.New()}
	q.enc.Encode(map[string]any{
		"qlog_version": "0.3",
		"trace": map[string]any{
			"group_id": q.traceID.String(),
			"vantage_point": map[string]any{
				"type": "server",
			},
		},
	})
	return q
}

func (q *fileQlog) WriteEvent(name string, data any) {
	q.enc.Encode(map[string]any{"name": name, "data": data})
}

func (q *fileQlog) Close() error {
	return q.f.Close()
}

// qlogVersionNegotiationFailed emits a server_version_information
// event with no chosen_version, used both when VN fires for an
// unknown connection and when engine construction itself fails with a
// version-negotiation error.
func qlogVersionNegotiationFailed(w QlogWriter, supported []uint32, offered uint32) {
	w.WriteEvent("quic:server_version_information", map[string]any{
		"server_versions": supported,
		"client_versions": []uint32{offered},
		"chosen_version":  nil,
	})
}

// reportVersionNegotiationFailed opens a short-lived qlog trace under
// dir for cid, emits a version-negotiation-failed event, and closes
// it. There is no engine and therefore no longer-lived QlogWriter to
// hand the event to: this is the trace's entire lifetime.
func reportVersionNegotiationFailed(dir string, cid ConnID, log logrus.FieldLogger, supported []uint32, offered uint32) {
	w := newFileQlog(dir, cid, log)
	qlogVersionNegotiationFailed(w, supported, offered)
	w.Close()
}

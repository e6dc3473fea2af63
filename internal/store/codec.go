package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/novacarriers/claimdesk/internal/model"
)

// errCorrupt marks a stored document that could not be decoded.
var errCorrupt = errors.New("corrupt snapshot")

// corruptKey names the copy a backend keeps of an undecodable snapshot
// before starting over with an empty collection.
func corruptKey(key string, now time.Time) string {
	return key + ".corrupt." + now.UTC().Format("20060102T150405Z")
}

// decodeSnapshot parses a persisted collection. Blank input is an empty
// collection. A document that is not JSON, or lacks a numeric counter and a
// claims array, is corrupt. Claim fields of the wrong type are skipped
// rather than failing the whole collection, and entries without an id are
// dropped.
func decodeSnapshot(b []byte) (*model.Snapshot, error) {
	if len(bytes.TrimSpace(b)) == 0 {
		return model.NewSnapshot(), nil
	}
	var w struct {
		Counter *float64        `json:"counter"`
		Claims  json.RawMessage `json:"claims"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", errCorrupt, err)
	}
	if w.Counter == nil || len(w.Claims) == 0 || w.Claims[0] != '[' {
		return nil, fmt.Errorf("%w: missing counter or claims", errCorrupt)
	}

	var claims []model.Claim
	if err := json.Unmarshal(w.Claims, &claims); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return nil, fmt.Errorf("%w: %v", errCorrupt, err)
		}
		slog.Warn("snapshot has mistyped claim fields, skipping them", "error", err)
	}

	snap := &model.Snapshot{Counter: max(int(*w.Counter), 0), Claims: make([]model.Claim, 0, len(claims))}
	for _, c := range claims {
		if c.ID == "" {
			slog.Warn("dropping snapshot entry without an id")
			continue
		}
		c.Normalize()
		snap.Claims = append(snap.Claims, c)
	}
	return snap, nil
}

func encodeSnapshot(snap *model.Snapshot) ([]byte, error) {
	if snap.Claims == nil {
		snap.Claims = []model.Claim{}
	}
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return b, nil
}

// ReadSnapshot decodes a collection document such as an exported
// claims.json. Unlike a backend load, a corrupt document is an error.
func ReadSnapshot(r io.Reader) (*model.Snapshot, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return decodeSnapshot(b)
}

// WriteSnapshot writes snap in the persisted document layout.
func WriteSnapshot(w io.Writer, snap *model.Snapshot) error {
	b, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}

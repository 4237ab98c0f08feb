// Package calllog reads the device call log and places calls through the
// platform dialer bridge. The OS side of both is out of process; this
// package only consumes what the bridge exposes.
package calllog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/tracklog/tracklog-client/pkg/models"
)

// ErrPermissionDenied is returned when the process lacks call log access.
var ErrPermissionDenied = errors.New("call log permission denied")

// Reader supplies the most recent device call log entries, newest first.
// Implementations are read-only; the log is owned by the OS.
type Reader interface {
	Load(ctx context.Context, maxCount int) ([]models.DeviceLogEntry, error)
}

// rawEntry mirrors one entry of the call log dump the platform bridge
// writes: type, number, optional contact name, the epoch-millisecond
// timestamp string and the human display form of the same instant.
type rawEntry struct {
	Type        string `json:"type"`
	PhoneNumber string `json:"phoneNumber"`
	Name        string `json:"name"`
	Timestamp   string `json:"timestamp"`
	DateTime    string `json:"dateTime"`
	Duration    int    `json:"duration"`
}

// FileReader reads the JSON call log dump at a fixed path.
type FileReader struct {
	path string
}

func NewFileReader(path string) *FileReader {
	return &FileReader{path: path}
}

// Load returns up to maxCount entries, newest first. Timestamps are
// normalized to time.Time here, at the ingestion boundary; raw strings
// never travel further into the client.
func (r *FileReader) Load(ctx context.Context, maxCount int) ([]models.DeviceLogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(r.path)
	if os.IsPermission(err) {
		return nil, ErrPermissionDenied
	}
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read call log dump: %w", err)
	}

	var raw []rawEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode call log dump: %w", err)
	}

	entries := make([]models.DeviceLogEntry, 0, len(raw))
	for _, e := range raw {
		entry, ok := convert(e)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].DateTime.After(entries[j].DateTime)
	})

	if maxCount > 0 && len(entries) > maxCount {
		entries = entries[:maxCount]
	}
	return entries, nil
}

// convert normalizes a raw dump entry. Entries with an unknown type or no
// parseable timestamp are skipped rather than failing the whole load.
func convert(e rawEntry) (models.DeviceLogEntry, bool) {
	t := models.CallType(e.Type)
	switch t {
	case models.CallIncoming, models.CallOutgoing, models.CallMissed:
	default:
		return models.DeviceLogEntry{}, false
	}

	localID := e.Timestamp
	when, err := models.ParseEpochMillis(e.Timestamp)
	if err != nil {
		// Older bridge dumps carry only the display string.
		when, err = models.ParseDeviceTime(e.DateTime)
		if err != nil {
			return models.DeviceLogEntry{}, false
		}
		localID = strconv.FormatInt(when.UnixMilli(), 10)
	}

	return models.DeviceLogEntry{
		Type:        t,
		PhoneNumber: e.PhoneNumber,
		Name:        e.Name,
		LocalID:     localID,
		DateTime:    when,
		Duration:    e.Duration,
	}, true
}

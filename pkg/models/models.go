// Package models defines the data types shared by the tracklog client.
package models

import (
	"fmt"
	"strconv"
	"time"
)

// CallType classifies a device call log entry.
type CallType string

const (
	CallIncoming CallType = "INCOMING"
	CallOutgoing CallType = "OUTGOING"
	CallMissed   CallType = "MISSED"
)

// StoreTimeLayout is the canonical format for locally recorded call
// timestamps (the only format ever written to the local store).
const StoreTimeLayout = "02-Jan-2006 15:04:05"

// DeviceTimeLayout is the display format the device call log reports.
const DeviceTimeLayout = "Jan 2, 2006 3:04:05 PM"

// HistoryDateLayout is the date format the history endpoint expects for
// its startDate/endDate fields.
const HistoryDateLayout = "02-01-2006"

// CallRecord is a device-originated outgoing call attempt persisted in
// the local store.
type CallRecord struct {
	ID          int64
	PhoneNumber string
	DateTime    string
}

// DialedAt parses the record timestamp from the canonical store format.
func (r CallRecord) DialedAt() (time.Time, error) {
	t, err := time.ParseInLocation(StoreTimeLayout, r.DateTime, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse call record timestamp %q: %w", r.DateTime, err)
	}
	return t, nil
}

// DeviceLogEntry is a single immutable entry from the OS call log.
type DeviceLogEntry struct {
	Type        CallType
	PhoneNumber string
	Name        string
	LocalID     string // epoch-millisecond timestamp string, stable entry key
	DateTime    time.Time
	Duration    int // seconds
}

// DisplayName returns the contact name or "Unknown" for anonymous entries.
func (e DeviceLogEntry) DisplayName() string {
	if e.Name == "" {
		return "Unknown"
	}
	return e.Name
}

// SyncBatchItem is the upload projection of a call pending sync. User
// identity is not part of the item; the sync client stamps it per attempt.
type SyncBatchItem struct {
	LocalDBID   string   `json:"local_db_id"`
	DateTime    string   `json:"date_time"`
	Duration    int      `json:"duration"`
	Name        string   `json:"name"`
	PhoneNumber string   `json:"phone_number"`
	Timestamp   string   `json:"timestamp"`
	CallType    CallType `json:"call_type"`
}

// Session is the authenticated user identity attached to every upload.
type Session struct {
	UserID    int
	Name      string
	Password  string
	CompanyID int
}

// HistoryRecord is a call record as returned by the history endpoint.
type HistoryRecord struct {
	DateTime    string `json:"date_time"`
	Duration    int    `json:"duration"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
	CallType    string `json:"call_type"`
}

// ParseEpochMillis converts an epoch-millisecond timestamp string, as the
// device call log reports it, into a local time.
func ParseEpochMillis(s string) (time.Time, error) {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse epoch timestamp %q: %w", s, err)
	}
	return time.UnixMilli(ms).In(time.Local), nil
}

// ParseDeviceTime parses the display form the device call log uses.
func ParseDeviceTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DeviceTimeLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse device timestamp %q: %w", s, err)
	}
	return t, nil
}

// SameMinute reports whether two timestamps are equal after truncating to
// minute precision. Call sources serialize the same instant in different
// formats and drop sub-minute detail unevenly, so this is the tolerance
// used to match a device log entry against a local record.
func SameMinute(a, b time.Time) bool {
	return a.Truncate(time.Minute).Equal(b.Truncate(time.Minute))
}

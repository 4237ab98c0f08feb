// Package syncinfo provides functions for working with synchronization information.
package syncinfo

import (
	"os"
	"sync"
	"time"
)

// SyncInfo represents data about the last synchronization.
type SyncInfo struct {
	LastSync time.Time // LastSync represents the timestamp of the last successful synchronization.
}

// SyncManager manages access to and updates of synchronization data, and
// enforces the single-in-flight rule for sync attempts.
type SyncManager struct {
	fileMutex sync.RWMutex
	syncData  *MutexedSyncInfo
	filename  string

	mu       sync.Mutex
	inFlight bool
}

// MutexedSyncInfo wraps SyncInfo with a mutex for safe access from different goroutines.
type MutexedSyncInfo struct {
	sync.RWMutex
	SyncInfo SyncInfo
}

// NewSyncManager creates a new SyncManager and initializes a file for storing synchronization data.
func NewSyncManager(fileName string) (*SyncManager, error) {
	file, err := os.OpenFile(fileName, os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	file.Close()

	return &SyncManager{
		syncData: &MutexedSyncInfo{},
		filename: fileName,
	}, nil
}

// TryBegin claims the in-flight slot for a sync attempt. It returns false
// when another attempt is already running; the caller must skip its pass.
func (sm *SyncManager) TryBegin() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.inFlight {
		return false
	}
	sm.inFlight = true
	return true
}

// End releases the in-flight slot claimed by TryBegin.
func (sm *SyncManager) End() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.inFlight = false
}

// InFlight reports whether a sync attempt is currently running.
func (sm *SyncManager) InFlight() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.inFlight
}

// UpdateSyncInfo updates synchronization data.
func (sm *SyncManager) UpdateSyncInfo(info SyncInfo) {
	sm.syncData.Lock()
	defer sm.syncData.Unlock()
	sm.syncData.SyncInfo = info
}

// GetSyncInfo returns the current synchronization data.
func (sm *SyncManager) GetSyncInfo() SyncInfo {
	sm.syncData.RLock()
	defer sm.syncData.RUnlock()
	return sm.syncData.SyncInfo
}

// SaveSyncInfoToFile saves synchronization data to a file.
func (sm *SyncManager) SaveSyncInfoToFile() error {
	sm.fileMutex.Lock()
	defer sm.fileMutex.Unlock()

	syncInfo := sm.GetSyncInfo()
	lastSyncStr := syncInfo.LastSync.Format(time.RFC3339)

	return os.WriteFile(sm.filename, []byte(lastSyncStr), 0o644)
}

// LoadSyncInfoFromFile loads synchronization data from a file.
func (sm *SyncManager) LoadSyncInfoFromFile() (time.Time, error) {
	sm.fileMutex.RLock()
	defer sm.fileMutex.RUnlock()

	fileContent, err := os.ReadFile(sm.filename)
	if err != nil {
		return time.Time{}, err
	}

	lastSync, err := time.Parse(time.RFC3339, string(fileContent))
	if err != nil {
		return time.Time{}, err
	}

	return lastSync, nil
}

// UpdateAndSaveSyncInfo updates and saves synchronization data.
func (sm *SyncManager) UpdateAndSaveSyncInfo(info SyncInfo) error {
	sm.UpdateSyncInfo(info)
	return sm.SaveSyncInfoToFile()
}

// LoadAndUpdateLastSyncFromFile loads the last synchronization time from a file, updates SyncInfo, and returns it.
func (sm *SyncManager) LoadAndUpdateLastSyncFromFile() (time.Time, error) {
	lastSync, err := sm.LoadSyncInfoFromFile()
	if err != nil {
		return time.Time{}, err
	}

	sm.UpdateSyncInfo(SyncInfo{LastSync: lastSync})
	return lastSync, nil
}

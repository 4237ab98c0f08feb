// Package contacts reads the device contact book exported as a JSON
// file and offers a simple search over it.
package contacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

// ErrPermissionDenied is returned when the contacts file exists but
// cannot be read.
var ErrPermissionDenied = errors.New("contacts permission denied")

// Contact is one entry of the device contact book.
type Contact struct {
	DisplayName string `json:"displayName"`
	PhoneNumber string `json:"phoneNumber"`
}

// LoadFile reads the contact book from path, sorted by display name. A
// missing file yields an empty book, not an error.
func LoadFile(path string) ([]Contact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, ErrPermissionDenied
		}
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read contacts file: %w", err)
	}

	var list []Contact
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse contacts file: %w", err)
	}

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].DisplayName < list[j].DisplayName
	})
	return list, nil
}

// Search returns the contacts whose name or number contains the query,
// case-insensitively. An empty query returns the whole book.
func Search(list []Contact, query string) []Contact {
	if query == "" {
		return list
	}
	q := strings.ToLower(query)

	var out []Contact
	for _, c := range list {
		if strings.Contains(strings.ToLower(c.DisplayName), q) ||
			strings.Contains(c.PhoneNumber, query) {
			out = append(out, c)
		}
	}
	return out
}

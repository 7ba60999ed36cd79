package store

import "errors"

// ErrNotFound is returned by Setting when the key has never been written.
var ErrNotFound = errors.New("not found")

// Settings keys.
const (
	// SettingBaseURL is the validated Drop server URL persisted by
	// `dropd use-remote`.
	SettingBaseURL = "base_url"
)

package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// WatchStatus is the watch state of a piece of content for one profile.
// The zero value, StatusNone, means no status row exists yet.
type WatchStatus uint8

const (
	StatusNone WatchStatus = iota
	Unaired
	NotWatched
	Watching
	UpToDate
	Watched
)

var statusNames = [...]string{
	StatusNone: "NONE",
	Unaired:    "UNAIRED",
	NotWatched: "NOT_WATCHED",
	Watching:   "WATCHING",
	UpToDate:   "UP_TO_DATE",
	Watched:    "WATCHED",
}

// String returns the persisted name of the status.
func (s WatchStatus) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("WatchStatus(%d)", uint8(s))
}

// ParseWatchStatus parses a persisted status name.
func ParseWatchStatus(name string) (WatchStatus, error) {
	for i, n := range statusNames {
		if i == int(StatusNone) {
			continue
		}
		if n == name {
			return WatchStatus(i), nil
		}
	}
	return StatusNone, fmt.Errorf("%w: %q", ErrInvalidStatus, name)
}

// Progress orders statuses by how much is done:
// NOT_WATCHED < WATCHING < UP_TO_DATE < WATCHED. UNAIRED and NONE rank lowest.
func (s WatchStatus) Progress() int {
	switch s {
	case NotWatched:
		return 1
	case Watching:
		return 2
	case UpToDate:
		return 3
	case Watched:
		return 4
	case StatusNone, Unaired:
		return 0
	}
	return 0
}

// ContentKind is a level of the catalog.
type ContentKind uint8

const (
	KindEpisode ContentKind = iota + 1
	KindSeason
	KindShow
	KindMovie
)

func (k ContentKind) String() string {
	switch k {
	case KindEpisode:
		return "episode"
	case KindSeason:
		return "season"
	case KindShow:
		return "show"
	case KindMovie:
		return "movie"
	}
	return "unknown"
}

// ValidManualTarget reports whether a user may explicitly set s on content of kind k.
// UNAIRED is derived from air dates and is never a manual target.
func (s WatchStatus) ValidManualTarget(k ContentKind) bool {
	switch s {
	case NotWatched, Watched:
		return true
	case Watching:
		return k != KindMovie
	case UpToDate:
		return k == KindSeason || k == KindShow
	case StatusNone, Unaired:
		return false
	}
	return false
}

// MarshalText implements encoding.TextMarshaler.
func (s WatchStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// MarshalJSON writes StatusNone as null; a missing row has no status name.
func (s WatchStatus) MarshalJSON() ([]byte, error) {
	if s == StatusNone {
		return []byte("null"), nil
	}
	return json.Marshal(s.String())
}

// UnmarshalJSON reads null as StatusNone.
func (s *WatchStatus) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = StatusNone
		return nil
	}
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	return s.UnmarshalText([]byte(name))
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *WatchStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseWatchStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Value implements driver.Valuer; statuses are stored by name.
func (s WatchStatus) Value() (driver.Value, error) {
	if s == StatusNone {
		return nil, nil
	}
	return s.String(), nil
}

// Scan implements sql.Scanner. NULL scans to StatusNone so LEFT JOINs
// against missing status rows read naturally.
func (s *WatchStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*s = StatusNone
		return nil
	case string:
		return s.UnmarshalText([]byte(v))
	case []byte:
		return s.UnmarshalText(v)
	default:
		return fmt.Errorf("cannot scan %T into WatchStatus", src)
	}
}

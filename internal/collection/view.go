package collection

import (
	"fmt"

	"taskgrid/internal/service"
)

// Kind selects a partition of the collection.
type Kind string

const (
	// All is every record, used by the basic grid.
	All Kind = "all"
	// WithID holds records the tracker has created.
	WithID Kind = "withId"
	// WithoutID holds records that only exist locally.
	WithoutID Kind = "withoutId"
)

// Kinds lists the partitions in navigation order.
var Kinds = []Kind{WithID, WithoutID, All}

// ParseKind parses a partition name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown view: %s", s)
}

// Capabilities are the actions a grid offers for one partition.
type Capabilities struct {
	Fetch  bool
	Save   bool
	Add    bool
	Import bool
	Delete bool
}

// Capabilities returns the actions available on the partition.
func (k Kind) Capabilities() Capabilities {
	switch k {
	case WithID:
		return Capabilities{Fetch: true, Save: true, Delete: true}
	case WithoutID:
		return Capabilities{Save: true, Add: true, Import: true, Delete: true}
	default:
		return Capabilities{Fetch: true, Save: true}
	}
}

// Title is the heading shown above the partition.
func (k Kind) Title() string {
	switch k {
	case WithID:
		return "Created tasks"
	case WithoutID:
		return "Changes without a tracker id"
	default:
		return "All tasks"
	}
}

// Contains reports whether t belongs to the partition.
func (k Kind) Contains(t service.Task) bool {
	switch k {
	case WithID:
		return !t.IsPending()
	case WithoutID:
		return t.IsPending()
	default:
		return true
	}
}

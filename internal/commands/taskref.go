package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"taskgrid/internal/collection"
	"taskgrid/internal/service"
)

// TaskRef represents a parsed task reference.
type TaskRef struct {
	Num int    // 1-based row number, 0 when ID is set
	ID  string // literal task id
}

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task reference required")

// ErrAmbiguousRef indicates the referenced task shares its id with another
// row, so id-based operations cannot single it out.
var ErrAmbiguousRef = errors.New("task id is not unique")

// ParseTaskRef parses a task reference.
//
// Parsing rules:
// 1. All digits → row number in full collection order
// 2. Anything else non-blank → literal task id
func ParseTaskRef(arg string) (TaskRef, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return TaskRef{}, ErrTaskRefRequired
	}

	if isAllDigits(arg) {
		num, err := strconv.Atoi(arg)
		if err != nil || num < 1 {
			return TaskRef{}, fmt.Errorf("task number out of range: %s", arg)
		}
		return TaskRef{Num: num}, nil
	}
	return TaskRef{ID: arg}, nil
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Resolve finds the referenced task and its row number.
// Tasks whose id appears on more than one row are refused.
func (r TaskRef) Resolve(c *collection.Collection) (int, service.Task, error) {
	tasks := c.Tasks()
	num := 0
	if r.Num > 0 {
		if r.Num > len(tasks) {
			return 0, service.Task{}, fmt.Errorf("task number out of range: %d", r.Num)
		}
		num = r.Num
	} else {
		for i, t := range tasks {
			if t.ID == r.ID {
				num = i + 1
				break
			}
		}
		if num == 0 {
			return 0, service.Task{}, fmt.Errorf("%w: %s", collection.ErrNotFound, r.ID)
		}
	}

	task := tasks[num-1]
	for i, t := range tasks {
		if i != num-1 && t.ID == task.ID {
			return 0, service.Task{}, fmt.Errorf("%w: %s (rows %d and %d)", ErrAmbiguousRef, task.ID, min(num, i+1), max(num, i+1))
		}
	}
	return num, task, nil
}

// rowNumbers returns the full-collection row number of every task in the view.
func rowNumbers(c *collection.Collection, kind collection.Kind) ([]int, []service.Task) {
	var nums []int
	var tasks []service.Task
	for i, t := range c.Tasks() {
		if kind.Contains(t) {
			nums = append(nums, i+1)
			tasks = append(tasks, t)
		}
	}
	return nums, tasks
}

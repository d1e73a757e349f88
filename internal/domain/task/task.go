package task

import (
	"encoding/json"
	"fmt"
)

// Task is a unit of work pushed through the Redis streams queue.
type Task interface {
	TaskType() string
	TaskValue() ([]byte, error)
}

// DefaultTaskValue provides a common implementation for TaskValue
func DefaultTaskValue(task any) ([]byte, error) {
	return json.Marshal(task)
}

// UnmarshalTask decodes task data into a pointer task type such as *PartTask.
func UnmarshalTask[T Task](data []byte) (T, error) {
	var t T
	if err := json.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("failed to decode %T: %w", t, err)
	}
	return t, nil
}

package queue

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	fieldType    = "type"
	fieldPayload = "payload"
)

var ErrMalformedTask = errors.New("malformed task message")

// Task is one unit of queued work as read back from the stream.
type Task struct {
	ID      string
	Type    string
	Payload json.RawMessage
}

// Bind decodes the payload into out. An empty payload leaves out untouched.
func (t Task) Bind(out any) error {
	if len(t.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(t.Payload, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedTask, err)
	}
	return nil
}

func encode(task string, payload map[string]any) (map[string]any, error) {
	if task == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformedTask)
	}
	values := map[string]any{fieldType: task}
	if len(payload) > 0 {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
		values[fieldPayload] = string(raw)
	}
	return values, nil
}

func decode(msg redis.XMessage) (Task, error) {
	task := Task{ID: msg.ID}
	typ, ok := msg.Values[fieldType].(string)
	if !ok || typ == "" {
		return task, fmt.Errorf("%w: missing type", ErrMalformedTask)
	}
	task.Type = typ
	if raw, ok := msg.Values[fieldPayload].(string); ok && raw != "" {
		task.Payload = json.RawMessage(raw)
	}
	return task, nil
}

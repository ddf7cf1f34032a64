package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"taskboard/internal/model"
)

// DefaultTasksKey is the key the task list is stored under.
const DefaultTasksKey = "tasks"

// ErrMalformedData reports a stored blob that is not a valid task list.
var ErrMalformedData = errors.New("malformed task data")

const tasksSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "title", "category", "priority", "isCompleted", "createdAt"],
    "properties": {
      "id": {"type": "string", "minLength": 1},
      "title": {"type": "string", "minLength": 1},
      "category": {"type": "string"},
      "priority": {"type": "string"},
      "isCompleted": {"type": "boolean"},
      "createdAt": {"type": "string"}
    }
  }
}`

var taskListSchema = jsonschema.MustCompileString("tasks.schema.json", tasksSchema)

// TaskRepository keeps the whole ordered task list as one JSON array under a single key.
type TaskRepository struct {
	kv  KeyValue
	key string
}

func NewTaskRepository(kv KeyValue, key string) *TaskRepository {
	if key == "" {
		key = DefaultTasksKey
	}
	return &TaskRepository{kv: kv, key: key}
}

// Key returns the storage key the repository is bound to.
func (r *TaskRepository) Key() string {
	return r.key
}

// Load returns the stored list in saved order. An absent key yields an empty list.
func (r *TaskRepository) Load(ctx context.Context) ([]model.Task, error) {
	data, err := r.kv.Get(ctx, r.key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	return DecodeTasks(data)
}

// Save replaces the stored list.
func (r *TaskRepository) Save(ctx context.Context, tasks []model.Task) error {
	data, err := EncodeTasks(tasks)
	if err != nil {
		return err
	}
	if err := r.kv.Set(ctx, r.key, data); err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}
	return nil
}

// EncodeTasks renders tasks in the persisted layout. A nil list encodes as [].
func EncodeTasks(tasks []model.Task) ([]byte, error) {
	if tasks == nil {
		tasks = []model.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return nil, fmt.Errorf("marshal tasks: %w", err)
	}
	return data, nil
}

// DecodeTasks parses and validates a persisted blob. The literal null is treated as empty.
func DecodeTasks(data []byte) ([]model.Task, error) {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedData, err)
	}
	if raw == nil {
		return nil, nil
	}
	if err := taskListSchema.Validate(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedData, err)
	}

	var tasks []model.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedData, err)
	}
	return tasks, nil
}

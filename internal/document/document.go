// Package document reads and writes the JSON task document.
package document

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/Joseda-hg/todolist/internal/model"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const DefaultPath = "todos.json"

//go:embed schema.json
var schemaJSON string

var schema = jsonschema.MustCompileString("todos.schema.json", schemaJSON)

// ErrInvalid marks a document that exists but is not a task list.
var ErrInvalid = errors.New("invalid task document")

// File is a task document on local disk.
type File struct {
	path string
}

func New(path string) *File {
	if path == "" {
		path = DefaultPath
	}
	return &File{path: path}
}

func (f *File) Path() string {
	return f.path
}

// Load reads the document. A missing file is reported as fs.ErrNotExist and
// a document that fails to parse or validate wraps ErrInvalid.
func (f *File) Load(ctx context.Context) ([]model.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

func (f *File) Save(ctx context.Context, tasks []model.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Encode(tasks)
	if err != nil {
		return err
	}
	return atomicWriteFile(f.path, data, 0o644)
}

func Decode(data []byte) ([]model.Task, error) {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	var tasks []model.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return tasks, nil
}

// Encode renders tasks as an indented JSON array. A nil slice encodes as [].
func Encode(tasks []model.Task) ([]byte, error) {
	if tasks == nil {
		tasks = []model.Task{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tasks); err != nil {
		return nil, fmt.Errorf("encode tasks: %w", err)
	}
	return buf.Bytes(), nil
}

func atomicWriteFile(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d", filepath.Base(path), time.Now().UnixNano()))
	if err := os.WriteFile(tmp, data, perm); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

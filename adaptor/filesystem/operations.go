// Package filesystem provides the small set of file system operations the
// agent needs around the downloaded bundle file: ensuring its parent
// directory exists and removing it during session teardown.
package filesystem

import (
	"fmt"
	"os"
)

// Operator performs file system operations on the agent's bundle path.
type Operator struct{}

// NewOperator creates a new file system operator.
//
//	op := filesystem.NewOperator()
//	err := op.MkdirAll("/var/lib/hawkbit-agent")
func NewOperator() *Operator {
	return &Operator{}
}

// MkdirAll creates a directory and all parents.
func (o *Operator) MkdirAll(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("filesystem: mkdir all %s: %w", path, err)
	}
	return nil
}

// Remove removes a file. Non-existent paths are ignored.
func (o *Operator) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("filesystem: remove %s: %w", path, err)
	}
	return nil
}

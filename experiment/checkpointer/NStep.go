package checkpointer

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
)

// nStep implements checkpointing every N cycles
type nStep struct {
	interval int
	object   Serializable // Object to save

	// filename returns the filename of the checkpoint for a cycle. Use
	// FilenameEnumerator to number files by cycle.
	filename func(int) string
}

// NewNStep returns a checkpointer that checkpoints every n cycles.
func NewNStep(n int, object Serializable,
	filename func(int) string) (Checkpointer, error) {
	if n < 1 {
		return nil, fmt.Errorf("newnstep: interval must be positive "+
			"\n\thave(%v)", n)
	}
	if object == nil {
		return nil, fmt.Errorf("newnstep: object cannot be nil")
	}

	return &nStep{
		interval: n,
		object:   object,
		filename: filename,
	}, nil
}

// Checkpoint gob encodes the Checkpointer's tracked object if cycle is
// a multiple of the interval
func (n *nStep) Checkpoint(cycle int) (string, error) {
	if cycle%n.interval != 0 {
		return "", nil
	}

	filename := n.filename(cycle)
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return "", fmt.Errorf("checkpoint: could not create directory: %w",
			err)
	}

	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("checkpoint: could not create file: %w", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(n.object); err != nil {
		return "", fmt.Errorf("checkpoint: could not encode %T: %w",
			n.object, err)
	}
	return filename, file.Close()
}

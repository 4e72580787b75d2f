// Package checkpointer periodically saves models during training
package checkpointer

import (
	"encoding/gob"
	"fmt"
	"os"
)

// Serializable is an object that can be saved/serialized
type Serializable interface {
	gob.GobEncoder
	gob.GobDecoder
}

// Checkpointer checkpoints/saves serializable objects at the end of
// each cycle of training. Checkpoint returns the path of the file
// written, or the empty string if no checkpoint was due.
type Checkpointer interface {
	Checkpoint(cycle int) (string, error)
}

// Load decodes the checkpoint saved at filename into object
func Load(filename string, object Serializable) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("load: could not open checkpoint: %w", err)
	}
	defer file.Close()

	if err := gob.NewDecoder(file).Decode(object); err != nil {
		return fmt.Errorf("load: could not decode checkpoint %v: %w",
			filename, err)
	}
	return nil
}

package checkpointer

import (
	"fmt"
	"path/filepath"
)

// fileEnumerator enumerates filenames
type fileEnumerator struct {
	dir       string
	name      string
	extension string
}

// filename returns the name of the file for checkpoint i
func (f *fileEnumerator) filename(i int) string {
	return filepath.Join(f.dir, fmt.Sprintf("%v-%v%v", f.name, i,
		f.extension))
}

// FilenameEnumerator returns a function which will return filenames in
// dir with an integer suffix. For example, FilenameEnumerator("out",
// "net", ".gob") returns a function mapping 3 to out/net-3.gob.
func FilenameEnumerator(dir, name, extension string) func(int) string {
	enum := fileEnumerator{dir: dir, name: name, extension: extension}

	return enum.filename
}

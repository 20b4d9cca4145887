package restyutil

import (
	"fmt"
	"log/slog"
	devenv "medprice-backend/dev/env"
	"os"
	"path/filepath"
)

// FilesystemOutput dumps every instrumented HTTP exchange into its own file under a
// directory, which is wiped when the output is created.
type FilesystemOutput struct {
	directory string
}

// NewFilesystemOutput accepts paths prefixed with <dev_state>, see devenv.ResolvePath.
func NewFilesystemOutput(dir string) (FilesystemOutput, error) {
	dir, err := devenv.ResolvePath(dir)
	if err != nil {
		return FilesystemOutput{}, err
	}
	err = os.RemoveAll(dir)
	if err != nil {
		return FilesystemOutput{}, err
	}
	err = os.MkdirAll(dir, 0777)
	if err != nil {
		return FilesystemOutput{}, err
	}
	return FilesystemOutput{directory: dir}, nil
}

func (o FilesystemOutput) Directory() string {
	return o.directory
}

func (o FilesystemOutput) Write(id string, contents string) {
	name := filepath.Join(o.directory, fmt.Sprintf("%s.txt", id))
	err := os.WriteFile(name, []byte(contents), 0600)
	if err != nil {
		slog.Warn("failed to write http exchange dump", "id", id, "err", err)
	}
}

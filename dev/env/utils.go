package devenv

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const stateDirPrefix = "<dev_state>"

var modName = regexp.MustCompile(`(?m)^module *([\w\-_]+)$`)

func isWorkspaceRoot(currentdir string) bool {
	mod, err := os.ReadFile(filepath.Join(currentdir, "go.mod"))
	if err != nil {
		return false
	}
	matches := modName.FindSubmatch(mod)
	return len(matches) >= 2 && string(matches[1]) == "medprice-backend"
}

// GetWorkspaceRoot walks up from the cwd until it finds this module's go.mod.
func GetWorkspaceRoot() (string, error) {
	currentdir, err := filepath.Abs(".")
	if err != nil {
		return "", err
	}
	root, err := filepath.Abs("/")
	if err != nil {
		return "", err
	}

	for currentdir != root {
		if isWorkspaceRoot(currentdir) {
			return currentdir, nil
		}
		currentdir = filepath.Dir(currentdir)
	}

	return "", os.ErrNotExist
}

// ResolvePath expands a leading <dev_state> into `<workspace root>/dev/.state`,
// other paths are returned untouched.
func ResolvePath(path string) (string, error) {
	if !strings.HasPrefix(path, stateDirPrefix) {
		return path, nil
	}

	root, err := GetWorkspaceRoot()
	if err != nil {
		return "", err
	}

	stateDir := filepath.Join(root, "dev", ".state")
	err = os.MkdirAll(stateDir, 0777)
	if err != nil {
		return "", err
	}

	subpath := strings.TrimPrefix(path, stateDirPrefix)
	subpath = strings.TrimLeft(subpath, `/\`)
	return filepath.Join(stateDir, subpath), nil
}

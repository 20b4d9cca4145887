package configutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// localPath turns `dir/config.json5` into `dir/config.local.json5`.
func localPath(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + ".local" + ext
}

func readFile[T any](path string, out *T) (bool, error) {
	contents, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(contents) == 0 {
		return false, nil
	}
	err = json5.Unmarshal(contents, out)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}
	return true, nil
}

// ReadConfig reads a json5 configuration file, `name` should come with a file extension.
// Values in `<name>.local.<ext>` are merged over the base file when it exists.
// If neither file exists, os.ErrNotExist is returned.
func ReadConfig[T any](name string) (T, error) {
	var out T

	foundBase, err := readFile(name, &out)
	if err != nil {
		return out, err
	}

	var override T
	local := localPath(name)
	foundLocal, err := readFile(local, &override)
	if err != nil {
		return out, err
	}
	if foundLocal {
		err = mergo.Merge(&out, override, mergo.WithOverride)
		if err != nil {
			return out, err
		}
		slog.Info("merging config with local overrides", "local", local)
	}

	if !foundBase && !foundLocal {
		return out, os.ErrNotExist
	}
	return out, nil
}

// ReadRecursively calls ReadConfig in the cwd and every parent directory up to the
// filesystem root, returning the first configuration found.
func ReadRecursively[T any](name string) (T, error) {
	var empty T

	root, err := filepath.Abs("/")
	if err != nil {
		return empty, err
	}
	current, err := os.Getwd()
	if err != nil {
		return empty, err
	}

	for {
		config, err := ReadConfig[T](filepath.Join(current, name))
		if err == nil {
			return config, nil
		}
		if !os.IsNotExist(err) {
			return empty, err
		}
		if current == root {
			return empty, os.ErrNotExist
		}
		current = filepath.Dir(current)
	}
}

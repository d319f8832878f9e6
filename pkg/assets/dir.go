package assets

import (
	"io/fs"
	"os"

	"github.com/espfs/webnav/internal/errors"
)

// Dir returns the directory at path as an asset source.
func Dir(path string) (fs.FS, error) {
	if path == "" {
		return nil, errors.New(errors.CodeInvalidAssets).WithDetail("static directory is empty")
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.New(errors.CodeInvalidAssets).Wrap(err).WithDetailf("static directory %q", path)
	}
	if !info.IsDir() {
		return nil, errors.New(errors.CodeInvalidAssets).WithDetailf("%q is not a directory", path)
	}
	return os.DirFS(path), nil
}

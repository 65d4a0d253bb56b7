package frontend

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os"
)

//go:embed static
var embeddedFiles embed.FS

// FileSystem returns the upload page and its assets. A non-empty dir serves
// them from disk instead of the copy built into the binary.
func FileSystem(dir string) (http.FileSystem, error) {
	if dir != "" {
		stat, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("static dir: %w", err)
		}
		if !stat.IsDir() {
			return nil, fmt.Errorf("static dir %s is not a directory", dir)
		}
		return http.Dir(dir), nil
	}

	sub, err := fs.Sub(embeddedFiles, "static")
	if err != nil {
		return nil, err
	}
	return http.FS(sub), nil
}

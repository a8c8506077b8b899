package restyutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// FilesystemOutput writes every captured http exchange into its own file
// named by the message id. Message ids restart with every process, so each
// output gets a fresh run directory below the configured one.
type FilesystemOutput struct {
	directory string
}

func NewFilesystemOutput(dir string) (FilesystemOutput, error) {
	err := os.MkdirAll(dir, 0777)
	if err != nil {
		return FilesystemOutput{}, err
	}
	run, err := os.MkdirTemp(dir, time.Now().Format("20060102-150405-"))
	if err != nil {
		return FilesystemOutput{}, err
	}
	slog.Debug("dumping http exchanges", "dir", run)
	return FilesystemOutput{directory: run}, nil
}

func (o FilesystemOutput) Dir() string {
	return o.directory
}

func (o FilesystemOutput) Write(id string, contents string) {
	name := filepath.Base(filepath.Clean("/" + id))
	err := os.WriteFile(filepath.Join(o.directory, name+".txt"), []byte(contents), 0600)
	if err != nil {
		slog.Warn("failed to write message info file", "id", id, "err", err)
	}
}

// Package logging provides the wrapper's gated, size-capped file log.
// The whole tool is silent unless the debug switch is on.
package logging

import (
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/DeltaShifter/CM1115ADN-printer-assets/pkg/config"
	"github.com/DeltaShifter/CM1115ADN-printer-assets/pkg/util"
)

// MaxLogSize is the rotation threshold. Once the file grows past this, the
// next write moves it aside to an .old sibling and starts fresh.
const MaxLogSize = 1 << 20

// detectName is used for the log file when no target program was given.
const detectName = "detect"

// Path returns the log file path for a target program. The name derives
// from the target's base name with its extension stripped.
func Path(dir, target string) string {
	name := util.BaseNoExt(target)
	if name == "" {
		name = detectName
	}
	return filepath.Join(dir, "display-env-wrapper_"+name+".log")
}

// RotatingWriter appends to a single log file, rotating it once it exceeds
// maxSize. Both the enabled gate and the size check run on every write.
// Write never returns an error: a broken log must not break the pipeline.
type RotatingWriter struct {
	path    string
	maxSize int64
	enabled func() bool
}

// NewWriter builds a RotatingWriter. A nil enabled func means always on.
func NewWriter(path string, enabled func() bool) *RotatingWriter {
	return &RotatingWriter{path: path, maxSize: MaxLogSize, enabled: enabled}
}

func (w *RotatingWriter) Write(p []byte) (int, error) {
	if w.enabled != nil && !w.enabled() {
		return len(p), nil
	}

	var rotated bool
	if info, err := os.Stat(w.path); err == nil && info.Size() > w.maxSize {
		old := w.path + ".old"
		os.Remove(old)
		if err := os.Rename(w.path, old); err == nil {
			rotated = true
		}
	}

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return len(p), nil
	}
	defer f.Close()

	if rotated {
		notice := time.Now().Format("2006-01-02 15:04:05") +
			" log exceeded size limit, previous content moved to " + w.path + ".old\n"
		f.WriteString(notice)
	}
	f.Write(p)
	return len(p), nil
}

// New builds the wrapper's logger for a run against the given target
// program. With cfg.Debug off the logger is a no-op sink.
func New(cfg config.Config, target string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetLevel(logrus.DebugLevel)
	log.SetOutput(NewWriter(Path(cfg.LogDir, target), func() bool { return cfg.Debug }))
	return log
}

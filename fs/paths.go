package fs

import (
	"path/filepath"
	"time"
)

// TimestampLayout formats the run timestamp embedded in output file names.
const TimestampLayout = "20060102_150405"

// RunFiles are the output paths of a single run.
type RunFiles struct {
	Log    string
	Code   string
	Report string
}

// NewRunFiles names a run's outputs in dir after the run's start time:
// log_<ts>.txt, code_<ts>.py and report_<ts>.json.
func NewRunFiles(dir string, startedAt time.Time) RunFiles {
	ts := startedAt.Format(TimestampLayout)
	return RunFiles{
		Log:    filepath.Join(dir, "log_"+ts+".txt"),
		Code:   filepath.Join(dir, "code_"+ts+".py"),
		Report: filepath.Join(dir, "report_"+ts+".json"),
	}
}

package hooks

import (
	"path"
	"runtime/debug"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Entries are tagged with the package/file:line of the first assertsnap frame outside this hook.
const modulePath = "github.com/twitter/assertsnap/"

type contextHook struct {
}

func NewContextHook() contextHook {
	return contextHook{}
}

func (hook contextHook) Levels() []log.Level {
	return log.AllLevels
}

func (hook contextHook) Fire(entry *log.Entry) error {
	if loc := callerLocation(string(debug.Stack())); loc != "" {
		entry.Data["file:line"] = loc
	}
	return nil
}

// callerLocation scans a debug.Stack() dump, which alternates function lines and
// tab-indented file lines, for the first frame in this module that isn't the hook itself.
func callerLocation(stack string) string {
	lines := strings.Split(stack, "\n")
	for i := 1; i+1 < len(lines); i++ {
		fn := lines[i]
		if !strings.HasPrefix(fn, modulePath) || strings.Contains(fn, "/common/log/hooks.") {
			continue
		}
		pkg := strings.TrimPrefix(fn, modulePath)
		// "snapshot.(*Manager).Capture(0xc0)" -> "snapshot"
		if idx := strings.Index(path.Base(pkg), "."); idx >= 0 {
			pkg = path.Join(path.Dir(pkg), path.Base(pkg)[:idx])
		}
		file := strings.TrimSpace(lines[i+1])
		if idx := strings.LastIndex(file, " +0x"); idx >= 0 {
			file = file[:idx]
		}
		return path.Join(pkg, path.Base(file))
	}
	return ""
}

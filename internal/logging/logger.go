// Package logging provides category-based file logging for pipeline
// subsystems. Each category writes to its own file under ~/.cliche/logs so a
// noisy fetch run doesn't drown provider traffic. Debug lines are dropped
// unless debug mode is enabled.
package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sizzlebop/CLIche/internal/config"
)

// Category names a logging subsystem.
type Category string

const (
	CategorySearch    Category = "search"
	CategoryFetch     Category = "fetch"
	CategoryBrowser   Category = "browser"
	CategoryAggregate Category = "aggregate"
	CategoryChunk     Category = "chunk"
	CategorySynth     Category = "synth"
	CategoryImages    Category = "images"
	CategoryProvider  Category = "provider"
	CategoryCLI       Category = "cli"
)

var (
	mu        sync.RWMutex
	loggers   = make(map[Category]*log.Logger)
	files     []*os.File
	debugMode bool
	disabled  bool
)

// SetDebugMode toggles emission of *Debug lines.
func SetDebugMode(enabled bool) {
	mu.Lock()
	debugMode = enabled
	mu.Unlock()
}

// Disable turns off file logging entirely (used by tests).
func Disable() {
	mu.Lock()
	disabled = true
	mu.Unlock()
}

// Get returns the logger for a category, creating its file on first use.
func Get(category Category) *log.Logger {
	mu.RLock()
	l, ok := loggers[category]
	mu.RUnlock()
	if ok {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}

	if disabled {
		l := log.New(os.Stderr, fmt.Sprintf("[%s] ", category), log.LstdFlags)
		loggers[category] = l
		return l
	}

	dir, err := config.LogsDir()
	if err != nil {
		l := log.New(os.Stderr, fmt.Sprintf("[%s] ", category), log.LstdFlags)
		loggers[category] = l
		return l
	}

	path := filepath.Join(dir, string(category)+".log")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		l := log.New(os.Stderr, fmt.Sprintf("[%s] ", category), log.LstdFlags)
		loggers[category] = l
		return l
	}

	files = append(files, f)
	l = log.New(f, "", log.LstdFlags|log.Lmicroseconds)
	loggers[category] = l
	return l
}

// Close flushes and closes all open log files.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	for _, f := range files {
		_ = f.Close()
	}
	files = nil
	loggers = make(map[Category]*log.Logger)
}

func logf(category Category, level, format string, args ...interface{}) {
	Get(category).Printf("[%s] %s", level, fmt.Sprintf(format, args...))
}

func debugf(category Category, format string, args ...interface{}) {
	mu.RLock()
	enabled := debugMode
	mu.RUnlock()
	if !enabled {
		return
	}
	logf(category, "DEBUG", format, args...)
}

// Convenience functions, one set per category.

func Search(format string, args ...interface{})         { logf(CategorySearch, "INFO", format, args...) }
func SearchDebug(format string, args ...interface{})    { debugf(CategorySearch, format, args...) }
func SearchWarn(format string, args ...interface{})     { logf(CategorySearch, "WARN", format, args...) }
func Fetch(format string, args ...interface{})          { logf(CategoryFetch, "INFO", format, args...) }
func FetchDebug(format string, args ...interface{})     { debugf(CategoryFetch, format, args...) }
func FetchWarn(format string, args ...interface{})      { logf(CategoryFetch, "WARN", format, args...) }
func Browser(format string, args ...interface{})        { logf(CategoryBrowser, "INFO", format, args...) }
func BrowserWarn(format string, args ...interface{})    { logf(CategoryBrowser, "WARN", format, args...) }
func Aggregate(format string, args ...interface{})      { logf(CategoryAggregate, "INFO", format, args...) }
func AggregateDebug(format string, args ...interface{}) { debugf(CategoryAggregate, format, args...) }
func Chunk(format string, args ...interface{})          { logf(CategoryChunk, "INFO", format, args...) }
func ChunkDebug(format string, args ...interface{})     { debugf(CategoryChunk, format, args...) }
func Synth(format string, args ...interface{})          { logf(CategorySynth, "INFO", format, args...) }
func SynthDebug(format string, args ...interface{})     { debugf(CategorySynth, format, args...) }
func SynthWarn(format string, args ...interface{})      { logf(CategorySynth, "WARN", format, args...) }
func Images(format string, args ...interface{})         { logf(CategoryImages, "INFO", format, args...) }
func ImagesWarn(format string, args ...interface{})     { logf(CategoryImages, "WARN", format, args...) }
func Provider(format string, args ...interface{})       { logf(CategoryProvider, "INFO", format, args...) }
func ProviderDebug(format string, args ...interface{})  { debugf(CategoryProvider, format, args...) }
func ProviderError(format string, args ...interface{})  { logf(CategoryProvider, "ERROR", format, args...) }
func CLI(format string, args ...interface{})            { logf(CategoryCLI, "INFO", format, args...) }

// Timer measures a stage duration for debug output.
type Timer struct {
	category Category
	label    string
	start    time.Time
}

// StartTimer begins timing a labeled operation.
func StartTimer(category Category, label string) *Timer {
	return &Timer{category: category, label: label, start: time.Now()}
}

// Stop logs the elapsed time and returns it.
func (t *Timer) Stop() time.Duration {
	d := time.Since(t.start)
	debugf(t.category, "%s took %v", t.label, d)
	return d
}

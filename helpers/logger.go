package helpers

import (
	"fmt"
	"os"
	"sync"
	"time"

	"sjsage522/contactmerge/logger"
)

// Journal records failures that a run skipped over
type Journal interface {
	LogError(stage string, err error)
	LogInfo(format string, args ...interface{})
}

// FileJournal appends failures to a plain text file, one line per error
type FileJournal struct {
	mu        sync.Mutex
	errorFile string
}

// NewFileJournal creates a journal writing to errorFile
func NewFileJournal(errorFile string) *FileJournal {
	return &FileJournal{
		errorFile: errorFile,
	}
}

// LogError logs an error to the file with the stage name and timestamp
func (j *FileJournal) LogError(stage string, err error) {
	if err == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	f, fileErr := os.OpenFile(j.errorFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if fileErr != nil {
		logger.Warn("Failed to open error journal %s: %v", j.errorFile, fileErr)
		return
	}
	defer f.Close()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(f, "[%s] [%s] %s\n", timestamp, stage, err.Error())
}

// LogInfo logs an informational message to the console
func (j *FileJournal) LogInfo(format string, args ...interface{}) {
	logger.Info(format, args...)
}

// NopJournal discards everything
type NopJournal struct{}

func (NopJournal) LogError(string, error) {}

func (NopJournal) LogInfo(string, ...interface{}) {}

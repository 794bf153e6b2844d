package metrics

import (
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path"
	"strings"
	"time"
)

type Logger interface {
	Log(info *MetricsInfo)
}

type StdoutLogger struct{}

func NewStdoutLogger() *StdoutLogger {
	return &StdoutLogger{}
}

func (l *StdoutLogger) Log(info *MetricsInfo) {
	infoStr, err := info.ToJSON()
	if err == nil {
		log.Print(infoStr)
	} else {
		log.Printf("StdoutLogger: error: %v", err)
	}
}

const defaultQueueSize = 2000
const defaultMaxLogAgeDays = 30
const logFilePrefix = "metrics-"
const logDateFormat = "20060102"

// FileLogger writes one JSON document per request into daily log files.
// Writes go through a queue so request handlers never block on disk, and
// files older than MaxLogAgeDays are removed when the day rolls over.
type FileLogger struct {
	MetricsQueue  chan *MetricsInfo
	LogDir        string
	MaxLogAgeDays int
	Verbose       bool
}

func NewFileLogger(logDir string, maxLogAgeDays int, verbose bool) *FileLogger {
	if maxLogAgeDays <= 0 {
		maxLogAgeDays = defaultMaxLogAgeDays
	}
	logger := &FileLogger{
		MetricsQueue:  make(chan *MetricsInfo, defaultQueueSize),
		LogDir:        logDir,
		MaxLogAgeDays: maxLogAgeDays,
		Verbose:       verbose,
	}

	go logger.startLogWriter()

	return logger
}

func (l *FileLogger) Log(info *MetricsInfo) {
	select {
	case l.MetricsQueue <- info:
	default:
		log.Printf("FileLogger: queue full, metrics record dropped")
	}
}

func (l *FileLogger) logFilePath(day time.Time) string {
	return path.Join(l.LogDir, fmt.Sprintf("%s%s.log", logFilePrefix, day.Format(logDateFormat)))
}

func (l *FileLogger) startLogWriter() {
	var f *os.File
	var currDay string

	for info := range l.MetricsQueue {
		day := time.Now().UTC()
		if f == nil || day.Format(logDateFormat) != currDay {
			if f != nil {
				f.Close()
			}
			var err error
			f, err = os.OpenFile(l.logFilePath(day), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
			if err != nil {
				log.Printf("FileLogger: log open error: %v", err)
				f = nil
				continue
			}
			currDay = day.Format(logDateFormat)
			l.cleanupLogFiles(day)
		}

		infoStr, err := info.ToJSON()
		if err != nil {
			log.Printf("FileLogger: info.ToJSON() error: %v", err)
			continue
		}

		if _, err := f.WriteString(infoStr); err != nil {
			log.Printf("FileLogger: write error: %v", err)
			continue
		}
		f.Sync()
	}
}

func (l *FileLogger) cleanupLogFiles(now time.Time) {
	files, err := ioutil.ReadDir(l.LogDir)
	if err != nil {
		log.Printf("FileLogger: log cleanup error: %v", err)
		return
	}

	oldest := now.AddDate(0, 0, -l.MaxLogAgeDays)
	for _, file := range files {
		if !file.Mode().IsRegular() {
			continue
		}
		name := file.Name()
		if !strings.HasPrefix(name, logFilePrefix) || !strings.HasSuffix(name, ".log") {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, logFilePrefix), ".log")
		day, err := time.Parse(logDateFormat, stamp)
		if err != nil {
			continue
		}
		if day.Before(oldest) {
			if err := os.Remove(path.Join(l.LogDir, name)); err != nil {
				log.Printf("FileLogger: log cleanup error: %v", err)
				continue
			}
			if l.Verbose {
				log.Printf("FileLogger: removed expired log file %s", name)
			}
		}
	}
}

package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	log     = newLogger(os.Stdout)
	logFile *os.File
)

func newLogger(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// InitLogger writes to stdout and, when filename is set, appends to that file too.
func InitLogger(filename string, level string) error {
	lvl := logrus.InfoLevel
	if level != "" {
		parsed, err := logrus.ParseLevel(strings.ToLower(level))
		if err != nil {
			return err
		}
		lvl = parsed
	}

	out := io.Writer(os.Stdout)
	if filename != "" {
		f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return err
		}
		logFile = f
		out = io.MultiWriter(os.Stdout, logFile)
	}

	log.SetOutput(out)
	log.SetLevel(lvl)
	return nil
}

// SetOutput redirects log output, mostly for tests.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

func Close() {
	if logFile != nil {
		log.SetOutput(os.Stdout)
		logFile.Close()
		logFile = nil
	}
}

// WithFields returns an entry carrying the given fields.
func WithFields(fields logrus.Fields) *logrus.Entry {
	return log.WithFields(fields)
}

func Info(format string, v ...interface{}) {
	log.Infof(format, v...)
}

func Infof(format string, v ...interface{}) {
	Info(format, v...)
}

func Debugf(format string, v ...interface{}) {
	log.Debugf(format, v...)
}

func Error(format string, v ...interface{}) {
	log.Errorf(format, v...)
}

func Errorf(format string, v ...interface{}) {
	Error(format, v...)
}

func Warn(format string, v ...interface{}) {
	log.Warnf(format, v...)
}

func Warnf(format string, v ...interface{}) {
	Warn(format, v...)
}

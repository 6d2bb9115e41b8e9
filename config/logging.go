package config

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// SetupLogging points the standard logger at stdout and, when LogFile is set,
// a size-rotated file. The returned closer flushes the file on shutdown.
func SetupLogging(cfg *Config) io.Closer {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if cfg.LogFile == "" {
		log.SetOutput(os.Stdout)
		return nopCloser{}
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    50, // megabytes
		MaxBackups: 5,
		MaxAge:     28, // days
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, rotator))
	log.Printf("Logging to stdout and %s", cfg.LogFile)
	return rotator
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

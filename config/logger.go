package config

import (
	"sync"

	"github.com/MonkyMars/gecho"
)

var (
	logger     *gecho.Logger
	loggerOnce sync.Once
)

// InitializeLogger builds the process logger at the level matching the environment.
func InitializeLogger() *gecho.Logger {
	loggerOnce.Do(func() {
		logger = NewLogger(true)
	})
	return logger
}

// NewLogger returns a fresh logger; request middleware uses one without caller info.
func NewLogger(showCaller bool) *gecho.Logger {
	level := gecho.ParseLogLevel(GetLogLevel())
	return gecho.NewLogger(gecho.NewConfig(gecho.WithShowCaller(showCaller), gecho.WithLogLevel(level)))
}

func GetLogger() *gecho.Logger {
	return InitializeLogger()
}

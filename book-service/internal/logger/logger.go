package logger

import (
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	once sync.Once
	log  zerolog.Logger
)

// Get returns the process-wide logger. The debug flag is honoured only on the first call.
func Get(debug ...bool) *zerolog.Logger {
	once.Do(func() {
		level := zerolog.InfoLevel
		if len(debug) > 0 && debug[0] {
			level = zerolog.DebugLevel
		}
		zerolog.TimeFieldFormat = time.RFC3339
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.DateTime}
		log = zerolog.New(output).Level(level).With().Timestamp().Logger()
	})
	return &log
}

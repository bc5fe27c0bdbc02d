package logx

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Debug        bool `split_words:"true" default:"false"`
	PrettyFormat bool `split_words:"true" default:"false"`
}

var DefaultConfig = &Config{
	Debug:        false,
	PrettyFormat: false,
}

func safe(opts ...Config) *Config {
	if len(opts) == 0 {
		return DefaultConfig
	}
	return &opts[0]
}

// Init configures the global logger. Contexts without an attached logger
// resolve to it through log.Ctx.
func Init(opts ...Config) {
	conf := safe(opts...)
	log.Logger = New(os.Stdout, *conf)
	zerolog.DefaultContextLogger = &log.Logger
}

func New(w io.Writer, conf Config) zerolog.Logger {
	if conf.PrettyFormat {
		w = zerolog.ConsoleWriter{Out: w}
	}

	level := zerolog.InfoLevel
	if conf.Debug {
		level = zerolog.DebugLevel
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", "outreach-agent").
		Caller().
		Stack().
		Logger()
}

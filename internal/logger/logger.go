// internal/logger/logger.go
//
// Structured JSON logger (Zap + Lumberjack).
//
// Context
// -------
// Vector writes bootstrap, discovery, and request events to one JSON log
// per day under `<dir>/YYYY-MM-DD.log`.  When the service runs in an
// interactive TTY the same events are tee'd, human readable, to stdout.
// Rotation, compression, and retention are Lumberjack's job.
//
// Usage
// -----
//
//	log, err := logger.New(logger.Options{Dir: cfg.Log.Dir, Tee: tty})
//	if err != nil { … }
//	log.Infow("homeserver resolved", "hs_url", v.HSURL)
//
// Notes
// -----
// • ISO-8601 timestamps, lowercase levels.
// • Unknown level strings fall back to info rather than failing boot.
// • Oxford commas, two spaces after periods.
package logger

import (
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects where and how loudly the logger writes.
type Options struct {
	Dir   string // log directory; "logs" when empty
	Level string // debug, info, warn, error
	Tee   bool   // also write to stdout
}

// New returns a *zap.SugaredLogger that writes JSON to <Dir>/YYYY-MM-DD.log
// and installs it as the process-wide logger via zap.ReplaceGlobals.
func New(opts Options) (*zap.SugaredLogger, error) {
	dir := opts.Dir
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	fileSink := &lumberjack.Logger{
		Filename:   filepath.Join(dir, time.Now().Format("2006-01-02")+".log"),
		MaxSize:    50, // MB
		MaxBackups: 7,
		MaxAge:     14, // days
		Compress:   true,
	}

	level := ParseLevel(opts.Level)
	encCfg := encoderConfig()

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(fileSink), level),
	}
	if opts.Tee {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encCfg),
			zapcore.AddSync(os.Stdout),
			level,
		))
	}

	z := zap.New(
		zapcore.NewTee(cores...),
		zap.ErrorOutput(zapcore.AddSync(fileSink)),
	).Sugar()
	zap.ReplaceGlobals(z.Desugar())

	z.Infow("logger online", "dir", dir, "level", level.String(), "tee", opts.Tee)
	return z, nil
}

// Console returns a stdout-only logger for the window before settings are
// loaded, so early boot failures are still visible.
func Console() *zap.SugaredLogger {
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig()),
		zapcore.AddSync(os.Stderr),
		zap.InfoLevel,
	)
	z := zap.New(core).Sugar()
	zap.ReplaceGlobals(z.Desugar())
	return z
}

// ParseLevel maps a level name to a zapcore.Level, defaulting to info.
func ParseLevel(s string) zapcore.Level {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(s)); err != nil || s == "" {
		return zap.InfoLevel
	}
	return l
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:      "ts",
		LevelKey:     "level",
		MessageKey:   "msg",
		CallerKey:    "caller",
		EncodeTime:   zapcore.ISO8601TimeEncoder,
		EncodeLevel:  zapcore.LowercaseLevelEncoder,
		EncodeCaller: zapcore.ShortCallerEncoder,
	}
}

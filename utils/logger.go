package utils

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/mdobak/go-xerrors"
)

var (
	loggerOnce sync.Once
	logger     *slog.Logger
)

type stackFrame struct {
	Func   string `json:"func"`
	Source string `json:"source"`
	Line   int    `json:"line"`
}

// GetLogger returns the shared structured logger. Errors created with
// go-xerrors are rendered with their stack traces attached.
func GetLogger() *slog.Logger {
	loggerOnce.Do(func() {
		handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			ReplaceAttr: replaceAttr,
		})
		logger = slog.New(handler)
	})
	return logger
}

func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindAny {
		if err, ok := a.Value.Any().(error); ok {
			a.Value = formatError(err)
		}
	}
	return a
}

func formatError(err error) slog.Value {
	attrs := []slog.Attr{slog.String("msg", err.Error())}
	if frames := marshalStack(err); frames != nil {
		attrs = append(attrs, slog.Any("trace", frames))
	}
	return slog.GroupValue(attrs...)
}

func marshalStack(err error) []stackFrame {
	trace := xerrors.StackTrace(err)
	if len(trace) == 0 {
		return nil
	}

	frames := trace.Frames()
	out := make([]stackFrame, len(frames))
	for i, frame := range frames {
		out[i] = stackFrame{
			Source: filepath.Join(
				filepath.Base(filepath.Dir(frame.File)),
				filepath.Base(frame.File),
			),
			Func: filepath.Base(frame.Function),
			Line: frame.Line,
		}
	}
	return out
}

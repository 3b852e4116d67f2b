package utils

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the logger of one run. Verbose enables debug output,
// otherwise only warnings and errors are written.
func NewLogger(verbose bool, w io.Writer) *zap.Logger {
	if w == nil {
		w = os.Stderr
	}
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.TimeKey = ""
	encoderCfg.CallerKey = ""
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(w),
		level,
	)
	return zap.New(core)
}

// RestyLogger sends resty's internal messages to zap.
type RestyLogger struct {
	sugar *zap.SugaredLogger
}

func NewRestyLogger(logger *zap.Logger) *RestyLogger {
	return &RestyLogger{sugar: logger.Sugar()}
}

func (l *RestyLogger) Errorf(format string, v ...interface{}) { l.sugar.Errorf(format, v...) }
func (l *RestyLogger) Warnf(format string, v ...interface{})  { l.sugar.Warnf(format, v...) }
func (l *RestyLogger) Debugf(format string, v ...interface{}) { l.sugar.Debugf(format, v...) }

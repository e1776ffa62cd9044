package log

import (
	"os"

	"github.com/oceanlens/enginewatch/pkg/logger/conf"
	"github.com/sirupsen/logrus"
)

type Fields map[string]interface{}

var globalLogger *logrus.Logger

func init() {
	_ = InitGlobalLogger(conf.DefaultConfig())
}

func InitGlobalLogger(cfg *conf.LogConfig) error {
	l := logrus.New()
	level, err := logrus.ParseLevel(string(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)
	switch cfg.Formatter {
	case conf.JSONFormater:
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	globalLogger = l
	return nil
}

func GlobalLogger() *logrus.Logger {
	return globalLogger
}

func WithFields(fields Fields) *logrus.Entry {
	return globalLogger.WithFields(logrus.Fields(fields))
}

func Trace(args ...interface{}) {
	globalLogger.Trace(args...)
}

func Tracef(template string, args ...interface{}) {
	globalLogger.Tracef(template, args...)
}

func Debug(args ...interface{}) {
	globalLogger.Debug(args...)
}

func Debugf(template string, args ...interface{}) {
	globalLogger.Debugf(template, args...)
}

func Info(args ...interface{}) {
	globalLogger.Info(args...)
}

func Infof(template string, args ...interface{}) {
	globalLogger.Infof(template, args...)
}

func Warn(args ...interface{}) {
	globalLogger.Warn(args...)
}

func Warnf(template string, args ...interface{}) {
	globalLogger.Warnf(template, args...)
}

func Error(args ...interface{}) {
	globalLogger.Error(args...)
}

func Errorf(template string, args ...interface{}) {
	globalLogger.Errorf(template, args...)
}

func Fatal(args ...interface{}) {
	globalLogger.Log(logrus.FatalLevel, args...)
	os.Exit(1)
}

func Fatalf(template string, args ...interface{}) {
	globalLogger.Logf(logrus.FatalLevel, template, args...)
	os.Exit(1)
}

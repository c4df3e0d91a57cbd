package logrusconfig

import (
	"io/ioutil"

	prefixed "github.com/BertoldVdb/logrus-prefixed-formatter"
	"github.com/sirupsen/logrus"
)

// GetLogger returns a logger writing prefixed text lines at the given level
func GetLogger(level logrus.Level) *logrus.Entry {
	logrus.ErrorKey = "$error"
	logger := logrus.New()
	logger.SetLevel(level)
	customFormatter := new(prefixed.TextFormatter)
	customFormatter.TimestampFormat = "2006-01-02 15:04:05"
	customFormatter.FullTimestamp = true
	customFormatter.PrefixPadding = 20
	customFormatter.SpacePadding = 50
	logger.SetFormatter(customFormatter)
	return logrus.NewEntry(logger)
}

// GetDiscardLogger returns a logger that drops everything
func GetDiscardLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(ioutil.Discard)
	logger.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(logger)
}

// WithPrefix returns a child logger whose lines carry the given prefix
func WithPrefix(log *logrus.Entry, prefix string) *logrus.Entry {
	return log.WithField("prefix", prefix)
}

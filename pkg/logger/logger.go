package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

var Log = logrus.StandardLogger()

// Init configures the standard logrus logger: JSON to stdout at the given level.
// Unknown levels fall back to info.
func Init(level string) {
	Log.Out = os.Stdout
	Log.SetFormatter(&logrus.JSONFormatter{})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)
}

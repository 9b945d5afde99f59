// Package logs sets up the go-logging backend shared by every package.
package logs

import (
	"io"

	"github.com/op/go-logging"
)

const format = `%{time:15:04:05} %{level:.4s} %{module}: %{message}`

// Init installs a leveled backend writing to w. level is a go-logging level
// name such as "WARNING" or "DEBUG"; an unknown name is an error.
func Init(level string, w io.Writer) error {
	lvl, err := logging.LogLevel(level)
	if err != nil {
		return err
	}

	backend := logging.NewLogBackend(w, "", 0)
	formatted := logging.NewBackendFormatter(backend, logging.MustStringFormatter(format))
	leveled := logging.AddModuleLevel(formatted)
	leveled.SetLevel(lvl, "")

	logging.SetBackend(leveled)
	return nil
}

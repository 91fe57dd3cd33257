package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/goccy/go-json"
)

var ErrChecksFormat = errors.New("check list must be a JSON array of strings")

// LoadCheckCommands reads the ordered list of check commands from a JSON
// file such as:
//
//	[
//		"/bin/true",
//		"/usr/lib/nagios/plugins/check_disk -w 10% -c 5%"
//	]
func LoadCheckCommands(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read check list: %w", err)
	}

	var commands []string
	if err := json.Unmarshal(data, &commands); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrChecksFormat, path, err)
	}

	return commands, nil
}

// CheckSource returns a function that loads the check list on every call.
// A missing or malformed file is logged and yields no checks.
func CheckSource(path string, logger *slog.Logger) func() []string {
	return func() []string {
		commands, err := LoadCheckCommands(path)
		if err != nil {
			logger.Error("Failed to load check commands, running none",
				slog.String("file", path),
				slog.Any("err", err))
			return []string{}
		}
		return commands
	}
}

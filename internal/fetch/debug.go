package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/watchharvest/watchharvest/internal/log"
	"github.com/watchharvest/watchharvest/internal/utils"
)

// WriteHTMLToFile stores content in dir under a random name derived from
// name. It is used to keep elements that could not be harvested for later
// inspection; failures are only logged.
func WriteHTMLToFile(ctx context.Context, name, content, dir string) string {
	logger := log.LoggerFromContext(ctx)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		logger.Warn(fmt.Sprintf("failed to create debug directory: %v", err))
		return ""
	}
	r, err := utils.RandomString(name)
	if err != nil {
		logger.Warn(fmt.Sprintf("failed to create debug file name: %v", err))
		return ""
	}
	filename := filepath.Join(dir, fmt.Sprintf("%s.html", r))
	if err := os.WriteFile(filename, []byte(content), 0644); err != nil {
		logger.Warn(fmt.Sprintf("failed to write html to file %s: %v", filename, err))
		return ""
	}
	logger.Debug("wrote html to file", slog.String("file", filename))
	return filename
}

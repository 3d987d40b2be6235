package manifest

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/warptools/scriptorder/pkg/script"
	"github.com/warptools/scriptorder/pkg/scriptorderapi"
)

// Load reads the manifest at path, choosing the format by file extension.
//
// Errors:
//
//   - scriptorder-error-io -- if the file can't be read.
//   - scriptorder-error-manifest-invalid -- if the extension isn't recognized, or the content is invalid.
//   - scriptorder-error-manifest-unparsable -- if the content doesn't parse.
//   - scriptorder-error-manifest-eval -- if a starlark manifest fails while running.
func Load(path string, logger *slog.Logger) ([]script.Script, error) {
	logger = orDiscard(logger)
	kind := kindOf(path)
	if kind == kindUnknown {
		return nil, scriptorderapi.ErrorManifestInvalid(path, "", "unrecognized file extension "+strings.ToLower(filepath.Ext(path)))
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, scriptorderapi.ErrorIO(err, "reading manifest")
	}
	logger.Debug("loading manifest", "path", path, "kind", kind, "bytes", len(body))
	switch kind {
	case kindStarlark:
		return ParseStarlark(path, string(body), logger)
	default:
		return ParseYAML(path, body)
	}
}

type kind string

const (
	kindUnknown  kind = ""
	kindStarlark kind = "starlark"
	kindYAML     kind = "yaml"
)

func kindOf(path string) kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".star", ".sky", ".fx":
		return kindStarlark
	case ".yaml", ".yml", ".json":
		return kindYAML
	default:
		return kindUnknown
	}
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return logger
}

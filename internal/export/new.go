package export

import (
	"github.com/lectern/transcribe-flow/internal/logger"
)

type implExporter struct {
	dir    string
	docx   bool
	logger logger.Logger
}

// New creates an Exporter writing into dir; docx adds a .docx copy of each
// artifact.
func New(dir string, docx bool, log logger.Logger) Exporter {
	return &implExporter{
		dir:    dir,
		docx:   docx,
		logger: log,
	}
}

package CatalogRunner

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/nickyhof/CatalogRunner/backend"
	"github.com/nickyhof/CatalogRunner/catalog"
	"github.com/nickyhof/CatalogRunner/core"
	"github.com/nickyhof/CatalogRunner/report"
	"github.com/nickyhof/CatalogRunner/runner"
)

type Instance struct {
	Archive *report.Archive
}

// Open returns an instance that archives reports in archive. A nil archive
// disables archiving.
func Open(archive *report.Archive) *Instance {
	return &Instance{
		Archive: archive,
	}
}

// Runner returns a runner for the standard catalog on the built-in backends
func (instance *Instance) Runner(config runner.Config, logger *zap.SugaredLogger) (*runner.Runner, error) {
	return runner.New(config, catalog.Standard(), backend.Default(), logger)
}

// Record commits a rendered report of run to the archive under name
func (instance *Instance) Record(identity core.Identity, name string, run *report.Run, doc []byte) (string, error) {
	if instance.Archive == nil {
		return "", report.ErrNotInitialized
	}

	verdict := "pass"
	if !run.Passed() {
		verdict = "fail"
	}
	message := fmt.Sprintf("Catalog run %s: %s", run.ID, verdict)
	return instance.Archive.Commit(name, doc, message, identity)
}

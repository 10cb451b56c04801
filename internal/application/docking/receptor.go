package docking

import (
	"context"
	"os"
	"time"

	"github.com/turtacn/protflow/internal/domain/docking"
	"github.com/turtacn/protflow/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/protflow/pkg/errors"
)

// ReceptorTimeout bounds one receptor conversion.
const ReceptorTimeout = 60 * time.Second

// ReceptorLocker serialises receptor conversion across processes that share
// the structure directory.  Release must be safe to call once.
type ReceptorLocker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// ensureReceptor returns the dockable receptor for structure, converting it
// once with Gasteiger charges when no cached file exists or force is set.
func (e *Executor) ensureReceptor(ctx context.Context, structure string, force bool) (string, error) {
	s := docking.NewStructureFile(structure)
	target := s.ReceptorPath()

	if !force && fileExists(target) {
		e.logger.Debug("using cached receptor", logging.String("path", target))
		return target, nil
	}

	if e.locker != nil {
		release, err := e.locker.Acquire(ctx, target)
		if err != nil {
			e.logger.Warn("receptor lock unavailable, converting without it",
				logging.String("receptor", target), logging.Err(err))
		} else {
			defer release()
			if !force && fileExists(target) {
				return target, nil
			}
		}
	}

	if !e.obabel.Available {
		return "", apperrors.DependencyMissing("OpenBabel (obabel)").WithDetail(e.obabel.Reason)
	}
	cmd := e.obabel.Command(e.receptorTimeout, structure, "-O", target, "--partialcharge", "gasteiger")
	res, err := e.runner.Run(ctx, cmd)
	if err != nil {
		ae := apperrors.Wrap(err, apperrors.ErrCodeReceptorConversion, "failed to convert receptor "+s.ID)
		if res.Stderr != "" {
			ae = ae.WithDetail(res.Stderr)
		}
		return "", ae
	}
	e.logger.Debug("generated receptor", logging.String("path", target))
	return target, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

//Personal.AI order the ending

package advisor

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Open loads the catalog and model named by cfg and wires an Engine. The
// returned close func releases the model session.
func Open(cfg Config, logger *zap.Logger) (*Engine, func(), error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	scorer, err := ScorerByName(cfg.Resolver.Scorer)
	if err != nil {
		return nil, nil, err
	}
	catalog, err := LoadCatalog(cfg.Catalog, logger)
	if err != nil {
		return nil, nil, err
	}
	if catalog.Empty() {
		return nil, nil, eris.Wrapf(ErrCatalogEmpty, "catalog %s", cfg.Catalog.Path)
	}
	predictor, err := NewOnnxPredictor(cfg.Model)
	if err != nil {
		return nil, nil, eris.Wrap(err, "load model")
	}
	engine, err := NewEngine(catalog, predictor, scorer, logger)
	if err != nil {
		_ = predictor.Close()
		return nil, nil, err
	}
	closeFn := func() {
		if err := predictor.Close(); err != nil {
			logger.Warn("close model", zap.Error(err))
		}
	}
	return engine, closeFn, nil
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jengzang/mpawatch-backend-go/internal/classifier"
	"github.com/jengzang/mpawatch-backend-go/internal/config"
	"github.com/jengzang/mpawatch-backend-go/internal/database"
	"github.com/jengzang/mpawatch-backend-go/internal/repository"
	"github.com/jengzang/mpawatch-backend-go/internal/spatial"
	"github.com/jengzang/mpawatch-backend-go/internal/validation"
)

// Resources are the read-only inputs shared by every pipeline run. They are
// loaded once at startup and never mutated afterwards.
type Resources struct {
	Index      *spatial.GeometryIndex
	Classifier *classifier.Classifier
	Validator  *validation.Validator

	postgis *sqlx.DB
}

// LoadResources loads the reference layers and the classifier artifacts.
// Layers and artifacts are read in parallel; the first failure aborts startup.
func LoadResources(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Resources, error) {
	start := time.Now()
	res := &Resources{Validator: validation.New()}

	if cfg.UsesPostGIS() {
		db, err := database.OpenPostGIS(ctx, cfg.Layers.PostgresURL)
		if err != nil {
			return nil, err
		}
		res.postgis = db
	}

	repo := repository.NewLayerRepository(res.postgis, logger)

	locations := []struct {
		name     string
		location string
	}{
		{spatial.LayerOcean, cfg.Layers.Ocean},
		{spatial.LayerMPA, cfg.Layers.MPA},
		{spatial.LayerLand, cfg.Layers.Land},
	}
	layers := make([]*spatial.PolygonLayer, len(locations))

	g, gctx := errgroup.WithContext(ctx)
	for i, l := range locations {
		if l.location == "" {
			continue
		}
		g.Go(func() error {
			layer, err := repo.LoadLayer(gctx, l.name, l.location)
			if err != nil {
				return err
			}
			layers[i] = layer
			return nil
		})
	}
	g.Go(func() error {
		clf, err := classifier.Load(cfg.Model.ScalerPath, cfg.Model.ForestPath)
		if err != nil {
			return fmt.Errorf("failed to load classifier: %w", err)
		}
		res.Classifier = clf
		return nil
	})
	if err := g.Wait(); err != nil {
		res.Close()
		return nil, err
	}

	loaded := make([]*spatial.PolygonLayer, 0, len(layers))
	for _, l := range layers {
		if l != nil {
			loaded = append(loaded, l)
		}
	}
	idx, err := spatial.NewGeometryIndex(loaded...)
	if err != nil {
		res.Close()
		return nil, err
	}
	res.Index = idx

	logger.Info().
		Int("layers", len(loaded)).
		Dur("took", time.Since(start)).
		Msg("resources loaded")

	return res, nil
}

// Close releases the database handle, if any
func (r *Resources) Close() error {
	if r.postgis == nil {
		return nil
	}
	return r.postgis.Close()
}

package config

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/cerberus/pkg/domain/interfaces"
	"github.com/secmon-lab/cerberus/pkg/index/firestore"
	"github.com/secmon-lab/cerberus/pkg/index/memory"
	"github.com/secmon-lab/cerberus/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Index holds CLI flags for the vector index backend. The firestore
// backend shares the repository's project and database settings.
type Index struct {
	backend    string
	collection string
}

// Flags returns CLI flags for index configuration
func (x *Index) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "index-backend",
			Usage:       "Vector index backend type (firestore or memory)",
			Value:       "firestore",
			Sources:     cli.EnvVars("CERBERUS_INDEX_BACKEND"),
			Destination: &x.backend,
		},
		&cli.StringFlag{
			Name:        "index-collection",
			Usage:       "Firestore collection for chunk vectors",
			Value:       "chunks",
			Sources:     cli.EnvVars("CERBERUS_INDEX_COLLECTION"),
			Destination: &x.collection,
		},
	}
}

// Configure initializes a chunk index based on the configured backend.
// The caller is responsible for calling Close() on the returned index.
func (x *Index) Configure(ctx context.Context, repoCfg *Repository) (interfaces.ChunkIndex, error) {
	switch x.backend {
	case "firestore":
		if repoCfg.ProjectID() == "" {
			return nil, goerr.New("firestore-project-id is required when using firestore index")
		}
		index, err := firestore.New(ctx, repoCfg.ProjectID(), repoCfg.DatabaseID(),
			firestore.WithCollection(x.collection),
		)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize firestore index")
		}
		logging.Default().Info("Using Firestore vector index",
			"project_id", repoCfg.ProjectID(),
			"collection", x.collection,
		)
		return index, nil

	case "memory":
		logging.Default().Info("Using in-memory vector index (development mode)")
		return memory.New(), nil

	default:
		return nil, goerr.New("invalid index backend", goerr.V("backend", x.backend))
	}
}

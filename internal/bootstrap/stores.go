package bootstrap

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/contribhub/sync-functions/config"
	"github.com/contribhub/sync-functions/internal/store"
	fsstore "github.com/contribhub/sync-functions/internal/store/firestore"
	"github.com/contribhub/sync-functions/internal/store/gcs"
	"github.com/contribhub/sync-functions/internal/store/memstore"
	"github.com/contribhub/sync-functions/internal/triggers"
)

// Stores bundles the backends selected by STORE_BACKEND.
type Stores struct {
	Docs     store.Documents
	Blobs    store.Blobs
	Verifier triggers.TokenVerifier // nil for the memory backend
	close    func() error
}

func (s *Stores) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

func OpenStores(ctx context.Context, cfg *config.FirebaseConfig) (*Stores, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		log.Warn().Msg("using in-memory document and blob stores; data is lost on exit")
		return &Stores{
			Docs:  memstore.NewDocuments(),
			Blobs: memstore.NewBlobs(),
		}, nil
	case config.BackendFirebase:
		clients, err := InitializeFirebase(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &Stores{
			Docs:     fsstore.New(clients.Firestore),
			Blobs:    gcs.New(clients.Bucket),
			Verifier: clients.Auth,
			close:    clients.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}

package dao

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/haierkeys/vault-link-index/internal/domain"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.uber.org/zap"
)

// Set VAULT_LINK_INDEX_MONGO_URI (e.g. mongodb://localhost:27017) to run against a live server.
func TestMongoLinkStore(t *testing.T) {
	uri := os.Getenv("VAULT_LINK_INDEX_MONGO_URI")
	if uri == "" {
		t.Skip("VAULT_LINK_INDEX_MONGO_URI not set")
	}

	key := domain.CollectionKey{Database: "vault_link_index_test", Collection: fmt.Sprintf("links_%s", uuid.NewString()[:8])}
	store, err := OpenStore(context.Background(), StoreConfig{URI: uri, Collection: key, ConnectTimeout: 5 * time.Second}, zap.NewNop())
	require.NoError(t, err)

	ms := store.(*mongoLinkStore)
	t.Cleanup(func() {
		_ = ms.coll.Drop(context.Background())
		_ = store.Close(context.Background())
	})

	exerciseLinkStore(t, store)
}

func TestBulkWriteFailures(t *testing.T) {
	edges := []*domain.Edge{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	failed, err := bulkWriteFailures(edges, mongo.BulkWriteException{
		WriteErrors: []mongo.BulkWriteError{
			{WriteError: mongo.WriteError{Index: 1, Code: 11000, Message: "duplicate key"}},
			{WriteError: mongo.WriteError{Index: 7, Code: 2, Message: "bad value"}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []domain.EdgeFailure{
		{ID: "b", Reason: "code 11000: duplicate key"},
		{ID: "", Reason: "code 2: bad value"},
	}, failed)

	_, err = bulkWriteFailures(edges, mongo.BulkWriteException{
		WriteConcernError: &mongo.WriteConcernError{Code: 64, Message: "waiting for replication timed out"},
	})
	assert.Error(t, err)

	_, err = bulkWriteFailures(edges, errors.New("connection reset"))
	assert.Error(t, err)
}

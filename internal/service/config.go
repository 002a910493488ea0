// Package service implements the business logic layer
// Package service 实现业务逻辑层
package service

import (
	"context"
	"strings"
	"time"

	"github.com/haierkeys/vault-link-index/internal/dao"
	"github.com/haierkeys/vault-link-index/internal/domain"
	"github.com/haierkeys/vault-link-index/pkg/code"

	"go.uber.org/zap"
)

// DefaultBatchSize is the bulk upsert batch size when none is configured.
const DefaultBatchSize = 500

// DefaultSampleSize bounds the sample issues in a status summary.
const DefaultSampleSize = 10

// StoreSettings names the persisted store a service talks to.
// StoreSettings 存储连接配置
type StoreSettings struct {
	URI            string        // Connection URI // 连接 URI
	Collection     string        // <database>.<collection> // 集合名
	ConnectTimeout time.Duration // Connect timeout // 连接超时
}

// StoreSettingsLoader reads the current store settings, typically from the config file.
type StoreSettingsLoader func() (StoreSettings, error)

// StoreOpener connects to a store; dao.OpenStore in production.
type StoreOpener func(ctx context.Context, cfg dao.StoreConfig, lg *zap.Logger) (domain.LinkStore, error)

// validateStore checks the collection key and URI without touching the network.
func validateStore(uri, collection string) (domain.CollectionKey, error) {
	key, err := domain.ParseCollectionKey(collection)
	if err != nil {
		return key, err
	}
	if strings.TrimSpace(uri) == "" {
		return key, code.ErrorInvalidStoreURI.WithDetails("empty uri")
	}
	if _, err := dao.ResolveStoreKind(uri); err != nil {
		return key, err
	}
	return key, nil
}

// openStore validates settings then connects; failures come back as *code.Code.
func openStore(ctx context.Context, open StoreOpener, s StoreSettings, lg *zap.Logger) (domain.LinkStore, error) {
	key, err := validateStore(s.URI, s.Collection)
	if err != nil {
		return nil, err
	}
	store, err := open(ctx, dao.StoreConfig{URI: s.URI, Collection: key, ConnectTimeout: s.ConnectTimeout}, lg)
	if err != nil {
		return nil, code.ErrorStoreConnect.WithSubject(key.String()).WithDetails(err.Error())
	}
	return store, nil
}

func closeStore(store domain.LinkStore, lg *zap.Logger) {
	if err := store.Close(context.Background()); err != nil {
		lg.Warn("close link store failed", zap.Error(err))
	}
}

// Package dao implements the data access layer
package dao

import (
	"context"
	"strings"
	"time"

	"github.com/haierkeys/vault-link-index/internal/domain"
	"github.com/haierkeys/vault-link-index/pkg/code"

	"go.uber.org/zap"
)

// StoreKind is the backend family serving a connection URI.
type StoreKind int

const (
	StoreUnknown StoreKind = iota
	StoreSQL
	StoreMongo
)

func (k StoreKind) String() string {
	switch k {
	case StoreSQL:
		return "sql"
	case StoreMongo:
		return "mongo"
	}
	return "unknown"
}

// ResolveStoreKind maps a connection URI scheme onto a backend.
// sqlite://, file:, mysql://, postgres:// and postgresql:// use gorm; mongodb:// and mongodb+srv:// use the mongo driver.
func ResolveStoreKind(uri string) (StoreKind, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return StoreUnknown, code.ErrorInvalidStoreURI.WithDetails("empty uri")
	}
	scheme, _, ok := strings.Cut(uri, ":")
	if !ok {
		return StoreUnknown, code.ErrorInvalidStoreURI.WithDetails("missing scheme")
	}
	switch strings.ToLower(scheme) {
	case "mongodb", "mongodb+srv":
		return StoreMongo, nil
	case "sqlite", "file", "mysql", "postgres", "postgresql":
		return StoreSQL, nil
	}
	return StoreUnknown, code.ErrorInvalidStoreURI.WithDetails("unsupported scheme " + scheme)
}

// StoreConfig addresses one edge collection.
type StoreConfig struct {
	URI            string
	Collection     domain.CollectionKey
	ConnectTimeout time.Duration
}

// OpenStore connects to the backend named by cfg.URI and prepares the collection.
// The connect timeout is the only timeout applied; an unreachable store fails the call.
func OpenStore(ctx context.Context, cfg StoreConfig, lg *zap.Logger) (domain.LinkStore, error) {
	kind, err := ResolveStoreKind(cfg.URI)
	if err != nil {
		return nil, err
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}

	switch kind {
	case StoreMongo:
		return OpenMongoLinkStore(ctx, cfg, lg)
	default:
		db, err := NewDBEngine(ctx, cfg.URI, cfg.ConnectTimeout)
		if err != nil {
			return nil, err
		}
		return NewGormLinkStore(ctx, db, cfg.Collection, lg)
	}
}

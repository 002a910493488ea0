// Package domain 定义领域模型和接口
package domain

import (
	"context"
	"time"
)

// GroupField is an edge attribute that can be group-counted.
type GroupField string

const (
	GroupByStatus   GroupField = "status"
	GroupByLinkType GroupField = "link_type"
)

// EdgeFailure is one edge the store refused during an upsert.
type EdgeFailure struct {
	ID     string
	Reason string
}

// UpsertResult reports how a bulk upsert split between new and existing edges.
type UpsertResult struct {
	Inserted int64
	Updated  int64
	Failed   []EdgeFailure
}

// LinkStore 链接边存储接口
type LinkStore interface {
	// UpsertEdges 按 ID 批量插入或更新，first_seen 仅在插入时写入
	// Partial per-edge failures are reported in Failed; err means the whole batch was rejected.
	UpsertEdges(ctx context.Context, edges []*Edge) (UpsertResult, error)

	// DeleteStaleEdges 删除 last_seen 早于 before 的链接边
	DeleteStaleEdges(ctx context.Context, before time.Time) (int64, error)

	// GetMeta 获取扫描元数据，不存在时返回 nil, nil
	GetMeta(ctx context.Context) (*ScanMeta, error)

	// SaveMeta 写入扫描元数据单例
	SaveMeta(ctx context.Context, meta *ScanMeta) error

	// UpdateTargetURI 将指向 oldURI 的链接边改为 newURI 并设置状态
	UpdateTargetURI(ctx context.Context, oldURI, newURI string, status LinkStatus) (int64, error)

	// DistinctTargetURIs 获取以 prefix 开头的去重目标 URI
	DistinctTargetURIs(ctx context.Context, prefix string) ([]string, error)

	// CountBy 按字段分组计数
	CountBy(ctx context.Context, field GroupField) (map[string]int64, error)

	// ListIssues 获取最近出现的非 ok 链接边
	ListIssues(ctx context.Context, limit int) ([]*Edge, error)

	// Close 释放连接
	Close(ctx context.Context) error
}

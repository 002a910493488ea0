package dao

import (
	"context"
	"strings"
	"time"

	"github.com/haierkeys/vault-link-index/internal/domain"
	"github.com/haierkeys/vault-link-index/internal/model"

	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// gormLinkStore implements domain.LinkStore on a SQL table per collection
type gormLinkStore struct {
	db        *gorm.DB
	edgeTable string
	metaTable string
	logger    *zap.Logger
}

// edgeUpdateColumns are overwritten on conflict; first_seen is insert-only.
var edgeUpdateColumns = []string{"kind", "source_uri", "target_uri", "link_type", "status", "line", "note_path", "last_seen"}

// NewGormLinkStore migrates the <database>_<collection> tables and returns the store.
func NewGormLinkStore(ctx context.Context, db *gorm.DB, key domain.CollectionKey, lg *zap.Logger) (domain.LinkStore, error) {
	edgeTable := TableName(key)
	s := &gormLinkStore{
		db:        db,
		edgeTable: edgeTable,
		metaTable: edgeTable + "_meta",
		logger:    lg,
	}
	if err := model.AutoMigrate(db.WithContext(ctx), s.edgeTable, s.metaTable); err != nil {
		return nil, errors.Wrap(err, "auto migrate link tables failed")
	}
	return s, nil
}

// TableName flattens a collection key into a SQL identifier.
func TableName(key domain.CollectionKey) string {
	r := strings.NewReplacer(".", "_", "-", "_", " ", "_")
	return r.Replace(key.Database + "_" + key.Collection)
}

func (s *gormLinkStore) edges(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Table(s.edgeTable)
}

func (s *gormLinkStore) toModel(e *domain.Edge) *model.LinkEdge {
	m := &model.LinkEdge{}
	_ = copier.Copy(m, e)
	m.FirstSeenNs = e.FirstSeen.UnixNano()
	m.LastSeenNs = e.LastSeen.UnixNano()
	return m
}

func (s *gormLinkStore) toDomain(m *model.LinkEdge) *domain.Edge {
	e := &domain.Edge{}
	_ = copier.Copy(e, m)
	e.FirstSeen = time.Unix(0, m.FirstSeenNs).UTC()
	e.LastSeen = time.Unix(0, m.LastSeenNs).UTC()
	return e
}

// UpsertEdges writes the batch in one statement, so a failure rejects the whole batch.
func (s *gormLinkStore) UpsertEdges(ctx context.Context, edges []*domain.Edge) (domain.UpsertResult, error) {
	var res domain.UpsertResult
	if len(edges) == 0 {
		return res, nil
	}

	ids := make([]string, 0, len(edges))
	rows := make([]*model.LinkEdge, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.ID)
		rows = append(rows, s.toModel(e))
	}

	var existing []string
	if err := s.edges(ctx).Where("id IN ?", ids).Pluck("id", &existing).Error; err != nil {
		return res, errors.Wrap(err, "query existing edges failed")
	}

	err := s.edges(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(edgeUpdateColumns),
	}).Create(&rows).Error
	if err != nil {
		return res, errors.Wrap(err, "upsert edges failed")
	}

	res.Updated = int64(len(existing))
	res.Inserted = int64(len(rows)) - res.Updated
	return res, nil
}

func (s *gormLinkStore) DeleteStaleEdges(ctx context.Context, before time.Time) (int64, error) {
	tx := s.edges(ctx).
		Where("kind = ? AND last_seen < ?", domain.EdgeKindLink, before.UnixNano()).
		Delete(&model.LinkEdge{})
	if tx.Error != nil {
		return 0, errors.Wrap(tx.Error, "delete stale edges failed")
	}
	return tx.RowsAffected, nil
}

func (s *gormLinkStore) GetMeta(ctx context.Context) (*domain.ScanMeta, error) {
	var m model.ScanMeta
	err := s.db.WithContext(ctx).Table(s.metaTable).Where("id = ?", model.ScanMetaID).Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "get scan meta failed")
	}

	meta := &domain.ScanMeta{}
	_ = copier.Copy(meta, &m)
	meta.StartedAt = time.Unix(0, m.StartedAtNs).UTC()
	return meta, nil
}

func (s *gormLinkStore) SaveMeta(ctx context.Context, meta *domain.ScanMeta) error {
	m := &model.ScanMeta{}
	_ = copier.Copy(m, meta)
	m.ID = model.ScanMetaID
	m.StartedAtNs = meta.StartedAt.UnixNano()

	err := s.db.WithContext(ctx).Table(s.metaTable).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(m).Error
	return errors.Wrap(err, "save scan meta failed")
}

func (s *gormLinkStore) UpdateTargetURI(ctx context.Context, oldURI, newURI string, status domain.LinkStatus) (int64, error) {
	tx := s.edges(ctx).
		Where("kind = ? AND target_uri = ?", domain.EdgeKindLink, oldURI).
		Updates(map[string]interface{}{"target_uri": newURI, "status": string(status)})
	if tx.Error != nil {
		return 0, errors.Wrap(tx.Error, "update target uri failed")
	}
	return tx.RowsAffected, nil
}

func (s *gormLinkStore) DistinctTargetURIs(ctx context.Context, prefix string) ([]string, error) {
	var uris []string
	err := s.edges(ctx).
		Where("kind = ? AND target_uri LIKE ?", domain.EdgeKindLink, prefix+"%").
		Distinct().
		Order("target_uri").
		Pluck("target_uri", &uris).Error
	if err != nil {
		return nil, errors.Wrap(err, "query distinct target uris failed")
	}
	// LIKE is case-insensitive on some backends
	out := uris[:0]
	for _, u := range uris {
		if strings.HasPrefix(u, prefix) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *gormLinkStore) CountBy(ctx context.Context, field domain.GroupField) (map[string]int64, error) {
	col := string(field)
	if field != domain.GroupByStatus && field != domain.GroupByLinkType {
		return nil, errors.Errorf("unsupported group field %q", col)
	}

	var rows []struct {
		Grp string
		Cnt int64
	}
	err := s.edges(ctx).
		Select(col+" AS grp, COUNT(*) AS cnt").
		Where("kind = ?", domain.EdgeKindLink).
		Group(col).
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "group count edges failed")
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Grp] = r.Cnt
	}
	return counts, nil
}

func (s *gormLinkStore) ListIssues(ctx context.Context, limit int) ([]*domain.Edge, error) {
	var modelList []*model.LinkEdge
	err := s.edges(ctx).
		Where("kind = ? AND status <> ?", domain.EdgeKindLink, string(domain.StatusOK)).
		Order("last_seen DESC").Order("id").
		Limit(limit).
		Find(&modelList).Error
	if err != nil {
		return nil, errors.Wrap(err, "list issues failed")
	}

	results := make([]*domain.Edge, 0, len(modelList))
	for _, m := range modelList {
		results = append(results, s.toDomain(m))
	}
	return results, nil
}

func (s *gormLinkStore) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ensure gormLinkStore implements domain.LinkStore interface
var _ domain.LinkStore = (*gormLinkStore)(nil)

package dao

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/haierkeys/vault-link-index/internal/domain"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"
)

const (
	mongoMetaID   = "scan_meta"
	mongoMetaKind = "meta"
)

// edgeDocument is the stored shape of an edge; times are UnixNano to keep sweep precision
type edgeDocument struct {
	ID        string `bson:"_id"`
	Kind      string `bson:"kind"`
	SourceURI string `bson:"source_uri"`
	TargetURI string `bson:"target_uri"`
	LinkType  string `bson:"link_type"`
	Status    string `bson:"status"`
	Line      int    `bson:"line"`
	NotePath  string `bson:"note_path"`
	FirstSeen int64  `bson:"first_seen"`
	LastSeen  int64  `bson:"last_seen"`
}

// metaDocument shares the edge collection, told apart by kind
type metaDocument struct {
	ID           string           `bson:"_id"`
	Kind         string           `bson:"kind"`
	RunID        string           `bson:"run_id"`
	StartedAt    int64            `bson:"started_at"`
	DurationMs   int64            `bson:"duration_ms"`
	NotesScanned int              `bson:"notes_scanned"`
	EdgeTotal    int              `bson:"edge_total"`
	ByType       map[string]int64 `bson:"by_type"`
	ByStatus     map[string]int64 `bson:"by_status"`
	Errors       []string         `bson:"errors"`
}

// mongoLinkStore implements domain.LinkStore on one mongo collection
type mongoLinkStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	logger *zap.Logger
}

// OpenMongoLinkStore connects, pings the primary within the connect timeout and ensures indexes.
func OpenMongoLinkStore(ctx context.Context, cfg StoreConfig, lg *zap.Logger) (domain.LinkStore, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ConnectTimeout)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, errors.Wrap(err, "connect mongo failed")
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "ping mongo failed")
	}

	s := &mongoLinkStore{
		client: client,
		coll:   client.Database(cfg.Collection.Database).Collection(cfg.Collection.Collection),
		logger: lg,
	}

	_, err = s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "kind", Value: 1}, {Key: "last_seen", Value: 1}}},
		{Keys: bson.D{{Key: "target_uri", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "create mongo indexes failed")
	}
	return s, nil
}

func edgeFilter(extra ...bson.E) bson.D {
	return append(bson.D{{Key: "kind", Value: domain.EdgeKindLink}}, extra...)
}

// UpsertEdges runs one unordered bulk write; rejected documents are reported per edge.
func (s *mongoLinkStore) UpsertEdges(ctx context.Context, edges []*domain.Edge) (domain.UpsertResult, error) {
	var res domain.UpsertResult
	if len(edges) == 0 {
		return res, nil
	}

	models := make([]mongo.WriteModel, 0, len(edges))
	for _, e := range edges {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.D{{Key: "_id", Value: e.ID}}).
			SetUpdate(bson.D{
				{Key: "$set", Value: bson.D{
					{Key: "kind", Value: domain.EdgeKindLink},
					{Key: "source_uri", Value: e.SourceURI},
					{Key: "target_uri", Value: e.TargetURI},
					{Key: "link_type", Value: string(e.LinkType)},
					{Key: "status", Value: string(e.Status)},
					{Key: "line", Value: e.Line},
					{Key: "note_path", Value: e.NotePath},
					{Key: "last_seen", Value: e.LastSeen.UnixNano()},
				}},
				{Key: "$setOnInsert", Value: bson.D{
					{Key: "first_seen", Value: e.FirstSeen.UnixNano()},
				}},
			}).
			SetUpsert(true))
	}

	result, err := s.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if result != nil {
		res.Inserted = result.UpsertedCount
		res.Updated = result.MatchedCount
	}
	if err != nil {
		failed, err := bulkWriteFailures(edges, err)
		if err != nil {
			return res, err
		}
		res.Failed = failed
	}
	return res, nil
}

// bulkWriteFailures maps per-document write errors back to edge IDs.
// Anything other than plain write errors fails the whole batch.
func bulkWriteFailures(edges []*domain.Edge, err error) ([]domain.EdgeFailure, error) {
	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) || bwe.WriteConcernError != nil || len(bwe.WriteErrors) == 0 {
		return nil, errors.Wrap(err, "bulk upsert edges failed")
	}
	failed := make([]domain.EdgeFailure, 0, len(bwe.WriteErrors))
	for _, we := range bwe.WriteErrors {
		id := ""
		if we.Index >= 0 && we.Index < len(edges) {
			id = edges[we.Index].ID
		}
		failed = append(failed, domain.EdgeFailure{ID: id, Reason: fmt.Sprintf("code %d: %s", we.Code, we.Message)})
	}
	return failed, nil
}

func (s *mongoLinkStore) DeleteStaleEdges(ctx context.Context, before time.Time) (int64, error) {
	r, err := s.coll.DeleteMany(ctx, edgeFilter(bson.E{Key: "last_seen", Value: bson.D{{Key: "$lt", Value: before.UnixNano()}}}))
	if err != nil {
		return 0, errors.Wrap(err, "delete stale edges failed")
	}
	return r.DeletedCount, nil
}

func (s *mongoLinkStore) GetMeta(ctx context.Context) (*domain.ScanMeta, error) {
	var doc metaDocument
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: mongoMetaID}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "get scan meta failed")
	}
	return &domain.ScanMeta{
		RunID:        doc.RunID,
		StartedAt:    time.Unix(0, doc.StartedAt).UTC(),
		DurationMs:   doc.DurationMs,
		NotesScanned: doc.NotesScanned,
		EdgeTotal:    doc.EdgeTotal,
		ByType:       doc.ByType,
		ByStatus:     doc.ByStatus,
		Errors:       doc.Errors,
	}, nil
}

func (s *mongoLinkStore) SaveMeta(ctx context.Context, meta *domain.ScanMeta) error {
	doc := metaDocument{
		ID:           mongoMetaID,
		Kind:         mongoMetaKind,
		RunID:        meta.RunID,
		StartedAt:    meta.StartedAt.UnixNano(),
		DurationMs:   meta.DurationMs,
		NotesScanned: meta.NotesScanned,
		EdgeTotal:    meta.EdgeTotal,
		ByType:       meta.ByType,
		ByStatus:     meta.ByStatus,
		Errors:       meta.Errors,
	}
	_, err := s.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: mongoMetaID}}, doc, options.Replace().SetUpsert(true))
	return errors.Wrap(err, "save scan meta failed")
}

func (s *mongoLinkStore) UpdateTargetURI(ctx context.Context, oldURI, newURI string, status domain.LinkStatus) (int64, error) {
	r, err := s.coll.UpdateMany(ctx,
		edgeFilter(bson.E{Key: "target_uri", Value: oldURI}),
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "target_uri", Value: newURI},
			{Key: "status", Value: string(status)},
		}}},
	)
	if err != nil {
		return 0, errors.Wrap(err, "update target uri failed")
	}
	return r.MatchedCount, nil
}

func (s *mongoLinkStore) DistinctTargetURIs(ctx context.Context, prefix string) ([]string, error) {
	filter := edgeFilter(bson.E{Key: "target_uri", Value: bson.Regex{Pattern: "^" + regexp.QuoteMeta(prefix)}})
	var uris []string
	if err := s.coll.Distinct(ctx, "target_uri", filter).Decode(&uris); err != nil {
		return nil, errors.Wrap(err, "query distinct target uris failed")
	}
	return uris, nil
}

func (s *mongoLinkStore) CountBy(ctx context.Context, field domain.GroupField) (map[string]int64, error) {
	if field != domain.GroupByStatus && field != domain.GroupByLinkType {
		return nil, errors.Errorf("unsupported group field %q", string(field))
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: edgeFilter()}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + string(field)},
			{Key: "n", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cur, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errors.Wrap(err, "group count edges failed")
	}

	var rows []struct {
		ID string `bson:"_id"`
		N  int64  `bson:"n"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, errors.Wrap(err, "decode group counts failed")
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.ID] = r.N
	}
	return counts, nil
}

func (s *mongoLinkStore) ListIssues(ctx context.Context, limit int) ([]*domain.Edge, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "last_seen", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit))
	cur, err := s.coll.Find(ctx, edgeFilter(bson.E{Key: "status", Value: bson.D{{Key: "$ne", Value: string(domain.StatusOK)}}}), opts)
	if err != nil {
		return nil, errors.Wrap(err, "list issues failed")
	}

	var docs []edgeDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decode issues failed")
	}

	results := make([]*domain.Edge, 0, len(docs))
	for _, d := range docs {
		results = append(results, &domain.Edge{
			ID:        d.ID,
			Kind:      d.Kind,
			SourceURI: d.SourceURI,
			TargetURI: d.TargetURI,
			LinkType:  domain.LinkType(d.LinkType),
			Status:    domain.LinkStatus(d.Status),
			Line:      d.Line,
			NotePath:  d.NotePath,
			FirstSeen: time.Unix(0, d.FirstSeen).UTC(),
			LastSeen:  time.Unix(0, d.LastSeen).UTC(),
		})
	}
	return results, nil
}

func (s *mongoLinkStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ensure mongoLinkStore implements domain.LinkStore interface
var _ domain.LinkStore = (*mongoLinkStore)(nil)

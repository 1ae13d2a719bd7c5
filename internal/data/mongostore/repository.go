package mongostore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	domainpages "github.com/Malamih/Rara-studio-api/internal/domain/pages"
)

// CollectionName is the collection holding page documents.
const CollectionName = "pages"

type pageDocument struct {
	Name      string    `bson:"name"`
	Sections  bson.Raw  `bson:"sections"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// Repository persists page documents in a MongoDB collection.
type Repository struct {
	client *mongo.Client
	coll   *mongo.Collection
	logger *logrus.Logger
	now    func() time.Time
}

// NewRepository constructs a MongoDB-backed repository.
func NewRepository(client *mongo.Client, db *mongo.Database, logger *logrus.Logger) (*Repository, error) {
	if client == nil || db == nil {
		return nil, eris.New("mongo client and database are required")
	}

	return &Repository{
		client: client,
		coll:   db.Collection(CollectionName),
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

var _ domainpages.Repository = (*Repository)(nil)

// EnsureIndexes creates the unique index on page name.
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	model := mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("idx_pages_name"),
	}
	if _, err := r.coll.Indexes().CreateOne(ctx, model); err != nil {
		r.logError(nil, err, "creating pages index")
		return classify(err, "creating pages name index")
	}
	return nil
}

// Ping verifies MongoDB is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	if err := Ping(ctx, r.client); err != nil {
		r.logError(nil, err, "pinging mongodb")
		return domainpages.Unavailable(err, "pinging mongodb page store")
	}
	return nil
}

// FindByName returns the page with the given name or nil when not found.
func (r *Repository) FindByName(ctx context.Context, name string) (*domainpages.Page, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, eris.New("page name is required")
	}

	var doc pageDocument
	err := r.coll.FindOne(ctx, bson.D{{Key: "name", Value: trimmed}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		r.logError(logrus.Fields{"page": trimmed}, err, "fetching page by name")
		return nil, classify(err, "fetching page by name: %s", trimmed)
	}

	sections, err := decodeSections(doc.Sections)
	if err != nil {
		return nil, eris.Wrapf(err, "decoding sections of page %s", trimmed)
	}

	return &domainpages.Page{
		Name:      doc.Name,
		Sections:  sections,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

// Create inserts a new page document.
func (r *Repository) Create(ctx context.Context, name string, sections any) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return eris.New("page name is required")
	}

	encoded, err := toBSON(sections)
	if err != nil {
		return err
	}

	now := r.now()
	doc := bson.D{
		{Key: "name", Value: trimmed},
		{Key: "sections", Value: encoded},
		{Key: "createdAt", Value: now},
		{Key: "updatedAt", Value: now},
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			dupErr := eris.Errorf("page with name %s already exists", trimmed)
			r.logError(logrus.Fields{"page": trimmed}, dupErr, "creating page with duplicate name")
			return dupErr
		}
		r.logError(logrus.Fields{"page": trimmed}, err, "creating page")
		return classify(err, "creating page: %s", trimmed)
	}

	return nil
}

// ReplaceSections overwrites the sections of an existing page.
func (r *Repository) ReplaceSections(ctx context.Context, name string, sections any) error {
	encoded, err := toBSON(sections)
	if err != nil {
		return err
	}

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "sections", Value: encoded},
		{Key: "updatedAt", Value: r.now()},
	}}}
	result, err := r.coll.UpdateOne(ctx, bson.D{{Key: "name", Value: name}}, update)
	if err != nil {
		r.logError(logrus.Fields{"page": name}, err, "replacing page sections")
		return classify(err, "replacing sections of page: %s", name)
	}
	if result.MatchedCount == 0 {
		return eris.Wrapf(domainpages.ErrNotFound, "page %q not found", name)
	}

	return nil
}

// SetPath writes value at sections.<path>. Documents whose value at the path
// already equals the new value are not matched, so no write happens and
// updatedAt is left alone. Embedded documents are written in the key order
// already stored at the path, since MongoDB compares them order-sensitively.
func (r *Repository) SetPath(ctx context.Context, name string, path []string, value any) (int64, error) {
	field, err := fieldPath(path)
	if err != nil {
		return 0, err
	}

	encoded, err := toBSONValue(value)
	if err != nil {
		return 0, err
	}

	if doc, ok := encoded.(bson.D); ok {
		current, found, err := r.currentDocument(ctx, name, path)
		if err != nil {
			return 0, err
		}
		if found {
			encoded = alignKeys(doc, current)
		}
	}

	filter := bson.D{
		{Key: "name", Value: name},
		{Key: field, Value: bson.D{{Key: "$ne", Value: encoded}}},
	}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: field, Value: encoded},
		{Key: "updatedAt", Value: r.now()},
	}}}

	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		r.logError(logrus.Fields{"page": name, "path": field}, err, "updating page path")
		return 0, classify(err, "updating %s of page: %s", field, name)
	}

	return writeOutcome(name, result, func() (int64, error) {
		count, err := r.coll.CountDocuments(ctx, bson.D{{Key: "name", Value: name}})
		if err != nil {
			return 0, classify(err, "checking page existence: %s", name)
		}
		return count, nil
	})
}

// currentDocument reads the embedded document stored at sections.<path>.
// found is false when the page has no document at that path.
func (r *Repository) currentDocument(ctx context.Context, name string, path []string) (bson.D, bool, error) {
	field, err := fieldPath(path)
	if err != nil {
		return nil, false, err
	}

	var raw bson.Raw
	opts := options.FindOne().SetProjection(bson.D{{Key: field, Value: 1}})
	err = r.coll.FindOne(ctx, bson.D{{Key: "name", Value: name}}, opts).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, nil
		}
		r.logError(logrus.Fields{"page": name, "path": field}, err, "reading page path")
		return nil, false, classify(err, "reading %s of page: %s", field, name)
	}

	return embeddedAt(raw, path)
}

// writeOutcome interprets the result of a $ne-guarded update. An unmatched
// update means either the value is unchanged or the page does not exist;
// count resolves which.
func writeOutcome(name string, result *mongo.UpdateResult, count func() (int64, error)) (int64, error) {
	if result != nil && result.MatchedCount > 0 {
		return result.ModifiedCount, nil
	}

	existing, err := count()
	if err != nil {
		return 0, err
	}
	if existing == 0 {
		return 0, eris.Wrapf(domainpages.ErrNotFound, "page %q not found", name)
	}

	return 0, nil
}

func (r *Repository) logError(fields logrus.Fields, err error, message string) {
	if r.logger == nil || err == nil {
		return
	}

	entry := r.logger.WithField("error", err.Error()).WithField("component", "mongo")
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}

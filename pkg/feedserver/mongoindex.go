package feedserver

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/packraft/packraft/pkg/errors"
	"github.com/packraft/packraft/pkg/feed"
)

// MongoIndex keeps package metadata in a MongoDB collection and archive
// bytes in a blob directory, for feeds too large for a directory rescan.
//
// Documents are one per package version, keyed by lowercase id plus
// version. Archives live at `<blobDir>/<id>.<version>.raft`.
type MongoIndex struct {
	packages *mongo.Collection
	blobDir  string
}

var _ Index = (*MongoIndex)(nil)

// packageDoc is the stored document shape.
type packageDoc struct {
	Key            string               `bson:"key"` // lowercase id
	ID             string               `bson:"id"`
	Version        string               `bson:"version"`
	Summary        string               `bson:"summary,omitempty"`
	Description    string               `bson:"description,omitempty"`
	Authors        []string             `bson:"authors,omitempty"`
	Tags           []string             `bson:"tags,omitempty"`
	LicenseURL     string               `bson:"license_url,omitempty"`
	ProjectURL     string               `bson:"project_url,omitempty"`
	Published      primitive.DateTime   `bson:"published,omitempty"`
	IsListed       bool                 `bson:"is_listed"`
	IsLatest       bool                 `bson:"is_latest,omitempty"`
	DependencySets []feed.DependencySet `bson:"dependency_sets,omitempty"`
}

// NewMongoIndex creates an index over the given collection and blob
// directory.
func NewMongoIndex(packages *mongo.Collection, blobDir string) *MongoIndex {
	return &MongoIndex{packages: packages, blobDir: blobDir}
}

// Ping round-trips the database connection.
func (x *MongoIndex) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := x.packages.Database().Client().Ping(ctx, nil); err != nil {
		return errors.Wrap(errors.ErrCodeServer, err, "mongo ping")
	}
	return nil
}

// Versions returns every stored version of id.
func (x *MongoIndex) Versions(ctx context.Context, id string) ([]feed.Package, error) {
	cur, err := x.packages.Find(ctx, bson.M{"key": lower(id)})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeServer, err, "query versions of %s", id)
	}
	return x.collect(ctx, cur)
}

// Get returns one exact record, or nil.
func (x *MongoIndex) Get(ctx context.Context, id, version string) (*feed.Package, error) {
	var doc packageDoc
	err := x.packages.FindOne(ctx, bson.M{"key": lower(id), "version": version}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeServer, err, "query %s %s", id, version)
	}
	pkg := doc.toPackage()
	return &pkg, nil
}

// Search pages through regex matches on id and summary.
func (x *MongoIndex) Search(ctx context.Context, q string, prerelease bool, skip, take int) (int, []feed.Package, error) {
	filter := bson.M{"is_listed": true}
	if q != "" {
		quoted := regexp.QuoteMeta(q)
		filter["$or"] = bson.A{
			bson.M{"key": bson.M{"$regex": quoted, "$options": "i"}},
			bson.M{"summary": bson.M{"$regex": quoted, "$options": "i"}},
			bson.M{"tags": bson.M{"$regex": quoted, "$options": "i"}},
		}
	}
	if !prerelease {
		filter["version"] = bson.M{"$not": bson.M{"$regex": "-"}}
	}

	total, err := x.packages.CountDocuments(ctx, filter)
	if err != nil {
		return 0, nil, errors.Wrap(errors.ErrCodeServer, err, "count search matches")
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "key", Value: 1}, {Key: "version", Value: 1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(take))
	cur, err := x.packages.Find(ctx, filter, opts)
	if err != nil {
		return 0, nil, errors.Wrap(errors.ErrCodeServer, err, "search %q", q)
	}
	items, err := x.collect(ctx, cur)
	if err != nil {
		return 0, nil, err
	}
	return int(total), items, nil
}

// Content opens the blob for one package.
func (x *MongoIndex) Content(ctx context.Context, id, version string) (io.ReadCloser, error) {
	pkg, err := x.Get(ctx, id, version)
	if err != nil {
		return nil, err
	}
	if pkg == nil {
		return nil, errors.New(errors.ErrCodePackageNotFound, "no archive for %s %s", id, version)
	}
	path := filepath.Join(x.blobDir, pkg.ID+"."+pkg.Version+feed.ArchiveExt)
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeArchive, err, "open blob for %s %s", id, version)
	}
	return f, nil
}

// Put upserts one package record. Publishing tooling calls this after
// dropping the archive into the blob directory.
func (x *MongoIndex) Put(ctx context.Context, pkg feed.Package) error {
	doc := docFromPackage(pkg)
	filter := bson.M{"key": doc.Key, "version": doc.Version}
	_, err := x.packages.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeServer, err, "store %s %s", pkg.ID, pkg.Version)
	}
	return nil
}

func (x *MongoIndex) collect(ctx context.Context, cur *mongo.Cursor) ([]feed.Package, error) {
	defer cur.Close(ctx)
	var out []feed.Package
	for cur.Next(ctx) {
		var doc packageDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeServer, err, "decode package document")
		}
		out = append(out, doc.toPackage())
	}
	if err := cur.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeServer, err, "iterate package documents")
	}
	return out, nil
}

func (d packageDoc) toPackage() feed.Package {
	return feed.Package{
		ID:             d.ID,
		Version:        d.Version,
		Summary:        d.Summary,
		Description:    d.Description,
		Authors:        d.Authors,
		Tags:           d.Tags,
		LicenseURL:     d.LicenseURL,
		ProjectURL:     d.ProjectURL,
		Published:      d.Published.Time(),
		IsListed:       d.IsListed,
		IsLatest:       d.IsLatest,
		DependencySets: d.DependencySets,
	}
}

func docFromPackage(p feed.Package) packageDoc {
	return packageDoc{
		Key:            lower(p.ID),
		ID:             p.ID,
		Version:        p.Version,
		Summary:        p.Summary,
		Description:    p.Description,
		Authors:        p.Authors,
		Tags:           p.Tags,
		LicenseURL:     p.LicenseURL,
		ProjectURL:     p.ProjectURL,
		Published:      primitive.NewDateTimeFromTime(p.Published),
		IsListed:       p.IsListed,
		IsLatest:       p.IsLatest,
		DependencySets: p.DependencySets,
	}
}

func lower(s string) string { return strings.ToLower(s) }

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RishiKendai/clonescope/internal/models"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	repositoriesCollection = "repositories"
	filesCollection        = "files"
	comparisonsCollection  = "comparisons"
	pairsCollection        = "pairs"
	groupsCollection       = "groups"
)

// MongoStore is the MongoDB backed Store. Multi-document writes run in a
// transaction, so the deployment must be a replica set.
type MongoStore struct {
	mongoRepo *MongoRepository
}

func NewMongoStore(mongoRepo *MongoRepository) *MongoStore {
	return &MongoStore{
		mongoRepo: mongoRepo,
	}
}

// EnsureIndexes creates the identity indexes that back deduplication.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		repositoriesCollection: {
			{Keys: bson.D{{Key: "sha", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		filesCollection: {
			{Keys: bson.D{{Key: "repositorySha", Value: 1}, {Key: "sha", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		comparisonsCollection: {
			{Keys: bson.D{{Key: "sha", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		pairsCollection: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "comparisonSha", Value: 1}}},
		},
		groupsCollection: {
			{Keys: bson.D{{Key: "sha", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}

	for collection, specs := range indexes {
		for _, model := range specs {
			if err := s.mongoRepo.EnsureIndex(ctx, collection, model); err != nil {
				return fmt.Errorf("failed to create index on %s: %w", collection, err)
			}
		}
	}
	log.Info().Msg("MongoDB indexes ensured")
	return nil
}

func (s *MongoStore) UpsertRepository(ctx context.Context, repo *models.Repository) (*models.Repository, error) {
	doc := *repo
	if doc.ComparisonShas == nil {
		doc.ComparisonShas = []string{}
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	filter := bson.M{"sha": repo.Sha}
	update := bson.M{"$setOnInsert": doc}
	if _, err := s.mongoRepo.UpdateOne(ctx, repositoriesCollection, filter, update, options.Update().SetUpsert(true)); err != nil {
		return nil, fmt.Errorf("failed to upsert repository: %w", err)
	}

	return s.GetRepository(ctx, repo.Sha)
}

func (s *MongoStore) GetRepository(ctx context.Context, sha string) (*models.Repository, error) {
	var repo models.Repository
	if err := findOne(ctx, s.mongoRepo, repositoriesCollection, bson.M{"sha": sha}, &repo); err != nil {
		return nil, fmt.Errorf("failed to find repository: %w", err)
	}
	return &repo, nil
}

func (s *MongoStore) ListRepositories(ctx context.Context, shas []string) ([]*models.Repository, error) {
	var repos []*models.Repository
	if err := findMany(ctx, s.mongoRepo, repositoriesCollection, bson.M{"sha": bson.M{"$in": uniqueStrings(shas)}}, &repos); err != nil {
		return nil, fmt.Errorf("failed to find repositories: %w", err)
	}
	return orderBy(repos, uniqueStrings(shas), func(r *models.Repository) string { return r.Sha }), nil
}

func (s *MongoStore) GetComparison(ctx context.Context, sha string) (*models.Comparison, error) {
	var comparison models.Comparison
	if err := findOne(ctx, s.mongoRepo, comparisonsCollection, bson.M{"sha": sha}, &comparison); err != nil {
		return nil, fmt.Errorf("failed to find comparison: %w", err)
	}
	return &comparison, nil
}

func (s *MongoStore) ListComparisons(ctx context.Context, shas []string) ([]*models.Comparison, error) {
	var comparisons []*models.Comparison
	if err := findMany(ctx, s.mongoRepo, comparisonsCollection, bson.M{"sha": bson.M{"$in": uniqueStrings(shas)}}, &comparisons); err != nil {
		return nil, fmt.Errorf("failed to find comparisons: %w", err)
	}
	return orderBy(comparisons, uniqueStrings(shas), func(c *models.Comparison) string { return c.Sha }), nil
}

func (s *MongoStore) AllComparisons(ctx context.Context) ([]*models.Comparison, error) {
	var comparisons []*models.Comparison
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	if err := findMany(ctx, s.mongoRepo, comparisonsCollection, bson.M{}, &comparisons, opts); err != nil {
		return nil, fmt.Errorf("failed to find comparisons: %w", err)
	}
	return comparisons, nil
}

func (s *MongoStore) CreateComparison(ctx context.Context, comparison *models.Comparison, files []*models.File, pairs []*models.Pair) error {
	err := s.mongoRepo.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.mongoRepo.InsertOne(ctx, comparisonsCollection, comparison); err != nil {
			return err
		}
		return s.writeMembers(ctx, comparison, files, pairs)
	})
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create comparison: %w", err)
	}
	return nil
}

func (s *MongoStore) ReplaceComparison(ctx context.Context, comparison *models.Comparison, files []*models.File, pairs []*models.Pair) error {
	err := s.mongoRepo.WithTransaction(ctx, func(ctx context.Context) error {
		filter := bson.M{"sha": comparison.Sha}
		if err := s.mongoRepo.ReplaceOne(ctx, comparisonsCollection, filter, comparison, options.Replace().SetUpsert(true)); err != nil {
			return err
		}
		if err := s.mongoRepo.DeleteMany(ctx, pairsCollection, bson.M{"comparisonSha": comparison.Sha}); err != nil {
			return err
		}
		return s.writeMembers(ctx, comparison, files, pairs)
	})
	if err != nil {
		return fmt.Errorf("failed to replace comparison: %w", err)
	}
	return nil
}

// writeMembers links the repositories, creates missing files and inserts the
// pairs of a comparison. It runs inside the caller's transaction.
func (s *MongoStore) writeMembers(ctx context.Context, comparison *models.Comparison, files []*models.File, pairs []*models.Pair) error {
	link := bson.M{"$addToSet": bson.M{"comparisonShas": comparison.Sha}}
	if _, err := s.mongoRepo.UpdateMany(ctx, repositoriesCollection, bson.M{"sha": bson.M{"$in": comparison.RepositoryShas}}, link); err != nil {
		return err
	}

	for _, f := range files {
		filter := bson.M{"repositorySha": f.RepositorySha, "sha": f.Sha}
		if _, err := s.mongoRepo.UpdateOne(ctx, filesCollection, filter, bson.M{"$setOnInsert": f}, options.Update().SetUpsert(true)); err != nil {
			return err
		}
	}

	docs := make([]interface{}, 0, len(pairs))
	for _, p := range pairs {
		docs = append(docs, p)
	}
	return s.mongoRepo.InsertMany(ctx, pairsCollection, docs)
}

func (s *MongoStore) GetPair(ctx context.Context, id string) (*models.Pair, error) {
	var pair models.Pair
	if err := findOne(ctx, s.mongoRepo, pairsCollection, bson.M{"id": id}, &pair); err != nil {
		return nil, fmt.Errorf("failed to find pair: %w", err)
	}
	return &pair, nil
}

func (s *MongoStore) ListPairs(ctx context.Context, comparisonShas []string) ([]*models.Pair, error) {
	var pairs []*models.Pair
	filter := bson.M{"comparisonSha": bson.M{"$in": uniqueStrings(comparisonShas)}}
	if err := findMany(ctx, s.mongoRepo, pairsCollection, filter, &pairs); err != nil {
		return nil, fmt.Errorf("failed to find pairs: %w", err)
	}
	return pairs, nil
}

func (s *MongoStore) AllPairs(ctx context.Context) ([]*models.Pair, error) {
	var pairs []*models.Pair
	if err := findMany(ctx, s.mongoRepo, pairsCollection, bson.M{}, &pairs); err != nil {
		return nil, fmt.Errorf("failed to find pairs: %w", err)
	}
	return pairs, nil
}

func (s *MongoStore) GetFile(ctx context.Context, repositorySha, sha string) (*models.File, error) {
	var file models.File
	if err := findOne(ctx, s.mongoRepo, filesCollection, bson.M{"repositorySha": repositorySha, "sha": sha}, &file); err != nil {
		return nil, fmt.Errorf("failed to find file: %w", err)
	}
	return &file, nil
}

func (s *MongoStore) ListFiles(ctx context.Context, repositoryShas []string) ([]*models.File, error) {
	var files []*models.File
	filter := bson.M{"repositorySha": bson.M{"$in": uniqueStrings(repositoryShas)}}
	opts := options.Find().SetSort(bson.D{{Key: "repositorySha", Value: 1}, {Key: "filepath", Value: 1}})
	if err := findMany(ctx, s.mongoRepo, filesCollection, filter, &files, opts); err != nil {
		return nil, fmt.Errorf("failed to find files: %w", err)
	}
	return files, nil
}

func (s *MongoStore) CreateGroup(ctx context.Context, group *models.Group) error {
	doc := *group
	if doc.ComparisonShas == nil {
		doc.ComparisonShas = []string{}
	}
	err := s.mongoRepo.InsertOne(ctx, groupsCollection, doc)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}
	return nil
}

func (s *MongoStore) GetGroup(ctx context.Context, sha string) (*models.Group, error) {
	var group models.Group
	if err := findOne(ctx, s.mongoRepo, groupsCollection, bson.M{"sha": sha}, &group); err != nil {
		return nil, fmt.Errorf("failed to find group: %w", err)
	}
	return &group, nil
}

func (s *MongoStore) ListGroups(ctx context.Context) ([]*models.Group, error) {
	var groups []*models.Group
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if err := findMany(ctx, s.mongoRepo, groupsCollection, bson.M{}, &groups, opts); err != nil {
		return nil, fmt.Errorf("failed to find groups: %w", err)
	}
	return groups, nil
}

func (s *MongoStore) UpdateGroupMembers(ctx context.Context, sha string, repositoryShas []string, numberOfRepos int) error {
	update := bson.M{
		"$addToSet": bson.M{"repositoryShas": bson.M{"$each": repositoryShas}},
		"$set":      bson.M{"numberOfRepos": numberOfRepos, "updatedAt": time.Now()},
	}
	return s.updateGroup(ctx, sha, update)
}

func (s *MongoStore) LinkComparison(ctx context.Context, groupSha, comparisonSha string) error {
	update := bson.M{
		"$addToSet": bson.M{"comparisonShas": comparisonSha},
		"$set":      bson.M{"updatedAt": time.Now()},
	}
	return s.updateGroup(ctx, groupSha, update)
}

func (s *MongoStore) UpdateGroupProgress(ctx context.Context, sha string, progress models.Progress) error {
	update := bson.M{"$set": bson.M{"progress": progress, "updatedAt": time.Now()}}
	return s.updateGroup(ctx, sha, update)
}

func (s *MongoStore) updateGroup(ctx context.Context, sha string, update bson.M) error {
	result, err := s.mongoRepo.UpdateOne(ctx, groupsCollection, bson.M{"sha": sha}, update)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func findOne(ctx context.Context, repo *MongoRepository, collection string, filter interface{}, out interface{}) error {
	err := repo.FindOne(ctx, collection, filter).Decode(out)
	if isNoDocuments(err) {
		return ErrNotFound
	}
	return err
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

func findMany[T any](ctx context.Context, repo *MongoRepository, collection string, filter interface{}, out *[]T, opts ...*options.FindOptions) error {
	cursor, err := repo.FindMany(ctx, collection, filter, opts...)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, out); err != nil {
		return err
	}
	if *out == nil {
		*out = []T{}
	}
	return nil
}

// orderBy returns items in the order of keys, dropping keys that matched nothing
func orderBy[T any](items []T, keys []string, key func(T) string) []T {
	byKey := make(map[string]T, len(items))
	for _, item := range items {
		byKey[key(item)] = item
	}
	out := make([]T, 0, len(items))
	for _, k := range keys {
		if item, ok := byKey[k]; ok {
			out = append(out, item)
		}
	}
	return out
}

package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const usersCollection = "users"

type userToken struct {
	Username    string `bson:"username"`
	GithubToken string `bson:"githubToken"`
}

// UsersRepository reads the per-user GitHub tokens stored by the login flow
type UsersRepository struct {
	mongoRepo *MongoRepository
}

func NewUsersRepository(mongoRepo *MongoRepository) *UsersRepository {
	return &UsersRepository{
		mongoRepo: mongoRepo,
	}
}

// GithubToken returns the stored token of the user, or ErrNotFound when the
// user does not exist or never linked an account.
func (r *UsersRepository) GithubToken(ctx context.Context, username string) (string, error) {
	opts := options.FindOne().SetProjection(bson.M{"username": 1, "githubToken": 1})

	var user userToken
	if err := r.mongoRepo.FindOne(ctx, usersCollection, bson.M{"username": username}, opts).Decode(&user); err != nil {
		if isNoDocuments(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to find user: %w", err)
	}
	if user.GithubToken == "" {
		return "", ErrNotFound
	}
	return user.GithubToken, nil
}

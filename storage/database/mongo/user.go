package mongodb

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hsuniversity/classroom/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) users() *mongo.Collection {
	return repo.db.collection(Users)
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	filter := bson.M{"email": email}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, usr := range excludedUsers {
			ids = append(ids, usr.ID)
		}
		filter["_id"] = bson.M{"$nin": ids}
	}
	n, err := repo.users().CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return errors.Wrap(err, "counting users by email")
	}
	if n > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if _, err := repo.users().InsertOne(ctx, usr); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) findOne(ctx context.Context, filter interface{}) (user.User, error) {
	var usr user.User
	if err := repo.users().FindOne(ctx, filter).Decode(&usr); err != nil {
		if err == mongo.ErrNoDocuments {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "finding user")
	}
	return usr, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	return repo.findOne(ctx, bson.M{"_id": id})
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.findOne(ctx, bson.M{"email": email})
}

func (repo *userRepository) GetUserByGoogleSub(ctx context.Context, sub string) (user.User, error) {
	if sub == "" {
		return user.User{}, user.ErrNotFound
	}
	return repo.findOne(ctx, bson.M{"google_sub": sub})
}

func (repo *userRepository) GetUsersByIDs(ctx context.Context, ids []string) ([]user.User, error) {
	users := make([]user.User, 0, len(ids))
	if len(ids) == 0 {
		return users, nil
	}
	if err := findAll(ctx, repo.users(), bson.M{"_id": bson.M{"$in": ids}}, &users); err != nil {
		return nil, errors.Wrap(err, "finding users by ids")
	}
	return users, nil
}

func (repo *userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter) ([]user.User, error) {
	query := bson.M{}
	if filter.Role != "" {
		query["role"] = filter.Role
	}
	users := make([]user.User, 0)
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	if err := findAll(ctx, repo.users(), query, &users, opts); err != nil {
		return nil, errors.Wrap(err, "filtering users")
	}
	return users, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, id string, ch user.Changes) (user.User, error) {
	set := bson.M{"updated_at": ch.UpdatedAt}
	if ch.Name != nil {
		set["name"] = *ch.Name
	}
	if ch.Email != nil {
		set["email"] = *ch.Email
	}
	if ch.Photo != nil {
		set["photo"] = *ch.Photo
	}
	if ch.Role != nil {
		set["role"] = *ch.Role
	}
	if ch.Active != nil {
		set["active"] = *ch.Active
	}
	if ch.GoogleSub != nil {
		set["google_sub"] = *ch.GoogleSub
	}
	if ch.PasswordHash != nil {
		set["password_hash"] = ch.PasswordHash
	}

	var usr user.User
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := repo.users().FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&usr)
	if err != nil {
		switch {
		case err == mongo.ErrNoDocuments:
			return user.User{}, user.ErrNotFound
		case mongo.IsDuplicateKeyError(err):
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	return usr, nil
}

func (repo *userRepository) SetLastLogin(ctx context.Context, id string) error {
	res, err := repo.users().UpdateByID(ctx, id, bson.M{"$currentDate": bson.M{"last_login": true}})
	if err != nil {
		return errors.Wrap(err, "setting last login")
	}
	if res.MatchedCount == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (repo *userRepository) DeleteUser(ctx context.Context, id string) error {
	return repo.db.withTransaction(ctx, func(ctx context.Context) error {
		res, err := repo.users().DeleteOne(ctx, bson.M{"_id": id})
		if err != nil {
			return errors.Wrap(err, "deleting user")
		}
		if res.DeletedCount == 0 {
			return user.ErrNotFound
		}

		_, err = repo.db.collection(Classes).UpdateMany(ctx,
			bson.M{"students": id},
			bson.M{
				"$pull": bson.M{"students": id},
				"$inc":  bson.M{"students_count": -1},
			},
		)
		if err != nil {
			return errors.Wrap(err, "unenrolling deleted user")
		}
		if _, err = repo.db.collection(ClassStudents).DeleteMany(ctx, bson.M{"student_id": id}); err != nil {
			return errors.Wrap(err, "deleting roster entries of deleted user")
		}
		return nil
	})
}

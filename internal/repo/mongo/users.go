package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/fittrack/internal/domain/user"
	"github.com/geocoder89/fittrack/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type userDoc struct {
	ID           string    `bson:"_id"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	FirstName    string    `bson:"first_name,omitempty"`
	LastName     string    `bson:"last_name,omitempty"`
	MobileNo     string    `bson:"mobile_no,omitempty"`
	IsAdmin      bool      `bson:"is_admin"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func toUserDoc(u user.User) userDoc {
	return userDoc{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		MobileNo:     u.MobileNo,
		IsAdmin:      u.IsAdmin,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (d userDoc) toUser() user.User {
	return user.User{
		ID:           d.ID,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		MobileNo:     d.MobileNo,
		IsAdmin:      d.IsAdmin,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

type UsersRepo struct {
	col     *mongo.Collection
	metrics *observability.Prom
}

func NewUsersRepo(db *mongo.Database, metrics *observability.Prom) *UsersRepo {
	return &UsersRepo{col: db.Collection(usersCollection), metrics: metrics}
}

// Create depends on the unique email index from EnsureIndexes.
func (r *UsersRepo) Create(ctx context.Context, in user.NewUser) (user.User, error) {
	u := user.NewFromRegistration(in)

	err := r.metrics.ObserveDB("users.create", func() error {
		_, err := r.col.InsertOne(ctx, toUserDoc(u))
		return err
	})

	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, fmt.Errorf("mongo insert user: %w", err)
	}
	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return r.findOne(ctx, "users.get_by_email", bson.M{"email": user.NormalizeEmail(email)})
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	return r.findOne(ctx, "users.get_by_id", bson.M{"_id": id})
}

func (r *UsersRepo) List(ctx context.Context) ([]user.User, error) {
	out := make([]user.User, 0)

	err := r.metrics.ObserveDB("users.list", func() error {
		opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
		cur, err := r.col.Find(ctx, bson.M{}, opts)
		if err != nil {
			return err
		}
		defer cur.Close(ctx)

		var docs []userDoc
		if err := cur.All(ctx, &docs); err != nil {
			return err
		}
		for _, d := range docs {
			out = append(out, d.toUser())
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("mongo list users: %w", err)
	}
	return out, nil
}

func (r *UsersRepo) Ping(ctx context.Context) error {
	return r.col.Database().Client().Ping(ctx, readpref.Primary())
}

func (r *UsersRepo) findOne(ctx context.Context, op string, filter bson.M) (user.User, error) {
	var d userDoc

	err := r.metrics.ObserveDB(op, func() error {
		return r.col.FindOne(ctx, filter).Decode(&d)
	})

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return d.toUser(), nil
}

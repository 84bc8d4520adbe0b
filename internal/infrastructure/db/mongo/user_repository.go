package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/createsphere/marketplace/internal/core/domain"
)

const usersCollection = "users"

// UserRepository stores marketplace accounts and serves role lookups for
// chat eligibility.
type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(usersCollection)}
}

type mongoCreatorProfile struct {
	DisplayName string `bson:"display_name"`
	Bio         string `bson:"bio,omitempty"`
	AvatarURL   string `bson:"avatar_url,omitempty"`
}

type mongoUser struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty"`
	Username       string               `bson:"username"`
	Email          string               `bson:"email"`
	PasswordHash   string               `bson:"password_hash"`
	Role           string               `bson:"role"`
	IsVerified     bool                 `bson:"is_verified"`
	IsBlocked      bool                 `bson:"is_blocked"`
	CreatorProfile *mongoCreatorProfile `bson:"creator_profile,omitempty"`
	CreatedAt      int64                `bson:"created_at"`
	UpdatedAt      int64                `bson:"updated_at"`
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toMongoUser(user)
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}
	return toDomainUser(doc), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

// RolesByIDs fetches the role of every user in ids with a single $in query.
// Ids that are not ObjectIDs cannot match a record and are skipped.
func (r *UserRepository) RolesByIDs(ctx context.Context, ids []string) ([]string, error) {
	oids := objectIDSet(ids)
	if len(oids) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetProjection(bson.M{"role": 1})
	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": oids}}, opts)
	if err != nil {
		return nil, fmt.Errorf("find roles: %w", err)
	}
	defer cur.Close(ctx)

	var docs []struct {
		Role string `bson:"role"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode roles: %w", err)
	}

	roles := make([]string, 0, len(docs))
	for _, d := range docs {
		roles = append(roles, d.Role)
	}
	return roles, nil
}

// EnsureIndexes creates the unique email index.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mu mongoUser
	if err := r.coll.FindOne(ctx, filter).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return toDomainUser(mu), nil
}

// objectIDSet parses ids, dropping invalid and repeated entries.
func objectIDSet(ids []string) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
		if err != nil {
			continue
		}
		if _, dup := seen[oid]; dup {
			continue
		}
		seen[oid] = struct{}{}
		out = append(out, oid)
	}
	return out
}

func toMongoUser(u *domain.User) mongoUser {
	doc := mongoUser{
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		IsVerified:   u.IsVerified,
		IsBlocked:    u.IsBlocked,
		CreatedAt:    u.CreatedAt.Unix(),
		UpdatedAt:    u.UpdatedAt.Unix(),
	}
	if u.CreatorProfile != nil {
		doc.CreatorProfile = &mongoCreatorProfile{
			DisplayName: u.CreatorProfile.DisplayName,
			Bio:         u.CreatorProfile.Bio,
			AvatarURL:   u.CreatorProfile.AvatarURL,
		}
	}
	return doc
}

func toDomainUser(mu mongoUser) *domain.User {
	u := &domain.User{
		ID:           mu.ID.Hex(),
		Username:     mu.Username,
		Email:        mu.Email,
		PasswordHash: mu.PasswordHash,
		Role:         mu.Role,
		IsVerified:   mu.IsVerified,
		IsBlocked:    mu.IsBlocked,
		CreatedAt:    unixToTime(mu.CreatedAt),
		UpdatedAt:    unixToTime(mu.UpdatedAt),
	}
	if mu.CreatorProfile != nil {
		u.CreatorProfile = &domain.CreatorProfile{
			DisplayName: mu.CreatorProfile.DisplayName,
			Bio:         mu.CreatorProfile.Bio,
			AvatarURL:   mu.CreatorProfile.AvatarURL,
		}
	}
	return u
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}

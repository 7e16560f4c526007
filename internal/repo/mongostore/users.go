package mongostore

import (
	"context"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Skotchmaster/ecoshop/internal/models"
	"github.com/Skotchmaster/ecoshop/internal/repo"
)

func (r *Repo) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := r.now()
	u.CreatedAt, u.UpdatedAt = now, now

	_, err := r.users.InsertOne(ctx, userToDoc(u))
	return translate(err)
}

func (r *Repo) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.findUser(ctx, byID(id))
}

func (r *Repo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findUser(ctx, bson.M{"email": email})
}

func (r *Repo) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDoc
	if err := r.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	u, err := doc.model()
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repo) GetUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	return r.findUsers(ctx, bson.M{"_id": bson.M{"$in": idStrings(ids)}})
}

func (r *Repo) ListUsers(ctx context.Context) ([]models.User, error) {
	return r.findUsers(ctx, bson.M{})
}

func (r *Repo) findUsers(ctx context.Context, filter bson.M) ([]models.User, error) {
	cur, err := r.users.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, translate(err)
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, translate(err)
	}

	users := make([]models.User, 0, len(docs))
	for _, d := range docs {
		u, err := d.model()
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func (r *Repo) UpdateUser(ctx context.Context, u *models.User) error {
	u.UpdatedAt = r.now()
	res, err := r.users.UpdateOne(ctx, byID(u.ID), bson.M{"$set": bson.M{
		"username":      u.Username,
		"email":         u.Email,
		"password_hash": u.PasswordHash,
		"role":          string(u.Role),
		"updated_at":    u.UpdatedAt,
	}})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return repo.ErrNotFound
	}
	return nil
}

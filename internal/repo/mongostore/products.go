package mongostore

import (
	"context"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Skotchmaster/ecoshop/internal/models"
	"github.com/Skotchmaster/ecoshop/internal/repo"
)

func (r *Repo) CreateProduct(ctx context.Context, p *models.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := r.now()
	p.CreatedAt, p.UpdatedAt = now, now

	_, err := r.products.InsertOne(ctx, productToDoc(p))
	return translate(err)
}

func (r *Repo) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var doc productDoc
	if err := r.products.FindOne(ctx, byID(id)).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	p, err := doc.model()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) GetProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	return r.findProducts(ctx, bson.M{"_id": bson.M{"$in": idStrings(ids)}})
}

func (r *Repo) ListProducts(ctx context.Context) ([]models.Product, error) {
	return r.findProducts(ctx, bson.M{})
}

func (r *Repo) findProducts(ctx context.Context, filter bson.M) ([]models.Product, error) {
	cur, err := r.products.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, translate(err)
	}
	var docs []productDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, translate(err)
	}

	items := make([]models.Product, 0, len(docs))
	for _, d := range docs {
		p, err := d.model()
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, nil
}

func (r *Repo) UpdateProduct(ctx context.Context, p *models.Product) error {
	p.UpdatedAt = r.now()
	res, err := r.products.UpdateOne(ctx, byID(p.ID), bson.M{"$set": bson.M{
		"name":        p.Name,
		"description": p.Description,
		"category":    p.Category,
		"image_url":   p.ImageURL,
		"stock":       p.Stock,
		"price":       p.Price,
		"updated_at":  p.UpdatedAt,
	}})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *Repo) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	res, err := r.products.DeleteOne(ctx, byID(id))
	if err != nil {
		return translate(err)
	}
	if res.DeletedCount == 0 {
		return repo.ErrNotFound
	}
	return nil
}

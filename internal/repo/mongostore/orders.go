package mongostore

import (
	"context"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Skotchmaster/ecoshop/internal/models"
	"github.com/Skotchmaster/ecoshop/internal/repo"
)

func (r *Repo) CreateOrder(ctx context.Context, o *models.Order) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	now := r.now()
	o.CreatedAt, o.UpdatedAt = now, now
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
		o.Items[i].Position = i
	}

	_, err := r.orders.InsertOne(ctx, orderToDoc(o))
	return translate(err)
}

func (r *Repo) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var doc orderDoc
	if err := r.orders.FindOne(ctx, byID(id)).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	o, err := doc.model()
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *Repo) ListOrders(ctx context.Context) ([]models.Order, error) {
	cur, err := r.orders.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, translate(err)
	}
	var docs []orderDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, translate(err)
	}

	orders := make([]models.Order, 0, len(docs))
	for _, d := range docs {
		o, err := d.model()
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// UpdateOrder replaces status, total and the embedded item list in one write.
func (r *Repo) UpdateOrder(ctx context.Context, o *models.Order) error {
	o.UpdatedAt = r.now()
	res, err := r.orders.UpdateOne(ctx, byID(o.ID), bson.M{"$set": bson.M{
		"items":       itemsToDocs(o.Items),
		"total_price": o.TotalPrice,
		"status":      string(o.Status),
		"updated_at":  o.UpdatedAt,
	}})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return repo.ErrNotFound
	}
	return nil
}

package store

import (
	"context"
	"errors"
	"regexp"
	"time"

	"campusmarket_back_end/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoProducts struct {
	col *mongo.Collection
}

func (s *mongoProducts) Insert(ctx context.Context, p *models.Product) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	_, err := s.col.InsertOne(ctx, p)
	return err
}

func (s *mongoProducts) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var p models.Product
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *mongoProducts) SetImageURL(ctx context.Context, id primitive.ObjectID, url string) error {
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"image_url": url}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoProducts) Browse(ctx context.Context, excludeSeller primitive.ObjectID, f BrowseFilter) ([]models.Product, int64, error) {
	query := bson.M{"seller_id": bson.M{"$ne": excludeSeller}}
	if f.Category != "" && f.Category != "all" {
		query["category"] = f.Category
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		price := bson.M{}
		if f.MinPrice != nil {
			price["$gte"] = *f.MinPrice
		}
		if f.MaxPrice != nil {
			price["$lte"] = *f.MaxPrice
		}
		query["price"] = price
	}

	total, err := s.col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().SetSkip(f.Skip).SetLimit(f.Limit)
	cursor, err := s.col.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (s *mongoProducts) SearchByName(ctx context.Context, query string, limit int64) ([]models.Product, error) {
	filter := bson.M{"name": bson.M{
		"$regex":   regexp.QuoteMeta(query),
		"$options": "i",
	}}
	cursor, err := s.col.Find(ctx, filter, options.Find().SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *mongoProducts) Latest(ctx context.Context, limit int64) ([]models.Product, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)
	cursor, err := s.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *mongoProducts) DistinctCategories(ctx context.Context) ([]string, error) {
	values, err := s.col.Distinct(ctx, "category", bson.M{})
	if err != nil {
		return nil, err
	}
	categories := make([]string, 0, len(values))
	for _, v := range values {
		if c, ok := v.(string); ok {
			categories = append(categories, c)
		}
	}
	return categories, nil
}

package store

import (
	"context"
	"errors"

	"campusmarket_back_end/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type mongoCarts struct {
	col *mongo.Collection
}

func (s *mongoCarts) Find(ctx context.Context, userID, productID primitive.ObjectID) (*models.CartItem, error) {
	var item models.CartItem
	err := s.col.FindOne(ctx, bson.M{"user_id": userID, "product_id": productID}).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *mongoCarts) Insert(ctx context.Context, item *models.CartItem) error {
	if item.ID.IsZero() {
		item.ID = primitive.NewObjectID()
	}
	_, err := s.col.InsertOne(ctx, item)
	return err
}

func (s *mongoCarts) SetQuantity(ctx context.Context, userID, productID primitive.ObjectID, qty int) error {
	res, err := s.col.UpdateOne(ctx,
		bson.M{"user_id": userID, "product_id": productID},
		bson.M{"$set": bson.M{"quantity": qty}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoCarts) Delete(ctx context.Context, userID, productID primitive.ObjectID) error {
	res, err := s.col.DeleteOne(ctx, bson.M{"user_id": userID, "product_id": productID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoCarts) DeleteAll(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.col.DeleteMany(ctx, bson.M{"user_id": userID})
	return err
}

// ListJoined joint chaque ligne de panier avec son produit puis le vendeur du
// produit, comme l'agrégation $lookup/$unwind côté lecture du panier.
func (s *mongoCarts) ListJoined(ctx context.Context, userID primitive.ObjectID) ([]models.CartEntry, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userID}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "products",
			"localField":   "product_id",
			"foreignField": "_id",
			"as":           "product",
		}}},
		{{Key: "$unwind", Value: "$product"}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "users",
			"localField":   "product.seller_id",
			"foreignField": "_id",
			"as":           "seller",
		}}},
		{{Key: "$unwind", Value: "$seller"}},
		{{Key: "$project", Value: bson.M{
			"_id":        1,
			"user_id":    1,
			"product_id": 1,
			"quantity":   1,
			"product": bson.M{
				"name":        "$product.name",
				"price":       "$product.price",
				"description": "$product.description",
				"category":    "$product.category",
			},
			"seller": bson.M{
				"first_name": "$seller.first_name",
				"last_name":  "$seller.last_name",
				"email":      "$seller.email",
			},
		}}},
	}

	cursor, err := s.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	entries := []models.CartEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

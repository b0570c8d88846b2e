package store

import (
	"context"
	"errors"

	"campusmarket_back_end/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type mongoOrders struct {
	col *mongo.Collection
}

func (s *mongoOrders) Insert(ctx context.Context, o *models.Order) error {
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	_, err := s.col.InsertOne(ctx, o)
	return err
}

func (s *mongoOrders) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var o models.Order
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *mongoOrders) SetOTP(ctx context.Context, id primitive.ObjectID, otpHash string) error {
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"otp": otpHash}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoOrders) MarkDelivered(ctx context.Context, id primitive.ObjectID) error {
	// Le filtre is_delivered=false rend la bascule atomique : deux
	// confirmations concurrentes ne peuvent pas matcher toutes les deux.
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": id, "is_delivered": false},
		bson.M{"$set": bson.M{"is_delivered": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if n, err := s.col.CountDocuments(ctx, bson.M{"_id": id}); err == nil && n > 0 {
			return ErrAlreadyDelivered
		}
		return ErrNotFound
	}
	return nil
}

func (s *mongoOrders) ListByBuyer(ctx context.Context, userID primitive.ObjectID) ([]models.OrderView, error) {
	// Non livrées d'abord, puis les plus récentes en premier dans chaque groupe.
	sort := bson.D{{Key: "is_delivered", Value: 1}, {Key: "order_date", Value: -1}}
	return s.listJoined(ctx, bson.M{"user_id": userID}, sort, "seller")
}

func (s *mongoOrders) ListSold(ctx context.Context, sellerID primitive.ObjectID) ([]models.OrderView, error) {
	sort := bson.D{{Key: "order_date", Value: -1}}
	return s.listJoined(ctx, bson.M{"seller_id": sellerID, "is_delivered": true}, sort, "buyer")
}

func (s *mongoOrders) ListPending(ctx context.Context, sellerID primitive.ObjectID) ([]models.OrderView, error) {
	sort := bson.D{{Key: "order_date", Value: -1}}
	return s.listJoined(ctx, bson.M{"seller_id": sellerID, "is_delivered": false}, sort, "buyer")
}

// listJoined joint chaque commande avec son produit et sa contrepartie :
// le vendeur pour la vue acheteur, l'acheteur pour les vues vendeur.
func (s *mongoOrders) listJoined(ctx context.Context, match bson.M, sort bson.D, counterpart string) ([]models.OrderView, error) {
	counterpartField := "seller_id"
	if counterpart == "buyer" {
		counterpartField = "user_id"
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: sort}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "products",
			"localField":   "product_id",
			"foreignField": "_id",
			"as":           "product",
		}}},
		{{Key: "$unwind", Value: "$product"}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "users",
			"localField":   counterpartField,
			"foreignField": "_id",
			"as":           counterpart,
		}}},
		{{Key: "$unwind", Value: "$" + counterpart}},
		{{Key: "$project", Value: bson.M{
			"_id":          1,
			"user_id":      1,
			"product_id":   1,
			"seller_id":    1,
			"quantity":     1,
			"is_delivered": 1,
			"order_date":   1,
			"product": bson.M{
				"name":        "$product.name",
				"price":       "$product.price",
				"description": "$product.description",
				"category":    "$product.category",
			},
			counterpart: bson.M{
				"first_name": "$" + counterpart + ".first_name",
				"last_name":  "$" + counterpart + ".last_name",
				"email":      "$" + counterpart + ".email",
			},
		}}},
	}

	cursor, err := s.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	orders := []models.OrderView{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

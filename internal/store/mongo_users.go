package store

import (
	"context"
	"errors"

	"campusmarket_back_end/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type mongoUsers struct {
	col *mongo.Collection
}

func (s *mongoUsers) Insert(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.Reviews == nil {
		u.Reviews = []string{}
	}
	_, err := s.col.InsertOne(ctx, u)
	return err
}

func (s *mongoUsers) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *mongoUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.col.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *mongoUsers) Update(ctx context.Context, u *models.User) error {
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": u.ID}, bson.M{"$set": bson.M{
		"first_name":     u.FirstName,
		"last_name":      u.LastName,
		"email":          u.Email,
		"age":            u.Age,
		"contact_number": u.ContactNumber,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoUsers) AppendReview(ctx context.Context, sellerID primitive.ObjectID, review string) error {
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": sellerID},
		bson.M{"$push": bson.M{"reviews": review}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"userId"`
	FirstName     string             `bson:"first_name" json:"firstName"`
	LastName      string             `bson:"last_name" json:"lastName"`
	Email         string             `bson:"email" json:"email"`
	Age           int                `bson:"age" json:"age"`
	ContactNumber string             `bson:"contact_number" json:"contactNumber"`
	Password      string             `bson:"password" json:"-"`
	Reviews       []string           `bson:"reviews" json:"reviews"`
}

// UserSummary est la projection publique d'un utilisateur (jointures panier/commandes)
type UserSummary struct {
	FirstName string `bson:"first_name" json:"firstName"`
	LastName  string `bson:"last_name" json:"lastName"`
	Email     string `bson:"email" json:"email"`
}

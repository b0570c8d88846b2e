package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Price       float64            `bson:"price" json:"price"`
	Description string             `bson:"description" json:"description"`
	Category    string             `bson:"category" json:"category"`
	SellerID    primitive.ObjectID `bson:"seller_id" json:"sellerId"`
	ImageURL    string             `bson:"image_url,omitempty" json:"imageUrl,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
}

// ProductSummary est la projection affichée dans le panier et les commandes
type ProductSummary struct {
	Name        string  `bson:"name" json:"name"`
	Price       float64 `bson:"price" json:"price"`
	Description string  `bson:"description" json:"description"`
	Category    string  `bson:"category" json:"category"`
}

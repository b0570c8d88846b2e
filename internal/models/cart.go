package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartItem est une ligne de panier, unique par couple (user_id, product_id)
type CartItem struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"userId"`
	ProductID primitive.ObjectID `bson:"product_id" json:"productId"`
	Quantity  int                `bson:"quantity" json:"quantity"`
}

// CartEntry est une ligne de panier enrichie avec le produit et le vendeur
type CartEntry struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"userId"`
	ProductID primitive.ObjectID `bson:"product_id" json:"productId"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Product   ProductSummary     `bson:"product" json:"product"`
	Seller    UserSummary        `bson:"seller" json:"seller"`
}

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order référence l'acheteur, le produit et le vendeur. Le seller_id est copié
// depuis le produit au moment de la commande et ne change plus jamais ensuite.
// Le champ otp ne contient que le hash bcrypt du code de livraison, jamais le
// code en clair.
type Order struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"user_id" json:"userId"`
	ProductID   primitive.ObjectID `bson:"product_id" json:"productId"`
	SellerID    primitive.ObjectID `bson:"seller_id" json:"sellerId"`
	Quantity    int                `bson:"quantity" json:"quantity"`
	OTP         string             `bson:"otp" json:"-"`
	IsDelivered bool               `bson:"is_delivered" json:"isDelivered"`
	OrderDate   time.Time          `bson:"order_date" json:"orderDate"`
}

// OrderView est une commande enrichie pour l'affichage : produit + contrepartie
// (le vendeur côté acheteur, l'acheteur côté vendeur).
type OrderView struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	UserID      primitive.ObjectID `bson:"user_id" json:"userId"`
	ProductID   primitive.ObjectID `bson:"product_id" json:"productId"`
	SellerID    primitive.ObjectID `bson:"seller_id" json:"sellerId"`
	Quantity    int                `bson:"quantity" json:"quantity"`
	IsDelivered bool               `bson:"is_delivered" json:"isDelivered"`
	OrderDate   time.Time          `bson:"order_date" json:"orderDate"`
	Product     ProductSummary     `bson:"product" json:"product"`
	Seller      *UserSummary       `bson:"seller,omitempty" json:"seller,omitempty"`
	Buyer       *UserSummary       `bson:"buyer,omitempty" json:"buyer,omitempty"`
}

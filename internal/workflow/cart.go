package workflow

import (
	"context"
	"errors"

	"campusmarket_back_end/internal/models"
	"campusmarket_back_end/internal/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartService gère le registre de panier : une ligne par couple
// (acheteur, produit), quantité toujours ≥ 1.
type CartService struct {
	stores *store.Stores
}

func NewCartService(st *store.Stores) *CartService {
	return &CartService{stores: st}
}

// AddOrIncrement ajoute le produit au panier ou incrémente la quantité de la
// ligne existante. ErrNotFound si le produit n'existe pas.
func (s *CartService) AddOrIncrement(ctx context.Context, userID, productID primitive.ObjectID, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	if _, err := s.stores.Products.FindByID(ctx, productID); err != nil {
		return err
	}

	existing, err := s.stores.Carts.Find(ctx, userID, productID)
	if errors.Is(err, store.ErrNotFound) {
		return s.stores.Carts.Insert(ctx, &models.CartItem{
			UserID:    userID,
			ProductID: productID,
			Quantity:  qty,
		})
	}
	if err != nil {
		return err
	}
	return s.stores.Carts.SetQuantity(ctx, userID, productID, existing.Quantity+qty)
}

// SetQuantity remplace la quantité d'une ligne existante. ErrInvalidQuantity
// si qty < 1, la quantité précédente reste alors intacte.
func (s *CartService) SetQuantity(ctx context.Context, userID, productID primitive.ObjectID, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	return s.stores.Carts.SetQuantity(ctx, userID, productID, qty)
}

func (s *CartService) Remove(ctx context.Context, userID, productID primitive.ObjectID) error {
	return s.stores.Carts.Delete(ctx, userID, productID)
}

// List renvoie les lignes du panier jointes avec le produit et le vendeur.
func (s *CartService) List(ctx context.Context, userID primitive.ObjectID) ([]models.CartEntry, error) {
	return s.stores.Carts.ListJoined(ctx, userID)
}

// Contains indique si le produit est déjà dans le panier de l'acheteur.
func (s *CartService) Contains(ctx context.Context, userID, productID primitive.ObjectID) (bool, error) {
	_, err := s.stores.Carts.Find(ctx, userID, productID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

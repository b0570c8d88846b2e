package workflow

import (
	"context"
	"time"

	"campusmarket_back_end/internal/models"
	"campusmarket_back_end/internal/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderService porte le cœur du cycle de vie d'une commande : passage de
// commande depuis le panier, codes de livraison, confirmation de remise en
// main propre et avis vendeur.
type OrderService struct {
	stores  *store.Stores
	hasher  CodeHasher
	genCode func() (string, error)
}

func NewOrderService(st *store.Stores, hasher CodeHasher) *OrderService {
	return &OrderService{
		stores:  st,
		hasher:  hasher,
		genCode: GenerateDeliveryCode,
	}
}

// CheckoutLine est une ligne de la requête de commande (produit, quantité).
type CheckoutLine struct {
	ProductID primitive.ObjectID
	Quantity  int
}

// PlacedOrder associe la commande créée au code de livraison en clair. Le
// code n'est remis qu'une fois, ici : il n'est jamais persisté.
type PlacedOrder struct {
	Order models.Order
	Code  string
}

// Checkout transforme les lignes de panier en commandes, une par produit.
// Le seller_id est copié depuis le produit à cet instant précis. Toutes les
// créations de commandes et la purge du panier s'exécutent dans une seule
// transaction : si une ligne échoue (produit disparu, quantité invalide),
// aucune commande n'est créée et le panier reste intact.
func (s *OrderService) Checkout(ctx context.Context, buyerID primitive.ObjectID, lines []CheckoutLine) ([]PlacedOrder, error) {
	var placed []PlacedOrder

	err := s.stores.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		placed = placed[:0]
		for _, line := range lines {
			if line.Quantity < 1 {
				return ErrInvalidQuantity
			}
			product, err := s.stores.Products.FindByID(ctx, line.ProductID)
			if err != nil {
				return err
			}

			code, err := s.genCode()
			if err != nil {
				return err
			}
			hash, err := s.hasher.Hash(code)
			if err != nil {
				return err
			}

			order := models.Order{
				ID:        primitive.NewObjectID(),
				UserID:    buyerID,
				ProductID: product.ID,
				SellerID:  product.SellerID,
				Quantity:  line.Quantity,
				OTP:       hash,
				OrderDate: time.Now(),
			}
			if err := s.stores.Orders.Insert(ctx, &order); err != nil {
				return err
			}
			placed = append(placed, PlacedOrder{Order: order, Code: code})
		}
		return s.stores.Carts.DeleteAll(ctx, buyerID)
	})
	if err != nil {
		return nil, err
	}
	return placed, nil
}

// RegenerateCode remplace le code de livraison de la commande et renvoie le
// nouveau code en clair — le seul canal par lequel il peut être relu. Un
// ancien code ne passe plus la vérification après régénération. La
// régénération reste volontairement possible après livraison (comportement
// historique conservé, faiblesse connue).
func (s *OrderService) RegenerateCode(ctx context.Context, orderID primitive.ObjectID) (string, error) {
	if _, err := s.stores.Orders.FindByID(ctx, orderID); err != nil {
		return "", err
	}

	code, err := s.genCode()
	if err != nil {
		return "", err
	}
	hash, err := s.hasher.Hash(code)
	if err != nil {
		return "", err
	}
	if err := s.stores.Orders.SetOTP(ctx, orderID, hash); err != nil {
		return "", err
	}
	return code, nil
}

// ConfirmDelivery compare le code soumis au hash stocké. En cas de
// correspondance, is_delivered passe à true — une seule fois : toute
// confirmation ultérieure échoue avec ErrAlreadyDelivered, même avec le bon
// code. Un code erroné ne change aucun état.
func (s *OrderService) ConfirmDelivery(ctx context.Context, orderID primitive.ObjectID, code string) error {
	order, err := s.stores.Orders.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.IsDelivered {
		return ErrAlreadyDelivered
	}
	if !s.hasher.Compare(order.OTP, code) {
		return ErrInvalidCode
	}
	return s.stores.Orders.MarkDelivered(ctx, orderID)
}

// AddReview attache un avis texte au vendeur de la commande. La livraison
// n'est volontairement pas exigée (comportement historique conservé).
func (s *OrderService) AddReview(ctx context.Context, orderID primitive.ObjectID, review string) error {
	order, err := s.stores.Orders.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	return s.stores.Users.AppendReview(ctx, order.SellerID, review)
}

// ListBought : toutes les commandes de l'acheteur, non livrées d'abord puis
// par date décroissante.
func (s *OrderService) ListBought(ctx context.Context, userID primitive.ObjectID) ([]models.OrderView, error) {
	return s.stores.Orders.ListByBuyer(ctx, userID)
}

// ListSold : uniquement les commandes livrées du vendeur. Les ventes non
// livrées passent par ListPendingDeliveries.
func (s *OrderService) ListSold(ctx context.Context, sellerID primitive.ObjectID) ([]models.OrderView, error) {
	return s.stores.Orders.ListSold(ctx, sellerID)
}

// ListPendingDeliveries : commandes non livrées du vendeur, jointes avec
// l'acheteur et le produit pour la remise en main propre.
func (s *OrderService) ListPendingDeliveries(ctx context.Context, sellerID primitive.ObjectID) ([]models.OrderView, error) {
	return s.stores.Orders.ListPending(ctx, sellerID)
}

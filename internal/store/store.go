package store

import (
	"context"
	"errors"

	"campusmarket_back_end/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotFound est renvoyé quand un document référencé n'existe pas
// (utilisateur, produit, ligne de panier ou commande).
var ErrNotFound = errors.New("document introuvable")

// ErrAlreadyDelivered est renvoyé par MarkDelivered quand is_delivered est
// déjà à true : la bascule est conditionnelle côté store pour que deux
// confirmations concurrentes ne réussissent pas toutes les deux.
var ErrAlreadyDelivered = errors.New("commande déjà livrée")

type UserStore interface {
	Insert(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, u *models.User) error
	// AppendReview ajoute un avis texte à la liste du vendeur (append-only).
	AppendReview(ctx context.Context, sellerID primitive.ObjectID, review string) error
}

// BrowseFilter reprend les filtres de la page d'accueil : catégorie,
// fourchette de prix et pagination par offset.
type BrowseFilter struct {
	Category string
	MinPrice *float64
	MaxPrice *float64
	Skip     int64
	Limit    int64
}

type ProductStore interface {
	Insert(ctx context.Context, p *models.Product) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	SetImageURL(ctx context.Context, id primitive.ObjectID, url string) error
	// Browse exclut les produits du vendeur donné et renvoie aussi le total
	// pour le calcul du nombre de pages.
	Browse(ctx context.Context, excludeSeller primitive.ObjectID, f BrowseFilter) ([]models.Product, int64, error)
	SearchByName(ctx context.Context, query string, limit int64) ([]models.Product, error)
	Latest(ctx context.Context, limit int64) ([]models.Product, error)
	DistinctCategories(ctx context.Context) ([]string, error)
}

type CartStore interface {
	Find(ctx context.Context, userID, productID primitive.ObjectID) (*models.CartItem, error)
	Insert(ctx context.Context, item *models.CartItem) error
	// SetQuantity remplace la quantité d'une ligne existante. ErrNotFound si absente.
	SetQuantity(ctx context.Context, userID, productID primitive.ObjectID, qty int) error
	Delete(ctx context.Context, userID, productID primitive.ObjectID) error
	DeleteAll(ctx context.Context, userID primitive.ObjectID) error
	ListJoined(ctx context.Context, userID primitive.ObjectID) ([]models.CartEntry, error)
}

type OrderStore interface {
	Insert(ctx context.Context, o *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	SetOTP(ctx context.Context, id primitive.ObjectID, otpHash string) error
	// MarkDelivered bascule is_delivered à true, une seule fois :
	// ErrAlreadyDelivered si le flag était déjà posé.
	MarkDelivered(ctx context.Context, id primitive.ObjectID) error
	// ListByBuyer : toutes les commandes de l'acheteur, non livrées d'abord,
	// puis les plus récentes en premier dans chaque groupe.
	ListByBuyer(ctx context.Context, userID primitive.ObjectID) ([]models.OrderView, error)
	// ListSold : commandes livrées du vendeur, les plus récentes en premier.
	ListSold(ctx context.Context, sellerID primitive.ObjectID) ([]models.OrderView, error)
	// ListPending : commandes non livrées du vendeur, jointes acheteur + produit.
	ListPending(ctx context.Context, sellerID primitive.ObjectID) ([]models.OrderView, error)
}

// Transactor exécute fn dans une transaction du store : tout ce que fn écrit
// via le ctx reçu est committé en bloc, ou annulé en bloc si fn échoue.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Stores regroupe les dépendances de persistance injectées dans les workflows.
type Stores struct {
	Users    UserStore
	Products ProductStore
	Carts    CartStore
	Orders   OrderStore
	Tx       Transactor
}

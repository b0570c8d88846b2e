package workflow

import (
	"errors"

	"campusmarket_back_end/internal/store"
)

var (
	// ErrNotFound : commande, produit ou ligne de panier référencé absent.
	ErrNotFound = store.ErrNotFound

	// ErrInvalidQuantity : une ligne de panier exige une quantité d'au moins 1.
	ErrInvalidQuantity = errors.New("la quantité doit être au moins 1")

	// ErrInvalidCode : le code de livraison soumis ne correspond pas au hash stocké.
	ErrInvalidCode = errors.New("code de livraison invalide")

	// ErrAlreadyDelivered : la livraison a déjà été confirmée, le flag
	// is_delivered ne repasse jamais à false et ne se reconfirme pas. Le
	// sentinel vient du store, où la bascule conditionnelle le détecte même
	// sous confirmations concurrentes.
	ErrAlreadyDelivered = store.ErrAlreadyDelivered
)

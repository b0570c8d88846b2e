package workflow

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// CodeHasher abstrait le hachage one-way des codes de livraison pour garder
// le workflow testable sans payer le coût bcrypt dans chaque test.
type CodeHasher interface {
	Hash(code string) (string, error)
	Compare(hash, code string) bool
}

type bcryptHasher struct{}

// NewBcryptHasher renvoie le hasher bcrypt utilisé en production. Seul le
// hash est persisté, jamais le code en clair.
func NewBcryptHasher() CodeHasher {
	return bcryptHasher{}
}

func (bcryptHasher) Hash(code string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (bcryptHasher) Compare(hash, code string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}

// GenerateDeliveryCode tire un code numérique à 6 chiffres (100000-999999)
// via crypto/rand.
func GenerateDeliveryCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

package auth

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// ErrAssertionFailed : le serveur CAS n'a pas validé le ticket.
var ErrAssertionFailed = errors.New("validation CAS échouée")

// IdentityAssertionService abstrait le service d'authentification
// institutionnel : il valide un ticket et renvoie l'identité affirmée.
type IdentityAssertionService interface {
	// Validate échange le ticket contre l'identifiant CAS (l'email
	// institutionnel). serviceURL doit être identique à celui du login.
	Validate(ctx context.Context, ticket, serviceURL string) (string, error)
	// LoginURL construit l'URL de redirection vers la mire de login CAS.
	LoginURL(serviceURL string) string
}

// CASClient parle le protocole CAS 2.0 (serviceValidate + réponse XML).
type CASClient struct {
	baseURL string
	http    *http.Client
}

// NewCASClient lit CAS_URL (ex: https://login.iiit.ac.in/cas). Le timeout
// borne l'appel de validation, le pipeline de requête ne doit jamais bloquer.
func NewCASClient() *CASClient {
	baseURL := os.Getenv("CAS_URL")
	if baseURL == "" {
		baseURL = "https://login.iiit.ac.in/cas"
	}
	return &CASClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *CASClient) LoginURL(serviceURL string) string {
	return fmt.Sprintf("%s/login?service=%s", c.baseURL, url.QueryEscape(serviceURL))
}

func (c *CASClient) Validate(ctx context.Context, ticket, serviceURL string) (string, error) {
	validateURL := fmt.Sprintf("%s/serviceValidate?ticket=%s&service=%s",
		c.baseURL, url.QueryEscape(ticket), url.QueryEscape(serviceURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, validateURL, nil)
	if err != nil {
		return "", err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return "", err
	}
	return ParseCASResponse(body)
}

// Réponse serviceValidate CAS 2.0 :
// <cas:serviceResponse><cas:authenticationSuccess><cas:user>…</cas:user>…
type casServiceResponse struct {
	XMLName xml.Name    `xml:"serviceResponse"`
	Success *casSuccess `xml:"authenticationSuccess"`
}

type casSuccess struct {
	User string `xml:"user"`
}

// SameIdentity compare l'identifiant affirmé par le CAS à l'email du compte.
// La casse des adresses institutionnelles n'est pas significative.
func SameIdentity(casUser, email string) bool {
	return casUser != "" && strings.EqualFold(casUser, email)
}

// ParseCASResponse extrait l'identifiant affirmé de la réponse XML, ou
// ErrAssertionFailed si le bloc authenticationSuccess est absent.
func ParseCASResponse(body []byte) (string, error) {
	var parsed casServiceResponse
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("réponse CAS illisible: %w", err)
	}
	if parsed.Success == nil || parsed.Success.User == "" {
		return "", ErrAssertionFailed
	}
	return parsed.Success.User, nil
}

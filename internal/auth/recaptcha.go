package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// ErrCaptchaRejected : Google a refusé le token reCAPTCHA.
var ErrCaptchaRejected = errors.New("reCAPTCHA invalide")

// CaptchaVerifier abstrait la vérification anti-robot du signup/login.
type CaptchaVerifier interface {
	Verify(ctx context.Context, token string) error
}

type googleCaptcha struct {
	secret string
	http   *http.Client
}

// NewGoogleCaptcha lit RECAPTCHA_SECRET. Sans secret configuré la
// vérification est neutralisée (dev local).
func NewGoogleCaptcha() CaptchaVerifier {
	secret := os.Getenv("RECAPTCHA_SECRET")
	if secret == "" {
		log.Println("⚠️ RECAPTCHA_SECRET non configuré — vérification reCAPTCHA désactivée")
	}
	return &googleCaptcha{
		secret: secret,
		http:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *googleCaptcha) Verify(ctx context.Context, token string) error {
	if g.secret == "" {
		return nil
	}

	form := url.Values{}
	form.Set("secret", g.secret)
	form.Set("response", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://www.google.com/recaptcha/api/siteverify",
		strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := g.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	var body struct {
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return err
	}
	if !body.Success {
		return ErrCaptchaRejected
	}
	return nil
}

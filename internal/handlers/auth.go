package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"campusmarket_back_end/internal/auth"
	"campusmarket_back_end/internal/database"
	"campusmarket_back_end/internal/models"
	"campusmarket_back_end/internal/store"
	"campusmarket_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const pendingTTL = 10 * time.Minute

// pendingSignup est l'utilisateur garé dans Redis le temps de l'aller-retour
// CAS. Le mot de passe est déjà haché avant d'être garé.
type pendingSignup struct {
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Email         string `json:"email"`
	Age           int    `json:"age"`
	ContactNumber string `json:"contactNumber"`
	PasswordHash  string `json:"passwordHash"`
}

func backendBaseURL() string {
	if v := os.Getenv("BACKEND_URL"); v != "" {
		return v
	}
	return "http://localhost:3000"
}

func frontendBaseURL() string {
	if v := os.Getenv("FRONTEND_URL"); v != "" {
		return v
	}
	return "http://localhost:3001"
}

func setSessionCookie(c *gin.Context, userID string) error {
	token, err := utils.GenerateSessionToken(userID)
	if err != nil {
		return err
	}
	c.SetCookie(utils.SessionCookieName, token, 24*3600, "/", "", false, true)
	return nil
}

func clearSessionCookie(c *gin.Context) {
	c.SetCookie(utils.SessionCookieName, "", -1, "/", "", false, true)
}

// 🟢 POST /signup
func Signup(c *gin.Context) {
	var req struct {
		FirstName      string `json:"firstName" binding:"required"`
		LastName       string `json:"lastName" binding:"required"`
		Email          string `json:"email" binding:"required,email"`
		Age            int    `json:"age" binding:"required"`
		ContactNumber  string `json:"contactNumber" binding:"required"`
		Password       string `json:"password" binding:"required"`
		RecaptchaToken string `json:"recaptchaToken"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := deps.Captcha.Verify(ctx, req.RecaptchaToken); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Vérification reCAPTCHA échouée"})
		return
	}

	if _, err := deps.Stores.Users.FindByEmail(ctx, req.Email); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Un compte existe déjà avec cet email"})
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	state := uuid.New().String()
	payload, _ := json.Marshal(pendingSignup{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		Age:           req.Age,
		ContactNumber: req.ContactNumber,
		PasswordHash:  hash,
	})
	if err := database.RedisClient.Set(ctx, "signup_pending:"+state, payload, pendingTTL).Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	service := fmt.Sprintf("%s/api/signup/cas/validate?state=%s", backendBaseURL(), state)
	c.JSON(http.StatusOK, gin.H{"redirectUrl": deps.CAS.LoginURL(service)})
}

// 🟢 GET /api/signup/cas/validate
// Retour du CAS : le ticket prouve l'identité, l'état Redis rend le compte.
func SignupCASValidate(c *gin.Context) {
	ticket := c.Query("ticket")
	state := c.Query("state")
	if ticket == "" || state == "" {
		c.Redirect(http.StatusFound, frontendBaseURL()+"/signup?error=cas")
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	key := "signup_pending:" + state
	raw, err := database.RedisClient.Get(ctx, key).Result()
	if err != nil {
		c.Redirect(http.StatusFound, frontendBaseURL()+"/signup?error=expired")
		return
	}
	database.RedisClient.Del(ctx, key)

	var pending pendingSignup
	if err := json.Unmarshal([]byte(raw), &pending); err != nil {
		c.Redirect(http.StatusFound, frontendBaseURL()+"/signup?error=expired")
		return
	}

	// L'URL de service doit être identique à celle envoyée au login, state
	// compris, sinon le CAS rejette le ticket.
	service := fmt.Sprintf("%s/api/signup/cas/validate?state=%s", backendBaseURL(), state)
	casUser, err := deps.CAS.Validate(ctx, ticket, service)
	if err != nil || !auth.SameIdentity(casUser, pending.Email) {
		log.Printf("❌ Validation CAS inscription refusée: %v", err)
		c.Redirect(http.StatusFound, frontendBaseURL()+"/signup?error=cas")
		return
	}

	user := models.User{
		FirstName:     pending.FirstName,
		LastName:      pending.LastName,
		Email:         pending.Email,
		Age:           pending.Age,
		ContactNumber: pending.ContactNumber,
		Password:      pending.PasswordHash,
		Reviews:       []string{},
	}
	if err := deps.Stores.Users.Insert(ctx, &user); err != nil {
		c.Redirect(http.StatusFound, frontendBaseURL()+"/signup?error=server")
		return
	}

	if err := setSessionCookie(c, user.ID.Hex()); err != nil {
		c.Redirect(http.StatusFound, frontendBaseURL()+"/signup?error=server")
		return
	}
	log.Printf("✅ Nouveau compte créé via CAS: %s", user.Email)
	c.Redirect(http.StatusFound, frontendBaseURL()+"/home")
}

// 🟢 POST /api/login
func Login(c *gin.Context) {
	var req struct {
		Email          string `json:"email" binding:"required,email"`
		Password       string `json:"password" binding:"required"`
		RecaptchaToken string `json:"recaptchaToken"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := deps.Captcha.Verify(ctx, req.RecaptchaToken); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Vérification reCAPTCHA échouée"})
		return
	}

	user, err := deps.Stores.Users.FindByEmail(ctx, req.Email)
	if err != nil || !utils.VerifyPassword(req.Password, user.Password) {
		// Même message dans les deux cas pour ne pas révéler quel champ cloche.
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Email ou mot de passe incorrect"})
		return
	}

	state := uuid.New().String()
	if err := database.RedisClient.Set(ctx, "login_pending:"+state, user.ID.Hex(), pendingTTL).Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	service := fmt.Sprintf("%s/api/cas/validate?state=%s", backendBaseURL(), state)
	c.JSON(http.StatusOK, gin.H{"redirectUrl": deps.CAS.LoginURL(service)})
}

// 🟢 GET /api/cas/validate
func LoginCASValidate(c *gin.Context) {
	ticket := c.Query("ticket")
	state := c.Query("state")
	if ticket == "" || state == "" {
		c.Redirect(http.StatusFound, frontendBaseURL()+"/login?error=cas")
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	key := "login_pending:" + state
	userID, err := database.RedisClient.Get(ctx, key).Result()
	if err != nil {
		c.Redirect(http.StatusFound, frontendBaseURL()+"/login?error=expired")
		return
	}
	database.RedisClient.Del(ctx, key)

	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		c.Redirect(http.StatusFound, frontendBaseURL()+"/login?error=expired")
		return
	}
	user, err := deps.Stores.Users.FindByID(ctx, oid)
	if err != nil {
		c.Redirect(http.StatusFound, frontendBaseURL()+"/login?error=expired")
		return
	}

	service := fmt.Sprintf("%s/api/cas/validate?state=%s", backendBaseURL(), state)
	casUser, err := deps.CAS.Validate(ctx, ticket, service)
	if err != nil || !auth.SameIdentity(casUser, user.Email) {
		log.Printf("❌ Validation CAS connexion refusée: %v", err)
		c.Redirect(http.StatusFound, frontendBaseURL()+"/login?error=cas")
		return
	}

	if err := setSessionCookie(c, user.ID.Hex()); err != nil {
		c.Redirect(http.StatusFound, frontendBaseURL()+"/login?error=server")
		return
	}
	c.Redirect(http.StatusFound, frontendBaseURL()+"/home")
}

// 🟢 POST /logout
func Logout(c *gin.Context) {
	clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "Déconnexion réussie"})
}

// 🟢 POST /api/clear-session
func ClearSession(c *gin.Context) {
	clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "Session effacée"})
}

// 🟢 GET /check-auth
func CheckAuth(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"isAuthenticated": false})
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	user, err := deps.Stores.Users.FindByID(ctx, userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"isAuthenticated": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"isAuthenticated": true, "user": user})
}

// 🟢 GET /api/user/me
func Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	user, err := deps.Stores.Users.FindByID(ctx, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Utilisateur introuvable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"firstName": user.FirstName, "lastName": user.LastName})
}

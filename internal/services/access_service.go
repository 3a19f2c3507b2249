package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spectralabs/spectra-backend/internal/mail"
	"github.com/spectralabs/spectra-backend/internal/models"
	"github.com/spectralabs/spectra-backend/internal/store"
)

var (
	ErrCodeInvalid  = errors.New("verification code is invalid")
	ErrCodeExpired  = errors.New("verification code has expired")
	ErrAccessDenied = errors.New("access token is invalid for this item")
	ErrNoSubmission = errors.New("no submission found for this email and sku")
)

const codeTTL = 10 * time.Minute

// AccessService gates per-SKU data behind mailed one-time codes. A verified
// code is exchanged for a short-lived signed token scoped to exactly one
// email and SKU; every data read presents that token.
type AccessService struct {
	store     store.Store
	mailer    mail.Dispatcher
	jwtSecret []byte
	tokenTTL  time.Duration
}

func NewAccessService(st store.Store, mailer mail.Dispatcher, jwtSecret string, tokenTTL time.Duration) *AccessService {
	return &AccessService{store: st, mailer: mailer, jwtSecret: []byte(jwtSecret), tokenTTL: tokenTTL}
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// SendCode mails a fresh code to the submission's owner, replacing any live
// code for the pair. The email must match the submission's email on record.
func (s *AccessService) SendCode(ctx context.Context, email, sku string) error {
	sub, err := s.store.GetSubmissionBySKU(ctx, sku)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNoSubmission
		}
		return err
	}
	if sub.Email != email {
		return ErrNoSubmission
	}

	code, err := generateCode()
	if err != nil {
		return err
	}
	record := &models.AccessCode{
		Email:     email,
		SKU:       sku,
		Code:      code,
		ExpiresAt: time.Now().Add(codeTTL),
	}
	if err := s.store.ReplaceAccessCode(ctx, record); err != nil {
		return err
	}
	if err := s.mailer.SendAccessCode(email, code, sku); err != nil {
		return fmt.Errorf("send access code: %w", err)
	}
	slog.Info("access code sent", "sku", sku)
	return nil
}

// VerifyCode checks the mailed code and, on success, burns it and returns a
// signed access token scoped to the email and SKU.
func (s *AccessService) VerifyCode(ctx context.Context, email, sku, code string) (string, error) {
	record, err := s.store.GetAccessCode(ctx, email, sku)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrCodeInvalid
		}
		return "", err
	}
	if record.Expired(time.Now()) {
		return "", ErrCodeExpired
	}
	if record.Code != code {
		return "", ErrCodeInvalid
	}
	if err := s.store.DeleteAccessCode(ctx, record.ID); err != nil {
		slog.Warn("access code delete failed", "sku", sku, "error", err)
	}

	claims := jwt.MapClaims{
		"email": email,
		"sku":   sku,
		"scope": "sku-access",
		"exp":   time.Now().Add(s.tokenTTL).Unix(),
		"iat":   time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", err
	}
	slog.Info("access code verified", "sku", sku)
	return signed, nil
}

// Authorize validates an access token against the SKU being read and returns
// the email it was issued to.
func (s *AccessService) Authorize(tokenString, sku string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrAccessDenied
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrAccessDenied
	}
	if claims["scope"] != "sku-access" || claims["sku"] != sku {
		return "", ErrAccessDenied
	}
	email, _ := claims["email"].(string)
	if email == "" {
		return "", ErrAccessDenied
	}
	return email, nil
}

// SKUData bundles everything a verified owner may see about one item.
type SKUData struct {
	Submission    *models.Submission    `json:"submission"`
	Orders        []models.Order        `json:"orders"`
	Subscriptions []models.Subscription `json:"subscriptions"`
}

// GetSKUData returns the submission and its related records, restricted to
// the email the token was issued to.
func (s *AccessService) GetSKUData(ctx context.Context, email, sku string) (*SKUData, error) {
	sub, err := s.store.GetSubmissionBySKU(ctx, sku)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNoSubmission
		}
		return nil, err
	}
	if sub.Email != email {
		return nil, ErrAccessDenied
	}

	orders, err := s.store.ListOrdersByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	related := orders[:0:0]
	for _, o := range orders {
		if o.SubmissionID == sub.ID {
			related = append(related, o)
		}
	}

	subs, err := s.store.ListSubscriptionsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	scoped := subs[:0:0]
	for _, sc := range subs {
		if sc.SKU == sku {
			scoped = append(scoped, sc)
		}
	}

	return &SKUData{Submission: sub, Orders: related, Subscriptions: scoped}, nil
}

// SuggestSKUs returns up to limit SKUs matching the prefix, for the lookup
// form's typeahead.
func (s *AccessService) SuggestSKUs(ctx context.Context, prefix string, limit int) ([]string, error) {
	if limit <= 0 || limit > 20 {
		limit = 10
	}
	return s.store.ListSKUsByPrefix(ctx, prefix, limit)
}

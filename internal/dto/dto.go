package dto

import "github.com/spectralabs/spectra-backend/internal/models"

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
}

type SubmissionRequest struct {
	Name        string  `json:"name" form:"name"`
	Email       string  `json:"email" form:"email"`
	SKU         string  `json:"sku" form:"sku"`
	Description string  `json:"description" form:"description"`
	Metal       string  `json:"metal" form:"metal"`
	Grams       float64 `json:"grams" form:"grams"`
	Action      string  `json:"action" form:"action"`
}

type CheckoutRequest struct {
	SKU     string `json:"sku"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
	Country string `json:"country"`
	Notes   string `json:"notes"`
}

type ProcessPaymentRequest struct {
	OrderNumber     string `json:"order_number"`
	PaymentMethodID string `json:"payment_method_id"`
}

type ConfirmPaymentRequest struct {
	OrderNumber     string `json:"order_number"`
	PaymentIntentID string `json:"payment_intent_id"`
}

type PaymentResponse struct {
	Success         bool          `json:"success"`
	AlreadyPaid     bool          `json:"already_paid,omitempty"`
	RequiresAction  bool          `json:"requires_action,omitempty"`
	ClientSecret    string        `json:"client_secret,omitempty"`
	PaymentIntentID string        `json:"payment_intent_id,omitempty"`
	Order           *models.Order `json:"order,omitempty"`
}

type RefundRequest struct {
	OrderNumber string `json:"order_number"`
}

type CreateSubscriptionRequest struct {
	Email string `json:"email"`
	SKU   string `json:"sku"`
	Plan  string `json:"plan"`
}

type ResolveCheckoutRequest struct {
	Reference string `json:"reference"`
	Email     string `json:"email"`
	SKU       string `json:"sku"`
}

type CancelSubscriptionRequest struct {
	SubscriptionID string `json:"subscription_id"`
}

type ClaimRequest struct {
	SubscriptionID     string `json:"subscription_id" form:"subscription_id"`
	ClaimType          string `json:"claim_type" form:"claim_type"`
	ProductDescription string `json:"product_description" form:"product_description"`
	Notes              string `json:"notes" form:"notes"`
}

type AdminNotesRequest struct {
	AdminNotes string `json:"admin_notes"`
}

type SendCodeRequest struct {
	Email string `json:"email"`
	SKU   string `json:"sku"`
}

type VerifyCodeRequest struct {
	Email string `json:"email"`
	SKU   string `json:"sku"`
	Code  string `json:"code"`
}

type AccessTokenResponse struct {
	AccessToken string `json:"access_token"`
}

type AdminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AdminLoginResponse struct {
	Token string `json:"token"`
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/integrations/payment"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/realtime"
	"gorm.io/gorm"
)

const subscriptionPeriod = 30 * 24 * time.Hour

var ErrPaymentNotFound = errors.New("payment not found")

// PaymentProvider creates and checks PIX charges.
type PaymentProvider interface {
	CreatePixQRCode(ctx context.Context, req payment.CreateRequest) (*payment.QRCode, error)
	CheckStatus(ctx context.Context, providerID string) (string, error)
}

type PaymentService struct {
	db          *gorm.DB
	feed        realtime.Feed
	provider    PaymentProvider
	amountCents int
	now         func() time.Time
}

func NewPaymentService(db *gorm.DB, feed realtime.Feed, provider PaymentProvider, amountCents int) *PaymentService {
	return &PaymentService{
		db:          db,
		feed:        feed,
		provider:    provider,
		amountCents: amountCents,
		now:         time.Now,
	}
}

// Checkout creates a PIX charge for a subscription period and records it as pending.
func (s *PaymentService) Checkout(ctx context.Context, userID string, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	var profile models.UserProfile
	if err := s.db.WithContext(ctx).First(&profile, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	plan := req.Plan
	if plan == "" {
		plan = "monthly"
	}

	qr, err := s.provider.CreatePixQRCode(ctx, payment.CreateRequest{
		AmountCents: s.amountCents,
		Description: "NutriRoom subscription (" + plan + ")",
		Customer: payment.Customer{
			Name:      profile.FullName,
			Email:     profile.Email,
			Cellphone: req.Cellular,
			TaxID:     req.TaxID,
		},
		Metadata: map[string]string{"user_id": userID, "tenant_id": profile.TenantID, "plan": plan},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	record := models.Payment{
		TenantID:    profile.TenantID,
		UserID:      userID,
		ProviderID:  qr.ID,
		AmountCents: s.amountCents,
		Plan:        plan,
		Status:      models.PaymentPending,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	return &dto.CheckoutResponse{
		PaymentID:     record.ID,
		QRCodeBase64:  qr.QRCodeBase64,
		CopyPasteCode: qr.CopyPasteCode,
		AmountCents:   s.amountCents,
		ExpiresAt:     qr.ExpiresAt,
	}, nil
}

// Status asks the provider for the state of the user's payment and activates
// the subscription on the first PAID answer.
func (s *PaymentService) Status(ctx context.Context, userID, paymentID string) (string, error) {
	var record models.Payment
	if err := s.db.WithContext(ctx).First(&record, "id = ? AND user_id = ?", paymentID, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrPaymentNotFound
		}
		return "", err
	}
	if record.Status == models.PaymentPaid {
		return record.Status, nil
	}

	status, err := s.provider.CheckStatus(ctx, record.ProviderID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	switch status {
	case payment.StatusPaid:
		if err := s.markPaid(ctx, record.ProviderID); err != nil {
			return "", err
		}
	case payment.StatusExpired:
		if err := s.db.WithContext(ctx).Model(&record).Update("status", models.PaymentExpired).Error; err != nil {
			return "", fmt.Errorf("failed to mark payment expired: %w", err)
		}
	}
	return status, nil
}

// HandleWebhook applies a provider notification. Unknown events are ignored.
func (s *PaymentService) HandleWebhook(ctx context.Context, event *dto.PaymentWebhook) error {
	if event.Event != "billing.paid" && event.Data.Status != payment.StatusPaid {
		return nil
	}
	if event.Data.ID == "" {
		return errors.New("webhook without payment id")
	}
	return s.markPaid(ctx, event.Data.ID)
}

// markPaid records the payment as paid and extends the user's subscription
// by one period, once per payment.
func (s *PaymentService) markPaid(ctx context.Context, providerID string) error {
	var userID string
	activated := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record models.Payment
		if err := forUpdate(tx).First(&record, "provider_id = ?", providerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPaymentNotFound
			}
			return err
		}
		userID = record.UserID
		if record.Status == models.PaymentPaid {
			return nil
		}

		now := s.now().UTC()
		if err := tx.Model(&record).Updates(map[string]interface{}{
			"status":  models.PaymentPaid,
			"paid_at": now,
		}).Error; err != nil {
			return err
		}

		var profile models.UserProfile
		if err := forUpdate(tx).First(&profile, "id = ?", record.UserID).Error; err != nil {
			return fmt.Errorf("payment owner profile: %w", err)
		}
		start := now
		if profile.SubscriptionEndsAt != nil && profile.SubscriptionEndsAt.After(now) {
			start = *profile.SubscriptionEndsAt
		}
		activated = true
		return tx.Model(&profile).Updates(map[string]interface{}{
			"subscription_status":  models.SubscriptionActive,
			"subscription_plan":    record.Plan,
			"subscription_ends_at": start.Add(subscriptionPeriod),
		}).Error
	})
	if err != nil {
		return err
	}

	if activated {
		slog.Info("subscription activated", "user_id", userID, "provider_id", providerID)
		realtime.PublishAll(ctx, s.feed, realtime.UserTopic(userID))
	}
	return nil
}

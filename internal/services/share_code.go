package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/models"
	"gorm.io/gorm"
)

const (
	shareCodeLength   = 8
	shareCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	shareCodeAttempts = 5
)

func randomShareCode() (string, error) {
	buf := make([]byte, shareCodeLength)
	max := big.NewInt(int64(len(shareCodeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate share code: %w", err)
		}
		buf[i] = shareCodeAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// uniqueShareCode picks a share code no profile uses yet.
func uniqueShareCode(ctx context.Context, tx *gorm.DB) (string, error) {
	for i := 0; i < shareCodeAttempts; i++ {
		code, err := randomShareCode()
		if err != nil {
			return "", err
		}
		var count int64
		if err := tx.WithContext(ctx).Model(&models.UserProfile{}).Where("dashboard_share_code = ?", code).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to allocate a unique share code after %d attempts", shareCodeAttempts)
}

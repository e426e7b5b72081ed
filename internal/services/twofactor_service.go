package services

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/somnifex/PromptManager/config"
	"github.com/somnifex/PromptManager/internal/database"
	"github.com/somnifex/PromptManager/internal/models"
)

var ErrInvalidTwoFactorCode = errors.New("invalid two-factor code")

// TwoFactorSetupData is what the setup endpoint hands back to the client.
// QRCode is a base64 PNG data payload, nil when rendering failed.
type TwoFactorSetupData struct {
	Secret string  `json:"secret"`
	URI    string  `json:"uri"`
	QRCode *string `json:"qr_code"`
	Error  string  `json:"error,omitempty"`
}

// GenerateTwoFactorSecret returns the user's TOTP secret, creating and
// persisting one on first use.
func GenerateTwoFactorSecret(user *models.User) (string, error) {
	if user.TwoFactorSecret != "" {
		return user.TwoFactorSecret, nil
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return "", err
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      cfg.TOTPIssuer,
		AccountName: user.Username,
	})
	if err != nil {
		return "", err
	}

	secret := key.Secret()
	if err := database.DB.Model(user).Update("two_factor_secret", secret).Error; err != nil {
		return "", err
	}
	user.TwoFactorSecret = secret

	invalidateUserCache(user.ID)

	return secret, nil
}

// TwoFactorProvisioningURI builds the otpauth:// URI authenticator apps scan.
func TwoFactorProvisioningURI(user *models.User) (string, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return "", err
	}

	issuer := cfg.TOTPIssuer
	label := url.PathEscape(fmt.Sprintf("%s:%s", issuer, user.Username))
	params := url.Values{}
	params.Set("secret", user.TwoFactorSecret)
	params.Set("issuer", issuer)

	return fmt.Sprintf("otpauth://totp/%s?%s", label, params.Encode()), nil
}

// TwoFactorSetup generates (or reuses) the secret and renders the QR code.
// A QR failure is non-fatal: the secret and URI are still returned.
func TwoFactorSetup(user *models.User) (*TwoFactorSetupData, error) {
	secret, err := GenerateTwoFactorSecret(user)
	if err != nil {
		return nil, err
	}

	uri, err := TwoFactorProvisioningURI(user)
	if err != nil {
		return nil, err
	}

	data := &TwoFactorSetupData{Secret: secret, URI: uri}

	png, err := qrcode.Encode(uri, qrcode.Medium, 256)
	if err != nil {
		data.Error = fmt.Sprintf("failed to render QR code: %v", err)
		return data, nil
	}

	encoded := "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
	data.QRCode = &encoded
	return data, nil
}

// VerifyTwoFactorCode checks a 6-digit TOTP code against the stored secret.
func VerifyTwoFactorCode(user *models.User, code string) bool {
	if user.TwoFactorSecret == "" {
		return false
	}
	return totp.Validate(code, user.TwoFactorSecret)
}

// EnableTwoFactor turns on 2FA after the user proves possession of the secret.
func EnableTwoFactor(user *models.User, code string) error {
	if !VerifyTwoFactorCode(user, code) {
		return ErrInvalidTwoFactorCode
	}

	if err := database.DB.Model(user).Update("two_factor_enabled", true).Error; err != nil {
		return err
	}
	user.TwoFactorEnabled = true

	invalidateUserCache(user.ID)
	return nil
}

// DisableTwoFactor is unconditional and also discards the secret.
func DisableTwoFactor(user *models.User) error {
	updates := map[string]interface{}{
		"two_factor_enabled": false,
		"two_factor_secret":  "",
	}
	if err := database.DB.Model(user).Updates(updates).Error; err != nil {
		return err
	}
	user.TwoFactorEnabled = false
	user.TwoFactorSecret = ""

	invalidateUserCache(user.ID)
	return nil
}

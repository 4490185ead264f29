// Package core — интерактивный слой авторизации поверх gotd.
// TerminalAuthenticator реализует auth.UserAuthenticator: номер телефона, код,
// пароль 2FA, согласие с ToS и регистрация читаются из терминала.
package core

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"

	"tg-channel-reader/internal/infra/pr"
)

// TerminalAuthenticator собирает данные для входа из терминала.
type TerminalAuthenticator struct {
	// PhoneNumber — номер в формате E.164. Пустой номер запрашивается у пользователя.
	PhoneNumber string
}

var _ auth.UserAuthenticator = TerminalAuthenticator{}

// Phone возвращает заданный номер или спрашивает его.
func (t TerminalAuthenticator) Phone(_ context.Context) (string, error) {
	if phone := strings.TrimSpace(t.PhoneNumber); phone != "" {
		return phone, nil
	}
	phone, err := pr.Ask("Enter phone number (international format): ")
	if err != nil {
		return "", err
	}
	if phone == "" {
		return "", errors.New("phone number is required")
	}
	return phone, nil
}

// Code запрашивает код подтверждения, пришедший в Telegram.
func (t TerminalAuthenticator) Code(_ context.Context, _ *tg.AuthSentCode) (string, error) {
	return pr.Ask("Enter the code from Telegram: ")
}

// Password считывает пароль двухфакторной аутентификации без эха.
func (t TerminalAuthenticator) Password(_ context.Context) (string, error) {
	return pr.AskSecret("Enter 2FA password: ")
}

// AcceptTermsOfService показывает условия использования. Принимается только y/Y.
func (t TerminalAuthenticator) AcceptTermsOfService(_ context.Context, tos tg.HelpTermsOfService) error {
	pr.ErrPrintf("Telegram Terms of Service: %s\n", tos.Text)
	resp, err := pr.Ask("Do you accept? (y/n): ")
	if err != nil {
		return err
	}
	if !strings.EqualFold(resp, "y") {
		return errors.New("user did not accept terms of service")
	}
	return nil
}

// SignUp собирает имя и необязательную фамилию для нового аккаунта.
func (t TerminalAuthenticator) SignUp(_ context.Context) (auth.UserInfo, error) {
	firstName, err := pr.Ask("Enter your first name: ")
	if err != nil {
		return auth.UserInfo{}, err
	}
	lastName, _ := pr.Ask("Enter your last name (optional): ")
	return auth.UserInfo{
		FirstName: firstName,
		LastName:  lastName,
	}, nil
}

package validator

import (
	"farmmarket/internal/domain/model"
	"farmmarket/internal/repository"
	"farmmarket/internal/usecase"

	"context"
	"net/mail"
	"strings"
)

type AuthValidator struct {
	users repository.UserRepository
}

func NewAuthValidator(users repository.UserRepository) *AuthValidator {
	return &AuthValidator{users: users}
}

func (v *AuthValidator) ValidateRegister(ctx context.Context, name string, email string, password string, role string) error {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name == "" || email == "" || password == "" {
		return usecase.ErrValidation
	}

	if len(name) > 100 {
		return usecase.ErrValidation
	}

	//emailの形式チェック
	if _, err := mail.ParseAddress(email); err != nil {
		return usecase.ErrValidation
	}

	//パスワードは8文字以上
	if len(password) < 8 {
		return usecase.ErrValidation
	}

	//roleはFARMERかBUYERのどちらか
	if !model.IsValidRole(model.Role(role)) {
		return usecase.ErrValidation
	}

	//email重複チェック
	existing, err := v.users.FindByEmail(ctx, email)
	if err != nil {
		return usecase.ErrInternal
	}
	if existing != nil {
		return usecase.ErrConflict
	}

	return nil
}

func (v *AuthValidator) ValidateLogin(ctx context.Context, email string, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return usecase.ErrValidation
	}

	if _, err := mail.ParseAddress(email); err != nil {
		return usecase.ErrValidation
	}

	return nil
}

func (v *AuthValidator) ValidateRefresh(ctx context.Context, refreshToken string, userAgent string) error {
	if refreshToken == "" {
		return usecase.ErrUnauthorized
	}
	return nil
}

func (v *AuthValidator) ValidateLogout(ctx context.Context) error {
	return nil
}

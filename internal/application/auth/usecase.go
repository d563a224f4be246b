package auth

import (
	"context"
	"strings"

	"github.com/jhoicas/custodia-api/internal/application/dto"
	"github.com/jhoicas/custodia-api/internal/application/guard"
	"github.com/jhoicas/custodia-api/internal/domain"
	"github.com/jhoicas/custodia-api/internal/domain/repository"
	"github.com/jhoicas/custodia-api/pkg/jwt"
	"github.com/jhoicas/custodia-api/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// AuthUseCase login del personal por teléfono + password/PIN.
type AuthUseCase struct {
	userRepo repository.UserRepository
	jwtCfg   JWTConfig
	log      *logger.Logger
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(userRepo repository.UserRepository, jwtCfg JWTConfig, log *logger.Logger) *AuthUseCase {
	return &AuthUseCase{userRepo: userRepo, jwtCfg: jwtCfg, log: logger.OrNop(log).Named("auth")}
}

// Login verifica teléfono/password, genera JWT (user, bar, role) y retorna token + usuario.
// Usuario inexistente, password incorrecto o usuario inactivo responden igual: no autorizado.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	phone := strings.TrimSpace(in.Phone)
	if phone == "" || in.Password == "" {
		return nil, domain.Validation("teléfono y password son obligatorios")
	}
	user, err := uc.userRepo.FindByPhone(ctx, phone)
	if err != nil {
		return nil, guard.Classify(err)
	}
	if user == nil {
		return nil, uc.denied(phone, "usuario no encontrado")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, uc.denied(phone, "password incorrecto")
	}
	if !user.Active() {
		return nil, uc.denied(phone, "usuario inactivo")
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, user.ID, user.BarID, user.Role, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, domain.Internal(err)
	}
	uc.log.Info().Str("bar_id", user.BarID).Str("user_id", user.ID).Str("role", user.Role).Msg("login")
	return &dto.LoginResponse{
		Token: token,
		User:  dto.FromUser(user),
	}, nil
}

func (uc *AuthUseCase) denied(phone, reason string) error {
	uc.log.Warn().Str("phone", phone).Str("reason", reason).Msg("login rechazado")
	return domain.Unauthorized("credenciales inválidas")
}

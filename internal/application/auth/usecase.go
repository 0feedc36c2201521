package auth

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/evcenter-api/internal/application/dto"
	"github.com/jhoicas/evcenter-api/internal/domain"
	"github.com/jhoicas/evcenter-api/internal/domain/entity"
	"github.com/jhoicas/evcenter-api/internal/domain/repository"
	"github.com/jhoicas/evcenter-api/pkg/jwt"
)

const (
	statusActive      = "active"
	minPasswordLength = 8
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// CenterReader verifica que el centro asignado al personal exista.
type CenterReader interface {
	GetByID(ctx context.Context, id string) (*entity.ServiceCenter, error)
}

// AuthUseCase casos de uso de autenticación: registro, alta de personal, login y perfil.
type AuthUseCase struct {
	userRepo repository.UserRepository
	centers  CenterReader
	jwtCfg   JWTConfig
	cost     int
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(userRepo repository.UserRepository, centers CenterReader, jwtCfg JWTConfig) *AuthUseCase {
	return &AuthUseCase{userRepo: userRepo, centers: centers, jwtCfg: jwtCfg, cost: bcrypt.DefaultCost}
}

// Register crea un cliente. Devuelve ErrEmailAlreadyExists si el email ya existe.
func (uc *AuthUseCase) Register(ctx context.Context, in dto.RegisterRequest) (*dto.UserResponse, error) {
	user, err := uc.newUser(ctx, in.Email, in.Password, in.Name, in.Phone, entity.RoleCustomer, "")
	if err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

// CreateStaff crea personal del centro (solo administradores desde HTTP).
func (uc *AuthUseCase) CreateStaff(ctx context.Context, in dto.CreateStaffRequest) (*dto.UserResponse, error) {
	if !entity.ValidRole(in.Role) || in.Role == entity.RoleCustomer {
		return nil, fmt.Errorf("%w: role debe ser admin, staff o technician", domain.ErrInvalidInput)
	}
	if in.Role != entity.RoleAdmin {
		if in.ServiceCenterID == "" {
			return nil, fmt.Errorf("%w: service_center_id es requerido para el personal", domain.ErrInvalidInput)
		}
		if uc.centers != nil {
			c, err := uc.centers.GetByID(ctx, in.ServiceCenterID)
			if err != nil {
				return nil, err
			}
			if c == nil {
				return nil, domain.ErrNotFound
			}
		}
	}
	user, err := uc.newUser(ctx, in.Email, in.Password, in.Name, in.Phone, in.Role, in.ServiceCenterID)
	if err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

func (uc *AuthUseCase) newUser(ctx context.Context, email, password, name, phone, role, centerID string) (*entity.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: email inválido", domain.ErrInvalidInput)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: la contraseña requiere al menos %d caracteres", domain.ErrInvalidInput, minPasswordLength)
	}
	existing, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailAlreadyExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), uc.cost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	name = strings.TrimSpace(name)
	if name == "" {
		name = email
	}
	user := &entity.User{
		ID:              uuid.New().String(),
		ServiceCenterID: centerID,
		Email:           email,
		PasswordHash:    string(hash),
		Name:            name,
		Phone:           strings.TrimSpace(phone),
		Role:            role,
		Status:          statusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifica email/password, genera JWT y retorna token + usuario.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := uc.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	if user.Status != statusActive {
		return nil, domain.ErrForbidden
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, user.ID, user.ServiceCenterID, user.Role, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token: token,
		User:  *toUserResponse(user),
	}, nil
}

// Me devuelve el perfil del usuario autenticado.
func (uc *AuthUseCase) Me(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return toUserResponse(user), nil
}

func toUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:              u.ID,
		ServiceCenterID: u.ServiceCenterID,
		Email:           u.Email,
		Name:            u.Name,
		Phone:           u.Phone,
		Role:            u.Role,
		Status:          u.Status,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

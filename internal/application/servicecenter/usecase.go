package servicecenter

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/evcenter-api/internal/domain"
	"github.com/jhoicas/evcenter-api/internal/domain/entity"
	"github.com/jhoicas/evcenter-api/internal/domain/repository"
)

// UseCase alta y consulta de centros de servicio.
type UseCase struct {
	repo repository.ServiceCenterRepository
}

// NewUseCase crea el caso de uso.
func NewUseCase(repo repository.ServiceCenterRepository) *UseCase {
	return &UseCase{repo: repo}
}

// CreateInput datos de un centro nuevo.
type CreateInput struct {
	Name    string
	Address string
	Phone   string
	Email   string
}

// Create registra un centro activo.
func (uc *UseCase) Create(ctx context.Context, in CreateInput) (*entity.ServiceCenter, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name es requerido", domain.ErrInvalidInput)
	}
	now := time.Now().UTC()
	c := &entity.ServiceCenter{
		ID:        uuid.New().String(),
		Name:      name,
		Address:   strings.TrimSpace(in.Address),
		Phone:     strings.TrimSpace(in.Phone),
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get devuelve el centro o domain.ErrNotFound.
func (uc *UseCase) Get(ctx context.Context, id string) (*entity.ServiceCenter, error) {
	c, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

// List devuelve los centros ordenados por nombre.
func (uc *UseCase) List(ctx context.Context) ([]*entity.ServiceCenter, error) {
	list, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

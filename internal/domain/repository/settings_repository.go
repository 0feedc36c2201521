package repository

import (
	"context"

	"github.com/jhoicas/evcenter-api/internal/domain/entity"
)

// SettingsRepository guarda el documento único de políticas del sistema.
type SettingsRepository interface {
	// Get devuelve nil, nil si aún no se ha guardado configuración.
	Get(ctx context.Context) (*entity.SystemSettings, error)
	Save(ctx context.Context, s *entity.SystemSettings) error
}

package contract

import (
	"context"

	"sql-agent-be/internal/entity"
	"sql-agent-be/internal/repository/specification"
)

type InteractionRepository interface {
	Create(ctx context.Context, interaction *entity.Interaction) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Interaction, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	Stats(ctx context.Context, specs ...specification.Specification) (*entity.InteractionStats, error)
}

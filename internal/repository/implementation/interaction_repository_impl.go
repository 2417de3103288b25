package implementation

import (
	"context"
	"fmt"
	"math"

	"sql-agent-be/internal/entity"
	"sql-agent-be/internal/mapper"
	"sql-agent-be/internal/model"
	"sql-agent-be/internal/repository/contract"
	"sql-agent-be/internal/repository/specification"

	"gorm.io/gorm"
)

type InteractionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.InteractionMapper
}

// NewInteractionRepository creates the conversation_history table when missing.
func NewInteractionRepository(db *gorm.DB) (contract.InteractionRepository, error) {
	if err := db.AutoMigrate(&model.Interaction{}); err != nil {
		return nil, fmt.Errorf("migrate conversation_history: %w", err)
	}
	return &InteractionRepositoryImpl{
		db:     db,
		mapper: mapper.NewInteractionMapper(),
	}, nil
}

func (r *InteractionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *InteractionRepositoryImpl) Create(ctx context.Context, interaction *entity.Interaction) error {
	m, err := r.mapper.ToModel(interaction)
	if err != nil {
		return fmt.Errorf("encode interaction: %w", err)
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*interaction = *r.mapper.ToEntity(m)
	return nil
}

func (r *InteractionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Interaction, error) {
	var models []*model.Interaction
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *InteractionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Interaction{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Stats averages execution time over successful interactions only.
func (r *InteractionRepositoryImpl) Stats(ctx context.Context, specs ...specification.Specification) (*entity.InteractionStats, error) {
	var row struct {
		Total      int64
		Successful int64
		AvgTime    *float64
	}

	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Interaction{}), specs...)
	err := query.Select(
		"COUNT(*) AS total, " +
			"COALESCE(SUM(CASE WHEN success THEN 1 ELSE 0 END), 0) AS successful, " +
			"AVG(CASE WHEN success THEN execution_time END) AS avg_time",
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}

	stats := &entity.InteractionStats{
		TotalQueries:      row.Total,
		SuccessfulQueries: row.Successful,
	}
	if row.AvgTime != nil {
		stats.AverageExecutionTime = math.Round(*row.AvgTime*1000) / 1000
	}
	return stats, nil
}

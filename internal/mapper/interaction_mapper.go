package mapper

import (
	"encoding/json"

	"sql-agent-be/internal/entity"
	"sql-agent-be/internal/model"

	"gorm.io/datatypes"
)

type InteractionMapper struct{}

func NewInteractionMapper() *InteractionMapper {
	return &InteractionMapper{}
}

func (m *InteractionMapper) ToEntity(i *model.Interaction) *entity.Interaction {
	if i == nil {
		return nil
	}

	var metadata map[string]any
	if len(i.Metadata) > 0 {
		// Unreadable metadata is dropped rather than failing the whole read.
		_ = json.Unmarshal(i.Metadata, &metadata)
	}

	var result json.RawMessage
	if len(i.Result) > 0 {
		result = json.RawMessage(i.Result)
	}

	return &entity.Interaction{
		Id:            i.Id,
		UserId:        i.UserId,
		SessionId:     i.SessionId,
		Question:      i.Question,
		SQLQuery:      i.SQLQuery,
		Result:        result,
		Success:       i.Success,
		ExecutionTime: i.ExecutionTime,
		Metadata:      metadata,
		Timestamp:     i.Timestamp,
	}
}

func (m *InteractionMapper) ToEntities(items []*model.Interaction) []*entity.Interaction {
	entities := make([]*entity.Interaction, len(items))
	for i, item := range items {
		entities[i] = m.ToEntity(item)
	}
	return entities
}

func (m *InteractionMapper) ToModel(i *entity.Interaction) (*model.Interaction, error) {
	if i == nil {
		return nil, nil
	}

	var metadata datatypes.JSON
	if len(i.Metadata) > 0 {
		raw, err := json.Marshal(i.Metadata)
		if err != nil {
			return nil, err
		}
		metadata = datatypes.JSON(raw)
	}

	var result datatypes.JSON
	if len(i.Result) > 0 {
		result = datatypes.JSON(i.Result)
	}

	return &model.Interaction{
		Id:            i.Id,
		UserId:        i.UserId,
		SessionId:     i.SessionId,
		Question:      i.Question,
		SQLQuery:      i.SQLQuery,
		Result:        result,
		Success:       i.Success,
		ExecutionTime: i.ExecutionTime,
		Metadata:      metadata,
		Timestamp:     i.Timestamp,
	}, nil
}

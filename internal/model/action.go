package model

import "time"

// Action 最小的执行单元。CompletedAt 是"已完成"的唯一依据，一旦写入不可清除或覆盖
// swagger:model Action
type Action struct {
	BaseModel
	PhaseID             uint       `gorm:"index:idx_action_phase_order;not null" json:"phaseId"`
	OrderIndex          int        `gorm:"index:idx_action_phase_order;not null" json:"orderIndex"`
	Title               string     `gorm:"size:255;not null" json:"title"`
	CompletionCriterion string     `gorm:"type:text" json:"completionCriterion"`
	EstimatedMinutes    *int       `json:"estimatedMinutes"`
	CompletedAt         *time.Time `gorm:"index" json:"completedAt"`
}

func (Action) TableName() string {
	return "actions"
}

func (a *Action) IsCompleted() bool {
	return a.CompletedAt != nil
}

package model

// Phase 目标下的有序阶段
// swagger:model Phase
type Phase struct {
	BaseModel
	GoalID     uint     `gorm:"index:idx_phase_goal_order;not null" json:"goalId"`
	OrderIndex int      `gorm:"index:idx_phase_goal_order;not null" json:"orderIndex"`
	Name       string   `gorm:"size:255;not null" json:"name"`
	Actions    []Action `gorm:"foreignKey:PhaseID" json:"actions,omitempty"`
}

func (Phase) TableName() string {
	return "phases"
}

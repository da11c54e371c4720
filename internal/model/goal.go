package model

import "time"

type GoalStatus string

const (
	GoalActive    GoalStatus = "active"
	GoalPaused    GoalStatus = "paused"
	GoalCompleted GoalStatus = "completed"
)

// Goal 用户的长期目标，由有序的阶段组成
// swagger:model Goal
type Goal struct {
	BaseModel
	UserID    uint       `gorm:"index;not null" json:"userId"`
	Name      string     `gorm:"size:255;not null" json:"name"`
	Category  string     `gorm:"size:64" json:"category"`
	StartDate *time.Time `json:"startDate"`
	EndDate   *time.Time `json:"endDate"`
	Status    GoalStatus `gorm:"size:16;not null;default:'active';index" json:"status"`
	Phases    []Phase    `gorm:"foreignKey:GoalID" json:"phases,omitempty"`
}

func (Goal) TableName() string {
	return "goals"
}

// IsTerminal 已完成的目标不允许再改变状态
func (g *Goal) IsTerminal() bool {
	return g.Status == GoalCompleted
}

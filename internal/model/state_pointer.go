package model

// StatePointer 每个用户一行，指向"当前应该做什么"
// swagger:model StatePointer
type StatePointer struct {
	BaseModel
	UserID          uint  `gorm:"uniqueIndex;not null" json:"userId"`
	CurrentGoalID   *uint `json:"currentGoalId"`
	CurrentPhaseID  *uint `json:"currentPhaseId"`
	CurrentActionID *uint `json:"currentActionId"`
}

func (StatePointer) TableName() string {
	return "state_pointers"
}

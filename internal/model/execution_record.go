package model

// ExecutionRecord 每个 (用户, 行动, 日期) 一条的执行历史，仅用于审计，推进以 Action.CompletedAt 为准
// swagger:model ExecutionRecord
type ExecutionRecord struct {
	BaseModel
	UserID     uint   `gorm:"not null;uniqueIndex:idx_exec_user_action_date,priority:1;index:idx_exec_user_date,priority:1" json:"userId"`
	ActionID   uint   `gorm:"not null;uniqueIndex:idx_exec_user_action_date,priority:2" json:"actionId"`
	RecordDate string `gorm:"size:10;not null;uniqueIndex:idx_exec_user_action_date,priority:3;index:idx_exec_user_date,priority:2" json:"recordDate"`
	Completed  bool   `gorm:"not null;default:false" json:"completed"`
	Difficulty *int   `json:"difficulty"`
	Energy     *int   `json:"energy"`
}

func (ExecutionRecord) TableName() string {
	return "execution_records"
}

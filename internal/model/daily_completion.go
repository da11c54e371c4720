package model

// DailyCompletion 每个用户每天至多一条的完成占位记录，在完成事务内写入
type DailyCompletion struct {
	BaseModel
	UserID      uint   `gorm:"not null;uniqueIndex:idx_daily_user_day,priority:1" json:"userId"`
	CompletedOn string `gorm:"size:10;not null;uniqueIndex:idx_daily_user_day,priority:2" json:"completedOn"`
	ActionID    uint   `gorm:"not null;index" json:"actionId"`
}

func (DailyCompletion) TableName() string {
	return "daily_completions"
}

package model

import (
	"time"
)

// User 用户资料与匹配偏好。账号主体由认证服务管理，
// 这里只保存匹配和展示需要的属性，UserID 即认证服务下发的稳定标识。
type User struct {
	UserID     string `gorm:"primaryKey;type:varchar(64)"`
	Nickname   string `gorm:"type:varchar(50)"`
	Gender     string `gorm:"type:varchar(10);index:idx_match,priority:1"`
	Region     string `gorm:"type:varchar(50);index:idx_match,priority:2"`
	BirthYear  int
	AvatarURL  string `gorm:"type:varchar(255)"`
	Bio        string `gorm:"type:varchar(500)"`
	SeekGender string `gorm:"type:varchar(10)"`
	SeekRegion string `gorm:"type:varchar(50)"`
	IsBan      bool   `gorm:"type:tinyint(1);default:0"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (User) TableName() string {
	return "users"
}

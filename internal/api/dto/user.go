package dto

// ProfileDTO 用户资料响应
type ProfileDTO struct {
	UserID    string `json:"user_id"`
	Nickname  string `json:"nickname"`
	Gender    string `json:"gender"`
	Region    string `json:"region"`
	BirthYear int    `json:"birth_year"`
	AvatarURL string `json:"avatar_url"`
	Bio       string `json:"bio"`
}

// UpdateProfileReq 资料更新请求体
type UpdateProfileReq struct {
	Nickname   string `json:"nickname"`
	Region     string `json:"region"`
	AvatarURL  string `json:"avatar_url"`
	Bio        string `json:"bio"`
	SeekGender string `json:"seek_gender"`
	SeekRegion string `json:"seek_region"`
}

// MatchDTO 匹配列表项
type MatchDTO struct {
	UserID    string `json:"user_id"`
	Nickname  string `json:"nickname"`
	Region    string `json:"region"`
	BirthYear int    `json:"birth_year"`
	AvatarURL string `json:"avatar_url"`
	Bio       string `json:"bio"`
	Online    bool   `json:"online"`
}

// MatchPageDTO 匹配列表分页响应
type MatchPageDTO struct {
	Page    int         `json:"page"`
	Matches []*MatchDTO `json:"matches"`
}

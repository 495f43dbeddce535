package model

import "time"

type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	AvatarURL      string    `json:"avatar_url"`
	Qualifications string    `json:"qualifications,omitempty"`
	PortfolioURL   string    `json:"portfolio_url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// UserPublic is the profile subset safe to embed in frames and notifications.
type UserPublic struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}

func (u *User) ToPublic() UserPublic {
	return UserPublic{
		ID:        u.ID,
		Username:  u.Username,
		AvatarURL: u.AvatarURL,
	}
}

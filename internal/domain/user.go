package domain

import "time"

// User is a registered customer.
type User struct {
	ID             string     `json:"id"`
	UserName       string     `json:"userName"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	PasswordHash   string     `json:"-"`
	Address        string     `json:"address,omitempty"`
	ProfilePicture string     `json:"profilePicture,omitempty"`
	PictureKey     string     `json:"-"`
	LastActiveAt   *time.Time `json:"lastActiveAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// UserSummary is the public projection of a user embedded in other resources.
type UserSummary struct {
	ID             string `json:"id"`
	UserName       string `json:"userName"`
	Email          string `json:"email"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

// Admin is a privileged operator. Support agents are admins flagged to take chats.
type Admin struct {
	ID             string    `json:"id"`
	UserName       string    `json:"userName"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	ProfilePicture string    `json:"profilePicture,omitempty"`
	IsSupportAgent bool      `json:"isSupportAgent"`
	CreatedAt      time.Time `json:"createdAt"`
}

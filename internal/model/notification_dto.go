package model

type UnreadCountResponse struct {
	UnreadCount int    `json:"unread_count"`
	Role        string `json:"role"`
}

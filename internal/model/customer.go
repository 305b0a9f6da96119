package model

import "time"

// Customer is a reusable contact that quotes may reference.
type Customer struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	DiscordHandle string    `json:"discordHandle"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

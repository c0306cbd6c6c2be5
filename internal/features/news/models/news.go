package models

import "time"

type News struct {
	ID        int64     `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

type CreateNewsRequest struct {
	Title   string `json:"title" binding:"required,max=180"`
	Content string `json:"content" binding:"required"`
}

type PagedNews struct {
	Items []*News `json:"items"`
	Total int64   `json:"total"`
	Page  int     `json:"page"`
	Size  int     `json:"size"`
}

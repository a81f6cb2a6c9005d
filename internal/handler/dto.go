package handler

import (
	"time"

	"github.com/user/yamdb/internal/model"
)

// TitleResponse 作品读取结构：分类、类型展开为对象
type TitleResponse struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Year        int             `json:"year"`
	Rating      *float64        `json:"rating"`
	Description string          `json:"description"`
	Genre       []model.Genre   `json:"genre"`
	Category    *model.Category `json:"category"`
}

func newTitleResponse(t *model.Title) TitleResponse {
	genres := t.Genres
	if genres == nil {
		genres = []model.Genre{}
	}
	return TitleResponse{
		ID:          t.ID,
		Name:        t.Name,
		Year:        t.Year,
		Rating:      t.Rating,
		Description: t.Description,
		Genre:       genres,
		Category:    t.Category,
	}
}

// ReviewResponse 评论，author 为用户名
type ReviewResponse struct {
	ID      int       `json:"id"`
	Title   int       `json:"title"`
	Author  string    `json:"author"`
	Text    string    `json:"text"`
	Score   int       `json:"score"`
	PubDate time.Time `json:"pub_date"`
}

func newReviewResponse(r *model.Review) ReviewResponse {
	return ReviewResponse{
		ID:      r.ID,
		Title:   r.TitleID,
		Author:  r.AuthorName(),
		Text:    r.Text,
		Score:   r.Score,
		PubDate: r.PubDate,
	}
}

// CommentResponse 回复，author 为用户名
type CommentResponse struct {
	ID      int       `json:"id"`
	Author  string    `json:"author"`
	Text    string    `json:"text"`
	PubDate time.Time `json:"pub_date"`
}

func newCommentResponse(c *model.Comment) CommentResponse {
	return CommentResponse{
		ID:      c.ID,
		Author:  c.AuthorName(),
		Text:    c.Text,
		PubDate: c.PubDate,
	}
}

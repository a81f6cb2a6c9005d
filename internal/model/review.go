package model

import "time"

// 评分范围
const (
	MinScore = 1
	MaxScore = 10
)

// Review 用户对作品的评论，同一用户对同一作品只能评论一次
type Review struct {
	ID       int       `json:"id" gorm:"primaryKey"`
	TitleID  int       `json:"title" gorm:"not null;uniqueIndex:idx_reviews_author_title,priority:2"`
	Title    *Title    `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	AuthorID int       `json:"-" gorm:"not null;uniqueIndex:idx_reviews_author_title,priority:1"`
	Author   *User     `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Text     string    `json:"text" gorm:"not null"`
	Score    int       `json:"score" gorm:"not null;check:chk_reviews_score,score >= 1 AND score <= 10"`
	PubDate  time.Time `json:"pub_date" gorm:"autoCreateTime;index"`
}

// Comment 评论下的回复
type Comment struct {
	ID       int       `json:"id" gorm:"primaryKey"`
	ReviewID int       `json:"review" gorm:"not null;index"`
	Review   *Review   `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	AuthorID int       `json:"-" gorm:"not null;index"`
	Author   *User     `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Text     string    `json:"text" gorm:"not null"`
	PubDate  time.Time `json:"pub_date" gorm:"autoCreateTime;index"`
}

// AuthorName 作者用户名（需预加载 Author）
func (r *Review) AuthorName() string {
	if r.Author == nil {
		return ""
	}
	return r.Author.Username
}

// AuthorName 作者用户名（需预加载 Author）
func (c *Comment) AuthorName() string {
	if c.Author == nil {
		return ""
	}
	return c.Author.Username
}

package model

// Category 作品分类（一个作品至多一个分类）
type Category struct {
	ID   int    `json:"-" gorm:"primaryKey"`
	Name string `json:"name" gorm:"size:256;not null"`
	Slug string `json:"slug" gorm:"size:50;uniqueIndex;not null"`
}

// Genre 作品类型（多对多）
type Genre struct {
	ID   int    `json:"-" gorm:"primaryKey"`
	Name string `json:"name" gorm:"size:256;not null"`
	Slug string `json:"slug" gorm:"size:50;uniqueIndex;not null"`
}

// Title 可被评论的作品
type Title struct {
	ID          int       `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"size:256;not null;index"`
	Year        int       `json:"year" gorm:"not null;index"`
	Description string    `json:"description"`
	CategoryID  *int      `json:"-" gorm:"index"`
	Category    *Category `json:"category" gorm:"constraint:OnDelete:SET NULL"`
	Genres      []Genre   `json:"genre" gorm:"many2many:title_genres;constraint:OnDelete:CASCADE"`

	// Rating 查询时由评论分数实时计算，不落库
	Rating *float64 `json:"rating" gorm:"->;-:migration"`
}

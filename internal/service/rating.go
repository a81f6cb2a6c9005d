package service

import (
	"math"

	"github.com/user/yamdb/internal/model"
)

const ratingEpsilon = 1e-9

// RatingFromMean 规范化平均分：没有评论为 nil；
// 与整数相差在浮点误差内时取整，否则保留原始小数。
func RatingFromMean(mean *float64) *float64 {
	if mean == nil {
		return nil
	}
	v := *mean
	if r := math.Round(v); math.Abs(v-r) < ratingEpsilon {
		v = r
	}
	return &v
}

// MeanScore 计算分数算术平均值
func MeanScore(scores []int) *float64 {
	if len(scores) == 0 {
		return nil
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	mean := float64(sum) / float64(len(scores))
	return &mean
}

func applyRating(titles ...*model.Title) {
	for _, t := range titles {
		if t != nil {
			t.Rating = RatingFromMean(t.Rating)
		}
	}
}

// Package vectordb 提供向量相似度计算的底层实现
package vectordb

import (
	"errors"
	"fmt"
	"math"
)

// ErrDimensionMismatch 向量维度不一致
// 属于配置或数据错误，调用方不应重试
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// CosineDist 计算两个向量的余弦距离
// 返回值范围 [0, 2]，0表示完全相同，2表示完全相反
func CosineDist(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}

	if len(a) == 0 {
		return 0, fmt.Errorf("empty vectors")
	}

	var dotProduct, normA, normB float64

	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	// 处理零向量
	if normA == 0 || normB == 0 {
		return 1.0, nil // 返回中间距离
	}

	// 余弦相似度 = dotProduct / (||a|| * ||b||)
	similarity := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))

	// 余弦距离 = 1 - 余弦相似度
	// 限制在 [0, 2] 范围内（浮点误差可能略微超出）
	distance := 1.0 - similarity
	if distance < 0 {
		distance = 0
	} else if distance > 2 {
		distance = 2
	}

	return distance, nil
}

// CosineSim 计算两个向量的余弦相似度
// 返回值范围 [-1, 1]，1表示完全相同，-1表示完全相反
func CosineSim(a, b []float32) (float64, error) {
	dist, err := CosineDist(a, b)
	if err != nil {
		return 0, err
	}
	return 1.0 - dist, nil
}

// Normalize L2归一化向量，返回新切片
// 零向量原样返回
func Normalize(vec []float32) []float32 {
	var sumSquares float64
	for _, v := range vec {
		sumSquares += float64(v) * float64(v)
	}

	if sumSquares == 0 {
		return vec
	}

	norm := float32(1.0 / math.Sqrt(sumSquares))
	result := make([]float32, len(vec))
	for i, v := range vec {
		result[i] = v * norm
	}

	return result
}

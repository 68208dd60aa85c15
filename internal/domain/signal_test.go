package domain_test

import (
	"testing"

	"github.com/starwatch/sentiment/internal/domain"
)

func TestSentimentLabel(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  string
	}{
		{name: "strong positive", value: 0.8, want: domain.LabelPositive},
		{name: "positive boundary", value: 0.05, want: domain.LabelPositive},
		{name: "upper dead zone", value: 0.049, want: domain.LabelNeutral},
		{name: "zero", value: 0, want: domain.LabelNeutral},
		{name: "lower dead zone", value: -0.049, want: domain.LabelNeutral},
		{name: "negative boundary", value: -0.05, want: domain.LabelNegative},
		{name: "strong negative", value: -0.9, want: domain.LabelNegative},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := domain.SentimentLabel(tt.value); got != tt.want {
				t.Errorf("SentimentLabel(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestEmotionLabel(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  string
	}{
		{name: "joy", value: 0.75, want: domain.EmotionJoy},
		{name: "joy boundary", value: 0.5, want: domain.EmotionJoy},
		{name: "approval", value: 0.2, want: domain.EmotionApproval},
		{name: "neutral", value: 0.0, want: domain.EmotionNeutral},
		{name: "disapproval", value: -0.2, want: domain.EmotionDisapproval},
		{name: "anger boundary", value: -0.5, want: domain.EmotionAnger},
		{name: "anger", value: -0.9, want: domain.EmotionAnger},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := domain.EmotionLabel(tt.value); got != tt.want {
				t.Errorf("EmotionLabel(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestComment_WeightScore(t *testing.T) {
	tests := []struct {
		name  string
		likes int
		want  float64
	}{
		{name: "no likes", likes: 0, want: 1.0},
		{name: "fifty likes", likes: 50, want: 1.5},
		{name: "hundred likes", likes: 100, want: 2.0},
		{name: "thousand likes", likes: 1000, want: 11.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := domain.Comment{Likes: tt.likes}
			if got := c.WeightScore(); got != tt.want {
				t.Errorf("WeightScore(likes=%d) = %v, want %v", tt.likes, got, tt.want)
			}
		})
	}
}

package receipt

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.00"},
		{5000, "5000.00"},
		{1234.5, "1234.50"},
		{math.NaN(), "0.00"},
		{math.Inf(1), "0.00"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, FormatAmount(tc.in))
	}
}

func TestAmountInWords(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "Zero"},
		{math.NaN(), "Zero"},
		{7, "Seven"},
		{13, "Thirteen"},
		{40, "Forty"},
		{95, "Ninety-Five"},
		{100, "One Hundred"},
		{5000, "Five Thousand"},
		{12345.99, "Twelve Thousand Three Hundred Forty-Five"},
		{1000001, "One Million One"},
		{2500000000, "Two Billion Five Hundred Million"},
		{-1500, "Minus One Thousand Five Hundred"},
		{-0.75, "Zero"},
		{999_999_999_999_999, "Nine Hundred Ninety-Nine Thousand Nine Hundred Ninety-Nine Billion Nine Hundred Ninety-Nine Million Nine Hundred Ninety-Nine Thousand Nine Hundred Ninety-Nine"},
		{1e15, "Zero"},
		{-1e19, "Zero"},
		{1e19, "Zero"},
		{math.MaxFloat64, "Zero"},
		{-math.MaxFloat64, "Zero"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, AmountInWords(tc.in), "amount %v", tc.in)
	}
}

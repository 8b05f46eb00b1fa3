package service

import (
	"testing"

	"github.com/fusaf/fusaf-service/internal/repository"
)

func TestNormalizePage(t *testing.T) {
	cases := []struct {
		name string
		in   repository.Page
		want repository.Page
	}{
		{"defaults", repository.Page{}, repository.Page{Limit: 50}},
		{"capped", repository.Page{Limit: 1000, Offset: 10}, repository.Page{Limit: 200, Offset: 10}},
		{"negative offset", repository.Page{Limit: 5, Offset: -3}, repository.Page{Limit: 5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := normalizePage(tc.in); got != tc.want {
				t.Errorf("normalizePage(%+v) = %+v; want %+v", tc.in, got, tc.want)
			}
		})
	}
}

func TestIsEmail(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"olena@fusaf.org.ua", true},
		{"coach+club@gmail.com", true},
		{"", false},
		{"no-at-sign", false},
		{"two@@signs.ua", false},
	}
	for _, tc := range cases {
		if got := isEmail(tc.input); got != tc.want {
			t.Errorf("isEmail(%q) = %v; want %v", tc.input, got, tc.want)
		}
	}
}

func TestCheckName(t *testing.T) {
	long := make([]rune, 101)
	for i := range long {
		long[i] = 'я'
	}
	cases := []struct {
		name  string
		input string
		bad   bool
	}{
		{"cyrillic", "Олена", false},
		{"blank", "   ", true},
		{"100 runes", string(long[:100]), false},
		{"101 runes", string(long), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := checkName(nil, "first_name", tc.input)
			if (len(got) > 0) != tc.bad {
				t.Errorf("checkName(%q) = %+v; want bad=%v", tc.input, got, tc.bad)
			}
		})
	}
}

func TestCheckScoreAndRank(t *testing.T) {
	score := func(v float64) *float64 { return &v }
	rank := func(v int) *int { return &v }

	if len(checkScore(nil, "total_score", nil)) != 0 {
		t.Error("nil score must be accepted")
	}
	for _, v := range []float64{0, 55.5, 100} {
		if len(checkScore(nil, "total_score", score(v))) != 0 {
			t.Errorf("score %v rejected", v)
		}
	}
	for _, v := range []float64{-0.1, 100.01} {
		if len(checkScore(nil, "total_score", score(v))) == 0 {
			t.Errorf("score %v accepted", v)
		}
	}
	if len(checkRank(nil, rank(1))) != 0 || len(checkRank(nil, rank(0))) == 0 {
		t.Error("rank must be >= 1")
	}
}

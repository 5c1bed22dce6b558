package services

import (
	"context"

	"freshmart/internal/domain"
	"freshmart/internal/repos"
)

type ReviewService struct {
	Repo  *repos.ReviewRepo
	Prods ProductReader
}

func NewReviewService(r *repos.ReviewRepo, prods ProductReader) *ReviewService {
	return &ReviewService{Repo: r, Prods: prods}
}

type ReviewSummary struct {
	Reviews []domain.Review `json:"reviews"`
	Average float64         `json:"average"`
	Count   int             `json:"count"`
}

func (s *ReviewService) Add(ctx context.Context, productID, userID string, stars int, comment string) error {
	if stars < 1 || stars > 5 {
		return domain.Errorf(domain.KindInvalidInput, "rating must be between 1 and 5")
	}
	if _, err := s.Prods.Get(ctx, productID); err != nil {
		return productErr(err)
	}
	if err := s.Repo.Add(ctx, productID, userID, stars, comment); err != nil {
		return domain.Persistence(err, "could not save review")
	}
	return nil
}

func (s *ReviewService) List(ctx context.Context, productID string) (ReviewSummary, error) {
	rows, err := s.Repo.ListByProduct(ctx, productID)
	if err != nil {
		return ReviewSummary{}, domain.Persistence(err, "could not list reviews")
	}
	sum := 0
	for _, r := range rows {
		sum += r.Stars
	}
	out := ReviewSummary{Reviews: rows, Count: len(rows)}
	if len(rows) > 0 {
		out.Average = float64(sum) / float64(len(rows))
	}
	return out, nil
}

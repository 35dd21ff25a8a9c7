package stats

import (
	"context"

	"github.com/verte-zerg/paperlist/internal/model"
)

// Source provides the persisted trophy data.
type Source interface {
	Trophies(ctx context.Context) (model.TrophyCounts, error)
	History(ctx context.Context, cfg model.HistoryConfig) ([]model.Finish, error)
}

// Report contains precomputed data for trophy rendering.
type Report struct {
	Counts   model.TrophyCounts
	Finishes []model.Finish
	Summary  Summary
}

// BuildReport loads and prepares data for trophy rendering.
func BuildReport(ctx context.Context, src Source, cfg model.HistoryConfig) (Report, error) {
	counts, err := src.Trophies(ctx)
	if err != nil {
		return Report{}, err
	}
	finishes, err := src.History(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	return Report{
		Counts:   counts,
		Finishes: finishes,
		Summary:  Summarize(counts, finishes),
	}, nil
}

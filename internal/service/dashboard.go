package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/illegalcall/quickfix/internal/apperror"
	"github.com/illegalcall/quickfix/internal/models"
)

const (
	recentItems  = 5
	historyLimit = 100
	minChartYear = 2000
	maxChartYear = 2100
)

type DashboardService struct {
	profiles ProfileStore
	finance  FinanceStore
	chats    ChatStore
	tasks    TaskStore
	catalog  CatalogStore
}

func NewDashboardService(profiles ProfileStore, finance FinanceStore, chats ChatStore, tasks TaskStore, catalog CatalogStore) *DashboardService {
	return &DashboardService{profiles: profiles, finance: finance, chats: chats, tasks: tasks, catalog: catalog}
}

// History lists AI conversations and professional tasks. A status filter
// narrows only the list it belongs to.
func (s *DashboardService) History(ctx context.Context, userID string, f models.HistoryFilter) (*models.History, error) {
	since, err := historySince(f.Time, now())
	if err != nil {
		return nil, err
	}

	convFilter := models.ConversationFilter{Since: since, Limit: historyLimit}
	taskFilter := models.TaskFilter{Since: since, Limit: historyLimit}
	switch f.Status {
	case "", "all":
	case "resolved", "unresolved":
		resolved := f.Status == "resolved"
		convFilter.Resolved = &resolved
	default:
		st, err := ParseTaskStatus(f.Status)
		if err != nil {
			return nil, err
		}
		taskFilter.Status = st
	}

	h := &models.History{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		h.AI, err = s.chats.ListConversations(gctx, userID, convFilter)
		return err
	})
	g.Go(func() error {
		var err error
		h.Professional, err = s.tasks.List(gctx, userID, taskFilter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return h, nil
}

// Chart returns twelve monthly totals. Year zero means the current year.
func (s *DashboardService) Chart(ctx context.Context, userID string, year int) ([]models.ChartPoint, error) {
	if year == 0 {
		year = now().Year()
	}
	if year < minChartYear || year > maxChartYear {
		return nil, apperror.Validation("year", "year is out of range")
	}
	return s.finance.MonthlyTotals(ctx, userID, year)
}

func (s *DashboardService) Dashboard(ctx context.Context, userID string) (*models.Dashboard, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	d := &models.Dashboard{Stats: profile.Stats()}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		d.Chart, err = s.finance.MonthlyTotals(gctx, userID, now().Year())
		return err
	})
	g.Go(func() error {
		var err error
		d.RecentChats, err = s.chats.ListConversations(gctx, userID, models.ConversationFilter{Limit: recentItems})
		return err
	})
	g.Go(func() error {
		var err error
		d.RecentTasks, err = s.tasks.List(gctx, userID, models.TaskFilter{Limit: recentItems})
		return err
	})
	g.Go(func() error {
		var err error
		d.Advertisement, err = s.catalog.LatestAdvertisement(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}

func historySince(window string, t time.Time) (*time.Time, error) {
	var since time.Time
	switch window {
	case "", "all":
		return nil, nil
	case "week":
		since = t.AddDate(0, 0, -7)
	case "month":
		since = t.AddDate(0, -1, 0)
	default:
		return nil, apperror.Validation("time", "time must be all, week or month")
	}
	return &since, nil
}

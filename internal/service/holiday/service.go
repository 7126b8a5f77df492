package holiday

import (
	"context"
	"fmt"
	"time"

	"github.com/veritas-hq/attendance-engine/internal/domain/holiday"
	"github.com/veritas-hq/attendance-engine/internal/service/resolution"
)

type HolidayServiceImpl struct {
	holidays holiday.Repository
	resolver *resolution.Service
}

func NewHolidayService(holidays holiday.Repository, resolver *resolution.Service) holiday.Service {
	return &HolidayServiceImpl{holidays: holidays, resolver: resolver}
}

// Create implements holiday.Service.
func (h *HolidayServiceImpl) Create(ctx context.Context, req holiday.CreateHolidayRequest) (holiday.HolidayResponse, error) {
	if err := req.Validate(); err != nil {
		return holiday.HolidayResponse{}, err
	}

	date, err := time.ParseInLocation("2006-01-02", req.Date, h.resolver.Location())
	if err != nil {
		return holiday.HolidayResponse{}, fmt.Errorf("invalid date: %w", err)
	}

	created, err := h.holidays.Create(ctx, holiday.Holiday{
		Date:        date,
		Name:        req.Name,
		IsTentative: req.IsTentative,
	})
	if err != nil {
		return holiday.HolidayResponse{}, err
	}

	// A confirmed holiday reclassifies the date for every employee. Tentative
	// ones do not participate in resolution, so nothing to flush.
	if !created.IsTentative {
		h.resolver.InvalidateAllStatuses()
	}

	return holiday.NewHolidayResponse(created), nil
}

// Confirm implements holiday.Service.
func (h *HolidayServiceImpl) Confirm(ctx context.Context, id string) (holiday.HolidayResponse, error) {
	if err := h.holidays.Confirm(ctx, id); err != nil {
		return holiday.HolidayResponse{}, err
	}

	h.resolver.InvalidateAllStatuses()

	hol, err := h.holidays.GetByID(ctx, id)
	if err != nil {
		return holiday.HolidayResponse{}, err
	}
	return holiday.NewHolidayResponse(hol), nil
}

// List implements holiday.Service.
func (h *HolidayServiceImpl) List(ctx context.Context, from, to string) ([]holiday.HolidayResponse, error) {
	loc := h.resolver.Location()
	start, err := time.ParseInLocation("2006-01-02", from, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid from date: %w", err)
	}
	end, err := time.ParseInLocation("2006-01-02", to, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid to date: %w", err)
	}

	holidays, err := h.holidays.List(ctx, start, end)
	if err != nil {
		return nil, err
	}

	out := make([]holiday.HolidayResponse, 0, len(holidays))
	for _, hol := range holidays {
		out = append(out, holiday.NewHolidayResponse(hol))
	}
	return out, nil
}

// Delete implements holiday.Service.
func (h *HolidayServiceImpl) Delete(ctx context.Context, id string) error {
	if err := h.holidays.Delete(ctx, id); err != nil {
		return err
	}
	h.resolver.InvalidateAllStatuses()
	return nil
}

package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"finance-tracker/internal/model"
)

// MockService is a mock quote service for testing
type MockService struct {
	mock.Mock
}

func (m *MockService) Quote(ctx context.Context, ticker string) (float64, error) {
	args := m.Called(ticker)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockService) History(ctx context.Context, ticker string, from, to model.Date) ([]Bar, error) {
	args := m.Called(ticker, from.String(), to.String())
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Bar), args.Error(1)
}

func (m *MockService) Search(ctx context.Context, query string) ([]Match, error) {
	args := m.Called(query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Match), args.Error(1)
}

func bar(date string, close float64) Bar {
	return Bar{Date: model.MustParseDate(date), Close: close}
}

func TestResolver_LiveFixedPrice(t *testing.T) {
	svc := new(MockService)
	r := NewResolver(svc, time.Second, zerolog.Nop())

	for _, ticker := range []string{"N/A", "n/a", ""} {
		p := r.Live(context.Background(), ticker)
		assert.True(t, p.OK)
		assert.Equal(t, 1.0, p.Value)
	}
	svc.AssertNotCalled(t, "Quote", mock.Anything)
}

func TestResolver_Live(t *testing.T) {
	svc := new(MockService)
	svc.On("Quote", "AAPL").Return(190.5, nil)
	svc.On("Quote", "DOWN").Return(0.0, errors.New("connection refused"))
	svc.On("Quote", "ZERO").Return(0.0, nil)
	r := NewResolver(svc, time.Second, zerolog.Nop())

	assert.Equal(t, Available(190.5), r.Live(context.Background(), "AAPL"))
	assert.Equal(t, Unavailable, r.Live(context.Background(), "DOWN"))
	assert.Equal(t, Unavailable, r.Live(context.Background(), "ZERO"))
	svc.AssertExpectations(t)
}

// slowService blocks until the context is done.
type slowService struct{ MockService }

func (s *slowService) Quote(ctx context.Context, ticker string) (float64, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

func TestResolver_LiveTimeout(t *testing.T) {
	r := NewResolver(&slowService{}, 20*time.Millisecond, zerolog.Nop())

	start := time.Now()
	p := r.Live(context.Background(), "SLOW")
	assert.False(t, p.OK)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestResolver_HistoricalTradingDay(t *testing.T) {
	svc := new(MockService)
	svc.On("History", "AAPL", "2024-01-10", "2024-01-12").
		Return([]Bar{bar("2024-01-10", 186.19), bar("2024-01-11", 185.59)}, nil)
	r := NewResolver(svc, time.Second, zerolog.Nop())

	p := r.Historical(context.Background(), "AAPL", model.MustParseDate("2024-01-10"))
	assert.Equal(t, Available(186.19), p)
	svc.AssertNumberOfCalls(t, "History", 1)
}

func TestResolver_HistoricalWeekendUsesPriorSession(t *testing.T) {
	svc := new(MockService)
	// Saturday 2024-01-13: nothing on Sat/Sun, Friday's close is the answer.
	svc.On("History", "AAPL", "2024-01-13", "2024-01-15").Return([]Bar{}, nil)
	svc.On("History", "AAPL", "2024-01-09", "2024-01-15").
		Return([]Bar{bar("2024-01-09", 185.14), bar("2024-01-11", 185.59), bar("2024-01-12", 185.92), bar("2024-01-10", 186.19)}, nil)
	r := NewResolver(svc, time.Second, zerolog.Nop())

	p := r.Historical(context.Background(), "AAPL", model.MustParseDate("2024-01-13"))
	assert.Equal(t, Available(185.92), p)
	svc.AssertExpectations(t)
}

func TestResolver_HistoricalFirstWindowErrorRetries(t *testing.T) {
	svc := new(MockService)
	svc.On("History", "AAPL", "2024-01-13", "2024-01-15").Return(nil, errors.New("No data found"))
	svc.On("History", "AAPL", "2024-01-09", "2024-01-15").Return([]Bar{bar("2024-01-12", 185.92)}, nil)
	r := NewResolver(svc, time.Second, zerolog.Nop())

	assert.Equal(t, Available(185.92), r.Historical(context.Background(), "AAPL", model.MustParseDate("2024-01-13")))
}

func TestResolver_HistoricalUnavailable(t *testing.T) {
	svc := new(MockService)
	svc.On("History", "GONE", mock.Anything, mock.Anything).Return([]Bar{}, nil)
	r := NewResolver(svc, time.Second, zerolog.Nop())

	p := r.Historical(context.Background(), "GONE", model.MustParseDate("2024-01-13"))
	assert.False(t, p.OK)
	assert.Zero(t, p.Value)
	svc.AssertNumberOfCalls(t, "History", 2)
}

func TestResolver_HistoricalIgnoresBarsOutsideWindow(t *testing.T) {
	svc := new(MockService)
	svc.On("History", "AAPL", "2024-01-13", "2024-01-15").Return([]Bar{bar("2024-01-16", 190)}, nil)
	svc.On("History", "AAPL", "2024-01-09", "2024-01-15").Return([]Bar{bar("2024-01-12", 185.92), bar("2024-01-16", 190)}, nil)
	r := NewResolver(svc, time.Second, zerolog.Nop())

	assert.Equal(t, Available(185.92), r.Historical(context.Background(), "AAPL", model.MustParseDate("2024-01-13")))
}

func TestResolver_HistoricalFixedPrice(t *testing.T) {
	svc := new(MockService)
	r := NewResolver(svc, time.Second, zerolog.Nop())

	assert.Equal(t, Available(1.0), r.Historical(context.Background(), "n/a", model.MustParseDate("2024-01-13")))
	svc.AssertNotCalled(t, "History", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolver_Search(t *testing.T) {
	svc := new(MockService)
	svc.On("Search", "apple").Return([]Match{{Name: "Apple Inc.", Ticker: "AAPL"}}, nil)
	svc.On("Search", "nothing here").Return(nil, nil)
	svc.On("Search", "down").Return(nil, errors.New("503"))
	r := NewResolver(svc, time.Second, zerolog.Nop())

	t.Run("short query", func(t *testing.T) {
		matches, err := r.Search(context.Background(), " a ")
		require.NoError(t, err)
		assert.Empty(t, matches)
		assert.NotNil(t, matches)
		svc.AssertNotCalled(t, "Search", "a")
	})

	t.Run("matches", func(t *testing.T) {
		matches, err := r.Search(context.Background(), "apple")
		require.NoError(t, err)
		assert.Equal(t, []Match{{Name: "Apple Inc.", Ticker: "AAPL"}}, matches)
	})

	t.Run("no matches", func(t *testing.T) {
		matches, err := r.Search(context.Background(), "nothing here")
		require.NoError(t, err)
		assert.NotNil(t, matches)
		assert.Empty(t, matches)
	})

	t.Run("service down", func(t *testing.T) {
		matches, err := r.Search(context.Background(), "down")
		assert.ErrorIs(t, err, ErrSearchUnavailable)
		assert.Nil(t, matches)
	})
}

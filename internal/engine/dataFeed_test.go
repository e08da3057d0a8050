package engine

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"quantsim/internal/costs"
	"quantsim/types"
)

func TestDataFeed_advanceFeedIndex(t *testing.T) {
	base := day0
	mkBars := func(n int) []types.PriceBar {
		bs := make([]types.PriceBar, n)
		for i := 0; i < n; i++ {
			bs[i] = types.PriceBar{Timestamp: base.AddDate(0, 0, i), Price: d("1")}
		}
		return bs
	}

	type args struct {
		bars     []types.PriceBar
		curIndex int
		curTime  time.Time
	}
	tests := []struct {
		name string
		args args
		want int
	}{
		{
			name: "empty feed",
			args: args{bars: nil, curIndex: -1, curTime: base},
			want: -1,
		},
		{
			name: "before first bar",
			args: args{bars: mkBars(3), curIndex: -1, curTime: base.Add(-time.Hour)},
			want: -1,
		},
		{
			name: "exactly at first bar",
			args: args{bars: mkBars(3), curIndex: -1, curTime: base},
			want: 0,
		},
		{
			name: "between first and second bar",
			args: args{bars: mkBars(3), curIndex: 0, curTime: base.Add(12 * time.Hour)},
			want: 0,
		},
		{
			name: "exactly at second bar",
			args: args{bars: mkBars(3), curIndex: 0, curTime: base.AddDate(0, 0, 1)},
			want: 1,
		},
		{
			name: "skips gap in one call",
			args: args{bars: mkBars(5), curIndex: 0, curTime: base.AddDate(0, 0, 3)},
			want: 3,
		},
		{
			name: "after last bar",
			args: args{bars: mkBars(3), curIndex: 1, curTime: base.AddDate(0, 1, 0)},
			want: 2,
		},
		{
			name: "never moves backwards",
			args: args{bars: mkBars(3), curIndex: 2, curTime: base},
			want: 2,
		},
		{
			name: "index below -1 is clamped",
			args: args{bars: mkBars(3), curIndex: -5, curTime: base},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := advanceFeedIndex(tt.args.bars, barTime, tt.args.curIndex, tt.args.curTime)
			if got != tt.want {
				t.Fatalf("advanceFeedIndex() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDataFeed_tradingDates(t *testing.T) {
	feeds := map[string][]types.PriceBar{
		"A": {{Timestamp: day(0)}, {Timestamp: day(2)}, {Timestamp: day(5)}},
		"B": {{Timestamp: day(1)}, {Timestamp: day(2)}, {Timestamp: day(9)}},
	}

	got := tradingDates(feeds, day(1), day(5))
	want := []time.Time{day(1), day(2), day(5)}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("tradingDates() = %v, want %v", got, want)
	}

	if got := tradingDates(feeds, day(20), day(30)); len(got) != 0 {
		t.Fatalf("tradingDates() out of range = %v, want empty", got)
	}
}

func TestDataFeed_validatePriceSeries(t *testing.T) {
	tests := []struct {
		name    string
		bars    []types.PriceBar
		wantErr bool
	}{
		{name: "valid", bars: priceBars(1, 2, 3)},
		{name: "empty", bars: nil},
		{name: "zero price", bars: priceBars(1, 0, 3), wantErr: true},
		{name: "negative price", bars: priceBars(-1), wantErr: true},
		{
			name:    "duplicate timestamp",
			bars:    []types.PriceBar{{Timestamp: day(0), Price: d("1")}, {Timestamp: day(0), Price: d("2")}},
			wantErr: true,
		},
		{
			name:    "out of order",
			bars:    []types.PriceBar{{Timestamp: day(1), Price: d("1")}, {Timestamp: day(0), Price: d("2")}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePriceSeries("A", tt.bars)
			if (err != nil) != tt.wantErr {
				t.Fatalf("validatePriceSeries() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidPriceSeries) {
				t.Fatalf("error %v does not wrap ErrInvalidPriceSeries", err)
			}
		})
	}
}

func TestMarketFeed_PricesHistoryAndQuote(t *testing.T) {
	prices := map[string][]types.PriceBar{
		"A": priceBars(10, 11, 12),
		"B": {{Timestamp: day(0), Price: d("5")}, {Timestamp: day(2), Price: d("6")}},
	}
	volumes := map[string][]types.Observation{
		"A": {{Timestamp: day(0), Value: 500}, {Timestamp: day(1), Value: 700}},
	}
	feed := newMarketFeed(prices, volumes, nil)

	feed.advance(day(1))
	got := feed.pricesAt(day(1))
	if len(got) != 1 || !got["A"].Equal(d("11")) {
		t.Fatalf("pricesAt(day1) = %v, want only A=11", got)
	}

	hist := feed.history()
	if len(hist["A"]) != 2 || len(hist["B"]) != 1 {
		t.Fatalf("history lengths = A:%d B:%d, want 2 and 1", len(hist["A"]), len(hist["B"]))
	}
	if cap(hist["A"]) != 2 {
		t.Fatalf("history exposes future bars through capacity")
	}

	q := feed.quote("A", d("11"))
	if q.volume != 700 || q.volatility != costs.DefaultVolatility {
		t.Fatalf("quote(A) = %+v", q)
	}
	q = feed.quote("B", d("5"))
	if q.volume != costs.DefaultVolume {
		t.Fatalf("quote(B) volume = %v, want default", q.volume)
	}

	feed.advance(day(2))
	got = feed.pricesAt(day(2))
	if len(got) != 2 || !got["B"].Equal(d("6")) {
		t.Fatalf("pricesAt(day2) = %v", got)
	}
}

package reader_test

import (
	"context"
	"testing"
	"time"

	"github.com/gotd/td/tgerr"
	"go.uber.org/mock/gomock"

	"tg-channel-reader/internal/domain/failure"
	"tg-channel-reader/internal/domain/reader"
	"tg-channel-reader/internal/domain/reader/mock_reader"
)

func history(posts ...reader.RawPost) reader.Iterator[reader.RawPost] {
	return iterOf[reader.RawPost](nil, posts...)
}

func TestFetchManyKeepsOrderAndIsolatesFailures(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	client := mock_reader.NewMockClient(ctrl)
	ctx := context.Background()
	since := fixedNow.Add(-24 * time.Hour)

	gomock.InOrder(
		client.EXPECT().History(ctx, "@alpha", 50).Return(history(post(1, time.Hour, "a", "")), nil),
		client.EXPECT().History(ctx, "@private", 50).Return(nil, tgerr.New(400, "CHANNEL_PRIVATE")),
		client.EXPECT().History(ctx, "@ghost", 50).Return(nil, tgerr.New(400, "USERNAME_NOT_OCCUPIED")),
		client.EXPECT().History(ctx, "@omega", 50).Return(history(), nil),
	)
	client.EXPECT().Replies(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	client.EXPECT().Chat(gomock.Any(), gomock.Any()).Times(0)

	sleeper := &sleepRecorder{}
	f := reader.NewFetcher(client, reader.WithClock(clock), reader.WithSleeper(sleeper.Sleep))

	channels := []string{"@alpha", "@private", "@ghost", "@omega"}
	got := f.FetchMany(ctx, channels, since, reader.BatchOptions{Limit: 50, Delay: 10 * time.Second})

	if len(got) != len(channels) {
		t.Fatalf("len(FetchMany()) = %d, want %d", len(got), len(channels))
	}
	for i, res := range got {
		if res.Channel() != channels[i] {
			t.Fatalf("result[%d].Channel() = %q, want %q", i, res.Channel(), channels[i])
		}
	}

	if p, ok := got[0].Posts(); !ok || p.Count != 1 || !p.Since.Equal(since) {
		t.Fatalf("result[0] = %+v", p)
	}
	if fail, ok := got[1].Failure(); !ok || fail.Kind != failure.KindAccessDenied || fail.Action != failure.ActionRemoveOrRejoin {
		t.Fatalf("result[1] failure = %+v", fail)
	}
	if fail, ok := got[2].Failure(); !ok || fail.Kind != failure.KindNotFound || fail.Action != failure.ActionCheckUsername {
		t.Fatalf("result[2] failure = %+v", fail)
	}
	if p, ok := got[3].Posts(); !ok || p.Count != 0 || p.Messages == nil {
		t.Fatalf("result[3] = %+v", p)
	}

	waits := sleeper.Waits()
	if len(waits) != len(channels)-1 {
		t.Fatalf("waits = %v, want %d delays", waits, len(channels)-1)
	}
	for _, w := range waits {
		if w != 10*time.Second {
			t.Fatalf("waits = %v, want only 10s delays", waits)
		}
	}
}

func TestFetchManyFloodWait(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		flood       string
		retryResult func() (reader.Iterator[reader.RawPost], error)
		wantWaits   []time.Duration
		wantKind    failure.Kind
		wantAction  string
	}{
		{
			name:  "retriesOnceUnderCeiling",
			flood: "FLOOD_WAIT_45",
			retryResult: func() (reader.Iterator[reader.RawPost], error) {
				return history(post(9, time.Minute, "after wait", "")), nil
			},
			wantWaits: []time.Duration{45 * time.Second},
		},
		{
			name:  "retryAtCeiling",
			flood: "FLOOD_WAIT_60",
			retryResult: func() (reader.Iterator[reader.RawPost], error) {
				return history(), nil
			},
			wantWaits: []time.Duration{60 * time.Second},
		},
		{
			name:  "secondFloodIsTerminal",
			flood: "FLOOD_WAIT_30",
			retryResult: func() (reader.Iterator[reader.RawPost], error) {
				return nil, tgerr.New(420, "FLOOD_WAIT_30")
			},
			wantWaits:  []time.Duration{30 * time.Second},
			wantKind:   failure.KindFloodWait,
			wantAction: "wait_30s",
		},
		{
			name:       "noRetryAboveCeiling",
			flood:      "FLOOD_WAIT_90",
			wantKind:   failure.KindFloodWait,
			wantAction: "wait_90s",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			client := mock_reader.NewMockClient(ctrl)

			first := client.EXPECT().History(gomock.Any(), "@busy", 20).Return(nil, tgerr.New(420, tc.flood))
			if tc.retryResult != nil {
				client.EXPECT().History(gomock.Any(), "@busy", 20).DoAndReturn(
					func(context.Context, string, int) (reader.Iterator[reader.RawPost], error) {
						return tc.retryResult()
					},
				).After(first)
			}

			sleeper := &sleepRecorder{}
			f := reader.NewFetcher(client, reader.WithClock(clock), reader.WithSleeper(sleeper.Sleep))

			got := f.FetchMany(context.Background(), []string{"@busy"}, fixedNow.Add(-time.Hour), reader.BatchOptions{Limit: 20, Delay: 10 * time.Second})
			if len(got) != 1 {
				t.Fatalf("len(FetchMany()) = %d, want 1", len(got))
			}

			waits := sleeper.Waits()
			if len(waits) != len(tc.wantWaits) {
				t.Fatalf("waits = %v, want %v", waits, tc.wantWaits)
			}
			for i := range waits {
				if waits[i] != tc.wantWaits[i] {
					t.Fatalf("waits = %v, want %v", waits, tc.wantWaits)
				}
			}

			if tc.wantKind == "" {
				if _, ok := got[0].Posts(); !ok {
					t.Fatalf("expected success after retry")
				}
				return
			}
			fail, ok := got[0].Failure()
			if !ok || fail.Kind != tc.wantKind || fail.Action != tc.wantAction {
				t.Fatalf("failure = %+v", fail)
			}
		})
	}
}

func TestFetchManyStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	client := mock_reader.NewMockClient(ctrl)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client.EXPECT().History(gomock.Any(), "@alpha", 10).DoAndReturn(
		func(context.Context, string, int) (reader.Iterator[reader.RawPost], error) {
			cancel()
			return history(post(1, time.Hour, "a", "")), nil
		},
	)
	client.EXPECT().History(gomock.Any(), "@beta", gomock.Any()).Times(0)
	client.EXPECT().History(gomock.Any(), "@gamma", gomock.Any()).Times(0)

	sleeper := &sleepRecorder{}
	f := reader.NewFetcher(client, reader.WithClock(clock), reader.WithSleeper(sleeper.Sleep))

	got := f.FetchMany(ctx, []string{"@alpha", "@beta", "@gamma"}, fixedNow.Add(-time.Hour), reader.BatchOptions{Limit: 10, Delay: 5 * time.Second})
	if len(got) != 1 || got[0].Channel() != "@alpha" {
		t.Fatalf("FetchMany() = %d results, want only @alpha", len(got))
	}
	if waits := sleeper.Waits(); len(waits) != 0 {
		t.Fatalf("waits = %v, want none after cancel", waits)
	}
}

package reader_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/gotd/td/tgerr"
	"github.com/kr/pretty"

	"tg-channel-reader/internal/domain/failure"
	"tg-channel-reader/internal/domain/reader"
)

func post(id int, age time.Duration, text, caption string) reader.RawPost {
	return reader.RawPost{ID: id, Date: fixedNow.Add(-age), Text: text, Caption: caption}
}

func TestFetchChannelStopsAtCutoff(t *testing.T) {
	t.Parallel()

	since := fixedNow.Add(-24 * time.Hour)
	client := &fakeClient{posts: []reader.RawPost{
		post(30, time.Hour, "fresh", ""),
		post(29, 23*time.Hour, "", "caption only"),
		post(28, 25*time.Hour, "too old", ""),
		post(27, 2*time.Hour, "out of order, never reached", ""),
	}}
	f := reader.NewFetcher(client, reader.WithClock(clock), reader.WithSleeper((&sleepRecorder{}).Sleep))

	res := f.FetchChannel(context.Background(), "@news", since, reader.FetchOptions{Limit: 100})
	got, ok := res.Posts()
	if !ok {
		t.Fatalf("FetchChannel() failed: %# v", pretty.Formatter(res))
	}

	want := &reader.ChannelPosts{
		Channel:   "@news",
		FetchedAt: fixedNow,
		Since:     since,
		Count:     2,
		Messages: []reader.Post{
			{ID: 30, Timestamp: fixedNow.Add(-time.Hour), Text: "fresh", Permalink: "https://t.me/news/30"},
			{ID: 29, Timestamp: fixedNow.Add(-23 * time.Hour), Text: "caption only", Permalink: "https://t.me/news/29"},
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("FetchChannel() mismatch:\n%s", pretty.Diff(got, want))
	}
}

func TestFetchChannelLimit(t *testing.T) {
	t.Parallel()

	var posts []reader.RawPost
	for i := 10; i > 0; i-- {
		posts = append(posts, post(i, time.Duration(11-i)*time.Minute, "p", ""))
	}
	client := &fakeClient{posts: posts}
	f := reader.NewFetcher(client, reader.WithClock(clock))

	res := f.FetchChannel(context.Background(), "news", fixedNow.Add(-time.Hour), reader.FetchOptions{Limit: 3})
	got, ok := res.Posts()
	if !ok {
		t.Fatalf("FetchChannel() failed: %# v", pretty.Formatter(res))
	}
	if got.Count != 3 || len(got.Messages) != 3 {
		t.Fatalf("Count = %d, len(Messages) = %d, want 3", got.Count, len(got.Messages))
	}
	if got.Messages[0].ID != 10 || got.Messages[2].ID != 8 {
		t.Fatalf("unexpected ids: %d..%d", got.Messages[0].ID, got.Messages[2].ID)
	}
}

func TestFetchChannelTextOnly(t *testing.T) {
	t.Parallel()

	posts := []reader.RawPost{
		post(3, time.Minute, "hello", ""),
		{ID: 2, Date: fixedNow.Add(-2 * time.Minute), MediaKind: "photo"},
		post(1, 3*time.Minute, "", "caption"),
	}

	cases := []struct {
		name     string
		textOnly bool
		wantIDs  []int
	}{
		{name: "textOnlySkipsEmpty", textOnly: true, wantIDs: []int{3, 1}},
		{name: "keepsEmptyText", textOnly: false, wantIDs: []int{3, 2, 1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := reader.NewFetcher(&fakeClient{posts: posts}, reader.WithClock(clock))
			res := f.FetchChannel(context.Background(), "news", fixedNow.Add(-time.Hour), reader.FetchOptions{Limit: 10, TextOnly: tc.textOnly})
			got, ok := res.Posts()
			if !ok {
				t.Fatalf("FetchChannel() failed: %# v", pretty.Formatter(res))
			}
			var ids []int
			for _, p := range got.Messages {
				ids = append(ids, p.ID)
				if p.ID == 2 && (p.Text != "" || !p.HasMedia || p.MediaKind != "photo") {
					t.Fatalf("media post = %# v", pretty.Formatter(p))
				}
			}
			if !reflect.DeepEqual(ids, tc.wantIDs) {
				t.Fatalf("ids = %v, want %v", ids, tc.wantIDs)
			}
			if got.Count != len(got.Messages) {
				t.Fatalf("Count = %d, len(Messages) = %d", got.Count, len(got.Messages))
			}
		})
	}
}

func TestFetchChannelClassifiesHardFailure(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		client     *fakeClient
		wantKind   failure.Kind
		wantAction string
	}{
		{
			name:       "privateOnOpen",
			client:     &fakeClient{historyErr: tgerr.New(400, "CHANNEL_PRIVATE")},
			wantKind:   failure.KindAccessDenied,
			wantAction: failure.ActionRemoveOrRejoin,
		},
		{
			name:       "unknownUsername",
			client:     &fakeClient{historyErr: errors.Join(errors.New("resolve @ghost"), failure.ErrUsernameNotFound)},
			wantKind:   failure.KindNotFound,
			wantAction: failure.ActionCheckUsername,
		},
		{
			name: "floodMidStreamDiscardsPartialPosts",
			client: &fakeClient{
				posts:     []reader.RawPost{post(5, time.Minute, "kept?", "")},
				streamErr: tgerr.New(420, "FLOOD_WAIT_45"),
			},
			wantKind:   failure.KindFloodWait,
			wantAction: "wait_45s",
		},
		{
			name:       "plainError",
			client:     &fakeClient{historyErr: errors.New("boom")},
			wantKind:   failure.KindUnexpected,
			wantAction: failure.ActionReportToUser,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := reader.NewFetcher(tc.client, reader.WithClock(clock))
			res := f.FetchChannel(context.Background(), "@ghost", fixedNow.Add(-time.Hour), reader.FetchOptions{Limit: 10})
			if _, ok := res.Posts(); ok {
				t.Fatalf("FetchChannel() returned posts, want failure")
			}
			fail, ok := res.Failure()
			if !ok {
				t.Fatalf("FetchChannel() has no failure")
			}
			if fail.Kind != tc.wantKind || fail.Action != tc.wantAction || fail.Channel != "@ghost" {
				t.Fatalf("failure = %# v", pretty.Formatter(fail))
			}
		})
	}
}

func TestFetchChannelComments(t *testing.T) {
	t.Parallel()

	since := fixedNow.Add(-time.Hour)
	posts := []reader.RawPost{
		post(3, time.Minute, "third", ""),
		post(2, 2*time.Minute, "second", ""),
		post(1, 3*time.Minute, "first", ""),
	}
	reply := func(id int, text, author string) reader.RawReply {
		return reader.RawReply{ID: id, Date: fixedNow, Text: text, Author: author}
	}

	client := &fakeClient{
		posts: posts,
		chat:  reader.Chat{HasDiscussion: true},
		replies: map[int][]repliesCall{
			3: {{items: []reader.RawReply{reply(100, "nice", "alice"), {ID: 101, Date: fixedNow}, reply(102, "anon", "")}}},
			2: {
				{err: tgerr.New(420, "FLOOD_WAIT_45")},
				{items: []reader.RawReply{reply(200, "after wait", "bob")}},
			},
			1: {{err: tgerr.New(420, "FLOOD_WAIT_90")}},
		},
	}
	sleeper := &sleepRecorder{}
	f := reader.NewFetcher(client, reader.WithClock(clock), reader.WithSleeper(sleeper.Sleep))

	res := f.FetchChannel(context.Background(), "news", since, reader.FetchOptions{
		Limit:    10,
		Comments: reader.CommentOptions{Enabled: true, Limit: 10, Delay: 3 * time.Second},
	})
	got, ok := res.Posts()
	if !ok {
		t.Fatalf("FetchChannel() failed: %# v", pretty.Formatter(res))
	}
	if !got.CommentsEnabled || !got.CommentsAvailable {
		t.Fatalf("comments flags = %v/%v, want true/true", got.CommentsEnabled, got.CommentsAvailable)
	}
	if client.chatCalls != 1 {
		t.Fatalf("Chat() calls = %d, want 1", client.chatCalls)
	}

	wantComments := [][]reader.Comment{
		{
			{ID: 100, Timestamp: fixedNow, Text: "nice", Author: strPtr("alice")},
			{ID: 102, Timestamp: fixedNow, Text: "anon"},
		},
		{
			{ID: 200, Timestamp: fixedNow, Text: "after wait", Author: strPtr("bob")},
		},
		{},
	}
	for i, p := range got.Messages {
		if !reflect.DeepEqual(p.Comments, wantComments[i]) {
			t.Fatalf("post %d comments mismatch:\n%s", p.ID, pretty.Diff(p.Comments, wantComments[i]))
		}
		if p.CommentCount == nil || *p.CommentCount != len(wantComments[i]) {
			t.Fatalf("post %d comment_count = %v, want %d", p.ID, p.CommentCount, len(wantComments[i]))
		}
	}
	if got.Messages[0].CommentsError != "" || got.Messages[1].CommentsError != "" {
		t.Fatalf("unexpected comments_error on retried posts")
	}
	if want := "Rate limited: retry after 90s"; got.Messages[2].CommentsError != want {
		t.Fatalf("comments_error = %q, want %q", got.Messages[2].CommentsError, want)
	}

	// Без паузы перед первым постом, 3s перед вторым, 45s FLOOD_WAIT, 3s перед третьим.
	wantWaits := []time.Duration{3 * time.Second, 45 * time.Second, 3 * time.Second}
	if waits := sleeper.Waits(); !reflect.DeepEqual(waits, wantWaits) {
		t.Fatalf("waits = %v, want %v", waits, wantWaits)
	}
	if client.repliesCalls[2] != 2 || client.repliesCalls[1] != 1 {
		t.Fatalf("Replies() calls = %v", client.repliesCalls)
	}
}

func TestFetchChannelCommentRetryFailureYieldsEmpty(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		posts: []reader.RawPost{post(1, time.Minute, "only", "")},
		chat:  reader.Chat{HasDiscussion: true},
		replies: map[int][]repliesCall{
			1: {
				{err: tgerr.New(420, "FLOOD_WAIT_5")},
				{err: tgerr.New(420, "FLOOD_WAIT_5")},
			},
		},
	}
	sleeper := &sleepRecorder{}
	f := reader.NewFetcher(client, reader.WithClock(clock), reader.WithSleeper(sleeper.Sleep))

	res := f.FetchChannel(context.Background(), "news", fixedNow.Add(-time.Hour), reader.FetchOptions{
		Limit:    10,
		Comments: reader.CommentOptions{Enabled: true, Limit: 5, Delay: time.Second},
	})
	got, ok := res.Posts()
	if !ok {
		t.Fatalf("FetchChannel() failed: %# v", pretty.Formatter(res))
	}
	p := got.Messages[0]
	if p.CommentCount == nil || *p.CommentCount != 0 || len(p.Comments) != 0 || p.Comments == nil {
		t.Fatalf("post = %# v", pretty.Formatter(p))
	}
	if p.CommentsError != "" {
		t.Fatalf("comments_error = %q, want empty", p.CommentsError)
	}
	if waits := sleeper.Waits(); !reflect.DeepEqual(waits, []time.Duration{5 * time.Second}) {
		t.Fatalf("waits = %v", waits)
	}
	if client.repliesCalls[1] != 2 {
		t.Fatalf("Replies() calls = %d, want 2", client.repliesCalls[1])
	}
}

func TestFetchChannelWithoutDiscussion(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		client *fakeClient
	}{
		{name: "noLinkedChat", client: &fakeClient{chat: reader.Chat{HasDiscussion: false}}},
		{name: "probeFails", client: &fakeClient{chatErr: errors.New("probe failed")}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tc.client.posts = []reader.RawPost{post(1, time.Minute, "x", ""), post(2, 2*time.Minute, "y", "")}
			sleeper := &sleepRecorder{}
			f := reader.NewFetcher(tc.client, reader.WithClock(clock), reader.WithSleeper(sleeper.Sleep))

			res := f.FetchChannel(context.Background(), "news", fixedNow.Add(-time.Hour), reader.FetchOptions{
				Limit:    10,
				Comments: reader.CommentOptions{Enabled: true, Limit: 5, Delay: time.Second},
			})
			got, ok := res.Posts()
			if !ok {
				t.Fatalf("FetchChannel() failed: %# v", pretty.Formatter(res))
			}
			if !got.CommentsEnabled || got.CommentsAvailable {
				t.Fatalf("comments flags = %v/%v, want true/false", got.CommentsEnabled, got.CommentsAvailable)
			}
			if len(tc.client.repliesCalls) != 0 {
				t.Fatalf("Replies() called: %v", tc.client.repliesCalls)
			}
			if len(sleeper.Waits()) != 0 {
				t.Fatalf("unexpected waits: %v", sleeper.Waits())
			}
			for _, p := range got.Messages {
				if p.Comments != nil || p.CommentCount != nil {
					t.Fatalf("post %d has comments fields", p.ID)
				}
			}
		})
	}
}

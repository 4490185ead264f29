package reader_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/gotd/td/tgerr"
	"github.com/kr/pretty"

	"tg-channel-reader/internal/domain/failure"
	"tg-channel-reader/internal/domain/reader"
)

func TestFetchInfo(t *testing.T) {
	t.Parallel()

	members := 1200
	client := &fakeClient{chat: reader.Chat{
		ID:           1005001234,
		Title:        "Durov's Channel",
		Username:     "durov",
		Description:  "Thoughts",
		MembersCount: &members,
	}}
	f := reader.NewFetcher(client)

	got, err := f.FetchInfo(context.Background(), "@durov")
	if err != nil {
		t.Fatalf("FetchInfo() error = %v", err)
	}
	want := reader.ChannelInfo{
		ID:           -1001005001234,
		Title:        "Durov's Channel",
		Username:     strPtr("durov"),
		Description:  strPtr("Thoughts"),
		MembersCount: intPtr(1200),
		Link:         strPtr("https://t.me/durov"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("FetchInfo() mismatch:\n%s", pretty.Diff(got, want))
	}
}

func TestFetchInfoWithoutUsername(t *testing.T) {
	t.Parallel()

	f := reader.NewFetcher(&fakeClient{chat: reader.Chat{ID: 7, Title: "Private"}})

	got, err := f.FetchInfo(context.Background(), "https://t.me/+hash")
	if err != nil {
		t.Fatalf("FetchInfo() error = %v", err)
	}
	if got.Username != nil || got.Link != nil || got.Description != nil || got.MembersCount != nil {
		t.Fatalf("optional fields must be nil: %# v", pretty.Formatter(got))
	}
}

func TestFetchInfoClassifiesFailure(t *testing.T) {
	t.Parallel()

	f := reader.NewFetcher(&fakeClient{chatErr: tgerr.New(400, "CHANNEL_PRIVATE")})

	_, err := f.FetchInfo(context.Background(), "@secret")
	var fail failure.Failure
	if !errors.As(err, &fail) {
		t.Fatalf("FetchInfo() error = %T, want failure.Failure", err)
	}
	if fail.Kind != failure.KindAccessDenied || fail.Action != failure.ActionRemoveOrRejoin || fail.Channel != "@secret" {
		t.Fatalf("failure = %# v", pretty.Formatter(fail))
	}
}

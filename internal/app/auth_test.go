package app

import (
	"testing"

	"github.com/gotd/td/tg"
)

func TestUserLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		user *tg.User
		want string
	}{
		{name: "username", user: &tg.User{ID: 42, Username: "reader", FirstName: "Anna"}, want: "reader"},
		{name: "name only", user: &tg.User{ID: 42, FirstName: "Anna", LastName: "K"}, want: "42"},
		{name: "empty", user: &tg.User{ID: 7}, want: "7"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := userLabel(tc.user); got != tc.want {
				t.Fatalf("userLabel() = %q, want %q", got, tc.want)
			}
		})
	}
}

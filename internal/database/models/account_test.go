package models

import (
	"testing"
	"time"
)

func TestNormalizeUsername(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"charlidamelio", "charlidamelio"},
		{"@charlidamelio", "charlidamelio"},
		{"  @Khaby.Lame ", "khaby.lame"},
		{"@", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeUsername(tt.in); got != tt.want {
				t.Errorf("NormalizeUsername(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidPlatform(t *testing.T) {
	if !ValidPlatform(PlatformTikTok) || !ValidPlatform(PlatformYouTube) {
		t.Error("expected known platforms to be valid")
	}
	if ValidPlatform("vine") {
		t.Error("expected unknown platform to be invalid")
	}
}

func TestAccountChecked(t *testing.T) {
	if (Account{}).Checked() {
		t.Error("expected a new account to be unchecked")
	}
	if !(Account{LastCheck: time.Unix(1, 0)}).Checked() {
		t.Error("expected an account with a last check to be checked")
	}
}

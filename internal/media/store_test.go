package media

import "testing"

func TestKeyFromURL(t *testing.T) {
	tests := []struct {
		name    string
		base    string
		url     string
		wantKey string
		wantOK  bool
	}{
		{"配下のURL", "http://localhost:8080/media", "http://localhost:8080/media/profile_pictures/a.png", "profile_pictures/a.png", true},
		{"ベース末尾スラッシュ", "http://localhost:8080/media/", "http://localhost:8080/media/profile_pictures/a.png", "profile_pictures/a.png", true},
		{"他ホスト", "http://localhost:8080/media", "https://cdn.example.com/a.png", "", false},
		{"前方一致のみ", "http://localhost:8080/media", "http://localhost:8080/mediaX/a.png", "", false},
		{"ベースそのもの", "http://localhost:8080/media", "http://localhost:8080/media/", "", false},
		{"空URL", "http://localhost:8080/media", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, ok := keyFromURL(tt.base, tt.url)
			if ok != tt.wantOK || key != tt.wantKey {
				t.Errorf("keyFromURL() = (%q, %v), want (%q, %v)", key, ok, tt.wantKey, tt.wantOK)
			}
		})
	}
}

package main

import "testing"

func TestParseBatchUI(t *testing.T) {
	cases := []struct {
		in      string
		want    batchUI
		wantErr bool
	}{
		{"", batchUIAuto, false},
		{"auto", batchUIAuto, false},
		{"ON", batchUILive, false},
		{" off ", batchUIPlain, false},
		{"tui", batchUIAuto, true},
	}
	for _, tc := range cases {
		got, err := parseBatchUI(tc.in)
		if (err != nil) != tc.wantErr {
			t.Fatalf("parseBatchUI(%q) err = %v", tc.in, err)
		}
		if err == nil && got != tc.want {
			t.Fatalf("parseBatchUI(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestBatchUI_WantLive(t *testing.T) {
	if !batchUILive.wantLive() {
		t.Fatal("on should force the live view")
	}
	if batchUIPlain.wantLive() {
		t.Fatal("off should force plain output")
	}
	t.Setenv("CI", "true")
	if batchUIAuto.wantLive() {
		t.Fatal("auto should stay plain under CI")
	}
}

package mcp

import "testing"

func TestCommandIDFromURI(t *testing.T) {
	cases := []struct {
		name    string
		uri     string
		want    string
		wantErr bool
	}{
		{name: "well formed", uri: "tmux://command/ab12cd34/result", want: "ab12cd34"},
		{name: "missing suffix", uri: "tmux://command/ab12cd34", wantErr: true},
		{name: "wrong scheme", uri: "file://command/ab12cd34/result", wantErr: true},
		{name: "empty id", uri: "tmux://command//result", wantErr: true},
		{name: "extra path segment", uri: "tmux://command/a/b/result", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := commandIDFromURI(tc.uri)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("commandIDFromURI(%q) = %q, want error", tc.uri, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("commandIDFromURI(%q) error: %v", tc.uri, err)
			}
			if got != tc.want {
				t.Errorf("commandIDFromURI(%q) = %q, want %q", tc.uri, got, tc.want)
			}
		})
	}
}

func TestPaneIDFromURI(t *testing.T) {
	cases := []struct {
		name    string
		uri     string
		want    string
		wantErr bool
	}{
		{name: "plain pane id", uri: "tmux://pane/%3", want: "%3"},
		{name: "percent encoded", uri: "tmux://pane/%253", want: "%3"},
		{name: "wrong prefix", uri: "tmux://command/%3", wantErr: true},
		{name: "empty id", uri: "tmux://pane/", wantErr: true},
		{name: "nested path", uri: "tmux://pane/a/b", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := paneIDFromURI(tc.uri)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("paneIDFromURI(%q) = %q, want error", tc.uri, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("paneIDFromURI(%q) error: %v", tc.uri, err)
			}
			if got != tc.want {
				t.Errorf("paneIDFromURI(%q) = %q, want %q", tc.uri, got, tc.want)
			}
		})
	}
}

func TestCommandResultURIRoundTrip(t *testing.T) {
	uri := commandResultURI("deadbeef")
	if uri != "tmux://command/deadbeef/result" {
		t.Errorf("commandResultURI = %q", uri)
	}
	id, err := commandIDFromURI(uri)
	if err != nil {
		t.Fatalf("commandIDFromURI: %v", err)
	}
	if id != "deadbeef" {
		t.Errorf("round trip id = %q", id)
	}
}

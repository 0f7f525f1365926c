package replies

import (
	"strings"
	"testing"
)

func TestToJSONEscapesSpaces(t *testing.T) {
	got := NotifyJSON(StatusBusy, "already in use")
	if strings.Contains(got, " ") {
		t.Fatalf("payload must not contain literal spaces: %q", got)
	}
	if !strings.Contains(got, "already%20in%20use") {
		t.Fatalf("expected escaped spaces, got %q", got)
	}
}

func TestNotifyJSONShape(t *testing.T) {
	got := NotifyJSON(StatusAccepted, "doing_cage")
	want := `{"type":"notify","status":"Accepted","details":"doing_cage"}`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestNotifyJSONOmitsEmptyDetails(t *testing.T) {
	got := NotifyJSON(StatusSeen, "")
	if strings.Contains(got, "details") {
		t.Fatalf("empty details must be omitted, got %q", got)
	}
}

func TestStatusPayloadOmitsUnknownMaxDrunk(t *testing.T) {
	got := ToJSON(Status{Type: "status", Advs: 10, Full: 2, MaxFull: 15, Drunk: 3, Caged: false})
	if strings.Contains(got, "maxDrunk") {
		t.Fatalf("unknown maxDrunk must be omitted, got %q", got)
	}
	if !strings.Contains(got, `"type":"status"`) {
		t.Fatalf("missing type discriminator: %q", got)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		seconds int
		want    string
	}{
		{0, "0:00:00"},
		{61, "0:01:01"},
		{3600, "1:00:00"},
		{7325, "2:02:05"},
	}
	for _, tc := range cases {
		if got := FormatDuration(tc.seconds); got != tc.want {
			t.Fatalf("FormatDuration(%d) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

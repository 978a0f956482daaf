package connstr

import (
	"errors"
	"testing"
)

func TestParseValid(t *testing.T) {
	cases := []struct {
		in   string
		want Endpoint
	}{
		{"udpin:0.0.0.0:14550", Endpoint{Protocol: UDPIn, Host: "0.0.0.0", Port: 14550, Raw: "udpin:0.0.0.0:14550"}},
		{"udpout:127.0.0.1:14551", Endpoint{Protocol: UDPOut, Host: "127.0.0.1", Port: 14551, Raw: "udpout:127.0.0.1:14551"}},
		{"tcpout:10.0.0.5:5760", Endpoint{Protocol: TCPOut, Host: "10.0.0.5", Port: 5760, Raw: "tcpout:10.0.0.5:5760"}},
		{"serial:/dev/ttyUSB0:57600", Endpoint{Protocol: Serial, Device: "/dev/ttyUSB0", Baud: 57600, Raw: "serial:/dev/ttyUSB0:57600"}},
	}
	for _, tc := range cases {
		got, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("Parse(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	cases := []struct {
		in      string
		wantErr error
	}{
		{"udpin:999.999.999.999:14550", ErrInvalidIPAddress},
		{"udpin:127.0.0.1:notaport", ErrInvalidPort},
		{"udpin:127.0.0.1:0", ErrInvalidPort},
		{"udpin:127.0.0.1:70000", ErrInvalidPort},
		{"serial::57600", ErrPortNotAttached},
		{"serial:/dev/ttyUSB0:notabaud", ErrInvalidBaud},
		{"serial:/dev/ttyUSB0:0", ErrInvalidBaud},
		{"ftp:127.0.0.1:21", ErrInvalidProtocol},
		{"udpin:127.0.0.1", ErrInvalidProtocol},
		{"garbage", ErrInvalidProtocol},
	}
	for _, tc := range cases {
		_, err := Parse(tc.in)
		if !errors.Is(err, tc.wantErr) {
			t.Errorf("Parse(%q) error = %v, want %v", tc.in, err, tc.wantErr)
		}
	}
}

func TestParseAllCommaSeparated(t *testing.T) {
	got, err := ParseAll([]string{"udpin:0.0.0.0:14550,tcpout:10.0.0.5:5760", "serial:/dev/ttyUSB0:57600"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d endpoints, want 3", len(got))
	}
}

func TestParseAllAbortsOnFirstError(t *testing.T) {
	_, err := ParseAll([]string{"udpin:0.0.0.0:14550,notaproto:1:2"})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestEndpointKeyStable(t *testing.T) {
	a, _ := Parse("tcpout:10.0.0.5:5760")
	b, _ := Parse("tcpout:10.0.0.5:5760")
	if a.Key() != b.Key() {
		t.Errorf("keys differ for identical endpoints: %q vs %q", a.Key(), b.Key())
	}
	s, _ := Parse("serial:/dev/ttyUSB0:57600")
	if s.Key() != "serial:/dev/ttyUSB0" {
		t.Errorf("serial key = %q", s.Key())
	}
}

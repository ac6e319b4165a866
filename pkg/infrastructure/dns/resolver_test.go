package dns

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"
)

func startTestServer(t *testing.T) string {
	t.Helper()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	handler := dns.HandlerFunc(func(w dns.ResponseWriter, req *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(req)
		if req.Question[0].Name == "example.com." {
			rr, _ := dns.NewRR("example.com. 300 IN A 93.184.216.34")
			m.Answer = append(m.Answer, rr)
		} else {
			m.SetRcode(req, dns.RcodeNameError)
		}
		w.WriteMsg(m)
	})

	started := make(chan struct{})
	server := &dns.Server{PacketConn: pc, Handler: handler, NotifyStartedFunc: func() { close(started) }}
	go server.ActivateAndServe()
	<-started
	t.Cleanup(func() { server.Shutdown() })

	return pc.LocalAddr().String()
}

func TestResolver_Resolve(t *testing.T) {
	addr := startTestServer(t)
	r := NewResolver(Config{Servers: []string{addr}, Timeout: time.Second})

	tests := []struct {
		domain  string
		want    []string
		wantErr error
	}{
		{"example.com", []string{"93.184.216.34"}, nil},
		{"missing.example", nil, ErrNoSuchHost},
	}

	for _, tt := range tests {
		t.Run(tt.domain, func(t *testing.T) {
			ips, err := r.Resolve(context.Background(), tt.domain)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Resolve(%q) error = %v, want %v", tt.domain, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%q) unexpected error: %v", tt.domain, err)
			}
			if len(ips) != len(tt.want) || ips[0] != tt.want[0] {
				t.Errorf("Resolve(%q) = %v, want %v", tt.domain, ips, tt.want)
			}
		})
	}
}

func TestResolver_CanceledContext(t *testing.T) {
	r := NewResolver(Config{Servers: []string{"127.0.0.1:1"}, Timeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.Resolve(ctx, "example.com"); err == nil {
		t.Error("Resolve with canceled context should fail")
	}
}

package poller

import (
	"context"
	"crypto/x509"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewTransport_RegistersHTTP2(t *testing.T) {
	tr, err := NewTransport()
	if err != nil {
		t.Fatalf("NewTransport() error = %v", err)
	}
	if _, ok := tr.TLSNextProto["h2"]; !ok {
		t.Error("TLSNextProto has no h2 entry")
	}
	if tr.TLSClientConfig == nil {
		t.Fatal("TLSClientConfig = nil")
	}

	var hasH2 bool
	for _, p := range tr.TLSClientConfig.NextProtos {
		if p == "h2" {
			hasH2 = true
		}
	}
	if !hasH2 {
		t.Errorf("NextProtos = %v, want h2 advertised", tr.TLSClientConfig.NextProtos)
	}
}

func TestNewTransport_IndependentClones(t *testing.T) {
	a, err := NewTransport()
	if err != nil {
		t.Fatalf("NewTransport() error = %v", err)
	}
	b, err := NewTransport()
	if err != nil {
		t.Fatalf("NewTransport() error = %v", err)
	}
	if a == b || a.TLSClientConfig == b.TLSClientConfig {
		t.Error("NewTransport() returned shared state")
	}
}

func TestNewTransport_NegotiatesHTTP2(t *testing.T) {
	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"pending","progress":1,"expectedTime":10}`))
	}))
	srv.EnableHTTP2 = true
	srv.StartTLS()
	defer srv.Close()

	tr, err := NewTransport()
	if err != nil {
		t.Fatalf("NewTransport() error = %v", err)
	}
	pool := x509.NewCertPool()
	pool.AddCert(srv.Certificate())
	tr.TLSClientConfig.RootCAs = pool

	client := NewClient(&http.Client{Transport: tr})
	defer client.Close()

	resp := client.Fetch(context.Background(), srv.URL, nil, 5*time.Second)
	if resp.Error != nil {
		t.Fatalf("Fetch() error = %v", resp.Error)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}

	// Response does not carry the protocol
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	raw, err := (&http.Client{Transport: tr}).Do(req)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	_ = raw.Body.Close()
	if raw.ProtoMajor != 2 {
		t.Errorf("ProtoMajor = %d, want 2", raw.ProtoMajor)
	}
}

func TestNewClient_NilUsesHTTP2Transport(t *testing.T) {
	c := NewClient(nil)
	hc, ok := c.doer.(*http.Client)
	if !ok {
		t.Fatalf("doer = %T, want *http.Client", c.doer)
	}
	tr, ok := hc.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("Transport = %T, want *http.Transport", hc.Transport)
	}
	if _, ok := tr.TLSNextProto["h2"]; !ok {
		t.Error("default transport has no h2 entry")
	}
}

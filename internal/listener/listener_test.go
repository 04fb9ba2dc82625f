package listener

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"
)

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()
	return port
}

func TestInertRecordsWithoutBinding(t *testing.T) {
	r := &Registry{Inert: true}
	h := http.NotFoundHandler()
	if err := r.Register("api", 8080, h, nil); err != nil {
		t.Fatal(err)
	}
	if err := r.Register("admin", 8080, h, nil); err != nil {
		t.Fatalf("inert registration must not bind: %v", err)
	}
	if r.Len() != 2 {
		t.Fatalf("len = %d", r.Len())
	}
	ports := r.Ports()
	if ports[0] != 8080 || ports[1] != 8080 {
		t.Fatalf("ports = %v", ports)
	}
}

func TestRegisterBindFailure(t *testing.T) {
	port := freePort(t)
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		t.Skipf("cannot occupy port: %v", err)
	}
	defer ln.Close()

	r := New(nil)
	err = r.Register("api", port, http.NotFoundHandler(), nil)
	if !errors.Is(err, ErrRegistration) {
		t.Fatalf("err = %v, want ErrRegistration", err)
	}
}

func TestRegisterBadKeyMaterial(t *testing.T) {
	r := New(nil)
	err := r.Register("api", freePort(t), http.NotFoundHandler(), &TLS{
		KeyFile:  "/does/not/exist.key",
		CertFile: "/does/not/exist.pem",
	})
	if !errors.Is(err, ErrRegistration) {
		t.Fatalf("err = %v, want ErrRegistration", err)
	}
}

func TestServeAndShutdown(t *testing.T) {
	port := freePort(t)
	r := New(nil)
	r.Wrap = func(name string, h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("X-Server-Name", name)
			h.ServeHTTP(w, req)
		})
	}

	h := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		_, _ = io.WriteString(w, "pong")
	})
	if err := r.Register("api", port, h, nil); err != nil {
		t.Fatal(err)
	}

	_, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.Serve(cancel)

	var resp *http.Response
	var err error
	for i := 0; i < 50; i++ {
		resp, err = http.Get(fmt.Sprintf("http://127.0.0.1:%d/ping", port))
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("server never came up: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	if string(body) != "pong" {
		t.Fatalf("body = %q", body)
	}
	if resp.Header.Get("X-Server-Name") != "api" {
		t.Fatal("wrap middleware not applied")
	}

	ctx, cancelShutdown := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancelShutdown()
	r.Shutdown(ctx)

	if _, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/ping", port)); err == nil {
		t.Fatal("server should be down after shutdown")
	}
}

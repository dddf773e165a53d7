package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nao1215/authgate/pkg/middleware"
)

func TestHTTPValidator(t *testing.T) {
	t.Parallel()

	t.Run("検証エンドポイントの真偽値を返す", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/auth/validate" {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			// エスケープされずに送信されると"+"が空白として解釈され一致しない
			if r.URL.Query().Get("token") == "a+b/c=" {
				_, _ = w.Write([]byte("true"))
				return
			}
			_, _ = w.Write([]byte("false"))
		}))
		t.Cleanup(srv.Close)

		v := NewHTTPValidator(srv.URL + "/api/auth")

		valid, err := v.Validate(context.Background(), "a+b/c=")
		if err != nil {
			t.Fatalf("検証に失敗: %v", err)
		}
		if !valid {
			t.Error("valid = false, want true")
		}

		valid, err = v.Validate(context.Background(), "other")
		if err != nil || valid {
			t.Errorf("valid = %t, err = %v, want false, nil", valid, err)
		}
	})

	failures := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "5xx応答",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "202応答",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusAccepted)
				_, _ = w.Write([]byte("true"))
			},
		},
		{
			name: "204応答",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			},
		},
		{
			name: "真偽値でない応答",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"valid":true}`))
			},
		},
		{
			name: "空の応答",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			},
		},
	}
	for _, tt := range failures {
		t.Run(tt.name+"はErrUpstreamUnavailable", func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(tt.handler)
			t.Cleanup(srv.Close)

			valid, err := NewHTTPValidator(srv.URL).Validate(context.Background(), "tok")
			if !errors.Is(err, middleware.ErrUpstreamUnavailable) {
				t.Errorf("err = %v, want ErrUpstreamUnavailable", err)
			}
			if valid {
				t.Error("失敗時にtrueが返された")
			}
		})
	}

	t.Run("接続できない場合はErrUpstreamUnavailable", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := NewHTTPValidator(url).Validate(context.Background(), "tok")
		if !errors.Is(err, middleware.ErrUpstreamUnavailable) {
			t.Errorf("err = %v, want ErrUpstreamUnavailable", err)
		}
	})

	t.Run("コンテキストの期限切れで中断される", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
			_, _ = w.Write([]byte("true"))
		}))
		t.Cleanup(srv.Close)
		t.Cleanup(func() { close(release) })

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		start := time.Now()
		valid, err := NewHTTPValidator(srv.URL).Validate(ctx, "tok")
		if !errors.Is(err, middleware.ErrUpstreamUnavailable) || !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("err = %v, want ErrUpstreamUnavailable wrapping DeadlineExceeded", err)
		}
		if valid {
			t.Error("タイムアウト時にtrueが返された")
		}
		if elapsed := time.Since(start); elapsed > 2*time.Second {
			t.Errorf("中断までに時間がかかりすぎ: %v", elapsed)
		}
	})
}

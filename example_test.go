package apphttp_test

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/entao/apphttp"
	"github.com/entao/apphttp/client"
)

func ExampleNewClient() {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"msg":"hello"}`)
	}))
	defer ts.Close()

	c, err := apphttp.NewClient(
		client.WithTimeouts(5*time.Second, 5*time.Second),
		client.WithLogger(slog.New(slog.DiscardHandler)),
	)
	if err != nil {
		fmt.Println("build error:", err)
		return
	}

	res := c.Get(ts.URL).Do(context.Background())

	resp, err := client.DecodeJSON[struct{ Msg string }](res)
	if err != nil {
		fmt.Println("decode error:", err)
		return
	}

	fmt.Println(resp.Msg)
	// Output: hello
}

func ExampleJSON() {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, r.Header.Get("Content-Type"))
	}))
	defer ts.Close()

	res := apphttp.JSON(context.Background(), ts.URL, `{"a":1}`, client.WithDumpRequest(false), client.WithDumpResponse(false))
	fmt.Println(res.ValueText())
	// Output: application/json;charset=utf-8
}

package tmdb_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"lacquer/internal/providers/tmdb"
)

func TestMovieDetails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie/278" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("api_key") != "key" {
			t.Error("expected api_key param")
		}
		io.WriteString(w, `{"id":278,"title":"The Shawshank Redemption","vote_average":8.7,"vote_count":26000}`)
	}))
	defer server.Close()

	client, err := tmdb.New("key", server.URL, "en-US")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	details, err := client.MovieDetails(context.Background(), 278)
	if err != nil {
		t.Fatalf("MovieDetails failed: %v", err)
	}
	if details.VoteAverage != 8.7 {
		t.Errorf("VoteAverage = %v", details.VoteAverage)
	}
}

func TestMovieDetailsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client, err := tmdb.New("key", server.URL, "")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := client.MovieDetails(context.Background(), 99999999); err != tmdb.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

package blitz

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFetchSnapshot(t *testing.T) {
	page := readFixture(t, "status.html")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/game/520":
			w.Write([]byte(page))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(ClientOptions{BaseUrl: server.URL, Timeout: time.Second * 5})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	snapshot, err := client.FetchSnapshot(ctx, "520")
	require.NoError(t, err)
	require.Equal(t, "Ulm Bros", snapshot.LobbyName)
	require.Len(t, snapshot.Players, 3)

	_, err = client.FetchStatusPage(ctx, "404")
	require.ErrorIs(t, err, ErrFetch)
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
	require.Equal(t, "404", fetchErr.GameId)

	require.Equal(t, server.URL+"/game/520#status", client.GameUrl("520"))
}

func TestFetchStatusPageNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewClient(ClientOptions{BaseUrl: url, Timeout: time.Second})
	_, err := client.FetchStatusPage(context.Background(), "520")
	require.ErrorIs(t, err, ErrFetch)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Error(t, fetchErr.Err)
}

package siteimporter

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/blakewilliams/sitehop"
	"github.com/blakewilliams/sitehop/pkg/param"
	"github.com/blakewilliams/sitehop/pkg/template"
	"github.com/stretchr/testify/require"
)

var jsonConfig = []byte(`{
	"parameters": {
		"lat": "-?\\d+(\\.\\d+)?",
		"lon": "-?\\d+(\\.\\d+)?",
		"zoom": "\\d{1,2}"
	},
	"sites": [
		{
			"id": "osm",
			"link": "openstreetmap.org",
			"templates": [
				{"ordered": "/#map={zoom}/{lat}/{lon}"},
				{"ordered": "/", "unordered": {"lon": "mlon", "lat": "mlat"}}
			]
		},
		{
			"id": "wiki",
			"link": "wikimapia.org",
			"httpOnly": true,
			"templates": [{"ordered": "/#lat={lat}&lon={lon}&z={zoom}"}]
		}
	]
}`)

var yamlConfig = []byte(`
parameters:
  lat: '-?\d+(\.\d+)?'
  lon: '-?\d+(\.\d+)?'
  zoom: '\d{1,2}'
sites:
  - id: osm
    link: openstreetmap.org
    templates:
      - ordered: '/#map={zoom}/{lat}/{lon}'
      - ordered: /
        unordered:
          lon: mlon
          lat: mlat
  - id: wiki
    link: wikimapia.org
    httpOnly: true
    templates:
      - ordered: '/#lat={lat}&lon={lon}&z={zoom}'
`)

func newServer(t *testing.T) *sitehop.Server {
	t.Helper()

	server, err := sitehop.NewServer()
	require.NoError(t, err)
	server.Logger = log.New(io.Discard, "", log.Ldate|log.Ltime)

	return server
}

func requireConfigLoaded(t *testing.T, server *sitehop.Server) {
	t.Helper()

	registry := server.Registry()
	require.NotNil(t, registry)
	require.Equal(t, 2, registry.Len())
	require.Equal(t, []string{"lat", "lon", "zoom"}, registry.Parameters.Names())

	osm, ok := registry.Site("osm")
	require.True(t, ok)
	require.False(t, osm.HTTPOnly)
	require.Len(t, osm.Templates, 2)
	require.Equal(t, template.Bindings{{Name: "lon", Key: "mlon"}, {Name: "lat", Key: "mlat"}}, osm.Templates[1].Unordered)

	wiki, ok := registry.Site("wiki")
	require.True(t, ok)
	require.True(t, wiki.HTTPOnly)

	require.Equal(t,
		map[string]string{"lat": "1.5", "lon": "2"},
		registry.Extract("osm", "https://www.openstreetmap.org/?mlat=1.5&mlon=2"),
	)
}

func TestLoadJSON(t *testing.T) {
	server := newServer(t)

	require.NoError(t, LoadJSON(server, jsonConfig))

	requireConfigLoaded(t, server)
}

func TestLoadYAML(t *testing.T) {
	server := newServer(t)

	require.NoError(t, LoadYAML(server, yamlConfig))

	requireConfigLoaded(t, server)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	tests := map[string][]byte{
		"sites.json": jsonConfig,
		"sites.yaml": yamlConfig,
		"sites.yml":  yamlConfig,
	}

	for name, contents := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, contents, 0o600))

			server := newServer(t)
			require.NoError(t, LoadFile(server, path))

			requireConfigLoaded(t, server)
		})
	}
}

func TestLoadFile_Missing(t *testing.T) {
	err := LoadFile(newServer(t), filepath.Join(t.TempDir(), "nope.json"))

	require.ErrorContains(t, err, "could not read config file")
}

func TestLoadJSON_ConfigurationErrors(t *testing.T) {
	tests := map[string]struct {
		config string
		want   error
	}{
		"unknown parameter": {
			config: `{"parameters": {}, "sites": [{"id": "a", "link": "a.test", "templates": [{"ordered": "/{id}"}]}]}`,
			want:   template.ErrUnknownParameter,
		},
		"duplicate placeholder": {
			config: `{"parameters": {"id": "\\d+"}, "sites": [{"id": "a", "link": "a.test", "templates": [{"ordered": "/{id}/{id}"}]}]}`,
			want:   template.ErrDuplicatePlaceholder,
		},
		"invalid fragment": {
			config: `{"parameters": {"id": "(\\d+"}, "sites": []}`,
			want:   param.ErrInvalidFragment,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			server := newServer(t)

			err := LoadJSON(server, []byte(tc.config))

			require.ErrorIs(t, err, tc.want)
			require.Nil(t, server.Registry(), "a failed load must not publish a registry")
		})
	}
}

func TestLoadJSON_Malformed(t *testing.T) {
	err := LoadJSON(newServer(t), []byte(`{"sites": [`))

	require.ErrorContains(t, err, "could not unmarshal site config json")
}

func TestLoadHttp(t *testing.T) {
	configServer := startConfigServer()
	defer configServer.Close()

	server := newServer(t)

	require.NoError(t, LoadHttp(context.TODO(), server, configServer.URL+"/sites.json"))
	requireConfigLoaded(t, server)

	server = newServer(t)

	require.NoError(t, LoadHttp(context.TODO(), server, configServer.URL+"/sites.yaml"))
	requireConfigLoaded(t, server)
}

func TestLoadHttp_NotFound(t *testing.T) {
	configServer := startConfigServer()
	defer configServer.Close()

	err := LoadHttp(context.TODO(), newServer(t), configServer.URL+"/missing")

	require.ErrorContains(t, err, "status 404")
}

func TestLoadHttp_ContextTimeout(t *testing.T) {
	configServer := startConfigServer()
	defer configServer.CloseClientConnections()
	defer configServer.Close()

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*20)
	defer cancel()

	err := LoadHttp(ctx, newServer(t), configServer.URL+"/sites.json?sleepy=1&token=secret")
	require.Error(t, err)
	require.NotContains(t, err.Error(), "secret")

	<-ctx.Done()
	require.Less(t, time.Since(start), time.Millisecond*400)
}

func TestLoadHttp_HMAC(t *testing.T) {
	hmacSecret := "abc123"

	configServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authorization := r.Header.Get("Authorization")
		timestamp := r.Header.Get("X-Authorization-Time")

		mac := hmac.New(sha256.New, []byte(hmacSecret))
		mac.Write([]byte(fmt.Sprintf("%s,%s", r.URL.Path, timestamp)))

		if timestamp == "" || hex.EncodeToString(mac.Sum(nil)) != authorization {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		w.Write(jsonConfig)
	}))
	defer configServer.Close()

	server := newServer(t)
	require.Error(t, LoadHttp(context.TODO(), server, configServer.URL+"/sites.json"))

	server.HmacSecret = hmacSecret
	require.NoError(t, LoadHttp(context.TODO(), server, configServer.URL+"/sites.json"))
	requireConfigLoaded(t, server)
}

func startConfigServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("sleepy") == "1" {
			time.Sleep(time.Millisecond * 200)
		}

		switch r.URL.Path {
		case "/sites.json":
			w.Header().Set("Content-Type", "application/json")
			w.Write(jsonConfig)
		case "/sites.yaml":
			w.Header().Set("Content-Type", "application/yaml")
			w.Write(yamlConfig)
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte("404 not found"))
		}
	}))
}

func TestLoadFile_BundledConfig(t *testing.T) {
	server := newServer(t)

	require.NoError(t, LoadFile(server, filepath.Join("..", "..", "config", "sites.yaml")))

	resolution, err := server.Resolve(context.Background(), sitehop.Request{URL: "https://www.openstreetmap.org/#map=15/48.8584/2.2945"})
	require.NoError(t, err)

	require.Equal(t, "openstreetmap", resolution.Site)
	require.Equal(t, "https://google.com/maps/@48.8584,2.2945,15z", resolution.Candidates[0].URL)
	require.Equal(t, "http://wikimapia.org/#lat=48.8584&lon=2.2945&z=15", resolution.Candidates[1].URL)
}

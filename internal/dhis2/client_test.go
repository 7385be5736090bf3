package dhis2

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dhis2-tool/internal/config"
)

// newTestClient wires a Client at the test server's address with basic auth.
func newTestClient(server *httptest.Server) *Client {
	creds := &config.Credentials{
		Mode:     config.AuthBasic,
		BaseURL:  server.URL,
		Username: "alice",
		Password: "s3cret",
	}
	return NewClient(server.Client(), creds)
}

const groupsJSON = `{"indicatorGroups": [
  {"id": "grp1", "displayName": "Carte Score:PALUDISME"},
  {"id": "grp2", "displayName": "Autre"},
  {"id": "grp3", "displayName": "Vaccination"}
]}`

func TestGroups(t *testing.T) {
	var gotAuth bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _, gotAuth = r.BasicAuth()
		require.Equal(t, "/api/indicatorGroups.json", r.URL.Path)
		require.Equal(t, "false", r.URL.Query().Get("paging"))
		fmt.Fprint(w, groupsJSON)
	}))
	defer server.Close()

	groups, err := newTestClient(server).Groups(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 3)
	assert.Equal(t, "grp1", groups[0].ID)
	assert.Equal(t, "Carte Score:PALUDISME", groups[0].DisplayName)
	assert.True(t, gotAuth, "request should carry basic auth")
}

func TestGroupsMissingField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"pager": {}}`)
	}))
	defer server.Close()

	_, err := newTestClient(server).Groups(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRemote)
}

func TestResolveGroupIDs(t *testing.T) {
	t.Run("Explicit IDs Skip Listing", func(t *testing.T) {
		listCalls := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			listCalls++
			fmt.Fprint(w, groupsJSON)
		}))
		defer server.Close()

		ids, err := newTestClient(server).ResolveGroupIDs(context.Background(), "grpX, grpY", "")
		require.NoError(t, err)
		assert.Equal(t, []string{"grpX", "grpY"}, ids)
		assert.Zero(t, listCalls, "explicit ids must not query the group listing")
	})

	t.Run("Description Substring Case-Insensitive", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, groupsJSON)
		}))
		defer server.Close()

		ids, err := newTestClient(server).ResolveGroupIDs(context.Background(), "", "Paludism")
		require.NoError(t, err)
		assert.Equal(t, []string{"grp1"}, ids)
	})

	t.Run("No Match", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, groupsJSON)
		}))
		defer server.Close()

		_, err := newTestClient(server).ResolveGroupIDs(context.Background(), "", "Tuberculose")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNoGroupMatch)
	})

	t.Run("Ambiguous Match", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"indicatorGroups": [
  {"id": "grp1", "displayName": "Paludisme simple"},
  {"id": "grp2", "displayName": "Paludisme grave"}
]}`)
		}))
		defer server.Close()

		_, err := newTestClient(server).ResolveGroupIDs(context.Background(), "", "paludisme")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrAmbiguousGroup)
		assert.Contains(t, err.Error(), "Paludisme simple")
		assert.Contains(t, err.Error(), "Paludisme grave")
	})

	t.Run("Explicit IDs All Blank", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		defer server.Close()

		_, err := newTestClient(server).ResolveGroupIDs(context.Background(), " , ,", "")
		assert.Error(t, err)
	})
}

func TestErrorClassification(t *testing.T) {
	statusCases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrAuth},
		{http.StatusForbidden, ErrAuth},
		{http.StatusNotFound, ErrRemote},
		{http.StatusInternalServerError, ErrRemote},
	}
	for _, tc := range statusCases {
		t.Run(fmt.Sprintf("Status %d", tc.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer server.Close()

			_, err := newTestClient(server).Groups(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	t.Run("Connection Failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		client := newTestClient(server)
		server.Close() // Unreachable host

		_, err := client.Groups(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNetwork)
	})
}

func TestGroup(t *testing.T) {
	t.Run("Indicator Group", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/api/identifiableObjects/grp1":
				fmt.Fprintf(w, `{"href": "%s/api/indicatorGroups/grp1"}`, "https://hmis.example.org")
			case "/api/indicatorGroups/grp1":
				fmt.Fprint(w, `{"displayName": "Paludisme", "indicators": [{"id": "ind1"}, {"id": "ind2"}]}`)
			default:
				t.Errorf("unexpected path %s", r.URL.Path)
			}
		}))
		defer server.Close()

		group, err := newTestClient(server).Group(context.Background(), "grp1")
		require.NoError(t, err)
		assert.Equal(t, "Paludisme", group.DisplayName)
		assert.Equal(t, "indicators", group.ElementType)
		assert.Equal(t, []string{"ind1", "ind2"}, group.ElementIDs)
	})

	t.Run("Data Element Group", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/api/identifiableObjects/deg1":
				fmt.Fprint(w, `{"href": "https://hmis.example.org/api/dataElementGroups/deg1"}`)
			case "/api/dataElementGroups/deg1":
				fmt.Fprint(w, `{"displayName": "Consultations", "dataElements": [{"id": "de1"}]}`)
			default:
				t.Errorf("unexpected path %s", r.URL.Path)
			}
		}))
		defer server.Close()

		group, err := newTestClient(server).Group(context.Background(), "deg1")
		require.NoError(t, err)
		assert.Equal(t, "dataElements", group.ElementType)
		assert.Equal(t, []string{"de1"}, group.ElementIDs)
	})

	t.Run("Unknown ID", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		_, err := newTestClient(server).Group(context.Background(), "missing")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrRemote)
		assert.Contains(t, err.Error(), "missing")
	})

	t.Run("No Usable Href", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"name": "something"}`)
		}))
		defer server.Close()

		_, err := newTestClient(server).Group(context.Background(), "grp1")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrRemote)
	})

	t.Run("No DisplayName", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/api/identifiableObjects/grp1":
				fmt.Fprint(w, `{"href": "https://h/api/indicatorGroups/grp1"}`)
			default:
				fmt.Fprint(w, `{"indicators": []}`)
			}
		}))
		defer server.Close()

		_, err := newTestClient(server).Group(context.Background(), "grp1")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrRemote)
	})
}

func TestIndicatorTypes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/indicatorTypes", r.URL.Path)
		fmt.Fprint(w, `{"indicatorTypes": [
  {"id": "it1", "displayName": "Number"},
  {"id": "it2", "displayName": "Per thousand"}
]}`)
	}))
	defer server.Close()

	types, err := newTestClient(server).IndicatorTypes(context.Background())
	require.NoError(t, err)
	require.Len(t, types, 2)
	assert.Equal(t, "Per thousand", types[1].DisplayName)
}

func TestTokenAuthHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok123", r.Header.Get("Authorization"))
		fmt.Fprint(w, groupsJSON)
	}))
	defer server.Close()

	creds := &config.Credentials{Mode: config.AuthToken, BaseURL: server.URL, Token: "tok123"}
	client := NewClient(server.Client(), creds)
	_, err := client.Groups(context.Background())
	require.NoError(t, err)
}

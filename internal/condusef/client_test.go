package condusef

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticate_TokenShapes(t *testing.T) {
	shapes := map[string]string{
		"top level token":   `{"token": "tok-1"}`,
		"top level access":  `{"access": "tok-1"}`,
		"data.token_access": `{"data": {"token_access": "tok-1"}}`,
		"user.token_access": `{"msg": "Login exitoso!!!", "user": {"token_access": "tok-1"}}`,
	}

	for name, body := range shapes {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/auth/users/token/", r.URL.Path)

				var creds map[string]string
				require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
				assert.Equal(t, "UCISA", creds["username"])

				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(body))
			}))
			defer srv.Close()

			client := New(srv.URL)
			token, err := client.Authenticate(context.Background(), "UCISA", "secret")
			require.NoError(t, err)
			assert.Equal(t, "tok-1", token)
		})
	}
}

func TestAuthenticate_NoTokenInResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"msg": "ok but no token"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Authenticate(context.Background(), "u", "p")
	var apiError *APIError
	require.ErrorAs(t, err, &apiError)
	assert.Contains(t, apiError.Message, "Unable to find token")
}

func TestAuthenticate_ErrorBodyMessageSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"data": {"message": "Credenciales inválidas"}}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Authenticate(context.Background(), "u", "wrong")
	var apiError *APIError
	require.ErrorAs(t, err, &apiError)
	assert.Equal(t, "Credenciales inválidas", apiError.Message)
	assert.Equal(t, http.StatusUnauthorized, apiError.StatusCode)
}

func TestAuthenticate_NonJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html>login page</html>`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Authenticate(context.Background(), "u", "p")
	var apiError *APIError
	require.ErrorAs(t, err, &apiError)
	assert.Equal(t, "API did not return JSON", apiError.Message)
}

func TestGetPublic_QueryForwarded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sepomex/codigos-postales/", r.URL.Path)
		assert.Equal(t, "9", r.URL.Query().Get("estado_id"))
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{"codigos_postales": [{"cp": "11550"}]}`))
	}))
	defer srv.Close()

	data, err := New(srv.URL).GetPublic(context.Background(), "sepomex/codigos-postales/", map[string][]string{
		"estado_id": {"9"},
	})
	require.NoError(t, err)
	assert.Len(t, ExtractList(data, PostalCodeListKeys), 1)
}

func TestGetProtected_AddsBearerPrefix(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"products": [{"id": "028212721377"}]}`))
	}))
	defer srv.Close()

	client := New(srv.URL)

	_, err := client.GetProtected(context.Background(), "catalogos/products-list", "raw-token", nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer raw-token", gotAuth)

	_, err = client.GetProtected(context.Background(), "catalogos/products-list", "Bearer already", nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer already", gotAuth)
}

func TestSubmitComplaint_CreatedReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/redeco/quejas", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "250701", payload["QuejasFolio"])

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"message": "Queja registrada"}`))
	}))
	defer srv.Close()

	data, err := New(srv.URL).SubmitComplaint(context.Background(), "tok", map[string]any{
		"QuejasFolio": "250701",
	})
	require.NoError(t, err)
	assert.Equal(t, "Queja registrada", data.(map[string]any)["message"])
}

func TestSubmitComplaint_NonJSONSuccessBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("OK"))
	}))
	defer srv.Close()

	data, err := New(srv.URL).SubmitComplaint(context.Background(), "tok", map[string]any{})
	require.NoError(t, err)

	marker := data.(map[string]any)
	assert.Equal(t, "ok", marker["status"])
	assert.Equal(t, http.StatusOK, marker["code"])
	assert.Equal(t, "OK", marker["text"])
}

func TestSubmitComplaint_AuthStatusesGetFixedMessages(t *testing.T) {
	for status, fragment := range map[int]string{
		http.StatusUnauthorized: "401 Unauthorized",
		http.StatusForbidden:    "403 Forbidden",
	} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
		}))

		_, err := New(srv.URL).SubmitComplaint(context.Background(), "tok", map[string]any{})
		srv.Close()

		var apiError *APIError
		require.ErrorAs(t, err, &apiError)
		assert.Contains(t, apiError.Message, fragment)
	}
}

func TestSubmitComplaint_OtherErrorExtractsMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"errors": {"msg": "folio duplicado"}}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).SubmitComplaint(context.Background(), "tok", map[string]any{})
	var apiError *APIError
	require.ErrorAs(t, err, &apiError)
	assert.Equal(t, "folio duplicado", apiError.Message)
}

func TestClient_ConnectionRefused(t *testing.T) {
	// Reserved but unassigned port: the connection should fail immediately.
	client := New("http://127.0.0.1:1")
	_, err := client.GetPublic(context.Background(), "catalogos/medio-recepcion", nil)

	var apiError *APIError
	require.ErrorAs(t, err, &apiError)
	assert.Contains(t, apiError.Message, "Error connecting to REDECO API")
}

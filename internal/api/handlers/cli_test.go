//go:build integration

package handlers

import (
	"bytes"
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sk-platform/skauth/internal/api/auth"
	"github.com/sk-platform/skauth/pkg/models"
	"github.com/sk-platform/skauth/pkg/store"
)

type cliTestEnv struct {
	store   store.Store
	handler *CLIHandler
	user    *models.User
	privKey *rsa.PrivateKey
}

func setupCLITest(t *testing.T) *cliTestEnv {
	t.Helper()

	st, err := store.New(&store.Config{
		Type:   "sqlite",
		SQLite: store.SQLiteConfig{Path: ":memory:"},
	})
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	jwtService, err := auth.NewJWTService(auth.JWTConfig{
		Secret: "test-secret-key-that-is-at-least-32-characters-long",
	})
	if err != nil {
		t.Fatalf("Failed to create JWT service: %v", err)
	}

	user := &models.User{Email: "cli-user@example.com", Role: string(models.RoleViewer)}
	id, err := st.CreateUser(context.Background(), user)
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	user.ID = id

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		t.Fatalf("Failed to marshal key: %v", err)
	}
	keyPEM := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))

	if err := st.CreatePublicKey(context.Background(), &models.PublicKey{
		Fingerprint: models.KeyFingerprint(keyPEM),
		KeyValue:    keyPEM,
		UserID:      user.ID,
	}); err != nil {
		t.Fatalf("Failed to register key: %v", err)
	}

	sessions := auth.NewSessionIssuer(jwtService, st)
	nonces := auth.NewNonceEngine(st)
	handler := NewCLIHandler(st, nonces, sessions, nil)

	return &cliTestEnv{
		store:   st,
		handler: handler,
		user:    user,
		privKey: priv,
	}
}

func (env *cliTestEnv) fingerprint() string {
	key, _ := env.store.GetPublicKeyByUserID(context.Background(), env.user.ID)
	return key.Fingerprint
}

func (env *cliTestEnv) requestNonce(t *testing.T) string {
	t.Helper()

	body, _ := json.Marshal(RequestNonceRequest{Fingerprint: env.fingerprint()})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cli/request-nonce", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	env.handler.RequestNonce(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("request-nonce failed with status %d: %s", rr.Code, rr.Body.String())
	}

	var resp RequestNonceResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode nonce response: %v", err)
	}
	return resp.Nonce
}

// signedLogin builds a login request with a signature over the payload.
func (env *cliTestEnv) signedLogin(t *testing.T, nonce string) *httptest.ResponseRecorder {
	t.Helper()

	payload := fmt.Sprintf(`{"nonce":%q,"fingerprint":%q}`, nonce, env.fingerprint())
	digest := sha256.Sum256([]byte(payload))
	sig, err := rsa.SignPSS(rand.Reader, env.privKey, crypto.SHA256, digest[:], nil)
	if err != nil {
		t.Fatalf("failed to sign payload: %v", err)
	}

	body, _ := json.Marshal(CLILoginRequest{
		Nonce:         nonce,
		SignedPayload: json.RawMessage(payload),
		Signature:     base64.StdEncoding.EncodeToString(sig),
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cli/login", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	env.handler.Login(rr, req)
	return rr
}

func TestCLIHandler_RequestNonce(t *testing.T) {
	env := setupCLITest(t)

	t.Run("known fingerprint", func(t *testing.T) {
		nonce := env.requestNonce(t)
		if len(nonce) != auth.NonceLength {
			t.Errorf("expected %d-digit nonce, got %q", auth.NonceLength, nonce)
		}
	})

	t.Run("unknown fingerprint", func(t *testing.T) {
		body, _ := json.Marshal(RequestNonceRequest{Fingerprint: "ffffffffffffffff"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cli/request-nonce", bytes.NewReader(body))
		rr := httptest.NewRecorder()
		env.handler.RequestNonce(rr, req)
		if rr.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rr.Code)
		}
	})

	t.Run("missing fingerprint", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cli/request-nonce", bytes.NewReader([]byte(`{}`)))
		rr := httptest.NewRecorder()
		env.handler.RequestNonce(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
		}
	})
}

func TestCLIHandler_LoginFlow(t *testing.T) {
	env := setupCLITest(t)

	nonce := env.requestNonce(t)
	rr := env.signedLogin(t, nonce)
	if rr.Code != http.StatusOK {
		t.Fatalf("login failed with status %d: %s", rr.Code, rr.Body.String())
	}

	var resp CLILoginResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("expected session token")
	}

	// Token row exists and has no expiry: CLI sessions live until revoked.
	record, err := env.store.GetTokenByValue(context.Background(), resp.Token)
	if err != nil {
		t.Fatalf("expected token row: %v", err)
	}
	if record.ExpiresAt != nil {
		t.Error("cli-session token must have no expiry")
	}
	if record.Type != string(models.TokenTypeCLISession) {
		t.Errorf("expected cli-session type, got %q", record.Type)
	}
}

func TestCLIHandler_LoginReplayRejected(t *testing.T) {
	env := setupCLITest(t)

	nonce := env.requestNonce(t)
	if rr := env.signedLogin(t, nonce); rr.Code != http.StatusOK {
		t.Fatalf("first login failed: %d", rr.Code)
	}

	// Same nonce again: consumed, must be rejected.
	if rr := env.signedLogin(t, nonce); rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d on replay, got %d", http.StatusUnauthorized, rr.Code)
	}
}

func TestCLIHandler_LoginBadSignature(t *testing.T) {
	env := setupCLITest(t)
	nonce := env.requestNonce(t)

	payload := fmt.Sprintf(`{"nonce":%q}`, nonce)
	otherKey, _ := rsa.GenerateKey(rand.Reader, 2048)
	digest := sha256.Sum256([]byte(payload))
	sig, _ := rsa.SignPSS(rand.Reader, otherKey, crypto.SHA256, digest[:], nil)

	body, _ := json.Marshal(CLILoginRequest{
		Nonce:         nonce,
		SignedPayload: json.RawMessage(payload),
		Signature:     base64.StdEncoding.EncodeToString(sig),
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cli/login", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	env.handler.Login(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}

	// A failed signature must not burn the nonce: a correct retry works.
	if rr := env.signedLogin(t, nonce); rr.Code != http.StatusOK {
		t.Errorf("expected retry to succeed, got %d", rr.Code)
	}
}

func TestCLIHandler_LoginNonceMismatch(t *testing.T) {
	env := setupCLITest(t)
	nonce := env.requestNonce(t)
	other := env.requestNonce(t)

	// Signature is valid over a payload naming a different nonce.
	payload := fmt.Sprintf(`{"nonce":%q}`, other)
	digest := sha256.Sum256([]byte(payload))
	sig, err := rsa.SignPSS(rand.Reader, env.privKey, crypto.SHA256, digest[:], nil)
	if err != nil {
		t.Fatalf("failed to sign payload: %v", err)
	}

	body, _ := json.Marshal(CLILoginRequest{
		Nonce:         nonce,
		SignedPayload: json.RawMessage(payload),
		Signature:     base64.StdEncoding.EncodeToString(sig),
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cli/login", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	env.handler.Login(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}
}

func TestCLIHandler_LoginMalformedSignature(t *testing.T) {
	env := setupCLITest(t)
	nonce := env.requestNonce(t)

	body, _ := json.Marshal(CLILoginRequest{
		Nonce:         nonce,
		SignedPayload: json.RawMessage(fmt.Sprintf(`{"nonce":%q}`, nonce)),
		Signature:     "not!!base64",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cli/login", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	env.handler.Login(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

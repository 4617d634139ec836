package httpkit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func testContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, rec
}

func TestGetIdentityAuthenticated(t *testing.T) {
	c, _ := testContext(t)
	userID := uuid.New()
	c.Set(ContextUserIDKey, userID)

	id := GetIdentity(c)
	if !id.IsAuthenticated() {
		t.Fatal("expected an authenticated identity")
	}
	if id.UserID() != userID {
		t.Fatalf("expected user id %s, got %s", userID, id.UserID())
	}
}

func TestGetIdentityWithoutMiddleware(t *testing.T) {
	c, _ := testContext(t)

	if GetIdentity(c).IsAuthenticated() {
		t.Fatal("expected an unauthenticated identity")
	}
}

func TestGetIdentityRejectsWrongKeyType(t *testing.T) {
	c, _ := testContext(t)
	c.Set(ContextUserIDKey, "not-a-uuid")

	if GetIdentity(c).IsAuthenticated() {
		t.Fatal("expected an unauthenticated identity for a malformed key")
	}
}

func TestMustGetIdentityAbortsUnauthenticated(t *testing.T) {
	c, rec := testContext(t)

	if id := MustGetIdentity(c); id != nil {
		t.Fatalf("expected nil identity, got %v", id)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

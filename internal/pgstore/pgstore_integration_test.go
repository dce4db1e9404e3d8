package pgstore

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-builder/internal/auth"
	"github.com/jonathan/resume-builder/internal/store"
	"github.com/jonathan/resume-builder/internal/types"
)

// connectTest connects to the database named by DATABASE_URL, skipping the
// test when the variable is unset.
func connectTest(t *testing.T, identity auth.Provider) *Store {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
	ctx := context.Background()
	s, err := Connect(ctx, url, identity)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	require.NoError(t, s.EnsureSchema(ctx))
	return s
}

func testDocument() *types.CanonicalDocument {
	doc := types.DefaultDocument()
	doc.Identity = &types.Identity{FirstName: "Maria", LastName: "Alvarez", Email: "m@example.com"}
	doc.Competencies = []string{"Triage", "Wound Care"}
	return doc
}

func TestIntegration_SaveLoadRoundTrip(t *testing.T) {
	owner := auth.NewStaticProvider(uuid.New())
	s := connectTest(t, owner)
	ctx := context.Background()

	saved := s.Save(ctx, testDocument(), store.SaveOptions{
		Title:        "Integration Draft",
		TemplateID:   types.DefaultTemplateID,
		SectionOrder: types.SectionKeys(),
	})
	require.True(t, saved.OK(), saved.Reason)
	require.NotEmpty(t, saved.ID)
	t.Cleanup(func() { s.Delete(ctx, saved.ID) })

	loaded := s.Load(ctx, saved.ID)
	require.True(t, loaded.OK(), loaded.Reason)
	assert.Equal(t, "Integration Draft", loaded.Meta.Title)
	assert.Equal(t, "Maria", loaded.Content.Identity.FirstName)
	assert.Equal(t, []string{"Triage", "Wound Care"}, loaded.Content.Competencies)
}

func TestIntegration_UpdateReplacesContent(t *testing.T) {
	owner := auth.NewStaticProvider(uuid.New())
	s := connectTest(t, owner)
	ctx := context.Background()

	saved := s.Save(ctx, testDocument(), store.SaveOptions{Title: "Before"})
	require.True(t, saved.OK(), saved.Reason)
	t.Cleanup(func() { s.Delete(ctx, saved.ID) })

	doc := testDocument()
	doc.Narrative = "Telemetry nurse with five years of progressive acuity."
	updated := s.Update(ctx, saved.ID, doc, store.SaveOptions{Title: "After"})
	require.True(t, updated.OK(), updated.Reason)
	assert.Equal(t, saved.ID, updated.ID)

	loaded := s.Load(ctx, saved.ID)
	require.True(t, loaded.OK())
	assert.Equal(t, "After", loaded.Meta.Title)
	assert.Equal(t, doc.Narrative, loaded.Content.Narrative)
}

func TestIntegration_OwnerScoping(t *testing.T) {
	owner := auth.NewStaticProvider(uuid.New())
	s := connectTest(t, owner)
	ctx := context.Background()

	saved := s.Save(ctx, testDocument(), store.SaveOptions{Title: "Mine"})
	require.True(t, saved.OK(), saved.Reason)
	t.Cleanup(func() { s.Delete(ctx, saved.ID) })

	other := s.WithIdentity(auth.NewStaticProvider(uuid.New()))

	loaded := other.Load(ctx, saved.ID)
	assert.Equal(t, store.StatusNotFound, loaded.Status, "documents never leak across owners")

	updated := other.Update(ctx, saved.ID, testDocument(), store.SaveOptions{Title: "Stolen"})
	assert.Equal(t, store.StatusNotFound, updated.Status)

	res := other.Delete(ctx, saved.ID)
	assert.Equal(t, store.StatusNotFound, res.Status)

	metas, listRes := other.List(ctx)
	require.True(t, listRes.OK())
	for _, m := range metas {
		assert.NotEqual(t, saved.ID, m.ID)
	}
}

func TestIntegration_DeleteThenLoadIsNotFound(t *testing.T) {
	owner := auth.NewStaticProvider(uuid.New())
	s := connectTest(t, owner)
	ctx := context.Background()

	saved := s.Save(ctx, testDocument(), store.SaveOptions{Title: "Ephemeral"})
	require.True(t, saved.OK(), saved.Reason)

	require.True(t, s.Delete(ctx, saved.ID).OK())
	assert.Equal(t, store.StatusNotFound, s.Load(ctx, saved.ID).Status)
	assert.Equal(t, store.StatusNotFound, s.Delete(ctx, saved.ID).Status)
}

func TestIntegration_UnauthenticatedStoreIsUnavailable(t *testing.T) {
	s := connectTest(t, auth.NewAnonymous())
	ctx := context.Background()

	assert.False(t, s.Available())
	assert.Equal(t, store.StatusUnavailable, s.Save(ctx, testDocument(), store.SaveOptions{}).Status)
	assert.Equal(t, store.StatusUnavailable, s.Load(ctx, uuid.New().String()).Status)
}

func TestIntegration_UsersLifecycle(t *testing.T) {
	owner := auth.NewStaticProvider(uuid.New())
	s := connectTest(t, owner)
	ctx := context.Background()

	users := NewUsers(s.Pool())
	require.NoError(t, users.EnsureSchema(ctx))

	email := fmt.Sprintf("it-%s@example.com", uuid.New())
	exists, err := users.EmailExists(ctx, email)
	require.NoError(t, err)
	assert.False(t, exists)

	id, err := users.Create(ctx, email, "Maria Alvarez", "bcrypt-hash")
	require.NoError(t, err)
	t.Cleanup(func() { s.Pool().Exec(ctx, `DELETE FROM users WHERE id = $1`, id) })

	exists, err = users.EmailExists(ctx, email)
	require.NoError(t, err)
	assert.True(t, exists)

	byID, err := users.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, email, byID.Email)
	assert.Equal(t, "bcrypt-hash", byID.PasswordHash)

	byEmail, err := users.GetByEmail(ctx, email)
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, id, byEmail.ID)

	missing, err := users.Get(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUpdate_PanicsWithoutID(t *testing.T) {
	s := &Store{}
	assert.Panics(t, func() {
		s.Update(context.Background(), "", testDocument(), store.SaveOptions{})
	})
}

package filestore

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "exports"), time.Minute)
	require.NoError(t, err)
	return s
}

func TestFilenamePerUserPerForm(t *testing.T) {
	s := newStore(t)

	name := s.Filename("Weekly Check-in!", 7, "xlsx")
	assert.Contains(t, name, "weekly-check-in")
	assert.Contains(t, name, "-u7-")
	assert.Contains(t, name, ".xlsx")

	// same user, same form, still no collision
	assert.NotEqual(t, name, s.Filename("Weekly Check-in!", 7, "xlsx"))

	assert.Contains(t, s.Filename("???", 1, "csv"), "form-u1-")
}

func TestServeOnceRemovesAfterResponse(t *testing.T) {
	s := newStore(t)

	path, err := s.Put("report-u1-abc.csv", []byte("a,b\n1,2\n"))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/export", nil)
	s.ServeOnce(w, r, path)

	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "a,b\n1,2\n", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "report-u1-abc.csv")

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestSweepRemovesOnlyLeftovers(t *testing.T) {
	s := newStore(t)

	stale, err := s.Put("stale.xlsx", []byte("old"))
	require.NoError(t, err)
	fresh, err := s.Put("fresh.xlsx", []byte("new"))
	require.NoError(t, err)

	past := time.Now().Add(-2 * time.Minute)
	require.NoError(t, os.Chtimes(stale, past, past))

	s.Sweep()

	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(fresh)
	assert.NoError(t, err)
}

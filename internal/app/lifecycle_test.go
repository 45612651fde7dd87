package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenroom-live/greenroom/internal/app"
	"github.com/greenroom-live/greenroom/internal/domain"
	"github.com/greenroom-live/greenroom/internal/store"
)

type update struct {
	conn domain.ConnID
	view domain.SessionView
}

type fakeNotifier struct {
	mu      sync.Mutex
	updates []update
	offers  []domain.ConnID
	audio   map[domain.ConnID]bool
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{audio: make(map[domain.ConnID]bool)}
}

func (f *fakeNotifier) SessionUpdate(conn domain.ConnID, view domain.SessionView) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, update{conn: conn, view: view})
}

func (f *fakeNotifier) RequestOffer(conn domain.ConnID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offers = append(f.offers, conn)
}

func (f *fakeNotifier) AudioStatus(conn domain.ConnID, enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audio[conn] = enabled
}

func (f *fakeNotifier) updateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.updates)
}

func (f *fakeNotifier) lastUpdateFor(conn domain.ConnID) (domain.SessionView, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.updates) - 1; i >= 0; i-- {
		if f.updates[i].conn == conn {
			return f.updates[i].view, true
		}
	}
	return domain.SessionView{}, false
}

type testEnv struct {
	ctl    *app.Controller
	relay  *app.Relay
	reg    *app.Registry
	db     *store.Memory
	notify *fakeNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	tasks, err := app.NewTasks(4)
	require.NoError(t, err)
	t.Cleanup(tasks.Release)

	reg := app.NewRegistry()
	db := store.NewMemory()
	ctl := app.NewController(reg, db, tasks)
	notify := newFakeNotifier()
	ctl.Bind(notify)

	return &testEnv{
		ctl:    ctl,
		relay:  app.NewRelay(ctl),
		reg:    reg,
		db:     db,
		notify: notify,
	}
}

func waitForInterviewLink(t *testing.T, env *testEnv, id domain.SessionID) string {
	t.Helper()
	var interviewID string
	require.Eventually(t, func() bool {
		view, err := env.ctl.Snapshot(id)
		if err != nil || view.InterviewID == "" {
			return false
		}
		interviewID = view.InterviewID
		return true
	}, 2*time.Second, 10*time.Millisecond, "interview link never landed")
	return interviewID
}

func TestCreateSessionLinksInterview(t *testing.T) {
	env := newTestEnv(t)
	creator := &domain.User{ID: "u-int", Role: domain.RoleInterviewer}

	id := env.ctl.CreateSession("Alice", creator)
	interviewID := waitForInterviewLink(t, env, id)

	iv, err := env.db.InterviewByID(context.Background(), interviewID)
	require.NoError(t, err)
	assert.Equal(t, string(id), iv.SessionID)
	assert.Equal(t, "u-int", iv.InterviewerID)
	assert.Nil(t, iv.EndTime)
}

func TestJoinUnknownSession(t *testing.T) {
	env := newTestEnv(t)
	err := env.ctl.Join("NoSuchSession", domain.RoleInterviewer, "Alice", "conn-1", nil)
	assert.ErrorIs(t, err, app.ErrSessionNotFound)
}

func TestJoinRoleConflictAndRejoin(t *testing.T) {
	env := newTestEnv(t)
	id := env.ctl.CreateSession("Alice", nil)

	require.NoError(t, env.ctl.Join(id, domain.RoleInterviewer, "Alice", "conn-1", nil))

	// A different connection cannot take the occupied slot.
	err := env.ctl.Join(id, domain.RoleInterviewer, "Mallory", "conn-2", nil)
	assert.ErrorIs(t, err, app.ErrRoleConflict)

	// The same connection rejoins and may rename itself.
	require.NoError(t, env.ctl.Join(id, domain.RoleInterviewer, "Alice B.", "conn-1", nil))
	view, err := env.ctl.Snapshot(id)
	require.NoError(t, err)
	assert.Equal(t, "Alice B.", view.Interviewer.Name)
	assert.True(t, view.Interviewer.Connected)
}

func TestJoinInvalidRole(t *testing.T) {
	env := newTestEnv(t)
	id := env.ctl.CreateSession("Alice", nil)
	err := env.ctl.Join(id, domain.Role("observer"), "Eve", "conn-1", nil)
	assert.ErrorIs(t, err, app.ErrInvalidRole)
}

func TestRejoinAfterDisconnect(t *testing.T) {
	env := newTestEnv(t)
	id := env.ctl.CreateSession("Alice", nil)

	require.NoError(t, env.ctl.Join(id, domain.RoleCandidate, "Bob", "conn-1", nil))
	env.ctl.Disconnect("conn-1")

	view, err := env.ctl.Snapshot(id)
	require.NoError(t, err)
	assert.False(t, view.Candidate.Connected)
	assert.Equal(t, "Bob", view.Candidate.Name, "disconnected slot retains its name")

	// A fresh connection may claim the disconnected slot.
	require.NoError(t, env.ctl.Join(id, domain.RoleCandidate, "Bob", "conn-2", nil))
	view, err = env.ctl.Snapshot(id)
	require.NoError(t, err)
	assert.True(t, view.Candidate.Connected)
}

func TestDisconnectClearsMediaFlags(t *testing.T) {
	env := newTestEnv(t)
	id := env.ctl.CreateSession("Alice", nil)

	require.NoError(t, env.ctl.Join(id, domain.RoleCandidate, "Bob", "cand-conn", nil))
	env.relay.SetStreaming(id, "cand-conn", true)
	env.relay.SetScreenSharing(id, "cand-conn", true)

	env.ctl.Disconnect("cand-conn")

	view, err := env.ctl.Snapshot(id)
	require.NoError(t, err)
	assert.False(t, view.Candidate.Streaming)
	assert.False(t, view.Candidate.ScreenSharing)
}

func TestBothDisconnectedStampsEndTime(t *testing.T) {
	env := newTestEnv(t)
	id := env.ctl.CreateSession("Alice", nil)
	interviewID := waitForInterviewLink(t, env, id)

	require.NoError(t, env.ctl.Join(id, domain.RoleInterviewer, "Alice", "int-conn", nil))
	require.NoError(t, env.ctl.Join(id, domain.RoleCandidate, "Bob", "cand-conn", nil))

	env.ctl.Disconnect("int-conn")
	iv, err := env.db.InterviewByID(context.Background(), interviewID)
	require.NoError(t, err)
	assert.Nil(t, iv.EndTime, "one side still connected, no auto-close")

	env.ctl.Disconnect("cand-conn")
	require.Eventually(t, func() bool {
		iv, err := env.db.InterviewByID(context.Background(), interviewID)
		return err == nil && iv.EndTime != nil
	}, 2*time.Second, 10*time.Millisecond, "end time never stamped")
}

func TestCloseAuthorization(t *testing.T) {
	env := newTestEnv(t)
	owner := &domain.User{ID: "u-owner", Role: domain.RoleInterviewer}
	stranger := &domain.User{ID: "u-other", Role: domain.RoleInterviewer}
	admin := &domain.User{ID: "u-admin", Role: domain.RoleAdmin}

	id := env.ctl.CreateSession("Alice", owner)
	interviewID := waitForInterviewLink(t, env, id)
	require.NoError(t, env.ctl.Join(id, domain.RoleInterviewer, "Alice", "int-conn", owner))

	err := env.ctl.Close(id, stranger)
	assert.ErrorIs(t, err, app.ErrForbidden)
	_, err = env.ctl.Snapshot(id)
	assert.NoError(t, err, "forbidden close must not mutate the session")
	iv, err := env.db.InterviewByID(context.Background(), interviewID)
	require.NoError(t, err)
	assert.Nil(t, iv.EndTime, "forbidden close must not stamp the interview")

	require.NoError(t, env.ctl.Close(id, owner))
	_, err = env.ctl.Snapshot(id)
	assert.ErrorIs(t, err, app.ErrSessionNotFound)

	// Closing again reports the session as gone.
	assert.ErrorIs(t, env.ctl.Close(id, admin), app.ErrSessionNotFound)

	require.Eventually(t, func() bool {
		iv, err := env.db.InterviewByID(context.Background(), interviewID)
		return err == nil && iv.EndTime != nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCloseByAdmin(t *testing.T) {
	env := newTestEnv(t)
	owner := &domain.User{ID: "u-owner", Role: domain.RoleInterviewer}
	admin := &domain.User{ID: "u-admin", Role: domain.RoleAdmin}

	id := env.ctl.CreateSession("Alice", owner)
	require.NoError(t, env.ctl.Join(id, domain.RoleInterviewer, "Alice", "int-conn", owner))
	require.NoError(t, env.ctl.Close(id, admin))
}

func TestRequestOffer(t *testing.T) {
	env := newTestEnv(t)
	id := env.ctl.CreateSession("Alice", nil)

	assert.ErrorIs(t, env.ctl.RequestOffer("NoSuchSession"), app.ErrSessionNotFound)
	assert.ErrorIs(t, env.ctl.RequestOffer(id), app.ErrCandidateNotConnected)

	require.NoError(t, env.ctl.Join(id, domain.RoleCandidate, "Bob", "cand-conn", nil))
	require.NoError(t, env.ctl.RequestOffer(id))

	env.notify.mu.Lock()
	defer env.notify.mu.Unlock()
	require.Len(t, env.notify.offers, 1)
	assert.Equal(t, domain.ConnID("cand-conn"), env.notify.offers[0])
}

func TestRenameTitle(t *testing.T) {
	env := newTestEnv(t)
	id := env.ctl.CreateSession("Alice", nil)
	interviewID := waitForInterviewLink(t, env, id)

	ctx := context.Background()
	require.NoError(t, env.ctl.RenameTitle(ctx, id, "Backend screen round 2"))

	iv, err := env.db.InterviewByID(ctx, interviewID)
	require.NoError(t, err)
	assert.Equal(t, "Backend screen round 2", iv.Title)

	assert.ErrorIs(t, env.ctl.RenameTitle(ctx, "NoSuchSession", "x"), app.ErrSessionNotFound)
}

func TestJoinBroadcastsToRoom(t *testing.T) {
	env := newTestEnv(t)
	id := env.ctl.CreateSession("Alice", nil)

	require.NoError(t, env.ctl.Join(id, domain.RoleInterviewer, "Alice", "int-conn", nil))
	require.NoError(t, env.ctl.Join(id, domain.RoleCandidate, "Bob", "cand-conn", nil))

	view, ok := env.notify.lastUpdateFor("int-conn")
	require.True(t, ok, "interviewer never received a session update")
	require.NotNil(t, view.Candidate)
	assert.Equal(t, "Bob", view.Candidate.Name)
	assert.True(t, view.Candidate.Connected)
}

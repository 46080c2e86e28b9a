package appointments

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthdesk/scheduler/internal/timeutil"
)

type fakePatientIndex struct {
	added   map[string][]string
	removed map[string][]string
}

func newFakePatientIndex() *fakePatientIndex {
	return &fakePatientIndex{added: map[string][]string{}, removed: map[string][]string{}}
}

func (f *fakePatientIndex) AddAppointment(ctx context.Context, patientID, appointmentID string) error {
	f.added[patientID] = append(f.added[patientID], appointmentID)
	return nil
}

func (f *fakePatientIndex) RemoveAppointment(ctx context.Context, patientID, appointmentID string) error {
	f.removed[patientID] = append(f.removed[patientID], appointmentID)
	return nil
}

func newTestService(t *testing.T) (*Service, *InMemoryRepository, *fakePatientIndex) {
	t.Helper()
	repo := NewInMemoryRepository()
	idx := newFakePatientIndex()
	return NewService(repo, idx, nil, nil), repo, idx
}

func bookingReq(doctorID, date, start, end string) *CreateRequest {
	return &CreateRequest{
		DoctorID:  doctorID,
		PatientID: "pat-1",
		Date:      timeutil.MustDate(date),
		Start:     timeutil.MustClock(start),
		End:       timeutil.MustClock(end),
		Type:      "checkup",
	}
}

func TestBookRejectsOverlappingSlot(t *testing.T) {
	svc, _, idx := newTestService(t)
	ctx := context.Background()

	first, err := svc.Book(ctx, bookingReq("doc-1", "2024-01-08", "10:00", "10:30"), StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, first.Status)
	assert.Equal(t, []string{first.ID}, idx.added["pat-1"])

	_, err = svc.Book(ctx, bookingReq("doc-1", "2024-01-08", "10:15", "10:45"), StatusConfirmed)
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	// Touching intervals are fine.
	_, err = svc.Book(ctx, bookingReq("doc-1", "2024-01-08", "10:30", "11:00"), StatusConfirmed)
	assert.NoError(t, err)

	// Other doctors are unaffected.
	_, err = svc.Book(ctx, bookingReq("doc-2", "2024-01-08", "10:00", "10:30"), StatusConfirmed)
	assert.NoError(t, err)
}

func TestBookValidatesRequest(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	req := bookingReq("doc-1", "2024-01-08", "10:30", "10:00")
	_, err := svc.Book(ctx, req, StatusConfirmed)
	assert.ErrorIs(t, err, ErrInvalidInterval)

	req = bookingReq("", "2024-01-08", "10:00", "10:30")
	_, err = svc.Book(ctx, req, StatusConfirmed)
	assert.ErrorIs(t, err, ErrMissingDoctor)

	_, err = svc.Book(ctx, bookingReq("doc-1", "2024-01-08", "10:00", "10:30"), StatusCanceled)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateExcludesSelfFromCollision(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	apt, err := svc.Book(ctx, bookingReq("doc-1", "2024-01-08", "10:00", "10:30"), StatusConfirmed)
	require.NoError(t, err)
	_, err = svc.Book(ctx, bookingReq("doc-1", "2024-01-08", "11:00", "11:30"), StatusConfirmed)
	require.NoError(t, err)

	// Re-saving the same interval must not collide with itself.
	start := timeutil.MustClock("10:00")
	end := timeutil.MustClock("10:30")
	updated, err := svc.Update(ctx, apt.ID, &UpdateRequest{Start: &start, End: &end})
	require.NoError(t, err)
	assert.Equal(t, start, updated.Start)

	// Moving onto the other appointment must fail.
	start = timeutil.MustClock("11:15")
	end = timeutil.MustClock("11:45")
	_, err = svc.Update(ctx, apt.ID, &UpdateRequest{Start: &start, End: &end})
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestUpdateRejectsCanceled(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	apt, err := svc.Book(ctx, bookingReq("doc-1", "2024-01-08", "10:00", "10:30"), StatusConfirmed)
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, apt.ID)
	require.NoError(t, err)

	desc := "follow-up"
	_, err = svc.Update(ctx, apt.ID, &UpdateRequest{Description: &desc})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancelFreesSlot(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	apt, err := svc.Book(ctx, bookingReq("doc-1", "2024-01-08", "10:00", "10:30"), StatusConfirmed)
	require.NoError(t, err)

	canceled, err := svc.Cancel(ctx, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCanceled, canceled.Status)

	// The slot opens up again; the canceled record no longer blocks.
	_, err = svc.Book(ctx, bookingReq("doc-1", "2024-01-08", "10:00", "10:30"), StatusConfirmed)
	assert.NoError(t, err)

	// No transition out of canceled.
	_, err = svc.Confirm(ctx, apt.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestDeletePolicy(t *testing.T) {
	svc, _, idx := newTestService(t)
	ctx := context.Background()
	today := timeutil.MustDate("2024-01-10")

	future, err := svc.Book(ctx, bookingReq("doc-1", "2024-01-12", "10:00", "10:30"), StatusConfirmed)
	require.NoError(t, err)
	past, err := svc.Book(ctx, bookingReq("doc-1", "2024-01-08", "10:00", "10:30"), StatusConfirmed)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, future.ID, today), ErrDeleteForbidden)

	require.NoError(t, svc.Delete(ctx, past.ID, today))
	assert.Contains(t, idx.removed["pat-1"], past.ID)

	_, err = svc.Cancel(ctx, future.ID)
	require.NoError(t, err)
	assert.NoError(t, svc.Delete(ctx, future.ID, today), "canceled appointments may be deleted")

	assert.ErrorIs(t, svc.Delete(ctx, "missing", today), ErrNotFound)
}

func TestCancelManyAtomicLifecycleCheck(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.Book(ctx, bookingReq("doc-1", "2024-01-08", "10:00", "10:30"), StatusInProgress)
	require.NoError(t, err)
	b, err := svc.Book(ctx, bookingReq("doc-1", "2024-01-08", "11:00", "11:30"), StatusInProgress)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, b.ID)
	require.NoError(t, err)

	// One target already canceled: nothing else may flip.
	err = svc.CancelMany(ctx, []string{a.ID, b.ID})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, got.Status)

	require.NoError(t, svc.CancelMany(ctx, []string{a.ID}))
	got, err = repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCanceled, got.Status)
}

func TestPatientConflicts(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	apt, err := svc.Book(ctx, bookingReq("doc-1", "2024-01-08", "10:00", "11:00"), StatusConfirmed)
	require.NoError(t, err)

	hits, err := svc.PatientConflicts(ctx, "pat-1", timeutil.MustDate("2024-01-08"), timeutil.MustClock("10:30"))
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, apt.ID, hits[0].ID)

	hits, err = svc.PatientConflicts(ctx, "pat-1", timeutil.MustDate("2024-01-08"), timeutil.MustClock("11:00"))
	require.NoError(t, err)
	assert.Empty(t, hits, "end of interval is exclusive")

	hits, err = svc.PatientConflicts(ctx, "pat-2", timeutil.MustDate("2024-01-08"), timeutil.MustClock("10:30"))
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestBookableValidatesInterval(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Bookable(context.Background(), timeutil.MustDate("2024-01-08"),
		timeutil.MustClock("11:00"), timeutil.MustClock("10:00"), "doc-1", "")
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

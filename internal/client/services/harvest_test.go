package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/fieldsync/internal/client/models"
	"github.com/dmitrijs2005/fieldsync/internal/common"
	"github.com/dmitrijs2005/fieldsync/internal/submission"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fill(t *testing.T, svc HarvestService, crop string) {
	t.Helper()
	require.NoError(t, svc.Set("parcel", "P-7"))
	require.NoError(t, svc.Set("crop", crop))
	require.NoError(t, svc.Set("quantity", "3.5"))
	require.NoError(t, svc.Set("gps", "6.36,2.42"))
}

func TestHarvest_SubmitOnlineCommitsAndResetsForm(t *testing.T) {
	e := newEnv(t, true)
	svc := e.harvests(t)
	ctx := context.Background()

	first := svc.Form()
	fill(t, svc, "maize")
	out, err := svc.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, submission.OutcomeCommitted, out)

	second := svc.Form()
	assert.NotSame(t, first, second)
	assert.NotEqual(t, first.Key(), second.Key())
	assert.False(t, second.Draft().IsDirty())
	assert.Equal(t, second.Key(), second.Draft().Value().ID)

	history, err := svc.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, first.Key(), history[0].ID)
	assert.Equal(t, "maize", history[0].CropType)
	assert.False(t, history[0].Date.IsZero())
	require.NotNil(t, history[0].Latitude)
	assert.Equal(t, 6.36, *history[0].Latitude)
}

func TestHarvest_InvalidFormStays(t *testing.T) {
	e := newEnv(t, true)
	svc := e.harvests(t)

	form := svc.Form()
	require.NoError(t, svc.Set("crop", "m"))
	out, err := svc.Submit(context.Background())
	assert.Equal(t, submission.OutcomeInvalid, out)
	require.ErrorIs(t, err, common.ErrValidation)

	var fields []string
	for _, fe := range models.FieldErrors(err) {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{"parcel", "crop", "quantity"}, fields)
	assert.Same(t, form, svc.Form())
}

func TestHarvest_CleanFormIsSkipped(t *testing.T) {
	e := newEnv(t, true)
	svc := e.harvests(t)

	out, err := svc.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, submission.OutcomeSkipped, out)
	assert.False(t, svc.Form().Draft().IsDirty())
}

func TestHarvest_OfflineQueuesThenSyncs(t *testing.T) {
	e := newEnv(t, false)
	svc := e.harvests(t)
	ctx := context.Background()

	fill(t, svc, "maize")
	out, err := svc.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, submission.OutcomeQueued, out)

	fill(t, svc, "sorghum")
	out, err = svc.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, submission.OutcomeQueued, out)

	pending := svc.Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, "maize", pending[0].Payload.CropType)
	assert.Equal(t, "sorghum", pending[1].Payload.CropType)

	history, err := svc.History(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)

	e.sw.Set(true)
	report, err := svc.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Delivered)
	assert.Empty(t, svc.Pending())

	history, err = svc.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "maize", history[0].CropType)
}

func TestHarvest_QueueSurvivesRestart(t *testing.T) {
	e := newEnv(t, false)
	ctx := context.Background()

	svc := e.harvests(t)
	fill(t, svc, "cassava")
	_, err := svc.Submit(ctx)
	require.NoError(t, err)

	restarted := e.harvests(t)
	pending := restarted.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, "cassava", pending[0].Payload.CropType)
}

func TestHarvest_ResetDiscardsEdits(t *testing.T) {
	e := newEnv(t, true)
	svc := e.harvests(t)

	fill(t, svc, "maize")
	require.True(t, svc.Form().Draft().IsDirty())
	svc.Reset()
	assert.False(t, svc.Form().Draft().IsDirty())
}

func TestHarvest_SetUnknownField(t *testing.T) {
	e := newEnv(t, true)
	svc := e.harvests(t)

	require.ErrorIs(t, svc.Set("yield", "1"), models.ErrUnknownField)
	assert.False(t, svc.Form().Draft().IsDirty())
}

func TestHarvest_RejectedSubmitLeavesDraftUntouched(t *testing.T) {
	e := newEnv(t, true)
	svc := e.harvests(t)

	require.NoError(t, svc.Set("crop", "m"))
	form := svc.Form()
	version := form.Draft().Version()

	for range 2 {
		out, err := svc.Submit(context.Background())
		assert.Equal(t, submission.OutcomeInvalid, out)
		require.Error(t, err)
	}

	assert.Equal(t, version, form.Draft().Version())
	assert.True(t, form.Draft().Value().Date.IsZero())
	assert.Equal(t, submission.StateIdle, form.State())
}

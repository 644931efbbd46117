package integrationtest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/qw/artifact"
	"github.com/randalmurphal/qw/check"
	"github.com/randalmurphal/qw/config"
	"github.com/randalmurphal/qw/freeze"
	"github.com/randalmurphal/qw/hosting"
	"github.com/randalmurphal/qw/notify"
	"github.com/randalmurphal/qw/pipeline"
	"github.com/randalmurphal/qw/snapshot"
	"github.com/randalmurphal/qw/testmap"
	"github.com/randalmurphal/qw/testutil"
)

// loadTestMap writes a test mapping file into the store directory and loads
// it back.
func loadTestMap(t *testing.T, r *repo, content string) *testmap.Table {
	t.Helper()
	path := filepath.Join(r.storeDir, testmap.DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	table, err := testmap.LoadFile(path)
	require.NoError(t, err)
	return table
}

func freezeOptions(s config.Settings) pipeline.Options {
	return pipeline.Options{
		ChainStart:  s.ChainStart,
		Concurrency: s.FetchConcurrency,
		Comment:     s.Comment,
	}
}

// TestCheckWorkflow runs a check against item files in a real repository
// and posts the summary to a webhook.
func TestCheckWorkflow(t *testing.T) {
	r := setupTempRepo(t, testutil.DoseItems())
	hook, url := newWebhook(t)
	s := r.settings(t, map[string]string{config.KeyWebhookURL: url})
	ctx, _ := setupContext(t, r, s, nil)

	state, err := pipeline.RunCheck(ctx, pipeline.Options{
		TestMap:     loadTestMap(t, r, "test,targets\nTestDoseLimit,#15\n"),
		ChainStart:  s.ChainStart,
		Concurrency: s.FetchConcurrency,
	})
	require.NoError(t, err)

	assert.False(t, state.Report.Failed(), "findings: %v", state.Report.Findings)
	assert.Equal(t, 5, state.Report.ArtifactsChecked)
	assert.NoError(t, state.NotifyErr)
	assert.Equal(t, []notify.EventType{notify.EventCheckCompleted}, hook.types())

	summary, ok := hook.event(notify.EventCheckCompleted)
	require.True(t, ok)
	assert.Equal(t, r.head(t), summary.Metadata["commit"])
}

// TestCheckWorkflow_UnmappedVerification reports a verification PR with no
// mapped tests as an error finding.
func TestCheckWorkflow_UnmappedVerification(t *testing.T) {
	r := setupTempRepo(t, testutil.DoseItems())
	s := r.settings(t, nil)
	ctx, _ := setupContext(t, r, s, nil)

	state, err := pipeline.RunCheck(ctx, pipeline.Options{
		TestMap:    loadTestMap(t, r, "test,targets\n"),
		ChainStart: s.ChainStart,
	})
	require.NoError(t, err)

	require.True(t, state.Report.Failed())
	errs := state.Report.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, check.VerificationHasTests, errs[0].Check)
	assert.Equal(t, artifact.ID(15), errs[0].ArtifactID)
}

// TestFreezeWorkflow freezes a repository, edits a requirement and freezes
// again, confirming the bump.
func TestFreezeWorkflow(t *testing.T) {
	items := testutil.DoseItems()
	r := setupTempRepo(t, items)
	hook, url := newWebhook(t)
	s := r.settings(t, map[string]string{config.KeyWebhookURL: url})

	// First freeze records everything at version 1.
	ctx, _ := setupContext(t, r, s, freeze.Scripted{})
	state, err := pipeline.RunFreeze(ctx, freezeOptions(s))
	require.NoError(t, err)
	require.True(t, state.Saved)

	store := snapshot.NewFileStore(r.storeDir)
	frozen, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 5, frozen.Len())
	assert.Equal(t, 1, frozen.Version(6))

	// An unchanged repository freezes to nothing.
	state, err = pipeline.RunFreeze(ctx, freezeOptions(s))
	require.NoError(t, err)
	assert.True(t, state.Changes.Empty())

	// Edit the requirement on disk and confirm the bump.
	r.writeItems(t, testutil.Replace(items,
		testutil.Requirement(6, "Dose limit", "Doses above 5 ml are rejected.", 1)))
	ctx, services := setupContext(t, r, s, freeze.Scripted{Bump: true})
	state, err = pipeline.RunFreeze(ctx, freezeOptions(s))
	require.NoError(t, err)

	bumped := state.Changes.Bumped()
	require.Len(t, bumped, 1)
	assert.Equal(t, artifact.ID(6), bumped[0].ID)
	assert.Equal(t, []artifact.ID{7, 12, 15}, bumped[0].StaleChildren)

	frozen, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, 2, frozen.Version(6))
	assert.Equal(t, 1, frozen.Version(7))

	// Advisories go back to the items through the provider.
	dir, ok := services.Provider.(*hosting.DirProvider)
	require.True(t, ok, "provider is %T", services.Provider)
	assert.Len(t, dir.Comments(artifact.Ref{ID: 6}), 1)
	for _, id := range []artifact.ID{7, 12, 15} {
		labels, err := dir.GetLabels(ctx, artifact.Ref{ID: id, IsPR: true})
		require.NoError(t, err)
		assert.Contains(t, labels, artifact.LabelNeedsReverification, "PR %s", id)
	}

	assert.Contains(t, hook.types(), notify.EventVersionBumped)
	assert.Contains(t, hook.types(), notify.EventFreezeCompleted)

	// Reworking a stale pull request clears its label once it is frozen
	// against the new requirement version.
	r.writeItems(t, testutil.Replace(testutil.Replace(items,
		testutil.Requirement(6, "Dose limit", "Doses above 5 ml are rejected.", 1)),
		testutil.PR(7, "Clamp dose input to 5 ml", "", 6)))
	state, err = pipeline.RunFreeze(ctx, freezeOptions(s))
	require.NoError(t, err)
	require.Len(t, state.Changes.Changes, 1)
	assert.True(t, state.Changes.Changes[0].Reverified)

	labels, err := dir.GetLabels(ctx, artifact.Ref{ID: 7, IsPR: true})
	require.NoError(t, err)
	assert.NotContains(t, labels, artifact.LabelNeedsReverification)
	labels, err = dir.GetLabels(ctx, artifact.Ref{ID: 12, IsPR: true})
	require.NoError(t, err)
	assert.Contains(t, labels, artifact.LabelNeedsReverification)
	assert.Contains(t, hook.types(), notify.EventReverified)
}

// TestFreezeWorkflow_Removal marks a vanished item deleted, then drops it
// when removal is confirmed.
func TestFreezeWorkflow_Removal(t *testing.T) {
	items := testutil.DoseItems()
	r := setupTempRepo(t, items)
	s := r.settings(t, map[string]string{config.KeyComment: "false"})
	store := snapshot.NewFileStore(r.storeDir)

	ctx, _ := setupContext(t, r, s, freeze.Scripted{})
	_, err := pipeline.RunFreeze(ctx, freezeOptions(s))
	require.NoError(t, err)

	r.writeItems(t, testutil.Without(items, 12))
	state, err := pipeline.RunFreeze(ctx, freezeOptions(s))
	require.NoError(t, err)
	require.Len(t, state.Changes.Changes, 1)
	assert.Equal(t, freeze.ActionRemoved, state.Changes.Changes[0].Action)

	frozen, err := store.Load()
	require.NoError(t, err)
	rec, ok := frozen.Get(12)
	require.True(t, ok)
	assert.True(t, rec.Deleted)

	// A deleted record is reported once.
	state, err = pipeline.RunFreeze(ctx, freezeOptions(s))
	require.NoError(t, err)
	assert.True(t, state.Changes.Empty())

	// Restoring the file restores the record.
	r.writeItems(t, items)
	state, err = pipeline.RunFreeze(ctx, freezeOptions(s))
	require.NoError(t, err)
	require.Len(t, state.Changes.Changes, 1)
	assert.Equal(t, freeze.ActionRestored, state.Changes.Changes[0].Action)

	// Confirmed removal drops the record.
	r.writeItems(t, testutil.Without(items, 12))
	ctx, _ = setupContext(t, r, s, freeze.Scripted{Remove: true})
	state, err = pipeline.RunFreeze(ctx, freezeOptions(s))
	require.NoError(t, err)
	require.Len(t, state.Changes.Changes, 1)
	assert.Equal(t, freeze.ActionDropped, state.Changes.Changes[0].Action)

	frozen, err = store.Load()
	require.NoError(t, err)
	_, ok = frozen.Get(12)
	assert.False(t, ok)
	assert.Equal(t, 4, frozen.Len())
}

// TestFreezeWorkflow_CorruptStore leaves a corrupt records file untouched.
func TestFreezeWorkflow_CorruptStore(t *testing.T) {
	r := setupTempRepo(t, testutil.DoseItems())
	s := r.settings(t, nil)
	store := snapshot.NewFileStore(r.storeDir)
	require.NoError(t, os.WriteFile(store.Path(), []byte("{not json"), 0o644))

	ctx, _ := setupContext(t, r, s, freeze.Scripted{})
	state, err := pipeline.RunFreeze(ctx, freezeOptions(s))
	require.Error(t, err)
	assert.False(t, state.Saved)

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(data))
}

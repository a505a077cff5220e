package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/trestle/pkg/types"
)

func TestOpenCreatesDefaultView(t *testing.T) {
	sess, _, _ := setupSession(t)

	views, err := sess.Views()
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, DefaultViewName, views[0].Name)
	assert.Equal(t, views[0].ID, sess.CurrentViewID())
}

func TestSaveViewRoundTrip(t *testing.T) {
	sess, st, fids := setupSession(t)

	sess.SetSearch("urgent")
	sess.SetFilter(fids["Hours"], types.Filter{Min: f64(2)})
	sess.SetSort(fids["Hours"], types.SortAsc)
	require.True(t, sess.Dirty())

	require.NoError(t, sess.SaveView())
	assert.False(t, sess.Dirty())

	// A fresh session on the same table resumes the saved arrangement.
	again, err := Open(st, sess.Table().ID, types.Config{})
	require.NoError(t, err)
	state := again.State()
	assert.Equal(t, "urgent", state.Search)
	assert.Equal(t, fids["Hours"], state.SortFieldID)
	assert.Equal(t, types.SortAsc, state.SortDir)
	require.Contains(t, state.Filters, fids["Hours"])
	assert.Equal(t, 2.0, *state.Filters[fids["Hours"]].Min)
}

func TestSaveViewAsSwitchesAndRemembers(t *testing.T) {
	sess, st, _ := setupSession(t)
	mainID := sess.CurrentViewID()

	sess.SetSearch("later")
	v, err := sess.SaveViewAs("Later")
	require.NoError(t, err)
	assert.NotEqual(t, mainID, v.ID)
	assert.Equal(t, v.ID, sess.CurrentViewID())
	assert.False(t, sess.Dirty())

	prefs, err := st.GetTablePrefs(sess.Table().ID)
	require.NoError(t, err)
	assert.Equal(t, v.ID, prefs.LastViewID)

	// The remembered view is the one a new session starts on.
	again, err := Open(st, sess.Table().ID, types.Config{})
	require.NoError(t, err)
	assert.Equal(t, v.ID, again.CurrentViewID())
	assert.Equal(t, "later", again.State().Search)
}

func TestSelectViewAppliesState(t *testing.T) {
	sess, st, fids := setupSession(t)
	mainID := sess.CurrentViewID()

	hiddenView, err := st.CreateView(sess.Table().ID, "Focus", types.ViewState{
		Search:         "focus",
		HiddenFieldIDs: []int64{fids["Due"], fids["Done"]},
	})
	require.NoError(t, err)

	require.NoError(t, sess.SelectView(hiddenView.ID))
	assert.Equal(t, hiddenView.ID, sess.CurrentViewID())
	assert.Equal(t, "focus", sess.State().Search)
	assert.Len(t, sess.VisibleFields(), 2)
	assert.False(t, sess.Dirty())

	prefs, err := st.GetTablePrefs(sess.Table().ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{fids["Due"], fids["Done"]}, prefs.HiddenFieldIDs)

	t.Run("back to main clears hiding", func(t *testing.T) {
		require.NoError(t, sess.SelectView(mainID))
		assert.Len(t, sess.VisibleFields(), 4)
	})

	t.Run("view of another table", func(t *testing.T) {
		other, err := st.CreateTable("Other", nil)
		require.NoError(t, err)
		foreign, err := st.CreateView(other.ID, "Theirs", types.ViewState{})
		require.NoError(t, err)
		assert.ErrorIs(t, sess.SelectView(foreign.ID), types.ErrNotFound)
	})
}

func TestCurrentViewStateFoldsInHiddenFields(t *testing.T) {
	sess, _, fids := setupSession(t)

	require.NoError(t, sess.SetFieldHidden(fids["Due"], true))
	sess.SetFieldsPanel(true)
	sess.SetColWidth(0, 60)
	sess.SetColWidth(fids["Title"], 240)

	state := sess.CurrentViewState()
	assert.Equal(t, []int64{fids["Due"]}, state.HiddenFieldIDs)
	assert.True(t, state.FieldsPanel)
	assert.Equal(t, 240, state.ColWidths[fids["Title"]])
	assert.Equal(t, 60, state.ColWidths[0])
}

func TestRenameView(t *testing.T) {
	sess, _, _ := setupSession(t)

	require.NoError(t, sess.RenameView("Primary"))
	views, err := sess.Views()
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Primary", views[0].Name)

	t.Run("collision", func(t *testing.T) {
		_, err := sess.SaveViewAs("Second")
		require.NoError(t, err)
		assert.ErrorIs(t, sess.RenameView("Primary"), types.ErrDuplicateView)
	})
}

func TestDeleteViewFallsBack(t *testing.T) {
	sess, _, _ := setupSession(t)
	mainID := sess.CurrentViewID()

	t.Run("last view refuses", func(t *testing.T) {
		assert.ErrorIs(t, sess.DeleteView(), types.ErrLastView)
		assert.Equal(t, mainID, sess.CurrentViewID())
	})

	t.Run("falls back to the first remaining", func(t *testing.T) {
		v, err := sess.SaveViewAs("Scratch")
		require.NoError(t, err)
		require.Equal(t, v.ID, sess.CurrentViewID())

		require.NoError(t, sess.DeleteView())
		assert.Equal(t, mainID, sess.CurrentViewID())

		views, err := sess.Views()
		require.NoError(t, err)
		assert.Len(t, views, 1)
	})
}

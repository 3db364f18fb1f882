package websvc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teacherlink/webfront/internal/domain"
)

func TestPage_LoadsLazilyOnce(t *testing.T) {
	t.Parallel()

	page := newPage("listing.html")
	assert.False(t, page.Loaded())

	first, err := page.Load()
	require.NoError(t, err)
	assert.True(t, page.Loaded())

	second, err := page.Load()
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestPage_MissingTemplate(t *testing.T) {
	t.Parallel()

	page := newPage("missing.html")

	_, err := page.Load()
	require.Error(t, err)

	_, err = page.Execute(PageData{})
	require.Error(t, err)
}

func TestPage_Execute(t *testing.T) {
	t.Parallel()

	body, err := newPage("listing.html").Execute(PageData{
		Title: "All jobs",
		User:  &domain.User{Name: "Meera", UserType: domain.UserTypeTeacher},
		Menu:  Menu(&domain.User{UserType: domain.UserTypeTeacher}),
		Data: map[string]any{"items": []any{
			map[string]any{"title": "Chemistry <teacher>", "city": "Pune"},
		}},
	})
	require.NoError(t, err)

	html := string(body)
	assert.Contains(t, html, "<title>All jobs | TeacherLink</title>")
	assert.Contains(t, html, "Chemistry &lt;teacher&gt;")
	assert.Contains(t, html, `href="/seeker/recruiter-actions"`)
	assert.NotContains(t, html, "protect.js")
}

func TestItems(t *testing.T) {
	t.Parallel()

	list := []any{"a", "b"}

	assert.Nil(t, items(nil))
	assert.Equal(t, list, items(list))
	assert.Equal(t, list, items(map[string]any{"data": list}))
	assert.Equal(t, []any{map[string]any{"plan": "gold"}}, items(map[string]any{"plan": "gold"}))
	assert.Equal(t, []any{3.0}, items(3.0))
}

func TestFields(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []field{{Key: "a", Value: 1}, {Key: "b", Value: 2}}, fields(map[string]any{"b": 2, "a": 1}))
	assert.Equal(t, []field{{Value: "plain"}}, fields("plain"))
}

package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectorDefaultWhenNoModal(t *testing.T) {
	def := NewStackModel("default")
	modal := NewStackModel("modal")
	sel := NewSelector(def, modal)

	assert.Same(t, def, sel.Current())
}

func TestSelectorNilForPlainModal(t *testing.T) {
	def := NewStackModel("default")
	modal := NewStackModel("modal")
	sel := NewSelector(def, modal)

	modal.append(NewPage("sheet", "Sheet", ""))

	// The null stack sentinel, distinct from an empty stack.
	assert.Nil(t, sel.Current())
}

func TestSelectorContainerPages(t *testing.T) {
	def := NewStackModel("default")
	modal := NewStackModel("modal")
	sel := NewSelector(def, modal)

	cont := NewContainer("onboarding", "", NewPage("intro", "Intro", ""))
	modal.append(cont)

	require.Same(t, cont.Pages(), sel.Current())
}

func TestSelectorFollowsModalTop(t *testing.T) {
	def := NewStackModel("default")
	modal := NewStackModel("modal")
	sel := NewSelector(def, modal)

	cont := NewContainer("onboarding", "", NewPage("intro", "Intro", ""))
	modal.append(cont)
	modal.append(NewPage("alert", "Alert", ""))

	// A plain modal above the container hides its stack.
	assert.Nil(t, sel.Current())

	modal.removeTop()
	assert.Same(t, cont.Pages(), sel.Current())

	modal.removeTop()
	assert.Same(t, def, sel.Current())
}

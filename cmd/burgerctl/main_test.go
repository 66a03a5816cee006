package main

import (
	"testing"

	"github.com/latchjack/burger/pkg/burger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSelection(t *testing.T) {
	menu := burger.DefaultMenu()

	got, err := parseSelection(menu, []string{"salad=1", "meat=2"})
	require.NoError(t, err)
	assert.Equal(t, burger.Ingredients{"salad": 1, "bacon": 0, "cheese": 0, "meat": 2}, got)

	_, err = parseSelection(menu, []string{"tofu=1"})
	assert.ErrorIs(t, err, burger.ErrUnknownIngredient)

	_, err = parseSelection(menu, []string{"salad"})
	assert.Error(t, err)

	_, err = parseSelection(menu, []string{"salad=-1"})
	assert.Error(t, err)
}

func TestParseOrderArgs(t *testing.T) {
	menu := burger.DefaultMenu()

	selection, contact, err := parseOrderArgs(menu, []string{
		"bacon=1", "--name=Jane Doe", "--street=1 Test Street", "--zip=12345",
		"--country=Germany", "--email=jane@example.com", "--delivery=regular",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, selection["bacon"])
	assert.Equal(t, "12345", contact.ZipCode)
	assert.Equal(t, "regular", contact.DeliveryMethod)
	assert.NoError(t, contact.Validate())

	_, _, err = parseOrderArgs(menu, []string{"--phone=123"})
	assert.Error(t, err)
}

package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterMatching(t *testing.T) {
	f := NewFilter([]string{"Jane Demirci", "Omar Petrov"}, []string{"horoscope"})

	assert.True(t, f.Matches("JANE DEMIRCI questioned in parliament"))
	assert.Equal(t, []string{"jane demirci"}, f.Matching("Jane Demirci questioned in parliament"))
	assert.Equal(t, []string{"jane demirci", "omar petrov"},
		f.Matching("Jane Demirci and Omar Petrov trade barbs"))
	assert.False(t, f.Matches("council approves new bus lanes"))
}

func TestFilterExcludeVetoes(t *testing.T) {
	f := NewFilter([]string{"Omar Petrov"}, []string{"horoscope"})
	assert.False(t, f.Matches("Omar Petrov's weekly horoscope"))
	assert.Nil(t, f.Matching("Omar Petrov's weekly horoscope"))
}

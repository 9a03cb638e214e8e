package utils

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQueueIDShape(t *testing.T) {
	pattern := regexp.MustCompile(`^[A-Za-z0-9]{10}-\d{13}$`)

	id := NewQueueID()
	assert.Regexp(t, pattern, id)

	// The random prefix must actually vary.
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		prefix := strings.SplitN(NewQueueID(), "-", 2)[0]
		seen[prefix] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestCategoryIDNormalizesName(t *testing.T) {
	queueID := "abcde12345-1700000000000"

	assert.Equal(t, queueID+"-walk-in", CategoryID(queueID, "Walk In"))
	assert.Equal(t, queueID+"-senior-citizens", CategoryID(queueID, "  Senior   Citizens "))
	assert.Equal(t, queueID+"-priority", CategoryID(queueID, "priority"))
}

func TestCategoryIDCollidesForEquivalentNames(t *testing.T) {
	queueID := "abcde12345-1700000000000"

	a := CategoryID(queueID, "Walk In")
	b := CategoryID(queueID, "walk  in")
	require.Equal(t, a, b, "names differing only in case and spacing map to one id")
}

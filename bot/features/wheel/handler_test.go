package wheel

import (
	"testing"

	"wagerbot/config"

	"github.com/stretchr/testify/assert"
)

func TestStrip(t *testing.T) {
	segments := []config.WheelSegment{
		{Label: "A"}, {Label: "B"}, {Label: "C"}, {Label: "D"},
	}

	assert.Equal(t, "C · D · **▶ A ◀** · B · C", strip(segments, 0))
	assert.Equal(t, "B · C · **▶ D ◀** · A · B", strip(segments, 3))
}

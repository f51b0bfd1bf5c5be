package curve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseValidSpec(t *testing.T) {
	// GIVEN
	spec := "40:30,50:40,60:55,70:70,80:85,85:100"

	// WHEN
	table, err := Parse(spec)

	// THEN
	assert.NoError(t, err)
	assert.Len(t, table.Entries(), 6)
	assert.Equal(t, spec, table.String())
}

func TestParseEmptySpec(t *testing.T) {
	// WHEN
	_, err := Parse("")

	// THEN
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestParseMalformedEntry(t *testing.T) {
	// WHEN
	_, err := Parse("40:30,abc")

	// THEN
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestParseNonMonotonic(t *testing.T) {
	// WHEN
	_, err := Parse("40:30,30:40")

	// THEN
	assert.ErrorIs(t, err, ErrNonMonotonic)
}

func TestParseDuplicateThreshold(t *testing.T) {
	// WHEN
	_, err := Parse("40:30,40:50")

	// THEN
	assert.ErrorIs(t, err, ErrNonMonotonic)
}

func TestParseSpeedOutOfRange(t *testing.T) {
	// WHEN
	_, err := Parse("40:150")

	// THEN
	assert.ErrorIs(t, err, ErrSpeedOutOfRange)
}

func TestSelectSpeedBelowFirstThreshold(t *testing.T) {
	// GIVEN
	table, err := Parse("40:30,80:100")
	assert.NoError(t, err)

	// WHEN
	speed := table.SelectSpeed(10)

	// THEN
	assert.Equal(t, 30, speed)
}

func TestSelectSpeedAtExactThreshold(t *testing.T) {
	// GIVEN
	table, err := Parse("40:30,60:55,80:100")
	assert.NoError(t, err)

	// WHEN
	speed := table.SelectSpeed(60)

	// THEN
	assert.Equal(t, 55, speed)
}

func TestSelectSpeedAboveLastThreshold(t *testing.T) {
	// GIVEN
	table, err := Parse("40:30,60:55,80:100")
	assert.NoError(t, err)

	// WHEN
	speed := table.SelectSpeed(95)

	// THEN
	assert.Equal(t, 100, speed)
}

func TestSelectSpeedMonotonicallyNonDecreasing(t *testing.T) {
	// GIVEN
	table, err := Parse("40:30,50:40,60:55,70:70,80:85,85:100")
	assert.NoError(t, err)

	// WHEN / THEN
	last := -1
	for temperature := 0; temperature <= 120; temperature++ {
		speed := table.SelectSpeed(temperature)
		assert.GreaterOrEqual(t, speed, last)
		last = speed
	}
}

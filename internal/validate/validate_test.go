package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmail(t *testing.T) {
	got, ok := Email("  mary@freshmart.test ")
	assert.True(t, ok)
	assert.Equal(t, "mary@freshmart.test", got)

	for _, bad := range []string{"", "mary", "mary@", "a@b.c", "<script>@x.com"} {
		_, ok := Email(bad)
		assert.False(t, ok, bad)
	}
}

func TestID(t *testing.T) {
	_, ok := ID("milk-1l")
	assert.True(t, ok)
	for _, bad := range []string{"", "../etc", "a b", "x'--"} {
		_, ok := ID(bad)
		assert.False(t, ok, bad)
	}
}

func TestCategory(t *testing.T) {
	_, ok := Category("")
	assert.True(t, ok)
	_, ok = Category("Fruit & Veg")
	assert.True(t, ok)
	_, ok = Category("<b>")
	assert.False(t, ok)
}

func TestPage(t *testing.T) {
	assert.Equal(t, 1, Page(""))
	assert.Equal(t, 1, Page("-3"))
	assert.Equal(t, 4, Page("4"))
	assert.Equal(t, 1000, Page("99999"))
}

func TestPrice(t *testing.T) {
	d, ok := Price("2.50")
	assert.True(t, ok)
	assert.Equal(t, "2.5", d.String())

	d, ok = Price("3.100")
	assert.True(t, ok)
	assert.Equal(t, "3.1", d.String())

	for _, bad := range []string{"", "abc", "0", "-1.00", "1.005"} {
		_, ok := Price(bad)
		assert.False(t, ok, bad)
	}
}

func TestStarsAndComment(t *testing.T) {
	assert.True(t, Stars(1))
	assert.True(t, Stars(5))
	assert.False(t, Stars(0))
	assert.False(t, Stars(6))

	c, ok := Comment("  tasty ")
	assert.True(t, ok)
	assert.Equal(t, "tasty", c)
	_, ok = Comment(string(make([]byte, 501)))
	assert.False(t, ok)
}

func TestPassword(t *testing.T) {
	assert.True(t, Password("Passw0rd!"))
	assert.False(t, Password("password"))
	assert.False(t, Password("Sh0rt!"))
	assert.False(t, Password("NoDigitsHere!"))
}

package dialog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStyleFor(t *testing.T) {
	tests := []struct {
		kind   Kind
		icon   string
		accent string
		title  string
	}{
		{KindSuccess, "check_circle", "#22c55e", "Berhasil"},
		{KindError, "error", "#ef4444", "Terjadi Kesalahan"},
		{KindWarning, "warning", "#f97316", "Konfirmasi"},
		{KindInfo, "info", "#3b82f6", "Informasi"},
		{Kind("purple"), "info", "#3b82f6", "Informasi"},
		{Kind(""), "info", "#3b82f6", "Informasi"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			s := StyleFor(tt.kind)
			assert.Equal(t, tt.icon, s.Icon)
			assert.Equal(t, tt.accent, s.Accent)
			assert.Equal(t, tt.title, DefaultTitle(tt.kind))
		})
	}
}

func TestUnknownKindAlertUsesInfoStyle(t *testing.T) {
	c := New()
	c.ShowAlert("x", Kind("neon"))

	v, ok := c.Active()
	assert.True(t, ok)
	assert.Equal(t, Kind("neon"), v.Kind)
	assert.Equal(t, styles[KindInfo], v.Style)
	assert.Equal(t, "Informasi", v.Title)
	assert.False(t, Kind("neon").Valid())
}

package diagram

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ritzau/infra-diagrams/pkg/model"
)

func TestPresetDefaults(t *testing.T) {
	tests := []struct {
		name  string
		style Style
		want  model.Attrs
	}{
		{"data", Data("Agent Data"), model.Attrs{"label": "Agent Data", "color": "red"}},
		{"metrics", Metrics("agent metrics"), model.Attrs{"label": "agent metrics", "color": "orange", "style": "dashed"}},
		{"management", Management("management"), model.Attrs{"label": "management", "color": "blue", "style": "dotted"}},
		{"security", Security("mTLS"), model.Attrs{"label": "mTLS", "color": "blue", "style": "dashed"}},
		{"plain", Plain("cache miss"), model.Attrs{"label": "cache miss"}},
		{"plain without label", Plain(""), model.Attrs{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.style.Attrs())
		})
	}
}

func TestDataPresetHasNoLineStyle(t *testing.T) {
	_, ok := Data("x").Attrs()["style"]
	assert.False(t, ok)
	assert.Equal(t, "dotted", Data("x", Line(Dotted)).Attrs()["style"])
}

func TestOverridesWin(t *testing.T) {
	s := Metrics("agent metrics", Color("green"), Weight(0))
	attrs := s.Attrs()
	assert.Equal(t, "green", attrs["color"])
	assert.Equal(t, "dashed", attrs["style"])
	assert.Equal(t, "0", attrs["weight"])

	// Later options win over earlier ones too.
	s = Data("x", Color("green"), Color("purple"), MinLen(4), LabelFloat(), Attr("penwidth", "2"))
	attrs = s.Attrs()
	assert.Equal(t, "purple", attrs["color"])
	assert.Equal(t, "4", attrs["minlen"])
	assert.Equal(t, "true", attrs["labelfloat"])
	assert.Equal(t, "2", attrs["penwidth"])
}

func TestStyleWithDoesNotMutate(t *testing.T) {
	base := Security("mTLS")
	derived := base.With(Weight(1))

	assert.NotContains(t, base.Attrs(), "weight")
	assert.Equal(t, "1", derived.Attrs()["weight"])

	attrs := base.Attrs()
	attrs["color"] = "black"
	assert.Equal(t, "blue", base.Attrs()["color"])
}

func TestPresetLookup(t *testing.T) {
	for _, name := range []string{"", "plain", "data", "metrics", "management", "security"} {
		fn, ok := Preset(name)
		assert.True(t, ok, name)
		assert.NotNil(t, fn)
	}
	_, ok := Preset("sparkles")
	assert.False(t, ok)

	fn, _ := Preset("management")
	assert.Equal(t, Management("m").Attrs(), fn("m").Attrs())
}

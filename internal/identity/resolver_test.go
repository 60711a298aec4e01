package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testConfig() Config {
	return Config{
		Excluded: []string{"dependabot[bot]", "github-actions[bot]", "external-contributor1"},
		Aliases: map[string]string{
			"dev1@company.com": "developer1",
			"Developer One":    "developer1",
			"dev2-laptop":      "developer2",
		},
	}
}

func TestResolve(t *testing.T) {
	r := NewResolver(testConfig())

	tests := []struct {
		name      string
		raw       string
		want      string
		wantKnown bool
	}{
		{"excluded bot", "dependabot[bot]", "", false},
		{"excluded external", "external-contributor1", "", false},
		{"alias by email", "dev1@company.com", "developer1", true},
		{"alias by display name", "Developer One", "developer1", true},
		{"unmapped passes through", "developer3", "developer3", true},
		{"case sensitive", "developer one", "developer one", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Resolve(tt.raw)
			assert.Equal(t, tt.wantKnown, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveRoster(t *testing.T) {
	cfg := testConfig()
	cfg.CoreTeam = []string{"developer1", "developer2"}
	r := NewResolver(cfg)

	assert.True(t, r.RosterEnabled())

	got, ok := r.Resolve("Developer One")
	assert.True(t, ok)
	assert.Equal(t, "developer1", got)

	_, ok = r.Resolve("developer3")
	assert.False(t, ok, "names outside a non-empty roster are excluded")

	_, ok = r.Resolve("dependabot[bot]")
	assert.False(t, ok)
}

func TestResolveEmptyRosterDisablesFiltering(t *testing.T) {
	r := NewResolver(testConfig())
	assert.False(t, r.RosterEnabled())

	got, ok := r.Resolve("someone-new")
	assert.True(t, ok)
	assert.Equal(t, "someone-new", got)
}

func TestResolveAliasToExcluded(t *testing.T) {
	r := NewResolver(Config{
		Excluded: []string{"renovate[bot]"},
		Aliases:  map[string]string{"Renovate Bot": "renovate[bot]"},
	})

	_, ok := r.Resolve("Renovate Bot")
	assert.False(t, ok)
}

func TestResolverCopiesConfig(t *testing.T) {
	cfg := testConfig()
	r := NewResolver(cfg)
	cfg.Aliases["dev1@company.com"] = "someone-else"

	got, _ := r.Resolve("dev1@company.com")
	assert.Equal(t, "developer1", got)
}

func TestResolveDeterministic(t *testing.T) {
	r := NewResolver(testConfig())
	for i := 0; i < 3; i++ {
		got, ok := r.Resolve("dev2-laptop")
		assert.True(t, ok)
		assert.Equal(t, "developer2", got)
	}
}

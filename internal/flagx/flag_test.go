package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	configFlags := []string{"-c", "--config"}

	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "separate value form",
			args:    []string{"-c", "conf.json", "-a", "localhost"},
			allowed: configFlags,
			want:    []string{"-c", "conf.json"},
		},
		{
			name:    "equals form",
			args:    []string{"--config=alt.json", "-a", "localhost"},
			allowed: configFlags,
			want:    []string{"--config=alt.json"},
		},
		{
			name:    "mixed forms keep order",
			args:    []string{"--config=first.json", "-c", "second.json", "-x", "1"},
			allowed: configFlags,
			want:    []string{"--config=first.json", "-c", "second.json"},
		},
		{
			name:    "nothing allowed yields empty slice",
			args:    []string{"-x", "1", "--y=2", "positional"},
			allowed: configFlags,
			want:    []string{},
		},
		{
			name:    "flag at end without value",
			args:    []string{"-c"},
			allowed: configFlags,
			want:    []string{"-c"},
		},
		{
			name:    "next token starting with dash is not a value",
			args:    []string{"-c", "-notvalue"},
			allowed: configFlags,
			want:    []string{"-c"},
		},
		{
			name:    "equals form may carry a dash-prefixed value",
			args:    []string{"--config=--weird.json"},
			allowed: []string{"--config"},
			want:    []string{"--config=--weird.json"},
		},
		{
			name:    "several allowed flags",
			args:    []string{"-a", "localhost:8080", "-c", "conf.json", "--other", "x"},
			allowed: []string{"-c", "-a"},
			want:    []string{"-a", "localhost:8080", "-c", "conf.json"},
		},
		{
			name:    "empty input",
			args:    []string{},
			allowed: configFlags,
			want:    []string{},
		},
		{
			name:    "repeated flag kept in order",
			args:    []string{"-c", "one.json", "-c", "two.json"},
			allowed: []string{"-c"},
			want:    []string{"-c", "one.json", "-c", "two.json"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}

func TestJsonConfigFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("short flag", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", "/path/short.json"}
		assert.Equal(t, "/path/short.json", JsonConfigFlags())
	})

	t.Run("long flag", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", "/path/long.json"}
		assert.Equal(t, "/path/long.json", JsonConfigFlags())
	})

	t.Run("no config flag", func(t *testing.T) {
		os.Args = []string{"testbin", "-x", "1", "-y", "2"}
		assert.Empty(t, JsonConfigFlags())
	})

	t.Run("last occurrence wins", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", "/path/1.json", "-config", "/path/2.json"}
		assert.Equal(t, "/path/2.json", JsonConfigFlags())
	})
}
